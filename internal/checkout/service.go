package checkout

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPlacementDelay = 1500 * time.Millisecond

	// SessionIdleTTL is how long an untouched session is kept.
	SessionIdleTTL = 2 * time.Hour
	sweepEvery     = time.Minute
)

type entry struct {
	session *Session
	seen    time.Time
}

// Service holds one checkout session per cart id. Sessions idle for longer
// than SessionIdleTTL are dropped unless a placement is in flight.
type Service struct {
	carts   Carts
	gateway Gateway
	delay   time.Duration
	log     *zap.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	swept    time.Time
	waiters  sync.WaitGroup
}

func NewService(carts Carts, gateway Gateway, delay time.Duration, log *zap.Logger) *Service {
	if delay < 0 {
		delay = DefaultPlacementDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		carts:    carts,
		gateway:  gateway,
		delay:    delay,
		log:      log,
		idleTTL:  SessionIdleTTL,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Session returns the session for cartID, starting a new one when needed.
func (s *Service) Session(cartID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	e, ok := s.sessions[cartID]
	if !ok {
		e = &entry{session: newSession(cartID, s.carts, s.gateway, s.delay, s.log, &s.waiters)}
		s.sessions[cartID] = e
	}
	e.seen = now
	return e.session
}

// State reads the session for cartID without starting one.
func (s *Service) State(cartID string) State {
	s.mu.Lock()
	now := s.now()
	s.sweep(now)
	e, ok := s.sessions[cartID]
	if ok {
		e.seen = now
	}
	s.mu.Unlock()
	if !ok {
		return initialState()
	}
	return e.session.State()
}

// Reset drops the session so the next visit starts at information.
func (s *Service) Reset(cartID string) {
	s.mu.Lock()
	delete(s.sessions, cartID)
	s.mu.Unlock()
}

// Len reports how many sessions are held.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep drops idle sessions at most once per sweepEvery. Callers hold s.mu.
func (s *Service) sweep(now time.Time) {
	if now.Sub(s.swept) < sweepEvery {
		return
	}
	s.swept = now
	for id, e := range s.sessions {
		if now.Sub(e.seen) < s.idleTTL || e.session.State().IsProcessing {
			continue
		}
		delete(s.sessions, id)
		s.log.Debug("checkout session expired", zap.String("cart_id", id))
	}
}

// Wait blocks until every background payment waiter has returned, including
// those of sessions already dropped.
func (s *Service) Wait() {
	s.waiters.Wait()
}
