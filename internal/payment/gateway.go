package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tabng/tab-backend/internal/apperror"
	"go.uber.org/zap"
)

var (
	ErrAlreadyResolved = apperror.Conflict("Payment session already resolved")
	ErrUnknownSession  = apperror.NotFound("Payment session not found")
	ErrNotConfigured   = errors.New("paystack secret key is not configured")
)

type Config struct {
	SecretKey   string
	PublicKey   string
	BaseURL     string
	CallbackURL string
	SessionTTL  time.Duration
}

// Outcome is how a hosted payment ended.
type Outcome struct {
	Succeeded   bool
	Closed      bool
	Transaction Transaction
}

// Session is a one-shot future for a single hosted payment.
type Session struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
	Request          Request

	done    chan struct{}
	once    sync.Once
	outcome Outcome
	timer   *time.Timer
}

func newSession(req Request) *Session {
	return &Session{Reference: req.Reference, Request: req, done: make(chan struct{})}
}

// Wait blocks until the session is resolved or ctx ends.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (s *Session) resolve(o Outcome) error {
	resolved := false
	s.once.Do(func() {
		resolved = true
		s.outcome = o
		close(s.done)
	})
	if !resolved {
		return ErrAlreadyResolved
	}
	return nil
}

// Gateway opens Paystack hosted-payment sessions and routes their callbacks.
type Gateway struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger

	loadOnce sync.Once
	loadErr  error

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewGateway(cfg Config, log *zap.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		cfg:      cfg,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (g *Gateway) PublicKey() string { return g.cfg.PublicKey }

// load validates the provider configuration once per process.
func (g *Gateway) load() error {
	g.loadOnce.Do(func() {
		if g.cfg.SecretKey == "" {
			g.loadErr = ErrNotConfigured
			return
		}
		g.log.Info("paystack gateway ready", zap.String("base_url", g.cfg.BaseURL))
	})
	return g.loadErr
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Currency    string `json:"currency"`
	CallbackURL string `json:"callback_url,omitempty"`
	Metadata    struct {
		CustomFields []CustomField `json:"custom_fields"`
	} `json:"metadata"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Open initializes the transaction with Paystack and registers a session
// that closes itself after the configured TTL.
func (g *Gateway) Open(ctx context.Context, req Request) (*Session, error) {
	if err := g.load(); err != nil {
		return nil, apperror.Upstream("Payment provider unavailable", err)
	}
	if req.Currency == "" {
		req.Currency = Currency
	}
	payload := initializeRequest{
		Email:       req.Email,
		Amount:      fmt.Sprintf("%d", req.Amount),
		Reference:   req.Reference,
		Currency:    req.Currency,
		CallbackURL: g.cfg.CallbackURL,
	}
	payload.Metadata.CustomFields = req.Metadata
	if payload.Metadata.CustomFields == nil {
		payload.Metadata.CustomFields = []CustomField{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal paystack request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build paystack request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, apperror.Upstream("Failed to reach payment provider", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Upstream("Failed to read payment provider response", err)
	}
	var out initializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperror.Upstream("Invalid payment provider response", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return nil, apperror.Upstream("Payment initialization failed", fmt.Errorf("paystack (%d): %s", resp.StatusCode, out.Message))
	}

	s := newSession(req)
	s.AuthorizationURL = out.Data.AuthorizationURL
	s.AccessCode = out.Data.AccessCode
	g.register(s)
	return s, nil
}

func (g *Gateway) register(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.timer = time.AfterFunc(g.cfg.SessionTTL, func() {
		if err := s.resolve(Outcome{Closed: true}); err == nil {
			g.log.Info("payment session expired", zap.String("reference", s.Reference))
		}
		g.mu.Lock()
		delete(g.sessions, s.Reference)
		g.mu.Unlock()
	})
	g.sessions[s.Reference] = s
}

func (g *Gateway) Session(reference string) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[reference]
	return s, ok
}

// Succeed resolves the session as paid.
func (g *Gateway) Succeed(reference string, tx Transaction) error {
	s, ok := g.Session(reference)
	if !ok {
		return ErrUnknownSession
	}
	if tx.Reference == "" {
		tx.Reference = reference
	}
	return s.resolve(Outcome{Succeeded: true, Transaction: tx})
}

// Close resolves the session as abandoned by the payer.
func (g *Gateway) Close(reference string) error {
	s, ok := g.Session(reference)
	if !ok {
		return ErrUnknownSession
	}
	return s.resolve(Outcome{Closed: true})
}

// Shutdown closes every pending session so their waiters return.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	pending := make([]*Session, 0, len(g.sessions))
	for ref, s := range g.sessions {
		pending = append(pending, s)
		delete(g.sessions, ref)
	}
	g.mu.Unlock()
	for _, s := range pending {
		if s.timer != nil {
			s.timer.Stop()
		}
		_ = s.resolve(Outcome{Closed: true})
	}
}
