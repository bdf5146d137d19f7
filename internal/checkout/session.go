package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/cart"
	"github.com/tabng/tab-backend/internal/payment"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = apperror.BadRequest("Your cart is empty")
	ErrPlacementInFlight = apperror.Conflict("Your order is already being placed")
)

type Carts interface {
	Open(ctx context.Context, key string) (*cart.Store, error)
}

type Gateway interface {
	Open(ctx context.Context, req payment.Request) (*payment.Session, error)
}

// State is the client view of a checkout session.
type State struct {
	Stage           Stage           `json:"currentStep"`
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	OrderSummary    *OrderSummary   `json:"orderSummary"`
	IsProcessing    bool            `json:"isProcessing"`
}

// Placement is the result of PlaceOrder. Paystack placements carry the
// hosted payment details and finish asynchronously.
type Placement struct {
	State            State  `json:"state"`
	Reference        string `json:"reference,omitempty"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
	PaymentURL       string `json:"paymentUrl,omitempty"`
}

// Session is one visitor's walk through checkout. All methods are safe for
// concurrent use.
type Session struct {
	mu     sync.Mutex
	cartID string
	state  State

	// pending holds the summary charged for each open Paystack reference.
	pending map[string]OrderSummary

	carts   Carts
	gateway Gateway
	delay   time.Duration
	log     *zap.Logger
	now     func() time.Time
	waiters *sync.WaitGroup
}

func newSession(cartID string, carts Carts, gateway Gateway, delay time.Duration, log *zap.Logger, waiters *sync.WaitGroup) *Session {
	return &Session{
		cartID:  cartID,
		state:   initialState(),
		pending: make(map[string]OrderSummary),
		carts:   carts,
		gateway: gateway,
		delay:   delay,
		log:     log.With(zap.String("cart_id", cartID)),
		now:     time.Now,
		waiters: waiters,
	}
}

func initialState() State {
	return State{
		Stage:           StageInformation,
		ShippingAddress: ShippingAddress{Country: DefaultCountry},
		PaymentMethod:   PaymentMethod{Type: PaymentPaystack},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	st := s.state
	if st.OrderSummary != nil {
		sum := *st.OrderSummary
		st.OrderSummary = &sum
	}
	return st
}

func wrongStage(action string, stage Stage) error {
	return apperror.BadRequest(fmt.Sprintf("Cannot %s during the %s step", action, stage))
}

func (s *Session) SubmitInformation(in CustomerInfo) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage != StageInformation {
		return s.snapshot(), wrongStage("submit information", s.state.Stage)
	}
	if errs := in.Validate(); len(errs) > 0 {
		return s.snapshot(), apperror.Invalid(errs)
	}
	s.state.CustomerInfo = in
	s.state.Stage = StageShipping
	return s.snapshot(), nil
}

func (s *Session) SubmitShipping(in ShippingAddress) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage != StageShipping {
		return s.snapshot(), wrongStage("submit shipping", s.state.Stage)
	}
	if errs := in.Validate(); len(errs) > 0 {
		return s.snapshot(), apperror.Invalid(errs)
	}
	if in.Country == "" {
		in.Country = DefaultCountry
	}
	s.state.ShippingAddress = in
	s.state.Stage = StagePayment
	return s.snapshot(), nil
}

func (s *Session) SelectPaymentMethod(t PaymentType) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage != StagePayment {
		return s.snapshot(), wrongStage("select a payment method", s.state.Stage)
	}
	if s.state.IsProcessing {
		return s.snapshot(), ErrPlacementInFlight
	}
	s.state.PaymentMethod = PaymentMethod{Type: t}
	return s.snapshot(), nil
}

// Back steps from shipping to information or from payment to shipping,
// keeping what was entered.
func (s *Session) Back() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsProcessing {
		return s.snapshot(), ErrPlacementInFlight
	}
	switch s.state.Stage {
	case StageShipping:
		s.state.Stage = StageInformation
	case StagePayment:
		s.state.Stage = StageShipping
	default:
		return s.snapshot(), apperror.BadRequest(fmt.Sprintf("Cannot go back from the %s step", s.state.Stage))
	}
	return s.snapshot(), nil
}

// PlaceOrder completes a cash-on-delivery order or opens a Paystack session
// that completes in the background. Only one placement runs at a time.
func (s *Session) PlaceOrder(ctx context.Context) (Placement, error) {
	s.mu.Lock()
	if s.state.Stage != StagePayment {
		st := s.snapshot()
		s.mu.Unlock()
		return Placement{State: st}, wrongStage("place an order", st.Stage)
	}
	if s.state.IsProcessing {
		st := s.snapshot()
		s.mu.Unlock()
		return Placement{State: st}, ErrPlacementInFlight
	}
	s.state.IsProcessing = true
	method := s.state.PaymentMethod.Type
	s.mu.Unlock()

	store, err := s.carts.Open(ctx, s.cartID)
	if err != nil {
		s.setProcessing(false)
		return Placement{State: s.State()}, err
	}
	if store.ItemCount() == 0 {
		s.setProcessing(false)
		return Placement{State: s.State()}, ErrEmptyCart
	}
	if method == PaymentCashOnDelivery {
		return s.placeCashOnDelivery(ctx)
	}
	return s.placePaystack(ctx, store)
}

func (s *Session) setProcessing(v bool) {
	s.mu.Lock()
	s.state.IsProcessing = v
	s.mu.Unlock()
}

func (s *Session) placeCashOnDelivery(ctx context.Context) (Placement, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.setProcessing(false)
		return Placement{State: s.State()}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage != StagePayment {
		s.state.IsProcessing = false
		return Placement{State: s.snapshot()}, wrongStage("place an order", s.state.Stage)
	}
	store, err := s.carts.Open(ctx, s.cartID)
	if err == nil && store.ItemCount() == 0 {
		err = ErrEmptyCart
	}
	if err == nil {
		err = s.complete(ctx, store, draftSummary(store.Items()), s.state.PaymentMethod, PaymentPending)
	}
	if err != nil {
		s.state.IsProcessing = false
		s.log.Error("cash on delivery order failed", zap.Error(err))
		return Placement{State: s.snapshot()}, err
	}
	s.log.Info("order placed", zap.String("order_number", s.state.OrderSummary.OrderNumber), zap.String("payment", string(PaymentCashOnDelivery)))
	return Placement{State: s.snapshot()}, nil
}

func (s *Session) placePaystack(ctx context.Context, store *cart.Store) (Placement, error) {
	ref := payment.NewReference(s.now())
	draft := draftSummary(store.Items())
	s.mu.Lock()
	s.state.PaymentMethod.PaystackReference = ref
	s.pending[ref] = draft
	customer := s.state.CustomerInfo
	s.mu.Unlock()

	sess, err := s.gateway.Open(ctx, payment.Request{
		Email:     customer.Email,
		Amount:    payment.ToKobo(draft.Total),
		Reference: ref,
		Currency:  payment.Currency,
		Metadata: []payment.CustomField{
			{DisplayName: "Customer Name", VariableName: "customer_name", Value: customer.FirstName + " " + customer.LastName},
			{DisplayName: "Order Items", VariableName: "order_items", Value: fmt.Sprintf("%d items", len(draft.Items))},
		},
	})
	if err != nil {
		s.log.Error("paystack initialization failed", zap.String("reference", ref), zap.Error(err))
		s.mu.Lock()
		delete(s.pending, ref)
		s.state.IsProcessing = false
		st := s.snapshot()
		s.mu.Unlock()
		return Placement{State: st}, err
	}

	s.waiters.Add(1)
	go s.await(sess)
	return Placement{
		State:            s.State(),
		Reference:        ref,
		AuthorizationURL: sess.AuthorizationURL,
		PaymentURL:       "/pay/" + ref,
	}, nil
}

// await resolves the checkout once the hosted payment ends. The session TTL
// bounds the wait.
func (s *Session) await(sess *payment.Session) {
	defer s.waiters.Done()
	out, err := sess.Wait(context.Background())
	if err != nil {
		s.HandlePaymentClose(sess.Reference)
		return
	}
	if out.Succeeded {
		if err := s.HandlePaymentSuccess(context.Background(), out.Transaction); err != nil {
			s.log.Error("paid order could not be completed", zap.String("reference", sess.Reference), zap.Error(err))
		}
		return
	}
	s.HandlePaymentClose(sess.Reference)
}

// HandlePaymentSuccess records the transaction, clears the cart and moves to
// confirmation. The summary is the one charged when the reference was opened;
// an unknown reference is summarized from the cart as it is now. Repeated
// calls are not deduplicated.
func (s *Session) HandlePaymentSuccess(ctx context.Context, tx payment.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := s.state.PaymentMethod
	if tx.Reference != "" {
		pm.PaystackReference = tx.Reference
	}
	pm.PaystackTransaction = &tx
	s.state.PaymentMethod = pm

	store, err := s.carts.Open(ctx, s.cartID)
	if err != nil {
		s.state.IsProcessing = false
		return err
	}
	sum, ok := s.pending[pm.PaystackReference]
	if ok {
		delete(s.pending, pm.PaystackReference)
	} else {
		sum = draftSummary(store.Items())
	}
	err = s.complete(ctx, store, sum, pm, PaymentPaid)
	s.state.IsProcessing = false
	if err == nil {
		s.log.Info("order paid", zap.String("order_number", s.state.OrderSummary.OrderNumber), zap.String("reference", pm.PaystackReference))
	}
	return err
}

// HandlePaymentClose ends processing for the current reference; stage,
// summary and cart stay. Closes of superseded references are ignored.
func (s *Session) HandlePaymentClose(reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, reference)
	if reference != s.state.PaymentMethod.PaystackReference {
		s.log.Debug("stale payment close ignored", zap.String("reference", reference))
		return
	}
	s.state.IsProcessing = false
	s.log.Info("payment window closed", zap.String("reference", reference))
}

func draftSummary(items []cart.Item) OrderSummary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	shipping := ShippingCost(subtotal)
	return OrderSummary{Items: items, Subtotal: subtotal, Shipping: shipping, Total: subtotal.Add(shipping)}
}

// complete stamps sum, clears the cart and moves to confirmation. Callers
// hold s.mu.
func (s *Session) complete(ctx context.Context, store *cart.Store, sum OrderSummary, pm PaymentMethod, status PaymentStatus) error {
	sum.OrderNumber = GenerateOrderNumber(s.now())
	sum.PaymentMethod = pm
	sum.PaymentStatus = status
	s.state.OrderSummary = &sum
	s.state.Stage = StageConfirmation
	s.state.IsProcessing = false
	return store.Clear(ctx)
}

// wait blocks until background payment waiters have returned.
func (s *Session) wait() { s.waiters.Wait() }
