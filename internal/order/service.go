package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/events"
	"github.com/tabng/tab-backend/internal/pagination"
	"github.com/tabng/tab-backend/internal/product"
	"go.uber.org/zap"
)

var (
	ErrInvalidShippingAddress = apperror.BadRequest("Invalid shipping address")
	ErrInvalidBillingAddress  = apperror.BadRequest("Invalid billing address")
	ErrForbiddenView          = apperror.Forbidden("You don't have permission to view this order")
	ErrForbiddenCancel        = apperror.Forbidden("You don't have permission to cancel this order")
)

type ProductReader interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type AddressOwner interface {
	Owned(ctx context.Context, userID, id string) (address.Address, error)
}

// Service prices, places and tracks orders.
type Service struct {
	repo      Repository
	products  ProductReader
	addresses AddressOwner
	events    events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(r Repository, products ProductReader, addresses AddressOwner, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: r, products: products, addresses: addresses, events: pub, log: log, now: time.Now}
}

// Create recomputes every price from the catalog and places the order.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Order, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Order{}, apperror.Invalid(errs)
	}
	shipping, err := s.addresses.Owned(ctx, userID, in.ShippingAddressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return Order{}, ErrInvalidShippingAddress
		}
		return Order{}, err
	}
	billingID := in.ShippingAddressID
	if in.BillingAddressID != nil && *in.BillingAddressID != "" {
		if _, err := s.addresses.Owned(ctx, userID, *in.BillingAddressID); err != nil {
			if errors.Is(err, address.ErrNotFound) {
				return Order{}, ErrInvalidBillingAddress
			}
			return Order{}, err
		}
		billingID = *in.BillingAddressID
	}

	now := s.now().UTC()
	o := Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     in.PaymentMethod,
		ShippingFee:       ShippingFee,
		ShippingAddressID: in.ShippingAddressID,
		BillingAddressID:  &billingID,
		ShippingAddress:   &shipping,
		Notes:             in.Notes,
		Items:             make([]Item, 0, len(in.Items)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, req := range in.Items {
		it, err := s.priceItem(ctx, req)
		if err != nil {
			return Order{}, err
		}
		it.OrderID = o.ID
		o.Items = append(o.Items, it)
	}
	o.Tax, o.Total = Totals(o.Subtotal())

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return Order{}, err
	}
	created.ShippingAddress = &shipping
	s.publish(ctx, events.OrderCreated, created)
	return created, nil
}

// priceItem resolves one line against the current catalog: variant price,
// else sale price, else list price. Stock is checked here for a clear error
// and enforced again when the order is written.
func (s *Service) priceItem(ctx context.Context, req ItemInput) (Item, error) {
	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Item{}, apperror.BadRequest(fmt.Sprintf("Product not found: %s", req.ProductID))
		}
		return Item{}, err
	}
	it := Item{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		Quantity:    req.Quantity,
		Price:       p.EffectivePrice(),
		ProductName: p.Name,
		ProductSlug: p.Slug,
	}
	if len(p.Images) > 0 {
		img := p.Images[0]
		it.ProductImage = &img
	}
	stock := p.Inventory
	if req.VariantID != nil && *req.VariantID != "" {
		v, ok := p.Variant(*req.VariantID)
		if !ok {
			return Item{}, apperror.BadRequest(fmt.Sprintf("Variant not found: %s", *req.VariantID))
		}
		id := v.ID
		it.VariantID = &id
		it.Variant = &VariantSummary{Size: v.Size, Color: v.Color}
		it.Price = v.Price
		stock = v.Inventory
	}
	if stock < req.Quantity {
		return Item{}, insufficient(it)
	}
	return it, nil
}

// Get returns the order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, caller auth.Principal, id string) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != caller.UserID && !caller.IsAdmin() {
		return Order{}, ErrForbiddenView
	}
	if a, err := s.addresses.Owned(ctx, o.UserID, o.ShippingAddressID); err == nil {
		o.ShippingAddress = &a
	}
	return o, nil
}

func (s *Service) UserOrders(ctx context.Context, userID string, f ListFilter) (pagination.Page[Order], error) {
	f.UserID = userID
	return s.list(ctx, f)
}

func (s *Service) All(ctx context.Context, f ListFilter) (pagination.Page[Order], error) {
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f ListFilter) (pagination.Page[Order], error) {
	f.Limit = pagination.Clamp(f.Limit, pagination.DefaultLimit, pagination.MaxLimit)
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Order]{}, err
	}
	return pagination.Paginate(rows, f.Limit, func(o Order) string { return o.ID }), nil
}

// Cancel lets the owner cancel an order that has not shipped yet. Stock is
// returned in the same transaction.
func (s *Service) Cancel(ctx context.Context, userID, id string) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrForbiddenCancel
	}
	if !o.Status.Cancellable() {
		return Order{}, apperror.BadRequest(fmt.Sprintf("Order cannot be cancelled in %s status", o.Status))
	}
	o.UpdatedAt = s.now().UTC()
	cancelled, err := s.repo.Cancel(ctx, o)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.OrderCancelled, cancelled)
	return cancelled, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (Order, error) {
	st, err := ParseStatus(in.Status)
	if err != nil {
		return Order{}, apperror.Invalid(map[string]string{"status": "Unknown order status"})
	}
	var ps *PaymentStatus
	if in.PaymentStatus != nil {
		parsed, err := ParsePaymentStatus(*in.PaymentStatus)
		if err != nil {
			return Order{}, apperror.Invalid(map[string]string{"paymentStatus": "Unknown payment status"})
		}
		ps = &parsed
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Status = st
	if ps != nil {
		o.PaymentStatus = *ps
	}
	if in.TrackingNumber != nil && *in.TrackingNumber != "" {
		o.TrackingNumber = in.TrackingNumber
	}
	if in.Notes != nil {
		o.Notes = in.Notes
	}
	o.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, o)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.OrderStatusChanged, updated)
	return updated, nil
}

// publish is best effort; a broker outage never fails the order.
func (s *Service) publish(ctx context.Context, t events.Type, o Order) {
	err := s.events.Publish(ctx, events.Event{
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.Total,
		OccurredAt:    o.UpdatedAt,
	})
	if err != nil {
		s.log.Warn("order event not published", zap.String("type", string(t)), zap.String("order_id", o.ID), zap.Error(err))
	}
}

// Totals applies tax and the flat shipping fee to a subtotal.
func Totals(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(TaxRate).Round(2)
	return tax, subtotal.Add(ShippingFee).Add(tax)
}
