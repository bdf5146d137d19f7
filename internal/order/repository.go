package order

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/pagination"
	"github.com/tabng/tab-backend/internal/product"
)

var (
	ErrNotFound       = apperror.NotFound("Order not found")
	ErrNotCancellable = apperror.BadRequest("Order can no longer be cancelled")
)

// Repository persists orders. Create and Cancel move stock in the same
// transaction as the order row.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	Cancel(ctx context.Context, o Order) (Order, error)
	UpdateStatus(ctx context.Context, o Order) (Order, error)
}

// Stock is the inventory the in-memory repository draws from.
type Stock interface {
	AdjustInventory(productID string, variantID *string, delta int) error
}

type InMemoryRepository struct {
	mu     sync.Mutex
	orders []Order
	stock  Stock
}

func NewInMemoryRepository(seed []Order, stock Stock) *InMemoryRepository {
	return &InMemoryRepository{orders: append([]Order(nil), seed...), stock: stock}
}

func (r *InMemoryRepository) List(_ context.Context, f ListFilter) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	matched := make([]Order, 0)
	for _, o := range r.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus {
			continue
		}
		if search != "" && !matchesSearch(o, search) {
			continue
		}
		matched = append(matched, o)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return pagination.Window(matched, f.Cursor, f.Limit+1, func(o Order) string { return o.ID }), nil
}

func matchesSearch(o Order, search string) bool {
	if strings.Contains(strings.ToLower(o.ID), search) {
		return true
	}
	if o.User == nil {
		return false
	}
	if strings.Contains(strings.ToLower(o.User.Email), search) {
		return true
	}
	return o.User.Name != nil && strings.Contains(strings.ToLower(*o.User.Name), search)
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range o.Items {
		if err := r.stock.AdjustInventory(it.ProductID, it.VariantID, -it.Quantity); err != nil {
			for _, done := range o.Items[:i] {
				_ = r.stock.AdjustInventory(done.ProductID, done.VariantID, done.Quantity)
			}
			if errors.Is(err, product.ErrInsufficientInventory) {
				return Order{}, insufficient(it)
			}
			return Order{}, err
		}
	}
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *InMemoryRepository) Cancel(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.orders {
		if existing.ID != o.ID {
			continue
		}
		if !existing.Status.Cancellable() {
			return Order{}, ErrNotCancellable
		}
		for _, it := range existing.Items {
			if err := r.stock.AdjustInventory(it.ProductID, it.VariantID, it.Quantity); err != nil {
				return Order{}, err
			}
		}
		r.orders[i].Status = StatusCancelled
		r.orders[i].UpdatedAt = o.UpdatedAt
		return r.orders[i], nil
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.orders {
		if existing.ID == o.ID {
			r.orders[i] = o
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}
