package address

import (
	"context"
	"sort"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
)

var (
	ErrNotFound = apperror.NotFound("address not found")
	ErrInUse    = apperror.Conflict("address is referenced by an order")
)

// Repository stores addresses. Create and Update clear the previous default of
// the same type when the saved address is marked default.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	GetByID(ctx context.Context, id string) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu   sync.Mutex
	data []Address
}

func NewInMemoryRepository(seed []Address) *InMemoryRepository {
	return &InMemoryRepository{data: append([]Address(nil), seed...)}
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Address, 0)
	for _, a := range r.data {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.data {
		if a.ID == id {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.IsDefault {
		r.clearDefault(a)
	}
	r.data = append(r.data, a)
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.data {
		if existing.ID == a.ID {
			if a.IsDefault {
				r.clearDefault(a)
			}
			r.data[i] = a
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.data {
		if a.ID == id {
			r.data = append(r.data[:i], r.data[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) clearDefault(a Address) {
	for i, other := range r.data {
		if other.UserID == a.UserID && other.Type == a.Type && other.ID != a.ID {
			r.data[i].IsDefault = false
		}
	}
}
