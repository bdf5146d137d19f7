package slider

import (
	"context"
	"sort"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
)

var ErrNotFound = apperror.NotFound("Slider not found")

type Repository interface {
	// List returns sliders by ascending order; activeOnly drops hidden ones.
	List(ctx context.Context, activeOnly bool) ([]Slider, error)
	GetByID(ctx context.Context, id string) (Slider, error)
	Create(ctx context.Context, s Slider) (Slider, error)
	Update(ctx context.Context, s Slider) (Slider, error)
	Delete(ctx context.Context, id string) error
	// Reorder applies every position or none.
	Reorder(ctx context.Context, positions []Position) error
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Slider
}

func NewInMemoryRepository(seed []Slider) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Slider, 0, len(seed))}
	r.storage = append(r.storage, seed...)
	return r
}

func (r *InMemoryRepository) List(_ context.Context, activeOnly bool) ([]Slider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Slider, 0, len(r.storage))
	for _, s := range r.storage {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Slider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return r.storage[i], nil
	}
	return Slider{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, s Slider) (Slider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = append(r.storage, s)
	return s, nil
}

func (r *InMemoryRepository) Update(_ context.Context, s Slider) (Slider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(s.ID)
	if i < 0 {
		return Slider{}, ErrNotFound
	}
	r.storage[i] = s
	return s, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return ErrNotFound
	}
	r.storage = append(r.storage[:i], r.storage[i+1:]...)
	return nil
}

func (r *InMemoryRepository) Reorder(_ context.Context, positions []Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := make([]int, len(positions))
	for n, p := range positions {
		i := r.index(p.ID)
		if i < 0 {
			return ErrNotFound
		}
		idx[n] = i
	}
	for n, p := range positions {
		r.storage[idx[n]].Order = p.Order
	}
	return nil
}

func (r *InMemoryRepository) index(id string) int {
	for i, s := range r.storage {
		if s.ID == id {
			return i
		}
	}
	return -1
}
