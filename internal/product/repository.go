package product

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/pagination"
)

var (
	ErrNotFound              = apperror.NotFound("product not found")
	ErrSlugTaken             = apperror.Conflict("a product with this name already exists")
	ErrHasOrders             = apperror.Conflict("cannot delete a product that has been ordered")
	ErrInsufficientInventory = apperror.BadRequest("not enough inventory")
)

type Repository interface {
	// List returns up to f.Limit+1 products newest first, starting at f.Cursor.
	List(ctx context.Context, f ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	// Update overwrites the product row; variants are replaced when replaceVariants is set.
	Update(ctx context.Context, p Product, replaceVariants bool) (Product, error)
	Delete(ctx context.Context, id string) error
	CreateReview(ctx context.Context, r Review) (Review, error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed))}
	r.storage = append(r.storage, seed...)
	return r
}

func (r *InMemoryRepository) List(_ context.Context, f ListFilter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Product, 0)
	search := strings.ToLower(f.Search)
	for _, p := range r.storage {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if f.IsNew != nil && p.IsNew != *f.IsNew {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		p.Reviews = nil
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return pagination.Window(matched, f.Cursor, f.Limit+1, func(p Product) string { return p.ID }), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if existing.Slug == p.Slug {
			return Product{}, ErrSlugTaken
		}
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, p Product, _ bool) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.storage {
		if existing.ID != p.ID && existing.Slug == p.Slug {
			return Product{}, ErrSlugTaken
		}
		if existing.ID == p.ID {
			p.Reviews = existing.Reviews
			r.storage[i] = p
		}
	}
	for _, stored := range r.storage {
		if stored.ID == p.ID {
			return stored, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.storage {
		if p.ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) CreateReview(_ context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.storage {
		if p.ID == rv.ProductID {
			r.storage[i].Reviews = append([]Review{rv}, p.Reviews...)
			return rv, nil
		}
	}
	return Review{}, ErrNotFound
}

// AdjustInventory adds delta to the product (or variant) stock, refusing to go negative.
func (r *InMemoryRepository) AdjustInventory(id string, variantID *string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.storage {
		if p.ID != id {
			continue
		}
		if variantID != nil {
			for j, v := range p.Variants {
				if v.ID == *variantID {
					if v.Inventory+delta < 0 {
						return ErrInsufficientInventory
					}
					r.storage[i].Variants[j].Inventory += delta
					return nil
				}
			}
			return ErrNotFound
		}
		if p.Inventory+delta < 0 {
			return ErrInsufficientInventory
		}
		r.storage[i].Inventory += delta
		return nil
	}
	return ErrNotFound
}
