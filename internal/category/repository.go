package category

import (
	"context"
	"sort"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("category not found")
	ErrSlugTaken        = apperror.Conflict("a category with this slug already exists")
	ErrHasProducts      = apperror.Conflict("Cannot delete category with products")
	ErrHasSubcategories = apperror.Conflict("Cannot delete category with subcategories")
	ErrParentNotFound   = apperror.BadRequest("parent category not found")
	ErrSelfParent       = apperror.BadRequest("a category cannot be its own parent")
)

// Repository provides access to category rows.
type Repository interface {
	// List returns categories under parentID (nil for roots) ordered by name.
	List(ctx context.Context, parentID *string) ([]Category, error)
	// ListChildren returns the direct children of every id in parentIDs.
	ListChildren(ctx context.Context, parentIDs []string) ([]Category, error)
	GetByID(ctx context.Context, id string) (Category, error)
	GetBySlug(ctx context.Context, slug string) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id string) error
	CountProducts(ctx context.Context, id string) (int, error)
	CountSubcategories(ctx context.Context, id string) (int, error)
}

// InMemoryRepository for tests. productCounts stands in for the products table.
type InMemoryRepository struct {
	mu            sync.RWMutex
	data          []Category
	productCounts map[string]int
}

func NewInMemoryRepository(seed []Category, productCounts map[string]int) *InMemoryRepository {
	if productCounts == nil {
		productCounts = map[string]int{}
	}
	return &InMemoryRepository{data: append([]Category(nil), seed...), productCounts: productCounts}
}

func (r *InMemoryRepository) List(_ context.Context, parentID *string) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0)
	for _, c := range r.data {
		if sameParent(c.ParentID, parentID) {
			out = append(out, c)
		}
	}
	sortByName(out)
	return out, nil
}

func (r *InMemoryRepository) ListChildren(_ context.Context, parentIDs []string) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		want[id] = true
	}
	out := make([]Category, 0)
	for _, c := range r.data {
		if c.ParentID != nil && want[*c.ParentID] {
			out = append(out, c)
		}
	}
	sortByName(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.data {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.data {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Slug == c.Slug {
			return Category{}, ErrSlugTaken
		}
	}
	r.data = append(r.data, c)
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.data {
		if existing.ID != c.ID && existing.Slug == c.Slug {
			return Category{}, ErrSlugTaken
		}
		if existing.ID == c.ID {
			idx = i
		}
	}
	if idx < 0 {
		return Category{}, ErrNotFound
	}
	r.data[idx] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.data {
		if c.ID == id {
			r.data = append(r.data[:i], r.data[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) CountProducts(_ context.Context, id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.productCounts[id], nil
}

func (r *InMemoryRepository) CountSubcategories(_ context.Context, id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.data {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortByName(cs []Category) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
