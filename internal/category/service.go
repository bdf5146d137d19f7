package category

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/pagination"
	"github.com/tabng/tab-backend/internal/product"
)

const slugProductLimit = 10

// ProductLister is the catalog query used to attach the newest products.
type ProductLister interface {
	List(ctx context.Context, f product.ListFilter) (pagination.Page[product.Product], error)
}

// Service provides business logic for categories.
type Service struct {
	repo     Repository
	products ProductLister
	now      func() time.Time
}

func NewService(r Repository, products ProductLister) *Service {
	return &Service{repo: r, products: products, now: time.Now}
}

// List returns the children of parentID (roots when nil). With
// includeSubcategories, two levels of descendants are attached.
func (s *Service) List(ctx context.Context, parentID *string, includeSubcategories bool) ([]Category, error) {
	cats, err := s.repo.List(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !includeSubcategories || len(cats) == 0 {
		return cats, nil
	}
	children, err := s.repo.ListChildren(ctx, ids(cats))
	if err != nil {
		return nil, err
	}
	grandchildren, err := s.repo.ListChildren(ctx, ids(children))
	if err != nil {
		return nil, err
	}
	attach(children, grandchildren)
	attach(cats, children)
	return cats, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	return s.withRelations(ctx, c)
}

// GetBySlug also attaches the category's newest products.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Category, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Category{}, err
	}
	c, err = s.withRelations(ctx, c)
	if err != nil {
		return Category{}, err
	}
	page, err := s.products.List(ctx, product.ListFilter{CategoryID: c.ID, Limit: slugProductLimit})
	if err != nil {
		return Category{}, err
	}
	c.Products = page.Items
	return c, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Category{}, apperror.Invalid(errs)
	}
	if err := s.checkParent(ctx, "", in.ParentID); err != nil {
		return Category{}, err
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Category, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Category{}, apperror.Invalid(errs)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if err := s.checkParent(ctx, id, in.ParentID); err != nil {
		return Category{}, err
	}
	existing.Name = in.Name
	existing.Slug = in.Slug
	existing.Description = in.Description
	existing.Image = in.Image
	existing.ParentID = in.ParentID
	existing.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, existing)
}

// Delete refuses while any product or subcategory still references the category.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasProducts
	}
	n, err = s.repo.CountSubcategories(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasSubcategories
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) withRelations(ctx context.Context, c Category) (Category, error) {
	if c.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *c.ParentID)
		if err == nil {
			c.Parent = &parent
		} else if err != ErrNotFound {
			return Category{}, err
		}
	}
	children, err := s.repo.ListChildren(ctx, []string{c.ID})
	if err != nil {
		return Category{}, err
	}
	c.Subcategories = children
	return c, nil
}

func (s *Service) checkParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ErrSelfParent
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		if err == ErrNotFound {
			return ErrParentNotFound
		}
		return err
	}
	return nil
}

func ids(cs []Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func attach(parents, children []Category) {
	for i := range parents {
		parents[i].Subcategories = make([]Category, 0)
		for _, child := range children {
			if child.ParentID != nil && *child.ParentID == parents[i].ID {
				parents[i].Subcategories = append(parents[i].Subcategories, child)
			}
		}
	}
}
