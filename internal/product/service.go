package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/pagination"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, f ListFilter) (pagination.Page[Product], error) {
	f.Limit = pagination.Clamp(f.Limit, pagination.DefaultLimit, pagination.MaxLimit)
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Product]{}, err
	}
	return pagination.Paginate(rows, f.Limit, func(p Product) string { return p.ID }), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Product{}, apperror.Invalid(errs)
	}
	now := s.now().UTC()
	id := uuid.NewString()
	p := Product{
		ID:          id,
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		Price:       in.Price,
		SalePrice:   in.SalePrice,
		Inventory:   in.Inventory,
		Images:      in.Images,
		Featured:    in.Featured,
		IsNew:       in.IsNew,
		Material:    in.Material,
		CategoryID:  in.CategoryID,
		Variants:    newVariants(id, in.Variants),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Product{}, apperror.Invalid(errs)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Name != nil {
		p.Name = *in.Name
		p.Slug = Slugify(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SalePrice != nil {
		p.SalePrice = in.SalePrice
	}
	if in.Inventory != nil {
		p.Inventory = *in.Inventory
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.IsNew != nil {
		p.IsNew = *in.IsNew
	}
	if in.Material != nil {
		p.Material = in.Material
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.Variants != nil {
		p.Variants = newVariants(p.ID, *in.Variants)
	}
	p.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, p, in.Variants != nil)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) CreateReview(ctx context.Context, productID, userID string, in ReviewInput) (Review, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Review{}, apperror.Invalid(errs)
	}
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return Review{}, err
	}
	return s.repo.CreateReview(ctx, Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
		CreatedAt: s.now().UTC(),
	})
}

func newVariants(productID string, in []VariantInput) []Variant {
	out := make([]Variant, 0, len(in))
	for _, v := range in {
		images := v.Images
		if images == nil {
			images = []string{}
		}
		out = append(out, Variant{
			ID:        uuid.NewString(),
			ProductID: productID,
			Size:      v.Size,
			Color:     v.Color,
			Material:  v.Material,
			Style:     v.Style,
			SKU:       v.SKU,
			Price:     v.Price,
			Inventory: v.Inventory,
			Images:    images,
		})
	}
	return out
}
