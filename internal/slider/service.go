package slider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tabng/tab-backend/internal/apperror"
	"go.uber.org/zap"
)

type Service struct {
	repo    Repository
	styling StylingStore
	log     *zap.Logger
	now     func() time.Time
}

func NewService(r Repository, styling StylingStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: r, styling: styling, log: log, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Slider, error) {
	return s.list(ctx, false)
}

// Active returns the sliders shown on the homepage.
func (s *Service) Active(ctx context.Context) ([]Slider, error) {
	return s.list(ctx, true)
}

func (s *Service) list(ctx context.Context, activeOnly bool) ([]Slider, error) {
	items, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	s.withStyling(ctx, items)
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Slider, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Slider{}, err
	}
	items := []Slider{sl}
	s.withStyling(ctx, items)
	return items[0], nil
}

func (s *Service) Create(ctx context.Context, in Input) (Slider, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Slider{}, apperror.Invalid(errs)
	}
	now := s.now().UTC()
	sl := Slider{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&sl, in)
	created, err := s.repo.Create(ctx, sl)
	if err != nil {
		return Slider{}, err
	}
	created.Styling = s.saveStyling(ctx, created.ID, in)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Slider, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Slider{}, apperror.Invalid(errs)
	}
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Slider{}, err
	}
	apply(&sl, in)
	sl.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, sl)
	if err != nil {
		return Slider{}, err
	}
	if st := s.saveStyling(ctx, id, in); st != nil {
		updated.Styling = st
	} else {
		items := []Slider{updated}
		s.withStyling(ctx, items)
		updated = items[0]
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.styling.Delete(ctx, id); err != nil {
		s.log.Warn("slider styling not removed", zap.String("slider_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) Reorder(ctx context.Context, positions []Position) error {
	if len(positions) == 0 {
		return apperror.Invalid(map[string]string{"positions": "At least one position is required"})
	}
	for _, p := range positions {
		if p.ID == "" {
			return apperror.Invalid(map[string]string{"id": "Slider id is required"})
		}
	}
	return s.repo.Reorder(ctx, positions)
}

func apply(sl *Slider, in Input) {
	sl.Title = in.Title
	sl.Subtitle = in.Subtitle
	sl.ImageURL = in.ImageURL
	sl.ButtonText = in.ButtonText
	sl.ButtonLink = in.ButtonLink
	if in.Order != nil {
		sl.Order = *in.Order
	}
	if in.IsActive != nil {
		sl.IsActive = *in.IsActive
	}
}

// saveStyling stores styling sent with the input. Failures are logged; the
// slider row is already written.
func (s *Service) saveStyling(ctx context.Context, id string, in Input) *Styling {
	st := in.styling()
	if st == nil {
		return nil
	}
	if err := s.styling.Save(ctx, id, *st); err != nil {
		s.log.Warn("slider styling not saved", zap.String("slider_id", id), zap.Error(err))
		return nil
	}
	return st
}

func (s *Service) withStyling(ctx context.Context, items []Slider) {
	if len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, sl := range items {
		ids[i] = sl.ID
	}
	styles, err := s.styling.Get(ctx, ids...)
	if err != nil {
		s.log.Warn("slider styling unavailable", zap.Error(err))
		return
	}
	for i := range items {
		if st, ok := styles[items[i].ID]; ok {
			st := st
			items[i].Styling = &st
		}
	}
}
