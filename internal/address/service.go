package address

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tabng/tab-backend/internal/apperror"
)

// Service provides address book operations scoped to a single owner.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Owned returns the address only if it belongs to userID. Foreign addresses
// are reported as not found.
func (s *Service) Owned(ctx context.Context, userID, id string) (Address, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Address{}, err
	}
	if a.UserID != userID {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) Add(ctx context.Context, userID string, in Input) (Address, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Address{}, apperror.Invalid(errs)
	}
	now := s.now().UTC()
	a := Address{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	apply(&a, in)
	a.UpdatedAt = now
	return s.repo.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, userID, id string, in Input) (Address, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return Address{}, apperror.Invalid(errs)
	}
	a, err := s.Owned(ctx, userID, id)
	if err != nil {
		return Address{}, err
	}
	apply(&a, in)
	a.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func apply(a *Address, in Input) {
	a.Type = TypeShipping
	if t, err := ParseType(in.Type); err == nil {
		a.Type = t
	}
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Address1 = in.Address1
	a.Address2 = in.Address2
	a.City = in.City
	a.State = in.State
	a.PostalCode = in.PostalCode
	a.Country = in.Country
	a.Phone = in.Phone
	a.IsDefault = in.IsDefault
}
