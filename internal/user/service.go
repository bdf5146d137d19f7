package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/pagination"
	"golang.org/x/crypto/bcrypt"
)

// AddressLister loads a user's address book for the profile view.
type AddressLister interface {
	List(ctx context.Context, userID string) ([]address.Address, error)
}

type Service struct {
	repo      Repository
	addresses AddressLister
	now       func() time.Time
}

func NewService(repo Repository, addresses AddressLister) *Service {
	return &Service{repo: repo, addresses: addresses, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in SignUpInput) (User, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return User{}, apperror.Invalid(errs)
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	u, err := s.newUser(in.Name, in.Email, in.Password, auth.RoleUser)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(u), nil
}

// Profile returns the caller with their addresses.
func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if s.addresses != nil {
		if u.Addresses, err = s.addresses.List(ctx, id); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Name != nil {
		u.Name = in.Name
	}
	if in.Image != nil {
		u.Image = in.Image
	}
	u.UpdatedAt = s.now().UTC()
	u, err = s.repo.Update(ctx, u)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(u), nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, in PasswordInput) error {
	if errs := in.Validate(); len(errs) > 0 {
		return apperror.Invalid(errs)
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	if u.Password, err = hashPassword(in.NewPassword); err != nil {
		return err
	}
	u.UpdatedAt = s.now().UTC()
	_, err = s.repo.Update(ctx, u)
	return err
}

func (s *Service) List(ctx context.Context, f ListFilter) (pagination.Page[User], error) {
	f.Limit = pagination.Clamp(f.Limit, pagination.DefaultLimit, pagination.MaxLimit)
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[User]{}, err
	}
	for i := range rows {
		rows[i] = sanitizeUser(rows[i])
	}
	return pagination.Paginate(rows, f.Limit, func(u User) string { return u.ID }), nil
}

func (s *Service) UpdateRole(ctx context.Context, id, role string) (User, error) {
	r, err := auth.ParseRole(role)
	if err != nil {
		return User{}, apperror.Invalid(map[string]string{"role": "Role must be USER or ADMIN"})
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Role = r
	u.UpdatedAt = s.now().UTC()
	if u, err = s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return sanitizeUser(u), nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return User{}, apperror.Invalid(errs)
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	role := auth.RoleUser
	if in.Role != "" {
		role, _ = auth.ParseRole(in.Role)
	}
	u, err := s.newUser(in.Name, in.Email, in.Password, role)
	if err != nil {
		return User{}, err
	}
	if u, err = s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return sanitizeUser(u), nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return User{}, apperror.Invalid(errs)
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Email != nil && !strings.EqualFold(*in.Email, u.Email) {
		if other, err := s.repo.GetByEmail(ctx, *in.Email); err == nil && other.ID != id {
			return User{}, ErrEmailExists
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = in.Name
	}
	if in.Image != nil {
		u.Image = in.Image
	}
	if in.Role != nil {
		u.Role, _ = auth.ParseRole(*in.Role)
	}
	if in.Password != nil {
		if u.Password, err = hashPassword(*in.Password); err != nil {
			return User{}, err
		}
	}
	u.UpdatedAt = s.now().UTC()
	if u, err = s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return sanitizeUser(u), nil
}

// Delete removes id on behalf of actorID. Admins cannot remove themselves.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if actorID == id {
		return ErrDeleteSelf
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) newUser(name, email, password string, role auth.Role) (User, error) {
	hashed, err := hashPassword(password)
	if err != nil {
		return User{}, err
	}
	now := s.now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(email),
		Password:  hashed,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if name != "" {
		u.Name = &name
	}
	return u, nil
}

func hashPassword(pw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
