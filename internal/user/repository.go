package user

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/pagination"
)

var (
	ErrNotFound           = apperror.NotFound("User not found")
	ErrInvalidCredentials = apperror.Unauthorized("Invalid email or password")
	ErrEmailExists        = apperror.Conflict("Email already exists")
	ErrWrongPassword      = apperror.Unauthorized("Current password is incorrect")
	ErrDeleteSelf         = apperror.Forbidden("You cannot delete your own account")
)

type Repository interface {
	// List returns up to f.Limit+1 users, newest first, starting at f.Cursor.
	List(ctx context.Context, f ListFilter) ([]User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id string) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	orders map[string]int
}

// NewInMemoryRepository seeds users; orderCounts feeds the admin listing.
func NewInMemoryRepository(seed []User, orderCounts map[string]int) *InMemoryRepository {
	if orderCounts == nil {
		orderCounts = map[string]int{}
	}
	return &InMemoryRepository{users: append([]User(nil), seed...), orders: orderCounts}
}

func (r *InMemoryRepository) List(_ context.Context, f ListFilter) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	matched := make([]User, 0)
	for _, u := range r.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) &&
			(u.Name == nil || !strings.Contains(strings.ToLower(*u.Name), search)) {
			continue
		}
		n := r.orders[u.ID]
		u.OrderCount = &n
		matched = append(matched, u)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return pagination.Window(matched, f.Cursor, f.Limit+1, func(u User) string { return u.ID }), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryRepository) Update(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.users {
		if existing.ID == u.ID {
			idx = i
		} else if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	if idx < 0 {
		return User{}, ErrNotFound
	}
	r.users[idx] = u
	return u, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
