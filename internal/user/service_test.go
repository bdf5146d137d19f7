package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabng/tab-backend/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

func TestServiceCreate_DuplicateEmailConflicts(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedUsers(t), nil), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Email: "j@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailExists)

	u, err := svc.Create(ctx, CreateInput{Name: "Obi", Email: "obi@example.com", Password: "longenough", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)
	assert.Empty(t, u.Password)
}

func TestServiceUpdate(t *testing.T) {
	repo := NewInMemoryRepository(seedUsers(t), nil)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", UpdateInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "u1", UpdateInput{Email: strPtr("boss@example.com")})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Update(ctx, "u1", UpdateInput{Email: strPtr("jenny@example.com"), Password: strPtr("rotated99")})
	require.NoError(t, err)
	stored, _ := repo.GetByID(ctx, "u1")
	assert.Equal(t, "jenny@example.com", stored.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("rotated99")))
}

func TestServiceDelete(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedUsers(t), nil), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "admin", "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "admin", "admin"), ErrDeleteSelf)
	assert.NoError(t, svc.Delete(ctx, "admin", "u1"))
}

func TestServiceList_RoleFilterAndOrderCounts(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedUsers(t), map[string]int{"u1": 4}), nil)
	role := auth.RoleUser

	page, err := svc.List(context.Background(), ListFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u1", page.Items[0].ID)
	require.NotNil(t, page.Items[0].OrderCount)
	assert.Equal(t, 4, *page.Items[0].OrderCount)
	assert.Nil(t, page.NextCursor)
}
