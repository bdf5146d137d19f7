package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueName(t *testing.T) {
	at := time.UnixMilli(1718000000123)
	assert.Equal(t, "hero-1718000000123.png", UniqueName("hero", "banner.final.png", at))
	assert.Equal(t, "hero-1718000000123.photo", UniqueName("hero", "photo", at))
}

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads/")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return at }

	blob, err := s.Put(context.Background(), "hero-1.png", "image/png", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.Equal(t, Blob{URL: "/uploads/hero-1.png", Pathname: "hero-1.png", ContentType: "image/png", Size: 7, UploadedAt: at}, blob)

	b, err := os.ReadFile(filepath.Join(dir, "hero-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(b))
}

func TestLocalStorePut_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")

	blob, err := s.Put(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "escape.txt", blob.Pathname)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)
}

func TestLocalStorePut_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "a.txt", "text/plain", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
