package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Blob describes a stored file.
type Blob struct {
	URL         string    `json:"url"`
	Pathname    string    `json:"pathname"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (Blob, error)
}

// UniqueName returns <filename>-<epoch ms>.<ext> where ext is whatever
// follows the last dot of the original name.
func UniqueName(filename, original string, now time.Time) string {
	ext := original
	if i := strings.LastIndex(original, "."); i >= 0 {
		ext = original[i+1:]
	}
	return fmt.Sprintf("%s-%d.%s", filename, now.UnixMilli(), ext)
}

// LocalStore writes blobs into a directory that is served at baseURL.
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (s *LocalStore) Put(ctx context.Context, name, contentType string, r io.Reader) (Blob, error) {
	name = path.Clean("/" + filepath.ToSlash(name))[1:]
	if name == "" || name == "." {
		return Blob{}, fmt.Errorf("invalid blob name")
	}
	dest := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Blob{}, fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return Blob{}, fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, readerWithContext(ctx, r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return Blob{}, fmt.Errorf("write blob: %w", err)
	}
	return Blob{
		URL:         s.baseURL + "/" + name,
		Pathname:    name,
		ContentType: contentType,
		Size:        n,
		UploadedAt:  s.now().UTC(),
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
