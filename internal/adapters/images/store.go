package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"howsitter/internal/domain"
)

// allowed image extensions; anything else is rejected before touching disk.
var allowedExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store writes uploaded property images to local disk and serves them back
// under /uploads/properties/. Filenames are regenerated, never trusted.
type Store struct {
	dir      string
	maxBytes int64
}

func New(dir string, maxMB int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxMB <= 0 {
		maxMB = 10
	}
	return &Store{dir: dir, maxBytes: maxMB << 20}, nil
}

func (s *Store) Save(ctx context.Context, originalName string, r io.Reader, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", domain.Validationf("only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	if size > s.maxBytes {
		return "", domain.Validationf("image exceeds the %d MB limit", s.maxBytes>>20)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := "property-" + uuid.NewString() + ext
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	// the declared size is not trusted; count what actually arrives
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if n > s.maxBytes {
		f.Close()
		os.Remove(dst)
		return "", domain.Validationf("image exceeds the %d MB limit", s.maxBytes>>20)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return "/uploads/properties/" + name, nil
}

func (s *Store) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// url is a serving path; only its basename maps into the store dir
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return domain.Validationf("invalid image url")
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
