// Package storage keeps uploaded news pictures on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "github.com/nsrz/intranet/pkg/util"
)

// ImageStore writes images under dir and hands out URLs below publicPrefix.
type ImageStore struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

// NewImageStore creates dir if needed.
func NewImageStore(dir, publicPrefix string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &ImageStore{dir: dir, publicPrefix: "/" + strings.Trim(publicPrefix, "/"), maxBytes: maxBytes}, nil
}

// Dir is the directory served as static content.
func (s *ImageStore) Dir() string { return s.dir }

// PublicPrefix is the URL path the directory is mounted at.
func (s *ImageStore) PublicPrefix() string { return s.publicPrefix }

// Save sniffs the content type, rejects anything that is not an image and returns the public URL.
func (s *ImageStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", apperrors.NewValidationError("could not read upload", nil)
	}
	if len(data) == 0 {
		return "", apperrors.NewValidationError("empty upload", map[string]any{"image": "required"})
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperrors.NewValidationError("image too large", map[string]any{"image": fmt.Sprintf("max=%d", s.maxBytes)})
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperrors.NewValidationError("unsupported file type", map[string]any{"image": mt.String()})
	}

	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", apperrors.NewInternalError(fmt.Errorf("write image: %w", err))
	}
	return path.Join(s.publicPrefix, name), nil
}

// Remove deletes the file behind a URL returned by Save. Foreign URLs are ignored.
func (s *ImageStore) Remove(url string) error {
	if !strings.HasPrefix(url, s.publicPrefix+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
