// Package upload stores user supplied files on local disk and hands back public URL paths.
package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"scango/app/internal/apperr"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads"

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// Options configures the Store.
type Options struct {
	Dir      string
	MaxBytes int64
	Logger   *logrus.Logger
}

// Store writes files below Dir, grouped by category sub directories.
type Store struct {
	dir      string
	maxBytes int64
	logger   *logrus.Logger
	now      func() time.Time
}

// NewStore creates the upload directory when needed.
func NewStore(opts Options) (*Store, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, eris.New("upload directory is required")
	}
	if opts.MaxBytes <= 0 {
		return nil, eris.New("upload size limit must be greater than zero")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "creating upload directory: %s", dir)
	}

	return &Store{dir: dir, maxBytes: opts.MaxBytes, logger: opts.Logger, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the per-file size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SaveImage reads an image from r, checks that it decodes as png, jpeg, gif or
// webp and stores it under category. It returns the public URL path.
func (s *Store) SaveImage(category string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", eris.Wrap(err, "reading uploaded image")
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperr.Validation("Image must be at most %d bytes.", s.maxBytes)
	}
	if len(data) == 0 {
		return "", apperr.Validation("Uploaded image is empty.")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Validation("Only PNG, JPEG, GIF or WebP images can be uploaded.")
	}

	ext, ok := imageExtensions[format]
	if !ok {
		return "", apperr.Validation("Only PNG, JPEG, GIF or WebP images can be uploaded.")
	}

	return s.SaveBytes(category, ext, data)
}

// SaveBytes stores data with a generated name and the given extension.
func (s *Store) SaveBytes(category, ext string, data []byte) (string, error) {
	category = strings.Trim(strings.TrimSpace(category), "/")
	if category == "" || strings.Contains(category, "..") {
		return "", eris.Errorf("invalid upload category: %q", category)
	}

	targetDir := filepath.Join(s.dir, filepath.FromSlash(category))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "creating upload category directory: %s", targetDir)
	}

	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(targetDir, name), data, 0o644); err != nil {
		s.logError(logrus.Fields{"category": category}, err, "writing upload")
		return "", eris.Wrap(err, "writing upload")
	}

	return path.Join(URLPrefix, category, name), nil
}

// Remove deletes the file behind a URL path returned by SaveImage or SaveBytes.
// Paths outside the upload prefix and missing files are ignored.
func (s *Store) Remove(urlPath string) error {
	urlPath = strings.TrimSpace(urlPath)
	if !strings.HasPrefix(urlPath, URLPrefix+"/") {
		return nil
	}

	relative := path.Clean(strings.TrimPrefix(urlPath, URLPrefix+"/"))
	if relative == "." || strings.HasPrefix(relative, "..") {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(relative)))
	if err != nil && !os.IsNotExist(err) {
		s.logError(logrus.Fields{"path": urlPath}, err, "removing upload")
		return eris.Wrapf(err, "removing upload: %s", urlPath)
	}
	return nil
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithField("error", err.Error()).WithFields(fields).Error(message)
}
