package demo

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/db"
)

// Repository defines persistence operations for demo pages.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]Page, error)
	Create(ctx context.Context, page *Page) error
	Update(ctx context.Context, page *Page) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists demo pages using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Repository = (*GormRepository)(nil)

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(conn *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if conn == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: conn, logger: logger}, nil
}

// Migrate applies the demo_pages schema.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger) error {
	return db.Migrate(ctx, conn, logger, "demo", &Page{})
}

// GetBySlug returns the page for the provided slug or nil when not found.
func (r *GormRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var page Page
	err := r.db.WithContext(ctx).First(&page, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching demo page")
		return nil, eris.Wrapf(err, "fetching demo page: %s", trimmed)
	}

	return &page, nil
}

// List returns every page, newest first.
func (r *GormRepository) List(ctx context.Context) ([]Page, error) {
	var pages []Page
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&pages).Error; err != nil {
		r.logError(nil, err, "listing demo pages")
		return nil, eris.Wrap(err, "listing demo pages")
	}
	return pages, nil
}

// Create inserts a new page. A slug collision surfaces as gorm.ErrDuplicatedKey.
func (r *GormRepository) Create(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("demo page is nil")
	}

	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		if !eris.Is(err, gorm.ErrDuplicatedKey) {
			r.logError(logrus.Fields{"slug": page.Slug}, err, "creating demo page")
		}
		return eris.Wrap(err, "creating demo page")
	}

	return nil
}

// Update persists every column of an existing page.
func (r *GormRepository) Update(ctx context.Context, page *Page) error {
	if page == nil || page.ID == "" {
		return eris.New("demo page with id is required")
	}

	if err := r.db.WithContext(ctx).Save(page).Error; err != nil {
		if !eris.Is(err, gorm.ErrDuplicatedKey) {
			r.logError(logrus.Fields{"slug": page.Slug, "page_id": page.ID}, err, "updating demo page")
		}
		return eris.Wrap(err, "updating demo page")
	}

	return nil
}

// Delete removes the page with the given identifier.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return eris.New("demo page id is required")
	}

	if err := r.db.WithContext(ctx).Delete(&Page{}, "id = ?", trimmed).Error; err != nil {
		r.logError(logrus.Fields{"page_id": trimmed}, err, "deleting demo page")
		return eris.Wrapf(err, "deleting demo page: %s", trimmed)
	}

	return nil
}

// Count returns the number of demo pages.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Page{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting demo pages")
		return 0, eris.Wrap(err, "counting demo pages")
	}
	return count, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
