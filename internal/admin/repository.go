package admin

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/db"
)

// Repository defines persistence operations for admin credentials.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	Create(ctx context.Context, admin *Admin) error
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists admins using a Gorm database connection.
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

// Migrate applies the admins schema.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger) error {
	return db.Migrate(ctx, conn, logger, "admin", &Admin{})
}

// GetByEmail returns the admin for the provided email or nil when not found.
func (r *GormRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, eris.New("email is required")
	}

	var admin Admin
	err := r.db.WithContext(ctx).First(&admin, "email = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"email": trimmed}, err, "fetching admin by email")
		return nil, eris.Wrap(err, "fetching admin by email")
	}

	return &admin, nil
}

// GetByID returns the admin for the provided identifier or nil when not found.
func (r *GormRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, eris.New("admin id is required")
	}

	var admin Admin
	err := r.db.WithContext(ctx).First(&admin, "id = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"admin_id": trimmed}, err, "fetching admin by id")
		return nil, eris.Wrapf(err, "fetching admin by id: %s", trimmed)
	}

	return &admin, nil
}

// Create inserts a new admin row.
func (r *GormRepository) Create(ctx context.Context, admin *Admin) error {
	if admin == nil {
		return eris.New("admin is nil")
	}

	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		r.logError(logrus.Fields{"email": admin.Email}, err, "creating admin")
		return eris.Wrap(err, "creating admin")
	}

	return nil
}

// Count returns the number of admin accounts.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Admin{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting admins")
		return 0, eris.Wrap(err, "counting admins")
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
