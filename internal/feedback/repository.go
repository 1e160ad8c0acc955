package feedback

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/db"
)

// Repository defines persistence operations for feedback.
type Repository interface {
	Create(ctx context.Context, entry *Feedback) error
	List(ctx context.Context) ([]Feedback, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Feedback, error)
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists feedback using a Gorm database connection.
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

// Migrate applies the feedbacks schema.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger) error {
	return db.Migrate(ctx, conn, logger, "feedback", &Feedback{})
}

// Create inserts a feedback entry.
func (r *GormRepository) Create(ctx context.Context, entry *Feedback) error {
	if entry == nil {
		return eris.New("feedback is nil")
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logError(logrus.Fields{"email": entry.Email}, err, "creating feedback")
		return eris.Wrap(err, "creating feedback")
	}
	return nil
}

// List returns all feedback, newest first.
func (r *GormRepository) List(ctx context.Context) ([]Feedback, error) {
	var entries []Feedback
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		r.logError(nil, err, "listing feedback")
		return nil, eris.Wrap(err, "listing feedback")
	}
	return entries, nil
}

// UpdateStatus sets the status of one entry and returns it, or nil when the id is unknown.
func (r *GormRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Feedback, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, nil
	}

	var entry Feedback
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", trimmed).Error; err != nil {
			return err
		}
		entry.Status = status
		return tx.Model(&entry).Update("status", status).Error
	})
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"feedback_id": trimmed}, err, "updating feedback status")
		return nil, eris.Wrapf(err, "updating feedback status: %s", trimmed)
	}

	return &entry, nil
}

// Count returns the number of feedback entries.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Feedback{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting feedback")
		return 0, eris.Wrap(err, "counting feedback")
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
