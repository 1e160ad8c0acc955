package curator

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/db"
)

// Repository defines persistence operations for proposals.
type Repository interface {
	Exists(ctx context.Context, curatorKey, demoSlug string) (bool, error)
	Create(ctx context.Context, proposal *Proposal) error
	List(ctx context.Context) ([]Proposal, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Proposal, error)
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists proposals using a Gorm database connection.
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

// Migrate applies the curator_proposals schema.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger) error {
	return db.Migrate(ctx, conn, logger, "curator", &Proposal{})
}

// Exists reports whether a proposal for the pair is already stored.
func (r *GormRepository) Exists(ctx context.Context, curatorKey, demoSlug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Proposal{}).
		Where("curator_key = ? AND demo_slug = ?", curatorKey, demoSlug).
		Limit(1).
		Count(&count).Error
	if err != nil {
		r.logError(logrus.Fields{"curator_key": curatorKey, "demo_slug": demoSlug}, err, "checking existing proposal")
		return false, eris.Wrap(err, "checking existing proposal")
	}
	return count > 0, nil
}

// Create inserts a proposal. A duplicate pair surfaces as gorm.ErrDuplicatedKey.
func (r *GormRepository) Create(ctx context.Context, proposal *Proposal) error {
	if proposal == nil {
		return eris.New("proposal is nil")
	}

	if err := r.db.WithContext(ctx).Create(proposal).Error; err != nil {
		if !eris.Is(err, gorm.ErrDuplicatedKey) {
			r.logError(logrus.Fields{"curator_key": proposal.CuratorKey, "demo_slug": proposal.DemoSlug}, err, "creating proposal")
		}
		return eris.Wrap(err, "creating proposal")
	}
	return nil
}

// List returns all proposals, newest first.
func (r *GormRepository) List(ctx context.Context) ([]Proposal, error) {
	var proposals []Proposal
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&proposals).Error; err != nil {
		r.logError(nil, err, "listing proposals")
		return nil, eris.Wrap(err, "listing proposals")
	}
	return proposals, nil
}

// UpdateStatus sets the status of one proposal and returns it, or nil when the id is unknown.
func (r *GormRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Proposal, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, nil
	}

	var proposal Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&proposal, "id = ?", trimmed).Error; err != nil {
			return err
		}
		proposal.Status = status
		return tx.Model(&proposal).Update("status", status).Error
	})
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"proposal_id": trimmed}, err, "updating proposal status")
		return nil, eris.Wrapf(err, "updating proposal status: %s", trimmed)
	}

	return &proposal, nil
}

// Count returns the number of proposals.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Proposal{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting proposals")
		return 0, eris.Wrap(err, "counting proposals")
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
