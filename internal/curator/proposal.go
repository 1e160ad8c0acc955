// Package curator collects content change proposals submitted by page curators.
package curator

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the review state of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusRejected Status = "rejected"
)

// ParseStatus returns the Status named by value, if it is one.
func ParseStatus(value string) (Status, bool) {
	switch status := Status(value); status {
	case StatusPending, StatusReviewed, StatusRejected:
		return status, true
	}
	return "", false
}

// Proposal is a suggested change to a demo page. At most one exists per curator key and slug.
type Proposal struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	CuratorKey      string    `gorm:"size:255;not null;uniqueIndex:idx_proposals_curator_slug,priority:1" json:"curatorKey"`
	DemoSlug        string    `gorm:"size:128;not null;index;uniqueIndex:idx_proposals_curator_slug,priority:2" json:"demoSlug"`
	ProposedChanges string    `gorm:"type:text;not null" json:"proposedChanges"`
	Status          Status    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName defines the table name for the Proposal model.
func (Proposal) TableName() string {
	return "curator_proposals"
}

// BeforeCreate assigns an identifier and the initial status.
func (p *Proposal) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return nil
}
