// Package feedback stores visitor feedback submitted from demo pages.
package feedback

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the review state of a feedback entry.
type Status string

const (
	StatusNew       Status = "new"
	StatusReviewed  Status = "reviewed"
	StatusContacted Status = "contacted"
)

// ParseStatus returns the Status named by value, if it is one.
func ParseStatus(value string) (Status, bool) {
	switch status := Status(value); status {
	case StatusNew, StatusReviewed, StatusContacted:
		return status, true
	}
	return "", false
}

// Feedback is a visitor submission.
type Feedback struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Email            string    `gorm:"size:255;index;not null" json:"email"`
	BusinessInterest string    `gorm:"size:300;not null" json:"businessInterest"`
	ExpectedPrice    string    `gorm:"size:100;not null" json:"expectedPrice"`
	Message          string    `gorm:"size:500" json:"message"`
	Status           Status    `gorm:"size:16;not null;default:new" json:"status"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName defines the table name for the Feedback model.
func (Feedback) TableName() string {
	return "feedbacks"
}

// BeforeCreate assigns an identifier and the initial status.
func (f *Feedback) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = StatusNew
	}
	return nil
}
