package admin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin is an operator account. Accounts are only created by the seed operation.
type Admin struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex:idx_admins_email;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName defines the table name for the Admin model.
func (Admin) TableName() string {
	return "admins"
}

// BeforeCreate assigns an identifier when none is set.
func (a *Admin) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
