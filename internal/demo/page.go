// Package demo manages demo pages: the public content a printed QR code points at.
package demo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type classifies a demo page.
type Type string

const (
	TypeMuseum  Type = "museum"
	TypeProduct Type = "product"
	TypeHealth  Type = "health"
)

// Valid reports whether t is one of the known page types.
func (t Type) Valid() bool {
	switch t {
	case TypeMuseum, TypeProduct, TypeHealth:
		return true
	}
	return false
}

// Page is a demo page record.
type Page struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:128;uniqueIndex:idx_demo_pages_slug;not null" json:"slug"`
	Type         Type      `gorm:"size:16;not null" json:"type"`
	CuratorKey   string    `gorm:"size:255;not null" json:"curatorKey"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Description  string    `gorm:"type:text" json:"description"`
	QRCodeURL    string    `gorm:"column:qr_code_url;type:text" json:"qrCodeUrl"`
	ProductImage string    `gorm:"size:512" json:"productImage"`
	AudioURL     string    `gorm:"size:512" json:"audioUrl"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName defines the table name for the Page model.
func (Page) TableName() string {
	return "demo_pages"
}

// BeforeCreate assigns an identifier when none is set.
func (p *Page) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
