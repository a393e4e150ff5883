package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Defaults applied to the settings record created with every user.
const (
	DefaultCurrency = "USD"
	DefaultTemplate = "default"
)

// Settings holds the per-user company profile and invoicing defaults.
type Settings struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID       `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	CompanyName    string          `json:"company_name" gorm:"size:255"`
	CompanyAddress string          `json:"company_address" gorm:"type:text"`
	LogoURL        string          `json:"logo_url" gorm:"size:1024"`
	Currency       string          `json:"currency" gorm:"size:3;not null;default:'USD'"`
	TaxRate        decimal.Decimal `json:"tax_rate" gorm:"type:decimal(7,4);not null;default:0"`
	Template       string          `json:"template" gorm:"size:64;not null;default:'default'"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Settings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewDefaultSettings returns the settings record created implicitly for a new user.
func NewDefaultSettings(userID uuid.UUID) *Settings {
	return &Settings{
		UserID:   userID,
		Currency: DefaultCurrency,
		TaxRate:  decimal.Zero,
		Template: DefaultTemplate,
	}
}
