package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Certificate is the fire safety certificate issued when an application is
// approved. Certificate numbers are sequential per day; generation holds a
// Postgres advisory lock to avoid duplicates under concurrent approvals.
type Certificate struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CertificateNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"certificate_no"`
	ApplicationID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"application_id"`
	Application     *Application    `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	EstablishmentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"establishment_id"`
	Category        string          `gorm:"type:varchar(20);not null" json:"category"`
	BaseFee         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"base_fee"`
	AreaFee         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"area_fee"`
	TotalFee        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_fee"`
	IssuedBy        *uuid.UUID      `gorm:"type:uuid" json:"issued_by"`
	Issuer          *User           `gorm:"foreignKey:IssuedBy" json:"issuer,omitempty"`
	IssuedAt        time.Time       `gorm:"not null" json:"issued_at"`
	ValidUntil      time.Time       `gorm:"not null" json:"valid_until"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
