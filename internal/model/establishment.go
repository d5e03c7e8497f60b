package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Establishment scale category constants
const (
	ScaleSmall  = "SMALL"
	ScaleMedium = "MEDIUM"
	ScaleLarge  = "LARGE"
)

// Establishment is a registered facility owned by a user. Registration goes
// through the establishment wizard; the hazard-profile columns are only
// collected for LARGE establishments and stay NULL otherwise.
type Establishment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner    *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Category string    `gorm:"type:varchar(20);not null;index" json:"category"` // SMALL, MEDIUM, LARGE
	TIN      string    `gorm:"type:varchar(20)" json:"tin"`

	Address  string `gorm:"type:text;not null" json:"address"`
	Barangay string `gorm:"type:varchar(100);not null" json:"barangay"`
	City     string `gorm:"type:varchar(100);not null" json:"city"`
	Landline string `gorm:"type:varchar(50)" json:"landline"`
	Mobile   string `gorm:"type:varchar(50);not null" json:"mobile"`
	Email    string `gorm:"type:varchar(255);not null" json:"email"`

	// Hazard profile, NULL unless category is LARGE
	OccupantCapacity    *int  `json:"occupant_capacity"`
	StoresFlammables    *bool `json:"stores_flammables"`
	HazardousProcesses  *bool `json:"hazardous_processes"`
	HasStandbyGenerator *bool `json:"has_standby_generator"`

	Documents []EstablishmentDocument `gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE" json:"documents"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EstablishmentDocument is a registration supporting document reference.
type EstablishmentDocument struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EstablishmentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_est_doc_slug" json:"establishment_id"`
	Slug            string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_est_doc_slug" json:"slug"`
	URL             string    `gorm:"type:text;not null" json:"url"`
	CreatedAt       time.Time `json:"created_at"`
}
