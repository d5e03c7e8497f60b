package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Application category constants
const (
	CategoryBusiness  = "BUSINESS"
	CategoryOccupancy = "OCCUPANCY"
)

// Application sub-status constants
const (
	SubStatusNew     = "NEW"
	SubStatusRenewal = "RENEWAL"
)

// Application status constants
const (
	StatusPending     = "PENDING"
	StatusUnderReview = "UNDER_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
)

// Application is a fire-safety certification application. Exactly one
// category's field group carries values; the other group's columns are NULL.
// At most one PENDING application may exist per (establishment, category,
// owner), enforced by a partial unique index, see database.NewConnection.
type Application struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EstablishmentID uuid.UUID      `gorm:"type:uuid;not null;index:idx_app_pending_triple" json:"establishment_id"`
	Establishment   *Establishment `gorm:"foreignKey:EstablishmentID" json:"establishment,omitempty"`
	OwnerID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_app_pending_triple" json:"owner_id"`
	Owner           *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Category        string         `gorm:"type:varchar(20);not null;index:idx_app_pending_triple" json:"category"` // BUSINESS, OCCUPANCY
	SubStatus       string         `gorm:"type:varchar(20);not null" json:"sub_status"`                            // NEW, RENEWAL
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	ContactPerson string `gorm:"type:varchar(255);not null" json:"contact_person"`
	ContactNumber string `gorm:"type:varchar(50);not null" json:"contact_number"`
	ContactEmail  string `gorm:"type:varchar(255);not null" json:"contact_email"`

	// Business group, NULL when category is OCCUPANCY
	TradeName      *string  `gorm:"type:varchar(255)" json:"trade_name"`
	RegistrationNo *string  `gorm:"type:varchar(50)" json:"registration_no"` // DTI/SEC registration number
	BusinessNature *string  `gorm:"type:varchar(255)" json:"business_nature"`
	FloorAreaSqm   *float64 `json:"floor_area_sqm"`
	OccupantLoad   *int     `json:"occupant_load"`

	// Occupancy group, NULL when category is BUSINESS
	BuildingPermitNo  *string             `gorm:"type:varchar(100)" json:"building_permit_no"`
	ContractorName    *string             `gorm:"type:varchar(255)" json:"contractor_name"`
	ProjectCost       decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"project_cost"`
	Storeys           *int                `json:"storeys"`
	SprinklerSystem   *string             `gorm:"type:varchar(20)" json:"sprinkler_system"` // AUTOMATIC, PARTIAL, NONE
	AlarmSystem       *string             `gorm:"type:varchar(20)" json:"alarm_system"`     // ADDRESSABLE, CONVENTIONAL, NONE
	EmergencyLighting *bool               `json:"emergency_lighting"`

	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer        *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	Documents []ApplicationDocument `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"documents"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ApplicationDocument is one persisted supporting-document reference, keyed
// by the requirement slug it satisfies.
type ApplicationDocument struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_app_doc_slug" json:"application_id"`
	Slug          string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_app_doc_slug" json:"slug"`
	URL           string    `gorm:"type:text;not null" json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}
