package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inspection occupancy-type constants (the inspection wizard's category)
const (
	OccupancyAssembly   = "ASSEMBLY"
	OccupancyMercantile = "MERCANTILE"
	OccupancyIndustrial = "INDUSTRIAL"
)

// Checklist item result constants
const (
	ChecklistPass = "PASS"
	ChecklistFail = "FAIL"
	ChecklistNA   = "NA"
)

// Inspection recommendation constants
const (
	RecommendCompliant      = "COMPLIANT"
	RecommendNoticeToComply = "NOTICE_TO_COMPLY"
	RecommendAbatement      = "ABATEMENT"
)

// Inspection is one completed inspection checklist filed by an inspector
// through the inspection wizard.
type Inspection struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EstablishmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"establishment_id"`
	Establishment   *Establishment `gorm:"foreignKey:EstablishmentID" json:"establishment,omitempty"`
	InspectorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"inspector_id"`
	Inspector       *User          `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`
	OccupancyType   string         `gorm:"type:varchar(20);not null;index" json:"occupancy_type"`
	InspectionDate  string         `gorm:"type:varchar(10);not null" json:"inspection_date"` // YYYY-MM-DD

	// Means-of-egress checklist
	ExitsUnobstructed    string `gorm:"type:varchar(10);not null" json:"exits_unobstructed"`
	ExitSignsIlluminated string `gorm:"type:varchar(10);not null" json:"exit_signs_illuminated"`
	DoorsSwingOutward    string `gorm:"type:varchar(10);not null" json:"doors_swing_outward"`

	// Fire-protection checklist
	ExtinguishersTagged  string `gorm:"type:varchar(10);not null" json:"extinguishers_tagged"`
	AlarmFunctional      string `gorm:"type:varchar(10);not null" json:"alarm_functional"`
	SprinklerOperational string `gorm:"type:varchar(10);not null" json:"sprinkler_operational"`

	Findings       string `gorm:"type:text" json:"findings"`
	Recommendation string `gorm:"type:varchar(30);not null" json:"recommendation"`

	Photos []InspectionPhoto `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"photos"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InspectionPhoto is an uploaded site photo attached to a checklist.
type InspectionPhoto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InspectionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_insp_photo_slug" json:"inspection_id"`
	Slug         string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_insp_photo_slug" json:"slug"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}
