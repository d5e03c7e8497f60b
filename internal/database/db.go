package database

import (
	"log"

	"firecert/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates the core models and installs the partial unique
// index that makes the one-pending-application-per-triple invariant hold at
// the storage layer. The wizard's own pending check is only the fast path;
// this index is what wins when two sessions race to submit.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Establishment{},
		&model.EstablishmentDocument{},
		&model.Application{},
		&model.ApplicationDocument{},
		&model.Inspection{},
		&model.InspectionPhoto{},
		&model.Certificate{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_one_pending
		ON applications (establishment_id, category, owner_id)
		WHERE status = 'PENDING' AND deleted_at IS NULL`).Error
}
