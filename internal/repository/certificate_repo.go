package repository

import (
	"context"
	"fmt"

	"firecert/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateRepository interface {
	Create(ctx context.Context, cert *model.Certificate) error
	FindByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Certificate, error)
	List(ctx context.Context, establishmentID *uuid.UUID, page, limit int) ([]model.Certificate, int64, error)
	// NextNumber returns the next sequential certificate number for the day
	// prefix, e.g. "FSC-20240115-" -> "FSC-20240115-00003". Must run inside a
	// transaction; it takes a Postgres advisory lock on the prefix so
	// concurrent approvals cannot produce duplicates.
	NextNumber(ctx context.Context, prefix string) (string, error)
}

type certificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	return GetDB(ctx, r.db).Create(cert).Error
}

func (r *certificateRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Certificate, error) {
	var cert model.Certificate
	if err := GetDB(ctx, r.db).First(&cert, "application_id = ?", applicationID).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) NextNumber(ctx context.Context, prefix string) (string, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.Certificate{}).
		Where("certificate_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (r *certificateRepository) List(ctx context.Context, establishmentID *uuid.UUID, page, limit int) ([]model.Certificate, int64, error) {
	var certs []model.Certificate
	var total int64

	db := GetDB(ctx, r.db)
	q := db.Model(&model.Certificate{})
	if establishmentID != nil {
		q = q.Where("establishment_id = ?", *establishmentID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Model(&model.Certificate{})
	if establishmentID != nil {
		fetch = fetch.Where("establishment_id = ?", *establishmentID)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&certs).Error; err != nil {
		return nil, 0, err
	}

	return certs, total, nil
}
