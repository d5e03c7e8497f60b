package repository

import (
	"context"

	"firecert/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EstablishmentRepository interface {
	Create(ctx context.Context, est *model.Establishment) error
	Update(ctx context.Context, est *model.Establishment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Establishment, error)
	List(ctx context.Context, ownerID *uuid.UUID, category, search string, page, limit int) ([]model.Establishment, int64, error)
	ReplaceDocuments(ctx context.Context, establishmentID uuid.UUID, docs []model.EstablishmentDocument) error
}

type establishmentRepository struct {
	db *gorm.DB
}

func NewEstablishmentRepository(db *gorm.DB) EstablishmentRepository {
	return &establishmentRepository{db: db}
}

func (r *establishmentRepository) Create(ctx context.Context, est *model.Establishment) error {
	return GetDB(ctx, r.db).Create(est).Error
}

func (r *establishmentRepository) Update(ctx context.Context, est *model.Establishment) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: false}).Save(est).Error
}

func (r *establishmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Establishment{}).Error
}

func (r *establishmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Establishment, error) {
	var est model.Establishment
	if err := GetDB(ctx, r.db).Preload("Documents").First(&est, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *establishmentRepository) List(ctx context.Context, ownerID *uuid.UUID, category, search string, page, limit int) ([]model.Establishment, int64, error) {
	var ests []model.Establishment
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if ownerID != nil {
			q = q.Where("owner_id = ?", *ownerID)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("name ILIKE ? OR city ILIKE ? OR barangay ILIKE ? OR email ILIKE ?", like, like, like, like)
		}
		return q
	}

	if err := apply(db.Model(&model.Establishment{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.Establishment{}).Preload("Documents")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&ests).Error; err != nil {
		return nil, 0, err
	}

	return ests, total, nil
}

// ReplaceDocuments swaps the full document set of an establishment; used by
// the wizard on draft update where removed slugs must disappear.
func (r *establishmentRepository) ReplaceDocuments(ctx context.Context, establishmentID uuid.UUID, docs []model.EstablishmentDocument) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("establishment_id = ?", establishmentID).Delete(&model.EstablishmentDocument{}).Error; err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		docs[i].EstablishmentID = establishmentID
	}
	return db.Create(&docs).Error
}
