package repository

import (
	"context"

	"firecert/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InspectionRepository interface {
	Create(ctx context.Context, insp *model.Inspection) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Inspection, error)
	List(ctx context.Context, establishmentID, inspectorID *uuid.UUID, page, limit int) ([]model.Inspection, int64, error)
}

type inspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) InspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) Create(ctx context.Context, insp *model.Inspection) error {
	return GetDB(ctx, r.db).Create(insp).Error
}

func (r *inspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Inspection, error) {
	var insp model.Inspection
	if err := GetDB(ctx, r.db).Preload("Photos").Preload("Establishment").First(&insp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &insp, nil
}

func (r *inspectionRepository) List(ctx context.Context, establishmentID, inspectorID *uuid.UUID, page, limit int) ([]model.Inspection, int64, error) {
	var insps []model.Inspection
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if establishmentID != nil {
			q = q.Where("establishment_id = ?", *establishmentID)
		}
		if inspectorID != nil {
			q = q.Where("inspector_id = ?", *inspectorID)
		}
		return q
	}

	if err := apply(db.Model(&model.Inspection{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.Inspection{}).Preload("Photos")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&insps).Error; err != nil {
		return nil, 0, err
	}

	return insps, total, nil
}
