package repository

import (
	"context"
	"errors"

	"firecert/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	OwnerID         *uuid.UUID
	EstablishmentID *uuid.UUID
	Status          string
	Category        string
	Page            int
	Limit           int
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	Update(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error)
	// FindPending returns the id of a PENDING application for the
	// (establishment, category, owner) triple, excluding the given record id.
	// It is the authoritative uniqueness lookup run right before the write.
	FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error)
	ReplaceDocuments(ctx context.Context, applicationID uuid.UUID, docs []model.ApplicationDocument) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *applicationRepository) Update(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Save(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := GetDB(ctx, r.db).Preload("Documents").Preload("Establishment").First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", *filter.OwnerID)
		}
		if filter.EstablishmentID != nil {
			q = q.Where("establishment_id = ?", *filter.EstablishmentID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		return q
	}

	if err := apply(db.Model(&model.Application{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := apply(db.Model(&model.Application{}).Preload("Documents").Preload("Establishment")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error) {
	q := GetDB(ctx, r.db).Model(&model.Application{}).
		Where("establishment_id = ? AND category = ? AND owner_id = ? AND status = ?",
			establishmentID, category, ownerID, model.StatusPending)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}

	var app model.Application
	err := q.Select("id").First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := app.ID
	return &id, nil
}

// ReplaceDocuments swaps the full document reference set of an application.
// A slug the user removed in the wizard simply has no row afterwards.
func (r *applicationRepository) ReplaceDocuments(ctx context.Context, applicationID uuid.UUID, docs []model.ApplicationDocument) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("application_id = ?", applicationID).Delete(&model.ApplicationDocument{}).Error; err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		docs[i].ApplicationID = applicationID
	}
	return db.Create(&docs).Error
}
