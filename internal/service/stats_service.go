package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"firecert/internal/model"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type RecommendationCount struct {
	Recommendation string `json:"recommendation"`
	Count          int64  `json:"count"`
}

type StatsResponse struct {
	TimeRangeStartDate time.Time `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time `json:"time_range_end_date"`

	ApplicationsByStatus   []StatusCount         `json:"applications_by_status"`
	ApplicationsByCategory []CategoryCount       `json:"applications_by_category"`
	CertificatesIssued     int64                 `json:"certificates_issued"`
	TotalFeesCollected     float64               `json:"total_fees_collected"`
	InspectionOutcomes     []RecommendationCount `json:"inspection_outcomes"`
	ActiveEstablishments   int64                 `json:"active_establishments"`
}

type StatsService interface {
	GetStats(ctx context.Context, startDate, endDate time.Time) (StatsResponse, error)
}

type statsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) StatsService {
	return &statsService{db: db}
}

// GetStats aggregates workload metrics for the dashboard within a time bracket.
func (s *statsService) GetStats(ctx context.Context, startDate, endDate time.Time) (StatsResponse, error) {
	var response StatsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Applications grouped by status
	var byStatus []StatusCount
	s.db.WithContext(ctx).Model(&model.Application{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("status").
		Order("count DESC").
		Scan(&byStatus)
	response.ApplicationsByStatus = byStatus

	// Applications grouped by category
	var byCategory []CategoryCount
	s.db.WithContext(ctx).Model(&model.Application{}).
		Select("category, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("category").
		Order("count DESC").
		Scan(&byCategory)
	response.ApplicationsByCategory = byCategory

	// Certificates issued and fees collected
	var issued struct {
		Count int64
		Fees  float64
	}
	s.db.WithContext(ctx).Model(&model.Certificate{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_fee), 0) as fees").
		Where("issued_at >= ? AND issued_at <= ?", startDate, endDate).
		Scan(&issued)
	response.CertificatesIssued = issued.Count
	response.TotalFeesCollected = issued.Fees

	// Inspection outcomes grouped by recommendation
	var outcomes []RecommendationCount
	s.db.WithContext(ctx).Model(&model.Inspection{}).
		Select("recommendation, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("recommendation").
		Order("count DESC").
		Scan(&outcomes)
	response.InspectionOutcomes = outcomes

	// Active establishments (not time bracketed)
	s.db.WithContext(ctx).Model(&model.Establishment{}).
		Where("is_active = ?", true).
		Count(&response.ActiveEstablishments)

	return response, nil
}
