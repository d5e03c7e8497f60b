package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"firecert/internal/model"
	"firecert/internal/repository"
)

// Fee schedule for certificate issuance. Base fee depends on category; the
// area fee scales with declared floor area (business) or storeys (occupancy).
var (
	businessBaseFee  = decimal.NewFromInt(500)
	occupancyBaseFee = decimal.NewFromInt(1200)
	perSqmFee        = decimal.NewFromFloat(2.50)
	perStoreyFee     = decimal.NewFromInt(150)
)

const certificateValidity = 365 * 24 * time.Hour

// --- DTOs ---

type CertificateResponse struct {
	ID              string `json:"id"`
	CertificateNo   string `json:"certificate_no"`
	ApplicationID   string `json:"application_id"`
	EstablishmentID string `json:"establishment_id"`
	Category        string `json:"category"`
	BaseFee         string `json:"base_fee"`
	AreaFee         string `json:"area_fee"`
	TotalFee        string `json:"total_fee"`
	IssuedBy        string `json:"issued_by,omitempty"`
	IssuedAt        string `json:"issued_at"`
	ValidUntil      string `json:"valid_until"`
}

// --- Interface ---

// ReviewService moves applications through the review workflow:
// PENDING -> UNDER_REVIEW -> APPROVED (certificate issued) or REJECTED.
type ReviewService interface {
	StartReview(ctx context.Context, applicationID, reviewerID string) (ApplicationResponse, error)
	Approve(ctx context.Context, applicationID, reviewerID string) (CertificateResponse, error)
	Reject(ctx context.Context, applicationID, reviewerID, reason string) (ApplicationResponse, error)
	ListCertificates(ctx context.Context, establishmentID *uuid.UUID, page, limit int) ([]CertificateResponse, int64, error)
	GetCertificateByApplication(ctx context.Context, applicationID string) (*CertificateResponse, error)
}

type reviewService struct {
	apps     repository.ApplicationRepository
	certs    repository.CertificateRepository
	audits   repository.AuditRepository
	txm      repository.TransactionManager
	notifier Notifier
}

func NewReviewService(
	apps repository.ApplicationRepository,
	certs repository.CertificateRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	notifier Notifier,
) ReviewService {
	return &reviewService{apps: apps, certs: certs, audits: audits, txm: txm, notifier: notifier}
}

// --- Implementation ---

func (s *reviewService) StartReview(ctx context.Context, applicationID, reviewerID string) (ApplicationResponse, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid application id: %w", err)
	}
	revID, err := uuid.Parse(reviewerID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid reviewer id: %w", err)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		app, findErr := s.apps.FindByID(txCtx, appID)
		if findErr != nil {
			return fmt.Errorf("application not found: %w", findErr)
		}
		if app.Status != model.StatusPending {
			return fmt.Errorf("application is already %s", app.Status)
		}

		app.Status = model.StatusUnderReview
		app.ReviewedBy = &revID
		if saveErr := s.apps.Update(txCtx, app); saveErr != nil {
			return fmt.Errorf("failed to update application: %w", saveErr)
		}

		return s.audits.Log(txCtx, auditEntry(&revID, model.ActionStartReview, app.ID.String(), app.Category, map[string]any{
			"establishment_id": app.EstablishmentID.String(),
		}))
	})
	if err != nil {
		return ApplicationResponse{}, err
	}

	return s.reloadApplication(ctx, appID)
}

func (s *reviewService) Approve(ctx context.Context, applicationID, reviewerID string) (CertificateResponse, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return CertificateResponse{}, fmt.Errorf("invalid application id: %w", err)
	}
	revID, err := uuid.Parse(reviewerID)
	if err != nil {
		return CertificateResponse{}, fmt.Errorf("invalid reviewer id: %w", err)
	}

	var cert model.Certificate
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		app, findErr := s.apps.FindByID(txCtx, appID)
		if findErr != nil {
			return fmt.Errorf("application not found: %w", findErr)
		}
		if app.Status != model.StatusUnderReview {
			return fmt.Errorf("application must be under review to approve, it is %s", app.Status)
		}

		now := time.Now()
		app.Status = model.StatusApproved
		app.ReviewedBy = &revID
		app.ReviewedAt = &now
		if saveErr := s.apps.Update(txCtx, app); saveErr != nil {
			return fmt.Errorf("failed to update application: %w", saveErr)
		}

		prefix := "FSC-" + now.Format("20060102") + "-"
		certNo, genErr := s.certs.NextNumber(txCtx, prefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate certificate number: %w", genErr)
		}

		baseFee, areaFee := computeFees(app)
		cert = model.Certificate{
			CertificateNo:   certNo,
			ApplicationID:   app.ID,
			EstablishmentID: app.EstablishmentID,
			Category:        app.Category,
			BaseFee:         baseFee,
			AreaFee:         areaFee,
			TotalFee:        baseFee.Add(areaFee),
			IssuedBy:        &revID,
			IssuedAt:        now,
			ValidUntil:      now.Add(certificateValidity),
		}
		if createErr := s.certs.Create(txCtx, &cert); createErr != nil {
			return fmt.Errorf("failed to create certificate: %w", createErr)
		}

		if auditErr := s.audits.Log(txCtx, auditEntry(&revID, model.ActionApproveApplication, app.ID.String(), app.Category, map[string]any{
			"establishment_id": app.EstablishmentID.String(),
		})); auditErr != nil {
			return auditErr
		}
		return s.audits.Log(txCtx, auditEntry(&revID, model.ActionIssueCertificate, cert.ID.String(), certNo, map[string]any{
			"application_id": app.ID.String(),
			"total_fee":      cert.TotalFee.StringFixed(2),
		}))
	})
	if err != nil {
		return CertificateResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyEvent("application.approved", map[string]any{
			"application_id": appID.String(),
			"certificate_no": cert.CertificateNo,
		})
	}

	return toCertificateResponse(&cert), nil
}

func (s *reviewService) Reject(ctx context.Context, applicationID, reviewerID, reason string) (ApplicationResponse, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid application id: %w", err)
	}
	revID, err := uuid.Parse(reviewerID)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("invalid reviewer id: %w", err)
	}
	if reason == "" {
		return ApplicationResponse{}, fmt.Errorf("rejection reason is required")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		app, findErr := s.apps.FindByID(txCtx, appID)
		if findErr != nil {
			return fmt.Errorf("application not found: %w", findErr)
		}
		if app.Status != model.StatusPending && app.Status != model.StatusUnderReview {
			return fmt.Errorf("application is already %s", app.Status)
		}

		now := time.Now()
		app.Status = model.StatusRejected
		app.ReviewedBy = &revID
		app.ReviewedAt = &now
		app.RejectionReason = reason
		if saveErr := s.apps.Update(txCtx, app); saveErr != nil {
			return fmt.Errorf("failed to update application: %w", saveErr)
		}

		return s.audits.Log(txCtx, auditEntry(&revID, model.ActionRejectApplication, app.ID.String(), app.Category, map[string]any{
			"establishment_id": app.EstablishmentID.String(),
			"reason":           reason,
		}))
	})
	if err != nil {
		return ApplicationResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyEvent("application.rejected", map[string]any{
			"application_id": appID.String(),
		})
	}

	return s.reloadApplication(ctx, appID)
}

func (s *reviewService) ListCertificates(ctx context.Context, establishmentID *uuid.UUID, page, limit int) ([]CertificateResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	certs, total, err := s.certs.List(ctx, establishmentID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch certificates: %w", err)
	}

	out := make([]CertificateResponse, 0, len(certs))
	for i := range certs {
		out = append(out, toCertificateResponse(&certs[i]))
	}
	return out, total, nil
}

func (s *reviewService) GetCertificateByApplication(ctx context.Context, applicationID string) (*CertificateResponse, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return nil, fmt.Errorf("invalid application id: %w", err)
	}
	cert, err := s.certs.FindByApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("certificate not found: %w", err)
	}
	resp := toCertificateResponse(cert)
	return &resp, nil
}

// --- Helpers ---

func (s *reviewService) reloadApplication(ctx context.Context, id uuid.UUID) (ApplicationResponse, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return ApplicationResponse{}, fmt.Errorf("failed to reload application: %w", err)
	}
	return toApplicationResponse(app), nil
}

func computeFees(app *model.Application) (base, area decimal.Decimal) {
	base, area = decimal.Zero, decimal.Zero
	switch app.Category {
	case model.CategoryBusiness:
		base = businessBaseFee
		if app.FloorAreaSqm != nil {
			area = perSqmFee.Mul(decimal.NewFromFloat(*app.FloorAreaSqm)).Round(2)
		}
	case model.CategoryOccupancy:
		base = occupancyBaseFee
		if app.Storeys != nil {
			area = perStoreyFee.Mul(decimal.NewFromInt(int64(*app.Storeys)))
		}
	}
	return base, area
}

func toCertificateResponse(cert *model.Certificate) CertificateResponse {
	resp := CertificateResponse{
		ID:              cert.ID.String(),
		CertificateNo:   cert.CertificateNo,
		ApplicationID:   cert.ApplicationID.String(),
		EstablishmentID: cert.EstablishmentID.String(),
		Category:        cert.Category,
		BaseFee:         cert.BaseFee.StringFixed(2),
		AreaFee:         cert.AreaFee.StringFixed(2),
		TotalFee:        cert.TotalFee.StringFixed(2),
		IssuedAt:        cert.IssuedAt.Format(time.RFC3339),
		ValidUntil:      cert.ValidUntil.Format(time.RFC3339),
	}
	if cert.IssuedBy != nil {
		resp.IssuedBy = cert.IssuedBy.String()
	}
	return resp
}
