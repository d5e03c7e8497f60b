package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"firecert/internal/forms"
	"firecert/internal/model"
	"firecert/internal/repository"
	"firecert/internal/wizard"
)

// --- DTOs ---

type InspectionPhotoResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type InspectionResponse struct {
	ID                string                    `json:"id"`
	EstablishmentID   string                    `json:"establishment_id"`
	EstablishmentName string                    `json:"establishment_name,omitempty"`
	InspectorID       string                    `json:"inspector_id"`
	OccupancyType     string                    `json:"occupancy_type"`
	InspectionDate    string                    `json:"inspection_date"`
	Checklist         map[string]string         `json:"checklist"`
	Findings          string                    `json:"findings,omitempty"`
	Recommendation    string                    `json:"recommendation"`
	Photos            []InspectionPhotoResponse `json:"photos"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// --- Interface ---

// InspectionService drives the inspection checklist wizard. Checklists are
// filed once and never edited, so there is no draft path here.
type InspectionService interface {
	OpenWizard(inspectorID uuid.UUID) (SessionState, error)
	SetFields(sessionID, inspectorID uuid.UUID, fields map[string]any) (SessionState, error)
	StageDocument(sessionID, inspectorID uuid.UUID, slug string, f *wizard.StagedFile) (SessionState, error)
	RemoveDocument(sessionID, inspectorID uuid.UUID, slug string) (SessionState, error)
	Next(sessionID, inspectorID uuid.UUID) (SessionState, error)
	Back(sessionID, inspectorID uuid.UUID) (SessionState, error)
	JumpToStep(sessionID, inspectorID uuid.UUID, step int) (SessionState, error)
	ResetWizard(sessionID, inspectorID uuid.UUID) (SessionState, error)
	State(sessionID, inspectorID uuid.UUID) (SessionState, error)
	CloseWizard(sessionID, inspectorID uuid.UUID) error
	Submit(ctx context.Context, sessionID, inspectorID uuid.UUID) (string, error)

	ListInspections(ctx context.Context, establishmentID, inspectorID *uuid.UUID, page, limit int) ([]InspectionResponse, int64, error)
	GetInspection(ctx context.Context, id string) (*InspectionResponse, error)
}

type inspectionService struct {
	runtime *wizardRuntime
	insps   repository.InspectionRepository
	log     *zap.Logger
}

func NewInspectionService(
	insps repository.InspectionRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	docs wizard.DocumentStore,
	notifier Notifier,
	log *zap.Logger,
) InspectionService {
	form := forms.NewInspectionForm()
	store := &inspectionRecordStore{insps: insps, audits: audits, txm: txm}
	rec := &wizard.Reconciler{
		Records:        store,
		Documents:      docs,
		Build:          forms.BuildInspectionSubmission,
		OwnerAttribute: "inspector_id",
	}
	if notifier != nil {
		rec.OnSubmitted = func(id uuid.UUID, sub *wizard.Submission) {
			notifier.NotifyEvent("inspection.filed", map[string]any{
				"id":             id.String(),
				"recommendation": sub.Attributes["recommendation"],
			})
		}
	}
	return &inspectionService{
		runtime: newWizardRuntime(form, rec, log),
		insps:   insps,
		log:     log,
	}
}

// --- Wizard operations ---

func (s *inspectionService) OpenWizard(inspectorID uuid.UUID) (SessionState, error) {
	_, state := s.runtime.open(inspectorID, nil, nil, nil)
	return state, nil
}

func (s *inspectionService) SetFields(sessionID, inspectorID uuid.UUID, fields map[string]any) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		for k, v := range fields {
			if err := sess.SetField(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *inspectionService) StageDocument(sessionID, inspectorID uuid.UUID, slug string, f *wizard.StagedFile) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return sess.StageDocument(slug, f)
	})
}

func (s *inspectionService) RemoveDocument(sessionID, inspectorID uuid.UUID, slug string) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return sess.RemoveDocument(slug)
	})
}

func (s *inspectionService) Next(sessionID, inspectorID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		_, err := sess.Next()
		return err
	})
}

func (s *inspectionService) Back(sessionID, inspectorID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return sess.Back()
	})
}

func (s *inspectionService) JumpToStep(sessionID, inspectorID uuid.UUID, step int) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return sess.JumpToStep(step)
	})
}

func (s *inspectionService) ResetWizard(sessionID, inspectorID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return sess.Reset()
	})
}

func (s *inspectionService) State(sessionID, inspectorID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, inspectorID, func(sess *wizard.Session) error {
		return nil
	})
}

func (s *inspectionService) CloseWizard(sessionID, inspectorID uuid.UUID) error {
	return s.runtime.close(sessionID, inspectorID)
}

func (s *inspectionService) Submit(ctx context.Context, sessionID, inspectorID uuid.UUID) (string, error) {
	id, err := s.runtime.submit(ctx, sessionID, inspectorID)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// --- Queries ---

func (s *inspectionService) ListInspections(ctx context.Context, establishmentID, inspectorID *uuid.UUID, page, limit int) ([]InspectionResponse, int64, error) {
	insps, total, err := s.insps.List(ctx, establishmentID, inspectorID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch inspections: %w", err)
	}
	out := make([]InspectionResponse, 0, len(insps))
	for i := range insps {
		out = append(out, toInspectionResponse(&insps[i]))
	}
	return out, total, nil
}

func (s *inspectionService) GetInspection(ctx context.Context, id string) (*InspectionResponse, error) {
	inspID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid inspection id: %w", err)
	}
	insp, err := s.insps.FindByID(ctx, inspID)
	if err != nil {
		return nil, fmt.Errorf("inspection not found: %w", err)
	}
	resp := toInspectionResponse(insp)
	return &resp, nil
}

func toInspectionResponse(insp *model.Inspection) InspectionResponse {
	resp := InspectionResponse{
		ID:              insp.ID.String(),
		EstablishmentID: insp.EstablishmentID.String(),
		InspectorID:     insp.InspectorID.String(),
		OccupancyType:   insp.OccupancyType,
		InspectionDate:  insp.InspectionDate,
		Checklist: map[string]string{
			"exits_unobstructed":     insp.ExitsUnobstructed,
			"exit_signs_illuminated": insp.ExitSignsIlluminated,
			"doors_swing_outward":    insp.DoorsSwingOutward,
			"extinguishers_tagged":   insp.ExtinguishersTagged,
			"alarm_functional":       insp.AlarmFunctional,
			"sprinkler_operational":  insp.SprinklerOperational,
		},
		Findings:       insp.Findings,
		Recommendation: insp.Recommendation,
		CreatedAt:      insp.CreatedAt,
	}
	if insp.Establishment != nil {
		resp.EstablishmentName = insp.Establishment.Name
	}
	resp.Photos = make([]InspectionPhotoResponse, 0, len(insp.Photos))
	for _, p := range insp.Photos {
		resp.Photos = append(resp.Photos, InspectionPhotoResponse{Slug: p.Slug, URL: p.URL})
	}
	return resp
}

// --- Record store ---

type inspectionRecordStore struct {
	insps  repository.InspectionRepository
	audits repository.AuditRepository
	txm    repository.TransactionManager
}

func (st *inspectionRecordStore) FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error) {
	return nil, nil
}

func (st *inspectionRecordStore) Insert(ctx context.Context, sub *wizard.Submission) (uuid.UUID, error) {
	insp := &model.Inspection{}
	forms.ApplyInspectionSubmission(insp, sub)
	insp.InspectorID = sub.Attributes["inspector_id"].(uuid.UUID)

	err := st.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := st.insps.Create(txCtx, insp); err != nil {
			return err
		}
		return st.audits.Log(txCtx, auditEntry(&insp.InspectorID, model.ActionFileInspection, insp.ID.String(), insp.OccupancyType, map[string]any{
			"establishment_id": insp.EstablishmentID.String(),
			"recommendation":   insp.Recommendation,
		}))
	})
	if err != nil {
		return uuid.Nil, err
	}
	return insp.ID, nil
}

// Update never runs: filed checklists are immutable and the wizard is always
// opened without a draft.
func (st *inspectionRecordStore) Update(ctx context.Context, id uuid.UUID, sub *wizard.Submission) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("inspection checklists cannot be edited after filing")
}
