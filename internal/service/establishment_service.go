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

type EstablishmentDocumentResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type EstablishmentResponse struct {
	ID        string                          `json:"id"`
	OwnerID   string                          `json:"owner_id"`
	Name      string                          `json:"name"`
	Category  string                          `json:"category"`
	TIN       string                          `json:"tin,omitempty"`
	Address   string                          `json:"address"`
	Barangay  string                          `json:"barangay"`
	City      string                          `json:"city"`
	Landline  string                          `json:"landline,omitempty"`
	Mobile    string                          `json:"mobile"`
	Email     string                          `json:"email"`
	IsActive  bool                            `json:"is_active"`
	Documents []EstablishmentDocumentResponse `json:"documents"`
	CreatedAt time.Time                       `json:"created_at"`

	OccupantCapacity    *int  `json:"occupant_capacity,omitempty"`
	StoresFlammables    *bool `json:"stores_flammables,omitempty"`
	HazardousProcesses  *bool `json:"hazardous_processes,omitempty"`
	HasStandbyGenerator *bool `json:"has_standby_generator,omitempty"`
}

// --- Interface ---

type EstablishmentService interface {
	OpenWizard(ctx context.Context, ownerID uuid.UUID, draftID *uuid.UUID) (SessionState, error)
	SetFields(sessionID, ownerID uuid.UUID, fields map[string]any) (SessionState, error)
	StageDocument(sessionID, ownerID uuid.UUID, slug string, f *wizard.StagedFile) (SessionState, error)
	RemoveDocument(sessionID, ownerID uuid.UUID, slug string) (SessionState, error)
	Next(sessionID, ownerID uuid.UUID) (SessionState, error)
	Back(sessionID, ownerID uuid.UUID) (SessionState, error)
	JumpToStep(sessionID, ownerID uuid.UUID, step int) (SessionState, error)
	ResetWizard(sessionID, ownerID uuid.UUID) (SessionState, error)
	State(sessionID, ownerID uuid.UUID) (SessionState, error)
	CloseWizard(sessionID, ownerID uuid.UUID) error
	Submit(ctx context.Context, sessionID, ownerID uuid.UUID) (string, error)

	GetEstablishments(ctx context.Context, ownerID *uuid.UUID, category, search string, page, limit int) ([]EstablishmentResponse, int64, error)
	GetEstablishment(ctx context.Context, id string) (*EstablishmentResponse, error)
	DeactivateEstablishment(ctx context.Context, id string, actorID uuid.UUID) error
}

type establishmentService struct {
	runtime *wizardRuntime
	ests    repository.EstablishmentRepository
	audits  repository.AuditRepository
	txm     repository.TransactionManager
	log     *zap.Logger
}

func NewEstablishmentService(
	ests repository.EstablishmentRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	docs wizard.DocumentStore,
	notifier Notifier,
	log *zap.Logger,
) EstablishmentService {
	form := forms.NewEstablishmentForm()
	store := &establishmentRecordStore{ests: ests, audits: audits, txm: txm}
	rec := &wizard.Reconciler{
		Records:        store,
		Documents:      docs,
		Build:          forms.BuildEstablishmentSubmission,
		OwnerAttribute: "owner_id",
	}
	if notifier != nil {
		rec.OnSubmitted = func(id uuid.UUID, sub *wizard.Submission) {
			notifier.NotifyEvent("establishment.registered", map[string]any{
				"id":       id.String(),
				"category": sub.Attributes["category"],
			})
		}
	}
	return &establishmentService{
		runtime: newWizardRuntime(form, rec, log),
		ests:    ests,
		audits:  audits,
		txm:     txm,
		log:     log,
	}
}

// --- Wizard operations ---

func (s *establishmentService) OpenWizard(ctx context.Context, ownerID uuid.UUID, draftID *uuid.UUID) (SessionState, error) {
	if draftID == nil {
		_, state := s.runtime.open(ownerID, nil, nil, nil)
		return state, nil
	}

	est, err := s.ests.FindByID(ctx, *draftID)
	if err != nil {
		return SessionState{}, fmt.Errorf("load establishment: %w", err)
	}
	if est.OwnerID != ownerID {
		return SessionState{}, fmt.Errorf("establishment does not belong to this user")
	}

	fields, refs := forms.EstablishmentDraftFields(est)
	_, state := s.runtime.open(ownerID, draftID, fields, refs)
	return state, nil
}

func (s *establishmentService) SetFields(sessionID, ownerID uuid.UUID, fields map[string]any) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		for k, v := range fields {
			if err := sess.SetField(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *establishmentService) StageDocument(sessionID, ownerID uuid.UUID, slug string, f *wizard.StagedFile) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.StageDocument(slug, f)
	})
}

func (s *establishmentService) RemoveDocument(sessionID, ownerID uuid.UUID, slug string) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.RemoveDocument(slug)
	})
}

func (s *establishmentService) Next(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		_, err := sess.Next()
		return err
	})
}

func (s *establishmentService) Back(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.Back()
	})
}

func (s *establishmentService) JumpToStep(sessionID, ownerID uuid.UUID, step int) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.JumpToStep(step)
	})
}

func (s *establishmentService) ResetWizard(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.Reset()
	})
}

func (s *establishmentService) State(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return nil
	})
}

func (s *establishmentService) CloseWizard(sessionID, ownerID uuid.UUID) error {
	return s.runtime.close(sessionID, ownerID)
}

func (s *establishmentService) Submit(ctx context.Context, sessionID, ownerID uuid.UUID) (string, error) {
	id, err := s.runtime.submit(ctx, sessionID, ownerID)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// --- Queries ---

func (s *establishmentService) GetEstablishments(ctx context.Context, ownerID *uuid.UUID, category, search string, page, limit int) ([]EstablishmentResponse, int64, error) {
	ests, total, err := s.ests.List(ctx, ownerID, category, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch establishments: %w", err)
	}
	out := make([]EstablishmentResponse, 0, len(ests))
	for i := range ests {
		out = append(out, toEstablishmentResponse(&ests[i]))
	}
	return out, total, nil
}

func (s *establishmentService) GetEstablishment(ctx context.Context, id string) (*EstablishmentResponse, error) {
	estID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid establishment id: %w", err)
	}
	est, err := s.ests.FindByID(ctx, estID)
	if err != nil {
		return nil, fmt.Errorf("establishment not found: %w", err)
	}
	resp := toEstablishmentResponse(est)
	return &resp, nil
}

func (s *establishmentService) DeactivateEstablishment(ctx context.Context, id string, actorID uuid.UUID) error {
	estID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid establishment id: %w", err)
	}
	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		est, err := s.ests.FindByID(txCtx, estID)
		if err != nil {
			return fmt.Errorf("establishment not found: %w", err)
		}
		if err := s.ests.Delete(txCtx, estID); err != nil {
			return fmt.Errorf("failed to deactivate establishment: %w", err)
		}
		return s.audits.Log(txCtx, auditEntry(&actorID, model.ActionDeleteEstablishment, estID.String(), est.Name, nil))
	})
}

func toEstablishmentResponse(est *model.Establishment) EstablishmentResponse {
	resp := EstablishmentResponse{
		ID:        est.ID.String(),
		OwnerID:   est.OwnerID.String(),
		Name:      est.Name,
		Category:  est.Category,
		TIN:       est.TIN,
		Address:   est.Address,
		Barangay:  est.Barangay,
		City:      est.City,
		Landline:  est.Landline,
		Mobile:    est.Mobile,
		Email:     est.Email,
		IsActive:  est.IsActive,
		CreatedAt: est.CreatedAt,

		OccupantCapacity:    est.OccupantCapacity,
		StoresFlammables:    est.StoresFlammables,
		HazardousProcesses:  est.HazardousProcesses,
		HasStandbyGenerator: est.HasStandbyGenerator,
	}
	resp.Documents = make([]EstablishmentDocumentResponse, 0, len(est.Documents))
	for _, d := range est.Documents {
		resp.Documents = append(resp.Documents, EstablishmentDocumentResponse{Slug: d.Slug, URL: d.URL})
	}
	return resp
}

// --- Record store ---

type establishmentRecordStore struct {
	ests   repository.EstablishmentRepository
	audits repository.AuditRepository
	txm    repository.TransactionManager
}

// FindPending is never consulted: the registration form has no
// pending-uniqueness key, so the reconciler skips the check.
func (st *establishmentRecordStore) FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error) {
	return nil, nil
}

func (st *establishmentRecordStore) Insert(ctx context.Context, sub *wizard.Submission) (uuid.UUID, error) {
	est := &model.Establishment{IsActive: true}
	forms.ApplyEstablishmentSubmission(est, sub)
	est.OwnerID = sub.Attributes["owner_id"].(uuid.UUID)

	err := st.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := st.ests.Create(txCtx, est); err != nil {
			return err
		}
		return st.audits.Log(txCtx, auditEntry(&est.OwnerID, model.ActionRegisterEstablishment, est.ID.String(), est.Name, map[string]any{
			"category": est.Category,
		}))
	})
	if err != nil {
		return uuid.Nil, err
	}
	return est.ID, nil
}

func (st *establishmentRecordStore) Update(ctx context.Context, id uuid.UUID, sub *wizard.Submission) (uuid.UUID, error) {
	err := st.txm.RunInTx(ctx, func(txCtx context.Context) error {
		est, err := st.ests.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("establishment not found: %w", err)
		}

		forms.ApplyEstablishmentSubmission(est, sub)
		newDocs := est.Documents
		est.Documents = nil
		if err := st.ests.Update(txCtx, est); err != nil {
			return err
		}
		if err := st.ests.ReplaceDocuments(txCtx, id, newDocs); err != nil {
			return err
		}
		return st.audits.Log(txCtx, auditEntry(&est.OwnerID, model.ActionUpdateEstablishment, id.String(), est.Name, nil))
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
