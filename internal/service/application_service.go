package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"firecert/internal/forms"
	"firecert/internal/model"
	"firecert/internal/repository"
	"firecert/internal/wizard"
)

// Notifier pushes submission events to connected list views. Implemented by
// the websocket hub; a no-op implementation is fine for tests.
type Notifier interface {
	NotifyEvent(event string, payload any)
}

// --- DTOs ---

type ApplicationDocumentResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type ApplicationResponse struct {
	ID                string                        `json:"id"`
	EstablishmentID   string                        `json:"establishment_id"`
	EstablishmentName string                        `json:"establishment_name,omitempty"`
	OwnerID           string                        `json:"owner_id"`
	Category          string                        `json:"category"`
	SubStatus         string                        `json:"sub_status"`
	Status            string                        `json:"status"`
	ContactPerson     string                        `json:"contact_person"`
	ContactNumber     string                        `json:"contact_number"`
	ContactEmail      string                        `json:"contact_email"`
	RejectionReason   string                        `json:"rejection_reason,omitempty"`
	Documents         []ApplicationDocumentResponse `json:"documents"`
	CreatedAt         string                        `json:"created_at"`
}

// --- Interface ---

type ApplicationService interface {
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

	ListApplications(ctx context.Context, filter repository.ApplicationFilter) ([]ApplicationResponse, int64, error)
	GetApplication(ctx context.Context, id string) (*ApplicationResponse, error)
}

type applicationService struct {
	runtime *wizardRuntime
	apps    repository.ApplicationRepository
	log     *zap.Logger
}

// NewApplicationService wires the certification wizard: the form definition,
// the repository-backed record store, the document store and the submission
// notifications.
func NewApplicationService(
	apps repository.ApplicationRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	docs wizard.DocumentStore,
	notifier Notifier,
	log *zap.Logger,
) ApplicationService {
	form := forms.NewCertificationForm()
	store := &applicationRecordStore{apps: apps, audits: audits, txm: txm}
	rec := &wizard.Reconciler{
		Records:          store,
		Documents:        docs,
		Build:            forms.BuildCertificationSubmission,
		EstablishmentKey: forms.FieldEstablishmentID,
		OwnerAttribute:   "owner_id",
	}
	if notifier != nil {
		rec.OnSubmitted = func(id uuid.UUID, sub *wizard.Submission) {
			notifier.NotifyEvent("application.submitted", map[string]any{
				"id":       id.String(),
				"category": sub.Attributes["category"],
			})
		}
	}
	return &applicationService{
		runtime: newWizardRuntime(form, rec, log),
		apps:    apps,
		log:     log,
	}
}

// --- Wizard operations ---

func (s *applicationService) OpenWizard(ctx context.Context, ownerID uuid.UUID, draftID *uuid.UUID) (SessionState, error) {
	if draftID == nil {
		_, state := s.runtime.open(ownerID, nil, nil, nil)
		return state, nil
	}

	app, err := s.apps.FindByID(ctx, *draftID)
	if err != nil {
		return SessionState{}, fmt.Errorf("load draft: %w", err)
	}
	if app.OwnerID != ownerID {
		return SessionState{}, fmt.Errorf("draft does not belong to this user")
	}
	if app.Status != model.StatusPending {
		return SessionState{}, fmt.Errorf("only pending applications can be edited, this one is %s", app.Status)
	}

	fields, refs := forms.CertificationDraftFields(app)
	_, state := s.runtime.open(ownerID, draftID, fields, refs)
	return state, nil
}

func (s *applicationService) SetFields(sessionID, ownerID uuid.UUID, fields map[string]any) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		for k, v := range fields {
			if err := sess.SetField(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *applicationService) StageDocument(sessionID, ownerID uuid.UUID, slug string, f *wizard.StagedFile) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.StageDocument(slug, f)
	})
}

func (s *applicationService) RemoveDocument(sessionID, ownerID uuid.UUID, slug string) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.RemoveDocument(slug)
	})
}

func (s *applicationService) Next(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		_, err := sess.Next()
		return err
	})
}

func (s *applicationService) Back(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.Back()
	})
}

func (s *applicationService) JumpToStep(sessionID, ownerID uuid.UUID, step int) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.JumpToStep(step)
	})
}

func (s *applicationService) ResetWizard(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return sess.Reset()
	})
}

func (s *applicationService) State(sessionID, ownerID uuid.UUID) (SessionState, error) {
	return s.runtime.with(sessionID, ownerID, func(sess *wizard.Session) error {
		return nil
	})
}

func (s *applicationService) CloseWizard(sessionID, ownerID uuid.UUID) error {
	return s.runtime.close(sessionID, ownerID)
}

func (s *applicationService) Submit(ctx context.Context, sessionID, ownerID uuid.UUID) (string, error) {
	id, err := s.runtime.submit(ctx, sessionID, ownerID)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// --- Queries ---

func (s *applicationService) ListApplications(ctx context.Context, filter repository.ApplicationFilter) ([]ApplicationResponse, int64, error) {
	apps, total, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationResponse(&apps[i]))
	}
	return out, total, nil
}

func (s *applicationService) GetApplication(ctx context.Context, id string) (*ApplicationResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid application id: %w", err)
	}
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("application not found: %w", err)
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func toApplicationResponse(app *model.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:              app.ID.String(),
		EstablishmentID: app.EstablishmentID.String(),
		OwnerID:         app.OwnerID.String(),
		Category:        app.Category,
		SubStatus:       app.SubStatus,
		Status:          app.Status,
		ContactPerson:   app.ContactPerson,
		ContactNumber:   app.ContactNumber,
		ContactEmail:    app.ContactEmail,
		RejectionReason: app.RejectionReason,
		CreatedAt:       app.CreatedAt.Format(time.RFC3339),
	}
	if app.Establishment != nil {
		resp.EstablishmentName = app.Establishment.Name
	}
	resp.Documents = make([]ApplicationDocumentResponse, 0, len(app.Documents))
	for _, d := range app.Documents {
		resp.Documents = append(resp.Documents, ApplicationDocumentResponse{Slug: d.Slug, URL: d.URL})
	}
	return resp
}

// --- Record store ---

// applicationRecordStore adapts the application repository to the wizard's
// storage boundary. Writes run in one transaction together with their audit
// rows; a unique-index violation from the partial pending index surfaces as
// the duplicate-pending error.
type applicationRecordStore struct {
	apps   repository.ApplicationRepository
	audits repository.AuditRepository
	txm    repository.TransactionManager
}

func (st *applicationRecordStore) FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error) {
	return st.apps.FindPending(ctx, establishmentID, category, ownerID, exclude)
}

func (st *applicationRecordStore) Insert(ctx context.Context, sub *wizard.Submission) (uuid.UUID, error) {
	app := &model.Application{Status: model.StatusPending}
	forms.ApplyCertificationSubmission(app, sub)
	app.OwnerID = sub.Attributes["owner_id"].(uuid.UUID)

	err := st.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := st.apps.Create(txCtx, app); err != nil {
			return err
		}
		return st.audits.Log(txCtx, auditEntry(&app.OwnerID, model.ActionSubmitApplication, app.ID.String(), app.Category, map[string]any{
			"establishment_id": app.EstablishmentID.String(),
			"sub_status":       app.SubStatus,
		}))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return uuid.Nil, wizard.ErrDuplicatePending
	}
	if err != nil {
		return uuid.Nil, err
	}
	return app.ID, nil
}

func (st *applicationRecordStore) Update(ctx context.Context, id uuid.UUID, sub *wizard.Submission) (uuid.UUID, error) {
	err := st.txm.RunInTx(ctx, func(txCtx context.Context) error {
		app, err := st.apps.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("draft not found: %w", err)
		}
		if app.Status != model.StatusPending {
			return fmt.Errorf("application is already %s", app.Status)
		}

		forms.ApplyCertificationSubmission(app, sub)
		newDocs := app.Documents
		app.Documents = nil // document rows are replaced explicitly below
		if err := st.apps.Update(txCtx, app); err != nil {
			return err
		}
		if err := st.apps.ReplaceDocuments(txCtx, id, newDocs); err != nil {
			return err
		}
		return st.audits.Log(txCtx, auditEntry(&app.OwnerID, model.ActionUpdateApplication, id.String(), app.Category, map[string]any{
			"establishment_id": app.EstablishmentID.String(),
		}))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return uuid.Nil, wizard.ErrDuplicatePending
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func auditEntry(userID *uuid.UUID, action, entityID, entityName string, details map[string]any) *model.AuditLog {
	payload, _ := json.Marshal(details)
	return &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
}
