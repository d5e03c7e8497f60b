package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"firecert/internal/wizard"
)

// ErrSessionNotFound is returned for unknown or already-closed session ids,
// and for sessions owned by a different user.
var ErrSessionNotFound = errors.New("wizard session not found")

// DocumentState is the host-facing view of one document slot.
type DocumentState struct {
	Slug     string           `json:"slug"`
	Label    string           `json:"label"`
	Required bool             `json:"required"`
	State    wizard.SlotState `json:"state"`
	FileName string           `json:"file_name,omitempty"`
	Ref      string           `json:"ref,omitempty"`
}

// SessionState is everything the host UI needs to render a wizard: current
// step, field record, error map and document slots.
type SessionState struct {
	ID           uuid.UUID            `json:"id"`
	Form         string               `json:"form"`
	Step         int                  `json:"step"`
	TotalSteps   int                  `json:"total_steps"`
	Fields       wizard.Fields        `json:"fields"`
	Errors       map[string]string    `json:"errors"`
	Requirements []wizard.Requirement `json:"requirements"`
	Documents    []DocumentState      `json:"documents"`
	EditingDraft bool                 `json:"editing_draft"`
}

type wizardSession struct {
	mu      sync.Mutex
	ownerID uuid.UUID
	sess    *wizard.Session
}

// wizardRuntime owns the live sessions of one form. Each session belongs to
// the user who opened it; all operations verify ownership. Sessions live in
// process memory because staged file content cannot leave the process before
// submission-time upload.
type wizardRuntime struct {
	form *wizard.Form
	rec  *wizard.Reconciler
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*wizardSession
}

func newWizardRuntime(form *wizard.Form, rec *wizard.Reconciler, log *zap.Logger) *wizardRuntime {
	return &wizardRuntime{
		form:     form,
		rec:      rec,
		log:      log,
		sessions: make(map[uuid.UUID]*wizardSession),
	}
}

// open creates a session, optionally pre-populated from a draft record.
func (w *wizardRuntime) open(ownerID uuid.UUID, draftID *uuid.UUID, fields wizard.Fields, refs map[string]string) (uuid.UUID, SessionState) {
	sess := wizard.NewSession(w.form)
	if draftID != nil {
		sess.LoadDraft(*draftID, fields, refs)
	}

	id := uuid.New()
	ws := &wizardSession{ownerID: ownerID, sess: sess}
	w.mu.Lock()
	w.sessions[id] = ws
	w.mu.Unlock()

	w.log.Info("wizard session opened",
		zap.String("form", w.form.Name),
		zap.String("session_id", id.String()),
		zap.Bool("editing_draft", draftID != nil))
	return id, w.state(id, sess)
}

func (w *wizardRuntime) get(id, ownerID uuid.UUID) (*wizardSession, error) {
	w.mu.Lock()
	ws, ok := w.sessions[id]
	w.mu.Unlock()
	if !ok || ws.ownerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return ws, nil
}

// with runs fn against the locked session and returns the refreshed state.
func (w *wizardRuntime) with(id, ownerID uuid.UUID, fn func(*wizard.Session) error) (SessionState, error) {
	ws, err := w.get(id, ownerID)
	if err != nil {
		return SessionState{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := fn(ws.sess); err != nil {
		return SessionState{}, err
	}
	return w.state(id, ws.sess), nil
}

// submit drives the reconciler and discards the session on success.
func (w *wizardRuntime) submit(ctx context.Context, id, ownerID uuid.UUID) (uuid.UUID, error) {
	ws, err := w.get(id, ownerID)
	if err != nil {
		return uuid.Nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	recordID, err := w.rec.Submit(ctx, ws.sess, ownerID)
	if err != nil {
		w.log.Warn("wizard submission failed",
			zap.String("form", w.form.Name),
			zap.String("session_id", id.String()),
			zap.Error(err))
		return uuid.Nil, err
	}

	w.mu.Lock()
	delete(w.sessions, id)
	w.mu.Unlock()

	w.log.Info("wizard submission persisted",
		zap.String("form", w.form.Name),
		zap.String("record_id", recordID.String()))
	return recordID, nil
}

// close discards a session without submitting; staged files are dropped.
// Cancellation is refused while a submission round trip is outstanding:
// submit holds the session lock for the whole round trip, so a lock we
// cannot take means one is running right now.
func (w *wizardRuntime) close(id, ownerID uuid.UUID) error {
	ws, err := w.get(id, ownerID)
	if err != nil {
		return err
	}
	if !ws.mu.TryLock() {
		return wizard.ErrSubmissionInFlight
	}
	defer ws.mu.Unlock()
	if ws.sess.Submitting() {
		return wizard.ErrSubmissionInFlight
	}
	w.mu.Lock()
	delete(w.sessions, id)
	w.mu.Unlock()
	return nil
}

func (w *wizardRuntime) state(id uuid.UUID, sess *wizard.Session) SessionState {
	reqs := sess.Requirements()
	docs := make([]DocumentState, 0, len(reqs))
	for _, r := range reqs {
		slot := sess.Document(r.Slug)
		d := DocumentState{Slug: r.Slug, Label: r.Label, Required: r.Required, State: slot.State, Ref: slot.Ref}
		if slot.Staged != nil {
			d.FileName = slot.Staged.Name
		}
		docs = append(docs, d)
	}

	return SessionState{
		ID:           id,
		Form:         w.form.Name,
		Step:         sess.CurrentStep(),
		TotalSteps:   sess.TotalSteps(),
		Fields:       sess.Fields(),
		Errors:       sess.Errors(),
		Requirements: reqs,
		Documents:    docs,
		EditingDraft: sess.DraftID() != nil,
	}
}
