package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

type fakeRecordStore struct {
	pending    map[string]uuid.UUID // "estID|category|ownerID" -> record id
	inserted   []*Submission
	updated    map[uuid.UUID]*Submission
	insertErr  error
	updateErr  error
	pendingErr error
	nextID     uuid.UUID
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		pending: make(map[string]uuid.UUID),
		updated: make(map[uuid.UUID]*Submission),
		nextID:  uuid.New(),
	}
}

func pendingKey(est uuid.UUID, category string, owner uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", est, category, owner)
}

func (f *fakeRecordStore) FindPending(_ context.Context, est uuid.UUID, category string, owner uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	id, ok := f.pending[pendingKey(est, category, owner)]
	if !ok {
		return nil, nil
	}
	if exclude != nil && *exclude == id {
		return nil, nil
	}
	return &id, nil
}

func (f *fakeRecordStore) Insert(_ context.Context, sub *Submission) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserted = append(f.inserted, sub)
	return f.nextID, nil
}

func (f *fakeRecordStore) Update(_ context.Context, id uuid.UUID, sub *Submission) (uuid.UUID, error) {
	if f.updateErr != nil {
		return uuid.Nil, f.updateErr
	}
	f.updated[id] = sub
	return id, nil
}

type fakeDocumentStore struct {
	uploads  int
	failSlug string
}

func (f *fakeDocumentStore) Upload(_ context.Context, slug string, file *StagedFile) (string, error) {
	if slug == f.failSlug {
		return "", errors.New("bucket unavailable")
	}
	f.uploads++
	return "ref://" + slug + "/" + file.Name, nil
}

// submitForm is a single-category form whose second step is the document step.
// It carries an establishment field so the pending-uniqueness path runs.
func submitForm() *Form {
	return &Form{
		Name:        "submit",
		CategoryKey: "category",
		Policy:      FilePolicy{MaxBytes: 1 << 20},
		Requirements: RequirementSet{
			{Category: "BUSINESS"}: {
				{Slug: "permit", Label: "Permit", Required: true},
				{Slug: "insurance", Label: "Insurance", Required: false},
			},
		},
		StepsFor: func(category string) []Step {
			return []Step{
				{
					Name: "general",
					Fields: []FieldRule{
						{Key: "category", Label: "Category", Required: true, Kind: KindChoice, Choices: []string{"BUSINESS"}},
						{Key: "establishment_id", Label: "Establishment", Required: true},
						{Key: "name", Label: "Name", Required: true},
					},
				},
				{Name: "documents", Documents: true},
			}
		},
	}
}

func passthroughBuilder(fields Fields, docs map[string]*string) (*Submission, error) {
	return &Submission{
		Attributes: Attributes{"name": fields.String("name")},
		Documents:  docs,
	}, nil
}

func completedSession(t *testing.T, estID uuid.UUID) *Session {
	t.Helper()
	s := NewSession(submitForm())
	require.NoError(t, s.SetField("category", "BUSINESS"))
	require.NoError(t, s.SetField("establishment_id", estID.String()))
	require.NoError(t, s.SetField("name", "Acme"))
	require.NoError(t, s.StageDocument("permit", &StagedFile{Name: "permit.pdf", Size: 10}))
	return s
}

func TestReconcilerSubmitInsert(t *testing.T) {
	records := newFakeRecordStore()
	docs := &fakeDocumentStore{}
	owner := uuid.New()
	est := uuid.New()

	var notified *uuid.UUID
	rec := &Reconciler{
		Records:          records,
		Documents:        docs,
		Build:            passthroughBuilder,
		EstablishmentKey: "establishment_id",
		OwnerAttribute:   "owner_id",
		OnSubmitted: func(id uuid.UUID, _ *Submission) {
			notified = &id
		},
	}

	s := completedSession(t, est)
	id, err := rec.Submit(context.Background(), s, owner)
	require.NoError(t, err)
	assert.Equal(t, records.nextID, id)

	require.Len(t, records.inserted, 1)
	sub := records.inserted[0]
	assert.Equal(t, owner, sub.Attributes["owner_id"])

	// One entry per applicable slug: uploaded ref for a staged file, explicit
	// nil for an untouched optional slot.
	require.Contains(t, sub.Documents, "permit")
	require.Contains(t, sub.Documents, "insurance")
	require.NotNil(t, sub.Documents["permit"])
	assert.Equal(t, "ref://permit/permit.pdf", *sub.Documents["permit"])
	assert.Nil(t, sub.Documents["insurance"])

	require.NotNil(t, notified)
	assert.Equal(t, id, *notified)

	// Successful submission closes the session.
	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.SetField("name", "again"), ErrSessionClosed)
}

func TestReconcilerSubmitValidationFailure(t *testing.T) {
	records := newFakeRecordStore()
	rec := &Reconciler{Records: records, Documents: &fakeDocumentStore{}, Build: passthroughBuilder}

	s := NewSession(submitForm())
	require.NoError(t, s.SetField("category", "BUSINESS"))
	// name, establishment and the required document are all missing

	_, err := rec.Submit(context.Background(), s, uuid.New())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "permit")
	assert.Empty(t, records.inserted)

	// Errors land on the session and it stays interactive.
	assert.Contains(t, s.Errors(), "name")
	assert.False(t, s.Closed())
	require.NoError(t, s.SetField("name", "Acme"))
}

func TestReconcilerSubmitRevalidatesEveryStep(t *testing.T) {
	// Walk forward legitimately, then corrupt an earlier step's field by
	// navigating back. Submit must catch it even though the current step is
	// the document step.
	records := newFakeRecordStore()
	rec := &Reconciler{Records: records, Documents: &fakeDocumentStore{}, Build: passthroughBuilder}

	s := completedSession(t, uuid.New())
	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Back())
	require.NoError(t, s.SetField("name", ""))
	_, err = s.Next()
	require.NoError(t, err) // Next reports the failure via the error map
	_, err = s.Next()

	_, err = rec.Submit(context.Background(), s, uuid.New())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestReconcilerSubmitUploadFailure(t *testing.T) {
	records := newFakeRecordStore()
	docs := &fakeDocumentStore{failSlug: "permit"}
	rec := &Reconciler{Records: records, Documents: docs, Build: passthroughBuilder}

	s := completedSession(t, uuid.New())
	_, err := rec.Submit(context.Background(), s, uuid.New())

	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "permit", uerr.Slug)
	assert.Empty(t, records.inserted)

	// The slot is still staged, so the user can retry without re-picking.
	assert.Equal(t, SlotStaged, s.Document("permit").State)
	assert.False(t, s.Closed())

	docs.failSlug = ""
	_, err = rec.Submit(context.Background(), s, uuid.New())
	require.NoError(t, err)
	assert.True(t, s.Closed())
}

func TestReconcilerSubmitDuplicatePending(t *testing.T) {
	records := newFakeRecordStore()
	owner := uuid.New()
	est := uuid.New()
	existing := uuid.New()
	records.pending[pendingKey(est, "BUSINESS", owner)] = existing

	rec := &Reconciler{
		Records:          records,
		Documents:        &fakeDocumentStore{},
		Build:            passthroughBuilder,
		EstablishmentKey: "establishment_id",
	}

	t.Run("new submission conflicts", func(t *testing.T) {
		s := completedSession(t, est)
		_, err := rec.Submit(context.Background(), s, owner)
		assert.ErrorIs(t, err, ErrDuplicatePending)
		assert.False(t, s.Closed())
	})

	t.Run("editing the conflicting draft itself passes", func(t *testing.T) {
		s := completedSession(t, est)
		s.LoadDraft(existing, s.Fields(), nil)
		id, err := rec.Submit(context.Background(), s, owner)
		require.NoError(t, err)
		assert.Equal(t, existing, id)
		assert.Contains(t, records.updated, existing)
	})

	t.Run("different owner passes", func(t *testing.T) {
		s := completedSession(t, est)
		_, err := rec.Submit(context.Background(), s, uuid.New())
		assert.NoError(t, err)
	})
}

func TestReconcilerSubmitPersistenceFailure(t *testing.T) {
	records := newFakeRecordStore()
	records.insertErr = errors.New("connection reset")
	rec := &Reconciler{Records: records, Documents: &fakeDocumentStore{}, Build: passthroughBuilder}

	s := completedSession(t, uuid.New())
	_, err := rec.Submit(context.Background(), s, uuid.New())

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert", perr.Op)
	assert.False(t, s.Closed())

	// Uploaded refs were persisted onto the slots, so a resubmit does not
	// re-upload the file.
	assert.Equal(t, SlotPersisted, s.Document("permit").State)

	records.insertErr = nil
	_, err = rec.Submit(context.Background(), s, uuid.New())
	require.NoError(t, err)
}

func TestReconcilerSubmitWrappedDuplicateFromStore(t *testing.T) {
	// Record stores translate unique-index violations into
	// ErrDuplicatePending; callers must still see it through the
	// PersistenceError wrapper.
	records := newFakeRecordStore()
	records.insertErr = ErrDuplicatePending
	rec := &Reconciler{Records: records, Documents: &fakeDocumentStore{}, Build: passthroughBuilder}

	s := completedSession(t, uuid.New())
	_, err := rec.Submit(context.Background(), s, uuid.New())
	assert.ErrorIs(t, err, ErrDuplicatePending)
}

func TestReconcilerSubmitDraftUpdate(t *testing.T) {
	records := newFakeRecordStore()
	rec := &Reconciler{Records: records, Documents: &fakeDocumentStore{}, Build: passthroughBuilder}

	draftID := uuid.New()
	s := NewSession(submitForm())
	s.LoadDraft(draftID, Fields{
		"category":         "BUSINESS",
		"establishment_id": uuid.New().String(),
		"name":             "Acme",
	}, map[string]string{"permit": "ref://permit/old.pdf"})

	// Remove the stored document and stage a replacement.
	require.NoError(t, s.RemoveDocument("permit"))
	require.NoError(t, s.StageDocument("permit", &StagedFile{Name: "new.pdf", Size: 5}))

	id, err := rec.Submit(context.Background(), s, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, draftID, id)

	sub := records.updated[draftID]
	require.NotNil(t, sub)
	require.NotNil(t, sub.Documents["permit"])
	assert.Equal(t, "ref://permit/new.pdf", *sub.Documents["permit"])
	assert.Empty(t, records.inserted)
}

func TestReconcilerSubmitDraftRemovedReferenceSentAsNil(t *testing.T) {
	records := newFakeRecordStore()
	docs := &fakeDocumentStore{}
	rec := &Reconciler{Records: records, Documents: docs, Build: passthroughBuilder}

	draftID := uuid.New()
	s := NewSession(submitForm())
	s.LoadDraft(draftID, Fields{
		"category":         "BUSINESS",
		"establishment_id": uuid.New().String(),
		"name":             "Acme",
	}, map[string]string{
		"permit":    "ref://permit/old.pdf",
		"insurance": "ref://insurance/policy.pdf",
	})

	// Drop the optional document without staging a replacement.
	require.NoError(t, s.RemoveDocument("insurance"))

	id, err := rec.Submit(context.Background(), s, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, draftID, id)

	sub := records.updated[draftID]
	require.NotNil(t, sub)
	removed, ok := sub.Documents["insurance"]
	require.True(t, ok, "removed slug must still be present in the submission")
	assert.Nil(t, removed)
	require.NotNil(t, sub.Documents["permit"])
	assert.Equal(t, "ref://permit/old.pdf", *sub.Documents["permit"])
	assert.Zero(t, docs.uploads, "nothing was staged, nothing should upload")
}
