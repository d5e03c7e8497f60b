package wizard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Attributes is the flat attribute set of the record a submission produces.
// Fields belonging to the non-selected category appear with a nil value,
// never absent, so downstream consumers can rely on the key existing.
type Attributes map[string]any

// Submission is the persisted form of one completed wizard: the record
// attributes plus the resolved document references keyed by requirement slug.
// A nil reference means the document was explicitly removed or never given.
type Submission struct {
	Attributes Attributes
	Documents  map[string]*string
}

// RecordStore is the storage boundary the reconciler writes through.
// FindPending is the authoritative uniqueness check for the (establishment,
// category, owner) triple, excluding the draft under edit.
type RecordStore interface {
	FindPending(ctx context.Context, establishmentID uuid.UUID, category string, ownerID uuid.UUID, exclude *uuid.UUID) (*uuid.UUID, error)
	Insert(ctx context.Context, sub *Submission) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, sub *Submission) (uuid.UUID, error)
}

// DocumentStore resolves staged files into persisted references. Upload must
// be safe to retry: a retry may not assume a previous attempt partially
// succeeded.
type DocumentStore interface {
	Upload(ctx context.Context, slug string, f *StagedFile) (string, error)
}

// Builder maps the final field record and resolved document references onto
// record attributes. Form-specific builders enforce the closed per-category
// field groups and set the not-applicable markers.
type Builder func(fields Fields, docs map[string]*string) (*Submission, error)

// Reconciler turns a completed session into one persisted record.
type Reconciler struct {
	Records   RecordStore
	Documents DocumentStore
	Build     Builder

	// EstablishmentKey names the field holding the establishment id for the
	// uniqueness check. Leave empty for forms without the pending-uniqueness
	// invariant.
	EstablishmentKey string

	// OwnerAttribute, when set, names the attribute that receives the
	// submitting user's id ("owner_id" for applications, "inspector_id" for
	// checklists).
	OwnerAttribute string

	// OnSubmitted, when set, is invoked after a successful submission so the
	// host can refresh list views. The reconciler has no opinion on what
	// happens inside it.
	OnSubmitted func(id uuid.UUID, sub *Submission)
}

// Submit resolves the session into a persisted record:
//
//  1. re-validate every step, not just the last;
//  2. upload each staged file, aborting with an UploadError on failure and
//     leaving the session intact;
//  3. build the attribute set with explicit not-applicable markers;
//  4. re-check pending uniqueness against current storage, excluding the
//     draft under edit;
//  5. update the draft or insert a new pending record.
//
// The check in step 4 and the write in step 5 are separate round trips; the
// partial unique index on the backing table is the guarantee that holds when
// two sessions race past the check.
func (r *Reconciler) Submit(ctx context.Context, s *Session, ownerID uuid.UUID) (uuid.UUID, error) {
	if err := s.beginSubmit(); err != nil {
		return uuid.Nil, err
	}
	succeeded := false
	defer func() { s.endSubmit(succeeded) }()

	if errs := s.validateAll(); len(errs) > 0 {
		s.errors = errs
		return uuid.Nil, &ValidationError{Fields: errs}
	}

	docs, err := r.resolveDocuments(ctx, s)
	if err != nil {
		return uuid.Nil, err
	}

	sub, err := r.Build(s.Fields(), docs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build record attributes: %w", err)
	}
	if r.OwnerAttribute != "" {
		sub.Attributes[r.OwnerAttribute] = ownerID
	}

	if r.EstablishmentKey != "" {
		if err := r.checkPendingConflict(ctx, s, ownerID); err != nil {
			return uuid.Nil, err
		}
	}

	var id uuid.UUID
	if draft := s.DraftID(); draft != nil {
		id, err = r.Records.Update(ctx, *draft, sub)
		if err != nil {
			return uuid.Nil, &PersistenceError{Op: "update", Err: err}
		}
	} else {
		id, err = r.Records.Insert(ctx, sub)
		if err != nil {
			return uuid.Nil, &PersistenceError{Op: "insert", Err: err}
		}
	}

	succeeded = true
	if r.OnSubmitted != nil {
		r.OnSubmitted(id, sub)
	}
	return id, nil
}

// resolveDocuments uploads every staged slot and collects one reference entry
// per applicable requirement slug. No slot state is mutated until every
// upload succeeds, so a failed submission leaves the session retryable.
func (r *Reconciler) resolveDocuments(ctx context.Context, s *Session) (map[string]*string, error) {
	reqs := s.Requirements()
	docs := make(map[string]*string, len(reqs))
	uploaded := make(map[string]string)

	for _, req := range reqs {
		slot := s.Document(req.Slug)
		switch slot.State {
		case SlotStaged:
			ref, err := r.Documents.Upload(ctx, req.Slug, slot.Staged)
			if err != nil {
				return nil, &UploadError{Slug: req.Slug, Err: err}
			}
			uploaded[req.Slug] = ref
			docs[req.Slug] = &ref
		case SlotPersisted:
			ref := slot.Ref
			docs[req.Slug] = &ref
		default:
			docs[req.Slug] = nil
		}
	}

	for slug, ref := range uploaded {
		s.slots.SetPersisted(slug, ref)
	}
	return docs, nil
}

func (r *Reconciler) checkPendingConflict(ctx context.Context, s *Session, ownerID uuid.UUID) error {
	establishmentID, err := uuid.Parse(s.Fields().String(r.EstablishmentKey))
	if err != nil {
		return fmt.Errorf("parse establishment id: %w", err)
	}
	category := s.Fields().String(s.form.CategoryKey)

	conflict, err := r.Records.FindPending(ctx, establishmentID, category, ownerID, s.DraftID())
	if err != nil {
		return &PersistenceError{Op: "lookup", Err: err}
	}
	if conflict != nil {
		return ErrDuplicatePending
	}
	return nil
}
