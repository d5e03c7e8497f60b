package wizard

import (
	"fmt"

	"github.com/google/uuid"
)

// StepErrorKey is the error-map key used when a step validator fails
// unexpectedly rather than returning field messages.
const StepErrorKey = "step"

// Form is the declarative definition one wizard runs against: the ordered
// steps per category, the document requirement tables, and the file policy.
// The category (and, when used, sub-status) live in the field record under
// CategoryKey/SubStatusKey, so changing them re-resolves steps and documents.
type Form struct {
	Name         string
	CategoryKey  string
	SubStatusKey string
	StepsFor     func(category string) []Step
	Requirements RequirementSet
	Policy       FilePolicy
}

// TotalSteps returns the step count for the category.
func (f *Form) TotalSteps(category string) int {
	return len(f.StepsFor(category))
}

// Session is one user's pass through a wizard: the current step, the field
// record, the per-key errors, and the document slots. A session is owned by a
// single caller; it is not safe for concurrent use on its own.
type Session struct {
	form       *Form
	current    int
	fields     Fields
	errors     map[string]string
	slots      *SlotStore
	draftID    *uuid.UUID
	submitting bool
	closed     bool
}

// NewSession opens a fresh session at step 1.
func NewSession(form *Form) *Session {
	return &Session{
		form:    form,
		current: 1,
		fields:  make(Fields),
		errors:  make(map[string]string),
		slots:   NewSlotStore(),
	}
}

// LoadDraft pre-populates the session from an existing pending record: its
// id (submission will update rather than insert), its field values, and its
// stored document references.
func (s *Session) LoadDraft(id uuid.UUID, fields Fields, refs map[string]string) {
	draft := id
	s.draftID = &draft
	s.fields = fields.Clone()
	for slug, ref := range refs {
		if ref != "" {
			s.slots.SetPersisted(slug, ref)
		}
	}
}

// DraftID returns the id of the draft being edited, or nil for a new record.
func (s *Session) DraftID() *uuid.UUID { return s.draftID }

func (s *Session) CurrentStep() int { return s.current }

func (s *Session) TotalSteps() int {
	return s.form.TotalSteps(s.fields.String(s.form.CategoryKey))
}

// Submitting reports whether a submission round trip is outstanding; hosts
// must disable next/back/cancel while it is true.
func (s *Session) Submitting() bool { return s.submitting }

func (s *Session) Closed() bool { return s.closed }

// Fields returns a copy of the collected answers.
func (s *Session) Fields() Fields { return s.fields.Clone() }

func (s *Session) Field(key string) any { return s.fields[key] }

// Errors returns a copy of the current error map.
func (s *Session) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Requirements resolves the document requirement list for the currently
// selected category and sub-status.
func (s *Session) Requirements() []Requirement {
	return s.form.Requirements.Resolve(
		s.fields.String(s.form.CategoryKey),
		s.fields.String(s.form.SubStatusKey),
	)
}

// Documents returns the slot for every currently applicable requirement, in
// requirement order.
func (s *Session) Documents() []Slot {
	reqs := s.Requirements()
	out := make([]Slot, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, s.slots.Get(r.Slug))
	}
	return out
}

// SetField records a field edit and clears any error attached to that key.
// Changing the category or sub-status re-resolves the requirement list and
// drops staged or persisted documents whose slugs no longer apply.
func (s *Session) SetField(key string, value any) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.fields[key] = value
	delete(s.errors, key)
	if key == s.form.CategoryKey || key == s.form.SubStatusKey {
		s.slots.Prune(s.Requirements())
		if total := s.TotalSteps(); total > 0 && s.current > total {
			s.current = total
		}
	}
	return nil
}

// StageDocument places a new file into the slug's slot, replacing any staged
// file or persisted reference, and clears the slug's error.
func (s *Session) StageDocument(slug string, f *StagedFile) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.slots.Stage(slug, f)
	delete(s.errors, slug)
	return nil
}

// RemoveDocument empties the slug's slot and clears the slug's error.
func (s *Session) RemoveDocument(slug string) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.slots.Remove(slug)
	delete(s.errors, slug)
	return nil
}

// Document returns the current slot for a slug.
func (s *Session) Document(slug string) Slot { return s.slots.Get(slug) }

// Next validates the current step and advances when the step passes. On
// failure the error map is replaced with the validator's messages and the
// step does not change. Returns true when the step advanced.
func (s *Session) Next() (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	errs := s.validateStep(s.current)
	if len(errs) > 0 {
		s.errors = errs
		return false, nil
	}
	s.errors = make(map[string]string)
	if s.current < s.TotalSteps() {
		s.current++
	}
	return true, nil
}

// Back moves one step backward without validation.
func (s *Session) Back() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.current > 1 {
		s.current--
	}
	return nil
}

// JumpToStep moves backward to a previously visited step without validation.
// Forward jumps are not exposed.
func (s *Session) JumpToStep(k int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if k < 1 || k > s.current {
		return fmt.Errorf("cannot jump forward to step %d from step %d", k, s.current)
	}
	s.current = k
	return nil
}

// Reset discards fields, errors and documents and returns to step 1. It is
// the only operation that discards user input, and it is idempotent.
func (s *Session) Reset() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.fields = make(Fields)
	s.errors = make(map[string]string)
	s.slots.Reset()
	s.current = 1
	return nil
}

// validateStep runs the validator for the 1-based step index. A panicking
// validator is downgraded to a single generic step-level error so the
// session stays interactive.
func (s *Session) validateStep(index int) (errs map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			errs = map[string]string{StepErrorKey: "validation could not be completed, please try again"}
		}
	}()

	steps := s.form.StepsFor(s.fields.String(s.form.CategoryKey))
	if index < 1 || index > len(steps) {
		return map[string]string{}
	}
	return steps[index-1].validate(s.fields, s.slots, s.Requirements(), s.form.Policy)
}

// validateAll re-runs every step's validator and merges the results. Used by
// the reconciler to defend against state corrupted by back-navigation.
func (s *Session) validateAll() map[string]string {
	merged := make(map[string]string)
	total := s.TotalSteps()
	for i := 1; i <= total; i++ {
		for k, msg := range s.validateStep(i) {
			if _, dup := merged[k]; !dup {
				merged[k] = msg
			}
		}
	}
	return merged
}

func (s *Session) guard() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (s *Session) beginSubmit() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.submitting = true
	return nil
}

func (s *Session) endSubmit(succeeded bool) {
	s.submitting = false
	if succeeded {
		s.closed = true
	}
}
