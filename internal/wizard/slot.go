package wizard

// SlotState describes what a document slot currently holds.
type SlotState string

const (
	SlotEmpty     SlotState = "EMPTY"
	SlotStaged    SlotState = "STAGED"
	SlotPersisted SlotState = "PERSISTED"
)

// StagedFile is a file the user has picked but that has not been uploaded yet.
// Uploads are deferred to submission time, so the content is held in memory
// for the lifetime of the session.
type StagedFile struct {
	Name     string
	Size     int64
	MIMEType string
	Content  []byte
}

// Slot tracks one requirement slug's document. A slot is never simultaneously
// staged and persisted: staging over a persisted reference replaces it.
type Slot struct {
	Slug   string    `json:"slug"`
	State  SlotState `json:"state"`
	Staged *StagedFile
	Ref    string `json:"ref,omitempty"`
}

// SlotStore holds the document slots of one wizard session. It is owned by a
// single session and is not safe for concurrent use on its own.
type SlotStore struct {
	slots map[string]*Slot
}

func NewSlotStore() *SlotStore {
	return &SlotStore{slots: make(map[string]*Slot)}
}

// Stage places a newly chosen file into the slug's slot. Any previously
// staged file or persisted reference is discarded (replace semantics).
func (st *SlotStore) Stage(slug string, f *StagedFile) {
	st.slots[slug] = &Slot{Slug: slug, State: SlotStaged, Staged: f}
}

// SetPersisted records an already-persisted reference for the slug, used when
// a session is opened against an existing draft.
func (st *SlotStore) SetPersisted(slug, ref string) {
	st.slots[slug] = &Slot{Slug: slug, State: SlotPersisted, Ref: ref}
}

// Remove empties the slug's slot, whether it held a staged file or a
// persisted reference.
func (st *SlotStore) Remove(slug string) {
	delete(st.slots, slug)
}

// Get returns the slot for the slug. Slugs that were never touched report an
// empty slot.
func (st *SlotStore) Get(slug string) Slot {
	if s, ok := st.slots[slug]; ok {
		return *s
	}
	return Slot{Slug: slug, State: SlotEmpty}
}

// Prune drops every slot whose slug is not in the given requirement list.
// Called when the category or sub-status selection changes so that files
// staged for requirements that no longer apply are discarded, not kept.
func (st *SlotStore) Prune(reqs []Requirement) {
	valid := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		valid[r.Slug] = true
	}
	for slug := range st.slots {
		if !valid[slug] {
			delete(st.slots, slug)
		}
	}
}

// Snapshot returns a copy of every non-empty slot keyed by slug.
func (st *SlotStore) Snapshot() map[string]Slot {
	out := make(map[string]Slot, len(st.slots))
	for slug, s := range st.slots {
		out[slug] = *s
	}
	return out
}

// Reset empties the store.
func (st *SlotStore) Reset() {
	st.slots = make(map[string]*Slot)
}
