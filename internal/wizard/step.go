package wizard

// Step pairs one wizard step with the fields and documents it validates.
// Steps are held as an ordered sequence on the form definition and selected
// by index; the document step is the one with Documents set.
type Step struct {
	Name      string
	Title     string
	Fields    []FieldRule
	Documents bool
	// Check runs after the declarative rules and may add or override error
	// messages. Optional; used for cross-field constraints.
	Check func(fields Fields) map[string]string
}

// Fields is the session's collected answers keyed by stable field identifier.
// Values are strings, booleans, numbers or nil.
type Fields map[string]any

// Clone returns a shallow copy of the field record.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the trimmed string form of a field, or "" when absent.
func (f Fields) String(key string) string {
	s, _ := stringValue(f[key])
	return s
}

// Bool reports whether a field holds true (either a bool or "true").
func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Number parses a field as float64; absent or malformed values yield 0.
func (f Fields) Number(key string) float64 {
	n, err := parseNumber(f[key])
	if err != nil {
		return 0
	}
	return n
}

// validate runs the step's declarative rules, the document completeness and
// file-policy checks when this is the document step, and the optional Check
// hook. The returned map is empty (non-nil) when the step passes.
func (st Step) validate(fields Fields, slots *SlotStore, reqs []Requirement, policy FilePolicy) map[string]string {
	errs := make(map[string]string)

	for _, rule := range st.Fields {
		if msg := rule.Validate(fields[rule.Key]); msg != "" {
			errs[rule.Key] = msg
		}
	}

	if st.Documents {
		for _, req := range reqs {
			slot := slots.Get(req.Slug)
			switch slot.State {
			case SlotEmpty:
				if req.Required {
					errs[req.Slug] = req.Label + " is required"
				}
			case SlotStaged:
				if msg := policy.Check(slot.Staged); msg != "" {
					errs[req.Slug] = msg
				}
			}
		}
	}

	if st.Check != nil {
		for k, msg := range st.Check(fields) {
			errs[k] = msg
		}
	}

	return errs
}
