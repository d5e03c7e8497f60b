package wizard

import (
	"strings"
	"unicode"
)

// Requirement is a single supporting-document requirement resolved for a
// (category, sub-status) pair. Slugs are assigned by hand in the form tables;
// Slugify exists to derive them consistently when a table is first written.
type Requirement struct {
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// RequirementKey groups requirements under a category and, where the category
// distinguishes them, a sub-status (e.g. new vs renewal). SubStatus may be
// empty for categories whose requirement list does not depend on it.
type RequirementKey struct {
	Category  string
	SubStatus string
}

// RequirementSet maps requirement keys to their ordered requirement lists.
type RequirementSet map[RequirementKey][]Requirement

// Resolve returns the requirement list for the given category and sub-status.
// Lookup tries the exact (category, subStatus) key first, then falls back to
// (category, "") for categories that ignore sub-status. Unknown categories
// resolve to an empty list, never an error. The returned slice is a copy.
func (s RequirementSet) Resolve(category, subStatus string) []Requirement {
	reqs, ok := s[RequirementKey{Category: category, SubStatus: subStatus}]
	if !ok {
		reqs = s[RequirementKey{Category: category}]
	}
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	return out
}

// Slugify lowercases a label and strips every non-alphanumeric rune, joining
// words with underscores. "Fire Insurance Policy (photocopy)" becomes
// "fire_insurance_policy_photocopy".
func Slugify(label string) string {
	var b strings.Builder
	lastUnderscore := true // suppress a leading underscore
	for _, r := range strings.ToLower(label) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
