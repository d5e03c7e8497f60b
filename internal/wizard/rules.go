package wizard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldKind selects the format constraint applied to a field value after the
// required-presence check.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindMobile
	KindLandline
	KindNumeric
	KindCode // fixed-length numeric code, length in FieldRule.Length
	KindBool
	KindChoice // value must be one of FieldRule.Choices
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	mobilePattern   = regexp.MustCompile(`^(\+?63|0)9\d{9}$`)
	landlinePattern = regexp.MustCompile(`^(\(0\d{1,2}\)|0\d{1,2})[\s\-]?\d{3}[\s\-]?\d{4}$`)
	codePattern     = regexp.MustCompile(`^\d+$`)
)

// FieldRule declares one field of a wizard step: its stable key, the label
// used in error messages, and its constraints.
type FieldRule struct {
	Key      string
	Label    string
	Required bool
	Kind     FieldKind
	Min      float64 // KindNumeric lower bound, inclusive (ignored when Min == Max == 0)
	Max      float64 // KindNumeric upper bound, inclusive
	Length   int     // KindCode exact digit count
	Choices  []string
}

// Validate checks a single value against the rule and returns an error
// message, or "" when the value passes.
func (r FieldRule) Validate(v any) string {
	s, present := stringValue(v)
	if !present {
		if r.Required {
			return r.Label + " is required"
		}
		return ""
	}

	switch r.Kind {
	case KindEmail:
		if !emailPattern.MatchString(s) {
			return r.Label + " must be a valid email address"
		}
	case KindMobile:
		if !mobilePattern.MatchString(strings.ReplaceAll(s, " ", "")) {
			return r.Label + " must be a valid mobile number"
		}
	case KindLandline:
		if !landlinePattern.MatchString(s) {
			return r.Label + " must be a valid landline number"
		}
	case KindNumeric:
		n, err := parseNumber(v)
		if err != nil {
			return r.Label + " must be a number"
		}
		if r.Min != 0 || r.Max != 0 {
			if n < r.Min || n > r.Max {
				return fmt.Sprintf("%s must be between %g and %g", r.Label, r.Min, r.Max)
			}
		}
	case KindCode:
		if !codePattern.MatchString(s) || len(s) != r.Length {
			return fmt.Sprintf("%s must be a %d-digit code", r.Label, r.Length)
		}
	case KindChoice:
		for _, c := range r.Choices {
			if s == c {
				return ""
			}
		}
		return r.Label + " must be one of: " + strings.Join(r.Choices, ", ")
	case KindBool:
		switch v.(type) {
		case bool:
		default:
			if s != "true" && s != "false" {
				return r.Label + " must be true or false"
			}
		}
	}
	return ""
}

// stringValue normalizes a field value to its string form and reports whether
// the value counts as present. nil, "" and whitespace-only strings are absent;
// booleans and numbers are always present.
func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

func parseNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// FilePolicy bounds staged files on the document step. MIME types matching any
// denied prefix are rejected regardless of size.
type FilePolicy struct {
	MaxBytes           int64
	DeniedMIMEPrefixes []string
}

// DefaultFilePolicy matches the upload limits enforced by the hosted forms:
// 10 MB per document, no executables or archives.
var DefaultFilePolicy = FilePolicy{
	MaxBytes:           10 << 20,
	DeniedMIMEPrefixes: []string{"application/x-msdownload", "application/x-executable", "application/zip", "application/x-7z", "application/x-rar"},
}

// Check validates a staged file against the policy and returns an error
// message, or "" when the file is acceptable.
func (p FilePolicy) Check(f *StagedFile) string {
	if f == nil {
		return ""
	}
	if p.MaxBytes > 0 && f.Size > p.MaxBytes {
		return fmt.Sprintf("file exceeds the maximum size of %d MB", p.MaxBytes>>20)
	}
	for _, prefix := range p.DeniedMIMEPrefixes {
		if strings.HasPrefix(f.MIMEType, prefix) {
			return "file type is not allowed"
		}
	}
	return ""
}
