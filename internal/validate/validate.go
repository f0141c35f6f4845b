// Package validate holds the field-shape checks shared by every edge function.
//
// Checks never panic on bad input. They return a *FieldError (nil when the value
// is accepted) whose Response method renders the 400 the handler should return.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"edge-gateway/internal/httpapi"

	"github.com/google/uuid"
)

var (
	ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// FieldError describes a rejected field. Message is safe to return to clients.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Response renders the error as a function-dialect 400.
func (e *FieldError) Response() httpapi.Response {
	return httpapi.Error(e.Message, http.StatusBadRequest)
}

func errorf(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func required(field string) *FieldError {
	return errorf(field, "%s is required", field)
}

// IsULID reports whether s is 26 Crockford base32 characters.
func IsULID(s string) bool { return ulidPattern.MatchString(s) }

// IsUUID reports whether s has the 8-4-4-4-12 hex shape, case-insensitive.
// uuid.Validate also accepts urn/braced forms, so the shape is matched first.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s) && uuid.Validate(s) == nil
}

// IsSlug reports whether s is a lowercase slug.
func IsSlug(s string) bool { return slugPattern.MatchString(s) }

func present(body map[string]any, field string) (any, bool) {
	v, ok := body[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// RequireString returns a string field that is non-empty after trimming.
func RequireString(body map[string]any, field string) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", required(field)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", required(field)
	}
	return s, nil
}

// OptionalString returns a string field of at most max characters, or "" when absent.
func OptionalString(body map[string]any, field string, max int) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errorf(field, "%s must be a string", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", errorf(field, "%s must be at most %d characters", field, max)
	}
	return s, nil
}

// TrimmedLength requires a string whose trimmed length is within [min, max]
// and returns the trimmed value.
func TrimmedLength(body map[string]any, field string, min, max int) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", required(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", errorf(field, "%s must be a string", field)
	}
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < min || n > max {
		return "", errorf(field, "%s must be %d-%d characters", field, min, max)
	}
	return s, nil
}

// RequireULID returns a required ULID field.
func RequireULID(body map[string]any, field string) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", required(field)
	}
	s, ok := v.(string)
	if !ok || !IsULID(s) {
		return "", errorf(field, "%s must be a valid ULID", field)
	}
	return s, nil
}

// OptionalULID returns a ULID field, or "" when absent.
func OptionalULID(body map[string]any, field string) (string, *FieldError) {
	if _, ok := present(body, field); !ok {
		return "", nil
	}
	return RequireULID(body, field)
}

// RequireUUID returns a required UUID field.
func RequireUUID(body map[string]any, field string) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", required(field)
	}
	s, ok := v.(string)
	if !ok || !IsUUID(s) {
		return "", errorf(field, "%s must be a valid UUID", field)
	}
	return s, nil
}

// OptionalUUID returns a UUID field, or "" when absent.
func OptionalUUID(body map[string]any, field string) (string, *FieldError) {
	if _, ok := present(body, field); !ok {
		return "", nil
	}
	return RequireUUID(body, field)
}

// RequireIntRange returns an integer field within [min, max].
func RequireIntRange(body map[string]any, field string, min, max int) (int, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return 0, required(field)
	}
	n, ok := AsInt(v)
	if !ok || n < min || n > max {
		return 0, errorf(field, "%s must be an integer between %d and %d", field, min, max)
	}
	return n, nil
}

// OptionalIntRange is RequireIntRange with a default for absent fields.
func OptionalIntRange(body map[string]any, field string, min, max, def int) (int, *FieldError) {
	if _, ok := present(body, field); !ok {
		return def, nil
	}
	return RequireIntRange(body, field, min, max)
}

// RequireBool returns a required boolean field.
func RequireBool(body map[string]any, field string) (bool, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return false, required(field)
	}
	b, ok := v.(bool)
	if !ok {
		return false, errorf(field, "%s must be a boolean", field)
	}
	return b, nil
}

// OptionalBool returns a boolean field, or def when absent.
func OptionalBool(body map[string]any, field string, def bool) (bool, *FieldError) {
	if _, ok := present(body, field); !ok {
		return def, nil
	}
	return RequireBool(body, field)
}

// Enum requires a string field whose value is one of allowed.
func Enum(body map[string]any, field string, allowed ...string) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", required(field)
	}
	s, _ := v.(string)
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errorf(field, "%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// OptionalSlug returns a lowercase slug of at most max characters, or "" when absent.
func OptionalSlug(body map[string]any, field string, max int) (string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok || len(s) > max || !IsSlug(s) {
		return "", errorf(field, "%s must be a lowercase slug (a-z, 0-9, _ or -) of at most %d characters", field, max)
	}
	return s, nil
}

// ULIDBatch requires an array of 1..max ULIDs. The first invalid entry is named in the error.
func ULIDBatch(body map[string]any, field string, max int) ([]string, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return nil, required(field)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 || len(arr) > max {
		return nil, errorf(field, "%s must be an array of 1-%d ids", field, max)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok || !IsULID(s) {
			return nil, errorf(field, "Invalid id in %s: %v", field, e)
		}
		out = append(out, s)
	}
	return out, nil
}

// RequireObject returns a required JSON object field.
func RequireObject(body map[string]any, field string) (map[string]any, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return nil, errorf(field, "%s object is required", field)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errorf(field, "%s object is required", field)
	}
	return m, nil
}

// RequireArray returns an array field of at most max entries.
func RequireArray(body map[string]any, field string, max int) ([]any, *FieldError) {
	v, ok := present(body, field)
	if !ok {
		return nil, errorf(field, "%s must be an array", field)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, errorf(field, "%s must be an array", field)
	}
	if len(arr) > max {
		return nil, errorf(field, "%s exceeds limit of %d entries", field, max)
	}
	return arr, nil
}

// AsInt converts a decoded JSON number to int, rejecting fractions and non-numbers.
// Integral values written with a fraction or exponent are accepted.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			if i > math.MaxInt32 || i < math.MinInt32 {
				return 0, false
			}
			return int(i), true
		}
		// "6.0" and "6e0" are integers too.
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return AsInt(f)
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
