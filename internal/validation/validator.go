package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const categoryApp = "app"

var handlePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Validator accumulates rule violations. Every check runs; nothing
// short-circuits.
type Validator struct {
	t    Translator
	errs Errors
}

func New(t Translator) *Validator {
	if t == nil {
		t = DefaultTranslator()
	}
	return &Validator{t: t, errs: Errors{}}
}

// Errors returns the accumulated errors.
func (v *Validator) Errors() Errors {
	return v.errs
}

// Translator returns the translator used for messages.
func (v *Validator) Translator() Translator {
	return v.t
}

// AddError translates a message and records it on the attribute.
func (v *Validator) AddError(attribute, message string, params map[string]string) {
	v.errs.Add(attribute, v.t.T(categoryApp, message, params))
}

// Merge unions nested errors under a slot.
func (v *Validator) Merge(slot string, other Errors) {
	v.errs.Merge(slot, other)
}

// Integer checks that a raw attribute input is an integer. Nil passes.
func (v *Validator) Integer(attribute, label string, raw any) bool {
	if raw == nil || IsInteger(raw) {
		return true
	}
	v.AddError(attribute, "{attribute} must be an integer.", map[string]string{"attribute": label})
	return false
}

// Required checks that a trimmed value is non-empty.
func (v *Validator) Required(attribute, label, value string) bool {
	if strings.TrimSpace(value) != "" {
		return true
	}
	v.AddError(attribute, "{attribute} cannot be blank.", map[string]string{"attribute": label})
	return false
}

// MaxLength checks the character count of a non-empty value.
func (v *Validator) MaxLength(attribute, label, value string, max int) bool {
	if value == "" || utf8.RuneCountInString(value) <= max {
		return true
	}
	v.AddError(attribute, "{attribute} should contain at most {max} characters.", map[string]string{
		"attribute": label,
		"max":       strconv.Itoa(max),
	})
	return false
}

// Handle checks a non-empty value is a machine-safe handle and not one of
// the reserved words (compared case-insensitively).
func (v *Validator) Handle(attribute, label, value string, reserved []string) bool {
	if value == "" {
		return true
	}
	ok := true
	if !handlePattern.MatchString(value) {
		v.AddError(attribute, "“{attribute}” isn’t a valid handle.", map[string]string{"attribute": label})
		ok = false
	}
	if IsReserved(value, reserved) {
		v.AddError(attribute, "“{handle}” is a reserved word.", map[string]string{"handle": value})
		ok = false
	}
	return ok
}

// In checks that a non-empty value is one of the allowed values.
func (v *Validator) In(attribute, label, value string, allowed []string) bool {
	if value == "" {
		return true
	}
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	v.AddError(attribute, "{attribute} is invalid.", map[string]string{"attribute": label})
	return false
}

// Unique records a "has already been taken" error when taken is true.
func (v *Validator) Unique(attribute, label, value string, taken bool) bool {
	if !taken {
		return true
	}
	v.AddError(attribute, `{attribute} "{value}" has already been taken.`, map[string]string{
		"attribute": label,
		"value":     value,
	})
	return false
}

// IsHandle reports whether s matches the handle pattern.
func IsHandle(s string) bool {
	return handlePattern.MatchString(s)
}

// IsReserved reports whether s is one of the reserved words, ignoring case.
func IsReserved(s string, reserved []string) bool {
	lower := strings.ToLower(s)
	for _, w := range reserved {
		if strings.ToLower(w) == lower {
			return true
		}
	}
	return false
}

// IsInteger reports whether a loosely-typed value holds an integer.
func IsInteger(raw any) bool {
	switch n := raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int64(n))
	case string:
		_, err := strconv.Atoi(strings.TrimSpace(n))
		return err == nil
	}
	return false
}
