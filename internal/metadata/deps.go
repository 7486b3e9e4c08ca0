package metadata

import (
	"context"
	"strings"

	"entrykit/internal/validation"
)

// UniqueQuery asks whether another record already uses a value.
type UniqueQuery struct {
	Attribute   string
	Value       string
	ExcludingID *int
	Scope       string
}

// UniquenessChecker looks up existing entry types. The backing store owns
// case sensitivity and must also enforce the constraint itself.
type UniquenessChecker interface {
	Exists(ctx context.Context, q UniqueQuery) (bool, error)
}

// URLBuilder turns a control-panel path into an absolute URL.
type URLBuilder interface {
	CPURL(path string) string
}

// CPURLBuilder joins paths onto the control-panel base URL and trigger.
type CPURLBuilder struct {
	BaseURL string
	Trigger string
}

func (b CPURLBuilder) CPURL(path string) string {
	parts := []string{strings.TrimRight(b.BaseURL, "/")}
	if t := strings.Trim(b.Trigger, "/"); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, strings.TrimLeft(path, "/"))
	return strings.Join(parts, "/")
}

// Deps are the collaborators an entry type needs to validate and describe
// itself.
type Deps struct {
	Unique     UniquenessChecker
	URLs       URLBuilder
	Translator validation.Translator
	// Scope partitions uniqueness checks; empty means global.
	Scope string
}

func (d Deps) translator() validation.Translator {
	if d.Translator == nil {
		return validation.DefaultTranslator()
	}
	return d.Translator
}

func (d Deps) urls() URLBuilder {
	if d.URLs == nil {
		return CPURLBuilder{Trigger: "admin"}
	}
	return d.URLs
}

// NewEntryType returns an empty entry type bound to these collaborators.
func (d Deps) NewEntryType() *EntryType {
	return NewEntryType(d)
}
