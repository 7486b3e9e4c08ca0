package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"entrykit/internal/titleformat"
	"entrykit/internal/validation"
)

// ElementTypeEntry is the element type entry type field layouts apply to.
const ElementTypeEntry = "entry"

// KindEntryType is the string form of an entry type without a handle.
const KindEntryType = "entryType"

const maxLength = 255

// ReservedHandles can't be used as entry type handles.
var ReservedHandles = []string{"id", "dateCreated", "dateUpdated", "uid", "title"}

// ReservedFieldHandles can't be used by fields in an entry type's layout.
var ReservedFieldHandles = []string{"author", "section", "type"}

// ErrNoUniquenessChecker is returned by Validate when no store was wired in.
var ErrNoUniquenessChecker = errors.New("entry type: no uniqueness checker configured")

var attributeLabels = map[string]string{
	"id":                        "ID",
	"fieldLayoutId":             "Field Layout ID",
	"handle":                    "Handle",
	"name":                      "Name",
	"titleFormat":               "Title Format",
	"titleTranslationMethod":    "Title Translation Method",
	"titleTranslationKeyFormat": "Title Translation Key Format",
}

// EntryType is a named schema for a class of entries: its field layout and
// how entry titles are produced.
type EntryType struct {
	ID                        *int              `json:"id"`
	FieldLayoutID             *int              `json:"fieldLayoutId"`
	Name                      string            `json:"name"`
	Handle                    string            `json:"handle"`
	HasTitleField             bool              `json:"hasTitleField"`
	TitleTranslationMethod    TranslationMethod `json:"titleTranslationMethod"`
	TitleTranslationKeyFormat string            `json:"titleTranslationKeyFormat,omitempty"`
	TitleFormat               string            `json:"titleFormat,omitempty"`
	UID                       string            `json:"uid,omitempty"`

	fieldLayout *FieldLayout
	deps        Deps

	// raw id inputs that could not be coerced to integers
	rawID            any
	rawFieldLayoutID any
}

// Attributes is a partial update. Nil fields are left unchanged. IDs are
// loosely typed so integer validation can report bad input.
type Attributes struct {
	ID                        any          `json:"id,omitempty"`
	FieldLayoutID             any          `json:"fieldLayoutId,omitempty"`
	Name                      *string      `json:"name,omitempty"`
	Handle                    *string      `json:"handle,omitempty"`
	HasTitleField             *bool        `json:"hasTitleField,omitempty"`
	TitleTranslationMethod    *string      `json:"titleTranslationMethod,omitempty"`
	TitleTranslationKeyFormat *string      `json:"titleTranslationKeyFormat,omitempty"`
	TitleFormat               *string      `json:"titleFormat,omitempty"`
	UID                       *string      `json:"uid,omitempty"`
	FieldLayout               *FieldLayout `json:"fieldLayout,omitempty"`
}

// ConfigSnapshot is the storage- and identity-free form of an entry type.
type ConfigSnapshot map[string]any

// NewEntryType returns an entry type with default settings.
func NewEntryType(deps Deps) *EntryType {
	return &EntryType{
		HasTitleField:          true,
		TitleTranslationMethod: TranslationSite,
		deps:                   deps,
	}
}

// SetAttributes assigns every non-nil attribute. It does not validate.
func (e *EntryType) SetAttributes(a Attributes) {
	if a.ID != nil {
		e.ID, e.rawID = coerceID(a.ID)
	}
	if a.FieldLayoutID != nil {
		e.FieldLayoutID, e.rawFieldLayoutID = coerceID(a.FieldLayoutID)
	}
	if a.Name != nil {
		e.Name = *a.Name
	}
	if a.Handle != nil {
		e.Handle = *a.Handle
	}
	if a.HasTitleField != nil {
		e.HasTitleField = *a.HasTitleField
	}
	if a.TitleTranslationMethod != nil {
		e.TitleTranslationMethod = TranslationMethod(*a.TitleTranslationMethod)
	}
	if a.TitleTranslationKeyFormat != nil {
		e.TitleTranslationKeyFormat = *a.TitleTranslationKeyFormat
	}
	if a.TitleFormat != nil {
		e.TitleFormat = *a.TitleFormat
	}
	if a.UID != nil {
		e.UID = *a.UID
	}
	if a.FieldLayout != nil {
		e.SetFieldLayout(a.FieldLayout)
	}
}

// Attributes returns every attribute, suitable for SetAttributes on another
// entry type.
func (e *EntryType) Attributes() Attributes {
	method := string(e.TitleTranslationMethod)
	a := Attributes{
		Name:                      &e.Name,
		Handle:                    &e.Handle,
		HasTitleField:             &e.HasTitleField,
		TitleTranslationMethod:    &method,
		TitleTranslationKeyFormat: &e.TitleTranslationKeyFormat,
		TitleFormat:               &e.TitleFormat,
		UID:                       &e.UID,
		FieldLayout:               e.fieldLayout.Clone(),
	}
	if e.ID != nil {
		a.ID = *e.ID
	}
	if e.FieldLayoutID != nil {
		a.FieldLayoutID = *e.FieldLayoutID
	}
	return a
}

// Clone copies the entry type, binding the copy to deps.
func (e *EntryType) Clone(deps Deps) *EntryType {
	cp := NewEntryType(deps)
	cp.SetAttributes(e.Attributes())
	cp.rawID = e.rawID
	cp.rawFieldLayoutID = e.rawFieldLayoutID
	return cp
}

// FieldLayout returns the owned layout, creating an empty one on first use.
func (e *EntryType) FieldLayout() *FieldLayout {
	if e.fieldLayout == nil {
		e.fieldLayout = NewFieldLayout(ElementTypeEntry)
		if e.FieldLayoutID != nil {
			id := *e.FieldLayoutID
			e.fieldLayout.ID = &id
		}
	}
	return e.fieldLayout
}

// SetFieldLayout replaces the owned layout.
func (e *EntryType) SetFieldLayout(l *FieldLayout) {
	if l.Type == "" {
		l.Type = ElementTypeEntry
	}
	e.fieldLayout = l
	if l.ID != nil {
		id := *l.ID
		e.FieldLayoutID = &id
	}
}

// Validate runs every rule and returns the violations by attribute.
// The error is only for failures reaching the uniqueness store, or
// ErrNoUniquenessChecker when a name or handle is set but no checker is wired.
func (e *EntryType) Validate(ctx context.Context) (validation.Errors, error) {
	if e.deps.Unique == nil && (e.Name != "" || e.Handle != "") {
		return nil, ErrNoUniquenessChecker
	}
	v := validation.New(e.deps.translator())

	v.Integer("id", label("id"), e.rawID)
	v.Integer("fieldLayoutId", label("fieldLayoutId"), e.rawFieldLayoutID)

	v.Required("name", label("name"), e.Name)
	v.Required("handle", label("handle"), e.Handle)

	v.MaxLength("name", label("name"), e.Name, maxLength)
	v.MaxLength("handle", label("handle"), e.Handle, maxLength)

	v.Handle("handle", label("handle"), e.Handle, ReservedHandles)

	for _, attr := range []string{"name", "handle"} {
		value := e.Name
		if attr == "handle" {
			value = e.Handle
		}
		if value == "" {
			continue
		}
		taken, err := e.deps.Unique.Exists(ctx, UniqueQuery{
			Attribute:   attr,
			Value:       value,
			ExcludingID: e.ID,
			Scope:       e.deps.Scope,
		})
		if err != nil {
			return nil, fmt.Errorf("check unique %s: %w", attr, err)
		}
		v.Unique(attr, label(attr), value, taken)
	}

	if !e.HasTitleField {
		v.Required("titleFormat", label("titleFormat"), e.TitleFormat)
	}
	e.validateFormats(v)

	e.validateFieldLayout(v)

	return v.Errors(), nil
}

func (e *EntryType) validateFormats(v *validation.Validator) {
	v.In("titleTranslationMethod", label("titleTranslationMethod"), string(e.TitleTranslationMethod), methodNames())

	if e.TitleFormat != "" {
		if _, err := titleformat.Compile(e.TitleFormat); err != nil {
			v.AddError("titleFormat", "{attribute} is not a valid format: {error}", map[string]string{
				"attribute": label("titleFormat"),
				"error":     err.Error(),
			})
		}
	}
	if e.TitleTranslationMethod == TranslationCustom && e.TitleTranslationKeyFormat != "" {
		if _, err := titleformat.Compile(e.TitleTranslationKeyFormat); err != nil {
			v.AddError("titleTranslationKeyFormat", "{attribute} is not a valid format: {error}", map[string]string{
				"attribute": label("titleTranslationKeyFormat"),
				"error":     err.Error(),
			})
		}
	}
}

// validateFieldLayout validates the owned layout with the entry-level
// reserved field handles and folds its errors into "fieldLayout".
func (e *EntryType) validateFieldLayout(v *validation.Validator) {
	layout := e.FieldLayout()
	layout.ReservedFieldHandles = append([]string(nil), ReservedFieldHandles...)

	if errs := layout.Validate(v.Translator()); errs.HasErrors() {
		v.Merge("fieldLayout", errs)
	}
}

// Config returns the portable config snapshot used for project config sync.
func (e *EntryType) Config() ConfigSnapshot {
	cfg := ConfigSnapshot{
		"name":                      e.Name,
		"handle":                    e.Handle,
		"hasTitleField":             e.HasTitleField,
		"titleTranslationMethod":    string(e.TitleTranslationMethod),
		"titleTranslationKeyFormat": nilIfEmpty(e.TitleTranslationKeyFormat),
		"titleFormat":               nilIfEmpty(e.TitleFormat),
	}

	// read the layout without FieldLayout() so shared registry entries stay untouched
	if layout := e.fieldLayout; layout != nil {
		if layoutCfg := layout.Config(); len(layoutCfg) > 0 {
			cfg["fieldLayouts"] = map[string]any{
				layout.UID: layoutCfg,
			}
		}
	}
	return cfg
}

// String returns the handle, or the kind name when there is none.
func (e *EntryType) String() string {
	if e.Handle != "" {
		return e.Handle
	}
	return KindEntryType
}

// EditURL returns the control-panel URL for editing this entry type.
func (e *EntryType) EditURL() string {
	id := "new"
	if e.ID != nil {
		id = strconv.Itoa(*e.ID)
	}
	return e.deps.urls().CPURL("settings/entry-types/" + id)
}

// RenderTitle returns an entry's title: the submitted title when the type
// has a title field, otherwise the title format rendered against the entry.
func (e *EntryType) RenderTitle(record map[string]any) (string, error) {
	if e.HasTitleField {
		title, _ := record["title"].(string)
		return strings.TrimSpace(title), nil
	}
	env := make(map[string]any, len(record)+1)
	for k, v := range record {
		env[k] = v
	}
	env["type"] = map[string]any{"name": e.Name, "handle": e.Handle}
	title, err := titleformat.Render(e.TitleFormat, env)
	if err != nil {
		return "", fmt.Errorf("render title for %s: %w", e, err)
	}
	return title, nil
}

// TitleTranslationKey returns the translation key of an entry's title on
// the given site.
func (e *EntryType) TitleTranslationKey(site Site, record map[string]any) (string, error) {
	return TranslationKey(e.TitleTranslationMethod, e.TitleTranslationKeyFormat, site, record)
}

func label(attr string) string {
	if l, ok := attributeLabels[attr]; ok {
		return l
	}
	return attr
}

func methodNames() []string {
	names := make([]string, len(TranslationMethods))
	for i, m := range TranslationMethods {
		names[i] = string(m)
	}
	return names
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// coerceID converts a loosely-typed id. Values that are not integers come
// back as the raw input so validation can report them.
func coerceID(raw any) (*int, any) {
	switch n := raw.(type) {
	case int:
		return &n, nil
	case int64:
		i := int(n)
		return &i, nil
	case int32:
		i := int(n)
		return &i, nil
	case float64:
		if n == float64(int64(n)) {
			i := int(n)
			return &i, nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i, nil
		}
	}
	return nil, raw
}
