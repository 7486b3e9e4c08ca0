package metadata

import (
	"github.com/google/uuid"

	"entrykit/internal/validation"
)

// Field layout element types.
const (
	ElementCustomField = "custom"
	ElementTitleField  = "title"
	ElementHeading     = "heading"
)

type FieldLayoutElement struct {
	Type        string `json:"type"`
	UID         string `json:"uid,omitempty"`
	FieldHandle string `json:"fieldHandle,omitempty"` // custom fields only
	Label       string `json:"label,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Width       int    `json:"width,omitempty"` // percent, 0 means full width
}

type FieldLayoutTab struct {
	Name     string               `json:"name"`
	UID      string               `json:"uid,omitempty"`
	Elements []FieldLayoutElement `json:"elements"`
}

// FieldLayout is an ordered arrangement of tabs and fields owned by an
// entry type.
type FieldLayout struct {
	ID   *int             `json:"id,omitempty"`
	UID  string           `json:"uid"`
	Type string           `json:"type"` // element type the layout applies to
	Tabs []FieldLayoutTab `json:"tabs"`

	// ReservedFieldHandles are set by the owner before validating.
	ReservedFieldHandles []string `json:"-"`
}

// NewFieldLayout returns an empty layout with a fresh UID.
func NewFieldLayout(elementType string) *FieldLayout {
	return &FieldLayout{
		UID:  uuid.NewString(),
		Type: elementType,
	}
}

// AddTab appends a tab, assigning UIDs to the tab and its elements.
func (l *FieldLayout) AddTab(name string, elements ...FieldLayoutElement) *FieldLayout {
	tab := FieldLayoutTab{Name: name, Elements: elements}
	l.Tabs = append(l.Tabs, tab)
	l.EnsureUIDs()
	return l
}

// CustomFields returns the custom field elements in layout order.
func (l *FieldLayout) CustomFields() []FieldLayoutElement {
	var fields []FieldLayoutElement
	for _, tab := range l.Tabs {
		for _, el := range tab.Elements {
			if el.Type == ElementCustomField {
				fields = append(fields, el)
			}
		}
	}
	return fields
}

// HasElement reports whether any tab contains an element of the given type.
func (l *FieldLayout) HasElement(elementType string) bool {
	for _, tab := range l.Tabs {
		for _, el := range tab.Elements {
			if el.Type == elementType {
				return true
			}
		}
	}
	return false
}

// Validate checks tab names, element types and custom field handles.
func (l *FieldLayout) Validate(t validation.Translator) validation.Errors {
	v := validation.New(t)

	seen := make(map[string]bool)
	for _, tab := range l.Tabs {
		v.Required("tabs", "Tab name", tab.Name)

		for _, el := range tab.Elements {
			switch el.Type {
			case ElementTitleField, ElementHeading:
				continue
			case ElementCustomField:
			default:
				v.AddError("elements", "Unknown layout element type “{type}”.", map[string]string{"type": el.Type})
				continue
			}

			handle := el.FieldHandle
			if !v.Required("fields", "Field handle", handle) {
				continue
			}
			v.Handle("fields", "Field handle", handle, l.ReservedFieldHandles)
			if seen[handle] {
				v.AddError("fields", "“{handle}” is included more than once.", map[string]string{"handle": handle})
			}
			seen[handle] = true
		}
	}

	return v.Errors()
}

// Config returns the layout's portable config, or nil when it has no tabs.
// It does not modify the layout; UIDs are assigned when the layout is saved.
func (l *FieldLayout) Config() map[string]any {
	if len(l.Tabs) == 0 {
		return nil
	}

	tabs := make([]any, 0, len(l.Tabs))
	for _, tab := range l.Tabs {
		elements := make([]any, 0, len(tab.Elements))
		for _, el := range tab.Elements {
			elements = append(elements, el.config())
		}
		tabs = append(tabs, map[string]any{
			"name":     tab.Name,
			"uid":      tab.UID,
			"elements": elements,
		})
	}
	return map[string]any{"tabs": tabs}
}

func (el FieldLayoutElement) config() map[string]any {
	cfg := map[string]any{
		"type":     el.Type,
		"uid":      el.UID,
		"required": el.Required,
		"width":    el.width(),
	}
	if el.FieldHandle != "" {
		cfg["fieldHandle"] = el.FieldHandle
	}
	if el.Label != "" {
		cfg["label"] = el.Label
	}
	return cfg
}

func (el FieldLayoutElement) width() int {
	if el.Width <= 0 || el.Width > 100 {
		return 100
	}
	return el.Width
}

// Clone returns a deep copy of the layout.
func (l *FieldLayout) Clone() *FieldLayout {
	if l == nil {
		return nil
	}
	cp := *l
	if l.ID != nil {
		id := *l.ID
		cp.ID = &id
	}
	cp.Tabs = make([]FieldLayoutTab, len(l.Tabs))
	for i, tab := range l.Tabs {
		tab.Elements = append([]FieldLayoutElement(nil), tab.Elements...)
		cp.Tabs[i] = tab
	}
	cp.ReservedFieldHandles = append([]string(nil), l.ReservedFieldHandles...)
	return &cp
}

// EnsureUIDs assigns a UID to the layout and to every tab and element that
// lacks one. Existing UIDs are kept.
func (l *FieldLayout) EnsureUIDs() {
	if l.UID == "" {
		l.UID = uuid.NewString()
	}
	for i := range l.Tabs {
		if l.Tabs[i].UID == "" {
			l.Tabs[i].UID = uuid.NewString()
		}
		for j := range l.Tabs[i].Elements {
			if l.Tabs[i].Elements[j].UID == "" {
				l.Tabs[i].Elements[j].UID = uuid.NewString()
			}
		}
	}
}
