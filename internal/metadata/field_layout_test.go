package metadata

import (
	"reflect"
	"testing"

	"entrykit/internal/validation"
)

func TestFieldLayout_EmptyConfigIsNil(t *testing.T) {
	l := NewFieldLayout(ElementTypeEntry)
	if cfg := l.Config(); cfg != nil {
		t.Fatalf("expected nil config for a layout without tabs, got %#v", cfg)
	}
	if errs := l.Validate(nil); errs.HasErrors() {
		t.Fatalf("expected empty layout to validate, got %v", errs)
	}
}

func TestFieldLayout_AssignsUIDs(t *testing.T) {
	l := &FieldLayout{Type: ElementTypeEntry}
	l.AddTab("Content", FieldLayoutElement{Type: ElementTitleField}, FieldLayoutElement{Type: ElementCustomField, FieldHandle: "body"})
	if l.UID == "" || l.Tabs[0].UID == "" {
		t.Fatal("expected layout and tab uids")
	}
	for _, el := range l.Tabs[0].Elements {
		if el.UID == "" {
			t.Fatalf("expected element uid for %s", el.Type)
		}
	}
}

func TestFieldLayout_CustomFields(t *testing.T) {
	l := NewFieldLayout(ElementTypeEntry)
	l.AddTab("Content",
		FieldLayoutElement{Type: ElementTitleField},
		FieldLayoutElement{Type: ElementCustomField, FieldHandle: "body"},
	).AddTab("Meta",
		FieldLayoutElement{Type: ElementHeading, Label: "SEO"},
		FieldLayoutElement{Type: ElementCustomField, FieldHandle: "summary"},
	)

	fields := l.CustomFields()
	if len(fields) != 2 || fields[0].FieldHandle != "body" || fields[1].FieldHandle != "summary" {
		t.Fatalf("unexpected custom fields %+v", fields)
	}
	if !l.HasElement(ElementTitleField) {
		t.Fatal("expected title element")
	}
}

func TestFieldLayout_ValidateRules(t *testing.T) {
	l := NewFieldLayout(ElementTypeEntry)
	l.ReservedFieldHandles = []string{"author"}
	l.AddTab("Content",
		FieldLayoutElement{Type: ElementCustomField, FieldHandle: "Author"},
		FieldLayoutElement{Type: ElementCustomField, FieldHandle: "2fast"},
		FieldLayoutElement{Type: ElementCustomField},
		FieldLayoutElement{Type: "matrix"},
	)

	errs := l.Validate(validation.DefaultTranslator())
	if len(errs["fields"]) != 3 {
		t.Fatalf("expected 3 field errors, got %v", errs["fields"])
	}
	if errs.First("elements") != "Unknown layout element type “matrix”." {
		t.Fatalf("unexpected element error %v", errs["elements"])
	}
}

func TestFieldLayout_WidthDefaults(t *testing.T) {
	cases := map[int]int{0: 100, -5: 100, 50: 50, 120: 100}
	for in, want := range cases {
		if got := (FieldLayoutElement{Width: in}).width(); got != want {
			t.Fatalf("width(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFieldLayout_ConfigDoesNotAssignUIDs(t *testing.T) {
	l := &FieldLayout{Type: ElementTypeEntry, Tabs: []FieldLayoutTab{
		{Name: "Content", Elements: []FieldLayoutElement{{Type: ElementCustomField, FieldHandle: "body"}}},
	}}
	first, second := l.Config(), l.Config()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected repeated config to match:\n%v\n%v", first, second)
	}
	if l.UID != "" || l.Tabs[0].UID != "" || l.Tabs[0].Elements[0].UID != "" {
		t.Fatal("config must not modify the layout")
	}

	l.Tabs[0].UID = "tab-1"
	l.EnsureUIDs()
	if l.Tabs[0].UID != "tab-1" || l.UID == "" || l.Tabs[0].Elements[0].UID == "" {
		t.Fatalf("expected missing uids filled and existing kept, got %+v", l)
	}
}
