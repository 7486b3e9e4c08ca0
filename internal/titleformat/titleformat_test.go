package titleformat

import (
	"strings"
	"testing"
)

func TestRender_LiteralsAndExpressions(t *testing.T) {
	env := map[string]any{
		"record": map[string]any{"headline": "Launch", "issue": 7},
	}
	got, err := Render("{record.headline} #{record.issue}", env)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Launch #7" {
		t.Fatalf("expected %q, got %q", "Launch #7", got)
	}
}

func TestRender_ExpressionWithOperators(t *testing.T) {
	env := map[string]any{"record": map[string]any{"first": "Ada", "last": "Lovelace"}}
	got, err := Render(" {record.first + ' ' + upper(record.last)} ", env)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Ada LOVELACE" {
		t.Fatalf("expected trimmed result, got %q", got)
	}
}

func TestRender_NilRendersEmpty(t *testing.T) {
	got, err := Render("Untitled {missing}", map[string]any{"missing": nil})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Untitled" {
		t.Fatalf("expected %q, got %q", "Untitled", got)
	}
}

func TestRender_NestedBracesAndTwig(t *testing.T) {
	env := map[string]any{"record": map[string]any{"first": "Ada", "status": "draft"}}
	cases := []struct {
		format string
		want   string
	}{
		{`{{"draft": "Draft"}[record.status]}: {record.first}`, "Draft: Ada"},
		{`{record.first + "}"}`, "Ada}"},
		{`{'{' + record.first}`, "{Ada"},
		{"{{ record.first }} ({{record.status}})", "Ada (draft)"},
	}
	for _, tc := range cases {
		got, err := Render(tc.format, env)
		if err != nil {
			t.Fatalf("%s: render: %v", tc.format, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.format, tc.want, got)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, format := range []string{"{record.title", "{}", "{{ }}", "{record.title +}", `{"open}`} {
		if _, err := Compile(format); err == nil {
			t.Fatalf("expected compile error for %q", format)
		}
	}
}

func TestCompile_PlainText(t *testing.T) {
	tpl, err := Compile("Static title")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := tpl.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Static title" || !strings.Contains(tpl.String(), "Static") {
		t.Fatalf("unexpected render %q", got)
	}
}

func TestCache_CompilesOnce(t *testing.T) {
	c := NewCache()
	first, err := c.Get("{name}")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := c.Get("{name}")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached template to be reused")
	}
	if _, err := c.Get("{name"); err == nil {
		t.Fatal("expected compile error")
	}
	if c.Len() != 1 {
		t.Fatalf("expected invalid formats not to be cached, got %d entries", c.Len())
	}
}
