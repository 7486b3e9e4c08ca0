package conditions

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Element is the minimal element description shown in a picker.
type Element struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// ElementFinder loads elements by id.
type ElementFinder interface {
	FindByIDs(ctx context.Context, ids []int) ([]Element, error)
}

// ElementSelect is the data handed to a PickerRenderer.
type ElementSelect struct {
	ID          string
	Name        string
	ElementType string
	Elements    []Element
	Single      bool
}

// PickerRenderer turns an ElementSelect into markup.
type PickerRenderer interface {
	RenderElementSelect(data ElementSelect) (string, error)
}

// PickerOptions controls input naming.
type PickerOptions struct {
	// Namespace prefixes input ids and names, e.g. "rules[0]".
	Namespace string
}

func (o PickerOptions) namespaced(name string) string {
	if o.Namespace == "" {
		return name
	}
	return o.Namespace + "[" + name + "]"
}

var elementSelectTmpl = template.Must(template.New("elementSelect").Parse(
	`<div class="elementselect" id="{{.ID}}" data-element-type="{{.ElementType}}"{{if .Single}} data-single="true"{{end}}>` +
		`<div class="elements">` +
		`{{range .Elements}}<div class="element" data-id="{{.ID}}">` +
		`<input type="hidden" name="{{$.Name}}[]" value="{{.ID}}"><span class="title">{{.Title}}</span></div>{{end}}` +
		`</div></div>`))

// HTMLPicker renders the element select with html/template.
type HTMLPicker struct{}

func (HTMLPicker) RenderElementSelect(data ElementSelect) (string, error) {
	var b strings.Builder
	if err := elementSelectTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render element select: %w", err)
	}
	return b.String(), nil
}
