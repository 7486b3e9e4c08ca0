package conditions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TypeRelatedTo is the class name of the related-to rule.
const TypeRelatedTo = "relatedTo"

// RelatedToRule narrows a query to elements related to any of a set of
// target elements.
type RelatedToRule struct {
	BaseRule
	elementIDs []int
}

// NewRelatedToRule returns a rule with no targets and a fresh UID.
func NewRelatedToRule() *RelatedToRule {
	return newRelatedToRule("")
}

func newRelatedToRule(uid string) *RelatedToRule {
	return &RelatedToRule{BaseRule: newBaseRule(uid), elementIDs: []int{}}
}

func (r *RelatedToRule) Type() string        { return TypeRelatedTo }
func (r *RelatedToRule) DisplayName() string { return "Related to" }

// SetElementIDs accepts loosely-typed input. A non-empty string becomes a
// one-element list holding its integer value; slices are kept; anything
// else clears the targets.
func (r *RelatedToRule) SetElementIDs(value any) {
	r.elementIDs = NormalizeElementIDs(value)
}

// ElementIDs returns the target ids. Never nil.
func (r *RelatedToRule) ElementIDs() []int {
	return r.elementIDs
}

// ModifyQuery restricts q to elements related to the targets. With no
// targets q is left untouched.
func (r *RelatedToRule) ModifyQuery(q ElementQuery) {
	if len(r.elementIDs) == 0 {
		return
	}
	q.RelatedTo(append([]int(nil), r.elementIDs...))
}

// Config returns the base rule config with the element ids.
func (r *RelatedToRule) Config() map[string]any {
	cfg := r.config(TypeRelatedTo)
	ids := make([]any, len(r.elementIDs))
	for i, id := range r.elementIDs {
		ids[i] = id
	}
	cfg["elementIds"] = ids
	return cfg
}

// HTML renders a single-selection element picker pre-populated with the
// current targets.
func (r *RelatedToRule) HTML(ctx context.Context, finder ElementFinder, renderer PickerRenderer, opts PickerOptions) (string, error) {
	var selected []Element
	if len(r.elementIDs) > 0 {
		found, err := finder.FindByIDs(ctx, r.elementIDs)
		if err != nil {
			return "", fmt.Errorf("load related elements: %w", err)
		}
		selected = found
	}

	return renderer.RenderElementSelect(ElementSelect{
		ID:          opts.namespaced("relatedTo"),
		Name:        opts.namespaced("elementIds"),
		ElementType: "entry",
		Elements:    selected,
		Single:      true,
	})
}

// NormalizeElementIDs converts loosely-typed input to a list of ids.
// Strings are cast the way a numeric prefix parse would ("42" -> 42,
// "abc" -> 0). Slice elements that are not integral numbers are dropped.
func NormalizeElementIDs(value any) []int {
	switch v := value.(type) {
	case string:
		if v == "" {
			return []int{}
		}
		return []int{castInt(v)}
	case []int:
		return append([]int{}, v...)
	case []int64:
		ids := make([]int, 0, len(v))
		for _, n := range v {
			ids = append(ids, int(n))
		}
		return ids
	case []string:
		ids := make([]int, 0, len(v))
		for _, s := range v {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				ids = append(ids, n)
			}
		}
		return ids
	case []any:
		ids := make([]int, 0, len(v))
		for _, item := range v {
			if n, ok := toInt(item); ok {
				ids = append(ids, n)
			}
		}
		return ids
	default:
		return []int{}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// castInt parses an optional sign and leading digits, ignoring leading
// whitespace and any trailing text. No digits yields 0. Out of range values
// saturate at the int bounds.
func castInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	// ParseInt returns the clamped value along with ErrRange
	return int(n)
}
