package validation

import "strings"

// Translator resolves a message in a category and substitutes {param}
// placeholders.
type Translator interface {
	T(category, message string, params map[string]string) string
}

// Catalog is a Translator backed by an in-memory message map keyed by
// "category:message". Messages without an entry are used as-is.
type Catalog struct {
	Messages map[string]string
}

// DefaultTranslator returns a Catalog with no overrides.
func DefaultTranslator() *Catalog {
	return &Catalog{}
}

func (c *Catalog) T(category, message string, params map[string]string) string {
	if c != nil && c.Messages != nil {
		if translated, ok := c.Messages[category+":"+message]; ok {
			message = translated
		}
	}
	return Format(message, params)
}

// Format replaces {name} placeholders with their values.
func Format(message string, params map[string]string) string {
	if len(params) == 0 {
		return message
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(message)
}
