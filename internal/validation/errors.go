package validation

import "sort"

// Errors maps an attribute name to its ordered list of messages.
// An empty Errors means validation passed.
type Errors map[string][]string

// Add appends a message to an attribute, skipping exact duplicates.
func (e Errors) Add(attribute, message string) {
	for _, m := range e[attribute] {
		if m == message {
			return
		}
	}
	e[attribute] = append(e[attribute], message)
}

// Merge unions every message of other into the given slot. Messages already
// present under the slot are kept.
func (e Errors) Merge(slot string, other Errors) {
	for _, attr := range other.Attributes() {
		for _, msg := range other[attr] {
			e.Add(slot, msg)
		}
	}
}

// HasErrors reports whether any attribute has a message.
func (e Errors) HasErrors() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// Has reports whether the attribute has at least one message.
func (e Errors) Has(attribute string) bool {
	return len(e[attribute]) > 0
}

// First returns the first message for an attribute, or "".
func (e Errors) First(attribute string) string {
	if msgs := e[attribute]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Attributes returns the attribute names with messages, sorted.
func (e Errors) Attributes() []string {
	names := make([]string, 0, len(e))
	for name, msgs := range e {
		if len(msgs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
