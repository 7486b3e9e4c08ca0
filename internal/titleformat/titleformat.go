// Package titleformat renders object templates such as
// "{type.name}: {record.dateCreated}" where each {...} segment is an
// expr-lang expression evaluated against the given environment.
//
// Segments end at their matching brace, so expressions may contain map
// literals and quoted braces. The Twig form {{ expr }} is accepted and
// means the same as {expr}.
package titleformat

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type segment struct {
	literal string
	program *vm.Program
	source  string
}

// Template is a compiled format string.
type Template struct {
	format   string
	segments []segment
}

// Compile parses format and compiles every {...} segment.
func Compile(format string) (*Template, error) {
	t := &Template{format: format}
	rest := format
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			t.segments = append(t.segments, segment{literal: rest})
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{literal: rest[:open]})
		}
		end, err := closingBrace(rest[open:])
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d", err, len(format)-len(rest)+open)
		}
		code := unwrapTwig(strings.TrimSpace(rest[open+1 : open+end]))
		if code == "" {
			return nil, fmt.Errorf("empty expression at offset %d", len(format)-len(rest)+open)
		}
		prog, err := expr.Compile(code)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", code, err)
		}
		t.segments = append(t.segments, segment{program: prog, source: code})
		rest = rest[open+end+1:]
	}
	return t, nil
}

// closingBrace returns the index of the brace closing s[0], skipping
// nested braces and quoted strings.
func closingBrace(s string) (int, error) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch {
			case ch == '\\' && quote != '`':
				i++
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	if quote != 0 {
		return 0, errors.New("unterminated string")
	}
	return 0, errors.New("unclosed {")
}

// unwrapTwig strips the inner braces of a {{ ... }} segment.
func unwrapTwig(code string) string {
	if !strings.HasPrefix(code, "{") {
		return code
	}
	if end, err := closingBrace(code); err == nil && end == len(code)-1 {
		return strings.TrimSpace(code[1:end])
	}
	return code
}

// Render evaluates the template. Nil values render as empty strings and the
// result is trimmed.
func (t *Template) Render(env map[string]any) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if s.program == nil {
			b.WriteString(s.literal)
			continue
		}
		out, err := expr.Run(s.program, env)
		if err != nil {
			return "", fmt.Errorf("evaluate %q: %w", s.source, err)
		}
		if out != nil {
			fmt.Fprint(&b, out)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// String returns the source format.
func (t *Template) String() string {
	return t.format
}

// Cache holds compiled templates by format string. Safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewCache() *Cache {
	return &Cache{templates: make(map[string]*Template)}
}

// Get returns the compiled template for format, compiling it on first use.
// Formats that fail to compile are not cached.
func (c *Cache) Get(format string) (*Template, error) {
	c.mu.RLock()
	t, ok := c.templates[format]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := Compile(format)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.templates[format] = t
	c.mu.Unlock()
	return t, nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

var defaultCache = NewCache()

// Render renders format through the shared cache.
func Render(format string, env map[string]any) (string, error) {
	t, err := defaultCache.Get(format)
	if err != nil {
		return "", err
	}
	return t.Render(env)
}
