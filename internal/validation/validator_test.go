package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsMerge_UnionsUnderSlot(t *testing.T) {
	errs := Errors{}
	errs.Add("fieldLayout", "Tab name cannot be blank.")

	nested := Errors{
		"tabs":   {"Tab name cannot be blank."},
		"fields": {"“author” is a reserved word."},
	}
	errs.Merge("fieldLayout", nested)

	assert.Equal(t, []string{
		"Tab name cannot be blank.",
		"“author” is a reserved word.",
	}, errs["fieldLayout"])
	assert.True(t, errs.HasErrors())
	assert.Equal(t, []string{"fieldLayout"}, errs.Attributes())
}

func TestErrors_EmptyMeansSuccess(t *testing.T) {
	errs := Errors{"name": nil}
	assert.False(t, errs.HasErrors())
	assert.Empty(t, errs.Attributes())
	assert.Equal(t, "", errs.First("name"))
}

func TestValidator_RunsEveryCheck(t *testing.T) {
	v := New(nil)
	v.Required("name", "Name", "")
	v.Required("handle", "Handle", "  ")
	v.MaxLength("title", "Title", strings.Repeat("é", 256), 255)
	v.Integer("id", "ID", "abc")

	errs := v.Errors()
	require.Len(t, errs.Attributes(), 4)
	assert.Equal(t, "Name cannot be blank.", errs.First("name"))
	assert.Equal(t, "Title should contain at most 255 characters.", errs.First("title"))
	assert.Equal(t, "ID must be an integer.", errs.First("id"))
}

func TestValidator_MaxLengthCountsCharacters(t *testing.T) {
	v := New(nil)
	assert.True(t, v.MaxLength("name", "Name", strings.Repeat("é", 255), 255))
	assert.False(t, v.Errors().HasErrors())
}

func TestValidator_Handle(t *testing.T) {
	reserved := []string{"id", "dateCreated", "dateUpdated", "uid", "title"}

	for _, word := range reserved {
		v := New(nil)
		assert.False(t, v.Handle("handle", "Handle", word, reserved), word)
		assert.Contains(t, v.Errors().First("handle"), "reserved word")
	}

	v := New(nil)
	assert.False(t, v.Handle("handle", "Handle", "DATECREATED", reserved))

	v = New(nil)
	assert.False(t, v.Handle("handle", "Handle", "9lives", reserved))
	assert.Equal(t, "“Handle” isn’t a valid handle.", v.Errors().First("handle"))

	v = New(nil)
	assert.True(t, v.Handle("handle", "Handle", "news_2", reserved))
	assert.True(t, v.Handle("handle", "Handle", "", reserved))
	assert.False(t, v.Errors().HasErrors())
}

func TestValidator_Unique(t *testing.T) {
	v := New(nil)
	v.Unique("handle", "Handle", "news", true)
	assert.Equal(t, `Handle "news" has already been taken.`, v.Errors().First("handle"))
}

func TestIsInteger(t *testing.T) {
	assert.True(t, IsInteger(3))
	assert.True(t, IsInteger(int64(3)))
	assert.True(t, IsInteger(float64(3)))
	assert.True(t, IsInteger("42"))
	assert.False(t, IsInteger(3.5))
	assert.False(t, IsInteger("4x"))
	assert.False(t, IsInteger(true))
}

func TestCatalog_Overrides(t *testing.T) {
	c := &Catalog{Messages: map[string]string{
		"app:{attribute} cannot be blank.": "{attribute} darf nicht leer sein.",
	}}
	v := New(c)
	v.Required("name", "Name", "")
	assert.Equal(t, "Name darf nicht leer sein.", v.Errors().First("name"))
}
