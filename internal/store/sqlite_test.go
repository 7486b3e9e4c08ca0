package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"entrykit/internal/conditions"
	"entrykit/internal/config"
	"entrykit/internal/metadata"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func saveType(t *testing.T, repo *EntryTypeRepository, name, handle string) *metadata.EntryType {
	t.Helper()
	et := metadata.NewEntryType(metadata.Deps{})
	et.Name = name
	et.Handle = handle
	et.FieldLayout().AddTab("Content",
		metadata.FieldLayoutElement{Type: metadata.ElementCustomField, FieldHandle: "body", Required: true},
	)
	require.NoError(t, repo.Save(context.Background(), et))
	return et
}

func TestSQLite_EntryTypeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	repo := NewEntryTypeRepository(s, "")

	et := saveType(t, repo, "News", "news")
	require.NotNil(t, et.ID)

	loaded, err := repo.FindByHandle(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, *et.ID, *loaded.ID)
	assert.Equal(t, et.UID, loaded.UID)
	assert.True(t, loaded.HasTitleField)
	assert.Equal(t, metadata.TranslationSite, loaded.TitleTranslationMethod)
	assert.Equal(t, et.Config(), loaded.Config())

	loaded.HasTitleField = false
	loaded.TitleFormat = "{title}"
	require.NoError(t, repo.Save(ctx, loaded))

	again, err := repo.FindByID(ctx, *et.ID)
	require.NoError(t, err)
	assert.False(t, again.HasTitleField)
	assert.Equal(t, "{title}", again.TitleFormat)

	all, err := repo.ListEntryTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, *et.ID))
	_, err = repo.FindByID(ctx, *et.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_UniquenessThroughValidation(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	repo := NewEntryTypeRepository(s, "")
	existing := saveType(t, repo, "News", "news")

	deps := metadata.Deps{Unique: repo}

	dup := deps.NewEntryType()
	dup.Name = "News"
	dup.Handle = "news"
	errs, err := dup.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, `Name "News" has already been taken.`, errs.First("name"))
	assert.Equal(t, `Handle "news" has already been taken.`, errs.First("handle"))

	self := existing.Clone(deps)
	errs, err = self.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, errs.Has("name"))
	assert.False(t, errs.Has("handle"))

	// the table constraint backs up a validation race
	err = repo.Save(ctx, dup)
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestSQLite_UniquenessIsScoped(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	saveType(t, NewEntryTypeRepository(s, "a"), "News", "news")

	other := NewEntryTypeRepository(s, "b")
	taken, err := other.Exists(ctx, metadata.UniqueQuery{Attribute: "handle", Value: "news", Scope: "b"})
	require.NoError(t, err)
	assert.False(t, taken)

	saveType(t, other, "News", "news")
}

func TestSQLite_RelatedToFilter(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	et := saveType(t, NewEntryTypeRepository(s, ""), "News", "news")
	entries := NewEntryRepository(s)

	author, err := entries.Create(ctx, *et.ID, "Ada", nil, nil)
	require.NoError(t, err)
	post, err := entries.Create(ctx, *et.ID, "Hello", map[string]any{"body": "hi"}, []RelationInput{
		{Field: "author", TargetIDs: []int{author.ID}},
	})
	require.NoError(t, err)
	_, err = entries.Create(ctx, *et.ID, "Unrelated", nil, nil)
	require.NoError(t, err)

	rule := conditions.NewRelatedToRule()
	rule.SetElementIDs([]any{author.ID})
	q := entries.NewQuery()
	rule.ModifyQuery(q)

	found, err := entries.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, post.ID, found[0].ID)
	assert.Equal(t, "hi", found[0].Content["body"])

	// relations match in both directions
	reverse := entries.NewQuery()
	reverse.RelatedTo([]int{post.ID})
	found, err = entries.Query(ctx, reverse)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, author.ID, found[0].ID)

	unfiltered := entries.NewQuery()
	conditions.NewRelatedToRule().ModifyQuery(unfiltered)
	found, err = entries.Query(ctx, unfiltered)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	elements, err := entries.FindByIDs(ctx, []int{post.ID, author.ID})
	require.NoError(t, err)
	assert.Equal(t, []conditions.Element{
		{ID: author.ID, Title: "Ada", Type: "entry"},
		{ID: post.ID, Title: "Hello", Type: "entry"},
	}, elements)
}

func TestSQLite_LayoutUIDsAssignedOnSave(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	repo := NewEntryTypeRepository(s, "")

	var attrs metadata.Attributes
	require.NoError(t, json.Unmarshal([]byte(`{"name":"News","handle":"news",
		"fieldLayout":{"tabs":[{"name":"Content","elements":[{"type":"custom","fieldHandle":"body"}]}]}}`), &attrs))
	et := metadata.NewEntryType(metadata.Deps{})
	et.SetAttributes(attrs)
	require.NoError(t, repo.Save(ctx, et))

	first, err := repo.FindByID(ctx, *et.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, *et.ID)
	require.NoError(t, err)

	tab := first.FieldLayout().Tabs[0]
	assert.NotEmpty(t, tab.UID)
	assert.NotEmpty(t, tab.Elements[0].UID)
	assert.Equal(t, first.Config(), second.Config())
	assert.Equal(t, et.Config(), first.Config())
}

func TestSQLite_SaveRejectsForeignLayout(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	repo := NewEntryTypeRepository(s, "")
	news := saveType(t, repo, "News", "news")
	blog := saveType(t, repo, "Blog", "blog")

	hijack := metadata.NewFieldLayout(metadata.ElementTypeEntry)
	hijack.ID = news.FieldLayoutID
	hijack.AddTab("Hijacked")
	blog.SetFieldLayout(hijack)
	assert.ErrorIs(t, repo.Save(ctx, blog), ErrNotFound)

	loaded, err := repo.FindByID(ctx, *news.ID)
	require.NoError(t, err)
	assert.Equal(t, "Content", loaded.FieldLayout().Tabs[0].Name)

	// a new entry type never adopts an existing layout row
	page := metadata.NewEntryType(metadata.Deps{})
	page.Name, page.Handle = "Page", "page"
	taken := metadata.NewFieldLayout(metadata.ElementTypeEntry)
	taken.ID = news.FieldLayoutID
	page.SetFieldLayout(taken)
	require.NoError(t, repo.Save(ctx, page))
	assert.NotEqual(t, *news.FieldLayoutID, *page.FieldLayoutID)
}
