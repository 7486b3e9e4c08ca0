package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entrykit/internal/metadata"
)

func newsType() *metadata.EntryType {
	et := metadata.NewEntryType(metadata.Deps{})
	et.UID = "1f0c"
	et.Name = "News"
	et.Handle = "news"
	et.FieldLayout().AddTab("Content",
		metadata.FieldLayoutElement{Type: metadata.ElementCustomField, FieldHandle: "body", Width: 50},
	)
	return et
}

func TestWriteThenReadHasNoDiff(t *testing.T) {
	root := t.TempDir()
	et := newsType()

	paths, err := NewWriter(root, nil).WriteEntryTypes([]*metadata.EntryType{et})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(root, "entryTypes", "news--1f0c.yaml"), paths[0])

	stored, err := Read(root)
	require.NoError(t, err)
	require.Contains(t, stored, "1f0c")
	assert.Equal(t, "news", stored["1f0c"]["handle"])
	assert.Nil(t, stored["1f0c"]["titleFormat"])

	assert.Empty(t, DiffEntryTypes(stored, []*metadata.EntryType{et}))
}

func TestWriteRemovesRenamedFiles(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, nil)
	et := newsType()

	_, err := w.WriteEntryTypes([]*metadata.EntryType{et})
	require.NoError(t, err)

	et.Handle = "articles"
	_, err = w.WriteEntryTypes([]*metadata.EntryType{et})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "entryTypes", "news--1f0c.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "entryTypes", "articles--1f0c.yaml"))
	assert.NoError(t, err)
}

func TestReadMissingDirectory(t *testing.T) {
	stored, err := Read(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestReadRejectsMalformedFileName(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "entryTypes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news.yaml"), []byte("handle: news\n"), 0o644))

	_, err := Read(root)
	assert.Error(t, err)
}

func TestDiffListsDottedPaths(t *testing.T) {
	old := map[string]any{
		"name":        "News",
		"titleFormat": nil,
		"fieldLayouts": map[string]any{
			"fl": map[string]any{"tabs": []any{map[string]any{"name": "Content", "width": 100}}},
		},
	}
	updated := map[string]any{
		"name":        "Articles",
		"titleFormat": nil,
		"fieldLayouts": map[string]any{
			"fl": map[string]any{"tabs": []any{map[string]any{"name": "Main", "width": int64(100)}}},
		},
	}

	assert.Equal(t, []Change{
		{Path: "fieldLayouts.fl.tabs.0.name", Old: "Content", New: "Main"},
		{Path: "name", Old: "News", New: "Articles"},
	}, Diff(old, updated))
}

func TestDiffEntryTypesStatuses(t *testing.T) {
	changed := newsType()
	added := metadata.NewEntryType(metadata.Deps{})
	added.UID = "2b"
	added.Name = "Blog"
	added.Handle = "blog"

	stored := map[string]map[string]any{
		"1f0c": {"name": "Old News", "handle": "news"},
		"9z":   {"name": "Gone", "handle": "gone"},
	}

	diffs := DiffEntryTypes(stored, []*metadata.EntryType{changed, added})
	require.Len(t, diffs, 3)

	assert.Equal(t, "blog", diffs[0].Handle)
	assert.Equal(t, StatusAdded, diffs[0].Status)
	assert.Equal(t, "gone", diffs[1].Handle)
	assert.Equal(t, StatusRemoved, diffs[1].Status)
	assert.Equal(t, "news", diffs[2].Handle)
	assert.Equal(t, StatusChanged, diffs[2].Status)
	assert.Contains(t, diffs[2].Changes, Change{Path: "name", Old: "Old News", New: "News"})
}
