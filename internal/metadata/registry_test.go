package metadata

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type staticSource struct {
	types []*EntryType
	err   error
}

func (s staticSource) ListEntryTypes(context.Context) ([]*EntryType, error) {
	return s.types, s.err
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	news := NewEntryType(Deps{})
	news.SetAttributes(Attributes{ID: 1, Name: strPtr("News"), Handle: strPtr("news"), UID: strPtr("uid-news")})
	blog := NewEntryType(Deps{})
	blog.SetAttributes(Attributes{ID: 2, Name: strPtr("Blog"), Handle: strPtr("blog")})

	reg := NewRegistry()
	if err := LoadAll(context.Background(), staticSource{types: []*EntryType{news, blog}}, reg, zap.NewNop()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if reg.GetByID(1) != news || reg.GetByHandle("blog") != blog || reg.GetByUID("uid-news") != news {
		t.Fatal("lookup mismatch")
	}
	all := reg.All()
	if len(all) != 2 || all[0].Handle != "blog" || all[1].Handle != "news" {
		t.Fatalf("expected entry types ordered by handle, got %v", all)
	}

	reg.Load(nil)
	if reg.GetByHandle("news") != nil {
		t.Fatal("expected registry to be replaced")
	}
}

func TestLoadAll_SourceError(t *testing.T) {
	reg := NewRegistry()
	err := LoadAll(context.Background(), staticSource{err: errors.New("boom")}, reg, zap.NewNop())
	if err == nil {
		t.Fatal("expected error")
	}
}
