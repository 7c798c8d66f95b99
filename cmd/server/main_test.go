package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/beatline/pkg/api"
	"github.com/james-see/beatline/pkg/model"
)

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "a.txt")
	doc := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(text, []byte("note 0 2 1 60 90\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(doc, []byte("notes:\n  - {start: 0, end: 1, instrument: 1, pitch: 62, volume: 90}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := api.NewStore()
	if err := preload(store, []string{text, doc}); err != nil {
		t.Fatalf("preload() error = %v", err)
	}
	ids := store.IDs()
	if len(ids) != 2 {
		t.Fatalf("IDs() = %v, want 2", ids)
	}
	for _, id := range ids {
		err := store.With(id, func(c *model.Composition) error {
			if len(c.NoteList()) != 1 {
				t.Errorf("composition %s = %v, want one note", id, c)
			}
			return nil
		})
		if err != nil {
			t.Errorf("With(%s) error = %v", id, err)
		}
	}
}

func TestPreloadStopsAtBadFile(t *testing.T) {
	store := api.NewStore()
	err := preload(store, []string{filepath.Join(t.TempDir(), "missing.txt")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("preload() error = %v, want not exist", err)
	}
	if len(store.IDs()) != 0 {
		t.Errorf("IDs() = %v, want none", store.IDs())
	}
}
