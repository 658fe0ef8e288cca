package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	data, err := store.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("expected empty store, got %q/%v", data, err)
	}
	if err := store.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err = store.Load(ctx)
	if err != nil || string(data) != `{"a":2}` {
		t.Fatalf("expected latest blob, got %q/%v", data, err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")
	exerciseStore(t, FileStore{Path: path})

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := OpenSQLiteStore(context.Background(), path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)

	other, err := OpenSQLiteStore(context.Background(), path, "other")
	if err != nil {
		t.Fatalf("open second key: %v", err)
	}
	defer other.Close()
	data, err := other.Load(context.Background())
	if err != nil || data != nil {
		t.Fatalf("expected keys isolated, got %q/%v", data, err)
	}
}
