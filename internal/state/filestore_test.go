package state_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/state"
)

func newFileStore(t *testing.T) (*state.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publisher_state.json")
	return state.NewFileStore(path, logger.NewNopLogger()), path
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	s := store.Load(ctx, []string{"site-a"}, true)

	if s == nil {
		t.Fatal("Load() returned nil")
	}
	if _, ok := s.Profiles["site-a"]; !ok {
		t.Error("fresh state missing requested profile entry")
	}
	// A fresh document is written immediately so the next reader sees it.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fresh state was not persisted: %v", err)
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("{ this is not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := store.Load(ctx, []string{"site-a"}, true)

	if s == nil {
		t.Fatal("Load() returned nil for corrupt document")
	}
	if ps := s.Profile("site-a"); ps.PostsToday != 0 || len(ps.PendingTickers) != 0 {
		t.Error("corrupt document did not reset to defaults")
	}

	// The healed document replaces the corrupt one on disk.
	reloaded := store.Load(ctx, []string{"site-a"}, true)
	if reloaded.SchemaVersion != state.SchemaVersion {
		t.Errorf("reloaded schema version = %d, want %d", reloaded.SchemaVersion, state.SchemaVersion)
	}
}

func TestFileStoreLoadNewerSchema(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	doc := `{"schema_version": 999, "last_run_date": "2026-08-31", "profiles": {}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	s := store.Load(ctx, nil, true)
	if s.SchemaVersion != state.SchemaVersion {
		t.Errorf("schema version = %d, want %d (newer documents are not trusted)",
			s.SchemaVersion, state.SchemaVersion)
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	s := store.Load(ctx, []string{"site-a"}, true)
	ps := s.Profile("site-a")
	ps.PendingTickers = []string{"AAPL", "MSFT"}
	ps.MarkPublished("GOOG")
	ps.PostsToday = 3
	ps.LastAuthorIndex = 1

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got := store.Load(ctx, []string{"site-a"}, true).Profile("site-a")
	if len(got.PendingTickers) != 2 || got.PendingTickers[0] != "AAPL" {
		t.Errorf("PendingTickers = %v, want [AAPL MSFT]", got.PendingTickers)
	}
	if !got.IsPublished("GOOG") {
		t.Error("published log lost in round trip")
	}
	if got.PostsToday != 3 {
		t.Errorf("PostsToday = %d, want 3", got.PostsToday)
	}
	if got.LastAuthorIndex != 1 {
		t.Errorf("LastAuthorIndex = %d, want 1", got.LastAuthorIndex)
	}
}

func TestFileStoreTargetedLoadKeepsOtherProfiles(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	s := store.Load(ctx, []string{"site-a", "site-b"}, true)
	s.Profile("site-b").PostsToday = 7
	if err := store.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	targeted := store.Load(ctx, []string{"site-a"}, true)
	if ps, ok := targeted.Profiles["site-b"]; !ok || ps.PostsToday != 7 {
		t.Error("targeted load dropped state for profiles outside the run")
	}

	general := store.Load(ctx, []string{"site-a"}, false)
	if _, ok := general.Profiles["site-b"]; ok {
		t.Error("general load kept a profile no longer configured")
	}
}
