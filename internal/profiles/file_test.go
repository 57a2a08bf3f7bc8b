package profiles_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/models"
	"github.com/jonesrussell/stock-publisher/internal/profiles"
)

func newStore(t *testing.T) *profiles.FileStore {
	t.Helper()
	return profiles.NewFileStore(filepath.Join(t.TempDir(), "profiles.json"))
}

func validProfile(id string) models.Profile {
	return models.Profile{
		ID:      id,
		Name:    "Site " + id,
		SiteURL: "https://" + id + ".example",
		Authors: []models.Author{{Username: "alice", UserID: 1, AppPassword: "pw"}},
	}
}

func TestFileStoreCRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	list, err := store.List(ctx, "local")
	if err != nil {
		t.Fatalf("List() on empty store error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() = %d profiles, want 0", len(list))
	}

	if err := store.Put(ctx, "local", validProfile("a")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := store.Put(ctx, "local", validProfile("b")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get(ctx, "local", "a")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "Site a" {
		t.Errorf("Get() name = %q, want Site a", got.Name)
	}

	// Put with an existing id replaces, not appends.
	updated := validProfile("a")
	updated.Name = "Renamed"
	if err := store.Put(ctx, "local", updated); err != nil {
		t.Fatal(err)
	}
	list, _ = store.List(ctx, "local")
	if len(list) != 2 {
		t.Errorf("List() after replace = %d profiles, want 2", len(list))
	}

	if err := store.Delete(ctx, "local", "a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, "local", "a"); !errors.Is(err, profiles.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "local", "a"); !errors.Is(err, profiles.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreRejectsInvalidProfile(t *testing.T) {
	store := newStore(t)

	bad := validProfile("a")
	bad.SiteURL = "not-a-url"
	if err := store.Put(context.Background(), "local", bad); err == nil {
		t.Error("Put() error = nil for invalid site url")
	}
}
