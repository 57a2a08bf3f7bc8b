package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jonesrussell/stock-publisher/internal/models"
)

// FileStore reads and writes profiles from a single JSON file holding an
// array of profiles. It ignores the user scope; file-backed deployments are
// single tenant. Suited to the CLI and small installs.
type FileStore struct {
	path string

	mu sync.Mutex
}

// NewFileStore creates a file-backed profile store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// List implements Store.
func (f *FileStore) List(_ context.Context, _ string) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// Get implements Store.
func (f *FileStore) Get(_ context.Context, _, profileID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list, err := f.read()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == profileID {
			return &list[i], nil
		}
	}
	return nil, ErrNotFound
}

// Put implements Store. It inserts or replaces by profile id.
func (f *FileStore) Put(_ context.Context, _ string, profile models.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile %q: %w", profile.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list, err := f.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == profile.ID {
			list[i] = profile
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, profile)
	}
	return f.write(list)
}

// Delete implements Store.
func (f *FileStore) Delete(_ context.Context, _, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	list, err := f.read()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, p := range list {
		if p.ID != profileID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(list) {
		return ErrNotFound
	}
	return f.write(kept)
}

func (f *FileStore) read() ([]models.Profile, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []models.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	var list []models.Profile
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse profiles file %s: %w", f.path, err)
	}
	return list, nil
}

func (f *FileStore) write(list []models.Profile) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profiles file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace profiles file: %w", err)
	}
	return nil
}
