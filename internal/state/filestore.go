package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

// FileStore persists the state as a versioned JSON document at a fixed path.
type FileStore struct {
	path   string
	logger logger.Logger
	now    func() time.Time
}

// NewFileStore creates a file-backed state store.
func NewFileStore(path string, log logger.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: log,
		now:    time.Now,
	}
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context, profileIDs []string, targeted bool) *State {
	now := f.now().UTC()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		f.logger.Info("no state document, initializing defaults",
			logger.String("path", f.path),
			logger.Strings("profile_ids", profileIDs))
		return f.freshState(ctx, profileIDs, now)
	}
	if err != nil {
		f.logger.Warn("could not read state document, using defaults",
			logger.String("path", f.path),
			logger.Error(err))
		return f.freshState(ctx, profileIDs, now)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Warn("could not parse state document, using defaults",
			logger.String("path", f.path),
			logger.Error(err))
		return f.freshState(ctx, profileIDs, now)
	}
	if s.SchemaVersion > SchemaVersion {
		f.logger.Warn("state document from a newer schema, using defaults",
			logger.Int("document_version", s.SchemaVersion),
			logger.Int("supported_version", SchemaVersion))
		return f.freshState(ctx, profileIDs, now)
	}

	prepare(&s, profileIDs, targeted, now, f.logger)
	return &s
}

// Save implements Store. The document is written to a temp file and renamed
// into place so readers never observe a partial write.
func (f *FileStore) Save(_ context.Context, s *State) error {
	s.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (f *FileStore) freshState(ctx context.Context, profileIDs []string, now time.Time) *State {
	s := New(profileIDs, now)
	if err := f.Save(ctx, s); err != nil {
		f.logger.Error("could not persist fresh state document",
			logger.String("path", f.path),
			logger.Error(err))
	}
	return s
}

// prepare applies the shared post-deserialization steps: defaulting,
// profile entry initialization, optional pruning and daily rollover.
func prepare(s *State, profileIDs []string, targeted bool, now time.Time, log logger.Logger) {
	s.normalize()
	s.Ensure(profileIDs)

	if !targeted {
		if removed := s.Prune(profileIDs); len(removed) > 0 {
			log.Info("pruned obsolete profiles from state",
				logger.Strings("profile_ids", removed))
		}
	}

	if s.Rollover(now) {
		log.Info("new UTC day detected, daily counters reset",
			logger.String("date", s.LastRunDate))
	}
}
