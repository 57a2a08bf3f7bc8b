// Package state holds the persistent publisher state: per-profile ticker
// queues, daily counters and the processed-ticker audit trail.
package state

import (
	"slices"
	"time"
)

// SchemaVersion is the current version of the persisted state document.
// Stores refuse documents from a newer schema and treat them as corrupt.
const SchemaVersion = 1

// Ticker outcome statuses recorded in the processed log.
const (
	StatusSuccess          = "success"
	StatusFailure          = "failure"
	StatusSkipped          = "skipped"
	StatusSkippedSetup     = "skipped_setup"
	StatusSkippedLimit     = "skipped_limit"
	StatusSkippedNoTickers = "skipped_no_tickers"
)

// DateFormat is the UTC calendar date format used for daily rollover.
const DateFormat = "2006-01-02"

// ProcessedEntry is one line of the per-profile audit trail surfaced to
// operators. Entries accumulate within a UTC day and are cleared at rollover.
type ProcessedEntry struct {
	Ticker    string    `json:"ticker"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// ProfileState is the mutable scheduling state for a single profile.
type ProfileState struct {
	// PendingTickers is the FIFO queue of tickers not yet attempted this
	// cycle.
	PendingTickers []string `json:"pending_tickers"`

	// FailedTickers holds tickers whose last attempt failed. They are
	// retried with priority on the next queue reload.
	FailedTickers []string `json:"failed_tickers"`

	// PublishedLog records tickers already published for this profile.
	// A ticker present here is never attempted again unless the log is
	// externally reset.
	PublishedLog []string `json:"published_log"`

	// LastScheduleTime is the RFC 3339 UTC timestamp of the latest post's
	// scheduled publish time. Empty until the first successful post.
	LastScheduleTime string `json:"last_successful_schedule_time"`

	// PostsToday counts posts created today, reset at UTC day rollover.
	PostsToday int `json:"posts_today"`

	// ProcessedLog is the append-only per-day audit trail.
	ProcessedLog []ProcessedEntry `json:"processed_log"`

	// LastAuthorIndex is the cursor into the profile's author list for
	// round-robin continuation. -1 means no author has been used yet.
	LastAuthorIndex int `json:"last_author_index"`
}

// NewProfileState returns a ProfileState with field defaults applied.
func NewProfileState() *ProfileState {
	return &ProfileState{
		PendingTickers:  []string{},
		FailedTickers:   []string{},
		PublishedLog:    []string{},
		ProcessedLog:    []ProcessedEntry{},
		LastAuthorIndex: -1,
	}
}

// IsPublished reports whether ticker is in the published log.
func (p *ProfileState) IsPublished(ticker string) bool {
	return slices.Contains(p.PublishedLog, ticker)
}

// MarkPublished adds ticker to the published log if not already present.
func (p *ProfileState) MarkPublished(ticker string) {
	if !p.IsPublished(ticker) {
		p.PublishedLog = append(p.PublishedLog, ticker)
	}
}

// MarkFailed queues ticker for a priority retry on the next reload.
func (p *ProfileState) MarkFailed(ticker string) {
	p.FailedTickers = append(p.FailedTickers, ticker)
}

// Record appends an audit trail entry.
func (p *ProfileState) Record(entry ProcessedEntry) {
	p.ProcessedLog = append(p.ProcessedLog, entry)
}

// LastSchedule returns the parsed last successful schedule time.
// The second return is false when the field is unset or does not parse;
// callers fall back to scheduling from "now".
func (p *ProfileState) LastSchedule() (time.Time, bool) {
	if p.LastScheduleTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, p.LastScheduleTime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// SetLastSchedule records t as the latest scheduled publish time.
func (p *ProfileState) SetLastSchedule(t time.Time) {
	p.LastScheduleTime = t.UTC().Format(time.RFC3339)
}

// State is the full publisher state document, keyed by profile id.
// It is an explicit value object: loaded at run start, mutated during the
// run, persisted at run end. There is no hidden process-wide copy.
type State struct {
	SchemaVersion int                      `json:"schema_version"`
	LastRunDate   string                   `json:"last_run_date"`
	Profiles      map[string]*ProfileState `json:"profiles"`
}

// New returns a freshly-initialized state with entries for the given
// profile ids, dated today so a rollover does not immediately fire.
func New(profileIDs []string, now time.Time) *State {
	s := &State{
		SchemaVersion: SchemaVersion,
		LastRunDate:   now.UTC().Format(DateFormat),
		Profiles:      make(map[string]*ProfileState, len(profileIDs)),
	}
	s.Ensure(profileIDs)
	return s
}

// Profile returns the state entry for id, creating it with defaults when
// missing. Callers can rely on an entry existing for any id they reference.
func (s *State) Profile(id string) *ProfileState {
	if s.Profiles == nil {
		s.Profiles = make(map[string]*ProfileState)
	}
	ps, ok := s.Profiles[id]
	if !ok {
		ps = NewProfileState()
		s.Profiles[id] = ps
	}
	return ps
}

// Ensure initializes entries for every given profile id without touching
// existing data.
func (s *State) Ensure(profileIDs []string) {
	for _, id := range profileIDs {
		if id == "" {
			continue
		}
		s.Profile(id)
	}
}

// Prune removes entries for profiles outside the keep set. Used only by
// general (non-targeted) loads to garbage-collect obsolete profiles.
func (s *State) Prune(keep []string) []string {
	var removed []string
	for id := range s.Profiles {
		if !slices.Contains(keep, id) {
			delete(s.Profiles, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Rollover resets the daily counters and processed logs for every known
// profile when the stored date differs from now's UTC date. It returns true
// when a reset happened. Calling it twice in the same day is a no-op the
// second time.
func (s *State) Rollover(now time.Time) bool {
	today := now.UTC().Format(DateFormat)
	if s.LastRunDate == today {
		return false
	}
	for _, ps := range s.Profiles {
		ps.PostsToday = 0
		ps.ProcessedLog = []ProcessedEntry{}
	}
	s.LastRunDate = today
	return true
}

// normalize applies constructor defaults to entries deserialized from an
// older or hand-edited document so later code never sees nil collections.
func (s *State) normalize() {
	if s.Profiles == nil {
		s.Profiles = make(map[string]*ProfileState)
	}
	for id, ps := range s.Profiles {
		if ps == nil {
			s.Profiles[id] = NewProfileState()
			continue
		}
		if ps.PendingTickers == nil {
			ps.PendingTickers = []string{}
		}
		if ps.FailedTickers == nil {
			ps.FailedTickers = []string{}
		}
		if ps.PublishedLog == nil {
			ps.PublishedLog = []string{}
		}
		if ps.ProcessedLog == nil {
			ps.ProcessedLog = []ProcessedEntry{}
		}
	}
}
