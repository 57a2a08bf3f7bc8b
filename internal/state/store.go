package state

import "context"

// Store loads and saves the publisher state document.
//
// Load never fails the caller: a missing, corrupt or newer-schema document is
// replaced with a freshly-initialized default (persisted immediately, so a
// corrupt store self-heals). Load guarantees an entry exists for every id in
// profileIDs, applies the UTC daily rollover, and prunes entries outside
// profileIDs only when targeted is false (a general load); a targeted run
// leaves other profiles' state untouched.
//
// Save persists the whole document as one atomic unit. A save failure is
// returned for logging but must not abort the caller's run.
type Store interface {
	Load(ctx context.Context, profileIDs []string, targeted bool) *State
	Save(ctx context.Context, s *State) error
}
