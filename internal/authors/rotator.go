// Package authors implements round-robin selection of publishing identities.
package authors

import "github.com/jonesrussell/stock-publisher/internal/models"

// Rotator dispenses a profile's authors cyclically, resuming after the last
// author used by a previous run. Each dispense reports the author's index in
// the profile list so callers can persist the cursor immediately; a crash
// mid-run then resumes rotation correctly instead of restarting.
type Rotator struct {
	authors []models.Author
	next    int
}

// NewRotator creates a Rotator over authors, starting after lastIndex.
// A negative lastIndex starts from the beginning; a stale index beyond the
// list wraps via modulo.
func NewRotator(list []models.Author, lastIndex int) *Rotator {
	next := 0
	if len(list) > 0 && lastIndex >= 0 {
		next = (lastIndex + 1) % len(list)
	}
	return &Rotator{authors: list, next: next}
}

// Len returns the number of authors in the rotation.
func (r *Rotator) Len() int {
	return len(r.authors)
}

// Next dispenses the next author and its index in the profile's list,
// wrapping around. The boolean is false when the rotation is empty.
func (r *Rotator) Next() (models.Author, int, bool) {
	if len(r.authors) == 0 {
		return models.Author{}, -1, false
	}
	idx := r.next
	author := r.authors[idx]
	r.next = (idx + 1) % len(r.authors)
	return author, idx, true
}
