package authors_test

import (
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/authors"
	"github.com/jonesrussell/stock-publisher/internal/models"
)

func testAuthors() []models.Author {
	return []models.Author{
		{Username: "alice"},
		{Username: "bob"},
		{Username: "carol"},
	}
}

func TestRotatorResumesAfterLastIndex(t *testing.T) {
	testCases := []struct {
		name      string
		lastIndex int
		wantOrder []string
	}{
		{name: "fresh profile", lastIndex: -1, wantOrder: []string{"alice", "bob", "carol", "alice"}},
		{name: "resume mid list", lastIndex: 1, wantOrder: []string{"carol", "alice", "bob"}},
		{name: "resume from end wraps", lastIndex: 2, wantOrder: []string{"alice", "bob"}},
		{name: "stale index wraps via modulo", lastIndex: 99, wantOrder: []string{"bob"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := authors.NewRotator(testAuthors(), tc.lastIndex)

			for i, want := range tc.wantOrder {
				got, _, ok := r.Next()
				if !ok {
					t.Fatalf("Next() at step %d returned ok = false", i)
				}
				if got.Username != want {
					t.Errorf("Next() at step %d = %s, want %s", i, got.Username, want)
				}
			}
		})
	}
}

func TestRotatorReportsIndices(t *testing.T) {
	r := authors.NewRotator(testAuthors(), 0)

	_, idx, _ := r.Next()
	if idx != 1 {
		t.Errorf("first Next() index = %d, want 1", idx)
	}
	_, idx, _ = r.Next()
	if idx != 2 {
		t.Errorf("second Next() index = %d, want 2", idx)
	}
	_, idx, _ = r.Next()
	if idx != 0 {
		t.Errorf("third Next() index = %d, want 0 (wrapped)", idx)
	}
}

func TestRotatorEmpty(t *testing.T) {
	r := authors.NewRotator(nil, -1)

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, _, ok := r.Next(); ok {
		t.Error("Next() on empty rotation returned ok = true")
	}
}
