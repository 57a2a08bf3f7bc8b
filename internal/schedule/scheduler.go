// Package schedule computes future publish timestamps for scheduled posts,
// spacing publications apart with randomized gaps.
package schedule

import (
	"math/rand"
	"time"
)

const (
	// seedClampMinMinutes..seedClampMaxMinutes bound the short offset used
	// when the first candidate would land in the past (stale state from a
	// long-idle deployment) or no previous schedule exists.
	seedClampMinMinutes = 5
	seedClampMaxMinutes = 10

	// advanceClampMinMinutes..advanceClampMaxMinutes bound the clamp for
	// subsequent posts within the same run.
	advanceClampMinMinutes = 2
	advanceClampMaxMinutes = 5
)

// Scheduler computes UTC publish timestamps for a single profile within one
// run. Gap bounds are inclusive minutes; callers validate min <= max at
// config load time.
type Scheduler struct {
	minGap int
	maxGap int
	now    func() time.Time
	rng    *rand.Rand
}

// Option customizes a Scheduler. Used by tests to pin the clock and the
// random source.
type Option func(*Scheduler)

// WithNow overrides the wall clock.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRand overrides the random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = rng }
}

// New creates a Scheduler with the given inclusive gap bounds in minutes.
func New(minGap, maxGap int, opts ...Option) *Scheduler {
	s := &Scheduler{
		minGap: minGap,
		maxGap: maxGap,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed returns the candidate time for the first post of a run. When a last
// successful schedule time is known the candidate is that time plus a random
// gap; otherwise, or when the candidate would be in the past, it is a short
// random offset from now.
func (s *Scheduler) Seed(lastSchedule time.Time, hasLast bool) time.Time {
	now := s.now().UTC()

	var candidate time.Time
	if hasLast {
		candidate = lastSchedule.UTC().Add(s.gap())
	} else {
		candidate = now.Add(s.offset(seedClampMinMinutes, seedClampMaxMinutes))
	}

	if candidate.Before(now) {
		candidate = now.Add(s.offset(seedClampMinMinutes, seedClampMaxMinutes))
	}
	return candidate
}

// Advance returns the scheduled time for a subsequent post in the same run:
// the previous post's time plus a fresh random gap, clamped forward if the
// result somehow lands in the past. Times within one run are strictly
// increasing.
func (s *Scheduler) Advance(prev time.Time) time.Time {
	candidate := prev.UTC().Add(s.gap())
	if now := s.now().UTC(); candidate.Before(now) {
		candidate = now.Add(s.offset(advanceClampMinMinutes, advanceClampMaxMinutes))
	}
	return candidate
}

// Clamp pushes a candidate forward to a short offset from now if it is in
// the past. Used just before post creation for the first post of the loop.
func (s *Scheduler) Clamp(candidate time.Time) time.Time {
	if now := s.now().UTC(); candidate.Before(now) {
		return now.Add(s.offset(advanceClampMinMinutes, advanceClampMaxMinutes))
	}
	return candidate
}

// gap returns a random duration in [minGap, maxGap] minutes, inclusive.
func (s *Scheduler) gap() time.Duration {
	return s.offset(s.minGap, s.maxGap)
}

func (s *Scheduler) offset(minMinutes, maxMinutes int) time.Duration {
	if maxMinutes <= minMinutes {
		return time.Duration(minMinutes) * time.Minute
	}
	n := minMinutes + s.rng.Intn(maxMinutes-minMinutes+1)
	return time.Duration(n) * time.Minute
}
