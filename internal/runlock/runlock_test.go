package runlock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/runlock"
)

func newLock(t *testing.T) (*runlock.Lock, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return runlock.New(client, time.Minute, logger.NewNopLogger()), mr
}

func TestAcquireAndRelease(t *testing.T) {
	lock, _ := newLock(t)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "run-1"); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	if err := lock.Acquire(ctx, "run-2"); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("second Acquire() error = %v, want ErrHeld", err)
	}

	lock.Release(ctx, "run-1")

	if err := lock.Acquire(ctx, "run-2"); err != nil {
		t.Errorf("Acquire() after release error: %v", err)
	}
}

func TestReleaseByNonHolderIsIgnored(t *testing.T) {
	lock, _ := newLock(t)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "run-1"); err != nil {
		t.Fatal(err)
	}

	// A stale holder must not free the current holder's lock.
	lock.Release(ctx, "run-0")

	if err := lock.Acquire(ctx, "run-2"); !errors.Is(err, runlock.ErrHeld) {
		t.Errorf("Acquire() error = %v, want ErrHeld (lock must still be held)", err)
	}
}

func TestLockExpires(t *testing.T) {
	lock, mr := newLock(t)
	ctx := context.Background()

	if err := lock.Acquire(ctx, "crashed-run"); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	if err := lock.Acquire(ctx, "next-run"); err != nil {
		t.Errorf("Acquire() after TTL expiry error: %v", err)
	}
}
