// Package runlock serializes publishing runs across processes with a Redis
// lock. Overlapping runs would race on the shared state document.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

const lockKey = "stock-publisher:run-lock"

// ErrHeld is returned by Acquire when another run holds the lock.
var ErrHeld = errors.New("publishing run already in progress")

// Lock is a single-holder Redis lock. The value stored under the key is the
// holder's run id, so Release only frees a lock this holder still owns.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// New creates a run lock. ttl bounds how long a crashed run can block the
// next one.
func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Lock {
	return &Lock{client: client, ttl: ttl, logger: log}
}

// NewClient creates a Redis client from a redis:// URL and verifies the
// connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Acquire takes the lock for runID or returns ErrHeld.
func (l *Lock) Acquire(ctx context.Context, runID string) error {
	ok, err := l.client.SetNX(ctx, lockKey, runID, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		holder, _ := l.client.Get(ctx, lockKey).Result()
		l.logger.Warn("run lock already held",
			logger.String("holder", holder),
			logger.String("run_id", runID),
		)
		return ErrHeld
	}
	return nil
}

// releaseScript deletes the key only while runID still owns it, so an
// expired-and-reacquired lock is never released out from under its new
// holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release frees the lock if runID still holds it. Failures are logged, not
// returned: the TTL reclaims a stuck lock either way.
func (l *Lock) Release(ctx context.Context, runID string) {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, runID).Err(); err != nil {
		l.logger.Warn("could not release run lock",
			logger.String("run_id", runID),
			logger.Error(err),
		)
	}
}
