// Package profiles persists site profiles: which WordPress sites to publish
// to, with what authors, sheets and scheduling gaps.
package profiles

import (
	"context"
	"errors"

	"github.com/jonesrussell/stock-publisher/internal/models"
)

// ErrNotFound is returned when a profile id does not exist for the user.
var ErrNotFound = errors.New("profile not found")

// Store is the profile persistence surface. Profiles are scoped per user so
// several tenants can share one deployment.
type Store interface {
	List(ctx context.Context, userID string) ([]models.Profile, error)
	Get(ctx context.Context, userID, profileID string) (*models.Profile, error)
	Put(ctx context.Context, userID string, profile models.Profile) error
	Delete(ctx context.Context, userID, profileID string) error
}
