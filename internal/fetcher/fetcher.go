package fetcher

import (
	"context"

	"training-load/internal/trainload"
)

// ActivitySource retrieves exercise activities from an external provider.
type ActivitySource interface {
	// FetchActivities returns activities started within the past N days.
	FetchActivities(ctx context.Context, days int) ([]trainload.Activity, error)
	// LatestActivity returns the most recent activity, or nil when the
	// athlete has none.
	LatestActivity(ctx context.Context) (*trainload.Activity, error)
}
