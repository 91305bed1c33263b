package markers

import (
	"context"
	"time"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/metrics"
	"github.com/supmap/navd/internal/session"
)

// UsersManager keeps the layer of nearby users. The backend endpoint
// is private, so refreshes are skipped entirely without a session.
type UsersManager struct {
	*Manager[api.NearbyUser]
	client   *api.Client
	sessions *session.Store
}

func NewUsersManager(client *api.Client, sessions *session.Store, minInterval time.Duration, metrics *metrics.Metrics, bus *events.EventBus) *UsersManager {
	return &UsersManager{
		Manager:  NewManager[api.NearbyUser]("users", minInterval, metrics, bus),
		client:   client,
		sessions: sessions,
	}
}

func (u *UsersManager) RefreshAt(ctx context.Context, latitude, longitude float64) bool {
	if !u.sessions.Authenticated() {
		return false
	}
	return u.Refresh(ctx, func(ctx context.Context) ([]api.NearbyUser, error) {
		return u.client.NearbyUsers(ctx, latitude, longitude)
	})
}
