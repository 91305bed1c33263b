// Package history persists completed routes. Two stores exist: a
// device-local sqlite store for signed-out use and the backend's own
// history for signed-in use. The selector picks per call, so a login
// mid-session takes effect on the next save.
package history

import (
	"context"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/session"
)

type Store interface {
	Save(ctx context.Context, item api.RouteHistoryItem) (api.RouteHistoryItem, error)
	List(ctx context.Context) ([]api.RouteHistoryItem, error)
}

type Selector struct {
	local    *LocalStore
	remote   *RemoteStore
	sessions *session.Store
}

func NewSelector(local *LocalStore, remote *RemoteStore, sessions *session.Store) *Selector {
	return &Selector{
		local:    local,
		remote:   remote,
		sessions: sessions,
	}
}

// Current returns the store matching the session state right now.
func (s *Selector) Current() Store {
	if s.sessions.Authenticated() {
		return s.remote
	}
	return s.local
}

func (s *Selector) Local() *LocalStore {
	return s.local
}

func (s *Selector) Remote() *RemoteStore {
	return s.remote
}

func (s *Selector) Save(ctx context.Context, item api.RouteHistoryItem) (api.RouteHistoryItem, error) {
	return s.Current().Save(ctx, item)
}

func (s *Selector) List(ctx context.Context) ([]api.RouteHistoryItem, error) {
	return s.Current().List(ctx)
}
