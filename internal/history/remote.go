package history

import (
	"context"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/metrics"
)

// RemoteStore delegates route history to the backend.
type RemoteStore struct {
	client  *api.Client
	metrics *metrics.Metrics
}

func NewRemoteStore(client *api.Client, metrics *metrics.Metrics) *RemoteStore {
	return &RemoteStore{client: client, metrics: metrics}
}

func (s *RemoteStore) Save(ctx context.Context, item api.RouteHistoryItem) (api.RouteHistoryItem, error) {
	saved, err := s.client.SaveRoute(ctx, item)
	if err != nil {
		return api.RouteHistoryItem{}, err
	}
	if s.metrics != nil {
		s.metrics.IncrementHistorySaves("remote")
	}
	return saved, nil
}

func (s *RemoteStore) List(ctx context.Context) ([]api.RouteHistoryItem, error) {
	return s.client.ListRouteHistory(ctx)
}
