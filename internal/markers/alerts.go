package markers

import (
	"context"
	"time"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/metrics"
	"github.com/supmap/navd/internal/utils"
)

// maxRoutePoints caps the geometry sent with a corridor query.
const maxRoutePoints = 50

// AlertsManager keeps the layer of alerts around the current position.
type AlertsManager struct {
	*Manager[api.Alert]
	client *api.Client
}

func NewAlertsManager(client *api.Client, minInterval time.Duration, metrics *metrics.Metrics, bus *events.EventBus) *AlertsManager {
	return &AlertsManager{
		Manager: NewManager[api.Alert]("alerts", minInterval, metrics, bus),
		client:  client,
	}
}

func (a *AlertsManager) RefreshAt(ctx context.Context, latitude, longitude float64) bool {
	return a.Refresh(ctx, func(ctx context.Context) ([]api.Alert, error) {
		return a.client.AlertsNearPosition(ctx, latitude, longitude)
	})
}

// RouteAlertsManager keeps the layer of alerts along the active route.
type RouteAlertsManager struct {
	*Manager[api.Alert]
	client *api.Client
}

func NewRouteAlertsManager(client *api.Client, minInterval time.Duration, metrics *metrics.Metrics, bus *events.EventBus) *RouteAlertsManager {
	return &RouteAlertsManager{
		Manager: NewManager[api.Alert]("route_alerts", minInterval, metrics, bus),
		client:  client,
	}
}

// RefreshRoute queries the corridor around the given geometry. Long
// routes are downsampled before they go on the wire.
func (r *RouteAlertsManager) RefreshRoute(ctx context.Context, points []maps.LatLng) bool {
	sampled := utils.SamplePoints(points, maxRoutePoints)
	routePoints := make([]api.RoutePoint, 0, len(sampled))
	for _, p := range sampled {
		routePoints = append(routePoints, api.RoutePoint{Latitude: p.Lat, Longitude: p.Lng})
	}
	return r.Refresh(ctx, func(ctx context.Context) ([]api.Alert, error) {
		return r.client.AlertsAlongRoute(ctx, routePoints)
	})
}
