package nav

import (
	"fmt"
	"strings"

	"github.com/go-errors/errors"
	"github.com/supmap/navd/internal/maps"
)

const (
	// WaypointStartID and WaypointEndID are stable across reorders.
	// The endpoints are only ever edited, never removed.
	WaypointStartID = "start"
	WaypointEndID   = "end"

	// MaxWaypoints caps the list including both endpoints.
	MaxWaypoints = 7
)

var (
	ErrTooManyWaypoints   = errors.New("waypoint limit reached")
	ErrWaypointNotFound   = errors.New("waypoint not found")
	ErrEndpointImmovable  = errors.New("origin and destination cannot be removed or reordered")
	ErrNotEnoughWaypoints = errors.New("at least two waypoints with values are required")
	ErrNoPositionFix      = errors.New("no position fix available for user-location waypoint")
)

type Waypoint struct {
	ID             string       `json:"id"`
	Placeholder    string       `json:"placeholder"`
	Address        string       `json:"address"`
	Coords         *maps.LatLng `json:"coords,omitempty"`
	IsUserLocation bool         `json:"is_user_location"`
}

func (w Waypoint) hasValue() bool {
	return w.IsUserLocation || w.Coords != nil || strings.TrimSpace(w.Address) != ""
}

// value renders the waypoint for the directions request. A
// user-location waypoint substitutes the live fix at call time.
func (w Waypoint) value(fix *Fix) (string, error) {
	if w.IsUserLocation {
		if fix == nil {
			return "", ErrNoPositionFix
		}
		return fmt.Sprintf("%f,%f", fix.Latitude, fix.Longitude), nil
	}
	if w.Coords != nil {
		return fmt.Sprintf("%f,%f", w.Coords.Lat, w.Coords.Lng), nil
	}
	return strings.TrimSpace(w.Address), nil
}

func defaultWaypoints() []Waypoint {
	return []Waypoint{
		{ID: WaypointStartID, Placeholder: "Choose a starting point"},
		{ID: WaypointEndID, Placeholder: "Choose a destination"},
	}
}
