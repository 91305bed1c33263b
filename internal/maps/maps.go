package maps

import (
	"context"
	"time"

	"github.com/go-errors/errors"
)

// LatLng is the SDK-side coordinate literal, distinct from the
// backend's RoutePoint wire type.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type TravelMode string

const (
	TravelModeDriving   TravelMode = "DRIVING"
	TravelModeWalking   TravelMode = "WALKING"
	TravelModeBicycling TravelMode = "BICYCLING"
	TravelModeTransit   TravelMode = "TRANSIT"
)

type Leg struct {
	StartAddress string        `json:"start_address"`
	EndAddress   string        `json:"end_address"`
	Start        LatLng        `json:"start"`
	End          LatLng        `json:"end"`
	Meters       int           `json:"meters"`
	Duration     time.Duration `json:"duration"`
	Points       []LatLng      `json:"points"`
}

type Route struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

// Points flattens the route geometry in travel order.
func (r Route) Points() []LatLng {
	var points []LatLng
	for _, leg := range r.Legs {
		points = append(points, leg.Points...)
	}
	return points
}

func (r Route) TotalMeters() int {
	total := 0
	for _, leg := range r.Legs {
		total += leg.Meters
	}
	return total
}

func (r Route) TotalDuration() time.Duration {
	var total time.Duration
	for _, leg := range r.Legs {
		total += leg.Duration
	}
	return total
}

// Bounds returns the south-west and north-east corners of the route
// geometry for viewport fitting.
func (r Route) Bounds() (LatLng, LatLng) {
	points := r.Points()
	if len(points) == 0 {
		return LatLng{}, LatLng{}
	}
	sw := points[0]
	ne := points[0]
	for _, p := range points[1:] {
		if p.Lat < sw.Lat {
			sw.Lat = p.Lat
		}
		if p.Lng < sw.Lng {
			sw.Lng = p.Lng
		}
		if p.Lat > ne.Lat {
			ne.Lat = p.Lat
		}
		if p.Lng > ne.Lng {
			ne.Lng = p.Lng
		}
	}
	return sw, ne
}

type DirectionsRequest struct {
	Origin        string
	Destination   string
	Waypoints     []string
	Mode          TravelMode
	AvoidTolls    bool
	AvoidHighways bool
}

type GeocodeResult struct {
	Location         LatLng
	FormattedAddress string
	Street           string
	City             string
	PostalCode       string
	Country          string
}

var (
	ErrNoRoutes          = errors.New("no routes found")
	ErrAddressUnresolved = errors.New("address could not be resolved")
)

// Service is the slice of the mapping SDK the daemon consumes. Route
// computation and geocoding are delegated entirely to the SDK; the
// daemon only calls and interprets.
type Service interface {
	Directions(ctx context.Context, req DirectionsRequest) ([]Route, error)
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}
