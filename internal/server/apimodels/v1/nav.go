package v1

import "github.com/supmap/navd/internal/api"

type WaypointRequest struct {
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	IsUserLocation bool     `json:"isUserLocation"`
	Placeholder    string   `json:"placeholder"`
}

type ReorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type CalculateRequest struct {
	Mode          string `json:"mode"`
	AvoidTolls    bool   `json:"avoidTolls"`
	AvoidHighways bool   `json:"avoidHighways"`
}

type AlternativeRequest struct {
	Index *int `json:"index" binding:"required"`
}

// Coordinates use pointers so a legitimate zero (equator, prime
// meridian) still satisfies the required binding.
type AlertRequest struct {
	AlertType string   `json:"alertType" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ShareLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ShareRouteRequest struct {
	RoutePoints []api.RoutePoint `json:"routePoints" binding:"required"`
}

type PositionRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ConsentRequest struct {
	CookieConsent *bool `json:"cookieConsent" binding:"required"`
}

type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type FavoriteRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	LocationType string `json:"locationType"`
}
