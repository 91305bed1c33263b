package api

import "time"

// RoutePoint is the wire representation of a coordinate exchanged with
// the backend, distinct from the maps SDK's own lat/lng literal.
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AlertType string

const (
	AlertTypeAccident     AlertType = "ACCIDENT"
	AlertTypeTrafficJam   AlertType = "TRAFFIC_JAM"
	AlertTypeConstruction AlertType = "CONSTRUCTION"
	AlertTypeRoadClosure  AlertType = "ROAD_CLOSURE"
	AlertTypeWeather      AlertType = "WEATHER"
	AlertTypeOther        AlertType = "OTHER"
)

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "LOW"
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	AlertSeverityHigh   AlertSeverity = "HIGH"
)

// Alert is a community-reported traffic alert. Alerts are ephemeral:
// fetched fresh per query and discarded when markers are cleared.
type Alert struct {
	ID          string        `json:"id"`
	Type        AlertType     `json:"type"`
	Location    RoutePoint    `json:"location"`
	RoadName    string        `json:"roadName"`
	Description string        `json:"description"`
	Severity    AlertSeverity `json:"severity,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type NearbyUser struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Location RoutePoint `json:"location"`
}

type LocationType string

const (
	LocationTypeHome     LocationType = "HOME"
	LocationTypeWork     LocationType = "WORK"
	LocationTypeFavorite LocationType = "FAVORITE"
	LocationTypeOther    LocationType = "OTHER"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type FavoriteLocation struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	FormattedAddress string       `json:"formattedAddress"`
	Coordinates      Coordinates  `json:"coordinates"`
	Street           string       `json:"street"`
	City             string       `json:"city"`
	PostalCode       string       `json:"postalCode"`
	Country          string       `json:"country"`
	LocationType     LocationType `json:"locationType"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// LocalUserID tags route history rows that belong to the device rather
// than to an account.
const LocalUserID = "local"

type RouteHistoryItem struct {
	ID                         string     `json:"id"`
	StartAddress               string     `json:"startAddress"`
	EndAddress                 string     `json:"endAddress"`
	StartPoint                 RoutePoint `json:"startPoint"`
	EndPoint                   RoutePoint `json:"endPoint"`
	KilometersDistance         float64    `json:"kilometersDistance"`
	EstimatedDurationInSeconds int64      `json:"estimatedDurationInSeconds"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UserID                     string     `json:"userId"`
}

type NavigationPreferences struct {
	AvoidTolls     bool   `json:"avoidTolls"`
	AvoidHighways  bool   `json:"avoidHighways"`
	PreferredMode  string `json:"preferredMode"`
	ProximityAlert bool   `json:"proximityAlert"`
}
