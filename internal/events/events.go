package events

import "log/slog"

type EventType string

const (
	EventTypePosition     EventType = "position"
	EventTypeRouteReady   EventType = "route_ready"
	EventTypeRouteCleared EventType = "route_cleared"
	EventTypeViewport     EventType = "viewport"
	EventTypeMarkers      EventType = "markers"
	EventTypeHistorySaved EventType = "history_saved"
)

type Event interface {
	GetType() EventType
}

type PositionEvent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (e PositionEvent) GetType() EventType {
	return EventTypePosition
}

type RouteReadyEvent struct {
	Routes   int `json:"routes"`
	Selected int `json:"selected"`
}

func (e RouteReadyEvent) GetType() EventType {
	return EventTypeRouteReady
}

type RouteClearedEvent struct{}

func (e RouteClearedEvent) GetType() EventType {
	return EventTypeRouteCleared
}

// ViewportEvent asks the map surface to fit its camera to the given
// bounds, reserving BottomInset pixels for the route-info panel.
type ViewportEvent struct {
	SouthWestLat float64 `json:"south_west_lat"`
	SouthWestLng float64 `json:"south_west_lng"`
	NorthEastLat float64 `json:"north_east_lat"`
	NorthEastLng float64 `json:"north_east_lng"`
	BottomInset  int     `json:"bottom_inset"`
}

func (e ViewportEvent) GetType() EventType {
	return EventTypeViewport
}

// MarkersEvent announces that a manager replaced its whole marker set.
type MarkersEvent struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Seq    uint64 `json:"seq"`
}

func (e MarkersEvent) GetType() EventType {
	return EventTypeMarkers
}

type HistorySavedEvent struct {
	ID    string `json:"id"`
	Local bool   `json:"local"`
}

func (e HistorySavedEvent) GetType() EventType {
	return EventTypeHistorySaved
}

type EventBus struct {
	eventQueue chan Event
}

func NewEventBus() *EventBus {
	return &EventBus{
		eventQueue: make(chan Event, 100),
	}
}

func (eb *EventBus) GetChannel() chan Event {
	return eb.eventQueue
}

// Publish never blocks the engine; a full queue drops the event.
func (eb *EventBus) Publish(event Event) {
	select {
	case eb.eventQueue <- event:
	default:
		slog.Warn("Event queue full, dropping event", "type", string(event.GetType()))
	}
}
