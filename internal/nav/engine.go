package nav

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/history"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/markers"
	"github.com/supmap/navd/internal/metrics"
	"github.com/supmap/navd/internal/session"
	"github.com/supmap/navd/internal/utils"
)

type State string

const (
	StateIdle        State = "idle"
	StateCalculating State = "calculating"
	StateRouteReady  State = "route_ready"
	StateFailed      State = "failed"
)

var (
	ErrNoActiveRoute      = errors.New("no active route")
	ErrNoSuchAlternative  = errors.New("no such route alternative")
	ErrCalculationRunning = errors.New("a calculation is already running")
)

// routeInfoInset reserves space at the bottom of the viewport for the
// route-info panel when fitting bounds.
const routeInfoInset = 220

// MapsLoader is the slice of maps.Loader the engine needs.
type MapsLoader interface {
	Load() (maps.Service, error)
}

// Engine owns the waypoint list and the route lifecycle. All state is
// behind one mutex; SDK and backend calls happen outside it.
type Engine struct {
	loader      MapsLoader
	alerts      *markers.AlertsManager
	routeAlerts *markers.RouteAlertsManager
	users       *markers.UsersManager
	store       *history.Selector
	sessions    *session.Store
	bus         *events.EventBus
	metrics     *metrics.Metrics

	settlingDelay time.Duration

	mu            sync.Mutex
	waypoints     []Waypoint
	state         State
	calcID        string
	routes        []maps.Route
	selected      int
	calcErr       error
	saved         map[string]struct{}
	saveTimers    map[string]*time.Timer
	lastFix       *Fix
	authenticated bool
	closed        bool
}

type EngineParams struct {
	Loader        MapsLoader
	Alerts        *markers.AlertsManager
	RouteAlerts   *markers.RouteAlertsManager
	Users         *markers.UsersManager
	History       *history.Selector
	Sessions      *session.Store
	Bus           *events.EventBus
	Metrics       *metrics.Metrics
	SettlingDelay time.Duration
}

func NewEngine(params EngineParams) *Engine {
	return &Engine{
		loader:        params.Loader,
		alerts:        params.Alerts,
		routeAlerts:   params.RouteAlerts,
		users:         params.Users,
		store:         params.History,
		sessions:      params.Sessions,
		bus:           params.Bus,
		metrics:       params.Metrics,
		settlingDelay: params.SettlingDelay,
		waypoints:     defaultWaypoints(),
		state:         StateIdle,
		selected:      0,
		saved:         make(map[string]struct{}),
		saveTimers:    make(map[string]*time.Timer),
		authenticated: params.Sessions != nil && params.Sessions.Authenticated(),
	}
}

// Waypoints returns a copy of the current list in order.
func (e *Engine) Waypoints() []Waypoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.waypoints)
}

func (e *Engine) UpdateWaypoint(id string, update Waypoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.waypoints {
		if e.waypoints[i].ID != id {
			continue
		}
		update.ID = id
		if update.Placeholder == "" {
			update.Placeholder = e.waypoints[i].Placeholder
		}
		e.waypoints[i] = update
		return nil
	}
	return ErrWaypointNotFound
}

// AddWaypoint inserts a stop before the destination.
func (e *Engine) AddWaypoint(wp Waypoint) (Waypoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.waypoints) >= MaxWaypoints {
		return Waypoint{}, ErrTooManyWaypoints
	}
	wp.ID = uuid.NewString()
	if wp.Placeholder == "" {
		wp.Placeholder = "Add a stop"
	}
	e.waypoints = slices.Insert(e.waypoints, len(e.waypoints)-1, wp)
	return wp, nil
}

func (e *Engine) RemoveWaypoint(id string) error {
	if id == WaypointStartID || id == WaypointEndID {
		return ErrEndpointImmovable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.waypoints {
		if e.waypoints[i].ID == id {
			e.waypoints = slices.Delete(e.waypoints, i, i+1)
			return nil
		}
	}
	return ErrWaypointNotFound
}

// ReorderWaypoints rearranges the interior stops. The given ids must
// be a permutation of the current interior ids; endpoints stay fixed.
func (e *Engine) ReorderWaypoints(ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	interior := e.waypoints[1 : len(e.waypoints)-1]
	if len(ids) != len(interior) {
		return ErrWaypointNotFound
	}
	reordered := make([]Waypoint, 0, len(interior))
	for _, id := range ids {
		if id == WaypointStartID || id == WaypointEndID {
			return ErrEndpointImmovable
		}
		idx := slices.IndexFunc(interior, func(w Waypoint) bool { return w.ID == id })
		if idx < 0 {
			return ErrWaypointNotFound
		}
		reordered = append(reordered, interior[idx])
	}
	copy(e.waypoints[1:len(e.waypoints)-1], reordered)
	return nil
}

// CalculateRequest carries the per-calculation options.
type CalculateRequest struct {
	Mode          maps.TravelMode
	AvoidTolls    bool
	AvoidHighways bool
}

// Calculate validates the waypoints, asks the SDK for alternatives,
// and moves the state machine to RouteReady or Failed. A calculation
// superseded by Cancel or a newer Calculate discards its result.
func (e *Engine) Calculate(ctx context.Context, req CalculateRequest) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrNoActiveRoute
	}
	if e.state == StateCalculating {
		e.mu.Unlock()
		return ErrCalculationRunning
	}

	dirReq, err := e.buildDirectionsRequestLocked(req)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	calcID := uuid.NewString()
	e.calcID = calcID
	e.state = StateCalculating
	e.calcErr = nil
	e.mu.Unlock()

	svc, err := e.loader.Load()
	if err != nil {
		return e.finishCalculation(ctx, calcID, nil, err)
	}
	routes, err := svc.Directions(ctx, dirReq)
	return e.finishCalculation(ctx, calcID, routes, err)
}

func (e *Engine) buildDirectionsRequestLocked(req CalculateRequest) (maps.DirectionsRequest, error) {
	valued := 0
	for _, wp := range e.waypoints {
		if wp.hasValue() {
			valued++
		}
	}
	first := e.waypoints[0]
	last := e.waypoints[len(e.waypoints)-1]
	if valued < 2 || !first.hasValue() || !last.hasValue() {
		return maps.DirectionsRequest{}, ErrNotEnoughWaypoints
	}

	origin, err := first.value(e.lastFix)
	if err != nil {
		return maps.DirectionsRequest{}, err
	}
	destination, err := last.value(e.lastFix)
	if err != nil {
		return maps.DirectionsRequest{}, err
	}

	dirReq := maps.DirectionsRequest{
		Origin:        origin,
		Destination:   destination,
		Mode:          req.Mode,
		AvoidTolls:    req.AvoidTolls,
		AvoidHighways: req.AvoidHighways,
	}
	for _, wp := range e.waypoints[1 : len(e.waypoints)-1] {
		if !wp.hasValue() {
			continue
		}
		stop, err := wp.value(e.lastFix)
		if err != nil {
			return maps.DirectionsRequest{}, err
		}
		dirReq.Waypoints = append(dirReq.Waypoints, stop)
	}
	return dirReq, nil
}

func (e *Engine) finishCalculation(ctx context.Context, calcID string, routes []maps.Route, err error) error {
	e.mu.Lock()

	if e.closed || calcID != e.calcID {
		e.mu.Unlock()
		return nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			e.state = StateIdle
			e.mu.Unlock()
			return nil
		}
		e.state = StateFailed
		e.calcErr = err
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.IncrementRouteCalculations("error")
		}
		return fmt.Errorf("route calculation failed: %w", err)
	}

	e.state = StateRouteReady
	e.routes = routes
	e.selected = 0
	route := routes[0]
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.IncrementRouteCalculations("ok")
	}
	if e.bus != nil {
		e.bus.Publish(events.RouteReadyEvent{Routes: len(routes), Selected: 0})
	}
	e.fitViewport(route)
	if e.routeAlerts != nil {
		e.routeAlerts.RefreshRoute(ctx, route.Points())
	}
	e.scheduleSave(calcID, 0)
	return nil
}

// RouteStatus is the facade-facing view of the state machine.
type RouteStatus struct {
	State    State        `json:"state"`
	Routes   []maps.Route `json:"routes,omitempty"`
	Selected int          `json:"selected"`
	Error    string       `json:"error,omitempty"`
}

func (e *Engine) Route() RouteStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	status := RouteStatus{
		State:    e.state,
		Routes:   e.routes,
		Selected: e.selected,
	}
	if e.calcErr != nil {
		status.Error = e.calcErr.Error()
	}
	return status
}

// SelectAlternative switches the displayed route without recomputing
// it, refreshes the corridor alerts for the new geometry, refits the
// viewport, and schedules a history save if this alternative has not
// been saved for the current calculation.
func (e *Engine) SelectAlternative(ctx context.Context, index int) error {
	e.mu.Lock()
	if e.state != StateRouteReady {
		e.mu.Unlock()
		return ErrNoActiveRoute
	}
	if index < 0 || index >= len(e.routes) {
		e.mu.Unlock()
		return ErrNoSuchAlternative
	}
	e.selected = index
	calcID := e.calcID
	route := e.routes[index]
	total := len(e.routes)
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.Publish(events.RouteReadyEvent{Routes: total, Selected: index})
	}
	e.fitViewport(route)
	if e.routeAlerts != nil {
		e.routeAlerts.RefreshRoute(ctx, route.Points())
	}
	e.scheduleSave(calcID, index)
	return nil
}

// Cancel clears the active route, resets the selected index, and
// drops the corridor alert markers so nothing from the cancelled route
// stays visible.
func (e *Engine) Cancel() {
	e.mu.Lock()
	for key, timer := range e.saveTimers {
		timer.Stop()
		delete(e.saveTimers, key)
	}
	e.calcID = ""
	e.routes = nil
	e.selected = 0
	e.calcErr = nil
	e.state = StateIdle
	clear(e.saved)
	e.mu.Unlock()

	if e.routeAlerts != nil {
		e.routeAlerts.Clear()
	}
	if e.bus != nil {
		e.bus.Publish(events.RouteClearedEvent{})
	}
}

func (e *Engine) fitViewport(route maps.Route) {
	if e.bus == nil {
		return
	}
	sw, ne := route.Bounds()
	e.bus.Publish(events.ViewportEvent{
		SouthWestLat: sw.Lat,
		SouthWestLng: sw.Lng,
		NorthEastLat: ne.Lat,
		NorthEastLng: ne.Lng,
		BottomInset:  routeInfoInset,
	})
}

func (e *Engine) scheduleSave(calcID string, index int) {
	key := fmt.Sprintf("%s:%d", calcID, index)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || calcID != e.calcID {
		return
	}
	if _, ok := e.saved[key]; ok {
		return
	}
	e.saved[key] = struct{}{}
	e.saveTimers[key] = time.AfterFunc(e.settlingDelay, func() {
		e.saveRoute(calcID, index, key)
	})
}

func (e *Engine) saveRoute(calcID string, index int, key string) {
	e.mu.Lock()
	delete(e.saveTimers, key)
	if e.closed || calcID != e.calcID || e.state != StateRouteReady || index >= len(e.routes) {
		e.mu.Unlock()
		return
	}
	route := e.routes[index]
	e.mu.Unlock()

	if len(route.Legs) == 0 || e.store == nil {
		return
	}
	firstLeg := route.Legs[0]
	lastLeg := route.Legs[len(route.Legs)-1]
	item := api.RouteHistoryItem{
		StartAddress:               firstLeg.StartAddress,
		EndAddress:                 lastLeg.EndAddress,
		StartPoint:                 api.RoutePoint{Latitude: firstLeg.Start.Lat, Longitude: firstLeg.Start.Lng},
		EndPoint:                   api.RoutePoint{Latitude: lastLeg.End.Lat, Longitude: lastLeg.End.Lng},
		KilometersDistance:         float64(route.TotalMeters()) / 1000,
		EstimatedDurationInSeconds: int64(route.TotalDuration().Seconds()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	saved, err := e.store.Save(ctx, item)
	if err != nil {
		slog.Warn("Failed to save route to history", "error", err)
		return
	}
	if e.bus != nil {
		e.bus.Publish(events.HistorySavedEvent{ID: saved.ID, Local: saved.UserID == api.LocalUserID})
	}
}

// HandleFix applies a position update. Fixes within the jitter window
// of the previous one are discarded; accepted fixes fan out to the
// nearby-alert and nearby-user managers, each behind its own throttle.
// Returns whether the fix was accepted.
func (e *Engine) HandleFix(ctx context.Context, fix Fix) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if e.lastFix != nil && utils.WithinJitter(e.lastFix.Latitude, e.lastFix.Longitude, fix.Latitude, fix.Longitude) {
		e.mu.Unlock()
		return false
	}
	e.lastFix = &fix
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.Publish(events.PositionEvent{Latitude: fix.Latitude, Longitude: fix.Longitude})
	}
	if e.alerts != nil {
		e.alerts.RefreshAt(ctx, fix.Latitude, fix.Longitude)
	}
	if e.users != nil {
		e.users.RefreshAt(ctx, fix.Latitude, fix.Longitude)
	}
	e.checkAuthTransition(ctx)
	return true
}

// AlertsSnapshot exposes the nearby-alert marker layer.
func (e *Engine) AlertsSnapshot() markers.Snapshot[api.Alert] {
	if e.alerts == nil {
		return markers.Snapshot[api.Alert]{}
	}
	return e.alerts.Snapshot()
}

// RouteAlertsSnapshot exposes the corridor-alert marker layer.
func (e *Engine) RouteAlertsSnapshot() markers.Snapshot[api.Alert] {
	if e.routeAlerts == nil {
		return markers.Snapshot[api.Alert]{}
	}
	return e.routeAlerts.Snapshot()
}

// UsersSnapshot exposes the nearby-user marker layer.
func (e *Engine) UsersSnapshot() markers.Snapshot[api.NearbyUser] {
	if e.users == nil {
		return markers.Snapshot[api.NearbyUser]{}
	}
	return e.users.Snapshot()
}

// LastFix returns the most recent accepted fix, if any.
func (e *Engine) LastFix() (Fix, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastFix == nil {
		return Fix{}, false
	}
	return *e.lastFix, true
}

// checkAuthTransition kicks a best-effort local-to-remote history sync
// when a session appears.
func (e *Engine) checkAuthTransition(ctx context.Context) {
	if e.sessions == nil {
		return
	}
	authed := e.sessions.Authenticated()

	e.mu.Lock()
	was := e.authenticated
	e.authenticated = authed
	e.mu.Unlock()

	if was || !authed || e.store == nil {
		return
	}
	go func() {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		synced, err := e.store.SyncToRemote(syncCtx)
		if err != nil {
			slog.Warn("Route history sync finished with errors", "synced", synced, "error", err)
			return
		}
		if synced > 0 {
			slog.Info("Synced local route history to backend", "synced", synced)
		}
	}()
}

// Close stops pending save timers and rejects further work. Marker
// managers are closed by their owner.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for key, timer := range e.saveTimers {
		timer.Stop()
		delete(e.saveTimers, key)
	}
}
