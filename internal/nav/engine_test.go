package nav_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/db/models"
	"github.com/supmap/navd/internal/history"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/markers"
	"github.com/supmap/navd/internal/nav"
	"github.com/supmap/navd/internal/session"
	"gorm.io/gorm"
)

type fakeMaps struct {
	mu              sync.Mutex
	directionsCalls int
	lastRequest     maps.DirectionsRequest
	routes          []maps.Route
	err             error
}

func (f *fakeMaps) Directions(_ context.Context, req maps.DirectionsRequest) ([]maps.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directionsCalls++
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.routes, nil
}

func (f *fakeMaps) Geocode(_ context.Context, _ string) (maps.GeocodeResult, error) {
	return maps.GeocodeResult{}, maps.ErrAddressUnresolved
}

func (f *fakeMaps) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.directionsCalls
}

func (f *fakeMaps) request() maps.DirectionsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequest
}

type fakeLoader struct {
	svc maps.Service
}

func (f fakeLoader) Load() (maps.Service, error) {
	return f.svc, nil
}

func twoLegRoute(summary string) maps.Route {
	return maps.Route{
		Summary: summary,
		Legs: []maps.Leg{
			{
				StartAddress: "1 Origin Street",
				EndAddress:   "Midpoint",
				Start:        maps.LatLng{Lat: 48.85, Lng: 2.29},
				End:          maps.LatLng{Lat: 48.86, Lng: 2.31},
				Meters:       4000,
				Duration:     5 * time.Minute,
				Points:       []maps.LatLng{{Lat: 48.85, Lng: 2.29}, {Lat: 48.86, Lng: 2.31}},
			},
			{
				StartAddress: "Midpoint",
				EndAddress:   "2 Destination Avenue",
				Start:        maps.LatLng{Lat: 48.86, Lng: 2.31},
				End:          maps.LatLng{Lat: 48.87, Lng: 2.33},
				Meters:       6000,
				Duration:     10 * time.Minute,
				Points:       []maps.LatLng{{Lat: 48.86, Lng: 2.31}, {Lat: 48.87, Lng: 2.33}},
			},
		},
	}
}

func makeHistory(t *testing.T) (*history.Selector, *history.LocalStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.AutoMigrate(&models.RouteHistory{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sessions, err := session.NewStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	local := history.NewLocalStore(db, nil)
	client := api.NewClient("http://localhost:0", sessions)
	return history.NewSelector(local, history.NewRemoteStore(client, nil), sessions), local
}

func waitForHistory(t *testing.T, local *history.LocalStore, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		items, err := local.List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	items, _ := local.List(context.Background())
	t.Fatalf("expected %d history items, got %d", want, len(items))
}

func setEndpoints(t *testing.T, engine *nav.Engine, origin, destination string) {
	t.Helper()
	if err := engine.UpdateWaypoint(nav.WaypointStartID, nav.Waypoint{Address: origin}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.UpdateWaypoint(nav.WaypointEndID, nav.Waypoint{Address: destination}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCalculateRequiresTwoEndpoints(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{routes: []maps.Route{twoLegRoute("via midpoint")}}
	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: fake}, SettlingDelay: time.Millisecond})

	err := engine.Calculate(context.Background(), nav.CalculateRequest{Mode: maps.TravelModeDriving})
	if !errors.Is(err, nav.ErrNotEnoughWaypoints) {
		t.Errorf("unexpected error: %v", err)
	}
	if fake.calls() != 0 {
		t.Errorf("expected no directions request, got %d", fake.calls())
	}

	// Only one endpoint has a value; still not enough
	if err := engine.UpdateWaypoint(nav.WaypointStartID, nav.Waypoint{Address: "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = engine.Calculate(context.Background(), nav.CalculateRequest{Mode: maps.TravelModeDriving})
	if !errors.Is(err, nav.ErrNotEnoughWaypoints) {
		t.Errorf("unexpected error: %v", err)
	}
	if fake.calls() != 0 {
		t.Errorf("expected no directions request, got %d", fake.calls())
	}
}

func TestDrivingCalculationSchedulesOneSave(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{routes: []maps.Route{twoLegRoute("via midpoint")}}
	selector, local := makeHistory(t)
	engine := nav.NewEngine(nav.EngineParams{
		Loader:        fakeLoader{svc: fake},
		History:       selector,
		SettlingDelay: 10 * time.Millisecond,
	})
	setEndpoints(t, engine, "A", "B")

	if err := engine.Calculate(context.Background(), nav.CalculateRequest{Mode: maps.TravelModeDriving}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.request().Mode != maps.TravelModeDriving {
		t.Errorf("unexpected travel mode: %s", fake.request().Mode)
	}
	if fake.request().Origin != "A" || fake.request().Destination != "B" {
		t.Errorf("unexpected endpoints: %s -> %s", fake.request().Origin, fake.request().Destination)
	}

	status := engine.Route()
	if status.State != nav.StateRouteReady {
		t.Errorf("unexpected state: %s", status.State)
	}
	if status.Selected != 0 {
		t.Errorf("unexpected selected index: %d", status.Selected)
	}

	waitForHistory(t, local, 1)

	items, err := local.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].StartAddress != "1 Origin Street" {
		t.Errorf("unexpected start address: %s", items[0].StartAddress)
	}
	if items[0].EndAddress != "2 Destination Avenue" {
		t.Errorf("unexpected end address: %s", items[0].EndAddress)
	}
	if items[0].KilometersDistance != 10 {
		t.Errorf("unexpected distance: %f", items[0].KilometersDistance)
	}
	if items[0].EstimatedDurationInSeconds != 900 {
		t.Errorf("unexpected duration: %d", items[0].EstimatedDurationInSeconds)
	}
	engine.Close()
}

func TestHistoryIdempotencePerAlternative(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{routes: []maps.Route{twoLegRoute("fastest"), twoLegRoute("no tolls")}}
	selector, local := makeHistory(t)
	engine := nav.NewEngine(nav.EngineParams{
		Loader:        fakeLoader{svc: fake},
		History:       selector,
		SettlingDelay: 10 * time.Millisecond,
	})
	setEndpoints(t, engine, "A", "B")

	if err := engine.Calculate(context.Background(), nav.CalculateRequest{Mode: maps.TravelModeDriving}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForHistory(t, local, 1)

	// Re-selecting the current alternative must not add an entry
	if err := engine.SelectAlternative(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	waitForHistory(t, local, 1)

	// A different alternative gets its own entry
	if err := engine.SelectAlternative(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForHistory(t, local, 2)

	// No SDK recompute for any of the selections
	if fake.calls() != 1 {
		t.Errorf("expected one directions request, got %d", fake.calls())
	}
	engine.Close()
}

func TestSelectAlternativeOutOfRange(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{routes: []maps.Route{twoLegRoute("only")}}
	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: fake}, SettlingDelay: time.Millisecond})
	setEndpoints(t, engine, "A", "B")

	if err := engine.SelectAlternative(context.Background(), 0); !errors.Is(err, nav.ErrNoActiveRoute) {
		t.Errorf("unexpected error: %v", err)
	}

	if err := engine.Calculate(context.Background(), nav.CalculateRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.SelectAlternative(context.Background(), 5); !errors.Is(err, nav.ErrNoSuchAlternative) {
		t.Errorf("unexpected error: %v", err)
	}
	engine.Close()
}

func TestCancelClearsRouteState(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{routes: []maps.Route{twoLegRoute("fastest"), twoLegRoute("no tolls")}}
	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: fake}, SettlingDelay: time.Hour})
	setEndpoints(t, engine, "A", "B")

	if err := engine.Calculate(context.Background(), nav.CalculateRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.SelectAlternative(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine.Cancel()
	status := engine.Route()
	if status.State != nav.StateIdle {
		t.Errorf("unexpected state: %s", status.State)
	}
	if status.Selected != 0 {
		t.Errorf("unexpected selected index: %d", status.Selected)
	}
	if len(status.Routes) != 0 {
		t.Errorf("unexpected routes: %d", len(status.Routes))
	}
	engine.Close()
}

func TestCalculationFailureSurfaces(t *testing.T) {
	t.Parallel()

	fake := &fakeMaps{err: maps.ErrNoRoutes}
	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: fake}, SettlingDelay: time.Millisecond})
	setEndpoints(t, engine, "A", "B")

	if err := engine.Calculate(context.Background(), nav.CalculateRequest{}); err == nil {
		t.Error("expected an error")
	}
	status := engine.Route()
	if status.State != nav.StateFailed {
		t.Errorf("unexpected state: %s", status.State)
	}
	if status.Error == "" {
		t.Error("expected a surfaced error message")
	}
	engine.Close()
}

func TestJitteredFixesSuppressed(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	alertFetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		alertFetches++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	sessions, err := session.NewStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := api.NewClient(server.URL, sessions)
	alerts := markers.NewAlertsManager(client, 0, nil, nil)
	defer alerts.Close()

	fake := &fakeMaps{}
	engine := nav.NewEngine(nav.EngineParams{
		Loader:        fakeLoader{svc: fake},
		Alerts:        alerts,
		Sessions:      sessions,
		SettlingDelay: time.Millisecond,
	})

	if !engine.HandleFix(context.Background(), nav.Fix{Latitude: 48.85, Longitude: 2.29, At: time.Now()}) {
		t.Error("expected the first fix to be accepted")
	}
	// Within ~50m on both axes: GPS noise, no refetch
	if engine.HandleFix(context.Background(), nav.Fix{Latitude: 48.8503, Longitude: 2.2903, At: time.Now()}) {
		t.Error("expected a jittered fix to be discarded")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := alertFetches
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(10 * time.Millisecond)
	if !engine.HandleFix(context.Background(), nav.Fix{Latitude: 48.90, Longitude: 2.35, At: time.Now()}) {
		t.Error("expected a moved fix to be accepted")
	}

	deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := alertFetches
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	final := alertFetches
	mu.Unlock()
	if final != 2 {
		t.Errorf("expected two alert fetches, got %d", final)
	}
	engine.Close()
}

func TestWaypointCap(t *testing.T) {
	t.Parallel()

	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: &fakeMaps{}}, SettlingDelay: time.Millisecond})
	for i := 0; i < nav.MaxWaypoints-2; i++ {
		if _, err := engine.AddWaypoint(nav.Waypoint{Address: "stop"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := engine.AddWaypoint(nav.Waypoint{Address: "one too many"}); !errors.Is(err, nav.ErrTooManyWaypoints) {
		t.Errorf("unexpected error: %v", err)
	}
	if len(engine.Waypoints()) != nav.MaxWaypoints {
		t.Errorf("unexpected waypoint count: %d", len(engine.Waypoints()))
	}
}

func TestEndpointsImmovable(t *testing.T) {
	t.Parallel()

	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: &fakeMaps{}}, SettlingDelay: time.Millisecond})
	if err := engine.RemoveWaypoint(nav.WaypointStartID); !errors.Is(err, nav.ErrEndpointImmovable) {
		t.Errorf("unexpected error: %v", err)
	}
	if err := engine.RemoveWaypoint(nav.WaypointEndID); !errors.Is(err, nav.ErrEndpointImmovable) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReorderInteriorWaypoints(t *testing.T) {
	t.Parallel()

	engine := nav.NewEngine(nav.EngineParams{Loader: fakeLoader{svc: &fakeMaps{}}, SettlingDelay: time.Millisecond})
	first, err := engine.AddWaypoint(nav.Waypoint{Address: "first stop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.AddWaypoint(nav.Waypoint{Address: "second stop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := engine.ReorderWaypoints([]string{second.ID, first.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waypoints := engine.Waypoints()
	if waypoints[1].Address != "second stop" || waypoints[2].Address != "first stop" {
		t.Errorf("unexpected order: %s, %s", waypoints[1].Address, waypoints[2].Address)
	}
	if waypoints[0].ID != nav.WaypointStartID || waypoints[3].ID != nav.WaypointEndID {
		t.Error("expected endpoints to stay in place")
	}
}
