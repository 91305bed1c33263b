package favorites_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/favorites"
	"github.com/supmap/navd/internal/maps"
)

type staticTokens struct{}

func (staticTokens) Token() (string, bool) {
	return "token123", true
}

type fakeGeocoder struct {
	result maps.GeocodeResult
	err    error
	calls  int
}

func (f *fakeGeocoder) Directions(_ context.Context, _ maps.DirectionsRequest) ([]maps.Route, error) {
	return nil, maps.ErrNoRoutes
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (maps.GeocodeResult, error) {
	f.calls++
	if f.err != nil {
		return maps.GeocodeResult{}, f.err
	}
	return f.result, nil
}

type fakeLoader struct {
	svc maps.Service
}

func (f fakeLoader) Load() (maps.Service, error) {
	return f.svc, nil
}

func parisResult() maps.GeocodeResult {
	return maps.GeocodeResult{
		Location:         maps.LatLng{Lat: 48.8582599, Lng: 2.2945006},
		FormattedAddress: "5 Avenue Anatole France, 75007 Paris, France",
		Street:           "Avenue Anatole France",
		City:             "Paris",
		PostalCode:       "75007",
		Country:          "France",
	}
}

func TestUnresolvableAddressRefused(t *testing.T) {
	t.Parallel()

	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	geocoder := &fakeGeocoder{err: maps.ErrAddressUnresolved}
	manager := favorites.NewManager(api.NewClient(server.URL, staticTokens{}), fakeLoader{svc: geocoder})

	_, err := manager.Add(context.Background(), favorites.SaveRequest{Name: "Home", Address: "nowhere at all"})
	if err == nil {
		t.Fatal("expected an error for an unresolvable address")
	}
	if !strings.Contains(err.Error(), "could not be resolved") {
		t.Errorf("unexpected error: %v", err)
	}
	if requested {
		t.Error("nothing should be persisted for an unresolvable address")
	}
}

func TestAddGeocodesAndRefetches(t *testing.T) {
	t.Parallel()

	var listCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/private/map/favorite/location":
			var favorite api.FavoriteLocation
			if err := json.NewDecoder(r.Body).Decode(&favorite); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if favorite.Coordinates.Lat != 48.8582599 {
				t.Errorf("unexpected latitude: %f", favorite.Coordinates.Lat)
			}
			if favorite.City != "Paris" {
				t.Errorf("unexpected city: %s", favorite.City)
			}
			favorite.ID = "fav1"
			_ = json.NewEncoder(w).Encode(favorite)
		case r.Method == http.MethodGet && r.URL.Path == "/private/map/favorite/locations":
			listCalls++
			_, _ = w.Write([]byte(`[{"id":"fav1","name":"Home","city":"Paris"}]`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	geocoder := &fakeGeocoder{result: parisResult()}
	manager := favorites.NewManager(api.NewClient(server.URL, staticTokens{}), fakeLoader{svc: geocoder})

	created, err := manager.Add(context.Background(), favorites.SaveRequest{Name: "Home", Address: "5 avenue anatole france"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "fav1" {
		t.Errorf("unexpected id: %s", created.ID)
	}
	if created.LocationType != api.LocationTypeFavorite {
		t.Errorf("unexpected default location type: %s", created.LocationType)
	}
	if geocoder.calls != 1 {
		t.Errorf("expected one geocode call, got %d", geocoder.calls)
	}
	if listCalls != 1 {
		t.Errorf("expected a refetch after add, got %d list calls", listCalls)
	}

	cached := manager.Cached()
	if len(cached) != 1 || cached[0].ID != "fav1" {
		t.Errorf("unexpected cache: %v", cached)
	}
}

func TestDeleteFailureLeavesCache(t *testing.T) {
	t.Parallel()

	failDelete := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"fav1","name":"Home"},{"id":"fav2","name":"Work"}]`))
		case http.MethodDelete:
			if failDelete {
				w.WriteHeader(http.StatusInternalServerError)
			}
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	manager := favorites.NewManager(api.NewClient(server.URL, staticTokens{}), fakeLoader{svc: &fakeGeocoder{}})
	if _, err := manager.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := manager.Delete(context.Background(), "fav1"); err == nil {
		t.Error("expected an error from the failed delete")
	}
	if len(manager.Cached()) != 2 {
		t.Errorf("expected the cache untouched after a failed delete, got %v", manager.Cached())
	}

	failDelete = false
	if err := manager.Delete(context.Background(), "fav1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cached := manager.Cached()
	if len(cached) != 1 || cached[0].ID != "fav2" {
		t.Errorf("expected only fav2 to remain, got %v", cached)
	}
}

func TestUpdateResolvesBeforePersisting(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/private/map/favorite/location/fav1":
			var favorite api.FavoriteLocation
			if err := json.NewDecoder(r.Body).Decode(&favorite); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			favorite.ID = "fav1"
			_ = json.NewEncoder(w).Encode(favorite)
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	geocoder := &fakeGeocoder{result: parisResult()}
	manager := favorites.NewManager(api.NewClient(server.URL, staticTokens{}), fakeLoader{svc: geocoder})

	updated, err := manager.Update(context.Background(), "fav1", favorites.SaveRequest{
		Name:         "Office",
		Address:      "5 avenue anatole france",
		LocationType: api.LocationTypeWork,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LocationType != api.LocationTypeWork {
		t.Errorf("unexpected location type: %s", updated.LocationType)
	}
	if updated.FormattedAddress != "5 Avenue Anatole France, 75007 Paris, France" {
		t.Errorf("unexpected address: %s", updated.FormattedAddress)
	}
	if geocoder.calls != 1 {
		t.Errorf("expected one geocode call, got %d", geocoder.calls)
	}
}
