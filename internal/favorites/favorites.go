// Package favorites manages the account's saved locations. Free-text
// addresses are resolved through the geocoder before anything is
// persisted; an unresolvable address is refused, never stored.
package favorites

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/maps"
)

type MapsLoader interface {
	Load() (maps.Service, error)
}

type Manager struct {
	client *api.Client
	loader MapsLoader

	mu     sync.Mutex
	cached []api.FavoriteLocation
}

func NewManager(client *api.Client, loader MapsLoader) *Manager {
	return &Manager{client: client, loader: loader}
}

// List refetches from the backend and replaces the cache.
func (m *Manager) List(ctx context.Context) ([]api.FavoriteLocation, error) {
	favorites, err := m.client.ListFavoriteLocations(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.cached = favorites
	m.mu.Unlock()
	return favorites, nil
}

func (m *Manager) Cached() []api.FavoriteLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cached)
}

type SaveRequest struct {
	Name         string           `json:"name"`
	Address      string           `json:"address"`
	LocationType api.LocationType `json:"locationType"`
}

func (m *Manager) resolve(ctx context.Context, req SaveRequest) (api.FavoriteLocation, error) {
	svc, err := m.loader.Load()
	if err != nil {
		return api.FavoriteLocation{}, err
	}
	resolved, err := svc.Geocode(ctx, req.Address)
	if err != nil {
		return api.FavoriteLocation{}, fmt.Errorf("address %q could not be resolved: %w", req.Address, err)
	}
	locationType := req.LocationType
	if locationType == "" {
		locationType = api.LocationTypeFavorite
	}
	return api.FavoriteLocation{
		Name:             req.Name,
		FormattedAddress: resolved.FormattedAddress,
		Coordinates:      api.Coordinates{Lat: resolved.Location.Lat, Lng: resolved.Location.Lng},
		Street:           resolved.Street,
		City:             resolved.City,
		PostalCode:       resolved.PostalCode,
		Country:          resolved.Country,
		LocationType:     locationType,
	}, nil
}

// Add geocodes the address, persists the favorite, and refetches the
// whole list so the cache reflects server-assigned fields.
func (m *Manager) Add(ctx context.Context, req SaveRequest) (api.FavoriteLocation, error) {
	favorite, err := m.resolve(ctx, req)
	if err != nil {
		return api.FavoriteLocation{}, err
	}
	created, err := m.client.AddFavoriteLocation(ctx, favorite)
	if err != nil {
		return api.FavoriteLocation{}, err
	}
	if _, err := m.List(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func (m *Manager) Update(ctx context.Context, id string, req SaveRequest) (api.FavoriteLocation, error) {
	favorite, err := m.resolve(ctx, req)
	if err != nil {
		return api.FavoriteLocation{}, err
	}
	updated, err := m.client.UpdateFavoriteLocation(ctx, id, favorite)
	if err != nil {
		return api.FavoriteLocation{}, err
	}
	if _, err := m.List(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete waits for the backend to confirm before touching the cache;
// a failed delete leaves the cached list untouched.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.client.DeleteFavoriteLocation(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	m.cached = slices.DeleteFunc(m.cached, func(f api.FavoriteLocation) bool {
		return f.ID == id
	})
	m.mu.Unlock()
	return nil
}
