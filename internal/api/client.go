package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenSource yields the current bearer credential, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Client is a typed client for the Supmap backend. Every operation is
// a single request/response mapping: no retries, no caching. Retry
// policy, if any, belongs to callers.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

const requestTimeout = 15 * time.Second

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		tokens: tokens,
	}
}

// do issues one JSON request. Account-scoped calls fail with
// ErrNotAuthenticated before the request is built when no credential
// is available. An empty 2xx body is treated as an empty object.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var token string
	if authed {
		var ok bool
		token, ok = c.tokens.Token()
		if !ok {
			return ErrNotAuthenticated
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &HTTPError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) AlertsNearPosition(ctx context.Context, latitude, longitude float64) ([]Alert, error) {
	var alerts []Alert
	body := RoutePoint{Latitude: latitude, Longitude: longitude}
	err := c.do(ctx, http.MethodPost, "/map/alerts/position", body, false, &alerts)
	return alerts, err
}

func (c *Client) AlertsAlongRoute(ctx context.Context, routePoints []RoutePoint) ([]Alert, error) {
	var alerts []Alert
	body := struct {
		RoutePoints []RoutePoint `json:"routePoints"`
	}{RoutePoints: routePoints}
	err := c.do(ctx, http.MethodPost, "/map/alerts/route", body, false, &alerts)
	return alerts, err
}

func (c *Client) SubmitAlert(ctx context.Context, alertType AlertType, latitude, longitude float64) (Alert, error) {
	var alert Alert
	body := struct {
		AlertType AlertType `json:"alertType"`
		Latitude  float64   `json:"latitude"`
		Longitude float64   `json:"longitude"`
	}{AlertType: alertType, Latitude: latitude, Longitude: longitude}
	err := c.do(ctx, http.MethodPost, "/private/map/alert", body, true, &alert)
	return alert, err
}

func (c *Client) ValidateAlert(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/private/map/alert/validate/"+url.PathEscape(id), nil, true, nil)
}

func (c *Client) InvalidateAlert(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/private/map/alert/invalidate/"+url.PathEscape(id), nil, true, nil)
}

func (c *Client) ListFavoriteLocations(ctx context.Context) ([]FavoriteLocation, error) {
	var favorites []FavoriteLocation
	err := c.do(ctx, http.MethodGet, "/private/map/favorite/locations", nil, true, &favorites)
	return favorites, err
}

func (c *Client) AddFavoriteLocation(ctx context.Context, favorite FavoriteLocation) (FavoriteLocation, error) {
	var created FavoriteLocation
	err := c.do(ctx, http.MethodPost, "/private/map/favorite/location", favorite, true, &created)
	return created, err
}

func (c *Client) UpdateFavoriteLocation(ctx context.Context, id string, favorite FavoriteLocation) (FavoriteLocation, error) {
	var updated FavoriteLocation
	err := c.do(ctx, http.MethodPut, "/private/map/favorite/location/"+url.PathEscape(id), favorite, true, &updated)
	return updated, err
}

func (c *Client) DeleteFavoriteLocation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/private/map/favorite/location/"+url.PathEscape(id), nil, true, nil)
}

func (c *Client) SaveRoute(ctx context.Context, item RouteHistoryItem) (RouteHistoryItem, error) {
	var saved RouteHistoryItem
	err := c.do(ctx, http.MethodPost, "/private/map/save-route", item, true, &saved)
	return saved, err
}

func (c *Client) ListRouteHistory(ctx context.Context) ([]RouteHistoryItem, error) {
	var items []RouteHistoryItem
	err := c.do(ctx, http.MethodGet, "/private/map/history/routes", nil, true, &items)
	return items, err
}

func (c *Client) NearbyUsers(ctx context.Context, latitude, longitude float64) ([]NearbyUser, error) {
	var users []NearbyUser
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	err := c.do(ctx, http.MethodGet, "/private/map/nearby-users?"+query.Encode(), nil, true, &users)
	return users, err
}

func (c *Client) ShareLocation(ctx context.Context, latitude, longitude float64) error {
	body := RoutePoint{Latitude: latitude, Longitude: longitude}
	return c.do(ctx, http.MethodPost, "/private/map/location/share", body, true, nil)
}

func (c *Client) ShareRoute(ctx context.Context, routePoints []RoutePoint) error {
	body := struct {
		RoutePoints []RoutePoint `json:"routePoints"`
	}{RoutePoints: routePoints}
	return c.do(ctx, http.MethodPost, "/private/map/route/share", body, true, nil)
}

func (c *Client) UpdateNavigationPreferences(ctx context.Context, prefs NavigationPreferences) error {
	return c.do(ctx, http.MethodPut, "/private/map/navigation-preferences", prefs, true, nil)
}
