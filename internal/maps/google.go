package maps

import (
	"context"
	"fmt"
	"slices"

	gmaps "googlemaps.github.io/maps"
)

type googleService struct {
	client *gmaps.Client
}

func newGoogleService(apiKey string) (Service, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &googleService{client: client}, nil
}

func (g *googleService) Directions(ctx context.Context, req DirectionsRequest) ([]Route, error) {
	gReq := &gmaps.DirectionsRequest{
		Origin:       req.Origin,
		Destination:  req.Destination,
		Waypoints:    req.Waypoints,
		Alternatives: true,
	}

	switch req.Mode {
	case TravelModeDriving:
		gReq.Mode = gmaps.TravelModeDriving
		// Traffic-aware departure "now" with the best-guess model
		gReq.DepartureTime = "now"
		gReq.TrafficModel = gmaps.TrafficModelBestGuess
	case TravelModeWalking:
		gReq.Mode = gmaps.TravelModeWalking
	case TravelModeBicycling:
		gReq.Mode = gmaps.TravelModeBicycling
	case TravelModeTransit:
		gReq.Mode = gmaps.TravelModeTransit
		gReq.TransitMode = []gmaps.TransitMode{gmaps.TransitModeBus, gmaps.TransitModeRail}
		gReq.TransitRoutingPreference = gmaps.TransitRoutingPreferenceFewerTransfers
	default:
		gReq.Mode = gmaps.TravelModeDriving
		gReq.DepartureTime = "now"
		gReq.TrafficModel = gmaps.TrafficModelBestGuess
	}

	var avoid []gmaps.Avoid
	if req.AvoidTolls {
		avoid = append(avoid, gmaps.AvoidTolls)
	}
	if req.AvoidHighways {
		avoid = append(avoid, gmaps.AvoidHighways)
	}
	gReq.Avoid = avoid

	gRoutes, _, err := g.client.Directions(ctx, gReq)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(gRoutes) == 0 {
		return nil, ErrNoRoutes
	}

	routes := make([]Route, 0, len(gRoutes))
	for _, gRoute := range gRoutes {
		route := Route{Summary: gRoute.Summary}
		for _, gLeg := range gRoute.Legs {
			leg := Leg{
				StartAddress: gLeg.StartAddress,
				EndAddress:   gLeg.EndAddress,
				Start:        LatLng{Lat: gLeg.StartLocation.Lat, Lng: gLeg.StartLocation.Lng},
				End:          LatLng{Lat: gLeg.EndLocation.Lat, Lng: gLeg.EndLocation.Lng},
				Meters:       gLeg.Distance.Meters,
				Duration:     gLeg.Duration,
			}
			for _, gStep := range gLeg.Steps {
				leg.Points = append(leg.Points, LatLng{Lat: gStep.StartLocation.Lat, Lng: gStep.StartLocation.Lng})
			}
			leg.Points = append(leg.Points, leg.End)
			route.Legs = append(route.Legs, leg)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (g *googleService) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	results, err := g.client.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("geocode request failed: %w", err)
	}
	if len(results) == 0 {
		return GeocodeResult{}, ErrAddressUnresolved
	}

	best := results[0]
	result := GeocodeResult{
		Location: LatLng{
			Lat: best.Geometry.Location.Lat,
			Lng: best.Geometry.Location.Lng,
		},
		FormattedAddress: best.FormattedAddress,
	}

	var streetNumber, route string
	for _, component := range best.AddressComponents {
		switch {
		case slices.Contains(component.Types, "street_number"):
			streetNumber = component.LongName
		case slices.Contains(component.Types, "route"):
			route = component.LongName
		case slices.Contains(component.Types, "locality"):
			result.City = component.LongName
		case slices.Contains(component.Types, "postal_code"):
			result.PostalCode = component.LongName
		case slices.Contains(component.Types, "country"):
			result.Country = component.LongName
		}
	}
	result.Street = route
	if streetNumber != "" && route != "" {
		result.Street = streetNumber + " " + route
	}

	return result, nil
}
