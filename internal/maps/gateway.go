// README: Geo/routing gateway over the Google Maps Platform client.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"flashtaxi/internal/observability"
	"flashtaxi/internal/types"
)

var (
	ErrEmptyAddress     = errors.New("address is required")
	ErrOutOfServiceArea = errors.New("location is outside the service area")
	ErrNoRouteFound     = errors.New("no route found")
	ErrUpstream         = errors.New("maps provider error")
)

// IndiaBounds is the default service area.
var IndiaBounds = types.Bounds{MinLat: 8, MaxLat: 37, MinLng: 68, MaxLng: 97}

// Provider is the subset of *maps.Client the gateway calls.
type Provider interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

type Config struct {
	Bounds   types.Bounds
	Language string
	Region   string
}

// Place is a resolved address.
type Place struct {
	Name     string      `json:"name,omitempty"`
	Address  string      `json:"address"`
	Location types.Point `json:"location"`
	PlaceID  string      `json:"placeId,omitempty"`
}

// Route is the driving distance and time between two points.
type Route struct {
	DistanceKm  float64
	DurationMin float64
}

type Gateway struct {
	provider Provider
	bounds   types.Bounds
	language string
	region   string
}

// NewClient creates a Google Maps client with the given API key.
func NewClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

func NewGateway(provider Provider, cfg Config) *Gateway {
	if cfg.Bounds == (types.Bounds{}) {
		cfg.Bounds = IndiaBounds
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Region == "" {
		cfg.Region = "in"
	}
	return &Gateway{
		provider: provider,
		bounds:   cfg.Bounds,
		language: cfg.Language,
		region:   cfg.Region,
	}
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

// isZeroResults reports a provider status meaning "nothing matched" rather than a failure.
func isZeroResults(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ZERO_RESULTS")
}

func toPoint(ll maps.LatLng) types.Point {
	return types.Point{Lat: ll.Lat, Lng: ll.Lng}
}

func toLatLng(p types.Point) maps.LatLng {
	return maps.LatLng{Lat: p.Lat, Lng: p.Lng}
}

func observe(op string, start time.Time) {
	observability.GeoLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
