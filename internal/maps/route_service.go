// README: Driving route distance and duration between two points.
package maps

import (
	"context"
	"time"

	"googlemaps.github.io/maps"

	"flashtaxi/internal/types"
)

// Route returns the driving distance and time of the provider's first route.
// Points outside the service area are rejected before the provider is called.
func (g *Gateway) Route(ctx context.Context, origin, destination types.Point) (Route, error) {
	if !g.bounds.Contains(origin) || !g.bounds.Contains(destination) {
		return Route{}, ErrOutOfServiceArea
	}

	from, to := toLatLng(origin), toLatLng(destination)
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Language:    g.language,
		Region:      g.region,
	}
	defer observe("directions", time.Now())
	routes, _, err := g.provider.Directions(ctx, r)
	if isZeroResults(err) {
		return Route{}, ErrNoRouteFound
	}
	if err != nil {
		return Route{}, upstream(err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, ErrNoRouteFound
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}
	return Route{
		DistanceKm:  float64(meters) / 1000,
		DurationMin: seconds / 60,
	}, nil
}
