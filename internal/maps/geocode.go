// README: Forward and reverse geocoding.
package maps

import (
	"context"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"flashtaxi/internal/types"
)

// Geocode resolves free-form text to the provider's first-ranked match.
// found is false when nothing matched.
func (g *Gateway) Geocode(ctx context.Context, address string) (Place, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Place{}, false, ErrEmptyAddress
	}
	defer observe("geocode", time.Now())
	results, err := g.provider.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   g.region,
		Language: g.language,
	})
	if isZeroResults(err) {
		return Place{}, false, nil
	}
	if err != nil {
		return Place{}, false, upstream(err)
	}
	if len(results) == 0 {
		return Place{}, false, nil
	}
	return placeFromGeocode(results[0]), true, nil
}

func (g *Gateway) ReverseGeocode(ctx context.Context, p types.Point) (Place, bool, error) {
	ll := toLatLng(p)
	defer observe("reverse_geocode", time.Now())
	results, err := g.provider.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &ll,
		Language: g.language,
	})
	if isZeroResults(err) {
		return Place{}, false, nil
	}
	if err != nil {
		return Place{}, false, upstream(err)
	}
	if len(results) == 0 {
		return Place{}, false, nil
	}
	return placeFromGeocode(results[0]), true, nil
}

func placeFromGeocode(r maps.GeocodingResult) Place {
	return Place{
		Address:  r.FormattedAddress,
		Location: toPoint(r.Geometry.Location),
		PlaceID:  r.PlaceID,
	}
}
