// README: Address suggestions for the booking form.
package maps

import (
	"context"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

const maxSuggestions = 5

// Suggest returns up to five text-search hits inside the service area.
func (g *Gateway) Suggest(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyAddress
	}
	defer observe("text_search", time.Now())
	resp, err := g.provider.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: g.language,
		Region:   g.region,
	})
	if isZeroResults(err) {
		return []Place{}, nil
	}
	if err != nil {
		return nil, upstream(err)
	}

	places := make([]Place, 0, maxSuggestions)
	for _, result := range resp.Results {
		loc := toPoint(result.Geometry.Location)
		if !g.bounds.Contains(loc) {
			continue
		}
		places = append(places, Place{
			Name:     result.Name,
			Address:  result.FormattedAddress,
			Location: loc,
			PlaceID:  result.PlaceID,
		})
		if len(places) >= maxSuggestions {
			break
		}
	}
	return places, nil
}
