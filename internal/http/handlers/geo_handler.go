// README: Geocoding, reverse geocoding and address suggestions.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/maps"
	"flashtaxi/internal/types"
)

// GeoLookup is the slice of the maps gateway the geo endpoints need.
type GeoLookup interface {
	Geocode(ctx context.Context, address string) (maps.Place, bool, error)
	ReverseGeocode(ctx context.Context, p types.Point) (maps.Place, bool, error)
	Suggest(ctx context.Context, query string) ([]maps.Place, error)
}

type GeoHandler struct {
	geo GeoLookup
}

func NewGeoHandler(geo GeoLookup) *GeoHandler {
	return &GeoHandler{geo: geo}
}

func (h *GeoHandler) Geocode(c *gin.Context) {
	place, found, err := h.geo.Geocode(c.Request.Context(), c.Query("address"))
	h.writePlace(c, place, found, err)
}

func (h *GeoHandler) Reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	p := types.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !p.Valid() {
		writeError(c, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}
	place, found, err := h.geo.ReverseGeocode(c.Request.Context(), p)
	h.writePlace(c, place, found, err)
}

func (h *GeoHandler) Suggest(c *gin.Context) {
	places, err := h.geo.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"places": places})
}

func (h *GeoHandler) writePlace(c *gin.Context, place maps.Place, found bool, err error) {
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !found {
		writeError(c, http.StatusNotFound, "Address not found")
		return
	}
	writeOK(c, http.StatusOK, gin.H{"place": place})
}
