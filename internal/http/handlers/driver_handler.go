// README: Driver profile, lifecycle hooks and location updates.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/types"
)

type DriverHandler struct {
	rides   *ride.Service
	drivers *driver.Service
}

func NewDriverHandler(rides *ride.Service, drivers *driver.Service) *DriverHandler {
	return &DriverHandler{rides: rides, drivers: drivers}
}

type locationReq struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *DriverHandler) Profile(c *gin.Context) {
	id := strings.TrimSpace(c.Param("driverId"))
	if id == "" || id == "null" || id == "undefined" {
		writeError(c, http.StatusBadRequest, "Invalid driver ID")
		return
	}
	d, err := h.drivers.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"driver": d})
}

func (h *DriverHandler) Accept(c *gin.Context)   { h.step(c, h.rides.Accept) }
func (h *DriverHandler) Arrive(c *gin.Context)   { h.step(c, h.rides.Arrive) }
func (h *DriverHandler) Start(c *gin.Context)    { h.step(c, h.rides.Start) }
func (h *DriverHandler) Complete(c *gin.Context) { h.step(c, h.rides.Complete) }

func (h *DriverHandler) step(c *gin.Context, fn func(context.Context, ride.DriverCommand) (*ride.Ride, error)) {
	id, ok := parseRideID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	r, err := fn(ctx, ride.DriverCommand{RideID: id, DriverID: callerID(c)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"ride": h.rides.DetailOf(ctx, r)})
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	p := types.Point{Lat: *req.Lat, Lng: *req.Lng}
	if err := h.drivers.UpdateLocation(c.Request.Context(), callerID(c), p); err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"message": "Location updated"})
}
