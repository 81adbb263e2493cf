// README: Rider-facing ride handlers: request, estimate, history, detail, cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/modules/ride"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type rideRequestReq struct {
	PickupAddress  string `json:"pickupAddress"`
	DropoffAddress string `json:"dropoffAddress"`
	PaymentMethod  string `json:"paymentMethod"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Request(c *gin.Context) {
	var req rideRequestReq
	if !bindJSON(c, &req, false) {
		return
	}
	r, err := h.rides.RequestRide(c.Request.Context(), ride.RequestCommand{
		RiderID:        callerID(c),
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusCreated, gin.H{"message": "Ride requested successfully", "ride": ride.NewCreated(r)})
}

func (h *RideHandler) Estimate(c *gin.Context) {
	var req rideRequestReq
	if !bindJSON(c, &req, false) {
		return
	}
	est, err := h.rides.Estimate(c.Request.Context(), ride.EstimateCommand{
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"estimate": est})
}

func (h *RideHandler) History(c *gin.Context) {
	rides, err := h.rides.History(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"rides": rides})
}

func (h *RideHandler) Get(c *gin.Context) {
	id, ok := parseRideID(c)
	if !ok {
		return
	}
	d, err := h.rides.Detail(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"ride": d})
}

func (h *RideHandler) Cancel(c *gin.Context) {
	id, ok := parseRideID(c)
	if !ok {
		return
	}
	var req cancelReq
	if !bindJSON(c, &req, true) {
		return
	}
	err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		RiderID: callerID(c),
		RideID:  id,
		Reason:  req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"message": "Ride cancelled successfully"})
}
