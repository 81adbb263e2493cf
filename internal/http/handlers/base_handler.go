// README: Base handler utilities (JSON envelope, error mapping, id parsing).
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/maps"
	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/modules/rider"
	"flashtaxi/internal/modules/support"
	"flashtaxi/internal/types"
)

const internalErrorMessage = "Internal server error"

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

// writeOK wraps payload in the success envelope.
func writeOK(c *gin.Context, status int, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	writeJSON(c, status, payload)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, gin.H{"success": false, "message": msg})
}

var (
	badRequestErrors = []error{
		ride.ErrValidation, ride.ErrInvalidAddress, ride.ErrInvalidTransition,
		maps.ErrOutOfServiceArea, maps.ErrNoRouteFound, maps.ErrEmptyAddress,
		rider.ErrBadRequest, rider.ErrInvalidOTP, rider.ErrOTPExpired, rider.ErrNoChallenge,
		driver.ErrBadRequest, support.ErrInvalidMessage,
	}
	notFoundErrors = []error{ride.ErrNotFound, driver.ErrNotFound, rider.ErrNotFound}
	conflictErrors = []error{ride.ErrConflict, rider.ErrDuplicate}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeServiceError maps domain errors to statuses. Unknown and upstream
// errors become a generic 500; the cause is kept on the gin context for the
// access log.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case isAny(err, notFoundErrors):
		writeError(c, http.StatusNotFound, err.Error())
	case isAny(err, conflictErrors):
		writeError(c, http.StatusConflict, err.Error())
	case isAny(err, badRequestErrors):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, internalErrorMessage)
	}
}

// parseRideID rejects placeholder ids sent by clients before a ride exists.
func parseRideID(c *gin.Context) (types.ID, bool) {
	id := strings.TrimSpace(c.Param("rideId"))
	if !types.IsValidID(id) {
		writeError(c, http.StatusBadRequest, "Invalid ride ID")
		return "", false
	}
	return types.ID(id), true
}

// bindJSON writes a 400 on malformed bodies. An empty body is allowed when
// optional is set.
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(c, http.StatusBadRequest, "invalid request body")
	return false
}

func callerID(c *gin.Context) types.ID {
	return types.ID(callerUID(c))
}
