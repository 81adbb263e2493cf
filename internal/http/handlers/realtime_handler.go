// README: Websocket upgrade endpoint for ride tracking.
package handlers

import (
	"github.com/gin-gonic/gin"

	"flashtaxi/internal/http/middleware"
	"flashtaxi/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect blocks for the lifetime of the socket. A failed upgrade has
// already written its own HTTP error.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request, middleware.CallerUID(c), middleware.CallerRole(c)); err != nil {
		_ = c.Error(err)
	}
}
