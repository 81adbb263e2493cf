// README: Support chat endpoint.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/modules/support"
)

type SupportHandler struct {
	support *support.Service
}

func NewSupportHandler(svc *support.Service) *SupportHandler {
	return &SupportHandler{support: svc}
}

type chatReq struct {
	Message string `json:"message"`
}

func (h *SupportHandler) Chat(c *gin.Context) {
	var req chatReq
	if !bindJSON(c, &req, false) {
		return
	}
	reply, err := h.support.Reply(c.Request.Context(), callerUID(c), req.Message)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"reply": reply.Text, "source": reply.Source})
}
