package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexredboyPRO/Synkim/internal/service"
)

// HTTPHandler serves the relay's plain HTTP surface: health checks and
// room-state inspection.
type HTTPHandler struct {
	service service.SyncService
}

func NewHTTPHandler(svc service.SyncService) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Room returns a room's current authoritative state. Intended for
// debugging and monitoring; clients receive state over the websocket.
func (h *HTTPHandler) Room(c *gin.Context) {
	roomID := c.Param("id")

	state, err := h.service.RoomState(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room state"})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/rooms/:id", h.Room)
}
