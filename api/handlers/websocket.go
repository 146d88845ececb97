package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/strudel-live/backend/internal/ws"
)

// WebSocketHandler handles WebSocket connections for browser tabs running the
// Strudel player.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
	}
}

// Connect handles WS /strudel/ws?session_id=xxx1 - joins a tab to the live
// set under its session code. An omitted session_id leaves the connection
// unbound; a supplied one is bound as-is, whatever its shape, so tabs that
// allocated their own code keep working.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	sessionID := c.Query("session_id")

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request, sessionID); err != nil {
		// Upgrade failure already wrote the HTTP error response.
		return
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
}
