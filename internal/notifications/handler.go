package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
)

// Handler exposes the WebSocket endpoint
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// RegisterRoutes registers the WebSocket route
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authService *auth.Service) {
	router.GET("/ws", auth.RequireAuth(authService), h.connect)
}

func (h *Handler) connect(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.hub.HandleConnection(c.Writer, c.Request, userID); err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
	}
}
