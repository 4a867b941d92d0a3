package admin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
	"tanaestate/portal-backend/internal/verification"
)

// Handler handles HTTP requests for admin review operations
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new admin handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers admin routes. All of them require the admin role.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authService *auth.Service) {
	group := router.Group("/admin")
	group.Use(auth.RequireAuth(authService), auth.RequireRole(auth.RoleAdmin))
	{
		group.GET("/reviews/queue", h.queue)
		group.GET("/reviews/queue/export", h.exportQueue)
		group.POST("/reviews/:verificationId", h.resolve)
	}
}

func (h *Handler) queue(c *gin.Context) {
	queue, err := h.service.Queue(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load review queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load review queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "count": len(queue)})
}

func (h *Handler) resolve(c *gin.Context) {
	reviewerID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.service.Resolve(c.Request.Context(), reviewerID, c.Param("verificationId"), &req)
	switch {
	case errors.Is(err, ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, verification.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
		return
	case err != nil:
		h.logger.Error("failed to record review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record review"})
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) exportQueue(c *gin.Context) {
	buf, err := h.service.ExportQueue(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to export review queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export review queue"})
		return
	}

	filename := fmt.Sprintf("review-queue-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
