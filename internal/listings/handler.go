package listings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
)

// Handler handles HTTP requests for listings
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new listing handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers listing routes. Search and detail are public;
// everything else requires an authenticated agent.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authService *auth.Service) {
	group := router.Group("/listings")
	{
		group.GET("", h.search)
		group.GET("/:id", h.get)

		authed := group.Group("")
		authed.Use(auth.RequireAuth(authService))
		{
			authed.POST("", auth.RequireRole(auth.RoleAgent), h.create)
			authed.GET("/mine", auth.RequireRole(auth.RoleAgent), h.listMine)
			authed.PATCH("/:id", auth.RequireRole(auth.RoleAgent), h.update)
			authed.DELETE("/:id", h.delete)
			authed.POST("/:id/status", h.transition)
		}
	}
}

func (h *Handler) create(c *gin.Context) {
	agentID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Create(c.Request.Context(), agentID, &req)
	if err != nil {
		h.logger.Error("failed to create listing", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	listing, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get listing"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) listMine(c *gin.Context) {
	agentID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	listings, err := h.service.ListByAgent(c.Request.Context(), agentID)
	if err != nil {
		h.logger.Error("failed to list agent listings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

func (h *Handler) search(c *gin.Context) {
	filters := SearchFilters{
		City:            c.Query("city"),
		Province:        c.Query("province"),
		CertificateType: c.Query("certificate_type"),
		MinPrice:        parseInt64(c.Query("min_price")),
		MaxPrice:        parseInt64(c.Query("max_price")),
		MinLandAreaSqM:  parseFloat(c.Query("min_land_area")),
		CenterLat:       parseFloat(c.Query("lat")),
		CenterLng:       parseFloat(c.Query("lng")),
		RadiusKm:        parseFloat(c.Query("radius_km")),
		Page:            int(parseInt64(c.Query("page"))),
		PageSize:        int(parseInt64(c.Query("page_size"))),
	}

	listings, total, err := h.service.Search(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("listing search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": total})
}

func (h *Handler) update(c *gin.Context) {
	agentID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Update(c.Request.Context(), agentID, id, &req)
	if err != nil {
		h.writeListingError(c, err, "failed to update listing")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) delete(c *gin.Context) {
	agentID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	role, _ := auth.RoleFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), agentID, role, id); err != nil {
		h.writeListingError(c, err, "failed to delete listing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
}

type transitionRequest struct {
	Target ListingStatus `json:"target" binding:"required"`
	Reason string        `json:"reason"`
}

func (h *Handler) transition(c *gin.Context) {
	actorID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	role, _ := auth.RoleFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Transition(c.Request.Context(), actorID, role, id, req.Target, req.Reason)
	if err != nil {
		h.writeListingError(c, err, "failed to change listing status")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) writeListingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, ErrNotEditable), errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
