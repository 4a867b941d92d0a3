package verification

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
)

// Handler handles HTTP requests for certificate verification
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new verification handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers verification routes. All routes require auth;
// extra middleware (rate limiting) applies to submission only.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, submitMiddleware ...gin.HandlerFunc) {
	verifications := router.Group("/verifications")
	{
		verifications.POST("", append(submitMiddleware, h.submit)...)
		verifications.GET("/history", h.history)
		verifications.GET("/service/health", h.serviceHealth)
		verifications.GET("/:id", h.lookup)
		verifications.GET("/:id/report", h.report)
	}
}

// submit handles POST /api/v1/verifications
func (h *Handler) submit(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	docType := strings.ToUpper(strings.TrimSpace(c.PostForm("document_type")))
	if docType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing document_type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), SubmitRequest{
		UserID:       userID,
		DocumentType: DocumentType(docType),
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		FileSize:     fileHeader.Size,
		FileContent:  content,
	})
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) writeSubmitError(c *gin.Context, err error) {
	var intakeErr *IntakeError
	var svcErr *ServiceError
	switch {
	case errors.As(err, &intakeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": intakeErr.Message, "reason": intakeErr.Reason})
	case errors.Is(err, ErrInvalidDocumentType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many verification requests, try again later"})
	case errors.As(err, &svcErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": svcErr.Error()})
	default:
		h.logger.Error("Verification submission failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification failed, please try again"})
	}
}

// history handles GET /api/v1/verifications/history
func (h *Handler) history(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	entries, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list verification history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// lookup handles GET /api/v1/verifications/:id
func (h *Handler) lookup(c *gin.Context) {
	result, err := h.service.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
			return
		}
		h.logger.Error("Verification lookup failed", zap.String("verification_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "view": Render(result)})
}

// report handles GET /api/v1/verifications/:id/report
func (h *Handler) report(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	reader, err := h.service.Report(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
			return
		}
		h.logger.Error("Failed to build verification report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Error("Failed to read verification report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="verification-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// serviceHealth handles GET /api/v1/verifications/service/health
func (h *Handler) serviceHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ServiceHealth(c.Request.Context()))
}
