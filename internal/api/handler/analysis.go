package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minsu/vericlip/internal/domain"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/repository"
	"github.com/minsu/vericlip/internal/service"
	"gorm.io/gorm"
)

// AnalysisHandler handles analysis endpoints.
type AnalysisHandler struct {
	analyzeService *service.AnalyzeService
	analysisRepo   *repository.AnalysisRepository
}

// NewAnalysisHandler creates a new analysis handler.
// Parameters:
//   - analyzeService: pipeline orchestrator.
//   - analysisRepo: analysis read access for the GET endpoints.
// Returns:
//   - *AnalysisHandler: initialized handler.
func NewAnalysisHandler(analyzeService *service.AnalyzeService, analysisRepo *repository.AnalysisRepository) *AnalysisHandler {
	return &AnalysisHandler{
		analyzeService: analyzeService,
		analysisRepo:   analysisRepo,
	}
}

// CreateAnalysisRequest represents the analysis API request.
type CreateAnalysisRequest struct {
	Video          domain.VideoRef         `json:"video" binding:"required"`
	UserID         string                  `json:"userId"`
	Recheck        bool                    `json:"recheck"`
	ForceRefresh   bool                    `json:"forceRefresh"`
	Transcript     []domain.TranscriptItem `json:"transcript"`
	TranscriptText string                  `json:"transcriptText"`
}

// CreateAnalysisResponse represents the analysis API response.
type CreateAnalysisResponse struct {
	Message    string `json:"message"`
	AnalysisID string `json:"analysisId"`
	CreditUsed bool   `json:"creditUsed"`
	CacheHit   bool   `json:"cacheHit"`
}

// Create handles POST /api/v1/analyses.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalysisHandler) Create(c *gin.Context) {
	var req CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
			"code":  "invalid-request",
		})
		return
	}

	result, err := h.analyzeService.Analyze(c.Request.Context(), &service.AnalyzeRequest{
		Video:          req.Video,
		UserID:         req.UserID,
		Recheck:        req.Recheck,
		ForceRefresh:   req.ForceRefresh,
		Transcript:     req.Transcript,
		TranscriptText: req.TranscriptText,
	})
	if err != nil {
		writeAnalyzeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateAnalysisResponse{
		Message:    result.Message,
		AnalysisID: result.AnalysisID,
		CreditUsed: result.CreditUsed,
		CacheHit:   result.CacheHit,
	})
}

// GetByID handles GET /api/v1/analyses/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalysisHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	analysis, err := h.analysisRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Analysis not found",
				"code":  "not-found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load analysis: " + err.Error(),
		})
		return
	}

	if err := h.analysisRepo.BumpViewCount(c.Request.Context(), id); err != nil {
		logger.CtxWarn(c.Request.Context(), "Failed to bump view count: %v", err)
	}

	c.JSON(http.StatusOK, analysis)
}

// GetLatestForVideo handles GET /api/v1/videos/:videoId/analysis.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalysisHandler) GetLatestForVideo(c *gin.Context) {
	videoID := c.Param("videoId")

	analysis, err := h.analysisRepo.GetLatestByVideoID(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Video has no analysis",
				"code":  "not-found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load analysis: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// writeAnalyzeError maps the pipeline error taxonomy to HTTP statuses.
func writeAnalyzeError(c *gin.Context, err error) {
	var ineligible *service.IneligibleError
	if errors.As(err, &ineligible) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": ineligible.Message,
			"code":  ineligible.Code,
		})
		return
	}

	var notEvaluable *service.NotEvaluableError
	if errors.As(err, &notEvaluable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  notEvaluable.Error(),
			"code":   "not-evaluable",
			"cached": notEvaluable.Cached,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidVideoRef):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-request"})
	case errors.Is(err, service.ErrIdentityRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "identity-required"})
	case errors.Is(err, repository.ErrInsufficientCredit):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "code": "insufficient-credit"})
	case errors.Is(err, service.ErrNoContentChange):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "no-content-change"})
	case errors.Is(err, service.ErrRecheckNoParent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "no-previous-analysis"})
	case errors.Is(err, service.ErrTranscriptRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "transcript-required"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Analysis timed out", "code": "timeout"})
	default:
		logger.CtxError(c.Request.Context(), "Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed", "code": "internal"})
	}
}
