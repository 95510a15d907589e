package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/repository"
)

// AdminHandler handles operator endpoints: credit grants and runtime
// tunables. These routes sit behind deployment-level auth (reverse
// proxy), not application auth.
type AdminHandler struct {
	creditRepo  *repository.CreditRepository
	settingRepo *repository.SettingRepository
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - creditRepo: credit balance access.
//   - settingRepo: settings table access.
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(creditRepo *repository.CreditRepository, settingRepo *repository.SettingRepository) *AdminHandler {
	return &AdminHandler{
		creditRepo:  creditRepo,
		settingRepo: settingRepo,
	}
}

// GetCredits handles GET /api/v1/admin/credits/:userId.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) GetCredits(c *gin.Context) {
	userID := c.Param("userId")

	balance, err := h.creditRepo.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load balance: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":  userID,
		"balance": balance,
	})
}

// SetCreditsRequest represents a credit grant request.
type SetCreditsRequest struct {
	Balance int `json:"balance" binding:"min=0"`
}

// SetCredits handles PUT /api/v1/admin/credits/:userId.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) SetCredits(c *gin.Context) {
	userID := c.Param("userId")

	var req SetCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.creditRepo.SetBalance(c.Request.Context(), userID, req.Balance); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to set balance: " + err.Error(),
		})
		return
	}

	logger.CtxInfo(c.Request.Context(), "Credit balance set: user_id=%s, balance=%d", userID, req.Balance)
	c.JSON(http.StatusOK, gin.H{
		"userId":  userID,
		"balance": req.Balance,
	})
}

// GetSetting handles GET /api/v1/admin/settings/:key.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) GetSetting(c *gin.Context) {
	key := c.Param("key")

	value, found, err := h.settingRepo.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load setting: " + err.Error(),
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Setting not found",
			"code":  "not-found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":   key,
		"value": value,
	})
}

// SetSettingRequest represents a setting update request.
type SetSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SetSetting handles PUT /api/v1/admin/settings/:key.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) SetSetting(c *gin.Context) {
	key := c.Param("key")

	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.settingRepo.Set(c.Request.Context(), key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save setting: " + err.Error(),
		})
		return
	}

	logger.CtxInfo(c.Request.Context(), "Setting updated: key=%s", key)
	c.JSON(http.StatusOK, gin.H{
		"key":   key,
		"value": req.Value,
	})
}
