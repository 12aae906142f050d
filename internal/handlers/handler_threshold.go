package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

type thresholdHandler struct {
	thresholdService portssvc.ThresholdSvc
}

func newThresholdHandler(ts portssvc.ThresholdSvc) *thresholdHandler {
	return &thresholdHandler{thresholdService: ts}
}

// registerThresholdRoutes registers the company's edge-case threshold settings.
func registerThresholdRoutes(rg *gin.RouterGroup, ts portssvc.ThresholdSvc) {
	h := newThresholdHandler(ts)

	rg.GET("/thresholds", h.getThresholds)
	rg.PUT("/thresholds", h.updateThresholds)
}

func (h *thresholdHandler) getThresholds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	if _, ok := actorFromContext(c, logger); !ok {
		return
	}

	thresholds, err := h.thresholdService.GetThresholds(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, logger.With(slog.String("company_id", companyID)), err, "Failed to retrieve thresholds")
		return
	}
	c.JSON(http.StatusOK, thresholds)
}

func (h *thresholdHandler) updateThresholds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.UpdateThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateThresholds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID))

	thresholds, err := h.thresholdService.UpdateThresholds(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update thresholds")
		return
	}

	logger.Info("Thresholds updated", slog.Int64("large_amount_cents", thresholds.LargeAmountCents))
	c.JSON(http.StatusOK, thresholds)
}
