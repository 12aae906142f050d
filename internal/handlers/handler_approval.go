package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// approvalHandler handles the approval queue and its state transitions.
type approvalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
	postingService  portssvc.PostingSvc
}

func newApprovalHandler(as portssvc.ApprovalSvcFacade, ps portssvc.PostingSvc) *approvalHandler {
	return &approvalHandler{
		approvalService: as,
		postingService:  ps,
	}
}

// registerApprovalRoutes registers routes related to approvals.
func registerApprovalRoutes(rg *gin.RouterGroup, as portssvc.ApprovalSvcFacade, ps portssvc.PostingSvc) {
	h := newApprovalHandler(as, ps)

	approvals := rg.Group("/approvals")
	{
		approvals.GET("", h.listPending)
		approvals.GET("/:approval_id", h.getApproval)
		approvals.POST("/:approval_id/approve", h.approve)
		approvals.POST("/:approval_id/reject", h.reject)
		approvals.POST("/:approval_id/cancel", h.cancel)
	}
}

func (h *approvalHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	if _, ok := actorFromContext(c, logger); !ok {
		return
	}

	var params dto.ListApprovalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListPending", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("company_id", companyID))

	approvals, err := h.approvalService.ListPending(c.Request.Context(), companyID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list approvals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvals": dto.ToApprovalResponses(approvals)})
}

func (h *approvalHandler) getApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	approvalID := c.Param("approval_id")

	if _, ok := actorFromContext(c, logger); !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("approval_id", approvalID))

	approval, err := h.approvalService.GetApprovalByID(c.Request.Context(), companyID, approvalID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve approval")
		return
	}
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval))
}

// approve grants the approval. Transaction approvals also execute the gated post or void,
// so the response is a posting result; any other approval answers with its new state.
func (h *approvalHandler) approve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	approvalID := c.Param("approval_id")

	var req dto.ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for Approve", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	approverID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("approval_id", approvalID), slog.String("approver_id", approverID))
	logger.Info("Received request to approve")

	approval, err := h.approvalService.GetApprovalByID(c.Request.Context(), companyID, approvalID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve")
		return
	}

	if approval.EntityType == domain.EntityTypeTransaction {
		result, err := h.postingService.ApproveAndExecute(c.Request.Context(), companyID, approvalID, req, approverID)
		if err != nil {
			respondError(c, logger, err, "Failed to approve")
			return
		}
		writePostingResult(c, logger, result)
		return
	}

	approved, err := h.approvalService.Approve(c.Request.Context(), companyID, approvalID, req, approverID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve")
		return
	}
	logger.Info("Approval granted")
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approved))
}

func (h *approvalHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	approvalID := c.Param("approval_id")

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Reject", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reviewerID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("approval_id", approvalID))

	approval, err := h.approvalService.Reject(c.Request.Context(), companyID, approvalID, req, reviewerID)
	if err != nil {
		respondError(c, logger, err, "Failed to reject")
		return
	}
	logger.Info("Approval rejected")
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval))
}

func (h *approvalHandler) cancel(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	approvalID := c.Param("approval_id")

	// Cancel and approve accept an empty body.
	var req dto.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for Cancel", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("approval_id", approvalID))

	approval, err := h.approvalService.Cancel(c.Request.Context(), companyID, approvalID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel")
		return
	}
	logger.Info("Approval cancelled")
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval))
}
