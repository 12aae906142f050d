package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// transactionHandler handles drafting, posting and voiding transactions.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
	postingService     portssvc.PostingSvc
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade, ps portssvc.PostingSvc) *transactionHandler {
	return &transactionHandler{
		transactionService: ts,
		postingService:     ps,
	}
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, ts portssvc.TransactionSvcFacade, ps portssvc.PostingSvc) {
	h := newTransactionHandler(ts, ps)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.GET("", h.listTransactions)
		txns.GET("/:transaction_id", h.getTransaction)
		txns.POST("/:transaction_id/lines", h.addLine)
		txns.POST("/:transaction_id/post", h.postTransaction)
		txns.POST("/:transaction_id/void", h.voidTransaction)
	}
}

func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("creator_user_id", creatorUserID))
	logger.Info("Received request to create transaction", slog.Int("line_count", len(req.Lines)))

	tx, err := h.transactionService.CreateTransaction(c.Request.Context(), companyID, req, creatorUserID)
	if err != nil {
		respondError(c, logger, err, "Failed to create transaction")
		return
	}

	logger.Info("Transaction drafted", slog.String("transaction_id", tx.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(tx))
}

func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	if _, ok := actorFromContext(c, logger); !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("transaction_id", transactionID))

	tx, err := h.transactionService.GetTransactionByID(c.Request.Context(), companyID, transactionID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
}

func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	if _, ok := actorFromContext(c, logger); !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("company_id", companyID))

	resp, err := h.transactionService.ListTransactions(c.Request.Context(), companyID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	logger.Info("Transactions listed successfully", slog.Int("count", len(resp.Transactions)))
	c.JSON(http.StatusOK, resp)
}

func (h *transactionHandler) addLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	var line dto.LineInput
	if err := c.ShouldBindJSON(&line); err != nil {
		logger.Warn("Failed to bind JSON for AddLine", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("transaction_id", transactionID))

	tx, err := h.transactionService.AddLine(c.Request.Context(), companyID, transactionID, line, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to add line")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
}

// postTransaction answers 200 with the committed entry or 202 when the posting waits for approval.
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	actorUserID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("transaction_id", transactionID))
	logger.Info("Received request to post transaction")

	// The path and the token decide what is posted and by whom; any body is ignored.
	req := dto.PostTransactionRequest{TransactionID: transactionID, ActorUserID: actorUserID}
	result, err := h.postingService.PostTransaction(c.Request.Context(), companyID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post transaction")
		return
	}

	writePostingResult(c, logger, result)
}

func (h *transactionHandler) voidTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	var req dto.VoidTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for VoidTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("company_id", companyID), slog.String("transaction_id", transactionID))
	logger.Info("Received request to void transaction")

	result, err := h.postingService.VoidTransaction(c.Request.Context(), companyID, transactionID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to void transaction")
		return
	}

	writePostingResult(c, logger, result)
}

func writePostingResult(c *gin.Context, logger *slog.Logger, result *dto.PostingResult) {
	if result.Status == dto.StatusPendingApproval {
		logger.Info("Ledger write awaits approval", slog.String("approval_id", result.ApprovalID))
		c.JSON(http.StatusAccepted, result)
		return
	}
	logger.Info("Ledger write committed",
		slog.String("status", result.Status),
		slog.String("journal_entry_id", result.JournalEntryID),
	)
	c.JSON(http.StatusOK, result)
}
