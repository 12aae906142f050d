package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// stateRules are business rules broken by the current state of a resource rather than by the
// request itself. They answer 409; every other rule answers 422.
var stateRules = map[string]bool{
	domain.RuleTransactionNotDraft:   true,
	domain.RuleTransactionNotPosted:  true,
	domain.RuleApprovalNotPending:    true,
	domain.RuleApprovalExpired:       true,
	domain.RuleApprovalProofMismatch: true,
}

// respondError maps a service error onto the HTTP error contract. failMsg is the
// body of unexpected failures; the cause is only logged.
func respondError(c *gin.Context, logger *slog.Logger, err error, failMsg string) {
	var rule *apperrors.BusinessRuleError
	var integrity *apperrors.IntegrityError

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation failed", slog.String("error", err.Error()))
		msgs := apperrors.ValidationMessages(err)
		if len(msgs) == 0 {
			msgs = []string{err.Error()}
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorsResponse{Errors: msgs})
	case errors.As(err, &rule):
		logger.Warn("Business rule violated", slog.String("rule", rule.Rule), slog.String("error", err.Error()))
		status := http.StatusUnprocessableEntity
		if stateRules[rule.Rule] {
			status = http.StatusConflict
		}
		c.JSON(status, dto.ErrorsResponse{Errors: []string{rule.Message}, Rule: rule.Rule})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Concurrent modification", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorsResponse{Errors: []string{err.Error()}, Retryable: true})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorsResponse{Errors: []string{err.Error()}})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, dto.ErrorsResponse{Errors: []string{err.Error()}})
	case errors.As(err, &integrity):
		logger.Error("AUDIT ALERT: integrity violation",
			slog.String("chain_id", integrity.ChainID),
			slog.String("entry_id", integrity.EntryID),
			slog.String("expected_hash", integrity.Expected),
			slog.String("actual_hash", integrity.Actual),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorsResponse{Errors: []string{"Integrity violation detected"}})
	default:
		logger.Error(failMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorsResponse{Errors: []string{failMsg}})
	}
}

// actorFromContext reads the authenticated user or answers 401.
func actorFromContext(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
