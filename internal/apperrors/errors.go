package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrBusinessRule indicates an illegal state transition or a violated domain rule.
var ErrBusinessRule = errors.New("business rule violation")

// ErrConflict indicates an optimistic concurrency conflict. Callers may retry.
var ErrConflict = errors.New("concurrent modification")

// ErrIntegrity indicates a hash-chain or proof verification failure.
var ErrIntegrity = errors.New("integrity violation")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure failure with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInternal) match 5xx app errors that do not wrap a more specific cause.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}

// ValidationErrors carries every structural violation found in one pass.
type ValidationErrors struct {
	Errors []string
}

// NewValidationErrors returns nil when msgs is empty.
func NewValidationErrors(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: msgs}
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(e.Errors, "; "))
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// BusinessRuleError is returned by aggregates when a guard fails.
type BusinessRuleError struct {
	Rule    string
	Message string
}

// NewBusinessRuleError creates a BusinessRuleError.
func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func (e *BusinessRuleError) Is(target error) bool {
	return target == ErrBusinessRule
}

// ConflictError reports a version mismatch at the storage boundary.
type ConflictError struct {
	Resource string
	ID       string
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently (expected %d, found %d)", e.Resource, e.ID, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IntegrityError pinpoints the first broken entry of a chain or a failed proof.
type IntegrityError struct {
	ChainID  string
	EntryID  string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s at entry %s: expected %s, got %s", e.ChainID, e.EntryID, e.Expected, e.Actual)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IsRetryable reports whether the operation that produced err may be retried as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError reports whether err was caused by the caller's input or a rule they broke.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrBusinessRule) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate)
}

// ValidationMessages extracts the collected messages from err, if any.
func ValidationMessages(err error) []string {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
