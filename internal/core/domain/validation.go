package domain

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
)

// ValidationResult collects every structural violation found in one pass.
type ValidationResult struct {
	Errors []string `json:"errors"`
}

// IsValid reports whether no violation was found.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Addf records one violation.
func (r *ValidationResult) Addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Err returns the violations as a ValidationErrors, or nil when valid.
func (r *ValidationResult) Err() error {
	return apperrors.NewValidationErrors(r.Errors)
}

// FlattenValidation renders ozzo field errors as "field: message", ordered by field name.
func FlattenValidation(errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %v", k, errs[k]))
	}
	return msgs
}
