package domain

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
)

// EdgeCaseType names a non-blocking risk signal.
type EdgeCaseType string

const (
	FlagNegativeBalance    EdgeCaseType = "negative_balance"
	FlagLargeAmount        EdgeCaseType = "large_amount"
	FlagFutureDated        EdgeCaseType = "future_dated"
	FlagBackdated          EdgeCaseType = "backdated"
	FlagAssetWritedown     EdgeCaseType = "asset_writedown"
	FlagContraRevenue      EdgeCaseType = "contra_revenue"
	FlagContraExpense      EdgeCaseType = "contra_expense"
	FlagMissingDescription EdgeCaseType = "missing_description"
	FlagShortDescription   EdgeCaseType = "short_description"
	FlagVagueDescription   EdgeCaseType = "vague_description"
)

// EdgeCaseFlag is one detected signal.
type EdgeCaseFlag struct {
	Type        EdgeCaseType   `json:"type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// EdgeCaseDetectionResult is the union of every detector's flags.
type EdgeCaseDetectionResult struct {
	Flags []EdgeCaseFlag `json:"flags"`
}

// HasFlags reports whether any detector fired.
func (r EdgeCaseDetectionResult) HasFlags() bool {
	return len(r.Flags) > 0
}

// Has reports whether a flag of type t is present.
func (r EdgeCaseDetectionResult) Has(t EdgeCaseType) bool {
	for _, f := range r.Flags {
		if f.Type == t {
			return true
		}
	}
	return false
}

// Types lists the flag types in detection order.
func (r EdgeCaseDetectionResult) Types() []EdgeCaseType {
	out := make([]EdgeCaseType, len(r.Flags))
	for i, f := range r.Flags {
		out[i] = f.Type
	}
	return out
}

// Merge returns the union of r and other. Nothing is deduplicated; two detectors
// flagging the same type on different accounts are both kept.
func (r EdgeCaseDetectionResult) Merge(other EdgeCaseDetectionResult) EdgeCaseDetectionResult {
	flags := make([]EdgeCaseFlag, 0, len(r.Flags)+len(other.Flags))
	flags = append(flags, r.Flags...)
	flags = append(flags, other.Flags...)
	return EdgeCaseDetectionResult{Flags: flags}
}

// EdgeCaseThresholds is the per-company configuration read by the detectors.
// A zero ApprovalThresholdCents disables threshold gating.
type EdgeCaseThresholds struct {
	CompanyID              string `json:"companyID"`
	LargeAmountCents       int64  `json:"largeAmountCents"`
	ApprovalThresholdCents int64  `json:"approvalThresholdCents"`
	BackdatingWindowDays   int    `json:"backdatingWindowDays"`
	FutureDatingWindowDays int    `json:"futureDatingWindowDays"`
	MinDescriptionLength   int    `json:"minDescriptionLength"`
	RequireVoidApproval    bool   `json:"requireVoidApproval"`
}

// DefaultEdgeCaseThresholds is used when a company has not stored its own.
func DefaultEdgeCaseThresholds() EdgeCaseThresholds {
	return EdgeCaseThresholds{
		LargeAmountCents:       1_000_000,
		ApprovalThresholdCents: 0,
		BackdatingWindowDays:   30,
		FutureDatingWindowDays: 0,
		MinDescriptionLength:   5,
		RequireVoidApproval:    false,
	}
}

// ExceedsApprovalThreshold reports whether amountCents is above the company's approval ceiling.
func (t EdgeCaseThresholds) ExceedsApprovalThreshold(amountCents int64) bool {
	return t.ApprovalThresholdCents > 0 && amountCents > t.ApprovalThresholdCents
}

// Validate checks the thresholds and returns ValidationErrors listing every bad field.
func (t EdgeCaseThresholds) Validate() error {
	err := validation.ValidateStruct(&t,
		validation.Field(&t.LargeAmountCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&t.ApprovalThresholdCents, validation.Min(int64(0))),
		validation.Field(&t.BackdatingWindowDays, validation.Min(0), validation.Max(3650)),
		validation.Field(&t.FutureDatingWindowDays, validation.Min(0), validation.Max(3650)),
		validation.Field(&t.MinDescriptionLength, validation.Min(0), validation.Max(500)),
	)
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	return apperrors.NewValidationErrors(FlattenValidation(errs))
}
