package models

import "time"

// Approval represents a row of the approvals table. Reason and Proof are stored as JSONB.
type Approval struct {
	ApprovalID        string     `db:"approval_id"`
	CompanyID         string     `db:"company_id"`
	ApprovalType      string     `db:"approval_type"`
	EntityType        string     `db:"entity_type"`
	EntityID          string     `db:"entity_id"`
	EntityContentHash string     `db:"entity_content_hash"`
	Reason            []byte     `db:"reason"`
	RequestedBy       string     `db:"requested_by"`
	RequestedAt       time.Time  `db:"requested_at"`
	AmountCents       int64      `db:"amount_cents"`
	CurrencyCode      string     `db:"currency_code"`
	Priority          int        `db:"priority"`
	ExpiresAt         time.Time  `db:"expires_at"`
	Status            string     `db:"status"`
	ReviewedBy        string     `db:"reviewed_by"`
	ReviewNotes       string     `db:"review_notes"`
	ReviewedAt        *time.Time `db:"reviewed_at"` // Nullable
	Proof             []byte     `db:"proof"`       // Nullable
}

// EdgeCaseThresholds represents a company's row of the edge_case_thresholds table.
type EdgeCaseThresholds struct {
	CompanyID              string    `db:"company_id"`
	LargeAmountCents       int64     `db:"large_amount_cents"`
	ApprovalThresholdCents int64     `db:"approval_threshold_cents"`
	BackdatingWindowDays   int       `db:"backdating_window_days"`
	FutureDatingWindowDays int       `db:"future_dating_window_days"`
	MinDescriptionLength   int       `db:"min_description_length"`
	RequireVoidApproval    bool      `db:"require_void_approval"`
	UpdatedAt              time.Time `db:"updated_at"`
}
