package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
)

// ApprovalStatus is the lifecycle state of an approval. Everything but PENDING is terminal.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalApproved  ApprovalStatus = "APPROVED"
	ApprovalRejected  ApprovalStatus = "REJECTED"
	ApprovalExpired   ApprovalStatus = "EXPIRED"
	ApprovalCancelled ApprovalStatus = "CANCELLED"
)

func (s ApprovalStatus) IsTerminal() bool {
	return s != ApprovalPending
}

// ApprovalType is the risk category that caused an approval to be requested.
type ApprovalType string

const (
	ApprovalTransactionPosting ApprovalType = "transaction_posting"
	ApprovalHighValue          ApprovalType = "high_value"
	ApprovalNegativeBalance    ApprovalType = "negative_balance"
	ApprovalAssetWritedown     ApprovalType = "asset_writedown"
	ApprovalFutureDated        ApprovalType = "future_dated"
	ApprovalBackdated          ApprovalType = "backdated"
	ApprovalContraEntry        ApprovalType = "contra_entry"
	ApprovalEdgeCase           ApprovalType = "edge_case"
	ApprovalVoidTransaction    ApprovalType = "void_transaction"
	ApprovalUserRegistration   ApprovalType = "user_registration"
)

type approvalPolicy struct {
	expiry   time.Duration
	priority int // 1 is most urgent
}

var approvalPolicies = map[ApprovalType]approvalPolicy{
	ApprovalNegativeBalance:    {expiry: 12 * time.Hour, priority: 1},
	ApprovalVoidTransaction:    {expiry: 4 * time.Hour, priority: 1},
	ApprovalHighValue:          {expiry: 24 * time.Hour, priority: 2},
	ApprovalAssetWritedown:     {expiry: 24 * time.Hour, priority: 2},
	ApprovalTransactionPosting: {expiry: 24 * time.Hour, priority: 3},
	ApprovalFutureDated:        {expiry: 48 * time.Hour, priority: 3},
	ApprovalBackdated:          {expiry: 48 * time.Hour, priority: 3},
	ApprovalContraEntry:        {expiry: 48 * time.Hour, priority: 3},
	ApprovalEdgeCase:           {expiry: 48 * time.Hour, priority: 3},
	ApprovalUserRegistration:   {expiry: 72 * time.Hour, priority: 4},
}

func (t ApprovalType) IsValid() bool {
	_, ok := approvalPolicies[t]
	return ok
}

// ExpiryDuration is how long a request of this type stays open.
func (t ApprovalType) ExpiryDuration() time.Duration {
	return approvalPolicies[t].expiry
}

// DefaultPriority is the queue priority of this type.
func (t ApprovalType) DefaultPriority() int {
	return approvalPolicies[t].priority
}

// IsTransactionPosting reports the one type whose requester may also approve.
// Small teams legitimately post and approve their own routine entries.
func (t ApprovalType) IsTransactionPosting() bool {
	return t == ApprovalTransactionPosting
}

// Business rule identifiers raised by the approval aggregate.
const (
	RuleApprovalNotPending     = "approval.not_pending"
	RuleApprovalSelfApproval   = "approval.self_approval"
	RuleApprovalReasonTooShort = "approval.reason_too_short"
	RuleApprovalNotRequester   = "approval.not_requester"
	RuleApprovalNotExpired     = "approval.not_expired"
	RuleApprovalExpired        = "approval.expired"
	RuleApprovalInvalid        = "approval.invalid"
	RuleApprovalProofMismatch  = "approval.proof_mismatch"
)

// MinRejectReasonLength is the minimum number of characters in a rejection reason.
const MinRejectReasonLength = 10

// ApprovalReason explains why an approval was requested. All detected flags are kept for audit.
type ApprovalReason struct {
	Type    ApprovalType   `json:"type"`
	Summary string         `json:"summary"`
	Flags   []EdgeCaseFlag `json:"flags,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Approval gates an entity until a reviewer resolves it.
type Approval struct {
	ApprovalID        string         `json:"approvalID"`
	CompanyID         string         `json:"companyID"`
	Type              ApprovalType   `json:"type"`
	EntityType        string         `json:"entityType"`
	EntityID          string         `json:"entityID"`
	EntityContentHash string         `json:"entityContentHash"`
	Reason            ApprovalReason `json:"reason"`
	RequestedBy       string         `json:"requestedBy"`
	RequestedAt       time.Time      `json:"requestedAt"`
	Amount            Money          `json:"amount"`
	Priority          int            `json:"priority"`
	ExpiresAt         time.Time      `json:"expiresAt"`
	Status            ApprovalStatus `json:"status"`
	ReviewedBy        string         `json:"reviewedBy,omitempty"`
	ReviewNotes       string         `json:"reviewNotes,omitempty"`
	ReviewedAt        *time.Time     `json:"reviewedAt,omitempty"`
	Proof             *ApprovalProof `json:"proof,omitempty"`

	eventRecorder
}

// ApprovalRequest carries the data needed to open an approval.
type ApprovalRequest struct {
	ApprovalID        string
	CompanyID         string
	Type              ApprovalType
	EntityType        string
	EntityID          string
	EntityContentHash string
	Reason            ApprovalReason
	RequestedBy       string
	Amount            Money
	RequestedAt       time.Time
}

// RequestApproval opens a PENDING approval. Priority and expiry come from the type's policy.
func RequestApproval(req ApprovalRequest) (*Approval, error) {
	switch {
	case req.ApprovalID == "":
		return nil, apperrors.NewBusinessRuleError(RuleApprovalInvalid, "approval id is required")
	case !req.Type.IsValid():
		return nil, apperrors.NewBusinessRuleError(RuleApprovalInvalid, fmt.Sprintf("unknown approval type %q", req.Type))
	case req.EntityType == "" || req.EntityID == "":
		return nil, apperrors.NewBusinessRuleError(RuleApprovalInvalid, "approval target entity is required")
	case req.RequestedBy == "":
		return nil, apperrors.NewBusinessRuleError(RuleApprovalInvalid, "requester is required")
	}

	requestedAt := req.RequestedAt.UTC()
	reason := req.Reason
	if reason.Type == "" {
		reason.Type = req.Type
	}

	a := &Approval{
		ApprovalID:        req.ApprovalID,
		CompanyID:         req.CompanyID,
		Type:              req.Type,
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		EntityContentHash: req.EntityContentHash,
		Reason:            reason,
		RequestedBy:       req.RequestedBy,
		RequestedAt:       requestedAt,
		Amount:            req.Amount,
		Priority:          req.Type.DefaultPriority(),
		ExpiresAt:         requestedAt.Add(req.Type.ExpiryDuration()),
		Status:            ApprovalPending,
	}
	a.record(a.event(EventApprovalRequested, req.RequestedBy, requestedAt, map[string]any{
		"type":        string(a.Type),
		"summary":     reason.Summary,
		"priority":    a.Priority,
		"expiresAt":   a.ExpiresAt.Format(time.RFC3339Nano),
		"amountCents": a.Amount.Cents,
		"flags":       flagTypes(reason.Flags),
	}))
	return a, nil
}

// RehydrateApproval rebuilds an approval from storage without raising events.
func RehydrateApproval(state Approval) *Approval {
	a := state
	a.eventRecorder = eventRecorder{}
	return &a
}

func (a *Approval) event(name EventName, actor string, at time.Time, extra map[string]any) DomainEvent {
	payload := map[string]any{
		"approvalId":   a.ApprovalID,
		"approvalType": string(a.Type),
		"status":       string(a.Status),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return NewDomainEvent(name, at, a.CompanyID, actor, a.EntityType, a.EntityID, payload)
}

func (a *Approval) ensurePending() error {
	if a.Status != ApprovalPending {
		return apperrors.NewBusinessRuleError(RuleApprovalNotPending, fmt.Sprintf("approval is already %s", a.Status))
	}
	return nil
}

func (a *Approval) ensureNotSelfReview(reviewer string) error {
	if reviewer == a.RequestedBy && !a.Type.IsTransactionPosting() {
		return apperrors.NewBusinessRuleError(RuleApprovalSelfApproval, "requesters cannot review their own approval request")
	}
	return nil
}

// IsOverdue reports whether a PENDING approval has passed its expiry.
func (a *Approval) IsOverdue(now time.Time) bool {
	return a.Status == ApprovalPending && now.After(a.ExpiresAt)
}

// Approve grants the request, optionally attaching a proof bound to this approval.
func (a *Approval) Approve(approver, notes string, proof *ApprovalProof, now time.Time) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	if approver == "" {
		return apperrors.NewBusinessRuleError(RuleApprovalInvalid, "approver is required")
	}
	if err := a.ensureNotSelfReview(approver); err != nil {
		return err
	}
	if a.IsOverdue(now) {
		return apperrors.NewBusinessRuleError(RuleApprovalExpired, "approval request has expired")
	}
	if proof != nil && (proof.EntityID != a.EntityID || proof.EntityType != a.EntityType || proof.ApprovedBy != approver || proof.ApprovalType != a.Type) {
		return apperrors.NewBusinessRuleError(RuleApprovalProofMismatch, "approval proof does not match this approval")
	}

	reviewedAt := now.UTC()
	a.Status = ApprovalApproved
	a.ReviewedBy = approver
	a.ReviewNotes = notes
	a.ReviewedAt = &reviewedAt
	a.Proof = proof

	extra := map[string]any{"notes": notes}
	if proof != nil {
		extra["proofId"] = proof.ProofID
		extra["entityHash"] = proof.EntityHash
	}
	a.record(a.event(EventApprovalGranted, approver, reviewedAt, extra))
	return nil
}

// Reject denies the request. The reason must be at least MinRejectReasonLength characters.
func (a *Approval) Reject(reviewer, reason string, now time.Time) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	if reviewer == "" {
		return apperrors.NewBusinessRuleError(RuleApprovalInvalid, "reviewer is required")
	}
	if err := a.ensureNotSelfReview(reviewer); err != nil {
		return err
	}
	if a.IsOverdue(now) {
		return apperrors.NewBusinessRuleError(RuleApprovalExpired, "approval request has expired")
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < MinRejectReasonLength {
		return apperrors.NewBusinessRuleError(RuleApprovalReasonTooShort, fmt.Sprintf("rejection reason must be at least %d characters", MinRejectReasonLength))
	}

	reviewedAt := now.UTC()
	a.Status = ApprovalRejected
	a.ReviewedBy = reviewer
	a.ReviewNotes = reason
	a.ReviewedAt = &reviewedAt
	a.record(a.event(EventApprovalRejected, reviewer, reviewedAt, map[string]any{"reason": reason}))
	return nil
}

// Cancel withdraws the request. Only the requester may cancel.
func (a *Approval) Cancel(canceller, reason string, now time.Time) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	if canceller != a.RequestedBy {
		return apperrors.NewBusinessRuleError(RuleApprovalNotRequester, "only the requester can cancel an approval request")
	}

	reviewedAt := now.UTC()
	a.Status = ApprovalCancelled
	a.ReviewedBy = canceller
	a.ReviewNotes = strings.TrimSpace(reason)
	a.ReviewedAt = &reviewedAt
	a.record(a.event(EventApprovalCancelled, canceller, reviewedAt, map[string]any{"reason": a.ReviewNotes}))
	return nil
}

// Supersede withdraws a PENDING request whose entity changed after it was opened.
// replacementID names the request that takes its place, if any.
func (a *Approval) Supersede(actor, replacementID string, now time.Time) error {
	if err := a.ensurePending(); err != nil {
		return err
	}

	reviewedAt := now.UTC()
	a.Status = ApprovalCancelled
	a.ReviewedBy = actor
	a.ReviewNotes = "superseded: entity changed after the request"
	a.ReviewedAt = &reviewedAt
	a.record(a.event(EventApprovalCancelled, actor, reviewedAt, map[string]any{
		"reason":       a.ReviewNotes,
		"supersededBy": replacementID,
	}))
	return nil
}

// Expire closes an overdue PENDING request.
func (a *Approval) Expire(now time.Time) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	if !now.After(a.ExpiresAt) {
		return apperrors.NewBusinessRuleError(RuleApprovalNotExpired, fmt.Sprintf("approval does not expire until %s", a.ExpiresAt.Format(time.RFC3339)))
	}

	reviewedAt := now.UTC()
	a.Status = ApprovalExpired
	a.ReviewedAt = &reviewedAt
	a.record(a.event(EventApprovalExpired, SystemActor, reviewedAt, map[string]any{
		"expiresAt": a.ExpiresAt.Format(time.RFC3339Nano),
	}))
	return nil
}

func flagTypes(flags []EdgeCaseFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f.Type)
	}
	return out
}
