package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
)

// ToModelApproval converts a domain Approval to a model Approval, encoding reason and proof as JSON
func ToModelApproval(d *domain.Approval) (models.Approval, error) {
	reason, err := json.Marshal(d.Reason)
	if err != nil {
		return models.Approval{}, fmt.Errorf("encode approval reason: %w", err)
	}
	var proof []byte
	if d.Proof != nil {
		if proof, err = json.Marshal(d.Proof); err != nil {
			return models.Approval{}, fmt.Errorf("encode approval proof: %w", err)
		}
	}

	return models.Approval{
		ApprovalID:        d.ApprovalID,
		CompanyID:         d.CompanyID,
		ApprovalType:      string(d.Type),
		EntityType:        d.EntityType,
		EntityID:          d.EntityID,
		EntityContentHash: d.EntityContentHash,
		Reason:            reason,
		RequestedBy:       d.RequestedBy,
		RequestedAt:       d.RequestedAt,
		AmountCents:       d.Amount.Cents,
		CurrencyCode:      d.Amount.Currency,
		Priority:          d.Priority,
		ExpiresAt:         d.ExpiresAt,
		Status:            string(d.Status),
		ReviewedBy:        d.ReviewedBy,
		ReviewNotes:       d.ReviewNotes,
		ReviewedAt:        d.ReviewedAt,
		Proof:             proof,
	}, nil
}

// ToDomainApproval converts a model Approval to a domain Approval
func ToDomainApproval(m models.Approval) (*domain.Approval, error) {
	state := domain.Approval{
		ApprovalID:        m.ApprovalID,
		CompanyID:         m.CompanyID,
		Type:              domain.ApprovalType(m.ApprovalType),
		EntityType:        m.EntityType,
		EntityID:          m.EntityID,
		EntityContentHash: m.EntityContentHash,
		RequestedBy:       m.RequestedBy,
		RequestedAt:       m.RequestedAt.UTC(),
		Amount:            domain.Money{Cents: m.AmountCents, Currency: m.CurrencyCode},
		Priority:          m.Priority,
		ExpiresAt:         m.ExpiresAt.UTC(),
		Status:            domain.ApprovalStatus(m.Status),
		ReviewedBy:        m.ReviewedBy,
		ReviewNotes:       m.ReviewNotes,
		ReviewedAt:        utcPtr(m.ReviewedAt),
	}
	if len(m.Reason) > 0 {
		if err := json.Unmarshal(m.Reason, &state.Reason); err != nil {
			return nil, fmt.Errorf("decode reason of approval %s: %w", m.ApprovalID, err)
		}
	}
	if len(m.Proof) > 0 {
		state.Proof = &domain.ApprovalProof{}
		if err := json.Unmarshal(m.Proof, state.Proof); err != nil {
			return nil, fmt.Errorf("decode proof of approval %s: %w", m.ApprovalID, err)
		}
	}
	return domain.RehydrateApproval(state), nil
}

// ToModelThresholds converts domain thresholds to a model row
func ToModelThresholds(d domain.EdgeCaseThresholds) models.EdgeCaseThresholds {
	return models.EdgeCaseThresholds{
		CompanyID:              d.CompanyID,
		LargeAmountCents:       d.LargeAmountCents,
		ApprovalThresholdCents: d.ApprovalThresholdCents,
		BackdatingWindowDays:   d.BackdatingWindowDays,
		FutureDatingWindowDays: d.FutureDatingWindowDays,
		MinDescriptionLength:   d.MinDescriptionLength,
		RequireVoidApproval:    d.RequireVoidApproval,
	}
}

// ToDomainThresholds converts a model row to domain thresholds
func ToDomainThresholds(m models.EdgeCaseThresholds) domain.EdgeCaseThresholds {
	return domain.EdgeCaseThresholds{
		CompanyID:              m.CompanyID,
		LargeAmountCents:       m.LargeAmountCents,
		ApprovalThresholdCents: m.ApprovalThresholdCents,
		BackdatingWindowDays:   m.BackdatingWindowDays,
		FutureDatingWindowDays: m.FutureDatingWindowDays,
		MinDescriptionLength:   m.MinDescriptionLength,
		RequireVoidApproval:    m.RequireVoidApproval,
	}
}

// decodePayload reads a JSON object keeping numbers as json.Number, so re-hashing a
// stored payload reproduces the hash taken before it was written.
func decodePayload(raw []byte) (map[string]any, error) {
	payload := map[string]any{}
	if len(raw) == 0 {
		return payload, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
