package domain

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
)

// ApprovalProof binds an approver, a moment and the content hash of the approved entity.
// Once sealed it is never modified.
type ApprovalProof struct {
	ProofID      string       `json:"proofID"`
	EntityType   string       `json:"entityType"`
	EntityID     string       `json:"entityID"`
	ApprovalType ApprovalType `json:"approvalType"`
	ApprovedBy   string       `json:"approvedBy"`
	EntityHash   string       `json:"entityHash"`
	ApprovedAt   time.Time    `json:"approvedAt"`
	Notes        string       `json:"notes,omitempty"`
	Seal         string       `json:"seal"`
}

// NewApprovalProof builds and seals a proof over entityHash.
func NewApprovalProof(proofID, entityType, entityID string, approvalType ApprovalType, approvedBy, entityHash, notes string, at time.Time) *ApprovalProof {
	p := &ApprovalProof{
		ProofID:      proofID,
		EntityType:   entityType,
		EntityID:     entityID,
		ApprovalType: approvalType,
		ApprovedBy:   approvedBy,
		EntityHash:   entityHash,
		ApprovedAt:   hashchain.NormalizeTimestamp(at),
		Notes:        notes,
	}
	p.Seal = p.computeSeal()
	return p
}

func (p *ApprovalProof) computeSeal() string {
	return hashchain.MustContentHash(map[string]any{
		"proofId":      p.ProofID,
		"entityType":   p.EntityType,
		"entityId":     p.EntityID,
		"approvalType": string(p.ApprovalType),
		"approvedBy":   p.ApprovedBy,
		"entityHash":   p.EntityHash,
		"approvedAt":   hashchain.FormatTimestamp(p.ApprovedAt),
		"notes":        p.Notes,
	})
}

// IsSealed reports whether the proof's own fields still match its seal.
func (p *ApprovalProof) IsSealed() bool {
	return p.Seal != "" && p.Seal == p.computeSeal()
}

// Verify reports whether the entity is unchanged since approval and the proof is intact.
func (p *ApprovalProof) Verify(currentHash string) bool {
	return p.IsSealed() && currentHash != "" && p.EntityHash == currentHash
}
