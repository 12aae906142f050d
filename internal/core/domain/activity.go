package domain

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
)

// SystemActor is recorded as the actor of time-driven transitions.
const SystemActor = "__system__"

// ActivityLog is one hash-chained record of a state-changing action. Records without a
// company belong to the system-wide chain.
type ActivityLog struct {
	ActivityID   string         `json:"activityID"`
	ChainID      string         `json:"chainID"`
	CompanyID    string         `json:"companyID,omitempty"`
	ActorID      string         `json:"actorID"`
	Action       string         `json:"action"`
	EntityType   string         `json:"entityType"`
	EntityID     string         `json:"entityID"`
	Payload      map[string]any `json:"payload"`
	Sequence     int64          `json:"sequence"`
	ContentHash  string         `json:"contentHash"`
	PreviousHash string         `json:"previousHash"`
	ChainHash    string         `json:"chainHash"`
	OccurredAt   time.Time      `json:"occurredAt"`
}

// NewActivityLog builds an unlinked activity record.
func NewActivityLog(activityID, companyID, actorID, action, entityType, entityID string, payload map[string]any, at time.Time) *ActivityLog {
	if payload == nil {
		payload = map[string]any{}
	}
	a := &ActivityLog{
		ActivityID: activityID,
		ChainID:    hashchain.ActivityChainID(companyID),
		CompanyID:  companyID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		OccurredAt: hashchain.NormalizeTimestamp(at),
	}
	a.ContentHash = hashchain.MustContentHash(a.content())
	return a
}

// NewActivityFromEvent records a domain event as an activity.
func NewActivityFromEvent(activityID string, e DomainEvent) *ActivityLog {
	return NewActivityLog(activityID, e.CompanyID(), e.ActorID(), string(e.Name), e.EntityType(), e.EntityID(), e.Payload, e.OccurredAt)
}

func (a *ActivityLog) content() map[string]any {
	return map[string]any{
		"companyId":  a.CompanyID,
		"actorId":    a.ActorID,
		"action":     a.Action,
		"entityType": a.EntityType,
		"entityId":   a.EntityID,
		"payload":    a.Payload,
	}
}

// Link attaches the record after the chain's current head.
func (a *ActivityLog) Link(previousHash string, sequence int64) {
	a.PreviousHash = previousHash
	a.Sequence = sequence
	a.ChainHash = hashchain.ChainLink{PreviousHash: previousHash, ContentHash: a.ContentHash, Timestamp: a.OccurredAt}.ComputeHash()
}

// ToLink exposes the stored record for chain verification.
func (a *ActivityLog) ToLink() hashchain.Link {
	return hashchain.Link{
		EntryID:               a.ActivityID,
		Sequence:              a.Sequence,
		ContentHash:           a.ContentHash,
		PreviousHash:          a.PreviousHash,
		ChainHash:             a.ChainHash,
		Timestamp:             a.OccurredAt,
		RecomputedContentHash: hashchain.MustContentHash(a.content()),
	}
}
