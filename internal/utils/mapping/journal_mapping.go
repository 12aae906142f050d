package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
)

// ToModelJournalEntry converts a linked domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d *domain.JournalEntry) (models.JournalEntry, error) {
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("encode journal payload: %w", err)
	}
	return models.JournalEntry{
		EntryID:       d.EntryID,
		CompanyID:     d.CompanyID,
		TransactionID: d.TransactionID,
		EntryType:     string(d.EntryType),
		Sequence:      d.Sequence,
		Payload:       payload,
		ContentHash:   d.ContentHash,
		PreviousHash:  d.PreviousHash,
		ChainHash:     d.ChainHash,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}, nil
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) (domain.JournalEntry, error) {
	payload, err := decodePayload(m.Payload)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("decode payload of journal entry %s: %w", m.EntryID, err)
	}
	return domain.JournalEntry{
		EntryID:       m.EntryID,
		CompanyID:     m.CompanyID,
		TransactionID: m.TransactionID,
		EntryType:     domain.JournalEntryType(m.EntryType),
		Sequence:      m.Sequence,
		Payload:       payload,
		ContentHash:   m.ContentHash,
		PreviousHash:  m.PreviousHash,
		ChainHash:     m.ChainHash,
		CreatedAt:     m.CreatedAt.UTC(),
		CreatedBy:     m.CreatedBy,
	}, nil
}

// ToModelActivityLog converts a linked domain ActivityLog to a model ActivityLog
func ToModelActivityLog(d *domain.ActivityLog) (models.ActivityLog, error) {
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return models.ActivityLog{}, fmt.Errorf("encode activity payload: %w", err)
	}
	return models.ActivityLog{
		ActivityID:   d.ActivityID,
		ChainID:      d.ChainID,
		CompanyID:    d.CompanyID,
		ActorID:      d.ActorID,
		Action:       d.Action,
		EntityType:   d.EntityType,
		EntityID:     d.EntityID,
		Payload:      payload,
		Sequence:     d.Sequence,
		ContentHash:  d.ContentHash,
		PreviousHash: d.PreviousHash,
		ChainHash:    d.ChainHash,
		OccurredAt:   d.OccurredAt,
	}, nil
}

// ToDomainActivityLog converts a model ActivityLog to a domain ActivityLog
func ToDomainActivityLog(m models.ActivityLog) (domain.ActivityLog, error) {
	payload, err := decodePayload(m.Payload)
	if err != nil {
		return domain.ActivityLog{}, fmt.Errorf("decode payload of activity %s: %w", m.ActivityID, err)
	}
	return domain.ActivityLog{
		ActivityID:   m.ActivityID,
		ChainID:      m.ChainID,
		CompanyID:    m.CompanyID,
		ActorID:      m.ActorID,
		Action:       m.Action,
		EntityType:   m.EntityType,
		EntityID:     m.EntityID,
		Payload:      payload,
		Sequence:     m.Sequence,
		ContentHash:  m.ContentHash,
		PreviousHash: m.PreviousHash,
		ChainHash:    m.ChainHash,
		OccurredAt:   m.OccurredAt.UTC(),
	}, nil
}
