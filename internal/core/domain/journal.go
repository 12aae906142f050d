package domain

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
)

// JournalEntryType distinguishes the original posting from its reversal.
type JournalEntryType string

const (
	EntryPosting  JournalEntryType = "POSTING"
	EntryReversal JournalEntryType = "REVERSAL"
)

// JournalEntry is an append-only, hash-chained record of a posting or a reversal.
type JournalEntry struct {
	EntryID       string           `json:"entryID"`
	CompanyID     string           `json:"companyID"`
	TransactionID string           `json:"transactionID"`
	EntryType     JournalEntryType `json:"entryType"`
	Sequence      int64            `json:"sequence"`
	Payload       map[string]any   `json:"payload"`
	ContentHash   string           `json:"contentHash"`
	PreviousHash  string           `json:"previousHash"`
	ChainHash     string           `json:"chainHash"`
	CreatedAt     time.Time        `json:"createdAt"`
	CreatedBy     string           `json:"createdBy"`
}

// NewJournalEntry captures the transaction's canonical content. The entry is not yet linked.
func NewJournalEntry(entryID string, entryType JournalEntryType, tx *Transaction, actor string, at time.Time) *JournalEntry {
	payload := map[string]any{
		"entryType":   string(entryType),
		"transaction": tx.CanonicalContent(),
	}
	if entryType == EntryReversal {
		payload["voidReason"] = tx.VoidReason
	}

	e := &JournalEntry{
		EntryID:       entryID,
		CompanyID:     tx.CompanyID,
		TransactionID: tx.TransactionID,
		EntryType:     entryType,
		Payload:       payload,
		CreatedAt:     hashchain.NormalizeTimestamp(at),
		CreatedBy:     actor,
	}
	e.ContentHash = hashchain.MustContentHash(e.content())
	return e
}

// content is everything the content hash covers: the payload and each stored column beside it.
func (e *JournalEntry) content() map[string]any {
	return map[string]any{
		"companyId":     e.CompanyID,
		"transactionId": e.TransactionID,
		"entryType":     string(e.EntryType),
		"createdBy":     e.CreatedBy,
		"payload":       e.Payload,
	}
}

// ChainID is the company journal chain this entry belongs to.
func (e *JournalEntry) ChainID() string {
	return hashchain.JournalChainID(e.CompanyID)
}

// Link attaches the entry after the chain's current head.
func (e *JournalEntry) Link(previousHash string, sequence int64) {
	e.PreviousHash = previousHash
	e.Sequence = sequence
	e.ChainHash = hashchain.ChainLink{PreviousHash: previousHash, ContentHash: e.ContentHash, Timestamp: e.CreatedAt}.ComputeHash()
}

// ToLink exposes the stored entry for chain verification, recomputing the content hash from the stored columns.
func (e *JournalEntry) ToLink() hashchain.Link {
	return hashchain.Link{
		EntryID:               e.EntryID,
		Sequence:              e.Sequence,
		ContentHash:           e.ContentHash,
		PreviousHash:          e.PreviousHash,
		ChainHash:             e.ChainHash,
		Timestamp:             e.CreatedAt,
		RecomputedContentHash: hashchain.MustContentHash(e.content()),
	}
}
