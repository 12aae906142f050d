package models

import "time"

// JournalEntry represents a row of the append-only journal_entries table.
type JournalEntry struct {
	EntryID       string    `db:"entry_id"`
	CompanyID     string    `db:"company_id"`
	TransactionID string    `db:"transaction_id"`
	EntryType     string    `db:"entry_type"`
	Sequence      int64     `db:"sequence"`
	Payload       []byte    `db:"payload"`
	ContentHash   string    `db:"content_hash"`
	PreviousHash  string    `db:"previous_hash"`
	ChainHash     string    `db:"chain_hash"`
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
}

// ActivityLog represents a row of the append-only activity_logs table.
type ActivityLog struct {
	ActivityID   string    `db:"activity_id"`
	ChainID      string    `db:"chain_id"`
	CompanyID    string    `db:"company_id"`
	ActorID      string    `db:"actor_id"`
	Action       string    `db:"action"`
	EntityType   string    `db:"entity_type"`
	EntityID     string    `db:"entity_id"`
	Payload      []byte    `db:"payload"`
	Sequence     int64     `db:"sequence"`
	ContentHash  string    `db:"content_hash"`
	PreviousHash string    `db:"previous_hash"`
	ChainHash    string    `db:"chain_hash"`
	OccurredAt   time.Time `db:"occurred_at"`
}

// ChainHead is the locked pointer to the last link of one hash chain.
type ChainHead struct {
	ChainID  string `db:"chain_id"`
	Sequence int64  `db:"sequence"`
	HeadHash string `db:"head_hash"`
}
