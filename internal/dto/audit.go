package dto

import (
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
)

// JournalProofResponse proves one journal entry belongs to the company's committed batch.
type JournalProofResponse struct {
	EntryID   string                `json:"entryID"`
	Sequence  int64                 `json:"sequence"`
	Leaf      string                `json:"leaf"`
	Root      string                `json:"root"`
	BatchSize int                   `json:"batchSize"`
	LeafIndex int                   `json:"leafIndex"`
	Steps     []hashchain.ProofStep `json:"steps"`
	Verified  bool                  `json:"verified"`
}
