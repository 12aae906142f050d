package hashchain

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
)

// SystemChainID identifies the system-wide activity chain.
const SystemChainID = "system"

// JournalChainID identifies a company's journal chain.
func JournalChainID(companyID string) string {
	return "journal:" + companyID
}

// ActivityChainID identifies a company's activity chain. An empty company maps to the system chain.
func ActivityChainID(companyID string) string {
	if companyID == "" {
		return SystemChainID
	}
	return "activity:" + companyID
}

// Genesis is the well-known previous hash of the first entry of a chain.
func Genesis(chainID string) string {
	return SumString("GENESIS:" + chainID)
}

// ChainLink ties an entry to its predecessor.
type ChainLink struct {
	PreviousHash string
	ContentHash  string
	Timestamp    time.Time
}

// ComputeHash returns H(previousHash || contentHash || timestamp).
func (l ChainLink) ComputeHash() string {
	return SumString(l.PreviousHash + l.ContentHash + FormatTimestamp(l.Timestamp))
}

// Link is the stored view of one chain entry, as needed for verification.
type Link struct {
	EntryID      string
	Sequence     int64
	ContentHash  string
	PreviousHash string
	ChainHash    string
	Timestamp    time.Time

	// RecomputedContentHash, when set, is the content hash recomputed from the
	// entry's stored payload. A mismatch with ContentHash marks the entry broken.
	RecomputedContentHash string
}

// IntegrityResult is the outcome of walking a chain.
type IntegrityResult struct {
	ChainID       string `json:"chainId"`
	Valid         bool   `json:"valid"`
	VerifiedCount int    `json:"verifiedCount"`
	BrokenEntryID string `json:"brokenEntryId,omitempty"`
	ExpectedHash  string `json:"expectedHash,omitempty"`
	ActualHash    string `json:"actualHash,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Intact reports a fully verified chain.
func Intact(chainID string, verified int) IntegrityResult {
	return IntegrityResult{ChainID: chainID, Valid: true, VerifiedCount: verified}
}

// Broken reports the exact entry where verification failed.
func Broken(chainID, entryID, expected, actual string, verifiedSoFar int, reason string) IntegrityResult {
	return IntegrityResult{
		ChainID:       chainID,
		Valid:         false,
		VerifiedCount: verifiedSoFar,
		BrokenEntryID: entryID,
		ExpectedHash:  expected,
		ActualHash:    actual,
		Reason:        reason,
	}
}

// Err converts a broken result into an IntegrityError.
func (r IntegrityResult) Err() error {
	if r.Valid {
		return nil
	}
	return &apperrors.IntegrityError{ChainID: r.ChainID, EntryID: r.BrokenEntryID, Expected: r.ExpectedHash, Actual: r.ActualHash}
}

// Verify walks links in sequence order, starting from the chain's genesis hash.
// Sequences are expected to start at 1 with no gaps.
func Verify(chainID string, links []Link) IntegrityResult {
	previous := Genesis(chainID)
	for i, l := range links {
		if l.Sequence != int64(i+1) {
			return Broken(chainID, l.EntryID, "", "", i, "sequence gap")
		}
		if l.RecomputedContentHash != "" && l.RecomputedContentHash != l.ContentHash {
			return Broken(chainID, l.EntryID, l.RecomputedContentHash, l.ContentHash, i, "content hash mismatch")
		}
		if l.PreviousHash != previous {
			return Broken(chainID, l.EntryID, previous, l.PreviousHash, i, "previous hash mismatch")
		}
		computed := ChainLink{PreviousHash: l.PreviousHash, ContentHash: l.ContentHash, Timestamp: l.Timestamp}.ComputeHash()
		if computed != l.ChainHash {
			return Broken(chainID, l.EntryID, computed, l.ChainHash, i, "chain hash mismatch")
		}
		previous = l.ChainHash
	}
	return Intact(chainID, len(links))
}
