// Package hashchain holds the tamper-evidence primitives shared by the journal
// and activity chains: canonical content hashing, chain links, genesis hashes,
// chain verification and Merkle inclusion proofs.
package hashchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Canonicalize renders v as JSON with object keys sorted at every depth.
// Two values that differ only in field or map insertion order canonicalize identically.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	// encoding/json writes map keys in sorted order.
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical content: %w", err)
	}
	return out, nil
}

// ContentHashOf returns the hex SHA-256 of the canonical form of v.
func ContentHashOf(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return Sum(canonical), nil
}

// MustContentHash is ContentHashOf for values built only from JSON-safe types.
// It panics if v cannot be marshalled.
func MustContentHash(v any) string {
	h, err := ContentHashOf(v)
	if err != nil {
		panic(err)
	}
	return h
}

// Sum returns the hex SHA-256 of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SumString returns the hex SHA-256 of s.
func SumString(s string) string {
	return Sum([]byte(s))
}

// NormalizeTimestamp truncates t to the precision the relational store keeps,
// so a hash computed before a write can be recomputed after a read.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatTimestamp is the textual form of a timestamp used inside hashes.
func FormatTimestamp(t time.Time) string {
	return NormalizeTimestamp(t).Format(time.RFC3339Nano)
}
