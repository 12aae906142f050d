package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// Cursor is the keyset position of the last row of a transaction page:
// the transaction date, its creation time and its id as a tie breaker.
type Cursor struct {
	Date      time.Time
	CreatedAt time.Time
	ID        string
}

// EncodeToken creates an opaque, URL-safe token from a transaction cursor.
func EncodeToken(c Cursor) string {
	return EncodeMultiFieldToken(c.Date.UTC().Format(timeFormat), c.CreatedAt.UTC().Format(timeFormat), c.ID)
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (Cursor, error) {
	parts, err := DecodeMultiFieldToken(token, 3)
	if err != nil {
		return Cursor{}, err
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	return Cursor{Date: date, CreatedAt: createdAt, ID: parts[2]}, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token and checks it has exactly want fields.
func DecodeMultiFieldToken(token string, want int) ([]string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", want)
	if len(parts) != want {
		return nil, fmt.Errorf("invalid pagination token format: expected %d fields, got %d", want, len(parts))
	}
	return parts, nil
}
