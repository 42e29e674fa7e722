package pagination

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultLimit is the page size when a cursor is given without a limit.
	DefaultLimit = 25
	// MaxLimit caps how many records any page can hold.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
// The zero value means "everything".
type Params struct {
	Limit  int
	Cursor string
}

func (p Params) enabled() bool {
	return p.Limit > 0 || strings.TrimSpace(p.Cursor) != ""
}

// Cursor points at the last record of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Newer reports whether a sorts before b in newest-first order. Equal
// timestamps fall back to descending ID so the order is total.
func Newer(a, b Cursor) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Apply pages through items, which must already be sorted with Newer. keyOf
// extracts the cursor position of a record. The next page starts at the first
// record older than the cursor, so it survives the cursor record disappearing
// from the listing.
func Apply[T any](items []T, params Params, keyOf func(T) Cursor) (Page[T], error) {
	if !params.enabled() {
		return Page[T]{Items: items}, nil
	}

	start := 0
	if cur, err := ParseCursor(params.Cursor); err != nil {
		return Page[T]{}, err
	} else if cur != nil {
		start = sort.Search(len(items), func(i int) bool {
			return Newer(*cur, keyOf(items[i]))
		})
	}

	limit := NormalizeLimit(params.Limit)
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	page := Page[T]{Items: items[start:end]}
	if end < len(items) && end > start {
		page.NextCursor = EncodeCursor(keyOf(items[end-1]))
	}
	return page, nil
}

// EncodeCursor builds a base64 cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	stamp, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}
