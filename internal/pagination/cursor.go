// Package pagination implements opaque keyset cursors for list endpoints.
//
// Cursors encode the (created_at, id) key of the last item on a page, so
// stores can resume a descending scan with a WHERE (created_at, id) < ($1, $2)
// predicate instead of OFFSET.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a cursor string cannot be parsed.
var ErrInvalidCursor = errors.New("pagination: invalid cursor")

// Cursor is a decoded position in a result set ordered by (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode packs a keyset position into an opaque URL-safe string.
func Encode(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode unpacks a cursor produced by Encode. An empty string decodes to a
// nil cursor, meaning "start from the newest item".
func Decode(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	nanosStr, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(nanosStr, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// ComputePage trims a limit+1 fetch down to one page. It returns the page
// items, the cursor for the next page, and whether more items exist. key
// extracts the keyset position of an item.
func ComputePage[T any](items []T, limit int, key func(T) (time.Time, string)) ([]T, string, bool) {
	if len(items) <= limit {
		return items, "", false
	}
	items = items[:limit]
	createdAt, id := key(items[len(items)-1])
	return items, Encode(createdAt, id), true
}
