package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ShareSlugLength is the number of characters in a generated share slug.
const ShareSlugLength = 12

// NewID generates a new ULID string for a repository, commit, release or attachment.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewShareSlug generates a short, URL-safe slug for a published release.
func NewShareSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:ShareSlugLength]
}

// Now returns the current time truncated to milliseconds, the precision
// timestamps are persisted with.
func Now() time.Time {
	return time.Now().Truncate(time.Millisecond)
}

// ISOTimestamp formats t as an ISO-8601 UTC timestamp with milliseconds.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
