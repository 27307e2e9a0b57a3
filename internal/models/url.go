package models

import (
	"time"

	"github.com/google/uuid"
)

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID uuid.UUID
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// URLCode is the short code associated with the original URL.
	URLCode string
	// ShortURL is the full shortened URL, computed from the base URL and the
	// code at creation time and stored verbatim.
	ShortURL string
	// Clicks tracks the number of times the shortened URL has been visited.
	Clicks int64
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the record was last updated.
	UpdatedAt time.Time
}
