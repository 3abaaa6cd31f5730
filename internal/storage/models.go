package storage

import (
	"time"
)

// Entry is one cached feed document.
type Entry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Data      []byte    `json:"data"`
}

// Expired reports whether the entry is older than ttl at now. A zero ttl
// never expires.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) > ttl
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries   int
	Expired   int
	Bytes     int
	LastWrite time.Time
}
