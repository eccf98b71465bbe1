package models

import (
	"encoding/json"
	"time"
)

// CacheEntry stores one cached AI answer. The answer payload is opaque to
// the cache: it is whatever JSON the provider produced.
type CacheEntry struct {
	NormalizedKey    string          `json:"normalized_key"`
	OriginalQuestion string          `json:"original_question"`
	Answer           json.RawMessage `json:"answer"`
	Provider         Provider        `json:"provider"`
	Model            string          `json:"model"`
	TokensUsed       int             `json:"tokens_used,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	HitCount         int64           `json:"hit_count"`
}

// Expired reports whether the entry is older than maxAge at the given time.
// Expired entries are invisible to every read path.
func (e *CacheEntry) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.CreatedAt) > maxAge
}
