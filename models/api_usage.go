package models

import "time"

// APIUsage reports a collector's self-tracked rate-limit state, computed
// locally rather than from provider response headers.
type APIUsage struct {
	Source         string    `json:"source"`
	IsMock         bool      `json:"is_mock"`
	CallsMade      int       `json:"calls_made"`
	CallsRemaining int       `json:"calls_remaining"`
	RateLimit      string    `json:"rate_limit"`
	ResetAt        time.Time `json:"reset_at"`
	SecondaryReset *time.Time `json:"secondary_reset,omitempty"`
}
