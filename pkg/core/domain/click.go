package domain

import "time"

// Click is a single visit through a link on a public page
type Click struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"` // sha256 of the client address
	CreatedAt time.Time `json:"created_at"`
}
