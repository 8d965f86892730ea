package domain

import "time"

// Link is an outbound link listed on a profile page
type Link struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
