package domain

import (
	"strings"
	"time"
)

// Profile is a user's public link-in-bio page. Its ID is the owner of the
// page's links and layout blocks.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PublicLink  string    `json:"public_link"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Theme       Theme     `json:"theme"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Theme holds the appearance settings of a public page.
type Theme struct {
	ThemeID         string `json:"theme_id"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	ButtonColor     string `json:"button_color"`
	AvatarRadius    int    `json:"avatar_radius"`
	ButtonRadius    int    `json:"button_radius"`
}

// DefaultTheme is applied to new profiles.
var DefaultTheme = Theme{
	ThemeID:         "default",
	BackgroundColor: "#ffffff",
	TextColor:       "#111111",
	ButtonColor:     "#111111",
	AvatarRadius:    50,
	ButtonRadius:    8,
}

// PublicPage is everything a visitor needs to render a profile.
type PublicPage struct {
	Profile Profile       `json:"profile"`
	Links   []Link        `json:"links"`
	Layout  []LayoutBlock `json:"layout"`
}

// NormalizePublicLink lowercases the requested handle and joins its first
// two space separated words.
func NormalizePublicLink(raw string) string {
	words := strings.Fields(strings.ToLower(raw))
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, "")
}
