package domain

import "time"

// Component names the section of a public page a layout block renders.
type Component string

const (
	ComponentAvatar      Component = "avatar"
	ComponentPublicLink  Component = "public_link"
	ComponentDisplayName Component = "display_name"
	ComponentBio         Component = "bio"
	ComponentLinks       Component = "links"
)

// Alignment of a block's content.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// LayoutBlock is one orderable section of a profile page
type LayoutBlock struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Component Component `json:"component"`
	Visible   bool      `json:"visible"`
	Alignment Alignment `json:"alignment"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultLayout is the block order every new profile starts with. Blocks
// are positioned by their index in this slice.
var DefaultLayout = []Component{
	ComponentAvatar,
	ComponentPublicLink,
	ComponentDisplayName,
	ComponentBio,
	ComponentLinks,
}
