package domain

// Identity is the authenticated caller as reported by the identity provider.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
