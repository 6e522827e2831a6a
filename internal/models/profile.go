package models

import "time"

// Identity is the verified user identity attached to every request and
// websocket session. Issued upstream; this service never mints tokens.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the display metadata cached for counterpart hydration.
// The marketplace owns the canonical profile; this is a seed-on-sight copy
// refreshed whenever the user authenticates against this service.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
