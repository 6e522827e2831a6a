package ids

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewUUID generates a time-ordered UUID v7, used for conversations and
// notifications.
func NewUUID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewMessageID generates a ULID. Message ids sort lexicographically in
// creation order, which is what history pagination and delivery ordering
// rely on.
func NewMessageID() string {
	return ulid.Make().String()
}
