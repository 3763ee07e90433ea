package types

import "time"

// User represents a person record stored in the users table.
type User struct {
	// ID is assigned by storage on creation. Zero means the user has not
	// been persisted yet.
	ID int64 `json:"id" db:"id"`

	// Name is free text and must not be blank.
	Name string `json:"name" db:"name"`

	// Email is free text and must not be blank. Its format is not checked.
	Email string `json:"email" db:"email"`
}

// User event types published after a successful mutation.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent is the payload published to the user events channel.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	User       User      `json:"user"`
	OccurredAt time.Time `json:"occurred_at"`
}
