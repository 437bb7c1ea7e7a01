package auth

import (
	"time"

	"github.com/google/uuid"
)

// Identity is stored in the request context after a bearer token verifies.
type Identity struct {
	UserID       uuid.UUID
	EmailOrPhone string
	// SessionToken identifies the login session, not the raw access token.
	SessionToken string
	ExpiresAt    time.Time
}

// Expired reports whether the session has passed its expiry at now.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// EventKind names an identity change published by the auth collaborator.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is a single identity change notification.
type Event struct {
	Kind   EventKind `json:"event"`
	UserID uuid.UUID `json:"user_id"`
}
