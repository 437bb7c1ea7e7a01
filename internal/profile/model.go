package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a row in the profiles table. ID is the internal
// provider/customer id; UserID references the auth user.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      string // "provider" or "customer"
	CreatedAt time.Time
	UpdatedAt time.Time
}
