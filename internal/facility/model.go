package facility

import (
	"time"

	"github.com/google/uuid"
)

// Facility represents a row in the facilities table.
type Facility struct {
	ID         uuid.UUID
	Name       string
	ProviderID uuid.UUID
	Subdomain  *string // nil when the facility has no tenant subdomain
	CreatedAt  time.Time
}
