package facility

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrFacilityNotFound is returned when a facility record is not found.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrDuplicateSubdomain is returned when a subdomain is already taken.
var ErrDuplicateSubdomain = errors.New("subdomain already in use")

// Repository provides operations on the facilities table.
type Repository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Facility, error)
	ListByProviderID(ctx context.Context, providerID uuid.UUID) ([]Facility, error)
}
