package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when no profile exists for a user.
var ErrProfileNotFound = errors.New("profile not found")

// ErrRoleNotFound is returned when the role-lookup procedure has no answer
// for a user. Retrying does not change it.
var ErrRoleNotFound = errors.New("role not found")

// Repository provides read access to profiles and the role-lookup procedure.
type Repository interface {
	LookupRole(ctx context.Context, userID uuid.UUID) (string, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
}
