package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateProfile is returned when the user already has a profile.
var ErrDuplicateProfile = errors.New("profile already exists for user")

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// LookupRole calls the get_user_role procedure. A NULL result means the
// procedure knows nothing about the user.
func (r *PostgresRepository) LookupRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role *string
	err := r.pool.QueryRow(ctx, `SELECT get_user_role($1)`, userID).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("calling get_user_role: %w", err)
	}
	if role == nil {
		return "", ErrRoleNotFound
	}
	return *role, nil
}

// GetByUserID retrieves the profile owned by an auth user.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	query := `
		SELECT id, user_id, role, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return &p, nil
}

// Create inserts a new profile record.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, p.UserID, p.Role).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateProfile
		}
		return fmt.Errorf("inserting profile: %w", err)
	}

	return nil
}
