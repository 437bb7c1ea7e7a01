package facility

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const selectColumns = `id, name, provider_id, subdomain, created_at`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	if err := row.Scan(&f.ID, &f.Name, &f.ProviderID, &f.Subdomain, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new facility record.
func (r *PostgresRepository) Create(ctx context.Context, f *Facility) error {
	query := `
		INSERT INTO facilities (name, provider_id, subdomain)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, f.Name, f.ProviderID, f.Subdomain).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSubdomain
		}
		return fmt.Errorf("inserting facility: %w", err)
	}

	return nil
}

// GetByID retrieves a single facility by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	query := `SELECT ` + selectColumns + ` FROM facilities WHERE id = $1`

	f, err := scanFacility(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("querying facility: %w", err)
	}
	return f, nil
}

// GetBySubdomain resolves a tenant subdomain to its facility.
func (r *PostgresRepository) GetBySubdomain(ctx context.Context, subdomain string) (*Facility, error) {
	query := `SELECT ` + selectColumns + ` FROM facilities WHERE subdomain = $1`

	f, err := scanFacility(r.pool.QueryRow(ctx, query, subdomain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("querying facility by subdomain: %w", err)
	}
	return f, nil
}

// ListByProviderID returns the provider's facilities ordered by creation time.
func (r *PostgresRepository) ListByProviderID(ctx context.Context, providerID uuid.UUID) ([]Facility, error) {
	query := `SELECT ` + selectColumns + `
		FROM facilities
		WHERE provider_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning facility row: %w", err)
		}
		facilities = append(facilities, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating facility rows: %w", err)
	}

	if facilities == nil {
		facilities = []Facility{}
	}

	return facilities, nil
}
