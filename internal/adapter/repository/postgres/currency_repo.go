package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masomo/caisse/internal/domain"
)

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

// Create registers a currency for a tenant.
func (r *CurrencyRepository) Create(ctx context.Context, c *domain.Currency) error {
	query := `
		INSERT INTO currencies (tenant_id, code, name, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		c.TenantID, c.Code, c.Name, c.Active, timeToPgTimestamptz(c.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on (tenant_id, code).
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrCurrencyExists
		}

		return err
	}

	return nil
}

// Exists reports whether the currency is configured and active for the
// tenant.
func (r *CurrencyRepository) Exists(ctx context.Context, tenantID, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM currencies WHERE tenant_id = $1 AND code = $2 AND active)`,
		tenantID, code).Scan(&exists)

	return exists, err
}

// ListByTenant retrieves the tenant's currencies.
func (r *CurrencyRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Currency, error) {
	query := `
		SELECT tenant_id, code, name, active, created_at
		FROM currencies
		WHERE tenant_id = $1
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Currency
	for rows.Next() {
		var (
			c         domain.Currency
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&c.TenantID, &c.Code, &c.Name, &c.Active, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = createdAt.Time
		out = append(out, &c)
	}

	return out, rows.Err()
}
