package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

const movementColumns = `id, tenant_id, direction, amount, currency, source,
       reference_type, reference_id, fee_type, document_id, description,
       created_by, created_at`

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// Create appends a movement within a transaction, without an idempotency
// check. Used for adjustments.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := pgxTx.Exec(ctx, query, movementArgs(m)...)

	return err
}

// CreateIdempotent appends a referenced movement. The partial unique index
// on (tenant_id, source, reference_type, reference_id) arbitrates
// concurrent inserts for the same reference: the loser's insert is a no-op
// and the winner's row is returned instead.
func (r *MovementRepository) CreateIdempotent(ctx context.Context, tx usecase.Transaction, m *domain.Movement) (*domain.Movement, bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id, source, reference_type, reference_id)
			WHERE reference_type IS NOT NULL
			DO NOTHING
	`

	tag, err := pgxTx.Exec(ctx, query, movementArgs(m)...)
	if err != nil {
		return nil, false, err
	}

	if tag.RowsAffected() == 1 {
		return m, true, nil
	}

	existing := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE tenant_id = $1 AND source = $2 AND reference_type = $3 AND reference_id = $4
	`

	row := pgxTx.QueryRow(ctx, existing,
		m.TenantID, m.Source, m.Reference.Type, m.Reference.ID)

	winner, err := scanMovement(row)
	if err != nil {
		return nil, false, err
	}

	return winner, false, nil
}

// GetByID retrieves a movement by ID within a tenant.
func (r *MovementRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE tenant_id = $1 AND id = $2
	`

	movement, err := scanMovement(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, err
	}

	return movement, nil
}

// List retrieves a tenant's movements, newest first.
func (r *MovementRepository) List(ctx context.Context, tenantID string, filter usecase.MovementFilter) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	argPos := 2

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argPos)
		args = append(args, filter.Source)
		argPos++
	}

	if filter.Direction != "" {
		query += fmt.Sprintf(` AND direction = $%d`, argPos)
		args = append(args, filter.Direction)
		argPos++
	}

	if filter.Currency != "" {
		query += fmt.Sprintf(` AND currency = $%d`, argPos)
		args = append(args, filter.Currency)
		argPos++
	}

	if filter.FeeType != "" {
		query += fmt.Sprintf(` AND fee_type = $%d`, argPos)
		args = append(args, filter.FeeType)
		argPos++
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// ListMissingDocument retrieves movements without an attached document,
// oldest first so a capped backfill batch drains the backlog in order.
func (r *MovementRepository) ListMissingDocument(ctx context.Context, tenantID string, limit int) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE tenant_id = $1 AND document_id IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// SetDocument attaches a document only while none is set. The WHERE clause
// is the compare-and-set: a concurrent attach makes this a zero-row update.
func (r *MovementRepository) SetDocument(ctx context.Context, tx usecase.Transaction, tenantID, movementID, documentID string) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE movements
		SET document_id = $1
		WHERE tenant_id = $2 AND id = $3 AND document_id IS NULL
	`

	tag, err := pgxTx.Exec(ctx, query, documentID, tenantID, movementID)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Distinguish "already attached" from "no such movement".
	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM movements WHERE tenant_id = $1 AND id = $2)`,
		tenantID, movementID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrMovementNotFound
	}

	return false, nil
}

// AggregateByCurrency computes per-currency totals over the whole movement
// log. Balances are always derived, never stored.
func (r *MovementRepository) AggregateByCurrency(ctx context.Context, tenantID string) ([]domain.BalanceRow, error) {
	query := `
		SELECT currency,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'in'), 0)  AS total_in,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'out'), 0) AS total_out
		FROM movements
		WHERE tenant_id = $1
		GROUP BY currency
		ORDER BY currency
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BalanceRow
	for rows.Next() {
		var (
			currency         string
			totalIn, totalOut pgtype.Numeric
		)
		if err := rows.Scan(&currency, &totalIn, &totalOut); err != nil {
			return nil, err
		}

		in := numericToDecimal(totalIn)
		outAmt := numericToDecimal(totalOut)

		out = append(out, domain.BalanceRow{
			Currency: currency,
			TotalIn:  in,
			TotalOut: outAmt,
			Balance:  in.Sub(outAmt),
		})
	}

	return out, rows.Err()
}

func movementArgs(m *domain.Movement) []any {
	var refType, refID *string
	if m.Reference != nil {
		t := string(m.Reference.Type)
		refType = &t
		refID = &m.Reference.ID
	}

	return []any{
		m.ID,
		m.TenantID,
		m.Direction,
		decimalToNumeric(m.Amount),
		m.Currency,
		m.Source,
		refType,
		refID,
		m.FeeType,
		m.DocumentID,
		m.Description,
		m.CreatedBy,
		timeToPgTimestamptz(m.CreatedAt),
	}
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var (
		m              domain.Movement
		amount         pgtype.Numeric
		refType, refID *string
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Direction,
		&amount,
		&m.Currency,
		&m.Source,
		&refType,
		&refID,
		&m.FeeType,
		&m.DocumentID,
		&m.Description,
		&m.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	m.Amount = numericToDecimal(amount)
	m.CreatedAt = createdAt.Time
	if refType != nil && refID != nil {
		m.Reference = &domain.Reference{Type: domain.Source(*refType), ID: *refID}
	}

	return &m, nil
}

func scanMovements(rows pgx.Rows) ([]*domain.Movement, error) {
	var out []*domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
