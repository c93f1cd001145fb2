package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

const expenseColumns = `id, tenant_id, title, category, amount, currency,
       payment_method, deduct_from_fee_type, description, status,
       created_by, reviewed_by, created_at, updated_at`

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.TenantID,
		e.Title,
		e.Category,
		decimalToNumeric(e.Amount),
		e.Currency,
		e.PaymentMethod,
		e.DeductFromFeeType,
		e.Description,
		e.Status,
		e.CreatedBy,
		e.ReviewedBy,
		timeToPgTimestamptz(e.CreatedAt),
		timeToPgTimestamptz(e.UpdatedAt),
	)

	return err
}

// GetByID retrieves an expense by ID within a tenant.
func (r *ExpenseRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1 AND id = $2
	`

	return scanExpense(r.pool.QueryRow(ctx, query, tenantID, id))
}

// GetByIDForUpdate retrieves an expense with a row lock, so concurrent
// settlements of the same expense serialize instead of both transitioning.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Expense, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`

	return scanExpense(pgxTx.QueryRow(ctx, query, tenantID, id))
}

// Update rewrites the editable fields of a pending expense. The status
// predicate makes the edit race-safe: a concurrent transition between the
// caller's read and this write leaves zero rows updated instead of
// rewriting a settled expense.
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	query := `
		UPDATE expenses
		SET title = $1, category = $2, amount = $3, currency = $4,
		    payment_method = $5, deduct_from_fee_type = $6, description = $7,
		    updated_at = $8
		WHERE tenant_id = $9 AND id = $10 AND status = $11
	`

	tag, err := r.pool.Exec(ctx, query,
		e.Title,
		e.Category,
		decimalToNumeric(e.Amount),
		e.Currency,
		e.PaymentMethod,
		e.DeductFromFeeType,
		e.Description,
		timeToPgTimestamptz(e.UpdatedAt),
		e.TenantID,
		e.ID,
		domain.ExpenseStatusPending,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM expenses WHERE tenant_id = $1 AND id = $2)`,
			e.TenantID, e.ID).Scan(&exists)
		if err != nil {
			return err
		}

		if exists {
			return domain.ErrImmutableState
		}

		return domain.ErrExpenseNotFound
	}

	return nil
}

// UpdateStatus persists a status transition within a transaction.
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE expenses
		SET status = $1, reviewed_by = $2, updated_at = $3
		WHERE tenant_id = $4 AND id = $5
	`

	tag, err := pgxTx.Exec(ctx, query,
		e.Status,
		e.ReviewedBy,
		timeToPgTimestamptz(e.UpdatedAt),
		e.TenantID,
		e.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

// List retrieves a tenant's expenses, newest first, optionally filtered by
// status.
func (r *ExpenseRepository) List(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	argPos := 2

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argPos)
		args = append(args, status)
		argPos++
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argPos)
		args = append(args, limit)
		argPos++
	}

	if offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argPos)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e                    domain.Expense
		amount               pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.Title,
		&e.Category,
		&amount,
		&e.Currency,
		&e.PaymentMethod,
		&e.DeductFromFeeType,
		&e.Description,
		&e.Status,
		&e.CreatedBy,
		&e.ReviewedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}

		return nil, err
	}

	e.Amount = numericToDecimal(amount)
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}
