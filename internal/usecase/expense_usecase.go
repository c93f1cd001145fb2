package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/infrastructure/metrics"
)

// ExpenseUseCase owns the expense settlement lifecycle and adapts its paid
// transition into the ledger.
type ExpenseUseCase struct {
	txManager   TransactionManager
	expenseRepo ExpenseRepository
	ledger      *LedgerUseCase
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	logger      zerolog.Logger
}

// NewExpenseUseCase creates a new ExpenseUseCase.
func NewExpenseUseCase(
	txManager TransactionManager,
	expenseRepo ExpenseRepository,
	ledger *LedgerUseCase,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *ExpenseUseCase {
	return &ExpenseUseCase{
		txManager:   txManager,
		expenseRepo: expenseRepo,
		ledger:      ledger,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// ExpenseInput carries the editable expense fields.
type ExpenseInput struct {
	Title             string
	Category          string
	Amount            decimal.Decimal
	Currency          string
	PaymentMethod     string
	DeductFromFeeType string
	Description       string
}

// CreateExpense registers a new pending expense.
func (uc *ExpenseUseCase) CreateExpense(ctx context.Context, tenantID, createdBy string, input ExpenseInput) (*domain.Expense, error) {
	now := time.Now().UTC()

	expense := &domain.Expense{
		ID:                uc.idGen.Generate(),
		TenantID:          tenantID,
		Title:             input.Title,
		Category:          input.Category,
		Amount:            input.Amount,
		Currency:          domain.NormalizeCurrencyCode(input.Currency),
		PaymentMethod:     input.PaymentMethod,
		DeductFromFeeType: input.DeductFromFeeType,
		Description:       input.Description,
		Status:            domain.ExpenseStatusPending,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := uc.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// UpdateExpense edits a pending expense. Any other status is immutable:
// corrections to settled expenses are compensating adjustments in the
// ledger, never edits.
func (uc *ExpenseUseCase) UpdateExpense(ctx context.Context, tenantID, id string, input ExpenseInput) (*domain.Expense, error) {
	expense, err := uc.expenseRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if !expense.Editable() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrImmutableState, expense.Status)
	}

	expense.Title = input.Title
	expense.Category = input.Category
	expense.Amount = input.Amount
	expense.Currency = domain.NormalizeCurrencyCode(input.Currency)
	expense.PaymentMethod = input.PaymentMethod
	expense.DeductFromFeeType = input.DeductFromFeeType
	expense.Description = input.Description
	expense.UpdatedAt = time.Now().UTC()

	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := uc.expenseRepo.Update(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ApproveExpense transitions a pending expense to approved.
func (uc *ExpenseUseCase) ApproveExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return uc.review(ctx, tenantID, id, reviewer, domain.EventTypeExpenseApproved,
		func(e *domain.Expense, at time.Time) error { return e.Approve(reviewer, at) })
}

// RejectExpense transitions a pending expense to rejected.
func (uc *ExpenseUseCase) RejectExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return uc.review(ctx, tenantID, id, reviewer, domain.EventTypeExpenseRejected,
		func(e *domain.Expense, at time.Time) error { return e.Reject(reviewer, at) })
}

func (uc *ExpenseUseCase) review(
	ctx context.Context,
	tenantID, id, reviewer, eventType string,
	transition func(*domain.Expense, time.Time) error,
) (*domain.Expense, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	expense, err := uc.expenseRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := transition(expense, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := uc.expenseRepo.UpdateStatus(ctx, tx, expense); err != nil {
		return nil, err
	}

	if err := uc.writeStatusEvent(ctx, tx, expense, eventType); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.ExpenseTransition(string(expense.Status))

	return expense, nil
}

// PayExpense transitions an approved expense to paid and records the OUT
// movement atomically. The status change and the movement commit together
// or not at all.
func (uc *ExpenseUseCase) PayExpense(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	expense, err := uc.expenseRepo.GetByIDForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	if err := expense.MarkPaid(time.Now().UTC()); err != nil {
		return nil, nil, err
	}

	if err := uc.expenseRepo.UpdateStatus(ctx, tx, expense); err != nil {
		return nil, nil, err
	}

	movement, _, err := uc.ledger.RecordTx(ctx, tx, RecordMovementInput{
		TenantID:    expense.TenantID,
		Direction:   domain.DirectionOut,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Source:      domain.SourceExpense,
		Reference:   &domain.Reference{Type: domain.SourceExpense, ID: expense.ID},
		FeeType:     expense.DeductFromFeeType,
		Description: expense.Title,
		CreatedBy:   paidBy,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := uc.writeStatusEvent(ctx, tx, expense, domain.EventTypeExpensePaid); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	uc.ledger.invalidateBalance(ctx, expense.TenantID)
	metrics.ExpenseTransition(string(expense.Status))

	return expense, movement, nil
}

// ExpensePaidEvent is the inbound notification for deployments where the
// expense workflow lives outside this service.
type ExpensePaidEvent struct {
	TenantID  string
	ExpenseID string
	Amount    decimal.Decimal
	Currency  string
	FeeType   string
	PaidBy    string
}

// HandlePaid records the OUT movement for an externally settled expense.
// Safe under at-least-once delivery, like the payment adapter.
func (uc *ExpenseUseCase) HandlePaid(ctx context.Context, evt ExpensePaidEvent) (*domain.Movement, bool, error) {
	movement, created, err := uc.ledger.Record(ctx, RecordMovementInput{
		TenantID:  evt.TenantID,
		Direction: domain.DirectionOut,
		Amount:    evt.Amount,
		Currency:  evt.Currency,
		Source:    domain.SourceExpense,
		Reference: &domain.Reference{Type: domain.SourceExpense, ID: evt.ExpenseID},
		FeeType:   evt.FeeType,
		CreatedBy: evt.PaidBy,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCurrency) {
			metrics.ConfigurationFault()
			uc.logger.Error().
				Str("tenant_id", evt.TenantID).
				Str("expense_id", evt.ExpenseID).
				Str("currency", evt.Currency).
				Msg("expense settlement for unconfigured currency")
		}

		return nil, false, err
	}

	return movement, created, nil
}

// GetExpense retrieves an expense by ID within a tenant.
func (uc *ExpenseUseCase) GetExpense(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
	return uc.expenseRepo.GetByID(ctx, tenantID, id)
}

// ListExpenses lists a tenant's expenses, optionally filtered by status.
func (uc *ExpenseUseCase) ListExpenses(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return uc.expenseRepo.List(ctx, tenantID, status, limit, offset)
}

func (uc *ExpenseUseCase) writeStatusEvent(ctx context.Context, tx Transaction, e *domain.Expense, eventType string) error {
	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      e.TenantID,
		AggregateID:   e.ID,
		AggregateType: domain.AggregateTypeExpense,
		EventType:     eventType,
		Payload: domain.ExpenseStatusChangedEvent{
			ExpenseID:  e.ID,
			TenantID:   e.TenantID,
			Status:     string(e.Status),
			ReviewedBy: e.ReviewedBy,
		},
		CreatedAt: time.Now().UTC(),
	})
}
