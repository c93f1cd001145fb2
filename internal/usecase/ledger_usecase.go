package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/infrastructure/metrics"
)

// LedgerUseCase is the single writer of the movement log. All money
// movements, whatever their origin, go through Record.
type LedgerUseCase struct {
	txManager    TransactionManager
	movementRepo MovementRepository
	currencyRepo CurrencyRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	cache        Cache
}

// NewLedgerUseCase creates a new LedgerUseCase. cache holds balance
// snapshots and may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	currencyRepo CurrencyRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache Cache,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		movementRepo: movementRepo,
		currencyRepo: currencyRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		cache:        cache,
	}
}

// RecordMovementInput represents input for recording a movement.
type RecordMovementInput struct {
	TenantID    string
	Direction   domain.Direction
	Amount      decimal.Decimal
	Currency    string
	Source      domain.Source
	Reference   *domain.Reference
	FeeType     string
	Description string
	DocumentID  *string
	CreatedBy   string
}

// Record appends a movement in its own transaction. For referenced sources
// (payment, expense) a replayed notification returns the existing movement
// with created=false; adjustments always create a new movement.
func (uc *LedgerUseCase) Record(ctx context.Context, input RecordMovementInput) (*domain.Movement, bool, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	movement, created, err := uc.RecordTx(ctx, tx, input)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	if created {
		uc.invalidateBalance(ctx, movement.TenantID)
	}

	return movement, created, nil
}

// invalidateBalance drops the tenant's cached balance snapshot after a
// committed write, so the next read reflects the new movement instead of
// waiting out the cache TTL. Best effort: the snapshot expires on its own
// anyway.
func (uc *LedgerUseCase) invalidateBalance(ctx context.Context, tenantID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(tenantID))
}

// RecordTx appends a movement inside a caller-owned transaction, so a
// settlement transition and its movement commit atomically.
func (uc *LedgerUseCase) RecordTx(ctx context.Context, tx Transaction, input RecordMovementInput) (*domain.Movement, bool, error) {
	now := time.Now().UTC()

	movement := &domain.Movement{
		ID:          uc.idGen.Generate(),
		TenantID:    input.TenantID,
		Direction:   input.Direction,
		Amount:      input.Amount,
		Currency:    domain.NormalizeCurrencyCode(input.Currency),
		Source:      input.Source,
		Reference:   input.Reference,
		FeeType:     input.FeeType,
		Description: input.Description,
		DocumentID:  input.DocumentID,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
	}

	if err := movement.Validate(); err != nil {
		return nil, false, err
	}

	known, err := uc.currencyRepo.Exists(ctx, movement.TenantID, movement.Currency)
	if err != nil {
		return nil, false, err
	}
	if !known {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, movement.Currency)
	}

	var created bool
	if movement.Reference != nil {
		movement, created, err = uc.movementRepo.CreateIdempotent(ctx, tx, movement)
		if err != nil {
			return nil, false, err
		}
	} else {
		if err := uc.movementRepo.Create(ctx, tx, movement); err != nil {
			return nil, false, err
		}
		created = true
	}

	if !created {
		metrics.DuplicateSuppressed(string(movement.Source))
		return movement, false, nil
	}

	if err := uc.writeRecordedEvent(ctx, tx, movement, now); err != nil {
		return nil, false, err
	}

	metrics.MovementRecorded(string(movement.Source), string(movement.Direction))

	return movement, true, nil
}

// AdjustmentInput represents an operator-initiated manual entry.
type AdjustmentInput struct {
	TenantID    string
	Direction   domain.Direction
	Amount      decimal.Decimal
	Currency    string
	FeeType     string
	Description string
	DocumentID  *string
	CreatedBy   string
}

// CreateAdjustment records a manual adjustment. Each call is a distinct
// economic event, so adjustments are never deduplicated.
func (uc *LedgerUseCase) CreateAdjustment(ctx context.Context, input AdjustmentInput) (*domain.Movement, error) {
	movement, _, err := uc.Record(ctx, RecordMovementInput{
		TenantID:    input.TenantID,
		Direction:   input.Direction,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Source:      domain.SourceAdjustment,
		FeeType:     input.FeeType,
		Description: input.Description,
		DocumentID:  input.DocumentID,
		CreatedBy:   input.CreatedBy,
	})

	return movement, err
}

// GetMovement retrieves a movement by ID within a tenant.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, tenantID, id)
}

// ListMovements lists a tenant's movements, newest first.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, tenantID string, filter MovementFilter) ([]*domain.Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}

	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if filter.Currency != "" {
		filter.Currency = domain.NormalizeCurrencyCode(filter.Currency)
	}

	return uc.movementRepo.List(ctx, tenantID, filter)
}

// AttachDocument sets a movement's document if none is attached yet. The
// compare-and-set makes concurrent attachment attempts race safely: exactly
// one wins and the loser gets ErrDocumentAlreadySet.
func (uc *LedgerUseCase) AttachDocument(ctx context.Context, tenantID, movementID, documentID string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	attached, err := uc.movementRepo.SetDocument(ctx, tx, tenantID, movementID, documentID)
	if err != nil {
		return err
	}

	if !attached {
		return domain.ErrDocumentAlreadySet
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      tenantID,
		AggregateID:   movementID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeDocumentAttached,
		Payload: domain.DocumentAttachedEvent{
			MovementID: movementID,
			TenantID:   tenantID,
			DocumentID: documentID,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (uc *LedgerUseCase) writeRecordedEvent(ctx context.Context, tx Transaction, m *domain.Movement, at time.Time) error {
	payload := domain.MovementRecordedEvent{
		MovementID: m.ID,
		TenantID:   m.TenantID,
		Direction:  string(m.Direction),
		Amount:     m.Amount.String(),
		Currency:   m.Currency,
		Source:     string(m.Source),
	}
	if m.Reference != nil {
		payload.ReferenceType = string(m.Reference.Type)
		payload.ReferenceID = m.Reference.ID
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      m.TenantID,
		AggregateID:   m.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeMovementRecorded,
		Payload:       payload,
		CreatedAt:     at,
	})
}
