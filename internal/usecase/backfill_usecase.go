package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/infrastructure/metrics"
)

// BackfillUseCase synthesizes vouchers for movements that lack a supporting
// document. The job is idempotent by construction: a movement with a
// document is never revisited, and the voucher key is derived from the
// movement id, so re-running can never produce a second document.
type BackfillUseCase struct {
	txManager    TransactionManager
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	store        VoucherStore
	idGen        IDGenerator
	logger       zerolog.Logger
}

// NewBackfillUseCase creates a new BackfillUseCase.
func NewBackfillUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	store VoucherStore,
	idGen IDGenerator,
	logger zerolog.Logger,
) *BackfillUseCase {
	return &BackfillUseCase{
		txManager:    txManager,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		store:        store,
		idGen:        idGen,
		logger:       logger,
	}
}

// BackfillResult is the aggregate report of one backfill pass.
type BackfillResult struct {
	// Total is the number of movements found without a document.
	Total int `json:"total"`
	// Generated counts vouchers synthesized and uploaded this run.
	Generated int `json:"generated"`
	// Created counts documents actually attached. It differs from
	// Generated only when a concurrent run won the attach race.
	Created int `json:"created"`
	// Errors holds per-movement failures; they never abort the batch.
	Errors []string `json:"errors,omitempty"`
}

// Run scans the tenant's movements missing a document and attaches a
// synthesized voucher to each. Interruptible between movements: stopping
// mid-run loses nothing, since progress is simply the set of movements
// still lacking a document.
func (uc *BackfillUseCase) Run(ctx context.Context, tenantID string) (*BackfillResult, error) {
	movements, err := uc.movementRepo.ListMissingDocument(ctx, tenantID, MaxBackfillBatch)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Total: len(movements)}
	now := time.Now().UTC()

	for _, m := range movements {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := uc.backfillOne(ctx, m, now, result); err != nil {
			metrics.BackfillOutcome("failed")
			result.Errors = append(result.Errors, fmt.Sprintf("movement %s: %v", m.ID, err))

			uc.logger.Warn().
				Err(err).
				Str("tenant_id", tenantID).
				Str("movement_id", m.ID).
				Msg("voucher backfill item failed")
		}
	}

	uc.logger.Info().
		Str("tenant_id", tenantID).
		Int("total", result.Total).
		Int("generated", result.Generated).
		Int("created", result.Created).
		Int("errors", len(result.Errors)).
		Msg("voucher backfill finished")

	return result, nil
}

func (uc *BackfillUseCase) backfillOne(ctx context.Context, m *domain.Movement, now time.Time, result *BackfillResult) error {
	voucher := domain.NewVoucher(m, now)

	data, err := json.Marshal(voucher)
	if err != nil {
		return err
	}

	key := domain.VoucherStorageKey(m.TenantID, m.ID)
	if err := uc.store.Put(ctx, key, data, VoucherContentType); err != nil {
		return err
	}

	result.Generated++
	metrics.BackfillOutcome("generated")

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	attached, err := uc.movementRepo.SetDocument(ctx, tx, m.TenantID, m.ID, key)
	if err != nil {
		return err
	}

	if !attached {
		// A concurrent run attached a document first. The key is
		// deterministic, so the stored voucher is identical; nothing to
		// undo.
		metrics.BackfillOutcome("skipped")
		return tx.Rollback(ctx)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      m.TenantID,
		AggregateID:   m.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeDocumentAttached,
		Payload: domain.DocumentAttachedEvent{
			MovementID: m.ID,
			TenantID:   m.TenantID,
			DocumentID: key,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	result.Created++
	metrics.BackfillOutcome("attached")

	return nil
}
