package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/infrastructure/metrics"
)

// PaymentUseCase adapts tuition payment settlements into the ledger. The
// payment workflow itself is owned by a collaborator; this adapter only
// consumes its completed transitions, delivered at least once.
type PaymentUseCase struct {
	ledger *LedgerUseCase
	logger zerolog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(ledger *LedgerUseCase, logger zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{ledger: ledger, logger: logger}
}

// PaymentCompletedEvent is the inbound notification of a completed tuition
// payment.
type PaymentCompletedEvent struct {
	TenantID  string
	PaymentID string
	Status    domain.PaymentStatus
	Amount    decimal.Decimal
	Currency  string
	FeeType   string
	PaidBy    string
}

// HandleCompleted records the IN movement for a completed payment.
// Duplicate deliveries observe the already-recorded movement as success:
// correctness rests on the ledger's unique reference index, not on the
// delivery mechanism.
func (uc *PaymentUseCase) HandleCompleted(ctx context.Context, evt PaymentCompletedEvent) (*domain.Movement, bool, error) {
	if !evt.Status.Settleable() {
		// Pending and failed payments never produce a movement; a sender
		// delivering them here is misrouting its lifecycle events.
		return nil, false, fmt.Errorf("%w: %s", domain.ErrPaymentNotCompleted, evt.Status)
	}

	movement, created, err := uc.ledger.Record(ctx, RecordMovementInput{
		TenantID:  evt.TenantID,
		Direction: domain.DirectionIn,
		Amount:    evt.Amount,
		Currency:  evt.Currency,
		Source:    domain.SourcePayment,
		Reference: &domain.Reference{Type: domain.SourcePayment, ID: evt.PaymentID},
		FeeType:   evt.FeeType,
		CreatedBy: evt.PaidBy,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCurrency) {
			// Tenant setup bug, not a transient fault. The event must be
			// retried only after the currency registry is fixed.
			metrics.ConfigurationFault()
			uc.logger.Error().
				Str("tenant_id", evt.TenantID).
				Str("payment_id", evt.PaymentID).
				Str("currency", evt.Currency).
				Msg("payment settlement for unconfigured currency")
		}

		return nil, false, err
	}

	if !created {
		uc.logger.Debug().
			Str("tenant_id", evt.TenantID).
			Str("payment_id", evt.PaymentID).
			Str("movement_id", movement.ID).
			Msg("payment already recorded, duplicate suppressed")
	}

	return movement, created, nil
}
