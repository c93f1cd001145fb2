package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is the supporting document synthesized for a movement that lacks
// one. It is derived only from the movement's immutable fields, so two
// backfill runs over the same movement always produce the same document.
type Voucher struct {
	MovementID  string          `json:"movement_id"`
	TenantID    string          `json:"tenant_id"`
	Direction   Direction       `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Source      Source          `json:"source"`
	FeeType     string          `json:"fee_type,omitempty"`
	Description string          `json:"description,omitempty"`
	MovementAt  time.Time       `json:"movement_at"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// NewVoucher synthesizes a voucher from a movement.
func NewVoucher(m *Movement, generatedAt time.Time) Voucher {
	return Voucher{
		MovementID:  m.ID,
		TenantID:    m.TenantID,
		Direction:   m.Direction,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Source:      m.Source,
		FeeType:     m.FeeType,
		Description: m.Description,
		MovementAt:  m.CreatedAt,
		GeneratedAt: generatedAt,
	}
}

// VoucherStorageKey is the deterministic object key for a movement's
// voucher. One movement maps to exactly one key, which makes the backfill
// re-runnable without producing duplicate documents.
func VoucherStorageKey(tenantID, movementID string) string {
	return fmt.Sprintf("tenants/%s/vouchers/%s.json", tenantID, movementID)
}
