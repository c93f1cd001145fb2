package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether money entered or left the tenant's account.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Source identifies the upstream workflow that caused a movement.
type Source string

const (
	SourcePayment    Source = "payment"
	SourceExpense    Source = "expense"
	SourceAdjustment Source = "adjustment"
	SourceOther      Source = "other"
)

// RequiresReference reports whether movements of this source must carry a
// reference to the upstream settlement record.
func (s Source) RequiresReference() bool {
	return s == SourcePayment || s == SourceExpense
}

// Reference points at the upstream settlement record that caused a movement.
// Together with the tenant and source it forms the idempotency key: at most
// one movement may exist per referenced settlement.
type Reference struct {
	Type Source
	ID   string
}

// Movement is an immutable ledger entry for a single tenant and currency.
// Once created, only the document may be attached, and only while unset.
type Movement struct {
	ID          string
	TenantID    string
	Direction   Direction
	Amount      decimal.Decimal
	Currency    string
	Source      Source
	Reference   *Reference
	FeeType     string
	DocumentID  *string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}

// Currency codes are tenant-scoped opaque units, not ISO 4217.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)

// ValidateCurrencyCode checks the shape of a currency code. Whether the code
// is actually configured for the tenant is a repository concern.
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
	}

	return nil
}

// NormalizeCurrencyCode upper-cases and trims a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the movement's invariants before it is persisted.
func (m *Movement) Validate() error {
	if m.TenantID == "" {
		return ErrTenantRequired
	}

	if m.Direction != DirectionIn && m.Direction != DirectionOut {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, m.Direction)
	}

	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	// Fixed precision: two fractional digits.
	if m.Amount.Exponent() < -2 {
		return fmt.Errorf("%w: more than two fractional digits", ErrInvalidAmount)
	}

	if err := ValidateCurrencyCode(m.Currency); err != nil {
		return err
	}

	switch m.Source {
	case SourcePayment, SourceExpense:
		if m.Reference == nil || m.Reference.ID == "" {
			return fmt.Errorf("%w: source %s", ErrReferenceRequired, m.Source)
		}
		if m.Reference.Type != m.Source {
			return fmt.Errorf("%w: reference type %s does not match source %s",
				ErrReferenceRequired, m.Reference.Type, m.Source)
		}
	case SourceAdjustment, SourceOther:
		if m.Reference != nil {
			return fmt.Errorf("%w: source %s", ErrReferenceNotAllowed, m.Source)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSource, m.Source)
	}

	return nil
}

// HasDocument reports whether a voucher has been attached.
func (m *Movement) HasDocument() bool {
	return m.DocumentID != nil && *m.DocumentID != ""
}

// SignedAmount returns the amount with an out movement negated, for
// balance arithmetic.
func (m *Movement) SignedAmount() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}

	return m.Amount
}

// BalanceRow is the per-currency aggregate derived from the movement log.
type BalanceRow struct {
	Currency string
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Balance  decimal.Decimal
}
