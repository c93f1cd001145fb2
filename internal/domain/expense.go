package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the lifecycle state of an expense settlement.
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
	ExpenseStatusPaid     ExpenseStatus = "paid"
)

// Expense is an expense settlement record. Only pending expenses are
// editable; rejected and paid are terminal. The approved -> paid transition
// is the only edge that moves money out of the ledger.
type Expense struct {
	ID                string
	TenantID          string
	Title             string
	Category          string
	Amount            decimal.Decimal
	Currency          string
	PaymentMethod     string
	DeductFromFeeType string
	Description       string
	Status            ExpenseStatus
	CreatedBy         string
	ReviewedBy        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the expense fields.
func (e *Expense) Validate() error {
	if e.TenantID == "" {
		return ErrTenantRequired
	}

	if e.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTransition)
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.Amount.Exponent() < -2 {
		return fmt.Errorf("%w: more than two fractional digits", ErrInvalidAmount)
	}

	return ValidateCurrencyCode(e.Currency)
}

// Editable reports whether the expense owner may still change its fields.
func (e *Expense) Editable() bool {
	return e.Status == ExpenseStatusPending
}

// Approve transitions pending -> approved.
func (e *Expense) Approve(reviewer string, at time.Time) error {
	if e.Status != ExpenseStatusPending {
		return fmt.Errorf("%w: cannot approve %s expense", ErrInvalidTransition, e.Status)
	}

	e.Status = ExpenseStatusApproved
	e.ReviewedBy = reviewer
	e.UpdatedAt = at

	return nil
}

// Reject transitions pending -> rejected. Rejected is terminal.
func (e *Expense) Reject(reviewer string, at time.Time) error {
	if e.Status != ExpenseStatusPending {
		return fmt.Errorf("%w: cannot reject %s expense", ErrInvalidTransition, e.Status)
	}

	e.Status = ExpenseStatusRejected
	e.ReviewedBy = reviewer
	e.UpdatedAt = at

	return nil
}

// MarkPaid transitions approved -> paid. Paid is terminal.
func (e *Expense) MarkPaid(at time.Time) error {
	if e.Status != ExpenseStatusApproved {
		return fmt.Errorf("%w: cannot pay %s expense", ErrInvalidTransition, e.Status)
	}

	e.Status = ExpenseStatusPaid
	e.UpdatedAt = at

	return nil
}
