package dto

import (
	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

// PaymentCompletedRequest is the settlement notification for a completed
// tuition payment. Deliveries may repeat; payment_id identifies the
// economic event.
type PaymentCompletedRequest struct {
	PaymentID string          `json:"payment_id"`
	Status    string          `json:"status,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	FeeType   string          `json:"fee_type,omitempty"`
	PaidBy    string          `json:"paid_by,omitempty"`
}

// ToEvent converts to the use case event.
func (r *PaymentCompletedRequest) ToEvent(tenantID string) usecase.PaymentCompletedEvent {
	return usecase.PaymentCompletedEvent{
		TenantID:  tenantID,
		PaymentID: r.PaymentID,
		Status:    domain.PaymentStatus(r.Status),
		Amount:    r.Amount,
		Currency:  r.Currency,
		FeeType:   r.FeeType,
		PaidBy:    r.PaidBy,
	}
}

// ExpensePaidRequest is the settlement notification for an externally
// managed expense.
type ExpensePaidRequest struct {
	ExpenseID string          `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	FeeType   string          `json:"fee_type,omitempty"`
	PaidBy    string          `json:"paid_by,omitempty"`
}

// ToEvent converts to the use case event.
func (r *ExpensePaidRequest) ToEvent(tenantID string) usecase.ExpensePaidEvent {
	return usecase.ExpensePaidEvent{
		TenantID:  tenantID,
		ExpenseID: r.ExpenseID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		FeeType:   r.FeeType,
		PaidBy:    r.PaidBy,
	}
}

// CreateAdjustmentRequest represents a manual ledger entry.
type CreateAdjustmentRequest struct {
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	FeeType     string          `json:"fee_type,omitempty"`
	Description string          `json:"description,omitempty"`
	DocumentID  *string         `json:"document_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAdjustmentRequest) ToUseCaseInput(tenantID, createdBy string) usecase.AdjustmentInput {
	return usecase.AdjustmentInput{
		TenantID:    tenantID,
		Direction:   domain.Direction(r.Direction),
		Amount:      r.Amount,
		Currency:    r.Currency,
		FeeType:     r.FeeType,
		Description: r.Description,
		DocumentID:  r.DocumentID,
		CreatedBy:   createdBy,
	}
}

// AttachDocumentRequest attaches a supporting document to a movement.
type AttachDocumentRequest struct {
	DocumentID string `json:"document_id"`
}

// ExpenseRequest carries the editable expense fields, for create and
// update.
type ExpenseRequest struct {
	Title             string          `json:"title"`
	Category          string          `json:"category,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	DeductFromFeeType string          `json:"deduct_from_fee_type,omitempty"`
	Description       string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ExpenseRequest) ToUseCaseInput() usecase.ExpenseInput {
	return usecase.ExpenseInput{
		Title:             r.Title,
		Category:          r.Category,
		Amount:            r.Amount,
		Currency:          r.Currency,
		PaymentMethod:     r.PaymentMethod,
		DeductFromFeeType: r.DeductFromFeeType,
		Description:       r.Description,
	}
}

// RegisterCurrencyRequest adds a currency to the tenant registry.
type RegisterCurrencyRequest struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}
