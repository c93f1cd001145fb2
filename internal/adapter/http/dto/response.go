package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID            string          `json:"id"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Source        string          `json:"source"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	FeeType       string          `json:"fee_type,omitempty"`
	DocumentID    *string         `json:"document_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	resp := &MovementResponse{
		ID:          m.ID,
		Direction:   string(m.Direction),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Source:      string(m.Source),
		FeeType:     m.FeeType,
		DocumentID:  m.DocumentID,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
	if m.Reference != nil {
		resp.ReferenceType = string(m.Reference.Type)
		resp.ReferenceID = m.Reference.ID
	}

	return resp
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ListMovementsResponse wraps a movement listing. Count is the size of
// the returned page, not the full ledger cardinality.
type ListMovementsResponse struct {
	Movements []*MovementResponse `json:"movements"`
	Count     int64               `json:"count"`
}

// SettlementResponse reports the ledger outcome of a settlement
// notification. Duplicate is true when the delivery was a replay and the
// returned movement already existed.
type SettlementResponse struct {
	Movement  *MovementResponse `json:"movement"`
	Duplicate bool              `json:"duplicate"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Category          string          `json:"category,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	DeductFromFeeType string          `json:"deduct_from_fee_type,omitempty"`
	Description       string          `json:"description,omitempty"`
	Status            string          `json:"status"`
	CreatedBy         string          `json:"created_by,omitempty"`
	ReviewedBy        string          `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ExpenseFromDomain converts a domain expense to a response.
func ExpenseFromDomain(e *domain.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:                e.ID,
		Title:             e.Title,
		Category:          e.Category,
		Amount:            e.Amount,
		Currency:          e.Currency,
		PaymentMethod:     e.PaymentMethod,
		DeductFromFeeType: e.DeductFromFeeType,
		Description:       e.Description,
		Status:            string(e.Status),
		CreatedBy:         e.CreatedBy,
		ReviewedBy:        e.ReviewedBy,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// ExpensesFromDomain converts domain expenses to responses.
func ExpensesFromDomain(expenses []*domain.Expense) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = ExpenseFromDomain(e)
	}
	return result
}

// ListExpensesResponse wraps an expense listing. Count is the size of the
// returned page.
type ListExpensesResponse struct {
	Expenses []*ExpenseResponse `json:"expenses"`
	Count    int64              `json:"count"`
}

// PayExpenseResponse reports a paid expense together with the movement it
// produced.
type PayExpenseResponse struct {
	Expense  *ExpenseResponse  `json:"expense"`
	Movement *MovementResponse `json:"movement"`
}

// BalanceRowResponse represents one currency's balance.
type BalanceRowResponse struct {
	Currency string          `json:"currency"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Balance  decimal.Decimal `json:"balance"`
}

// BalanceRowFromDomain converts a domain balance row to a response.
func BalanceRowFromDomain(row domain.BalanceRow) BalanceRowResponse {
	return BalanceRowResponse{
		Currency: row.Currency,
		TotalIn:  row.TotalIn,
		TotalOut: row.TotalOut,
		Balance:  row.Balance,
	}
}

// BalanceResponse is the per-currency balance snapshot.
type BalanceResponse struct {
	Balances []BalanceRowResponse `json:"balances"`
}

// BalanceFromDomain converts domain balance rows to a response.
func BalanceFromDomain(rows []domain.BalanceRow) BalanceResponse {
	out := BalanceResponse{Balances: make([]BalanceRowResponse, len(rows))}
	for i, row := range rows {
		out.Balances[i] = BalanceRowFromDomain(row)
	}
	return out
}

// CurrencyResponse represents a configured currency.
type CurrencyResponse struct {
	Code      string    `json:"code"`
	Name      string    `json:"name,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CurrencyFromDomain converts a domain currency to a response.
func CurrencyFromDomain(c *domain.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		Code:      c.Code,
		Name:      c.Name,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

// CurrenciesFromDomain converts domain currencies to responses.
func CurrenciesFromDomain(currencies []*domain.Currency) []*CurrencyResponse {
	result := make([]*CurrencyResponse, len(currencies))
	for i, c := range currencies {
		result[i] = CurrencyFromDomain(c)
	}
	return result
}

// DocumentURLResponse is a resolved voucher download handle.
type DocumentURLResponse struct {
	MovementID string    `json:"movement_id"`
	DocumentID string    `json:"document_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DocumentURLFromUseCase converts a resolved document to a response.
func DocumentURLFromUseCase(d *usecase.DocumentURL) *DocumentURLResponse {
	return &DocumentURLResponse{
		MovementID: d.MovementID,
		DocumentID: d.DocumentID,
		URL:        d.URL,
		ExpiresAt:  d.ExpiresAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
