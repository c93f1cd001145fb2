package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

type expenseServiceStub struct {
	createFn  func(ctx context.Context, tenantID, createdBy string, input usecase.ExpenseInput) (*domain.Expense, error)
	updateFn  func(ctx context.Context, tenantID, id string, input usecase.ExpenseInput) (*domain.Expense, error)
	approveFn func(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error)
	rejectFn  func(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error)
	payFn     func(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error)
	getFn     func(ctx context.Context, tenantID, id string) (*domain.Expense, error)
	listFn    func(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error)
}

func (s *expenseServiceStub) CreateExpense(ctx context.Context, tenantID, createdBy string, input usecase.ExpenseInput) (*domain.Expense, error) {
	return s.createFn(ctx, tenantID, createdBy, input)
}

func (s *expenseServiceStub) UpdateExpense(ctx context.Context, tenantID, id string, input usecase.ExpenseInput) (*domain.Expense, error) {
	return s.updateFn(ctx, tenantID, id, input)
}

func (s *expenseServiceStub) ApproveExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return s.approveFn(ctx, tenantID, id, reviewer)
}

func (s *expenseServiceStub) RejectExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return s.rejectFn(ctx, tenantID, id, reviewer)
}

func (s *expenseServiceStub) PayExpense(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error) {
	return s.payFn(ctx, tenantID, id, paidBy)
}

func (s *expenseServiceStub) GetExpense(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *expenseServiceStub) ListExpenses(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
	return s.listFn(ctx, tenantID, status, limit, offset)
}

func TestExpenseHandler_Create_Success(t *testing.T) {
	expense := &domain.Expense{
		ID:       "exp-1",
		TenantID: "tenant-1",
		Title:    "Chalk and erasers",
		Amount:   decimal.RequireFromString("45.50"),
		Currency: "USD",
		Status:   domain.ExpenseStatusPending,
	}

	var capturedBy string
	h := NewExpenseHandler(&expenseServiceStub{
		createFn: func(ctx context.Context, tenantID, createdBy string, input usecase.ExpenseInput) (*domain.Expense, error) {
			capturedBy = createdBy
			return expense, nil
		},
	})

	body, _ := json.Marshal(dto.ExpenseRequest{
		Title:    "Chalk and erasers",
		Amount:   decimal.RequireFromString("45.50"),
		Currency: "USD",
	})

	req := withTenant(httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewReader(body)), "tenant-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedBy != "user-1" {
		t.Fatalf("expected creator from principal, got %q", capturedBy)
	}

	var resp dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "exp-1" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestExpenseHandler_Update_Immutable(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{
		updateFn: func(ctx context.Context, tenantID, id string, input usecase.ExpenseInput) (*domain.Expense, error) {
			return nil, domain.ErrImmutableState
		},
	})

	body := []byte(`{"title":"Chalk","amount":"45.50","currency":"USD"}`)
	req := withTenant(httptest.NewRequest(http.MethodPut, "/expenses/exp-1", bytes.NewReader(body)), "tenant-1")
	req = newChiRequest(req, map[string]string{"id": "exp-1"})
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExpenseHandler_Pay_ReturnsExpenseAndMovement(t *testing.T) {
	expense := &domain.Expense{ID: "exp-1", Status: domain.ExpenseStatusPaid, Amount: decimal.RequireFromString("45.50")}
	movement := &domain.Movement{
		ID:        "mov-1",
		Direction: domain.DirectionOut,
		Amount:    decimal.RequireFromString("45.50"),
		Source:    domain.SourceExpense,
	}

	h := NewExpenseHandler(&expenseServiceStub{
		payFn: func(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error) {
			return expense, movement, nil
		},
	})

	req := withTenant(httptest.NewRequest(http.MethodPost, "/expenses/exp-1/pay", nil), "tenant-1")
	req = newChiRequest(req, map[string]string{"id": "exp-1"})
	rec := httptest.NewRecorder()

	h.Pay(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.PayExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Expense.Status != "paid" {
		t.Fatalf("expected paid expense, got %s", resp.Expense.Status)
	}
	if resp.Movement.ID != "mov-1" || resp.Movement.Direction != "out" {
		t.Fatalf("expected outflow movement, got %+v", resp.Movement)
	}
}

func TestExpenseHandler_Pay_InvalidTransition(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{
		payFn: func(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error) {
			return nil, nil, domain.ErrInvalidTransition
		},
	})

	req := withTenant(httptest.NewRequest(http.MethodPost, "/expenses/exp-1/pay", nil), "tenant-1")
	req = newChiRequest(req, map[string]string{"id": "exp-1"})
	rec := httptest.NewRecorder()

	h.Pay(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExpenseHandler_List_StatusFilter(t *testing.T) {
	var capturedStatus domain.ExpenseStatus
	h := NewExpenseHandler(&expenseServiceStub{
		listFn: func(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
			capturedStatus = status
			return []*domain.Expense{
				{ID: "exp-1", Status: domain.ExpenseStatusApproved, Amount: decimal.New(1, 0)},
				{ID: "exp-2", Status: domain.ExpenseStatusApproved, Amount: decimal.New(2, 0)},
			}, nil
		},
	})

	req := withTenant(httptest.NewRequest(http.MethodGet, "/expenses/?status=approved", nil), "tenant-1")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedStatus != domain.ExpenseStatusApproved {
		t.Fatalf("expected approved filter, got %q", capturedStatus)
	}

	var resp dto.ListExpensesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Expenses) != 2 {
		t.Fatalf("count %d does not match page size %d", resp.Count, len(resp.Expenses))
	}
}

func TestExpenseHandler_Get_NotFound(t *testing.T) {
	h := NewExpenseHandler(&expenseServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
			return nil, domain.ErrExpenseNotFound
		},
	})

	req := withTenant(httptest.NewRequest(http.MethodGet, "/expenses/nope", nil), "tenant-1")
	req = newChiRequest(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}
