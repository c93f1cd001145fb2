package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

// ExpenseService defines the behavior needed by ExpenseHandler.
type ExpenseService interface {
	CreateExpense(ctx context.Context, tenantID, createdBy string, input usecase.ExpenseInput) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, tenantID, id string, input usecase.ExpenseInput) (*domain.Expense, error)
	ApproveExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error)
	RejectExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error)
	PayExpense(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error)
	GetExpense(ctx context.Context, tenantID, id string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error)
}

// ExpenseHandler handles expense lifecycle HTTP requests.
type ExpenseHandler struct {
	expenseUC ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseUC ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseUC: expenseUC}
}

// Create registers a new pending expense.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, err := h.expenseUC.CreateExpense(r.Context(), tenantID, actorFromRequest(r), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create expense", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExpenseFromDomain(expense))
}

// Get retrieves an expense by ID.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	expense, err := h.expenseUC.GetExpense(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense))
}

// List lists the tenant's expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenseUC.ListExpenses(r.Context(), tenantID,
		domain.ExpenseStatus(r.URL.Query().Get("status")),
		parseIntQuery(r, "limit", usecase.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list expenses", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListExpensesResponse{
		Expenses: dto.ExpensesFromDomain(expenses),
		Count:    int64(len(expenses)),
	})
}

// Update edits a pending expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, err := h.expenseUC.UpdateExpense(r.Context(), tenantID, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense))
}

// Approve transitions a pending expense to approved.
func (h *ExpenseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.expenseUC.ApproveExpense)
}

// Reject transitions a pending expense to rejected.
func (h *ExpenseHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.expenseUC.RejectExpense)
}

func (h *ExpenseHandler) review(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error),
) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	expense, err := transition(r.Context(), tenantID, chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to review expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense))
}

// Pay settles an approved expense and records the OUT movement.
func (h *ExpenseHandler) Pay(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	expense, movement, err := h.expenseUC.PayExpense(r.Context(), tenantID, chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to pay expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PayExpenseResponse{
		Expense:  dto.ExpenseFromDomain(expense),
		Movement: dto.MovementFromDomain(movement),
	})
}
