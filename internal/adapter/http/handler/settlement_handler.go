package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

// PaymentSettlementService records completed payment settlements.
type PaymentSettlementService interface {
	HandleCompleted(ctx context.Context, evt usecase.PaymentCompletedEvent) (*domain.Movement, bool, error)
}

// ExpenseSettlementService records externally settled expenses.
type ExpenseSettlementService interface {
	HandlePaid(ctx context.Context, evt usecase.ExpensePaidEvent) (*domain.Movement, bool, error)
}

// SettlementHandler receives settlement notifications from the payment and
// expense workflows. Deliveries are at least once; replays answer 200 with
// the movement recorded by the first delivery.
type SettlementHandler struct {
	paymentUC PaymentSettlementService
	expenseUC ExpenseSettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(paymentUC PaymentSettlementService, expenseUC ExpenseSettlementService) *SettlementHandler {
	return &SettlementHandler{paymentUC: paymentUC, expenseUC: expenseUC}
}

// PaymentCompleted records the IN movement for a completed payment.
func (h *SettlementHandler) PaymentCompleted(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.PaymentCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.PaymentID == "" {
		writeError(w, http.StatusBadRequest, "missing payment_id", "")
		return
	}

	movement, created, err := h.paymentUC.HandleCompleted(r.Context(), req.ToEvent(tenantID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record payment settlement", err.Error())
		return
	}

	writeSettlement(w, movement, created)
}

// ExpensePaid records the OUT movement for an externally settled expense.
func (h *SettlementHandler) ExpensePaid(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.ExpensePaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.ExpenseID == "" {
		writeError(w, http.StatusBadRequest, "missing expense_id", "")
		return
	}

	movement, created, err := h.expenseUC.HandlePaid(r.Context(), req.ToEvent(tenantID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record expense settlement", err.Error())
		return
	}

	writeSettlement(w, movement, created)
}

func writeSettlement(w http.ResponseWriter, movement *domain.Movement, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, dto.SettlementResponse{
		Movement:  dto.MovementFromDomain(movement),
		Duplicate: !created,
	})
}
