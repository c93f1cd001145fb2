package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/domain"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	Balance(ctx context.Context, tenantID string) ([]domain.BalanceRow, error)
	BalanceForCurrency(ctx context.Context, tenantID, currency string) (domain.BalanceRow, error)
}

// BalanceHandler handles balance queries.
type BalanceHandler struct {
	balanceUC BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC}
}

// Get returns the tenant's per-currency balances.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	rows, err := h.balanceUC.Balance(r.Context(), tenantID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(rows))
}

// GetCurrency returns the balance for one currency.
func (h *BalanceHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	row, err := h.balanceUC.BalanceForCurrency(r.Context(), tenantID, chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceRowFromDomain(row))
}
