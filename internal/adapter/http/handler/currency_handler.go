package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/domain"
)

// CurrencyService defines the behavior needed by CurrencyHandler.
type CurrencyService interface {
	RegisterCurrency(ctx context.Context, tenantID, code, name string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context, tenantID string) ([]*domain.Currency, error)
}

// CurrencyHandler handles the tenant currency registry.
type CurrencyHandler struct {
	currencyUC CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyUC CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyUC: currencyUC}
}

// Register adds a currency to the tenant's registry.
func (h *CurrencyHandler) Register(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.RegisterCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	currency, err := h.currencyUC.RegisterCurrency(r.Context(), tenantID, req.Code, req.Name)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register currency", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CurrencyFromDomain(currency))
}

// List lists the tenant's configured currencies.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	currencies, err := h.currencyUC.ListCurrencies(r.Context(), tenantID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list currencies", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CurrenciesFromDomain(currencies))
}
