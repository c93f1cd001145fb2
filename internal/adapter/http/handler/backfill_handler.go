package handler

import (
	"context"
	"net/http"

	"github.com/masomo/caisse/internal/usecase"
)

// BackfillService runs the voucher backfill.
type BackfillService interface {
	Run(ctx context.Context, tenantID string) (*usecase.BackfillResult, error)
}

// BackfillHandler triggers voucher backfill runs.
type BackfillHandler struct {
	backfillUC BackfillService
}

// NewBackfillHandler creates a new BackfillHandler.
func NewBackfillHandler(backfillUC BackfillService) *BackfillHandler {
	return &BackfillHandler{backfillUC: backfillUC}
}

// Run synthesizes vouchers for the tenant's movements without documents.
// Safe to call repeatedly; a rerun over a fully documented ledger is a
// no-op.
func (h *BackfillHandler) Run(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.backfillUC.Run(r.Context(), tenantID)
	if err != nil {
		writeError(w, mapDomainError(err), "voucher backfill failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
