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

// MovementService defines the behavior needed by MovementHandler.
type MovementService interface {
	CreateAdjustment(ctx context.Context, input usecase.AdjustmentInput) (*domain.Movement, error)
	GetMovement(ctx context.Context, tenantID, id string) (*domain.Movement, error)
	ListMovements(ctx context.Context, tenantID string, filter usecase.MovementFilter) ([]*domain.Movement, error)
	AttachDocument(ctx context.Context, tenantID, movementID, documentID string) error
}

// DocumentService resolves movement documents into download URLs.
type DocumentService interface {
	ResolveDocument(ctx context.Context, tenantID, movementID string) (*usecase.DocumentURL, error)
}

// MovementHandler handles movement-related HTTP requests.
type MovementHandler struct {
	ledgerUC   MovementService
	documentUC DocumentService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(ledgerUC MovementService, documentUC DocumentService) *MovementHandler {
	return &MovementHandler{ledgerUC: ledgerUC, documentUC: documentUC}
}

// List lists the tenant's movements, newest first.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	filter := usecase.MovementFilter{
		Source:    domain.Source(r.URL.Query().Get("source")),
		Direction: domain.Direction(r.URL.Query().Get("direction")),
		Currency:  r.URL.Query().Get("currency"),
		FeeType:   r.URL.Query().Get("fee_type"),
		Limit:     parseIntQuery(r, "limit", usecase.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	movements, err := h.ledgerUC.ListMovements(r.Context(), tenantID, filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements: dto.MovementsFromDomain(movements),
		Count:     int64(len(movements)),
	})
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	movement, err := h.ledgerUC.GetMovement(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get movement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// CreateAdjustment records a manual adjustment. Submitting the same
// adjustment twice records it twice; operators undo mistakes with a
// compensating adjustment, not a retry.
func (h *MovementHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.CreateAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := h.ledgerUC.CreateAdjustment(r.Context(), req.ToUseCaseInput(tenantID, actorFromRequest(r)))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create adjustment", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// AttachDocument attaches a supporting document to a movement.
func (h *MovementHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	var req dto.AttachDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "missing document_id", "")
		return
	}

	if err := h.ledgerUC.AttachDocument(r.Context(), tenantID, id, req.DocumentID); err != nil {
		writeError(w, mapDomainError(err), "failed to attach document", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDocument resolves the movement's voucher into a download URL.
func (h *MovementHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	doc, err := h.documentUC.ResolveDocument(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve document", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentURLFromUseCase(doc))
}
