package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/masomo/caisse/internal/adapter/http/dto"
	"github.com/masomo/caisse/internal/adapter/http/middleware"
	"github.com/masomo/caisse/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrMovementNotFound),
		errors.Is(err, domain.ErrExpenseNotFound),
		errors.Is(err, domain.ErrDocumentMissing):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownCurrency):
		// Tenant configuration fault, not a malformed request.
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrImmutableState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDocumentAlreadySet),
		errors.Is(err, domain.ErrCurrencyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidCurrencyCode),
		errors.Is(err, domain.ErrReferenceRequired),
		errors.Is(err, domain.ErrReferenceNotAllowed),
		errors.Is(err, domain.ErrPaymentNotCompleted),
		errors.Is(err, domain.ErrTenantRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// tenantFromRequest resolves the caller's tenant, set by the tenant
// middleware.
func tenantFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := middleware.TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		writeError(w, http.StatusUnauthorized, "missing tenant", "")
		return "", false
	}

	return tenantID, true
}

// actorFromRequest returns the authenticated user id, for audit fields.
func actorFromRequest(r *http.Request) string {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return ""
	}

	return principal.UserID
}
