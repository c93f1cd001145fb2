package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/masomo/caisse/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{domain.ErrMovementNotFound, http.StatusNotFound},
		{domain.ErrExpenseNotFound, http.StatusNotFound},
		{domain.ErrDocumentMissing, http.StatusNotFound},
		{domain.ErrUnknownCurrency, http.StatusUnprocessableEntity},
		{domain.ErrImmutableState, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrDocumentAlreadySet, http.StatusConflict},
		{domain.ErrCurrencyExists, http.StatusConflict},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrReferenceRequired, http.StatusBadRequest},
		{domain.ErrPaymentNotCompleted, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapDomainError(tt.err); got != tt.expected {
			t.Errorf("mapDomainError(%v) = %d, want %d", tt.err, got, tt.expected)
		}
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x", nil)

	if got := parseIntQuery(req, "limit", 20); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := parseIntQuery(req, "missing", 20); got != 20 {
		t.Fatalf("expected default 20, got %d", got)
	}
	if got := parseIntQuery(req, "bad", 20); got != 20 {
		t.Fatalf("expected default for unparsable value, got %d", got)
	}
}
