package domain

import "errors"

var (
	// Movement errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidDirection    = errors.New("invalid movement direction")
	ErrInvalidSource       = errors.New("invalid movement source")
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	ErrTenantRequired      = errors.New("tenant is required")
	ErrReferenceRequired   = errors.New("settlement reference is required")
	ErrPaymentNotCompleted = errors.New("payment settlement is not completed")
	ErrReferenceNotAllowed = errors.New("settlement reference not allowed")
	ErrMovementNotFound    = errors.New("movement not found")
	ErrDocumentAlreadySet  = errors.New("movement document already attached")
	ErrDocumentMissing     = errors.New("movement has no document attached")

	// Currency registry errors
	ErrUnknownCurrency = errors.New("currency is not configured for tenant")
	ErrCurrencyExists  = errors.New("currency already configured for tenant")

	// Expense errors
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrImmutableState    = errors.New("expense is no longer editable")
	ErrInvalidTransition = errors.New("invalid expense status transition")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
