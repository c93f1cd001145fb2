package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func pendingExpense() *Expense {
	return &Expense{
		ID:                "exp-1",
		TenantID:          "tenant-1",
		Title:             "chalk and markers",
		Category:          "supplies",
		Amount:            decimal.RequireFromString("20000"),
		Currency:          "CDF",
		PaymentMethod:     "cash",
		DeductFromFeeType: "tuition",
		Status:            ExpenseStatusPending,
	}
}

func TestExpenseLifecycle(t *testing.T) {
	now := time.Now().UTC()

	e := pendingExpense()
	if !e.Editable() {
		t.Fatal("pending expense must be editable")
	}

	if err := e.Approve("approver-1", now); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if e.Status != ExpenseStatusApproved || e.ReviewedBy != "approver-1" {
		t.Fatalf("unexpected state after approve: %+v", e)
	}

	if e.Editable() {
		t.Fatal("approved expense must not be editable")
	}

	if err := e.MarkPaid(now); err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	if e.Status != ExpenseStatusPaid {
		t.Fatalf("expected paid, got %s", e.Status)
	}
}

func TestExpenseInvalidTransitions(t *testing.T) {
	now := time.Now().UTC()

	// Paying straight from pending skips approval.
	e := pendingExpense()
	if err := e.MarkPaid(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	// Rejected is terminal.
	e = pendingExpense()
	if err := e.Reject("approver-1", now); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if err := e.Approve("approver-1", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after reject, got %v", err)
	}
	if err := e.MarkPaid(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after reject, got %v", err)
	}

	// Paid is terminal.
	e = pendingExpense()
	_ = e.Approve("approver-1", now)
	_ = e.MarkPaid(now)
	if err := e.Approve("approver-2", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after paid, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	e := pendingExpense()
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e = pendingExpense()
	e.Amount = decimal.Zero
	if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	e = pendingExpense()
	e.Currency = "cdf"
	if err := e.Validate(); !errors.Is(err, ErrInvalidCurrencyCode) {
		t.Fatalf("expected invalid currency, got %v", err)
	}

	e = pendingExpense()
	e.TenantID = ""
	if err := e.Validate(); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("expected tenant required, got %v", err)
	}
}
