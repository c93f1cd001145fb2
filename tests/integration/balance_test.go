package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/tests/testutil"
)

func TestBalanceAfterMixedActivity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	tenant := "tenant-" + testutil.GenerateID()
	srv.TestDB.SeedCurrency(ctx, tenant, "USD", "US Dollar")
	srv.TestDB.SeedCurrency(ctx, tenant, "CDF", "Congolese Franc")

	// A settled payment, a manual outflow and a manual inflow.
	rec := srv.do(t, http.MethodPost, "/api/v1/settlements/payments", tenant, map[string]any{
		"payment_id": "pay-100",
		"amount":     "50.00",
		"currency":   "USD",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("settlement failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/movements/adjustments", tenant, map[string]any{
		"direction":   "out",
		"amount":      "20000",
		"currency":    "CDF",
		"description": "petty cash for the canteen",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adjustment failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/movements/adjustments", tenant, map[string]any{
		"direction":   "in",
		"amount":      "100.00",
		"currency":    "USD",
		"description": "opening float",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adjustment failed: %d %s", rec.Code, rec.Body.String())
	}

	var balance struct {
		Balances []struct {
			Currency string          `json:"currency"`
			TotalIn  decimal.Decimal `json:"total_in"`
			TotalOut decimal.Decimal `json:"total_out"`
			Balance  decimal.Decimal `json:"balance"`
		} `json:"balances"`
	}
	rec = srv.do(t, http.MethodGet, "/api/v1/balance", tenant, nil, &balance)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance query failed: %d %s", rec.Code, rec.Body.String())
	}

	if len(balance.Balances) != 2 {
		t.Fatalf("expected two currency rows, got %d", len(balance.Balances))
	}

	byCurrency := map[string]decimal.Decimal{}
	for _, row := range balance.Balances {
		byCurrency[row.Currency] = row.Balance
	}

	if !byCurrency["USD"].Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected USD balance 150.00, got %s", byCurrency["USD"])
	}
	if !byCurrency["CDF"].Equal(decimal.RequireFromString("-20000")) {
		t.Fatalf("expected CDF balance -20000, got %s", byCurrency["CDF"])
	}
}

func TestBalanceZeroRowForIdleCurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	tenant := "tenant-" + testutil.GenerateID()
	srv.TestDB.SeedCurrency(ctx, tenant, "USD", "US Dollar")

	var row struct {
		Currency string          `json:"currency"`
		Balance  decimal.Decimal `json:"balance"`
	}
	rec := srv.do(t, http.MethodGet, "/api/v1/balance/USD", tenant, nil, &row)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected zero balance row, got %d: %s", rec.Code, rec.Body.String())
	}
	if !row.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", row.Balance)
	}

	// An unregistered currency is an error, not a zero row.
	rec = srv.do(t, http.MethodGet, "/api/v1/balance/EUR", tenant, nil, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown currency, got %d", rec.Code)
	}
}

func TestBalanceTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	tenantA := "tenant-" + testutil.GenerateID()
	tenantB := "tenant-" + testutil.GenerateID()
	srv.TestDB.SeedCurrency(ctx, tenantA, "USD", "US Dollar")
	srv.TestDB.SeedCurrency(ctx, tenantB, "USD", "US Dollar")

	rec := srv.do(t, http.MethodPost, "/api/v1/movements/adjustments", tenantA, map[string]any{
		"direction":   "in",
		"amount":      "75.00",
		"currency":    "USD",
		"description": "opening float",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adjustment failed: %d %s", rec.Code, rec.Body.String())
	}

	var row struct {
		Balance decimal.Decimal `json:"balance"`
	}
	rec = srv.do(t, http.MethodGet, "/api/v1/balance/USD", tenantB, nil, &row)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance query failed: %d %s", rec.Code, rec.Body.String())
	}
	if !row.Balance.IsZero() {
		t.Fatalf("tenant B must not see tenant A's cash, got %s", row.Balance)
	}
}

func TestBalanceReadAfterWriteBypassesCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	tenant := "tenant-" + testutil.GenerateID()
	srv.TestDB.SeedCurrency(ctx, tenant, "USD", "US Dollar")

	var row struct {
		Balance decimal.Decimal `json:"balance"`
	}

	// Prime the cached snapshot at zero, then settle a payment.
	rec := srv.do(t, http.MethodGet, "/api/v1/balance/USD", tenant, nil, &row)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance query failed: %d %s", rec.Code, rec.Body.String())
	}
	if !row.Balance.IsZero() {
		t.Fatalf("expected zero opening balance, got %s", row.Balance)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/settlements/payments", tenant, map[string]any{
		"payment_id": "pay-cache-1",
		"amount":     "50.00",
		"currency":   "USD",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("settlement failed: %d %s", rec.Code, rec.Body.String())
	}

	// The next read must reflect the settlement without waiting for the
	// snapshot TTL to lapse.
	rec = srv.do(t, http.MethodGet, "/api/v1/balance/USD", tenant, nil, &row)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance query failed: %d %s", rec.Code, rec.Body.String())
	}
	if want := decimal.RequireFromString("50.00"); !row.Balance.Equal(want) {
		t.Fatalf("expected balance %s right after settlement, got %s", want, row.Balance)
	}
}
