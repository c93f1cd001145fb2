package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	adaptershttp "github.com/masomo/caisse/internal/adapter/http"
	"github.com/masomo/caisse/internal/adapter/http/handler"
	"github.com/masomo/caisse/internal/adapter/repository/postgres"
	redisrepo "github.com/masomo/caisse/internal/adapter/repository/redis"
	infraredis "github.com/masomo/caisse/internal/infrastructure/redis"
	"github.com/masomo/caisse/internal/usecase"
	"github.com/masomo/caisse/tests/testutil"
)

// testServer bundles the HTTP surface with the repositories behind it so
// tests can assert on both.
type testServer struct {
	Router   http.Handler
	Outbox   *postgres.OutboxRepository
	TestDB   *testutil.TestDB
	shutdown func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	currencyRepo := postgres.NewCurrencyRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	cache := redisrepo.NewCache(redisClient)

	logger := zerolog.Nop()
	ledgerUC := usecase.NewLedgerUseCase(txManager, movementRepo, currencyRepo, outboxRepo, idGen, cache)
	paymentUC := usecase.NewPaymentUseCase(ledgerUC, logger)
	expenseUC := usecase.NewExpenseUseCase(txManager, expenseRepo, ledgerUC, outboxRepo, idGen, logger)
	balanceUC := usecase.NewBalanceUseCase(movementRepo, currencyRepo, cache)
	currencyUC := usecase.NewCurrencyUseCase(currencyRepo)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		MovementHandler:   handler.NewMovementHandler(ledgerUC, nil),
		SettlementHandler: handler.NewSettlementHandler(paymentUC, expenseUC),
		ExpenseHandler:    handler.NewExpenseHandler(expenseUC),
		BalanceHandler:    handler.NewBalanceHandler(balanceUC),
		BackfillHandler:   handler.NewBackfillHandler(nil),
		CurrencyHandler:   handler.NewCurrencyHandler(currencyUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient, nil),
		IdempotencyStore:  redisrepo.NewIdempotencyStore(redisClient),
		Logger:            logger,
	})

	return &testServer{
		Router: router,
		Outbox: outboxRepo,
		TestDB: testDB,
		shutdown: func() {
			redisClient.Close()
			testDB.Cleanup()
		},
	}
}

func (s *testServer) Close() {
	s.shutdown()
}

// do performs a request for the given tenant and decodes the JSON response
// into out when out is non-nil.
func (s *testServer) do(t *testing.T, method, path, tenant string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenant)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}

	return rec
}
