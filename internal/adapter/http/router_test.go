package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/adapter/http/handler"
	apimiddleware "github.com/masomo/caisse/internal/adapter/http/middleware"
	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_MissingTenantRejected(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected request without tenant to return 401, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"direction":"in","amount":"10.00","currency":"USD","description":"opening float"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements/adjustments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.TenantHeader, "tenant-1")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/settlements/payments",
		"POST /api/v1/settlements/expenses",
		"GET /api/v1/movements/",
		"GET /api/v1/movements/{id}",
		"POST /api/v1/movements/adjustments",
		"PUT /api/v1/movements/{id}/document",
		"GET /api/v1/movements/{id}/document",
		"POST /api/v1/expenses/",
		"POST /api/v1/expenses/{id}/pay",
		"GET /api/v1/balance",
		"GET /api/v1/balance/{currency}",
		"POST /api/v1/currencies/",
		"POST /api/v1/backfill/vouchers",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		MovementHandler:   handler.NewMovementHandler(&stubMovementService{}, &stubDocumentService{}),
		SettlementHandler: handler.NewSettlementHandler(&stubPaymentService{}, &stubExpenseSettlementService{}),
		ExpenseHandler:    handler.NewExpenseHandler(&stubExpenseService{}),
		BalanceHandler:    handler.NewBalanceHandler(&stubBalanceService{}),
		BackfillHandler:   handler.NewBackfillHandler(&stubBackfillService{}),
		CurrencyHandler:   handler.NewCurrencyHandler(&stubCurrencyService{}),
		HealthHandler:     &handler.HealthHandler{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubMovementService struct{}

func (stubMovementService) CreateAdjustment(ctx context.Context, input usecase.AdjustmentInput) (*domain.Movement, error) {
	return &domain.Movement{ID: "mov", TenantID: input.TenantID}, nil
}

func (stubMovementService) GetMovement(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
	return &domain.Movement{ID: id, TenantID: tenantID}, nil
}

func (stubMovementService) ListMovements(ctx context.Context, tenantID string, filter usecase.MovementFilter) ([]*domain.Movement, error) {
	return []*domain.Movement{}, nil
}

func (stubMovementService) AttachDocument(ctx context.Context, tenantID, movementID, documentID string) error {
	return nil
}

type stubDocumentService struct{}

func (stubDocumentService) ResolveDocument(ctx context.Context, tenantID, movementID string) (*usecase.DocumentURL, error) {
	return &usecase.DocumentURL{MovementID: movementID, DocumentID: "doc"}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) HandleCompleted(ctx context.Context, evt usecase.PaymentCompletedEvent) (*domain.Movement, bool, error) {
	return &domain.Movement{ID: "mov", Amount: decimal.New(100, -2)}, false, nil
}

type stubExpenseSettlementService struct{}

func (stubExpenseSettlementService) HandlePaid(ctx context.Context, evt usecase.ExpensePaidEvent) (*domain.Movement, bool, error) {
	return &domain.Movement{ID: "mov"}, false, nil
}

type stubExpenseService struct{}

func (stubExpenseService) CreateExpense(ctx context.Context, tenantID, createdBy string, input usecase.ExpenseInput) (*domain.Expense, error) {
	return &domain.Expense{ID: "exp", TenantID: tenantID}, nil
}

func (stubExpenseService) UpdateExpense(ctx context.Context, tenantID, id string, input usecase.ExpenseInput) (*domain.Expense, error) {
	return &domain.Expense{ID: id, TenantID: tenantID}, nil
}

func (stubExpenseService) ApproveExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return &domain.Expense{ID: id, Status: domain.ExpenseStatusApproved}, nil
}

func (stubExpenseService) RejectExpense(ctx context.Context, tenantID, id, reviewer string) (*domain.Expense, error) {
	return &domain.Expense{ID: id, Status: domain.ExpenseStatusRejected}, nil
}

func (stubExpenseService) PayExpense(ctx context.Context, tenantID, id, paidBy string) (*domain.Expense, *domain.Movement, error) {
	return &domain.Expense{ID: id, Status: domain.ExpenseStatusPaid}, &domain.Movement{ID: "mov"}, nil
}

func (stubExpenseService) GetExpense(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
	return &domain.Expense{ID: id, TenantID: tenantID}, nil
}

func (stubExpenseService) ListExpenses(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
	return []*domain.Expense{}, nil
}

type stubBalanceService struct{}

func (stubBalanceService) Balance(ctx context.Context, tenantID string) ([]domain.BalanceRow, error) {
	return []domain.BalanceRow{}, nil
}

func (stubBalanceService) BalanceForCurrency(ctx context.Context, tenantID, currency string) (domain.BalanceRow, error) {
	return domain.BalanceRow{Currency: currency, Balance: decimal.Zero}, nil
}

type stubBackfillService struct{}

func (stubBackfillService) Run(ctx context.Context, tenantID string) (*usecase.BackfillResult, error) {
	return &usecase.BackfillResult{}, nil
}

type stubCurrencyService struct{}

func (stubCurrencyService) RegisterCurrency(ctx context.Context, tenantID, code, name string) (*domain.Currency, error) {
	return &domain.Currency{TenantID: tenantID, Code: code, Name: name, Active: true}, nil
}

func (stubCurrencyService) ListCurrencies(ctx context.Context, tenantID string) ([]*domain.Currency, error) {
	return []*domain.Currency{}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
