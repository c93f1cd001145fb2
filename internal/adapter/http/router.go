package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/masomo/caisse/internal/adapter/http/handler"
	"github.com/masomo/caisse/internal/adapter/http/middleware"
	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/infrastructure/auth"
	"github.com/masomo/caisse/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	MovementHandler   *handler.MovementHandler
	SettlementHandler *handler.SettlementHandler
	ExpenseHandler    *handler.ExpenseHandler
	BalanceHandler    *handler.BalanceHandler
	BackfillHandler   *handler.BackfillHandler
	CurrencyHandler   *handler.CurrencyHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	JWTManager        *auth.JWTManager
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1, tenant-scoped
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantMiddleware(cfg.JWTManager))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Settlement webhooks from the payment and expense workflows
		r.Route("/settlements", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleOperator))
			r.Post("/payments", cfg.SettlementHandler.PaymentCompleted)
			r.Post("/expenses", cfg.SettlementHandler.ExpensePaid)
		})

		// Movements
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", cfg.MovementHandler.List)
			r.Get("/{id}", cfg.MovementHandler.Get)
			r.Get("/{id}/document", cfg.MovementHandler.GetDocument)
			r.With(middleware.RequireRole(domain.RoleOperator)).
				Post("/adjustments", cfg.MovementHandler.CreateAdjustment)
			r.With(middleware.RequireRole(domain.RoleOperator)).
				Put("/{id}/document", cfg.MovementHandler.AttachDocument)
		})

		// Expenses
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", cfg.ExpenseHandler.List)
			r.Get("/{id}", cfg.ExpenseHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleOperator))
				r.Post("/", cfg.ExpenseHandler.Create)
				r.Put("/{id}", cfg.ExpenseHandler.Update)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/{id}/approve", cfg.ExpenseHandler.Approve)
				r.Post("/{id}/reject", cfg.ExpenseHandler.Reject)
				r.Post("/{id}/pay", cfg.ExpenseHandler.Pay)
			})
		})

		// Balances
		r.Get("/balance", cfg.BalanceHandler.Get)
		r.Get("/balance/{currency}", cfg.BalanceHandler.GetCurrency)

		// Currencies
		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", cfg.CurrencyHandler.List)
			r.With(middleware.RequireRole(domain.RoleAdmin)).
				Post("/", cfg.CurrencyHandler.Register)
		})

		// Voucher backfill
		r.With(middleware.RequireRole(domain.RoleAdmin)).
			Post("/backfill/vouchers", cfg.BackfillHandler.Run)
	})

	return r
}
