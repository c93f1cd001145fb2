package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// StoragePinger reports whether the voucher object store is reachable.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	pool         *pgxpool.Pool
	redisClient  *redis.Client
	voucherStore StoragePinger
}

// NewHealthHandler creates a new HealthHandler. voucherStore may be nil
// for deployments without document storage.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, voucherStore StoragePinger) *HealthHandler {
	return &HealthHandler{
		pool:         pool,
		redisClient:  redisClient,
		voucherStore: voucherStore,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic. The
// movement log, the cache/idempotency store and the voucher store are all
// required: without the last, documents can neither be resolved nor
// backfilled.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "postgres unhealthy", err.Error())
		return
	}

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
		return
	}

	vouchers := "skipped"
	if h.voucherStore != nil {
		if err := h.voucherStore.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "voucher store unhealthy", err.Error())
			return
		}
		vouchers = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"postgres": "ok",
		"redis":    "ok",
		"vouchers": vouchers,
	})
}
