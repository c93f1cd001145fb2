package usecase

import (
	"context"
	"time"

	"github.com/masomo/caisse/internal/domain"
)

// MovementFilter narrows a movement listing. Zero values mean "no filter".
type MovementFilter struct {
	Source    domain.Source
	Direction domain.Direction
	Currency  string
	FeeType   string
	Limit     int
	Offset    int
}

// MovementRepository defines data access for the append-only movement log.
type MovementRepository interface {
	// Create appends a movement without an idempotency check. Used for
	// adjustments, which are never deduplicated.
	Create(ctx context.Context, tx Transaction, m *domain.Movement) error
	// CreateIdempotent appends a referenced movement, relying on the
	// storage-level unique index on (tenant, source, reference). When a
	// movement already exists for the reference, it is returned with
	// created=false and nothing is written.
	CreateIdempotent(ctx context.Context, tx Transaction, m *domain.Movement) (*domain.Movement, bool, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Movement, error)
	List(ctx context.Context, tenantID string, filter MovementFilter) ([]*domain.Movement, error)
	ListMissingDocument(ctx context.Context, tenantID string, limit int) ([]*domain.Movement, error)
	// SetDocument attaches a document only while none is set. Returns false
	// when the compare-and-set lost (document already attached).
	SetDocument(ctx context.Context, tx Transaction, tenantID, movementID, documentID string) (bool, error)
	AggregateByCurrency(ctx context.Context, tenantID string) ([]domain.BalanceRow, error)
}

// CurrencyRepository defines data access for the tenant currency registry.
type CurrencyRepository interface {
	Create(ctx context.Context, c *domain.Currency) error
	Exists(ctx context.Context, tenantID, code string) (bool, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Currency, error)
}

// ExpenseRepository defines data access for expense settlements.
type ExpenseRepository interface {
	Create(ctx context.Context, e *domain.Expense) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Expense, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Expense, error)
	Update(ctx context.Context, e *domain.Expense) error
	UpdateStatus(ctx context.Context, tx Transaction, e *domain.Expense) error
	List(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// VoucherStore stores voucher documents in object storage.
type VoucherStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Cached values are never the system of
// record; everything in it is re-derivable from the movement log.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles HTTP idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
