package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
)

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.RolledBack = true
	return nil
}

// MockTransactionManager hands out no-op transactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockMovementRepository is an in-memory movement log that enforces the
// same unique reference constraint as the real storage.
type MockMovementRepository struct {
	mu        sync.RWMutex
	movements []*domain.Movement
	byRef     map[string]*domain.Movement

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error
	CreateIdempotentFunc    func(ctx context.Context, tx usecase.Transaction, m *domain.Movement) (*domain.Movement, bool, error)
	GetByIDFunc             func(ctx context.Context, tenantID, id string) (*domain.Movement, error)
	ListFunc                func(ctx context.Context, tenantID string, filter usecase.MovementFilter) ([]*domain.Movement, error)
	ListMissingDocumentFunc func(ctx context.Context, tenantID string, limit int) ([]*domain.Movement, error)
	SetDocumentFunc         func(ctx context.Context, tx usecase.Transaction, tenantID, movementID, documentID string) (bool, error)
	AggregateByCurrencyFunc func(ctx context.Context, tenantID string) ([]domain.BalanceRow, error)
}

func NewMockMovementRepository() *MockMovementRepository {
	return &MockMovementRepository{
		byRef: make(map[string]*domain.Movement),
	}
}

func refKey(m *domain.Movement) string {
	return fmt.Sprintf("%s|%s|%s|%s", m.TenantID, m.Source, m.Reference.Type, m.Reference.ID)
}

func (r *MockMovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.movements = append(r.movements, &cp)
	return nil
}

func (r *MockMovementRepository) CreateIdempotent(ctx context.Context, tx usecase.Transaction, m *domain.Movement) (*domain.Movement, bool, error) {
	if r.CreateIdempotentFunc != nil {
		return r.CreateIdempotentFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Reference == nil {
		cp := *m
		r.movements = append(r.movements, &cp)
		return &cp, true, nil
	}
	key := refKey(m)
	if existing, ok := r.byRef[key]; ok {
		return existing, false, nil
	}
	cp := *m
	r.movements = append(r.movements, &cp)
	r.byRef[key] = &cp
	return &cp, true, nil
}

func (r *MockMovementRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
	if r.GetByIDFunc != nil {
		return r.GetByIDFunc(ctx, tenantID, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (r *MockMovementRepository) List(ctx context.Context, tenantID string, filter usecase.MovementFilter) ([]*domain.Movement, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tenantID, filter)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Movement
	// Newest first: reverse insertion order.
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.TenantID != tenantID {
			continue
		}
		if filter.Source != "" && m.Source != filter.Source {
			continue
		}
		if filter.Direction != "" && m.Direction != filter.Direction {
			continue
		}
		if filter.Currency != "" && m.Currency != filter.Currency {
			continue
		}
		if filter.FeeType != "" && m.FeeType != filter.FeeType {
			continue
		}
		out = append(out, m)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MockMovementRepository) ListMissingDocument(ctx context.Context, tenantID string, limit int) ([]*domain.Movement, error) {
	if r.ListMissingDocumentFunc != nil {
		return r.ListMissingDocumentFunc(ctx, tenantID, limit)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Movement
	for _, m := range r.movements {
		if m.TenantID == tenantID && !m.HasDocument() {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MockMovementRepository) SetDocument(ctx context.Context, tx usecase.Transaction, tenantID, movementID, documentID string) (bool, error) {
	if r.SetDocumentFunc != nil {
		return r.SetDocumentFunc(ctx, tx, tenantID, movementID, documentID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.ID == movementID {
			if m.HasDocument() {
				return false, nil
			}
			m.DocumentID = &documentID
			return true, nil
		}
	}
	return false, domain.ErrMovementNotFound
}

func (r *MockMovementRepository) AggregateByCurrency(ctx context.Context, tenantID string) ([]domain.BalanceRow, error) {
	if r.AggregateByCurrencyFunc != nil {
		return r.AggregateByCurrencyFunc(ctx, tenantID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCurrency := make(map[string]*domain.BalanceRow)
	var order []string
	for _, m := range r.movements {
		if m.TenantID != tenantID {
			continue
		}
		row, ok := byCurrency[m.Currency]
		if !ok {
			row = &domain.BalanceRow{
				Currency: m.Currency,
				TotalIn:  decimal.Zero,
				TotalOut: decimal.Zero,
				Balance:  decimal.Zero,
			}
			byCurrency[m.Currency] = row
			order = append(order, m.Currency)
		}
		if m.Direction == domain.DirectionIn {
			row.TotalIn = row.TotalIn.Add(m.Amount)
		} else {
			row.TotalOut = row.TotalOut.Add(m.Amount)
		}
		row.Balance = row.TotalIn.Sub(row.TotalOut)
	}

	out := make([]domain.BalanceRow, 0, len(order))
	for _, c := range order {
		out = append(out, *byCurrency[c])
	}
	return out, nil
}

// Movements returns a snapshot of everything stored, for assertions.
func (r *MockMovementRepository) Movements() []*domain.Movement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Movement, len(r.movements))
	copy(out, r.movements)
	return out
}

// MockCurrencyRepository is an in-memory tenant currency registry.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	CreateFunc       func(ctx context.Context, c *domain.Currency) error
	ExistsFunc       func(ctx context.Context, tenantID, code string) (bool, error)
	ListByTenantFunc func(ctx context.Context, tenantID string) ([]*domain.Currency, error)
}

func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{currencies: make(map[string]*domain.Currency)}
}

// Seed registers an active currency without going through Create.
func (r *MockCurrencyRepository) Seed(tenantID string, codes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		r.currencies[tenantID+"|"+code] = &domain.Currency{
			TenantID: tenantID,
			Code:     code,
			Active:   true,
		}
	}
}

func (r *MockCurrencyRepository) Create(ctx context.Context, c *domain.Currency) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := c.TenantID + "|" + c.Code
	if _, ok := r.currencies[key]; ok {
		return domain.ErrCurrencyExists
	}
	r.currencies[key] = c
	return nil
}

func (r *MockCurrencyRepository) Exists(ctx context.Context, tenantID, code string) (bool, error) {
	if r.ExistsFunc != nil {
		return r.ExistsFunc(ctx, tenantID, code)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.currencies[tenantID+"|"+code]
	return ok && c.Active, nil
}

func (r *MockCurrencyRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Currency, error) {
	if r.ListByTenantFunc != nil {
		return r.ListByTenantFunc(ctx, tenantID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Currency
	for _, c := range r.currencies {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// MockExpenseRepository is an in-memory expense store.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.Expense

	CreateFunc           func(ctx context.Context, e *domain.Expense) error
	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.Expense, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Expense, error)
	UpdateFunc           func(ctx context.Context, e *domain.Expense) error
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error
	ListFunc             func(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error)
}

func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{expenses: make(map[string]*domain.Expense)}
}

func (r *MockExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.expenses[e.TenantID+"|"+e.ID] = &cp
	return nil
}

func (r *MockExpenseRepository) get(tenantID, id string) (*domain.Expense, error) {
	e, ok := r.expenses[tenantID+"|"+id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MockExpenseRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Expense, error) {
	if r.GetByIDFunc != nil {
		return r.GetByIDFunc(ctx, tenantID, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(tenantID, id)
}

func (r *MockExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Expense, error) {
	if r.GetByIDForUpdateFunc != nil {
		return r.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(tenantID, id)
}

// Update enforces the same pending-only guard as the real storage, so a
// stale snapshot cannot overwrite a concurrently settled expense.
func (r *MockExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.expenses[e.TenantID+"|"+e.ID]
	if !ok {
		return domain.ErrExpenseNotFound
	}
	if existing.Status != domain.ExpenseStatusPending {
		return domain.ErrImmutableState
	}
	cp := *e
	r.expenses[e.TenantID+"|"+e.ID] = &cp
	return nil
}

func (r *MockExpenseRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	if r.UpdateStatusFunc != nil {
		return r.UpdateStatusFunc(ctx, tx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[e.TenantID+"|"+e.ID]; !ok {
		return domain.ErrExpenseNotFound
	}
	cp := *e
	r.expenses[e.TenantID+"|"+e.ID] = &cp
	return nil
}

func (r *MockExpenseRepository) List(ctx context.Context, tenantID string, status domain.ExpenseStatus, limit, offset int) ([]*domain.Expense, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tenantID, status, limit, offset)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Expense
	for _, e := range r.expenses {
		if e.TenantID != tenantID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// MockOutboxRepository collects events in memory.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (r *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, event)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range r.events {
		if !e.Published {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (r *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	for _, e := range r.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	r.events = kept
	return nil
}

// Events returns a snapshot of collected events.
func (r *MockOutboxRepository) Events() []*domain.OutboxEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(r.events))
	copy(out, r.events)
	return out
}

// MockVoucherStore is an in-memory object store. FailKeys forces Put
// failures for specific keys, for batch error-path tests.
type MockVoucherStore struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	FailKeys map[string]error

	PutFunc         func(ctx context.Context, key string, data []byte, contentType string) error
	ExistsFunc      func(ctx context.Context, key string) (bool, error)
	DownloadURLFunc func(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

func NewMockVoucherStore() *MockVoucherStore {
	return &MockVoucherStore{
		objects:  make(map[string][]byte),
		FailKeys: make(map[string]error),
	}
}

func (s *MockVoucherStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.PutFunc != nil {
		return s.PutFunc(ctx, key, data, contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailKeys[key]; ok {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *MockVoucherStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.ExistsFunc != nil {
		return s.ExistsFunc(ctx, key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MockVoucherStore) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if s.DownloadURLFunc != nil {
		return s.DownloadURLFunc(ctx, key, expiresIn)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", time.Time{}, fmt.Errorf("object not found: %s", key)
	}
	return "https://vouchers.test/" + key, time.Now().Add(expiresIn), nil
}

// Object returns a stored object, for assertions.
func (s *MockVoucherStore) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// MockCache is an in-memory cache without TTL eviction.
type MockCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (c *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}
	return data, nil
}

func (c *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
