package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/masomo/caisse/internal/domain"
)

// BalanceUseCase derives per-currency balance snapshots from the movement
// log. Balances are always computed by live aggregation; the optional cache
// only bounds read amplification and is never the system of record.
type BalanceUseCase struct {
	movementRepo MovementRepository
	currencyRepo CurrencyRepository
	cache        Cache
}

// NewBalanceUseCase creates a new BalanceUseCase. cache may be nil.
func NewBalanceUseCase(movementRepo MovementRepository, currencyRepo CurrencyRepository, cache Cache) *BalanceUseCase {
	return &BalanceUseCase{
		movementRepo: movementRepo,
		currencyRepo: currencyRepo,
		cache:        cache,
	}
}

// Balance returns one row per currency with activity, plus zero rows for
// configured currencies without movements yet. Zero is a valid answer,
// distinct from an unknown currency.
func (uc *BalanceUseCase) Balance(ctx context.Context, tenantID string) ([]domain.BalanceRow, error) {
	if rows, ok := uc.cached(ctx, tenantID); ok {
		return rows, nil
	}

	rows, err := uc.movementRepo.AggregateByCurrency(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		seen[row.Currency] = true
	}

	currencies, err := uc.currencyRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for _, c := range currencies {
		if !c.Active || seen[c.Code] {
			continue
		}

		rows = append(rows, domain.BalanceRow{
			Currency: c.Code,
			TotalIn:  decimal.Zero,
			TotalOut: decimal.Zero,
			Balance:  decimal.Zero,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Currency < rows[j].Currency })

	uc.store(ctx, tenantID, rows)

	return rows, nil
}

// BalanceForCurrency returns the single row for one currency. A configured
// currency without movements yields a zero row; an unconfigured one is an
// error.
func (uc *BalanceUseCase) BalanceForCurrency(ctx context.Context, tenantID, currency string) (domain.BalanceRow, error) {
	currency = domain.NormalizeCurrencyCode(currency)
	if err := domain.ValidateCurrencyCode(currency); err != nil {
		return domain.BalanceRow{}, err
	}

	rows, err := uc.Balance(ctx, tenantID)
	if err != nil {
		return domain.BalanceRow{}, err
	}

	for _, row := range rows {
		if row.Currency == currency {
			return row, nil
		}
	}

	return domain.BalanceRow{}, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, currency)
}

func balanceCacheKey(tenantID string) string {
	return "balance:" + tenantID
}

func (uc *BalanceUseCase) cached(ctx context.Context, tenantID string) ([]domain.BalanceRow, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, balanceCacheKey(tenantID))
	if err != nil || len(data) == 0 {
		return nil, false
	}

	var rows []domain.BalanceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}

	return rows, true
}

func (uc *BalanceUseCase) store(ctx context.Context, tenantID string, rows []domain.BalanceRow) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return
	}

	// Best effort: a cache write failure never fails a balance read.
	_ = uc.cache.Set(ctx, balanceCacheKey(tenantID), data, BalanceCacheTTL)
}
