package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/masomo/caisse/internal/domain"
)

// CurrencyUseCase manages the tenant currency registry. Registering a
// currency is the fix path for settlement configuration faults.
type CurrencyUseCase struct {
	currencyRepo CurrencyRepository
}

// NewCurrencyUseCase creates a new CurrencyUseCase.
func NewCurrencyUseCase(currencyRepo CurrencyRepository) *CurrencyUseCase {
	return &CurrencyUseCase{currencyRepo: currencyRepo}
}

// RegisterCurrency adds a currency to the tenant's registry.
func (uc *CurrencyUseCase) RegisterCurrency(ctx context.Context, tenantID, code, name string) (*domain.Currency, error) {
	currency := &domain.Currency{
		TenantID:  tenantID,
		Code:      domain.NormalizeCurrencyCode(code),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := currency.Validate(); err != nil {
		return nil, err
	}

	exists, err := uc.currencyRepo.Exists(ctx, tenantID, currency.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyExists, currency.Code)
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	return currency, nil
}

// ListCurrencies lists the tenant's configured currencies.
func (uc *CurrencyUseCase) ListCurrencies(ctx context.Context, tenantID string) ([]*domain.Currency, error) {
	return uc.currencyRepo.ListByTenant(ctx, tenantID)
}
