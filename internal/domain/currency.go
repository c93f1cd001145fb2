package domain

import "time"

// Currency is a tenant-configured monetary unit. Movements may only be
// recorded in configured currencies; balances never mix them.
type Currency struct {
	TenantID  string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Validate checks the currency registration.
func (c *Currency) Validate() error {
	if c.TenantID == "" {
		return ErrTenantRequired
	}

	return ValidateCurrencyCode(c.Code)
}
