package usecase

import "time"

const (
	// DefaultPageSize is applied when a listing request has no limit.
	DefaultPageSize = 20

	// MaxPageSize caps listing requests.
	MaxPageSize = 100

	// MaxBackfillBatch bounds a single voucher backfill pass. Movements
	// beyond the bound are picked up by the next run.
	MaxBackfillBatch = 10000

	// VoucherContentType is the media type of synthesized vouchers.
	VoucherContentType = "application/json"

	// DocumentURLTTL is how long resolved voucher download URLs stay valid.
	DocumentURLTTL = 15 * time.Minute

	// BalanceCacheTTL bounds balance staleness. Balances are always
	// re-derived from the movement log once the cache entry expires.
	BalanceCacheTTL = 10 * time.Second
)
