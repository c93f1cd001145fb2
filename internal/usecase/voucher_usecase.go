package usecase

import (
	"context"
	"time"

	"github.com/masomo/caisse/internal/domain"
)

// VoucherUseCase resolves movement documents into downloadable URLs.
type VoucherUseCase struct {
	movementRepo MovementRepository
	store        VoucherStore
}

// NewVoucherUseCase creates a new VoucherUseCase.
func NewVoucherUseCase(movementRepo MovementRepository, store VoucherStore) *VoucherUseCase {
	return &VoucherUseCase{movementRepo: movementRepo, store: store}
}

// DocumentURL is a resolved, time-limited handle on a movement's voucher.
type DocumentURL struct {
	MovementID string    `json:"movement_id"`
	DocumentID string    `json:"document_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ResolveDocument returns a presigned download URL for the movement's
// attached voucher. Movements without a document yield ErrDocumentMissing.
func (uc *VoucherUseCase) ResolveDocument(ctx context.Context, tenantID, movementID string) (*DocumentURL, error) {
	movement, err := uc.movementRepo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}

	if !movement.HasDocument() {
		return nil, domain.ErrDocumentMissing
	}

	url, expiresAt, err := uc.store.DownloadURL(ctx, *movement.DocumentID, DocumentURLTTL)
	if err != nil {
		return nil, err
	}

	return &DocumentURL{
		MovementID: movement.ID,
		DocumentID: *movement.DocumentID,
		URL:        url,
		ExpiresAt:  expiresAt,
	}, nil
}
