package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/masomo/caisse/internal/domain"
	"github.com/masomo/caisse/internal/usecase"
	"github.com/masomo/caisse/internal/usecase/mocks"
)

func TestVoucherUseCase_ResolveDocument(t *testing.T) {
	movementRepo := mocks.NewMockMovementRepository()
	store := mocks.NewMockVoucherStore()
	uc := usecase.NewVoucherUseCase(movementRepo, store)
	ctx := context.Background()

	docID := domain.VoucherStorageKey("tenant-1", "mov-1")
	movementRepo.GetByIDFunc = func(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
		if tenantID != "tenant-1" || id != "mov-1" {
			return nil, domain.ErrMovementNotFound
		}
		return &domain.Movement{ID: "mov-1", TenantID: "tenant-1", DocumentID: &docID}, nil
	}
	if err := store.Put(ctx, docID, []byte("{}"), "application/json"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	doc, err := uc.ResolveDocument(ctx, "tenant-1", "mov-1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if doc.URL == "" {
		t.Error("expected download URL")
	}
	if doc.DocumentID != docID {
		t.Errorf("expected document id %q, got %q", docID, doc.DocumentID)
	}
	if !doc.ExpiresAt.After(time.Now()) {
		t.Errorf("expected future expiry, got %s", doc.ExpiresAt)
	}
}

func TestVoucherUseCase_ResolveDocument_MissingDocument(t *testing.T) {
	movementRepo := mocks.NewMockMovementRepository()
	uc := usecase.NewVoucherUseCase(movementRepo, mocks.NewMockVoucherStore())

	movementRepo.GetByIDFunc = func(ctx context.Context, tenantID, id string) (*domain.Movement, error) {
		return &domain.Movement{ID: id, TenantID: tenantID}, nil
	}

	_, err := uc.ResolveDocument(context.Background(), "tenant-1", "mov-1")
	if !errors.Is(err, domain.ErrDocumentMissing) {
		t.Fatalf("expected ErrDocumentMissing, got %v", err)
	}
}

func TestVoucherUseCase_ResolveDocument_MovementNotFound(t *testing.T) {
	uc := usecase.NewVoucherUseCase(mocks.NewMockMovementRepository(), mocks.NewMockVoucherStore())

	_, err := uc.ResolveDocument(context.Background(), "tenant-1", "missing")
	if !errors.Is(err, domain.ErrMovementNotFound) {
		t.Fatalf("expected ErrMovementNotFound, got %v", err)
	}
}
