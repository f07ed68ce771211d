package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pulsebank/transfer-service/internal/store"
	"github.com/shopspring/decimal"
)

func TestValidateBeneficiary_RejectionsReturnNilWithoutError(t *testing.T) {
	ownerID := uuid.New()
	strangerID := uuid.New()
	receiverID := uuid.New()

	repo := newEngineRepoStub()
	beneficiary := repo.seedBeneficiary(ownerID, receiverID, "PULSE", "2222", "PULSE0001", "150.00", time.Now())

	svc := newTestService(repo)

	got, err := svc.ValidateBeneficiary(context.Background(), ownerID, uuid.New(), decimal.RequireFromString("10.00"))
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for unknown beneficiary, got %+v, %v", got, err)
	}

	got, err = svc.ValidateBeneficiary(context.Background(), strangerID, beneficiary.ID, decimal.RequireFromString("10.00"))
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for wrong owner, got %+v, %v", got, err)
	}

	got, err = svc.ValidateBeneficiary(context.Background(), ownerID, beneficiary.ID, decimal.RequireFromString("150.01"))
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for amount above limit, got %+v, %v", got, err)
	}

	got, err = svc.ValidateBeneficiary(context.Background(), ownerID, beneficiary.ID, decimal.RequireFromString("150.00"))
	if err != nil {
		t.Fatalf("ValidateBeneficiary returned error: %v", err)
	}
	if got == nil || got.ID != beneficiary.ID {
		t.Fatalf("expected beneficiary at exactly the limit to validate, got %+v", got)
	}
}

func TestEligibleBeneficiaries_AppliesCoolingWindowCutoff(t *testing.T) {
	ownerID := uuid.New()

	repo := newEngineRepoStub()
	seasoned := repo.seedBeneficiary(ownerID, uuid.New(), "PULSE", "2222", "PULSE0001", "100.00", time.Now().UTC().Add(-2*time.Hour))
	repo.seedBeneficiary(ownerID, uuid.New(), "PULSE", "3333", "PULSE0001", "100.00", time.Now().UTC().Add(-10*time.Minute))

	svc := newTestService(repo) // one-hour cooling window

	eligible, err := svc.EligibleBeneficiaries(context.Background(), ownerID, "PULSE", true)
	if err != nil {
		t.Fatalf("EligibleBeneficiaries returned error: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != seasoned.ID {
		t.Fatalf("expected only the seasoned beneficiary to be eligible, got %+v", eligible)
	}

	if len(repo.listCutoffs) != 1 || repo.listCutoffs[0] == nil {
		t.Fatal("expected the eligible listing to pass a cooling cutoff to the store")
	}
	wantCutoff := time.Now().UTC().Add(-time.Hour)
	if diff := repo.listCutoffs[0].Sub(wantCutoff); diff < -2*time.Second || diff > 2*time.Second {
		t.Fatalf("expected cutoff about one hour ago, got %s", repo.listCutoffs[0])
	}

	// The unrestricted listing sees both.
	all, err := svc.ListBeneficiaries(context.Background(), ownerID, "PULSE", true)
	if err != nil {
		t.Fatalf("ListBeneficiaries returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 beneficiaries without the window, got %d", len(all))
	}
	if repo.listCutoffs[1] != nil {
		t.Fatal("expected no cutoff for the unrestricted listing")
	}
}

func TestAddBeneficiary_ValidationPaths(t *testing.T) {
	ownerID := uuid.New()
	receiverID := uuid.New()

	repo := newEngineRepoStub()
	repo.seedAccount(ownerID, "PULSE", "1111", "PULSE0001", "500.00")
	repo.seedAccount(receiverID, "PULSE", "2222", "PULSE0001", "300.00")

	svc := newTestService(repo)
	limit := decimal.RequireFromString("100.00")

	if _, err := svc.AddBeneficiary(context.Background(), ownerID, "PULSE", "9999", "PULSE0001", "Ghost", limit); !errors.Is(err, ErrBeneficiaryAccountMissing) {
		t.Fatalf("expected ErrBeneficiaryAccountMissing, got %v", err)
	}
	if _, err := svc.AddBeneficiary(context.Background(), ownerID, "PULSE", "2222", "WRONG0001", "Mismatch", limit); !errors.Is(err, ErrIFSCMismatch) {
		t.Fatalf("expected ErrIFSCMismatch, got %v", err)
	}
	if _, err := svc.AddBeneficiary(context.Background(), ownerID, "PULSE", "1111", "PULSE0001", "Self", limit); !errors.Is(err, ErrSelfBeneficiary) {
		t.Fatalf("expected ErrSelfBeneficiary, got %v", err)
	}

	beneficiary, err := svc.AddBeneficiary(context.Background(), ownerID, "PULSE", "2222", "PULSE0001", "Friend", limit)
	if err != nil {
		t.Fatalf("AddBeneficiary returned error: %v", err)
	}
	if beneficiary.BeneficiaryUserID != receiverID {
		t.Fatalf("expected beneficiary user resolved from the account, got %s", beneficiary.BeneficiaryUserID)
	}

	if _, err := svc.AddBeneficiary(context.Background(), ownerID, "PULSE", "2222", "PULSE0001", "Friend Again", limit); !errors.Is(err, ErrBeneficiaryExists) {
		t.Fatalf("expected ErrBeneficiaryExists on duplicate, got %v", err)
	}
}

func TestUpdateBeneficiaryLimit_RestartsCoolingWindow(t *testing.T) {
	ownerID := uuid.New()

	repo := newEngineRepoStub()
	seasoned := repo.seedBeneficiary(ownerID, uuid.New(), "PULSE", "2222", "PULSE0001", "100.00", time.Now().UTC().Add(-2*time.Hour))

	svc := newTestService(repo)

	if _, err := svc.UpdateBeneficiaryLimit(context.Background(), ownerID, uuid.New(), decimal.RequireFromString("200.00")); !errors.Is(err, store.ErrBeneficiaryNotFound) {
		t.Fatalf("expected ErrBeneficiaryNotFound, got %v", err)
	}

	updated, err := svc.UpdateBeneficiaryLimit(context.Background(), ownerID, seasoned.ID, decimal.RequireFromString("200.00"))
	if err != nil {
		t.Fatalf("UpdateBeneficiaryLimit returned error: %v", err)
	}
	if !updated.TransferLimit.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("expected limit 200.00, got %s", updated.TransferLimit)
	}

	// The touch on updated_at pushes the beneficiary out of the eligible set.
	eligible, err := svc.EligibleBeneficiaries(context.Background(), ownerID, "PULSE", true)
	if err != nil {
		t.Fatalf("EligibleBeneficiaries returned error: %v", err)
	}
	if len(eligible) != 0 {
		t.Fatalf("expected freshly edited beneficiary to be ineligible, got %+v", eligible)
	}
}

func TestDeleteBeneficiary_OwnerScoped(t *testing.T) {
	ownerID := uuid.New()

	repo := newEngineRepoStub()
	beneficiary := repo.seedBeneficiary(ownerID, uuid.New(), "PULSE", "2222", "PULSE0001", "100.00", time.Now().UTC())

	svc := newTestService(repo)

	if err := svc.DeleteBeneficiary(context.Background(), uuid.New(), beneficiary.ID); !errors.Is(err, store.ErrBeneficiaryNotFound) {
		t.Fatalf("expected delete by a non-owner to fail, got %v", err)
	}
	if err := svc.DeleteBeneficiary(context.Background(), ownerID, beneficiary.ID); err != nil {
		t.Fatalf("DeleteBeneficiary returned error: %v", err)
	}
	if _, err := repo.FindBeneficiaryByID(context.Background(), beneficiary.ID); !errors.Is(err, store.ErrBeneficiaryNotFound) {
		t.Fatal("expected beneficiary to be gone after delete")
	}
}
