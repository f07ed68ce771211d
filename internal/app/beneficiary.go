/**
 * @description
 * Beneficiary management and the limit check the transfer engine depends on.
 * A beneficiary caps how much a single transfer may move, and a freshly added
 * or edited beneficiary sits out a cooling window before it shows up in the
 * eligible-for-transfer listing, so a just-raised limit cannot be used
 * immediately.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pulsebank/transfer-service/internal/domain"
	"github.com/pulsebank/transfer-service/internal/mailer"
	"github.com/pulsebank/transfer-service/internal/store"
	"github.com/pulsebank/transfer-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

var (
	ErrBeneficiaryExists         = errors.New("beneficiary already exists")
	ErrBeneficiaryAccountMissing = errors.New("beneficiary account does not exist")
	ErrIFSCMismatch              = errors.New("account does not match ifsc code")
	ErrSelfBeneficiary           = errors.New("cannot add your own account as a beneficiary")
)

// ValidateBeneficiary checks that the beneficiary exists, belongs to the
// caller, and that the amount is within its per-transfer limit. A nil result
// with a nil error means rejected; errors are reserved for store failures.
// The cooling window is deliberately not applied here: it gates the eligible
// listing, matching the behavior transfers are authorized against.
func (s *Service) ValidateBeneficiary(ctx context.Context, ownerID, beneficiaryID uuid.UUID, amount decimal.Decimal) (*domain.Beneficiary, error) {
	beneficiary, err := s.repo.FindBeneficiaryByID(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, store.ErrBeneficiaryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up beneficiary: %w", err)
	}
	if beneficiary.OwnerID != ownerID {
		return nil, nil
	}
	if amount.GreaterThan(beneficiary.TransferLimit) {
		return nil, nil
	}
	return beneficiary, nil
}

// ListBeneficiaries returns all of an owner's beneficiaries at (or away from)
// their bank, with no cooling restriction.
func (s *Service) ListBeneficiaries(ctx context.Context, ownerID uuid.UUID, ownerBank string, sameBank bool) ([]domain.Beneficiary, error) {
	return s.repo.FindBeneficiariesByOwner(ctx, ownerID, ownerBank, sameBank, nil)
}

// EligibleBeneficiaries returns the beneficiaries a transfer may currently
// target: those last created or edited at least one cooling window ago.
func (s *Service) EligibleBeneficiaries(ctx context.Context, ownerID uuid.UUID, ownerBank string, sameBank bool) ([]domain.Beneficiary, error) {
	cutoff := time.Now().UTC().Add(-s.coolingWindow)
	return s.repo.FindBeneficiariesByOwner(ctx, ownerID, ownerBank, sameBank, &cutoff)
}

// AddBeneficiary registers a transfer target after checking that the target
// account exists, matches the given IFSC code, and is not the caller's own
// account at their own bank.
func (s *Service) AddBeneficiary(ctx context.Context, ownerID uuid.UUID, ownerBank, accountNumber, ifscCode, name string, limit decimal.Decimal) (*domain.Beneficiary, error) {
	existing, err := s.repo.FindBeneficiaryByOwnerAndAccountNumber(ctx, ownerID, accountNumber)
	if err != nil && !errors.Is(err, store.ErrBeneficiaryNotFound) {
		return nil, fmt.Errorf("failed to check for existing beneficiary: %w", err)
	}
	if existing != nil {
		return nil, ErrBeneficiaryExists
	}

	account, err := s.repo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrBeneficiaryAccountMissing
		}
		return nil, fmt.Errorf("failed to resolve beneficiary account: %w", err)
	}
	if account.IFSCCode != ifscCode {
		return nil, ErrIFSCMismatch
	}
	if account.UserID == ownerID && account.Bank == ownerBank {
		return nil, ErrSelfBeneficiary
	}

	beneficiary := &domain.Beneficiary{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		BeneficiaryUserID: account.UserID,
		Name:              name,
		Bank:              account.Bank,
		AccountNumber:     accountNumber,
		IFSCCode:          ifscCode,
		TransferLimit:     limit,
	}
	if err := s.repo.CreateBeneficiary(ctx, beneficiary); err != nil {
		return nil, fmt.Errorf("failed to create beneficiary: %w", err)
	}

	activeFrom := time.Now().UTC().Add(s.coolingWindow).Format(mailer.TimestampLayout)
	subject, body := mailer.BeneficiaryAdded(name, accountNumber, activeFrom)
	s.sendOwnerEmail(ownerID, subject, body)

	return beneficiary, nil
}

// UpdateBeneficiaryLimit sets a new per-transfer limit. The store touches
// updated_at, which restarts the cooling window for the eligible listing.
func (s *Service) UpdateBeneficiaryLimit(ctx context.Context, ownerID, beneficiaryID uuid.UUID, limit decimal.Decimal) (*domain.Beneficiary, error) {
	beneficiary, err := s.repo.UpdateBeneficiaryLimit(ctx, beneficiaryID, ownerID, limit)
	if err != nil {
		return nil, err
	}

	activeFrom := time.Now().UTC().Add(s.coolingWindow).Format(mailer.TimestampLayout)
	subject, body := mailer.TransferLimitUpdated(beneficiary.Name, limit, activeFrom)
	s.sendOwnerEmail(ownerID, subject, body)

	return beneficiary, nil
}

// DeleteBeneficiary removes a beneficiary owned by the caller.
func (s *Service) DeleteBeneficiary(ctx context.Context, ownerID, beneficiaryID uuid.UUID) error {
	return s.repo.DeleteBeneficiary(ctx, beneficiaryID, ownerID)
}

// sendOwnerEmail dispatches a best-effort notification to the owning user.
func (s *Service) sendOwnerEmail(ownerID uuid.UUID, subject, body string) {
	if s.producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		owner, err := s.repo.FindUserByID(ctx, ownerID)
		if err != nil {
			log.Printf("level=warn component=beneficiary msg=\"email skipped; owner lookup failed\" owner_id=%s err=%v", ownerID, err)
			return
		}
		event := rabbitmq.EmailEvent{To: owner.Email, Subject: subject, Body: body, Timestamp: time.Now().UTC()}
		if err := s.producer.PublishEmail(ctx, event); err != nil {
			log.Printf("level=warn component=beneficiary msg=\"email publish failed\" owner_id=%s err=%v", ownerID, err)
		}
	}()
}
