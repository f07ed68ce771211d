/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * the transfer-service needs. Keeping the engine on an interface decouples the
 * business logic from PostgreSQL and lets tests stub the persistence layer.
 *
 * @dependencies
 * - github.com/google/uuid: Identifier handling.
 * - github.com/shopspring/decimal: Exact money values.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pulsebank/transfer-service/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Account methods
	FindAccountByUserIDAndBank(ctx context.Context, userID uuid.UUID, bank string) (*domain.Account, error)
	FindAccountByNumberAndIFSC(ctx context.Context, accountNumber, ifscCode string) (*domain.Account, error)
	FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// Beneficiary methods
	FindBeneficiaryByID(ctx context.Context, beneficiaryID uuid.UUID) (*domain.Beneficiary, error)
	FindBeneficiaryByOwnerAndAccountNumber(ctx context.Context, ownerID uuid.UUID, accountNumber string) (*domain.Beneficiary, error)
	// FindBeneficiariesByOwner lists an owner's beneficiaries at the given bank
	// (or every other bank when sameBank is false). A non-nil updatedBefore
	// restricts the listing to rows last updated at or before that instant,
	// which is how the cooling window is applied.
	FindBeneficiariesByOwner(ctx context.Context, ownerID uuid.UUID, bank string, sameBank bool, updatedBefore *time.Time) ([]domain.Beneficiary, error)
	CreateBeneficiary(ctx context.Context, b *domain.Beneficiary) error
	UpdateBeneficiaryLimit(ctx context.Context, beneficiaryID, ownerID uuid.UUID, limit decimal.Decimal) (*domain.Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, beneficiaryID, ownerID uuid.UUID) error

	// Transaction methods
	// ApplyTransfer persists both balance legs and the completed transaction
	// record in a single database transaction; either everything commits or
	// nothing does.
	ApplyTransfer(ctx context.Context, senderAccountNumber, receiverAccountNumber string, senderBalance, receiverBalance decimal.Decimal, tx *domain.Transaction) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error
	MarkTransaction(ctx context.Context, transactionID uuid.UUID, marked domain.TransactionMarked) error
	FindTransactionsBySenderAndFlag(ctx context.Context, senderID uuid.UUID, flag domain.TransactionFlag) ([]domain.Transaction, error)
	FindTransactionsByReceiverAndFlag(ctx context.Context, receiverID uuid.UUID, flag domain.TransactionFlag) ([]domain.Transaction, error)
	FindTransactionsByMarked(ctx context.Context, marked domain.TransactionMarked) ([]domain.Transaction, error)
}
