/**
 * @description
 * This file defines the transaction ledger record and the transfer request/result
 * DTOs used by the transfer engine and the API layer.
 *
 * @notes
 * - A Transaction is immutable once written except for the Flag/Marked fields,
 *   which only administrative review transitions may change.
 * - Both post-transfer balances are snapshotted on the record so a reviewer can
 *   reconstruct the state of each leg without replaying history.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFlag is the processing state of a transfer attempt.
type TransactionFlag string

const (
	FlagPending   TransactionFlag = "PENDING"
	FlagCompleted TransactionFlag = "COMPLETED"
	FlagFailed    TransactionFlag = "FAILED"
	FlagRejected  TransactionFlag = "REJECTED"
)

// TransactionMarked is the review label attached by fraud screening.
type TransactionMarked string

const (
	MarkedNormal     TransactionMarked = "NORMAL"
	MarkedSuspicious TransactionMarked = "SUSPICIOUS"
	MarkedFraud      TransactionMarked = "FRAUD"
)

// Transaction is the append-only ledger record for one transfer attempt that
// reached the recording stage.
type Transaction struct {
	ID                    uuid.UUID         `json:"id"`
	SenderID              uuid.UUID         `json:"sender_id"`
	ReceiverID            uuid.UUID         `json:"receiver_id"`
	SenderAccountNumber   string            `json:"sender_account_number"`
	ReceiverAccountNumber string            `json:"receiver_account_number"`
	Amount                decimal.Decimal   `json:"amount"`
	Description           string            `json:"description"`
	OTPAttempts           int               `json:"otp_attempts"`
	Flag                  TransactionFlag   `json:"flag"`
	Marked                TransactionMarked `json:"marked"`
	SenderBalanceAfter    decimal.Decimal   `json:"sender_balance_after"`
	ReceiverBalanceAfter  decimal.Decimal   `json:"receiver_balance_after"`
	Timestamp             time.Time         `json:"timestamp"`
}

// TransactionSummary is one line of a user's combined sent/received history.
// Exactly one of Debited/Credited is set depending on the direction.
type TransactionSummary struct {
	ID          uuid.UUID        `json:"id"`
	Description string           `json:"description"`
	Timestamp   time.Time        `json:"timestamp"`
	Credited    *decimal.Decimal `json:"credited,omitempty"`
	Debited     *decimal.Decimal `json:"debited,omitempty"`
	Balance     decimal.Decimal  `json:"balance"`
}

// TransferRequest carries an already-authenticated transfer instruction into
// the engine. SenderUserID and SenderBank come from the verified token, the
// rest from the request body.
type TransferRequest struct {
	SenderUserID          uuid.UUID       `json:"-"`
	SenderBank            string          `json:"-"`
	BeneficiaryID         uuid.UUID       `json:"beneficiary_id"`
	ReceiverAccountNumber string          `json:"receiver_account_number"`
	IFSCCode              string          `json:"ifsc_code"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description"`
	OTPFailureCount       int             `json:"otp_failure_count"`
}

// TransferResult is the tagged outcome returned to the caller. Validation
// rejections set Status=false with a human-readable message; they are values,
// not errors.
type TransferResult struct {
	Status        bool       `json:"status"`
	Message       string     `json:"message"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
}

// Rejected builds a failed result with the given user-facing message.
func Rejected(message string) TransferResult {
	return TransferResult{Status: false, Message: message}
}
