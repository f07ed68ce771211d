/**
 * @description
 * This file contains the core business logic of the transfer-service: the
 * transfer engine. `Execute` takes a validated, authenticated transfer request
 * through beneficiary validation, account resolution, pairwise locking, the
 * atomic balance mutation, ledger recording, and notification dispatch. The
 * administrative review transitions over suspicious transactions live here too.
 *
 * Key properties:
 * - Validation rejections are returned as TransferResult values, never errors.
 * - Persistence failures propagate as errors so the unit of work rolls back.
 * - Balances are only mutated while both ordered account locks are held.
 * - Notifications are fire-and-forget; a broker failure never affects a
 *   committed transfer.
 *
 * @dependencies
 * - github.com/google/uuid: Transaction identifiers.
 * - github.com/shopspring/decimal: Exact money arithmetic.
 * - internal/domain, internal/store: Domain models and data access.
 * - internal/mailer, pkg/rabbitmq: Notification templates and event dispatch.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pulsebank/transfer-service/internal/domain"
	"github.com/pulsebank/transfer-service/internal/mailer"
	"github.com/pulsebank/transfer-service/internal/store"
	"github.com/pulsebank/transfer-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidBeneficiary      = "Invalid beneficiary or limit exceeded"
	msgSenderAccountNotFound   = "Sender account not found"
	msgReceiverAccountNotFound = "Receiver account not found"
	msgInsufficientBalance     = "Insufficient balance"
	msgInsufficientAfterLock   = "Insufficient balance after locking"
	msgSameAccount             = "Sender and receiver account must differ"
	msgAmountNotPositive       = "Transfer amount must be positive"
	msgSuspiciousOTP           = "Transaction suspicious: Multiple incorrect OTP attempts"
	msgRateLimited             = "Too many transfer attempts, please try again shortly"
	msgSuccess                 = "Transaction successful"

	suspiciousAnnotation = "Multiple incorrect otp attempts"
)

// RateLimiter is the contract for the distributed transfer rate limiter.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for transfers.
type Service struct {
	repo           store.Repository
	producer       rabbitmq.Publisher
	locks          *lockArena
	coolingWindow  time.Duration
	maxOTPAttempts int

	rateLimiter       RateLimiter
	transferRateLimit int
}

// NewService creates a new transfer service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, coolingWindow time.Duration, maxOTPAttempts int) *Service {
	return &Service{
		repo:           repo,
		producer:       producer,
		locks:          newLockArena(),
		coolingWindow:  coolingWindow,
		maxOTPAttempts: maxOTPAttempts,
	}
}

// SetRateLimiter enables per-user transfer rate limiting. The limiter is
// fail-open: limiter errors are logged and the transfer proceeds.
func (s *Service) SetRateLimiter(limiter RateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.transferRateLimit = perMinute
}

// Execute runs one transfer attempt through the full state machine.
func (s *Service) Execute(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	if s.rateLimiter != nil && s.transferRateLimit > 0 {
		count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, "transfer", req.SenderUserID.String(), s.transferRateLimit, time.Minute)
		if err != nil {
			log.Printf("level=warn component=transfer_engine msg=\"rate limiter unavailable; allowing transfer\" user_id=%s err=%v", req.SenderUserID, err)
		} else if count > s.transferRateLimit {
			return domain.Rejected(msgRateLimited), nil
		}
	}

	if req.Amount.Sign() <= 0 {
		return domain.Rejected(msgAmountNotPositive), nil
	}

	// 1. Validate beneficiary and per-transfer limit.
	beneficiary, err := s.ValidateBeneficiary(ctx, req.SenderUserID, req.BeneficiaryID, req.Amount)
	if err != nil {
		return domain.TransferResult{}, err
	}
	if beneficiary == nil {
		return domain.Rejected(msgInvalidBeneficiary), nil
	}

	// 2. Resolve the sender's account from the token identity.
	sender, err := s.repo.FindAccountByUserIDAndBank(ctx, req.SenderUserID, req.SenderBank)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return domain.Rejected(msgSenderAccountNotFound), nil
		}
		return domain.TransferResult{}, fmt.Errorf("failed to resolve sender account: %w", err)
	}

	// 3. Fast-path balance check before taking any locks.
	if sender.Balance.LessThan(req.Amount) {
		return domain.Rejected(msgInsufficientBalance), nil
	}

	// 4. Resolve the receiver's account from the request fields.
	receiver, err := s.repo.FindAccountByNumberAndIFSC(ctx, req.ReceiverAccountNumber, req.IFSCCode)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return domain.Rejected(msgReceiverAccountNotFound), nil
		}
		return domain.TransferResult{}, fmt.Errorf("failed to resolve receiver account: %w", err)
	}

	if sender.AccountNumber == receiver.AccountNumber {
		return domain.Rejected(msgSameAccount), nil
	}

	// 5. OTP-abuse short-circuit: record the attempt as suspicious without
	// moving any money, and report success so the caller UI stays calm.
	if req.OTPFailureCount >= s.maxOTPAttempts {
		txRecord := &domain.Transaction{
			ID:                    uuid.New(),
			SenderID:              req.SenderUserID,
			ReceiverID:            receiver.UserID,
			SenderAccountNumber:   sender.AccountNumber,
			ReceiverAccountNumber: receiver.AccountNumber,
			Amount:                req.Amount,
			Description:           req.Description + "\n" + suspiciousAnnotation,
			OTPAttempts:           req.OTPFailureCount,
			Flag:                  domain.FlagPending,
			Marked:                domain.MarkedSuspicious,
			SenderBalanceAfter:    sender.Balance,
			ReceiverBalanceAfter:  receiver.Balance,
			Timestamp:             time.Now().UTC(),
		}
		if err := s.repo.CreateTransaction(ctx, txRecord); err != nil {
			return domain.TransferResult{}, fmt.Errorf("failed to record suspicious transaction: %w", err)
		}
		log.Printf("level=warn component=transfer_engine msg=\"transfer flagged suspicious\" transaction_id=%s sender_id=%s otp_attempts=%d",
			txRecord.ID, req.SenderUserID, req.OTPFailureCount)
		return domain.TransferResult{Status: true, Message: msgSuspiciousOTP, TransactionID: &txRecord.ID}, nil
	}

	// 6-11. Lock, re-check, mutate, record, notify.
	return s.settle(ctx, sender.AccountNumber, receiver.AccountNumber, req.Amount, req.SenderUserID, receiver.UserID, req.Description)
}

// settle performs the locked portion of a transfer: acquire both account
// tokens in order, re-check the sender balance under lock, apply both legs and
// the ledger record atomically, then dispatch notifications. It is shared by
// Execute and MarkNormal.
func (s *Service) settle(ctx context.Context, senderAccountNumber, receiverAccountNumber string, amount decimal.Decimal, senderID, receiverID uuid.UUID, description string) (domain.TransferResult, error) {
	first, second := s.locks.pair(senderAccountNumber, receiverAccountNumber)
	first.Lock()
	defer first.Unlock()
	if second != nil {
		second.Lock()
		defer second.Unlock()
	}

	// Re-read both legs under lock; a concurrent transfer may have changed
	// either balance since the fast-path check.
	sender, err := s.repo.FindAccountByNumber(ctx, senderAccountNumber)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("failed to re-read sender account: %w", err)
	}
	receiver, err := s.repo.FindAccountByNumber(ctx, receiverAccountNumber)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("failed to re-read receiver account: %w", err)
	}

	if sender.Balance.LessThan(amount) {
		// Transient concurrency loss, not an abuse pattern: no record is created.
		return domain.Rejected(msgInsufficientAfterLock), nil
	}

	senderBalance := sender.Balance.Sub(amount)
	receiverBalance := receiver.Balance.Add(amount)

	txRecord := &domain.Transaction{
		ID:                    uuid.New(),
		SenderID:              senderID,
		ReceiverID:            receiverID,
		SenderAccountNumber:   senderAccountNumber,
		ReceiverAccountNumber: receiverAccountNumber,
		Amount:                amount,
		Description:           description,
		Flag:                  domain.FlagCompleted,
		Marked:                domain.MarkedNormal,
		SenderBalanceAfter:    senderBalance,
		ReceiverBalanceAfter:  receiverBalance,
		Timestamp:             time.Now().UTC(),
	}

	if err := s.repo.ApplyTransfer(ctx, senderAccountNumber, receiverAccountNumber, senderBalance, receiverBalance, txRecord); err != nil {
		return domain.TransferResult{}, fmt.Errorf("transfer persistence failed: %w", err)
	}

	log.Printf("level=info component=transfer_engine msg=\"transfer completed\" transaction_id=%s sender_account=%s receiver_account=%s",
		txRecord.ID, senderAccountNumber, receiverAccountNumber)

	s.dispatchTransferEmails(txRecord)

	return domain.TransferResult{Status: true, Message: msgSuccess, TransactionID: &txRecord.ID}, nil
}

// MarkNormal clears a suspicious transaction by re-executing its transfer with
// the stored legs and deleting the superseded record. It returns false, with
// no mutation, when the transaction is not suspicious or a leg cannot be
// resolved.
func (s *Service) MarkNormal(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	txRecord, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			return false, nil
		}
		return false, err
	}
	if txRecord.Marked != domain.MarkedSuspicious {
		return false, nil
	}

	if _, err := s.repo.FindAccountByNumber(ctx, txRecord.SenderAccountNumber); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.repo.FindAccountByNumber(ctx, txRecord.ReceiverAccountNumber); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	result, err := s.settle(ctx, txRecord.SenderAccountNumber, txRecord.ReceiverAccountNumber, txRecord.Amount, txRecord.SenderID, txRecord.ReceiverID, txRecord.Description)
	if err != nil {
		return false, err
	}
	if !result.Status {
		return false, nil
	}

	if err := s.repo.DeleteTransaction(ctx, transactionID); err != nil {
		return false, fmt.Errorf("failed to delete superseded suspicious transaction: %w", err)
	}
	return true, nil
}

// MarkFraud relabels a suspicious transaction as fraud. Terminal, no balance effect.
func (s *Service) MarkFraud(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	txRecord, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			return false, nil
		}
		return false, err
	}
	if txRecord.Marked != domain.MarkedSuspicious {
		return false, nil
	}
	if err := s.repo.MarkTransaction(ctx, transactionID, domain.MarkedFraud); err != nil {
		return false, err
	}
	return true, nil
}

// TransactionsForUser returns the combined sent and received Completed
// transactions for a user as summaries, most recent first.
func (s *Service) TransactionsForUser(ctx context.Context, userID uuid.UUID) ([]domain.TransactionSummary, error) {
	sent, err := s.repo.FindTransactionsBySenderAndFlag(ctx, userID, domain.FlagCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sent transactions: %w", err)
	}
	received, err := s.repo.FindTransactionsByReceiverAndFlag(ctx, userID, domain.FlagCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch received transactions: %w", err)
	}

	summaries := make([]domain.TransactionSummary, 0, len(sent)+len(received))
	for i := range sent {
		t := sent[i]
		amount := t.Amount
		summaries = append(summaries, domain.TransactionSummary{
			ID:          t.ID,
			Description: t.Description,
			Timestamp:   t.Timestamp,
			Debited:     &amount,
			Balance:     t.SenderBalanceAfter,
		})
	}
	for i := range received {
		t := received[i]
		amount := t.Amount
		summaries = append(summaries, domain.TransactionSummary{
			ID:          t.ID,
			Description: t.Description,
			Timestamp:   t.Timestamp,
			Credited:    &amount,
			Balance:     t.ReceiverBalanceAfter,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	return summaries, nil
}

// SuspiciousTransactions lists transactions pending manual review.
func (s *Service) SuspiciousTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.FindTransactionsByMarked(ctx, domain.MarkedSuspicious)
}

// FraudTransactions lists transactions terminally labeled as fraud.
func (s *Service) FraudTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.FindTransactionsByMarked(ctx, domain.MarkedFraud)
}

// dispatchTransferEmails sends the debit and credit alerts for a committed
// transfer. Best effort: failures are logged and never affect the transfer.
func (s *Service) dispatchTransferEmails(txRecord *domain.Transaction) {
	if s.producer == nil {
		return
	}

	record := *txRecord
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		when := record.Timestamp.Format(mailer.TimestampLayout)

		sender, senderErr := s.repo.FindUserByID(ctx, record.SenderID)
		if senderErr != nil {
			log.Printf("level=warn component=transfer_engine msg=\"debit alert skipped; sender lookup failed\" transaction_id=%s err=%v", record.ID, senderErr)
		} else {
			subject, body := mailer.DebitAlert(record.Amount, record.ReceiverAccountNumber, record.SenderBalanceAfter, when)
			if err := s.producer.PublishEmail(ctx, rabbitmq.EmailEvent{To: sender.Email, Subject: subject, Body: body, Timestamp: record.Timestamp}); err != nil {
				log.Printf("level=warn component=transfer_engine msg=\"debit alert publish failed\" transaction_id=%s err=%v", record.ID, err)
			}
		}

		receiver, err := s.repo.FindUserByID(ctx, record.ReceiverID)
		if err != nil {
			log.Printf("level=warn component=transfer_engine msg=\"credit alert skipped; receiver lookup failed\" transaction_id=%s err=%v", record.ID, err)
			return
		}
		senderName := ""
		if senderErr == nil {
			senderName = sender.FirstName + " " + sender.LastName
		}
		subject, body := mailer.CreditAlert(record.Amount, senderName, record.ReceiverBalanceAfter, when)
		if err := s.producer.PublishEmail(ctx, rabbitmq.EmailEvent{To: receiver.Email, Subject: subject, Body: body, Timestamp: record.Timestamp}); err != nil {
			log.Printf("level=warn component=transfer_engine msg=\"credit alert publish failed\" transaction_id=%s err=%v", record.ID, err)
		}
	}()
}
