/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed for accounts, beneficiaries, users, and the
 * append-only transaction ledger.
 *
 * @notes
 * - Money columns are NUMERIC(15,2). Values cross the wire as text and are
 *   parsed into decimal.Decimal so no floating point is involved at any point.
 * - ApplyTransfer is the only write path that touches two balances; it runs
 *   inside one pgx transaction with SELECT ... FOR UPDATE on both rows.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pulsebank/transfer-service/internal/domain"
	"github.com/shopspring/decimal"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a user by their id.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, first_name, last_name, email FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

const accountColumns = `id, user_id, bank, account_number, ifsc_code, balance::text, status, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account    domain.Account
		balanceStr string
		status     string
	)
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Bank,
		&account.AccountNumber,
		&account.IFSCCode,
		&balanceStr,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance for account %s: %w", account.AccountNumber, err)
	}
	account.Balance = balance
	account.Status = domain.AccountStatus(status)
	return &account, nil
}

// FindAccountByUserIDAndBank resolves a sender's account from the token identity.
func (r *PostgresRepository) FindAccountByUserIDAndBank(ctx context.Context, userID uuid.UUID, bank string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND bank = $2 ORDER BY created_at LIMIT 1`
	return scanAccount(r.db.QueryRow(ctx, query, userID, bank))
}

// FindAccountByNumberAndIFSC resolves a receiver's account from the request fields.
func (r *PostgresRepository) FindAccountByNumberAndIFSC(ctx context.Context, accountNumber, ifscCode string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 AND ifsc_code = $2`
	return scanAccount(r.db.QueryRow(ctx, query, accountNumber, ifscCode))
}

// FindAccountByNumber retrieves an account by its unique account number.
func (r *PostgresRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.db.QueryRow(ctx, query, accountNumber))
}

const beneficiaryColumns = `id, owner_id, beneficiary_user_id, name, bank, account_number, ifsc_code, transfer_limit::text, created_at, updated_at`

func scanBeneficiary(row pgx.Row) (*domain.Beneficiary, error) {
	var (
		b        domain.Beneficiary
		limitStr string
	)
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.BeneficiaryUserID,
		&b.Name,
		&b.Bank,
		&b.AccountNumber,
		&b.IFSCCode,
		&limitStr,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBeneficiaryNotFound
		}
		return nil, err
	}
	limit, err := decimal.NewFromString(limitStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer limit for beneficiary %s: %w", b.ID, err)
	}
	b.TransferLimit = limit
	return &b, nil
}

// FindBeneficiaryByID retrieves a beneficiary by its id.
func (r *PostgresRepository) FindBeneficiaryByID(ctx context.Context, beneficiaryID uuid.UUID) (*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE id = $1`
	return scanBeneficiary(r.db.QueryRow(ctx, query, beneficiaryID))
}

// FindBeneficiaryByOwnerAndAccountNumber is the duplicate check used when adding.
func (r *PostgresRepository) FindBeneficiaryByOwnerAndAccountNumber(ctx context.Context, ownerID uuid.UUID, accountNumber string) (*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE owner_id = $1 AND account_number = $2`
	return scanBeneficiary(r.db.QueryRow(ctx, query, ownerID, accountNumber))
}

// FindBeneficiariesByOwner lists beneficiaries for an owner, filtered by bank
// relation and optionally by last update time (the cooling window).
func (r *PostgresRepository) FindBeneficiariesByOwner(ctx context.Context, ownerID uuid.UUID, bank string, sameBank bool, updatedBefore *time.Time) ([]domain.Beneficiary, error) {
	bankOp := "="
	if !sameBank {
		bankOp = "<>"
	}
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE owner_id = $1 AND bank ` + bankOp + ` $2`
	args := []interface{}{ownerID, bank}
	if updatedBefore != nil {
		query += ` AND updated_at <= $3`
		args = append(args, *updatedBefore)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

// CreateBeneficiary inserts a new beneficiary row.
func (r *PostgresRepository) CreateBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	query := `
		INSERT INTO beneficiaries (id, owner_id, beneficiary_user_id, name, bank, account_number, ifsc_code, transfer_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		b.ID, b.OwnerID, b.BeneficiaryUserID, b.Name, b.Bank, b.AccountNumber, b.IFSCCode, b.TransferLimit.String(),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// UpdateBeneficiaryLimit sets a new per-transfer limit. Ownership is enforced
// in the predicate; touching updated_at restarts the cooling window.
func (r *PostgresRepository) UpdateBeneficiaryLimit(ctx context.Context, beneficiaryID, ownerID uuid.UUID, limit decimal.Decimal) (*domain.Beneficiary, error) {
	query := `
		UPDATE beneficiaries
		SET transfer_limit = $3::numeric, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + beneficiaryColumns
	return scanBeneficiary(r.db.QueryRow(ctx, query, beneficiaryID, ownerID, limit.String()))
}

// DeleteBeneficiary removes a beneficiary owned by the given user.
func (r *PostgresRepository) DeleteBeneficiary(ctx context.Context, beneficiaryID, ownerID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM beneficiaries WHERE id = $1 AND owner_id = $2`, beneficiaryID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBeneficiaryNotFound
	}
	return nil
}

// ApplyTransfer commits both balance legs and the completed transaction record
// atomically. Both account rows are locked in account-number order, matching
// the engine's in-process lock ordering, and any failure rolls the whole unit
// of work back.
func (r *PostgresRepository) ApplyTransfer(ctx context.Context, senderAccountNumber, receiverAccountNumber string, senderBalance, receiverBalance decimal.Decimal, txRecord *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := senderAccountNumber, receiverAccountNumber
	if second < first {
		first, second = second, first
	}
	lockQuery := `SELECT account_number FROM accounts WHERE account_number = ANY($1) ORDER BY account_number FOR UPDATE`
	rows, err := tx.Query(ctx, lockQuery, []string{first, second})
	if err != nil {
		return fmt.Errorf("failed to lock account rows: %w", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to lock account rows: %w", err)
	}

	updateQuery := `UPDATE accounts SET balance = $2::numeric, updated_at = NOW() WHERE account_number = $1`
	tag, err := tx.Exec(ctx, updateQuery, senderAccountNumber, senderBalance.String())
	if err != nil {
		return fmt.Errorf("failed to update sender balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	tag, err = tx.Exec(ctx, updateQuery, receiverAccountNumber, receiverBalance.String())
	if err != nil {
		return fmt.Errorf("failed to update receiver balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if err := insertTransaction(ctx, tx, txRecord); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	return tx.Commit(ctx)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txRecord *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, sender_id, receiver_id, sender_account_number, receiver_account_number,
			amount, description, otp_attempts, flag, marked, sender_balance_after, receiver_balance_after, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11::numeric, $12::numeric, $13)
	`
	_, err := tx.Exec(ctx, query,
		txRecord.ID,
		txRecord.SenderID,
		txRecord.ReceiverID,
		txRecord.SenderAccountNumber,
		txRecord.ReceiverAccountNumber,
		txRecord.Amount.String(),
		txRecord.Description,
		txRecord.OTPAttempts,
		string(txRecord.Flag),
		string(txRecord.Marked),
		txRecord.SenderBalanceAfter.String(),
		txRecord.ReceiverBalanceAfter.String(),
		txRecord.Timestamp,
	)
	return err
}

// CreateTransaction inserts a transaction record without touching any balance.
// The suspicious-flag path is the only caller.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, txRecord *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertTransaction(ctx, tx, txRecord); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return tx.Commit(ctx)
}

const transactionColumns = `id, sender_id, receiver_id, sender_account_number, receiver_account_number,
	amount::text, description, otp_attempts, flag, marked, sender_balance_after::text, receiver_balance_after::text, timestamp`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t              domain.Transaction
		amountStr      string
		flag, marked   string
		senderAfterStr string
		recvAfterStr   string
	)
	err := row.Scan(
		&t.ID,
		&t.SenderID,
		&t.ReceiverID,
		&t.SenderAccountNumber,
		&t.ReceiverAccountNumber,
		&amountStr,
		&t.Description,
		&t.OTPAttempts,
		&flag,
		&marked,
		&senderAfterStr,
		&recvAfterStr,
		&t.Timestamp,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("invalid amount on transaction %s: %w", t.ID, err)
	}
	if t.SenderBalanceAfter, err = decimal.NewFromString(senderAfterStr); err != nil {
		return nil, fmt.Errorf("invalid sender balance snapshot on transaction %s: %w", t.ID, err)
	}
	if t.ReceiverBalanceAfter, err = decimal.NewFromString(recvAfterStr); err != nil {
		return nil, fmt.Errorf("invalid receiver balance snapshot on transaction %s: %w", t.ID, err)
	}
	t.Flag = domain.TransactionFlag(flag)
	t.Marked = domain.TransactionMarked(marked)
	return &t, nil
}

// FindTransactionByID retrieves a single transaction.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, transactionID))
}

// DeleteTransaction removes a transaction record. Only the suspicious-review
// supersede path calls this; the ledger is otherwise append-only.
func (r *PostgresRepository) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// MarkTransaction updates the review label on a transaction.
func (r *PostgresRepository) MarkTransaction(ctx context.Context, transactionID uuid.UUID, marked domain.TransactionMarked) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET marked = $2 WHERE id = $1`, transactionID, string(marked))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PostgresRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// FindTransactionsBySenderAndFlag lists a user's outgoing transactions with the given flag.
func (r *PostgresRepository) FindTransactionsBySenderAndFlag(ctx context.Context, senderID uuid.UUID, flag domain.TransactionFlag) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE sender_id = $1 AND flag = $2 ORDER BY timestamp DESC`
	return r.queryTransactions(ctx, query, senderID, string(flag))
}

// FindTransactionsByReceiverAndFlag lists a user's incoming transactions with the given flag.
func (r *PostgresRepository) FindTransactionsByReceiverAndFlag(ctx context.Context, receiverID uuid.UUID, flag domain.TransactionFlag) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE receiver_id = $1 AND flag = $2 ORDER BY timestamp DESC`
	return r.queryTransactions(ctx, query, receiverID, string(flag))
}

// FindTransactionsByMarked lists transactions by review label, newest first.
func (r *PostgresRepository) FindTransactionsByMarked(ctx context.Context, marked domain.TransactionMarked) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE marked = $1 ORDER BY timestamp DESC`
	return r.queryTransactions(ctx, query, string(marked))
}
