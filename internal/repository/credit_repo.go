package repository

import (
	"context"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
)

const creditColumns = `id, user_id, type, amount, balance_after, session_id, status,
	related_transaction_id, description, created_at, updated_at`

type InsertTransactionInput struct {
	UserID               int64
	Type                 models.TransactionType
	Amount               float64
	BalanceAfter         float64
	SessionID            *int64
	Status               models.TransactionStatus
	RelatedTransactionID *int64
	Description          string
}

type CreditRepository struct {
	db DBTX
}

func NewCreditRepository(db DBTX) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Insert(ctx context.Context, input InsertTransactionInput) (*models.CreditTransaction, error) {
	query := `
		INSERT INTO credit_transactions (user_id, type, amount, balance_after, session_id, status, related_transaction_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, type, amount, balance_after, session_id, status,
			related_transaction_id, description, created_at, updated_at
	`
	var entry models.CreditTransaction
	err := r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Type,
		input.Amount,
		input.BalanceAfter,
		input.SessionID,
		input.Status,
		input.RelatedTransactionID,
		input.Description,
	).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Type,
		&entry.Amount,
		&entry.BalanceAfter,
		&entry.SessionID,
		&entry.Status,
		&entry.RelatedTransactionID,
		&entry.Description,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CompletedBalance derives the user's balance by summing completed
// entries. Spent entries subtract, everything else adds. There is no
// stored balance column anywhere.
func (r *CreditRepository) CompletedBalance(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'spent' THEN -amount ELSE amount END), 0)
		FROM credit_transactions
		WHERE user_id = $1 AND status = 'completed'
	`
	var balance float64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// PendingSpent is the total currently escrowed for the user's active
// sessions.
func (r *CreditRepository) PendingSpent(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_transactions
		WHERE user_id = $1 AND type = 'spent' AND status = 'pending'
	`
	var held float64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&held); err != nil {
		return 0, err
	}
	return held, nil
}

func (r *CreditRepository) PendingHoldsForSession(ctx context.Context, userID int64, sessionID int64) ([]models.CreditTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_after, session_id, status,
			related_transaction_id, description, created_at, updated_at
		FROM credit_transactions
		WHERE user_id = $1 AND session_id = $2 AND type = 'spent' AND status = 'pending'
		ORDER BY id ASC
	`
	return r.list(ctx, query, userID, sessionID)
}

func (r *CreditRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	transactionID int64,
	currentStatus models.TransactionStatus,
	nextStatus models.TransactionStatus,
) (*models.CreditTransaction, error) {
	query := `
		UPDATE credit_transactions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING id, user_id, type, amount, balance_after, session_id, status,
			related_transaction_id, description, created_at, updated_at
	`
	var entry models.CreditTransaction
	err := r.db.QueryRow(ctx, query, transactionID, currentStatus, nextStatus).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Type,
		&entry.Amount,
		&entry.BalanceAfter,
		&entry.SessionID,
		&entry.Status,
		&entry.RelatedTransactionID,
		&entry.Description,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// HasCompletedEarned reports whether the teacher has already been paid
// out for the session. Complete/Transfer retries key off this.
func (r *CreditRepository) HasCompletedEarned(ctx context.Context, userID int64, sessionID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM credit_transactions
			WHERE user_id = $1 AND session_id = $2 AND type = 'earned' AND status = 'completed'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, sessionID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CreditRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.CreditTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_after, session_id, status,
			related_transaction_id, description, created_at, updated_at
		FROM credit_transactions
		WHERE session_id = $1
		ORDER BY id ASC
	`
	return r.list(ctx, query, sessionID)
}

func (r *CreditRepository) ListByUser(ctx context.Context, userID int64, limit int, offset int) ([]models.CreditTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_after, session_id, status,
			related_transaction_id, description, created_at, updated_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *CreditRepository) list(ctx context.Context, query string, args ...any) ([]models.CreditTransaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.CreditTransaction, 0)
	for rows.Next() {
		var entry models.CreditTransaction
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Type,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.SessionID,
			&entry.Status,
			&entry.RelatedTransactionID,
			&entry.Description,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
