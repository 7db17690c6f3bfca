package services

import (
	"context"
	"errors"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrMissingHold         = errors.New("no credit hold for session")
)

// Ledger runs the credit operations backing session transitions. It is
// bound to whatever DBTX its repository was built on, so callers that
// need atomicity with a session update construct it over their own
// transaction:
//
//	ledger := services.NewLedger(repository.NewCreditRepository(tx))
//
// Balances are always derived from entries; no operation ever writes a
// stored balance counter.
type Ledger struct {
	credits *repository.CreditRepository
}

func NewLedger(credits *repository.CreditRepository) *Ledger {
	return &Ledger{credits: credits}
}

// Balance sums the user's completed entries.
func (l *Ledger) Balance(ctx context.Context, userID int64) (float64, error) {
	return l.credits.CompletedBalance(ctx, userID)
}

// AvailableBalance is the completed balance minus credits escrowed for
// active sessions. New holds are checked against this figure.
func (l *Ledger) AvailableBalance(ctx context.Context, userID int64) (float64, error) {
	balance, err := l.credits.CompletedBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	held, err := l.credits.PendingSpent(ctx, userID)
	if err != nil {
		return 0, err
	}
	return balance - held, nil
}

// Hold escrows amount for a session by inserting one pending spent
// entry. The caller must serialize holds per user (advisory lock) so the
// availability check and the insert are atomic against concurrent holds.
func (l *Ledger) Hold(ctx context.Context, userID int64, amount float64, sessionID int64, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	available, err := l.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if available < amount {
		return nil, ErrInsufficientCredits
	}
	return l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:       userID,
		Type:         models.TransactionSpent,
		Amount:       amount,
		BalanceAfter: available - amount,
		SessionID:    &sessionID,
		Status:       models.TransactionPending,
		Description:  description,
	})
}

// Transfer settles a completed session: the student's pending holds are
// realized and the teacher receives one completed earned entry of the
// full amount, cross-linked to the hold. Calling it again for the same
// session is a no-op once the earned entry exists.
func (l *Ledger) Transfer(ctx context.Context, fromUserID int64, toUserID int64, amount float64, sessionID int64, description string) error {
	paid, err := l.credits.HasCompletedEarned(ctx, toUserID, sessionID)
	if err != nil {
		return err
	}
	if paid {
		return nil
	}

	holds, err := l.credits.PendingHoldsForSession(ctx, fromUserID, sessionID)
	if err != nil {
		return err
	}
	if len(holds) == 0 {
		return ErrMissingHold
	}
	for _, hold := range holds {
		if _, err := l.credits.UpdateStatusIfCurrent(ctx, hold.ID, models.TransactionPending, models.TransactionCompleted); err != nil {
			return err
		}
	}

	toBalance, err := l.credits.CompletedBalance(ctx, toUserID)
	if err != nil {
		return err
	}
	_, err = l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:               toUserID,
		Type:                 models.TransactionEarned,
		Amount:               amount,
		BalanceAfter:         toBalance + amount,
		SessionID:            &sessionID,
		Status:               models.TransactionCompleted,
		RelatedTransactionID: &holds[0].ID,
		Description:          description,
	})
	return err
}

// Refund reverses a session's escrow on cancellation. The holds are
// realized and a completed refund entry of the same amount is inserted,
// so the derived balance is unchanged while the available balance rises
// by exactly the held amount.
func (l *Ledger) Refund(ctx context.Context, userID int64, amount float64, sessionID int64, description string) error {
	holds, err := l.credits.PendingHoldsForSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if len(holds) == 0 {
		return ErrMissingHold
	}
	for _, hold := range holds {
		if _, err := l.credits.UpdateStatusIfCurrent(ctx, hold.ID, models.TransactionPending, models.TransactionCompleted); err != nil {
			return err
		}
	}

	balance, err := l.credits.CompletedBalance(ctx, userID)
	if err != nil {
		return err
	}
	_, err = l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:               userID,
		Type:                 models.TransactionRefund,
		Amount:               amount,
		BalanceAfter:         balance + amount,
		SessionID:            &sessionID,
		Status:               models.TransactionCompleted,
		RelatedTransactionID: &holds[0].ID,
		Description:          description,
	})
	return err
}

// ReplaceHolds cancels a session's current holds and escrows newAmount
// in a single fresh hold. Used when a reschedule shrinks the price: the
// hold sum must track credits_cost exactly.
func (l *Ledger) ReplaceHolds(ctx context.Context, userID int64, newAmount float64, sessionID int64, description string) error {
	holds, err := l.credits.PendingHoldsForSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if len(holds) == 0 {
		return ErrMissingHold
	}
	for _, hold := range holds {
		if _, err := l.credits.UpdateStatusIfCurrent(ctx, hold.ID, models.TransactionPending, models.TransactionCancelled); err != nil {
			return err
		}
	}
	_, err = l.Hold(ctx, userID, newAmount, sessionID, description)
	return err
}

// Bonus credits a user outside any session.
func (l *Ledger) Bonus(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	balance, err := l.credits.CompletedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:       userID,
		Type:         models.TransactionBonus,
		Amount:       amount,
		BalanceAfter: balance + amount,
		Status:       models.TransactionCompleted,
		Description:  description,
	})
}

// Deduct debits a user outside any session. Fails when the derived
// balance does not cover the amount.
func (l *Ledger) Deduct(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	balance, err := l.credits.CompletedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, ErrInsufficientCredits
	}
	return l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:       userID,
		Type:         models.TransactionSpent,
		Amount:       amount,
		BalanceAfter: balance - amount,
		Status:       models.TransactionCompleted,
		Description:  description,
	})
}

// Adjust applies a signed administrative correction.
func (l *Ledger) Adjust(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	if amount == 0 {
		return nil, ErrInvalidInput
	}
	balance, err := l.credits.CompletedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.credits.Insert(ctx, repository.InsertTransactionInput{
		UserID:       userID,
		Type:         models.TransactionAdjustment,
		Amount:       amount,
		BalanceAfter: balance + amount,
		Status:       models.TransactionCompleted,
		Description:  description,
	})
}
