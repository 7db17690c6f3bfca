package models

import "time"

// TransactionType is the business reason for a ledger entry.
type TransactionType string

const (
	TransactionEarned     TransactionType = "earned"
	TransactionSpent      TransactionType = "spent"
	TransactionTransfer   TransactionType = "transfer"
	TransactionBonus      TransactionType = "bonus"
	TransactionRefund     TransactionType = "refund"
	TransactionAdjustment TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// CreditTransaction is a single immutable ledger entry. A user's balance
// is always derived by summing their completed entries; BalanceAfter is a
// diagnostic snapshot, never authoritative.
type CreditTransaction struct {
	ID                   int64             `json:"id"`
	UserID               int64             `json:"user_id"`
	Type                 TransactionType   `json:"type"`
	Amount               float64           `json:"amount"`
	BalanceAfter         float64           `json:"balance_after"`
	SessionID            *int64            `json:"session_id"`
	Status               TransactionStatus `json:"status"`
	RelatedTransactionID *int64            `json:"related_transaction_id"`
	Description          *string           `json:"description"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}
