package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

// CreditService is the pool-level credit API consumed by the credits UI
// and admin tooling. Mutating operations take the per-user advisory lock
// so they serialize with session holds.
type CreditService struct {
	db         *pgxpool.Pool
	creditRepo *repository.CreditRepository
}

func NewCreditService(db *pgxpool.Pool, creditRepo *repository.CreditRepository) *CreditService {
	return &CreditService{db: db, creditRepo: creditRepo}
}

func (s *CreditService) GetBalance(ctx context.Context, userID int64) (float64, error) {
	return NewLedger(s.creditRepo).Balance(ctx, userID)
}

func (s *CreditService) GetAvailableBalance(ctx context.Context, userID int64) (float64, error) {
	return NewLedger(s.creditRepo).AvailableBalance(ctx, userID)
}

func (s *CreditService) GetTransactionHistory(ctx context.Context, userID int64, limit int, offset int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.creditRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *CreditService) AddBonus(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	return s.adminEntry(ctx, userID, func(ctx context.Context, ledger *Ledger) (*models.CreditTransaction, error) {
		return ledger.Bonus(ctx, userID, amount, description)
	})
}

func (s *CreditService) Deduct(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	return s.adminEntry(ctx, userID, func(ctx context.Context, ledger *Ledger) (*models.CreditTransaction, error) {
		return ledger.Deduct(ctx, userID, amount, description)
	})
}

func (s *CreditService) AdjustBalance(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	return s.adminEntry(ctx, userID, func(ctx context.Context, ledger *Ledger) (*models.CreditTransaction, error) {
		return ledger.Adjust(ctx, userID, amount, description)
	})
}

func (s *CreditService) adminEntry(
	ctx context.Context,
	userID int64,
	op func(ctx context.Context, ledger *Ledger) (*models.CreditTransaction, error),
) (*models.CreditTransaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := advisoryLock(ctx, tx, userID); err != nil {
		return nil, err
	}

	entry, err := op(ctx, NewLedger(repository.NewCreditRepository(tx)))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}
