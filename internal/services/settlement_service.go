package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

// SettlementService retries payouts for sessions that completed while
// the credit transfer failed. Transfers are idempotent, so re-running a
// session that settled in the meantime is harmless.
type SettlementService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	log         *logrus.Logger
}

func NewSettlementService(db *pgxpool.Pool, sessionRepo *repository.SessionRepository, log *logrus.Logger) *SettlementService {
	return &SettlementService{db: db, sessionRepo: sessionRepo, log: log}
}

const settlementBatchSize = 50

// SettleOutstanding pays out every completed session whose hold is still
// pending and returns how many settled.
func (s *SettlementService) SettleOutstanding(ctx context.Context) (int, error) {
	sessions, err := s.sessionRepo.ListCompletedUnsettled(ctx, settlementBatchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range sessions {
		session := &sessions[i]
		if err := settleTransfer(ctx, s.db, session); err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).
				Warn("settlement retry failed")
			continue
		}
		settled++
	}

	if settled > 0 {
		s.log.WithField("count", settled).Info("settled outstanding session payouts")
	}
	return settled, nil
}
