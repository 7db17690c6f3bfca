package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrSkillNotFound          = errors.New("user skill not found")
)

// SessionEvent is emitted after a transition commits. Dispatch is
// best-effort and must never fail or roll back the transition.
type SessionEvent struct {
	Type       string         `json:"type"`
	Session    models.Session `json:"session"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Notifier interface {
	Dispatch(event SessionEvent)
}

type userSkillReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserSkill, error)
}

type SessionService struct {
	db            *pgxpool.Pool
	sessionRepo   *repository.SessionRepository
	creditRepo    *repository.CreditRepository
	userSkillRepo userSkillReader
	notifier      Notifier
	log           *logrus.Logger
	now           func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	creditRepo *repository.CreditRepository,
	userSkillRepo userSkillReader,
	notifier Notifier,
	log *logrus.Logger,
) *SessionService {
	return &SessionService{
		db:            db,
		sessionRepo:   sessionRepo,
		creditRepo:    creditRepo,
		userSkillRepo: userSkillRepo,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

type CreateSessionInput struct {
	UserSkillID    int64
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	IsOnline       bool
	Location       *string
}

// CreateSession books an offered user skill for a student. The session
// row and the credit hold land in one transaction: a failed hold means
// no session.
func (s *SessionService) CreateSession(
	ctx context.Context,
	studentID int64,
	input CreateSessionInput,
) (*models.SessionDetail, error) {
	if input.UserSkillID <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateWindow(s.now().UTC(), input.ScheduledStart, input.ScheduledEnd); err != nil {
		return nil, err
	}

	userSkill, err := s.userSkillRepo.GetByID(ctx, input.UserSkillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	if userSkill.Direction != models.DirectionOffered || !userSkill.IsAvailable {
		return nil, fmt.Errorf("%w: skill is not offered for booking", ErrInvalidInput)
	}
	if userSkill.Skill != nil && !userSkill.Skill.IsActive {
		return nil, fmt.Errorf("%w: skill is no longer active", ErrInvalidInput)
	}

	teacherID := userSkill.UserID
	if teacherID == studentID {
		return nil, fmt.Errorf("%w: cannot book your own skill", ErrInvalidInput)
	}

	cost := sessionCost(input.ScheduledStart, input.ScheduledEnd, userSkill.CreditsPerHour)
	if cost <= 0 {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	ledger := NewLedger(repository.NewCreditRepository(tx))

	// Serializes the student's holds (double-spend) and the teacher's
	// schedule (overlap check) against concurrent bookings.
	if err := advisoryLock(ctx, tx, studentID, teacherID); err != nil {
		return nil, err
	}

	hasConflict, err := txSessionRepo.HasConflict(
		ctx,
		teacherID,
		input.ScheduledStart.UTC(),
		input.ScheduledEnd.UTC(),
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		UserSkillID:    input.UserSkillID,
		TeacherID:      teacherID,
		StudentID:      studentID,
		ScheduledStart: input.ScheduledStart.UTC(),
		ScheduledEnd:   input.ScheduledEnd.UTC(),
		CreditsCost:    cost,
		IsOnline:       input.IsOnline,
		Location:       input.Location,
	})
	if err != nil {
		return nil, err
	}

	if _, err := ledger.Hold(ctx, studentID, cost, session.ID, "session booking"); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.dispatch("session.created", session)
	return s.detail(ctx, session)
}

// ConfirmSession records one party's confirmation. The session flips to
// confirmed only once both flags are true; confirming with false is a
// decline that leaves the session pending.
func (s *SessionService) ConfirmSession(
	ctx context.Context,
	sessionID int64,
	actorID int64,
	confirmed bool,
) (*models.SessionDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actorID != session.TeacherID && actorID != session.StudentID {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionPending {
		return nil, invalidState(session.Status)
	}

	updated, err := txSessionRepo.SetConfirmation(ctx, sessionID, actorID == session.TeacherID, confirmed)
	if err != nil {
		return nil, err
	}

	eventType := "session.confirmation"
	if updated.TeacherConfirmed && updated.StudentConfirmed {
		var link *string
		if updated.IsOnline && updated.MeetingLink == nil {
			generated := meetingLink()
			link = &generated
		}
		updated, err = txSessionRepo.MarkConfirmed(ctx, sessionID, s.now().UTC(), link)
		if err != nil {
			return nil, err
		}
		eventType = "session.confirmed"
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.dispatch(eventType, updated)
	return s.detail(ctx, updated)
}

// CancelSession cancels a pending or confirmed session and releases the
// student's escrowed credits.
func (s *SessionService) CancelSession(
	ctx context.Context,
	sessionID int64,
	actorID int64,
	role string,
	reason string,
) (*models.SessionDetail, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	ledger := NewLedger(repository.NewCreditRepository(tx))

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canActOnSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionPending && session.Status != models.SessionConfirmed {
		return nil, invalidState(session.Status)
	}

	err = ledger.Refund(ctx, session.StudentID, session.CreditsCost, sessionID, "session cancelled: "+reason)
	if err != nil && !errors.Is(err, ErrMissingHold) {
		return nil, err
	}

	updated, err := txSessionRepo.Cancel(ctx, sessionID, reason, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.dispatch("session.cancelled", updated)
	return s.detail(ctx, updated)
}

// CompleteSession marks a confirmed session as completed and pays the
// teacher. The status commit comes first; a payout failure leaves the
// session completed with settlement pending, retried by the settlement
// worker.
func (s *SessionService) CompleteSession(
	ctx context.Context,
	sessionID int64,
	actorID int64,
	role string,
) (*models.SessionDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canActOnSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionConfirmed {
		return nil, invalidState(session.Status)
	}

	updated, err := txSessionRepo.Complete(ctx, sessionID, s.now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidState(session.Status)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	detail, detailErr := s.detail(ctx, updated)
	if err := settleTransfer(ctx, s.db, updated); err != nil {
		s.log.WithError(err).WithField("session_id", updated.ID).
			Warn("session completed but payout transfer failed; settlement pending")
		if detailErr == nil {
			detail.SettlementPending = true
		}
	} else if detailErr == nil {
		// Reload entries so the payout shows up in the response.
		detail, detailErr = s.detail(ctx, updated)
	}

	s.dispatch("session.completed", updated)
	return detail, detailErr
}

// RescheduleSession moves the session window, recomputes the cost and
// adjusts the escrow so held credits always equal credits_cost.
func (s *SessionService) RescheduleSession(
	ctx context.Context,
	sessionID int64,
	actorID int64,
	role string,
	newStart time.Time,
	newEnd time.Time,
) (*models.SessionDetail, error) {
	if err := validateWindow(s.now().UTC(), newStart, newEnd); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txUserSkillRepo := repository.NewUserSkillRepository(tx)
	ledger := NewLedger(repository.NewCreditRepository(tx))

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canActOnSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionPending && session.Status != models.SessionConfirmed {
		return nil, invalidState(session.Status)
	}

	hasConflict, err := txSessionRepo.HasConflictExcludingSession(
		ctx,
		session.TeacherID,
		newStart.UTC(),
		newEnd.UTC(),
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	userSkill, err := txUserSkillRepo.GetByID(ctx, session.UserSkillID)
	if err != nil {
		return nil, err
	}
	newCost := sessionCost(newStart, newEnd, userSkill.CreditsPerHour)
	if newCost <= 0 {
		return nil, ErrInvalidInput
	}
	delta := newCost - session.CreditsCost

	if delta != 0 {
		if err := advisoryLock(ctx, tx, session.StudentID); err != nil {
			return nil, err
		}
	}

	updated, err := txSessionRepo.Reschedule(ctx, sessionID, newStart.UTC(), newEnd.UTC(), newCost, session.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, err
	}

	switch {
	case delta > 0:
		if _, err := ledger.Hold(ctx, session.StudentID, delta, sessionID, "session rescheduled"); err != nil {
			return nil, err
		}
	case delta < 0:
		if err := ledger.ReplaceHolds(ctx, session.StudentID, newCost, sessionID, "session rescheduled"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.dispatch("session.rescheduled", updated)
	return s.detail(ctx, updated)
}

// DisputeSession flags a completed session. Terminal; resolution is
// handled out of band and no ledger entry is touched.
func (s *SessionService) DisputeSession(
	ctx context.Context,
	sessionID int64,
	actorID int64,
	role string,
) (*models.SessionDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canActOnSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionCompleted {
		return nil, invalidState(session.Status)
	}

	updated, err := txSessionRepo.MarkDisputed(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.dispatch("session.disputed", updated)
	return s.detail(ctx, updated)
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canActOnSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return s.detail(ctx, session)
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	filter.ActorID = actorID
	return s.sessionRepo.List(ctx, filter)
}

func (s *SessionService) detail(ctx context.Context, session *models.Session) (*models.SessionDetail, error) {
	entries, err := s.creditRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: *session, Transactions: entries}, nil
}

func (s *SessionService) dispatch(eventType string, session *models.Session) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(SessionEvent{
		Type:       eventType,
		Session:    *session,
		OccurredAt: s.now().UTC(),
	})
}

// settleTransfer pays the teacher for a completed session in its own
// transaction. Idempotent: the ledger skips sessions already paid out.
func settleTransfer(ctx context.Context, db *pgxpool.Pool, session *models.Session) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ledger := NewLedger(repository.NewCreditRepository(tx))
	err = ledger.Transfer(
		ctx,
		session.StudentID,
		session.TeacherID,
		session.CreditsCost,
		session.ID,
		"session payout",
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func advisoryLock(ctx context.Context, tx pgx.Tx, userIDs ...int64) error {
	// Fixed lock order so concurrent bookings cannot deadlock.
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	for _, id := range userIDs {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", id); err != nil {
			return err
		}
	}
	return nil
}

func canActOnSession(role string, actorID int64, session *models.Session) bool {
	if role == "admin" {
		return true
	}
	return session.TeacherID == actorID || session.StudentID == actorID
}

func validateWindow(now time.Time, start time.Time, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidInput)
	}
	if !start.After(now) {
		return fmt.Errorf("%w: start must be in the future", ErrInvalidInput)
	}
	return nil
}

func sessionCost(start time.Time, end time.Time, creditsPerHour float64) float64 {
	return end.Sub(start).Hours() * creditsPerHour
}

func invalidState(status models.SessionStatus) error {
	return fmt.Errorf("%w: session is %s", ErrInvalidStateTransition, status)
}

func meetingLink() string {
	return "https://meet.skillswap.app/" + uuid.NewString()
}
