package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
)

const sessionColumns = `id, user_skill_id, teacher_id, student_id, scheduled_start, scheduled_end,
	actual_start, actual_end, credits_cost, status, teacher_confirmed, student_confirmed,
	confirmed_at, cancelled_at, cancellation_reason, is_online, location, meeting_link,
	version, created_at, updated_at`

type CreateSessionInput struct {
	UserSkillID    int64
	TeacherID      int64
	StudentID      int64
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	CreditsCost    float64
	IsOnline       bool
	Location       *string
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.UserSkillID,
		&session.TeacherID,
		&session.StudentID,
		&session.ScheduledStart,
		&session.ScheduledEnd,
		&session.ActualStart,
		&session.ActualEnd,
		&session.CreditsCost,
		&session.Status,
		&session.TeacherConfirmed,
		&session.StudentConfirmed,
		&session.ConfirmedAt,
		&session.CancelledAt,
		&session.CancellationReason,
		&session.IsOnline,
		&session.Location,
		&session.MeetingLink,
		&session.Version,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (user_skill_id, teacher_id, student_id, scheduled_start, scheduled_end, credits_cost, status, is_online, location)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8)
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.UserSkillID,
		input.TeacherID,
		input.StudentID,
		input.ScheduledStart,
		input.ScheduledEnd,
		input.CreditsCost,
		input.IsOnline,
		input.Location,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	args := []any{filter.ActorID}
	whereParts := []string{"(teacher_id = $1 OR student_id = $1)"}
	switch filter.Role {
	case "teacher":
		whereParts = []string{"teacher_id = $1"}
	case "student":
		whereParts = []string{"student_id = $1"}
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "scheduled_end > NOW()")
	case "past":
		whereParts = append(whereParts, "scheduled_end <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_start ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// SetConfirmation flips a single party's confirmation flag. Each party
// writes only its own column so two concurrent confirmations cannot lose
// an update.
func (r *SessionRepository) SetConfirmation(ctx context.Context, sessionID int64, asTeacher bool, confirmed bool) (*models.Session, error) {
	column := "student_confirmed"
	if asTeacher {
		column = "teacher_confirmed"
	}
	query := fmt.Sprintf(`
		UPDATE sessions
		SET %s = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, column, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, confirmed))
}

// MarkConfirmed promotes a pending session to confirmed, but only if both
// parties have confirmed. Returns pgx.ErrNoRows otherwise.
func (r *SessionRepository) MarkConfirmed(ctx context.Context, sessionID int64, confirmedAt time.Time, meetingLink *string) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'confirmed', confirmed_at = $2, meeting_link = COALESCE($3, meeting_link),
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND teacher_confirmed AND student_confirmed
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, confirmedAt, meetingLink))
}

func (r *SessionRepository) Cancel(ctx context.Context, sessionID int64, reason string, cancelledAt time.Time) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, cancelledAt, reason))
}

func (r *SessionRepository) Complete(ctx context.Context, sessionID int64, actualEnd time.Time) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'completed', actual_end = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, actualEnd))
}

func (r *SessionRepository) MarkDisputed(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'disputed', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// Reschedule moves the session window and replaces the credit cost. The
// version check makes concurrent reschedules fail instead of racing the
// ledger adjustment; callers retry from a fresh read.
func (r *SessionRepository) Reschedule(
	ctx context.Context,
	sessionID int64,
	start time.Time,
	end time.Time,
	creditsCost float64,
	currentVersion int64,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET scheduled_start = $2, scheduled_end = $3, credits_cost = $4,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $5 AND status IN ('pending', 'confirmed')
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, start, end, creditsCost, currentVersion))
}

func (r *SessionRepository) HasConflict(
	ctx context.Context,
	teacherID int64,
	start time.Time,
	end time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE teacher_id = $1
			  AND status NOT IN ('cancelled', 'completed', 'disputed')
			  AND scheduled_start < $3
			  AND scheduled_end > $2
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, teacherID, start, end).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *SessionRepository) HasConflictExcludingSession(
	ctx context.Context,
	teacherID int64,
	start time.Time,
	end time.Time,
	excludedSessionID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE teacher_id = $1
			  AND id <> $4
			  AND status NOT IN ('cancelled', 'completed', 'disputed')
			  AND scheduled_start < $3
			  AND scheduled_end > $2
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, teacherID, start, end, excludedSessionID).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

// ListCompletedUnsettled returns completed sessions whose student hold is
// still pending, meaning the payout transfer has not gone through.
func (r *SessionRepository) ListCompletedUnsettled(ctx context.Context, limit int) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions s
		WHERE s.status = 'completed'
		  AND EXISTS (
			SELECT 1
			FROM credit_transactions ct
			WHERE ct.session_id = s.id
			  AND ct.user_id = s.student_id
			  AND ct.type = 'spent'
			  AND ct.status = 'pending'
		  )
		ORDER BY s.id ASC
		LIMIT $1
	`, prefixedSessionColumns("s"))

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func prefixedSessionColumns(alias string) string {
	parts := strings.Split(sessionColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
