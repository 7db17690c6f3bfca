package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestSessionLifecyclePaysTeacherOnce(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 15, 9, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(90 * time.Minute),
		IsOnline:       true,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if detail.Status != models.SessionPending {
		t.Fatalf("expected pending session, got %q", detail.Status)
	}
	if detail.CreditsCost != 15 {
		t.Fatalf("expected cost 15 for 90 minutes at 10/h, got %.2f", detail.CreditsCost)
	}

	// Booking escrows the cost without touching the derived balance.
	assertBalances(t, ctx, ledger, studentID, 50, 35)

	if _, err := service.ConfirmSession(ctx, detail.ID, teacherID, true); err != nil {
		t.Fatalf("ConfirmSession teacher: %v", err)
	}
	confirmed, err := service.ConfirmSession(ctx, detail.ID, studentID, true)
	if err != nil {
		t.Fatalf("ConfirmSession student: %v", err)
	}
	if confirmed.Status != models.SessionConfirmed {
		t.Fatalf("expected confirmed after both parties, got %q", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil {
		t.Fatal("expected confirmed_at to be set")
	}
	if confirmed.MeetingLink == nil || *confirmed.MeetingLink == "" {
		t.Fatal("expected a generated meeting link for an online session")
	}

	completed, err := service.CompleteSession(ctx, detail.ID, teacherID, "user")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if completed.Status != models.SessionCompleted {
		t.Fatalf("expected completed session, got %q", completed.Status)
	}
	if completed.SettlementPending {
		t.Fatal("expected payout to settle inline")
	}

	assertBalances(t, ctx, ledger, studentID, 35, 35)
	assertBalances(t, ctx, ledger, teacherID, 15, 15)

	// Re-running the transfer must not pay the teacher twice.
	if err := settleTransfer(ctx, pool, &completed.Session); err != nil {
		t.Fatalf("settleTransfer retry: %v", err)
	}
	assertBalances(t, ctx, ledger, teacherID, 15, 15)
}

func TestCreateSessionRejectsInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 10)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 16, 9, 0, 0, 0, time.UTC)
	_, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	// The failed hold must roll the session back too.
	sessions, err := service.ListSessions(ctx, studentID, repository.SessionListFilter{Role: "student"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no session after failed booking, got %d", len(sessions))
	}
	assertBalances(t, ctx, ledger, studentID, 10, 10)
}

func TestConfirmSessionDeclineKeepsPending(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 19, 9, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := service.ConfirmSession(ctx, detail.ID, teacherID, true); err != nil {
		t.Fatalf("ConfirmSession teacher: %v", err)
	}

	// Declining records the flag as false and leaves the session pending.
	declined, err := service.ConfirmSession(ctx, detail.ID, studentID, false)
	if err != nil {
		t.Fatalf("ConfirmSession decline: %v", err)
	}
	if declined.Status != models.SessionPending {
		t.Fatalf("expected pending after decline, got %q", declined.Status)
	}
	if !declined.TeacherConfirmed || declined.StudentConfirmed {
		t.Fatalf("expected teacher=true student=false, got teacher=%v student=%v",
			declined.TeacherConfirmed, declined.StudentConfirmed)
	}
	if declined.ConfirmedAt != nil {
		t.Fatal("expected confirmed_at to stay unset after decline")
	}

	// A later change of heart still completes the handshake.
	confirmed, err := service.ConfirmSession(ctx, detail.ID, studentID, true)
	if err != nil {
		t.Fatalf("ConfirmSession after decline: %v", err)
	}
	if confirmed.Status != models.SessionConfirmed {
		t.Fatalf("expected confirmed once both agree, got %q", confirmed.Status)
	}
}

func TestCancelPendingSessionReleasesEscrow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 17, 9, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	assertBalances(t, ctx, ledger, studentID, 50, 35)

	if _, err := service.CancelSession(ctx, detail.ID, studentID, "user", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing reason, got %v", err)
	}

	cancelled, err := service.CancelSession(ctx, detail.ID, studentID, "user", "schedule clash")
	if err != nil {
		t.Fatalf("CancelSession: %v", err)
	}
	if cancelled.Status != models.SessionCancelled {
		t.Fatalf("expected cancelled session, got %q", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "schedule clash" {
		t.Fatalf("expected recorded reason, got %v", cancelled.CancellationReason)
	}

	// Refund restores the full escrowed amount to the available balance.
	assertBalances(t, ctx, ledger, studentID, 50, 50)

	// Cancelled is terminal.
	if _, err := service.CancelSession(ctx, detail.ID, studentID, "user", "again"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on double cancel, got %v", err)
	}
}

func TestCancelRejectedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 20, 9, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := service.ConfirmSession(ctx, detail.ID, teacherID, true); err != nil {
		t.Fatalf("ConfirmSession teacher: %v", err)
	}
	if _, err := service.ConfirmSession(ctx, detail.ID, studentID, true); err != nil {
		t.Fatalf("ConfirmSession student: %v", err)
	}
	if _, err := service.CompleteSession(ctx, detail.ID, teacherID, "user"); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	// Completed is terminal for cancellation; the payout must stay put.
	_, err = service.CancelSession(ctx, detail.ID, studentID, "user", "changed my mind")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition cancelling a completed session, got %v", err)
	}
	assertBalances(t, ctx, ledger, studentID, 40, 40)
	assertBalances(t, ctx, ledger, teacherID, 10, 10)

	current, err := service.GetSession(ctx, studentID, "user", detail.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if current.Status != models.SessionCompleted {
		t.Fatalf("expected session to stay completed, got %q", current.Status)
	}
}

func TestRescheduleAdjustsEscrowWithCost(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))
	creditRepo := repository.NewCreditRepository(pool)

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 3, 18, 9, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	assertBalances(t, ctx, ledger, studentID, 50, 40)

	// Growing the window holds only the delta on top of the original hold.
	longer, err := service.RescheduleSession(ctx, detail.ID, studentID, "user", start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("RescheduleSession longer: %v", err)
	}
	if longer.CreditsCost != 20 {
		t.Fatalf("expected cost 20 after extending, got %.2f", longer.CreditsCost)
	}
	if longer.Version <= detail.Version {
		t.Fatalf("expected version bump, got %d -> %d", detail.Version, longer.Version)
	}
	assertBalances(t, ctx, ledger, studentID, 50, 30)

	// Shrinking replaces the holds so escrow matches the new cost exactly.
	shorter, err := service.RescheduleSession(ctx, detail.ID, studentID, "user", start, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("RescheduleSession shorter: %v", err)
	}
	if shorter.CreditsCost != 5 {
		t.Fatalf("expected cost 5 after shrinking, got %.2f", shorter.CreditsCost)
	}
	assertBalances(t, ctx, ledger, studentID, 50, 45)

	holds, err := creditRepo.PendingHoldsForSession(ctx, studentID, detail.ID)
	if err != nil {
		t.Fatalf("PendingHoldsForSession: %v", err)
	}
	var held float64
	for _, hold := range holds {
		held += hold.Amount
	}
	if held != shorter.CreditsCost {
		t.Fatalf("expected holds to sum to %.2f, got %.2f", shorter.CreditsCost, held)
	}
}

func TestCreateSessionRejectsTeacherOverlap(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	firstStudentID := createTestAccount(t, ctx, pool, "student", 50)
	secondStudentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, firstStudentID, secondStudentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, err := service.CreateSession(ctx, firstStudentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("first CreateSession: %v", err)
	}

	_, err := service.CreateSession(ctx, secondStudentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start.Add(30 * time.Minute),
		ScheduledEnd:   start.Add(90 * time.Minute),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for overlapping booking, got %v", err)
	}
}

func TestDisputeOnlyAfterCompletion(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 4, 2, 12, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := service.DisputeSession(ctx, detail.ID, studentID, "user"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for pending dispute, got %v", err)
	}

	if _, err := service.ConfirmSession(ctx, detail.ID, teacherID, true); err != nil {
		t.Fatalf("ConfirmSession teacher: %v", err)
	}
	if _, err := service.ConfirmSession(ctx, detail.ID, studentID, true); err != nil {
		t.Fatalf("ConfirmSession student: %v", err)
	}
	if _, err := service.CompleteSession(ctx, detail.ID, teacherID, "user"); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	disputed, err := service.DisputeSession(ctx, detail.ID, studentID, "user")
	if err != nil {
		t.Fatalf("DisputeSession: %v", err)
	}
	if disputed.Status != models.SessionDisputed {
		t.Fatalf("expected disputed session, got %q", disputed.Status)
	}

	// Disputing flags the session; the payout stays with the teacher until
	// an admin adjusts it.
	assertBalances(t, ctx, ledger, teacherID, 10, 10)
}

func TestSettleOutstandingPaysStalledSessions(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)
	settlement := NewSettlementService(pool, repository.NewSessionRepository(pool), logrus.New())
	ledger := NewLedger(repository.NewCreditRepository(pool))

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 4, 3, 12, 0, 0, 0, time.UTC)
	detail, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := service.ConfirmSession(ctx, detail.ID, teacherID, true); err != nil {
		t.Fatalf("ConfirmSession teacher: %v", err)
	}
	if _, err := service.ConfirmSession(ctx, detail.ID, studentID, true); err != nil {
		t.Fatalf("ConfirmSession student: %v", err)
	}

	// Complete through the repository alone, simulating a crash between the
	// status commit and the payout transfer.
	if _, err := repository.NewSessionRepository(pool).Complete(ctx, detail.ID, time.Now().UTC()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	assertBalances(t, ctx, ledger, teacherID, 0, 0)

	settled, err := settlement.SettleOutstanding(ctx)
	if err != nil {
		t.Fatalf("SettleOutstanding: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 settled session, got %d", settled)
	}
	assertBalances(t, ctx, ledger, teacherID, 10, 10)
	assertBalances(t, ctx, ledger, studentID, 40, 40)

	settled, err = settlement.SettleOutstanding(ctx)
	if err != nil {
		t.Fatalf("second SettleOutstanding: %v", err)
	}
	if settled != 0 {
		t.Fatalf("expected nothing left to settle, got %d", settled)
	}
}

func TestListSessionsFiltersByRole(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	studentID := createTestAccount(t, ctx, pool, "student", 50)
	teacherID := createTestAccount(t, ctx, pool, "teacher", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, studentID, teacherID) })

	userSkillID := createOfferedSkill(t, ctx, pool, teacherID, 10)

	start := time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)
	booked, err := service.CreateSession(ctx, studentID, CreateSessionInput{
		UserSkillID:    userSkillID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	studentSessions, err := service.ListSessions(ctx, studentID, repository.SessionListFilter{
		Role:      "student",
		Status:    "pending",
		Timeframe: "upcoming",
	})
	if err != nil {
		t.Fatalf("ListSessions student: %v", err)
	}
	if len(studentSessions) != 1 || studentSessions[0].ID != booked.ID {
		t.Fatalf("expected student to see session %d, got %+v", booked.ID, studentSessions)
	}

	teacherSessions, err := service.ListSessions(ctx, teacherID, repository.SessionListFilter{Role: "teacher"})
	if err != nil {
		t.Fatalf("ListSessions teacher: %v", err)
	}
	if len(teacherSessions) != 1 || teacherSessions[0].ID != booked.ID {
		t.Fatalf("expected teacher to see session %d, got %+v", booked.ID, teacherSessions)
	}

	asStudentOfTeacher, err := service.ListSessions(ctx, teacherID, repository.SessionListFilter{Role: "student"})
	if err != nil {
		t.Fatalf("ListSessions teacher-as-student: %v", err)
	}
	if len(asStudentOfTeacher) != 0 {
		t.Fatalf("expected teacher to have no sessions as student, got %d", len(asStudentOfTeacher))
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationSessionService(pool *pgxpool.Pool) *SessionService {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewSessionService(
		pool,
		repository.NewSessionRepository(pool),
		repository.NewCreditRepository(pool),
		repository.NewUserSkillRepository(pool),
		nil,
		log,
	)
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, label string, startingCredits float64) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("session-test-%s-%d@example.com", label, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         "user",
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", label, err)
	}

	if startingCredits > 0 {
		ledger := NewLedger(repository.NewCreditRepository(pool))
		if _, err := ledger.Bonus(ctx, user.ID, startingCredits, "test seed"); err != nil {
			t.Fatalf("seed credits for %s: %v", label, err)
		}
	}

	return user.ID
}

func createOfferedSkill(t *testing.T, ctx context.Context, pool *pgxpool.Pool, teacherID int64, creditsPerHour float64) int64 {
	t.Helper()

	skill := &models.Skill{
		Name:     fmt.Sprintf("session-test-skill-%d", time.Now().UnixNano()),
		Category: "session-test",
	}
	if err := repository.NewSkillRepository(pool).Create(ctx, skill); err != nil {
		t.Fatalf("Create skill: %v", err)
	}

	userSkill, err := repository.NewUserSkillRepository(pool).Create(ctx, repository.CreateUserSkillInput{
		UserID:         teacherID,
		SkillID:        skill.ID,
		Direction:      models.DirectionOffered,
		Level:          models.LevelExpert,
		CreditsPerHour: creditsPerHour,
	})
	if err != nil {
		t.Fatalf("Create user skill: %v", err)
	}

	return userSkill.ID
}

func assertBalances(t *testing.T, ctx context.Context, ledger *Ledger, userID int64, wantBalance float64, wantAvailable float64) {
	t.Helper()

	balance, err := ledger.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance(%d): %v", userID, err)
	}
	if balance != wantBalance {
		t.Fatalf("expected balance %.2f for user %d, got %.2f", wantBalance, userID, balance)
	}

	available, err := ledger.AvailableBalance(ctx, userID)
	if err != nil {
		t.Fatalf("AvailableBalance(%d): %v", userID, err)
	}
	if available != wantAvailable {
		t.Fatalf("expected available %.2f for user %d, got %.2f", wantAvailable, userID, available)
	}
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM credit_transactions WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup credit transactions: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM sessions WHERE teacher_id = ANY($1) OR student_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup sessions: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM user_skills WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup user skills: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM skills WHERE category = 'session-test'"); err != nil {
		t.Fatalf("cleanup skills: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
