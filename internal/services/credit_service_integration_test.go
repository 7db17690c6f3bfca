package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

func TestCreditServiceAdminOperations(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := NewCreditService(pool, repository.NewCreditRepository(pool))

	userID := createTestAccount(t, ctx, pool, "credit", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, userID) })

	bonus, err := service.AddBonus(ctx, userID, 25, "welcome grant")
	if err != nil {
		t.Fatalf("AddBonus: %v", err)
	}
	if bonus.Type != models.TransactionBonus || bonus.Status != models.TransactionCompleted {
		t.Fatalf("unexpected bonus entry: %+v", bonus)
	}

	if _, err := service.Deduct(ctx, userID, 10, "penalty"); err != nil {
		t.Fatalf("Deduct: %v", err)
	}

	adjustment, err := service.AdjustBalance(ctx, userID, -5, "support correction")
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if adjustment.Type != models.TransactionAdjustment {
		t.Fatalf("expected adjustment entry, got %q", adjustment.Type)
	}

	balance, err := service.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10 after bonus/deduct/adjust, got %.2f", balance)
	}
}

func TestCreditServiceDeductRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := NewCreditService(pool, repository.NewCreditRepository(pool))

	userID := createTestAccount(t, ctx, pool, "credit", 10)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, userID) })

	_, err := service.Deduct(ctx, userID, 50, "too much")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	balance, err := service.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance untouched at 10, got %.2f", balance)
	}
}

func TestCreditServiceHistoryIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := NewCreditService(pool, repository.NewCreditRepository(pool))

	userID := createTestAccount(t, ctx, pool, "credit", 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, userID) })

	if _, err := service.AddBonus(ctx, userID, 5, "first"); err != nil {
		t.Fatalf("AddBonus first: %v", err)
	}
	if _, err := service.AddBonus(ctx, userID, 7, "second"); err != nil {
		t.Fatalf("AddBonus second: %v", err)
	}

	entries, err := service.GetTransactionHistory(ctx, userID, 20, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Amount != 7 || entries[1].Amount != 5 {
		t.Fatalf("expected newest-first ordering, got %+v", entries)
	}
}
