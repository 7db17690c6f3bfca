package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

type stubCreditService struct {
	balance      float64
	balanceErr   error
	available    float64
	availableErr error
	history      []models.CreditTransaction
	historyErr   error
	entry        *models.CreditTransaction
	entryErr     error

	lastUserID      int64
	lastAmount      float64
	lastDescription string
	lastLimit       int
	lastOffset      int
}

func (s *stubCreditService) GetBalance(_ context.Context, userID int64) (float64, error) {
	s.lastUserID = userID
	return s.balance, s.balanceErr
}

func (s *stubCreditService) GetAvailableBalance(_ context.Context, userID int64) (float64, error) {
	s.lastUserID = userID
	return s.available, s.availableErr
}

func (s *stubCreditService) GetTransactionHistory(_ context.Context, userID int64, limit int, offset int) ([]models.CreditTransaction, error) {
	s.lastUserID = userID
	s.lastLimit = limit
	s.lastOffset = offset
	return s.history, s.historyErr
}

func (s *stubCreditService) AddBonus(_ context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	s.lastUserID = userID
	s.lastAmount = amount
	s.lastDescription = description
	return s.entry, s.entryErr
}

func (s *stubCreditService) Deduct(_ context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	s.lastUserID = userID
	s.lastAmount = amount
	s.lastDescription = description
	return s.entry, s.entryErr
}

func (s *stubCreditService) AdjustBalance(_ context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error) {
	s.lastUserID = userID
	s.lastAmount = amount
	s.lastDescription = description
	return s.entry, s.entryErr
}

func newCreditTestApp(handler *CreditHandler, role string, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/credits/balance", handler.GetBalance)
	app.Get("/api/v1/credits/transactions", handler.ListTransactions)
	app.Post("/api/v1/credits/bonus", handler.AddBonus)
	app.Post("/api/v1/credits/deduct", handler.Deduct)
	app.Post("/api/v1/credits/adjust", handler.AdjustBalance)
	return app
}

func TestGetBalanceReturnsBothFigures(t *testing.T) {
	service := &stubCreditService{balance: 50, available: 35}
	app := newCreditTestApp(&CreditHandler{service: service}, "user", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Balance          float64 `json:"balance"`
		AvailableBalance float64 `json:"available_balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Balance != 50 || body.AvailableBalance != 35 {
		t.Fatalf("unexpected balances: %+v", body)
	}
	if service.lastUserID != 42 {
		t.Fatalf("expected user 42, got %d", service.lastUserID)
	}
}

func TestListTransactionsClampsLimit(t *testing.T) {
	service := &stubCreditService{history: []models.CreditTransaction{}}
	app := newCreditTestApp(&CreditHandler{service: service}, "user", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/transactions?page=3&limit=500", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastLimit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", service.lastLimit)
	}
	if service.lastOffset != 200 {
		t.Fatalf("expected offset 200 for page 3, got %d", service.lastOffset)
	}
}

func TestAddBonusRequiresAdminRole(t *testing.T) {
	service := &stubCreditService{}
	app := newCreditTestApp(&CreditHandler{service: service}, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/bonus", strings.NewReader(`{
		"user_id": 7,
		"amount": 25,
		"description": "welcome grant"
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAddBonusForwardsRequest(t *testing.T) {
	service := &stubCreditService{
		entry: &models.CreditTransaction{ID: 1, Type: models.TransactionBonus},
	}
	app := newCreditTestApp(&CreditHandler{service: service}, "admin", "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/bonus", strings.NewReader(`{
		"user_id": 7,
		"amount": 25,
		"description": "welcome grant"
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastUserID != 7 || service.lastAmount != 25 || service.lastDescription != "welcome grant" {
		t.Fatalf("unexpected forwarding: user %d amount %.2f description %q",
			service.lastUserID, service.lastAmount, service.lastDescription)
	}
}

func TestAdjustBalanceRejectsMissingDescription(t *testing.T) {
	service := &stubCreditService{}
	app := newCreditTestApp(&CreditHandler{service: service}, "admin", "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/adjust", strings.NewReader(`{
		"user_id": 7,
		"amount": -5,
		"description": "   "
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeductReportsInsufficientCredits(t *testing.T) {
	service := &stubCreditService{entryErr: services.ErrInsufficientCredits}
	app := newCreditTestApp(&CreditHandler{service: service}, "admin", "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/deduct", strings.NewReader(`{
		"user_id": 7,
		"amount": 500,
		"description": "penalty"
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Code != "insufficient_credits" {
		t.Fatalf("expected insufficient_credits code, got %q", body.Code)
	}
}
