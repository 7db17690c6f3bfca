package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

type CreditHandler struct {
	service creditApplicationService
}

type creditApplicationService interface {
	GetBalance(ctx context.Context, userID int64) (float64, error)
	GetAvailableBalance(ctx context.Context, userID int64) (float64, error)
	GetTransactionHistory(ctx context.Context, userID int64, limit int, offset int) ([]models.CreditTransaction, error)
	AddBonus(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error)
	Deduct(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error)
	AdjustBalance(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error)
}

func NewCreditHandler(service *services.CreditService) *CreditHandler {
	return &CreditHandler{service: service}
}

type adminCreditRequest struct {
	UserID      int64   `json:"user_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	balance, err := h.service.GetBalance(c.Context(), actorID)
	if err != nil {
		return mapCreditError(c, err)
	}
	available, err := h.service.GetAvailableBalance(c.Context(), actorID)
	if err != nil {
		return mapCreditError(c, err)
	}

	return c.JSON(fiber.Map{
		"balance":           balance,
		"available_balance": available,
	})
}

func (h *CreditHandler) ListTransactions(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page, limit := parsePagination(c)
	entries, err := h.service.GetTransactionHistory(c.Context(), actorID, limit, (page-1)*limit)
	if err != nil {
		return mapCreditError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": entries,
		"page":         page,
		"limit":        limit,
	})
}

func (h *CreditHandler) AddBonus(c *fiber.Ctx) error {
	return h.adminEntry(c, h.service.AddBonus)
}

func (h *CreditHandler) Deduct(c *fiber.Ctx) error {
	return h.adminEntry(c, h.service.Deduct)
}

func (h *CreditHandler) AdjustBalance(c *fiber.Ctx) error {
	return h.adminEntry(c, h.service.AdjustBalance)
}

func (h *CreditHandler) adminEntry(
	c *fiber.Ctx,
	op func(ctx context.Context, userID int64, amount float64, description string) (*models.CreditTransaction, error),
) error {
	if actorRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req adminCreditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.UserID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id must be greater than 0"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description is required"})
	}

	entry, err := op(c.Context(), req.UserID, req.Amount, strings.TrimSpace(req.Description))
	if err != nil {
		return mapCreditError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction": entry})
}

func mapCreditError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInsufficientCredits):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Insufficient credits",
			"code":  "insufficient_credits",
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process credit request"})
	}
}
