package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	CreateSession(ctx context.Context, studentID int64, input services.CreateSessionInput) (*models.SessionDetail, error)
	ConfirmSession(ctx context.Context, sessionID int64, actorID int64, confirmed bool) (*models.SessionDetail, error)
	CancelSession(ctx context.Context, sessionID int64, actorID int64, role string, reason string) (*models.SessionDetail, error)
	CompleteSession(ctx context.Context, sessionID int64, actorID int64, role string) (*models.SessionDetail, error)
	RescheduleSession(ctx context.Context, sessionID int64, actorID int64, role string, newStart time.Time, newEnd time.Time) (*models.SessionDetail, error)
	DisputeSession(ctx context.Context, sessionID int64, actorID int64, role string) (*models.SessionDetail, error)
	GetSession(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, actorID int64, filter repository.SessionListFilter) ([]models.Session, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	UserSkillID    int64   `json:"user_skill_id"`
	ScheduledStart string  `json:"scheduled_start"`
	ScheduledEnd   string  `json:"scheduled_end"`
	IsOnline       bool    `json:"is_online"`
	Location       *string `json:"location"`
}

type confirmSessionRequest struct {
	Confirmed bool `json:"confirmed"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason"`
}

type rescheduleSessionRequest struct {
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledStart))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_start must be a valid RFC3339 timestamp"})
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledEnd))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_end must be a valid RFC3339 timestamp"})
	}

	detail, err := h.service.CreateSession(c.Context(), actorID, services.CreateSessionInput{
		UserSkillID:    req.UserSkillID,
		ScheduledStart: start,
		ScheduledEnd:   end,
		IsOnline:       req.IsOnline,
		Location:       req.Location,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": detail})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionRole := strings.TrimSpace(c.Query("role"))
	if sessionRole != "" && sessionRole != "teacher" && sessionRole != "student" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role must be teacher or student"})
	}
	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	sessions, err := h.service.ListSessions(c.Context(), actorID, repository.SessionListFilter{
		Role:      sessionRole,
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), actorID, actorRole(c), sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ConfirmSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req confirmSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.ConfirmSession(c.Context(), sessionID, actorID, req.Confirmed)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req cancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.CancelSession(c.Context(), sessionID, actorID, actorRole(c), req.Reason)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.CompleteSession(c.Context(), sessionID, actorID, actorRole(c))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) RescheduleSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req rescheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledStart))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_start must be a valid RFC3339 timestamp"})
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledEnd))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_end must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.RescheduleSession(c.Context(), sessionID, actorID, actorRole(c), start, end)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) DisputeSession(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.DisputeSession(c.Context(), sessionID, actorID, actorRole(c))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func parseActorID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func actorRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}

func parseSessionID(c *fiber.Ctx) (int64, error) {
	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return 0, strconv.ErrSyntax
	}
	return sessionID, nil
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInsufficientCredits):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Insufficient credits",
			"code":  "insufficient_credits",
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested time conflicts with another session"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSkillNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User skill not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
