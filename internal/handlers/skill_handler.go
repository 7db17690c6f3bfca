package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
)

type SkillHandler struct {
	skillRepo     *repository.SkillRepository
	userSkillRepo *repository.UserSkillRepository
}

func NewSkillHandler(skillRepo *repository.SkillRepository, userSkillRepo *repository.UserSkillRepository) *SkillHandler {
	return &SkillHandler{skillRepo: skillRepo, userSkillRepo: userSkillRepo}
}

type createSkillRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SubCategory *string `json:"sub_category"`
}

type createUserSkillRequest struct {
	SkillID        int64   `json:"skill_id"`
	Direction      string  `json:"direction"`
	Level          string  `json:"level"`
	CreditsPerHour float64 `json:"credits_per_hour"`
	Description    *string `json:"description"`
	Requirements   *string `json:"requirements"`
}

func (h *SkillHandler) ListSkills(c *fiber.Ctx) error {
	skills, err := h.skillRepo.List(c.Context(), c.Query("include_inactive") != "true")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list skills"})
	}
	return c.JSON(fiber.Map{"skills": skills})
}

func (h *SkillHandler) CreateSkill(c *fiber.Ctx) error {
	if actorRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createSkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and category are required"})
	}

	skill := &models.Skill{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		SubCategory: req.SubCategory,
	}
	if err := h.skillRepo.Create(c.Context(), skill); err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Skill already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create skill"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"skill": skill})
}

func (h *SkillHandler) DeactivateSkill(c *fiber.Ctx) error {
	if actorRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	skillID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || skillID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid skill id"})
	}

	skill, err := h.skillRepo.Deactivate(c.Context(), skillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Skill not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate skill"})
	}

	return c.JSON(fiber.Map{"skill": skill})
}

func (h *SkillHandler) CreateUserSkill(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createUserSkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	direction := models.SkillDirection(strings.ToLower(strings.TrimSpace(req.Direction)))
	if direction != models.DirectionOffered && direction != models.DirectionRequested {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "direction must be offered or requested"})
	}
	level := models.SkillLevel(strings.ToLower(strings.TrimSpace(req.Level)))
	if level != models.LevelBeginner && level != models.LevelIntermediate && level != models.LevelExpert {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "level must be beginner, intermediate or expert"})
	}
	if req.SkillID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "skill_id must be greater than 0"})
	}
	if direction == models.DirectionOffered && req.CreditsPerHour <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "credits_per_hour must be greater than 0"})
	}

	skill, err := h.skillRepo.GetByID(c.Context(), req.SkillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Skill not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user skill"})
	}
	if !skill.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Skill is no longer active"})
	}

	userSkill, err := h.userSkillRepo.Create(c.Context(), repository.CreateUserSkillInput{
		UserID:         actorID,
		SkillID:        req.SkillID,
		Direction:      direction,
		Level:          level,
		CreditsPerHour: req.CreditsPerHour,
		Description:    req.Description,
		Requirements:   req.Requirements,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User skill already exists for this direction"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user skill"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_skill": userSkill})
}

func (h *SkillHandler) ListUserSkills(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	userSkills, err := h.userSkillRepo.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list user skills"})
	}

	return c.JSON(fiber.Map{"user_skills": userSkills})
}

func (h *SkillHandler) ListOwnSkills(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	userSkills, err := h.userSkillRepo.ListByUser(c.Context(), actorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list user skills"})
	}

	return c.JSON(fiber.Map{"user_skills": userSkills})
}

func (h *SkillHandler) SetUserSkillAvailability(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	userSkillID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userSkillID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user skill id"})
	}

	var req struct {
		Available bool `json:"available"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	userSkill, err := h.userSkillRepo.SetAvailability(c.Context(), userSkillID, actorID, req.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User skill not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user skill"})
	}

	return c.JSON(fiber.Map{"user_skill": userSkill})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
