package repository

import (
	"context"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
)

type CreateUserSkillInput struct {
	UserID         int64
	SkillID        int64
	Direction      models.SkillDirection
	Level          models.SkillLevel
	CreditsPerHour float64
	Description    *string
	Requirements   *string
}

type UserSkillRepository struct {
	db DBTX
}

func NewUserSkillRepository(db DBTX) *UserSkillRepository {
	return &UserSkillRepository{db: db}
}

func (r *UserSkillRepository) Create(ctx context.Context, input CreateUserSkillInput) (*models.UserSkill, error) {
	query := `
		INSERT INTO user_skills (user_id, skill_id, direction, level, credits_per_hour, is_available, description, requirements)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		RETURNING id, user_id, skill_id, direction, level, credits_per_hour, is_available, description, requirements, created_at, updated_at
	`
	var userSkill models.UserSkill
	err := r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.SkillID,
		input.Direction,
		input.Level,
		input.CreditsPerHour,
		input.Description,
		input.Requirements,
	).Scan(
		&userSkill.ID,
		&userSkill.UserID,
		&userSkill.SkillID,
		&userSkill.Direction,
		&userSkill.Level,
		&userSkill.CreditsPerHour,
		&userSkill.IsAvailable,
		&userSkill.Description,
		&userSkill.Requirements,
		&userSkill.CreatedAt,
		&userSkill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &userSkill, nil
}

func (r *UserSkillRepository) GetByID(ctx context.Context, id int64) (*models.UserSkill, error) {
	query := `
		SELECT us.id, us.user_id, us.skill_id, us.direction, us.level, us.credits_per_hour,
		       us.is_available, us.description, us.requirements, us.created_at, us.updated_at,
		       s.id, s.name, s.category, s.sub_category, s.is_active, s.created_at, s.updated_at
		FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.id = $1
	`
	var userSkill models.UserSkill
	var skill models.Skill
	err := r.db.QueryRow(ctx, query, id).Scan(
		&userSkill.ID,
		&userSkill.UserID,
		&userSkill.SkillID,
		&userSkill.Direction,
		&userSkill.Level,
		&userSkill.CreditsPerHour,
		&userSkill.IsAvailable,
		&userSkill.Description,
		&userSkill.Requirements,
		&userSkill.CreatedAt,
		&userSkill.UpdatedAt,
		&skill.ID,
		&skill.Name,
		&skill.Category,
		&skill.SubCategory,
		&skill.IsActive,
		&skill.CreatedAt,
		&skill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	userSkill.Skill = &skill
	return &userSkill, nil
}

func (r *UserSkillRepository) ListByUser(ctx context.Context, userID int64) ([]models.UserSkill, error) {
	query := `
		SELECT us.id, us.user_id, us.skill_id, us.direction, us.level, us.credits_per_hour,
		       us.is_available, us.description, us.requirements, us.created_at, us.updated_at,
		       s.id, s.name, s.category, s.sub_category, s.is_active, s.created_at, s.updated_at
		FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = $1
		ORDER BY us.id ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	userSkills := make([]models.UserSkill, 0)
	for rows.Next() {
		var userSkill models.UserSkill
		var skill models.Skill
		if err := rows.Scan(
			&userSkill.ID,
			&userSkill.UserID,
			&userSkill.SkillID,
			&userSkill.Direction,
			&userSkill.Level,
			&userSkill.CreditsPerHour,
			&userSkill.IsAvailable,
			&userSkill.Description,
			&userSkill.Requirements,
			&userSkill.CreatedAt,
			&userSkill.UpdatedAt,
			&skill.ID,
			&skill.Name,
			&skill.Category,
			&skill.SubCategory,
			&skill.IsActive,
			&skill.CreatedAt,
			&skill.UpdatedAt,
		); err != nil {
			return nil, err
		}
		userSkill.Skill = &skill
		userSkills = append(userSkills, userSkill)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return userSkills, nil
}

func (r *UserSkillRepository) SetAvailability(ctx context.Context, id int64, userID int64, available bool) (*models.UserSkill, error) {
	query := `
		UPDATE user_skills
		SET is_available = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, skill_id, direction, level, credits_per_hour, is_available, description, requirements, created_at, updated_at
	`
	var userSkill models.UserSkill
	err := r.db.QueryRow(ctx, query, id, userID, available).Scan(
		&userSkill.ID,
		&userSkill.UserID,
		&userSkill.SkillID,
		&userSkill.Direction,
		&userSkill.Level,
		&userSkill.CreditsPerHour,
		&userSkill.IsAvailable,
		&userSkill.Description,
		&userSkill.Requirements,
		&userSkill.CreatedAt,
		&userSkill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &userSkill, nil
}
