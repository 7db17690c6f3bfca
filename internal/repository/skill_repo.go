package repository

import (
	"context"

	"github.com/ahmedev192/skill-swap-sub000/internal/models"
)

type SkillRepository struct {
	db DBTX
}

func NewSkillRepository(db DBTX) *SkillRepository {
	return &SkillRepository{db: db}
}

func (r *SkillRepository) Create(ctx context.Context, skill *models.Skill) error {
	query := `
		INSERT INTO skills (name, category, sub_category, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, skill.Name, skill.Category, skill.SubCategory).
		Scan(&skill.ID, &skill.IsActive, &skill.CreatedAt, &skill.UpdatedAt)
}

func (r *SkillRepository) GetByID(ctx context.Context, id int64) (*models.Skill, error) {
	query := `
		SELECT id, name, category, sub_category, is_active, created_at, updated_at
		FROM skills
		WHERE id = $1
	`
	var skill models.Skill
	err := r.db.QueryRow(ctx, query, id).Scan(
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
	return &skill, nil
}

func (r *SkillRepository) List(ctx context.Context, activeOnly bool) ([]models.Skill, error) {
	query := `
		SELECT id, name, category, sub_category, is_active, created_at, updated_at
		FROM skills
		WHERE ($1 = FALSE OR is_active)
		ORDER BY category ASC, name ASC
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := make([]models.Skill, 0)
	for rows.Next() {
		var skill models.Skill
		if err := rows.Scan(
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
		skills = append(skills, skill)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return skills, nil
}

// Deactivate soft-deletes a skill. Skills referenced by user skills are
// never removed physically.
func (r *SkillRepository) Deactivate(ctx context.Context, id int64) (*models.Skill, error) {
	query := `
		UPDATE skills
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, category, sub_category, is_active, created_at, updated_at
	`
	var skill models.Skill
	err := r.db.QueryRow(ctx, query, id).Scan(
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
	return &skill, nil
}
