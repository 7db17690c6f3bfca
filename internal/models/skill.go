package models

import "time"

type SkillDirection string

const (
	DirectionOffered   SkillDirection = "offered"
	DirectionRequested SkillDirection = "requested"
)

type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelExpert       SkillLevel = "expert"
)

type Skill struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	SubCategory *string   `json:"sub_category"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSkill links a user to a catalog skill, either as something they
// teach (offered) or something they want to learn (requested). Unique
// per (user, skill, direction).
type UserSkill struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	SkillID        int64          `json:"skill_id"`
	Direction      SkillDirection `json:"direction"`
	Level          SkillLevel     `json:"level"`
	CreditsPerHour float64        `json:"credits_per_hour"`
	IsAvailable    bool           `json:"is_available"`
	Description    *string        `json:"description"`
	Requirements   *string        `json:"requirements"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Populated on read
	Skill *Skill `json:"skill,omitempty"`
}
