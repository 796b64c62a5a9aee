package models

import "time"

const NicknameMaxLength = 20

type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Nickname     string    `json:"nickname" db:"nickname"`
	Region       *string   `json:"region,omitempty" db:"region"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	MannerScore  float64   `json:"manner_score" db:"manner_score"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput — изменяемые поля профиля.
type UpdateProfileInput struct {
	Nickname  string  `json:"nickname"`
	Region    *string `json:"region,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UserStats — счётчики для экрана профиля.
type UserStats struct {
	HostedCount       int `json:"hosted_count"`
	ParticipatedCount int `json:"participated_count"`
}
