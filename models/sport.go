package models

import "time"

// Sport представляет вид спорта из справочника.
// Справочник ведётся административно, приложение его только читает.
type Sport struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Icon       string    `json:"icon" db:"icon"`
	MinPlayers int       `json:"min_players" db:"min_players"`
	MaxPlayers int       `json:"max_players" db:"max_players"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
