package models

// UserSport — интересующий пользователя вид спорта с его уровнем подготовки.
// На пару (user_id, sport_id) допускается не более одной строки; набор
// сохраняется целиком (удалить всё, вставить заново), пустой выбор валиден.
type UserSport struct {
	ID         int `json:"id" db:"id"`
	UserID     int `json:"user_id" db:"user_id"`
	SportID    int `json:"sport_id" db:"sport_id"`
	SkillLevel int `json:"skill_level" db:"skill_level"`
}

// UserSportWithSport — строка выбора вместе со справочной записью.
type UserSportWithSport struct {
	UserSport
	Sport *Sport `json:"sport,omitempty"`
}

// UserSportSelection — элемент формы сохранения выбора.
type UserSportSelection struct {
	SportID    int `json:"sport_id"`
	SkillLevel int `json:"skill_level"`
}
