package models

import (
	"strings"
	"time"
)

// RoomStatus представляет статусы комнаты, соответствующие ENUM в БД.
type RoomStatus string

const (
	RoomStatusRecruiting RoomStatus = "recruiting"
	RoomStatusClosed     RoomStatus = "closed"
	RoomStatusCompleted  RoomStatus = "completed"
	RoomStatusCancelled  RoomStatus = "cancelled"
)

// Допустимые переходы статусов. completed и cancelled — терминальные.
// Переход closed -> completed выполняет только планировщик по дате игры,
// хост напрямую завершить комнату не может.
var roomStatusTransitions = map[RoomStatus][]RoomStatus{
	RoomStatusRecruiting: {RoomStatusClosed, RoomStatusCancelled},
	RoomStatusClosed:     {RoomStatusCompleted, RoomStatusCancelled},
}

func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusRecruiting, RoomStatusClosed, RoomStatusCompleted, RoomStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo проверяет переход по таблице переходов.
func (s RoomStatus) CanTransitionTo(next RoomStatus) bool {
	for _, allowed := range roomStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Границы уровня подготовки.
const (
	MinSkillLevel = 0
	MaxSkillLevel = 10
)

func IsValidSkillLevel(level int) bool {
	return level >= MinSkillLevel && level <= MaxSkillLevel
}

// Room представляет комнату (разовую игру с набором участников).
// current_participants учитывает хоста: при создании комнаты счётчик равен 1,
// сам хост строки в room_participants не имеет.
type Room struct {
	ID                  int        `json:"id" db:"id"`
	HostID              int        `json:"host_id" db:"host_id"`
	SportID             int        `json:"sport_id" db:"sport_id"`
	Title               string     `json:"title" db:"title"`
	Description         *string    `json:"description,omitempty" db:"description"`
	LocationName        string     `json:"location_name" db:"location_name"`
	LocationAddress     *string    `json:"location_address,omitempty" db:"location_address"`
	Latitude            *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude           *float64   `json:"longitude,omitempty" db:"longitude"`
	PlayDate            time.Time  `json:"play_date" db:"play_date"`
	MaxParticipants     int        `json:"max_participants" db:"max_participants"`
	CurrentParticipants int        `json:"current_participants" db:"current_participants"`
	CostPerPerson       int        `json:"cost_per_person" db:"cost_per_person"`
	MinSkillLevel       int        `json:"min_skill_level" db:"min_skill_level"`
	MaxSkillLevel       int        `json:"max_skill_level" db:"max_skill_level"`
	ViewCount           int        `json:"view_count" db:"view_count"`
	Status              RoomStatus `json:"status" db:"status"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// MatchesSkillLevel — попадает ли уровень игрока в диапазон комнаты (включительно).
func (r *Room) MatchesSkillLevel(level int) bool {
	return r.MinSkillLevel <= level && level <= r.MaxSkillLevel
}

// IsUpcomingAndRecruiting — комната набирает участников и игра ещё не прошла.
func (r *Room) IsUpcomingAndRecruiting(now time.Time) bool {
	return r.Status == RoomStatusRecruiting && !r.PlayDate.Before(now)
}

// TitleContains — поиск подстроки в названии без учёта регистра.
func (r *Room) TitleContains(query string) bool {
	return strings.Contains(strings.ToLower(r.Title), strings.ToLower(query))
}

func (r *Room) IsFull() bool {
	return r.CurrentParticipants >= r.MaxParticipants
}

// EffectiveParticipants — подтверждённые участники плюс хост.
// Инвариант вместимости проверяется именно по этому значению.
func EffectiveParticipants(approvedRows int) int {
	return approvedRows + 1
}

// RoomSummary — комната с денормализованными видом спорта и хостом (списки).
type RoomSummary struct {
	Room
	Sport *Sport `json:"sport,omitempty"`
	Host  *User  `json:"host,omitempty"`
}

// RoomDetail — комната со всеми строками участников (экран комнаты).
// Контракт возвращает строки любых статусов, фильтрация — забота вызывающего.
type RoomDetail struct {
	RoomSummary
	Participants []ParticipantWithUser `json:"participants"`
}

// MyRooms — комнаты пользователя: созданные им и те, где он участвует.
type MyRooms struct {
	Hosted        []RoomSummary `json:"hosted"`
	Participating []RoomSummary `json:"participating"`
}

// CreateRoomInput — данные формы создания комнаты.
type CreateRoomInput struct {
	SportID         int       `json:"sport_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	LocationName    string    `json:"location_name"`
	LocationAddress *string   `json:"location_address,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	PlayDate        time.Time `json:"play_date"`
	MaxParticipants int       `json:"max_participants"`
	CostPerPerson   int       `json:"cost_per_person"`
	MinSkillLevel   int       `json:"min_skill_level"`
	MaxSkillLevel   int       `json:"max_skill_level"`
}
