package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации при создании комнаты
	ErrValidationFailed        = errors.New("validation failed")
	ErrRoomTitleRequired       = errors.New("room title is required")
	ErrRoomLocationRequired    = errors.New("room location name is required")
	ErrRoomPlayDateInPast      = errors.New("room play date must be in the future")
	ErrRoomInvalidCapacity     = errors.New("room max participants must be at least 2")
	ErrRoomInvalidSkillRange   = errors.New("room skill range is invalid (each 0-10, min <= max)")
	ErrRoomInvalidCost         = errors.New("room cost per person must not be negative")
	ErrRoomSportInactive       = errors.New("sport is not active")
	ErrNicknameRequired        = errors.New("nickname is required")
	ErrNicknameTooLong         = errors.New("nickname must be at most 20 characters")
	ErrInvalidSkillLevel       = errors.New("skill level must be between 0 and 10")
	ErrPasswordTooShort        = errors.New("password is too short")

	// Бизнес-правила вступления в комнату: окончательные отказы, не ретраятся
	ErrAlreadyHost       = errors.New("host is already counted as a participant of the room")
	ErrAlreadyJoined     = errors.New("user has already joined this room")
	ErrRoomNotRecruiting = errors.New("room is not recruiting")
	ErrRoomFull          = errors.New("room is full")

	// Машина статусов комнаты
	ErrInvalidStatusTransition = errors.New("invalid room status transition")
	ErrInvalidRoomStatus       = errors.New("invalid room status provided")
	ErrRoomNotCancelled        = errors.New("room can be deleted only after it is cancelled")

	// Ошибки авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotRoomHost          = errors.New("operation allowed only for the room host")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")

	// Ошибки, специфичные для сущностей (дают больше контекста, чем ErrNotFound)
	ErrUserNotFound        = errors.New("user not found")
	ErrSportNotFound       = errors.New("sport not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant record not found")
)
