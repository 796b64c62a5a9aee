package models

import "time"

// ParticipantStatus представляет статус заявки участника.
type ParticipantStatus string

const (
	ParticipantStatusPending   ParticipantStatus = "pending"
	ParticipantStatusApproved  ParticipantStatus = "approved"
	ParticipantStatusRejected  ParticipantStatus = "rejected"
	ParticipantStatusCancelled ParticipantStatus = "cancelled"
)

// RoomParticipant — строка участия пользователя в комнате.
// На пару (room_id, user_id) допускается не более одной подтверждённой строки;
// хост строки не имеет, его членство выводится из rooms.host_id.
type RoomParticipant struct {
	ID       int               `json:"id" db:"id"`
	RoomID   int               `json:"room_id" db:"room_id"`
	UserID   int               `json:"user_id" db:"user_id"`
	Status   ParticipantStatus `json:"status" db:"status"`
	JoinedAt time.Time         `json:"joined_at" db:"joined_at"`
}

// ParticipantWithUser — строка участия вместе с профилем пользователя.
type ParticipantWithUser struct {
	RoomParticipant
	User *User `json:"user,omitempty"`
}
