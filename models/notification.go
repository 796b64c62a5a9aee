package models

import "time"

type NotificationType string

const (
	NotificationJoinRequest   NotificationType = "join_request"
	NotificationApproved      NotificationType = "approved"
	NotificationRejected      NotificationType = "rejected"
	NotificationRoomFull      NotificationType = "room_full"
	NotificationRoomCancelled NotificationType = "room_cancelled"
	NotificationRoomCompleted NotificationType = "room_completed"
)

// Notification — внутриприложенческое уведомление пользователя.
type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      *string          `json:"body,omitempty" db:"body"`
	RoomID    *int             `json:"room_id,omitempty" db:"room_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
