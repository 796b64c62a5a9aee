package services

import (
	"github.com/junho-l/pickup-system/realtime"
)

// ChangeNotifier — публикация realtime-сигналов об изменениях.
// Реализуется realtime.Hub; в тестах подменяется фейком.
type ChangeNotifier interface {
	PublishParticipantChange(roomID int, event realtime.EventType)
	PublishRoomChange(roomID int, event realtime.EventType)
	PublishNotification(userID int)
}

// noopNotifier используется, когда realtime-рассылка не сконфигурирована.
type noopNotifier struct{}

func (noopNotifier) PublishParticipantChange(int, realtime.EventType) {}
func (noopNotifier) PublishRoomChange(int, realtime.EventType)        {}
func (noopNotifier) PublishNotification(int)                          {}

func orNoopNotifier(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
