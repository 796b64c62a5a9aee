package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/realtime"
	"github.com/junho-l/pickup-system/repositories"
)

// StatusService — машина статусов комнаты. Проверяет и личность хоста,
// и допустимость перехода сама, не полагаясь на вызывающий слой.
type StatusService struct {
	roomRepo        repositories.RoomRepository
	participantRepo repositories.ParticipantRepository
	notifications   *NotificationService
	notifier        ChangeNotifier
	logger          *slog.Logger
}

func NewStatusService(
	roomRepo repositories.RoomRepository,
	participantRepo repositories.ParticipantRepository,
	notifications *NotificationService,
	notifier ChangeNotifier,
	logger *slog.Logger,
) *StatusService {
	return &StatusService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		notifications:   notifications,
		notifier:        orNoopNotifier(notifier),
		logger:          logger,
	}
}

// UpdateRoomStatus переводит комнату в новый статус от имени хоста.
// Недопустимые переходы (включая любые попытки покинуть терминальный статус)
// отклоняются с ErrInvalidStatusTransition.
func (s *StatusService) UpdateRoomStatus(ctx context.Context, roomID, callerID int, newStatus models.RoomStatus) error {
	if !newStatus.IsValid() {
		return ErrInvalidRoomStatus
	}

	room, err := s.roomRepo.GetByID(ctx, nil, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to read room: %w", err)
	}
	if room.HostID != callerID {
		return ErrNotRoomHost
	}
	if !room.Status.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	if err := s.roomRepo.UpdateStatus(ctx, nil, roomID, newStatus); err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to update room status: %w", err)
	}

	s.notifyParticipants(ctx, room, newStatus)
	s.notifier.PublishRoomChange(roomID, realtime.EventUpdate)
	return nil
}

// DeleteRoom удаляет комнату. Разрешено только хосту и только после отмены —
// проверка принадлежит сервису, а не экрану.
func (s *StatusService) DeleteRoom(ctx context.Context, roomID, callerID int) error {
	room, err := s.roomRepo.GetByID(ctx, nil, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to read room: %w", err)
	}
	if room.HostID != callerID {
		return ErrNotRoomHost
	}
	if room.Status != models.RoomStatusCancelled {
		return ErrRoomNotCancelled
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.notifier.PublishRoomChange(roomID, realtime.EventDelete)
	return nil
}

// CompleteExpiredRooms — вход планировщика: комнаты с прошедшей датой игры
// доводятся до completed (recruiting сначала закрывается). Единственный путь
// в completed; хосту такой переход не открыт.
func (s *StatusService) CompleteExpiredRooms(ctx context.Context) error {
	now := time.Now()
	rooms, err := s.roomRepo.ListExpired(ctx, nil, now)
	if err != nil {
		return fmt.Errorf("failed to list expired rooms: %w", err)
	}

	for _, room := range rooms {
		if room.Status == models.RoomStatusRecruiting {
			if err := s.roomRepo.UpdateStatus(ctx, nil, room.ID, models.RoomStatusClosed); err != nil {
				s.logger.Error("failed to close expired room",
					slog.Int("room_id", room.ID), slog.Any("error", err))
				continue
			}
		}
		if err := s.roomRepo.UpdateStatus(ctx, nil, room.ID, models.RoomStatusCompleted); err != nil {
			s.logger.Error("failed to complete expired room",
				slog.Int("room_id", room.ID), slog.Any("error", err))
			continue
		}

		s.notifyParticipants(ctx, room, models.RoomStatusCompleted)
		s.notifier.PublishRoomChange(room.ID, realtime.EventUpdate)
		s.logger.Info("room auto-completed", slog.Int("room_id", room.ID))
	}
	return nil
}

// notifyParticipants рассылает уведомления подтверждённым участникам
// о терминальных переходах. Сбой рассылки не отменяет сам переход.
func (s *StatusService) notifyParticipants(ctx context.Context, room *models.Room, newStatus models.RoomStatus) {
	var typ models.NotificationType
	var title string
	switch newStatus {
	case models.RoomStatusCancelled:
		typ, title = models.NotificationRoomCancelled, "Room cancelled"
	case models.RoomStatusCompleted:
		typ, title = models.NotificationRoomCompleted, "Room completed"
	default:
		return
	}

	userIDs, err := s.participantRepo.ListUserIDsByRoom(ctx, room.ID, models.ParticipantStatusApproved)
	if err != nil {
		s.logger.Error("failed to list participants for notification",
			slog.Int("room_id", room.ID), slog.Any("error", err))
		return
	}

	body := room.Title
	for _, userID := range userIDs {
		if err := s.notifications.Notify(ctx, room.ID, userID, typ, title, &body); err != nil {
			s.logger.Error("failed to notify participant",
				slog.Int("room_id", room.ID), slog.Int("user_id", userID), slog.Any("error", err))
		}
	}
}
