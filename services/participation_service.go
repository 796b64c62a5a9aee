package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/realtime"
	"github.com/junho-l/pickup-system/repositories"
)

// ParticipationService — правила вступления и выхода из комнаты.
// Самая критичная логика приложения: именно она охраняет вместимость.
type ParticipationService struct {
	txRunner        repositories.TxRunner
	roomRepo        repositories.RoomRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	notifications   *NotificationService
	notifier        ChangeNotifier
	logger          *slog.Logger
}

func NewParticipationService(
	txRunner repositories.TxRunner,
	roomRepo repositories.RoomRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	notifications *NotificationService,
	notifier ChangeNotifier,
	logger *slog.Logger,
) *ParticipationService {
	return &ParticipationService{
		txRunner:        txRunner,
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		notifier:        orNoopNotifier(notifier),
		logger:          logger,
	}
}

// JoinRoom вступает в комнату от имени userID.
//
// Проверки выполняются по состоянию комнаты, перечитанному под блокировкой
// внутри той же транзакции, что и вставка строки участия; вставка и инкремент
// счётчика атомарны. Инкремент — условный UPDATE (только пока комната в
// recruiting и счётчик меньше предела), поэтому две одновременные заявки на
// последнее место не могут пройти обе: у проигравшей UPDATE не тронет строк
// и транзакция откатится с ErrRoomFull.
func (s *ParticipationService) JoinRoom(ctx context.Context, roomID, userID int) (*models.RoomParticipant, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	participant := &models.RoomParticipant{
		RoomID: roomID,
		UserID: userID,
		Status: models.ParticipantStatusApproved,
	}

	var room *models.Room
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err = s.roomRepo.GetByIDForUpdate(ctx, exec, roomID)
		if err != nil {
			if errors.Is(err, repositories.ErrRoomNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to read room state: %w", err)
		}

		if room.HostID == userID {
			return ErrAlreadyHost
		}
		if room.Status != models.RoomStatusRecruiting {
			return ErrRoomNotRecruiting
		}
		if room.IsFull() {
			return ErrRoomFull
		}

		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrAlreadyJoined
			}
			if errors.Is(err, repositories.ErrParticipantRoomInvalid) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to create participant: %w", err)
		}

		if err := s.roomRepo.IncrementParticipants(ctx, exec, roomID); err != nil {
			if errors.Is(err, repositories.ErrRoomCapacityExceeded) {
				return ErrRoomFull
			}
			return fmt.Errorf("failed to increment participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Побочные эффекты после коммита: уведомление хоста и сигнал подписчикам.
	s.notifyHostAboutJoin(ctx, room, user)
	s.notifier.PublishParticipantChange(roomID, realtime.EventInsert)

	return participant, nil
}

func (s *ParticipationService) notifyHostAboutJoin(ctx context.Context, room *models.Room, joiner *models.User) {
	body := fmt.Sprintf("%s joined %q", joiner.Nickname, room.Title)
	if err := s.notifications.Notify(ctx, room.ID, room.HostID, models.NotificationJoinRequest, "New participant", &body); err != nil {
		s.logger.Error("failed to notify host about join",
			slog.Int("room_id", room.ID), slog.Any("error", err))
	}

	// Счётчик в room был прочитан до инкремента.
	if room.CurrentParticipants+1 >= room.MaxParticipants {
		fullBody := fmt.Sprintf("%q is now full", room.Title)
		if err := s.notifications.Notify(ctx, room.ID, room.HostID, models.NotificationRoomFull, "Room is full", &fullBody); err != nil {
			s.logger.Error("failed to notify host about full room",
				slog.Int("room_id", room.ID), slog.Any("error", err))
		}
	}
}

// GetMembership возвращает строку участия пользователя в комнате —
// экран комнаты показывает по ней состояние кнопки вступления.
func (s *ParticipationService) GetMembership(ctx context.Context, roomID, userID int) (*models.RoomParticipant, error) {
	participant, err := s.participantRepo.FindByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return participant, nil
}

// LeaveRoom удаляет подтверждённую строку участия вызывающего и уменьшает
// счётчик в одной транзакции. Выход без существующего участия — ошибка
// ErrParticipantNotFound; счётчик при этом не трогается, поэтому повторный
// выход безопасен и не может увести счётчик ниже единицы.
func (s *ParticipationService) LeaveRoom(ctx context.Context, roomID, userID int) error {
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		err := s.participantRepo.DeleteByRoomAndUser(ctx, exec, roomID, userID, models.ParticipantStatusApproved)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return fmt.Errorf("failed to delete participant: %w", err)
		}

		if err := s.roomRepo.DecrementParticipants(ctx, exec, roomID); err != nil {
			if errors.Is(err, repositories.ErrRoomNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to decrement participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.PublishParticipantChange(roomID, realtime.EventDelete)
	return nil
}
