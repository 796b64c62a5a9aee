package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/repositories"
)

const notificationListLimit = 50

// NotificationService — внутриприложенческие уведомления.
// Доставка на устройство вне области: строка в БД плюс realtime-сигнал,
// клиент перечитывает список сам.
type NotificationService struct {
	repo     repositories.NotificationRepository
	notifier ChangeNotifier
}

func NewNotificationService(repo repositories.NotificationRepository, notifier ChangeNotifier) *NotificationService {
	return &NotificationService{
		repo:     repo,
		notifier: orNoopNotifier(notifier),
	}
}

// Notify создаёт уведомление и сигналит подписчику пользователя.
func (s *NotificationService) Notify(ctx context.Context, roomID, userID int, typ models.NotificationType, title string, body *string) error {
	n := &models.Notification{
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
		RoomID: &roomID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.notifier.PublishNotification(userID)
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, notificationListLimit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id int) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
