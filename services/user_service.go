package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/repositories"
	"github.com/junho-l/pickup-system/storage"
	"golang.org/x/sync/errgroup"
)

// UserService — профиль пользователя: данные, аватар, счётчики.
type UserService struct {
	userRepo        repositories.UserRepository
	roomRepo        repositories.RoomRepository
	participantRepo repositories.ParticipantRepository
	uploader        storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	roomRepo repositories.RoomRepository,
	participantRepo repositories.ParticipantRepository,
	uploader storage.FileUploader,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		uploader:        uploader,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int, input models.UpdateProfileInput) (*models.User, error) {
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if utf8.RuneCountInString(nickname) > models.NicknameMaxLength {
		return nil, ErrNicknameTooLong
	}
	input.Nickname = nickname

	user, err := s.userRepo.UpdateProfile(ctx, userID, input)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UploadAvatar загружает картинку в объектное хранилище и сохраняет
// публичный URL в профиле.
func (s *UserService) UploadAvatar(ctx context.Context, userID int, contentType string, data []byte) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key := storage.AvatarKey(userID)
	result, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	updated, err := s.userRepo.UpdateProfile(ctx, userID, models.UpdateProfileInput{
		Nickname:  user.Nickname,
		Region:    user.Region,
		AvatarURL: &result.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}
	updated.PasswordHash = ""
	return updated, nil
}

// GetStats — счётчики экрана профиля: создано комнат и участий.
// Обе выборки независимы и идут параллельно.
func (s *UserService) GetStats(ctx context.Context, userID int) (*models.UserStats, error) {
	var stats models.UserStats

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.HostedCount, err = s.roomRepo.CountByHost(gCtx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ParticipatedCount, err = s.participantRepo.CountByUser(gCtx, userID, models.ParticipantStatusApproved)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return &stats, nil
}
