package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/storage"
)

type fakeUploader struct {
	uploadedKey  string
	uploadedType string
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploadedKey = key
	u.uploadedType = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func newUserServiceFixture(users ...models.User) (*roomStore, *fakeUploader, *UserService) {
	store := newRoomStore()
	uploader := &fakeUploader{}
	svc := NewUserService(
		newFakeUserRepo(users...),
		&fakeRoomRepo{store: store},
		&fakeParticipantRepo{store: store},
		uploader,
	)
	return store, uploader, svc
}

func TestUpdateUserProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates nickname and region", func(t *testing.T) {
		_, _, svc := newUserServiceFixture(models.User{ID: 1, Nickname: "old"})

		region := "Mapo-gu"
		user, err := svc.UpdateProfile(ctx, 1, models.UpdateProfileInput{Nickname: "  new name  ", Region: &region})
		if err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		if user.Nickname != "new name" {
			t.Errorf("nickname = %q, want trimmed", user.Nickname)
		}
		if user.Region == nil || *user.Region != "Mapo-gu" {
			t.Errorf("region = %v", user.Region)
		}
	})

	t.Run("nickname validation", func(t *testing.T) {
		_, _, svc := newUserServiceFixture(models.User{ID: 1, Nickname: "old"})

		if _, err := svc.UpdateProfile(ctx, 1, models.UpdateProfileInput{Nickname: "   "}); !errors.Is(err, ErrNicknameRequired) {
			t.Errorf("empty nickname: got %v, want ErrNicknameRequired", err)
		}
		long := strings.Repeat("n", models.NicknameMaxLength+1)
		if _, err := svc.UpdateProfile(ctx, 1, models.UpdateProfileInput{Nickname: long}); !errors.Is(err, ErrNicknameTooLong) {
			t.Errorf("long nickname: got %v, want ErrNicknameTooLong", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, svc := newUserServiceFixture()
		if _, err := svc.UpdateProfile(ctx, 99, models.UpdateProfileInput{Nickname: "x"}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("unknown user: got %v, want ErrUserNotFound", err)
		}
	})
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()
	_, uploader, svc := newUserServiceFixture(models.User{ID: 1, Nickname: "player"})

	user, err := svc.UploadAvatar(ctx, 1, "image/jpeg", []byte("fake image bytes"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if uploader.uploadedType != "image/jpeg" {
		t.Errorf("content type = %q", uploader.uploadedType)
	}
	if !strings.HasPrefix(uploader.uploadedKey, "avatars/1/") {
		t.Errorf("upload key = %q, want avatars/1/ prefix", uploader.uploadedKey)
	}
	if user.AvatarURL == nil || !strings.HasPrefix(*user.AvatarURL, "https://cdn.example.com/avatars/1/") {
		t.Errorf("avatar url = %v", user.AvatarURL)
	}
	if user.Nickname != "player" {
		t.Errorf("nickname = %q, want preserved", user.Nickname)
	}
}

func TestGetUserStats(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newUserServiceFixture(models.User{ID: 1, Nickname: "player"})

	store.addRoom(recruitingRoom(1, 4))
	store.addRoom(recruitingRoom(1, 4))
	other := store.addRoom(recruitingRoom(2, 4))
	store.addParticipant(models.RoomParticipant{RoomID: other.ID, UserID: 1, Status: models.ParticipantStatusApproved})
	store.addParticipant(models.RoomParticipant{RoomID: other.ID, UserID: 1, Status: models.ParticipantStatusRejected})

	stats, err := svc.GetStats(ctx, 1)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.HostedCount != 2 {
		t.Errorf("hosted = %d, want 2", stats.HostedCount)
	}
	if stats.ParticipatedCount != 1 {
		t.Errorf("participated = %d, want 1 (approved only)", stats.ParticipatedCount)
	}
}
