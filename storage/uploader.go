package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// AvatarKey — ключ объекта аватара. Временная метка в имени обходит
// кеширование CDN при смене картинки.
func AvatarKey(userID int) string {
	return fmt.Sprintf("avatars/%d/%d.jpg", userID, time.Now().Unix())
}
