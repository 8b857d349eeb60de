package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PhotoStorage загружает фотографии в Cloudinary и возвращает публичные URL.
type PhotoStorage struct {
	client         *cloudinary.Cloudinary
	folder         string
	maxUploadBytes int64
	timeout        time.Duration
}

// NewPhotoStorage создаёт хранилище фотографий.
func NewPhotoStorage(cloudinaryURL, folder string, maxUploadMB int64, timeout time.Duration) (*PhotoStorage, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("storage: CLOUDINARY_URL не задан")
	}

	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось инициализировать Cloudinary: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PhotoStorage{
		client:         client,
		folder:         folder,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
		timeout:        timeout,
	}, nil
}

// MaxUploadBytes возвращает лимит размера загружаемого файла.
func (s *PhotoStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload отправляет фотографию в Cloudinary и возвращает её публичный URL.
// Один синхронный вызов с таймаутом; ретраев нет.
func (s *PhotoStorage) Upload(ctx context.Context, suggestedName string, data []byte) (string, error) {
	if int64(len(data)) > s.maxUploadBytes {
		return "", fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	publicID := fmt.Sprintf("%s-%d", sanitizeName(suggestedName), time.Now().UnixMilli())
	overwrite := false

	result, err := s.client.Upload.Upload(uploadCtx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		ResourceType: "image",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("storage: загрузка в Cloudinary не удалась: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("storage: Cloudinary не вернул URL (ошибка %s)", result.Error.Message)
	}

	return result.SecureURL, nil
}

// sanitizeName превращает произвольное имя в безопасный public ID.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "").Replace(name)
	if name == "" {
		name = "photo"
	}
	return name
}
