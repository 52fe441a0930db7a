package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 20 << 20

// ObjectFileStorage stores multipart uploads in an ObjectStore under
// uuid-named keys.
type ObjectFileStorage struct {
	store      ObjectStore
	presignTTL time.Duration
}

func NewObjectFileStorage(store ObjectStore, presignTTL time.Duration) *ObjectFileStorage {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &ObjectFileStorage{store: store, presignTTL: presignTTL}
}

// SaveFileWithPath uploads fileHeader as prefix/<uuid><ext>. A nil header
// stores nothing and returns an empty key.
func (s *ObjectFileStorage) SaveFileWithPath(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}
	if fileHeader.Size > MaxUploadSize {
		return "", apperrors.NewValidationError("file", fmt.Sprintf("file exceeds the %d MB limit", MaxUploadSize>>20))
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := path.Join(strings.Trim(prefix, "/"), uuid.New().String()+ext)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.store.Put(ctx, key, file, PutObjectOptions{
		Size:        fileHeader.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-name": fileHeader.Filename},
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to upload file")
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("key", key).Msg("File saved successfully")
	return key, nil
}

func (s *ObjectFileStorage) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *ObjectFileStorage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	u, err := s.store.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u, nil
}
