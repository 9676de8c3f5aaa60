package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Trinaxus/TON.BAND/internal/storage"
	"github.com/Trinaxus/TON.BAND/internal/validation"
)

var ErrStorageDisabled = errors.New("file storage not configured")

// FileService stores blog cover images. It works without storage and then
// rejects uploads with ErrStorageDisabled.
type FileService struct {
	storage storage.Storage
}

func NewFileService(storage storage.Storage) *FileService {
	return &FileService{
		storage: storage,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// UploadCover validates an image upload and returns its public URL.
func (s *FileService) UploadCover(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	if err := validation.ValidateFile(header, validation.ImageConstraints); err != nil {
		return "", invalid(err)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := "blog/covers/" + uuid.New().String() + ext
	url, err := s.storage.Save(ctx, key, file, validation.DetectContentType(head[:n]))
	if err != nil {
		return "", err
	}

	slog.Info("blog cover uploaded", "key", key, "size", header.Size, "original_name", header.Filename)
	return url, nil
}
