package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/storage"
	"tush00nka/filehub/internal/pubsub"
	"tush00nka/filehub/internal/repository"
)

const dayLayout = "2006-01-02"

type fileService struct {
	fileRepo repository.FileRepository
	storage  storage.Provider
	broker   pubsub.Broker
	log      *slog.Logger
	now      func() time.Time
}

func NewFileService(fileRepo repository.FileRepository, provider storage.Provider, broker pubsub.Broker, log *slog.Logger) FileService {
	return &fileService{
		fileRepo: fileRepo,
		storage:  provider,
		broker:   broker,
		log:      log,
		now:      time.Now,
	}
}

// StorageKey places objects under the owner's prefix: <userID>/<uuid>-<name>.
func StorageKey(userID, filename string) string {
	return fmt.Sprintf("%s/%s-%s", userID, uuid.NewString(), baseName(filename))
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func (s *fileService) Upload(ctx context.Context, owner *model.User, in UploadInput) (*model.File, error) {
	if owner == nil {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}

	key := StorageKey(owner.ID, in.Filename)
	obj, err := s.storage.Upload(ctx, in.Body, key, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	file := &model.File{
		Filename:  in.Filename,
		Mimetype:  in.ContentType,
		Size:      obj.Size,
		Key:       obj.Key,
		UserID:    owner.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		if derr := s.storage.Delete(context.WithoutCancel(ctx), obj.Key); derr != nil {
			s.log.Error("failed to remove orphaned object", "key", obj.Key, "err", derr)
		}
		return nil, fmt.Errorf("save file metadata: %w", err)
	}

	s.log.Info("file uploaded", "user_id", owner.ID, "file_id", file.ID, "size", file.Size)

	if err := s.broker.Publish(ctx, file); err != nil {
		s.log.Warn("failed to publish upload event", "file_id", file.ID, "err", err)
	}

	return file, nil
}

func (s *fileService) ListByUser(ctx context.Context, userID string) ([]*model.File, error) {
	files, err := s.fileRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if files == nil {
		files = []*model.File{}
	}
	return files, nil
}

// Metrics buckets the user's uploads by UTC calendar day, oldest first.
func (s *fileService) Metrics(ctx context.Context, userID string) (*model.UploadMetrics, error) {
	files, err := s.fileRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	metrics := &model.UploadMetrics{UploadsPerDay: []model.DailyUploadCount{}}
	perDay := make(map[string]int)
	for _, f := range files {
		metrics.TotalFiles++
		metrics.TotalStorage += f.Size
		perDay[f.CreatedAt.UTC().Format(dayLayout)]++
	}

	for day, count := range perDay {
		metrics.UploadsPerDay = append(metrics.UploadsPerDay, model.DailyUploadCount{Date: day, Count: count})
	}
	sort.Slice(metrics.UploadsPerDay, func(i, j int) bool {
		return metrics.UploadsPerDay[i].Date < metrics.UploadsPerDay[j].Date
	})

	return metrics, nil
}

func (s *fileService) Delete(ctx context.Context, userID, fileID string) error {
	if _, err := uuid.Parse(fileID); err != nil {
		return ErrFileNotFound
	}

	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("find file: %w", err)
	}
	// Чужие файлы не раскрываем
	if file.UserID != userID {
		return ErrFileNotFound
	}

	if err := s.storage.Delete(ctx, file.Key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("delete object: %w", err)
	}
	if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}

	s.log.Info("file deleted", "user_id", userID, "file_id", fileID)
	return nil
}

func (s *fileService) URL(ctx context.Context, file *model.File) (string, error) {
	return s.storage.PresignGet(ctx, file.Key)
}

func (s *fileService) SubscribeUploads(ctx context.Context, userID string) (<-chan *model.File, error) {
	return s.broker.Subscribe(ctx, userID)
}
