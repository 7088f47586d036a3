// trainings.go — сервис обучений.
// Владеет переходами владения документами: запись нового документа,
// фиксация в БД, затем удаление старого без гарантии.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
	"github.com/bigkaa/safety-portal/internal/storage"
	"github.com/bigkaa/safety-portal/internal/storage/uploads"
)

// UploadStore — операции менеджера загрузок, нужные сервисам.
type UploadStore interface {
	Accept(ctx context.Context, rawFilename string, content io.Reader) (string, error)
	Remove(ctx context.Context, storedName string) error
	Resolve(ctx context.Context, storedName string) (io.ReadSeekCloser, storage.ObjectInfo, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

// FileInput — прикреплённый к форме документ.
type FileInput struct {
	// Filename — имя файла, присланное клиентом
	Filename string
	Content  io.Reader
}

// TrainingInput — поля формы обучения.
type TrainingInput struct {
	Title string
	// File — новый документ; nil оставляет текущий без изменений
	File *FileInput
}

// TrainingService — сервис обучений.
type TrainingService struct {
	repo    repository.TrainingRepository
	uploads UploadStore
	stats   StatsInvalidator
	clock   Clock
	logger  *slog.Logger
}

// NewTrainingService создаёт сервис обучений.
func NewTrainingService(
	repo repository.TrainingRepository,
	uploadStore UploadStore,
	stats StatsInvalidator,
	clock Clock,
	logger *slog.Logger,
) *TrainingService {
	return &TrainingService{
		repo:    repo,
		uploads: uploadStore,
		stats:   stats,
		clock:   clock,
		logger:  logger.With(slog.String("component", "training_service")),
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: название обучения обязательно", ErrValidation)
	}
	return title, nil
}

// accept сохраняет документ через менеджер загрузок.
func (s *TrainingService) accept(ctx context.Context, f *FileInput) (string, error) {
	name, err := s.uploads.Accept(ctx, f.Filename, f.Content)
	if err != nil {
		if errors.Is(err, uploads.ErrInvalidFileType) || errors.Is(err, uploads.ErrPayloadTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("сохранение документа: %w", err)
	}
	return name, nil
}

// removeBestEffort удаляет документ; ошибка только логируется.
func (s *TrainingService) removeBestEffort(ctx context.Context, storedName, reason string) {
	if err := s.uploads.Remove(ctx, storedName); err != nil {
		s.logger.Warn("Не удалось удалить документ",
			slog.String("stored_name", storedName),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}

// Create создаёт обучение. Документ записывается до вставки строки
// и удаляется, если вставка не удалась.
func (s *TrainingService) Create(ctx context.Context, in TrainingInput) (*model.Training, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	t := &model.Training{Title: title, Date: s.clock.today()}

	if in.File != nil {
		name, err := s.accept(ctx, in.File)
		if err != nil {
			return nil, err
		}
		t.File = &name
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if t.HasFile() {
			s.removeBestEffort(ctx, t.FileName(), "откат создания")
		}
		return nil, mapRepoErr("создание обучения", err)
	}
	invalidate(s.stats)

	s.logger.Info("Обучение создано",
		slog.Int64("id", t.ID),
		slog.String("title", t.Title),
		slog.String("file", t.FileName()),
	)
	return t, nil
}

// Get возвращает обучение по ID.
func (s *TrainingService) Get(ctx context.Context, id int64) (*model.Training, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(fmt.Sprintf("обучение %d", id), err)
	}
	return t, nil
}

// Update меняет название и, если передан новый документ, заменяет его.
// Порядок: запись нового → обновление строки (точка фиксации) →
// удаление старого без гарантии. При ошибке обновления новый документ удаляется.
func (s *TrainingService) Update(ctx context.Context, id int64, in TrainingInput) (*model.Training, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	t.Title = title

	var oldFile string
	if in.File != nil {
		name, err := s.accept(ctx, in.File)
		if err != nil {
			return nil, err
		}
		oldFile = t.FileName()
		t.File = &name
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if in.File != nil {
			s.removeBestEffort(ctx, t.FileName(), "откат обновления")
		}
		return nil, mapRepoErr(fmt.Sprintf("обновление обучения %d", id), err)
	}

	if oldFile != "" {
		s.removeBestEffort(ctx, oldFile, "замена документа")
	}

	s.logger.Info("Обучение обновлено",
		slog.Int64("id", t.ID),
		slog.String("title", t.Title),
		slog.String("file", t.FileName()),
	)
	return t, nil
}

// Delete удаляет обучение, затем его документ без гарантии.
func (s *TrainingService) Delete(ctx context.Context, id int64) error {
	t, err := s.repo.Delete(ctx, id)
	if err != nil {
		return mapRepoErr(fmt.Sprintf("удаление обучения %d", id), err)
	}
	invalidate(s.stats)

	if t.HasFile() {
		s.removeBestEffort(ctx, t.FileName(), "удаление обучения")
	}

	s.logger.Info("Обучение удалено",
		slog.Int64("id", id),
		slog.String("file", t.FileName()),
	)
	return nil
}

// Search ищет обучения по подстроке названия (пустая строка — все).
func (s *TrainingService) Search(ctx context.Context, term string) ([]*model.Training, error) {
	list, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("поиск обучений: %w", err)
	}
	return list, nil
}

// RecordDownload увеличивает счётчик скачиваний документа.
// Документ без владельца — не ошибка.
func (s *TrainingService) RecordDownload(ctx context.Context, storedName string) error {
	found, err := s.repo.IncrementDownloads(ctx, storedName)
	if err != nil {
		return fmt.Errorf("учёт скачивания: %w", err)
	}
	if !found {
		s.logger.Debug("Скачивание документа без обучения",
			slog.String("stored_name", storedName),
		)
	}
	return nil
}

// Open открывает документ без учёта скачивания.
// Вызывающий код обязан закрыть reader.
func (s *TrainingService) Open(ctx context.Context, storedName string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	rc, info, err := s.uploads.Resolve(ctx, storedName)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: документ %s", ErrNotFound, storedName)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("открытие документа: %w", err)
	}
	return rc, info, nil
}

// Download открывает документ и учитывает скачивание.
// Счётчик меняется только для существующего документа.
// Вызывающий код обязан закрыть reader.
func (s *TrainingService) Download(ctx context.Context, storedName string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	rc, info, err := s.Open(ctx, storedName)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}

	if err := s.RecordDownload(ctx, storedName); err != nil {
		// Документ всё равно выдаётся
		s.logger.Error("Ошибка учёта скачивания",
			slog.String("stored_name", storedName),
			slog.String("error", err.Error()),
		)
	}
	return rc, info, nil
}
