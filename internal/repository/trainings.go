package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/safety-portal/internal/domain/model"
)

// TrainingRepository — интерфейс CRUD для таблицы trainings.
type TrainingRepository interface {
	// Create добавляет обучение; заполняет ID и Downloads.
	Create(ctx context.Context, t *model.Training) error
	// GetByID возвращает обучение по ID.
	GetByID(ctx context.Context, id int64) (*model.Training, error)
	// Update обновляет название и ссылку на документ.
	Update(ctx context.Context, t *model.Training) error
	// Delete удаляет обучение и возвращает удалённую запись.
	Delete(ctx context.Context, id int64) (*model.Training, error)
	// Search ищет обучения по подстроке названия; пустая строка — все записи.
	Search(ctx context.Context, term string) ([]*model.Training, error)
	// Count возвращает общее число обучений.
	Count(ctx context.Context) (int64, error)
	// IncrementDownloads увеличивает счётчик скачиваний документа.
	// Возвращает false, если документ не принадлежит ни одному обучению.
	IncrementDownloads(ctx context.Context, file string) (bool, error)
	// ListFiles возвращает все ссылки на документы.
	ListFiles(ctx context.Context) ([]string, error)
}

// trainingRepo — реализация TrainingRepository.
type trainingRepo struct {
	db DBTX
}

// NewTrainingRepository создаёт репозиторий обучений.
func NewTrainingRepository(db DBTX) TrainingRepository {
	return &trainingRepo{db: db}
}

const trainingColumns = `id, title, date, file, downloads`

func scanTraining(row pgx.Row) (*model.Training, error) {
	t := &model.Training{}
	if err := row.Scan(&t.ID, &t.Title, &t.Date, &t.File, &t.Downloads); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *trainingRepo) Create(ctx context.Context, t *model.Training) error {
	query := `
		INSERT INTO trainings (title, date, file)
		VALUES ($1, $2, $3)
		RETURNING id, downloads`

	err := r.db.QueryRow(ctx, query, t.Title, t.Date, t.File).Scan(&t.ID, &t.Downloads)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: документ уже принадлежит другому обучению", ErrConflict)
		}
		return fmt.Errorf("ошибка создания обучения: %w", err)
	}
	return nil
}

func (r *trainingRepo) GetByID(ctx context.Context, id int64) (*model.Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE id = $1`

	t, err := scanTraining(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения обучения: %w", err)
	}
	return t, nil
}

func (r *trainingRepo) Update(ctx context.Context, t *model.Training) error {
	query := `
		UPDATE trainings
		SET title = $2, file = $3
		WHERE id = $1
		RETURNING date, downloads`

	err := r.db.QueryRow(ctx, query, t.ID, t.Title, t.File).Scan(&t.Date, &t.Downloads)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: документ уже принадлежит другому обучению", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления обучения: %w", err)
	}
	return nil
}

func (r *trainingRepo) Delete(ctx context.Context, id int64) (*model.Training, error) {
	query := `DELETE FROM trainings WHERE id = $1 RETURNING ` + trainingColumns

	t, err := scanTraining(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка удаления обучения: %w", err)
	}
	return t, nil
}

func (r *trainingRepo) Search(ctx context.Context, term string) ([]*model.Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		query += ` WHERE title ILIKE $1`
		args = append(args, containsPattern(term))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска обучений: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Training, 0)
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования обучения: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *trainingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trainings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта обучений: %w", err)
	}
	return n, nil
}

func (r *trainingRepo) IncrementDownloads(ctx context.Context, file string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE trainings SET downloads = downloads + 1 WHERE file = $1`, file)
	if err != nil {
		return false, fmt.Errorf("ошибка учёта скачивания: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *trainingRepo) ListFiles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT file FROM trainings WHERE file IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка документов: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
