package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/safety-portal/internal/domain/model"
)

// IncidentRepository — интерфейс CRUD для таблицы incidents.
type IncidentRepository interface {
	Create(ctx context.Context, i *model.Incident) error
	GetByID(ctx context.Context, id int64) (*model.Incident, error)
	Update(ctx context.Context, i *model.Incident) error
	Delete(ctx context.Context, id int64) error
	// Search ищет по подстроке в описании или имени сообщившего.
	// Порядок общий для поиска и полного списка: date DESC, id DESC.
	Search(ctx context.Context, term string) ([]*model.Incident, error)
	Count(ctx context.Context) (int64, error)
}

type incidentRepo struct {
	db DBTX
}

// NewIncidentRepository создаёт репозиторий происшествий.
func NewIncidentRepository(db DBTX) IncidentRepository {
	return &incidentRepo{db: db}
}

const incidentColumns = `id, description, reported_by, date`

func scanIncident(row pgx.Row) (*model.Incident, error) {
	i := &model.Incident{}
	if err := row.Scan(&i.ID, &i.Description, &i.ReportedBy, &i.Date); err != nil {
		return nil, err
	}
	return i, nil
}

func (r *incidentRepo) Create(ctx context.Context, i *model.Incident) error {
	query := `
		INSERT INTO incidents (description, reported_by, date)
		VALUES ($1, $2, $3)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, i.Description, i.ReportedBy, i.Date).Scan(&i.ID); err != nil {
		return fmt.Errorf("ошибка создания происшествия: %w", err)
	}
	return nil
}

func (r *incidentRepo) GetByID(ctx context.Context, id int64) (*model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	i, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения происшествия: %w", err)
	}
	return i, nil
}

func (r *incidentRepo) Update(ctx context.Context, i *model.Incident) error {
	query := `
		UPDATE incidents
		SET description = $2, reported_by = $3
		WHERE id = $1
		RETURNING date`

	if err := r.db.QueryRow(ctx, query, i.ID, i.Description, i.ReportedBy).Scan(&i.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления происшествия: %w", err)
	}
	return nil
}

func (r *incidentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления происшествия: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *incidentRepo) Search(ctx context.Context, term string) ([]*model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		query += ` WHERE description ILIKE $1 OR reported_by ILIKE $1`
		args = append(args, containsPattern(term))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска происшествий: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Incident, 0)
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования происшествия: %w", err)
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

func (r *incidentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта происшествий: %w", err)
	}
	return n, nil
}
