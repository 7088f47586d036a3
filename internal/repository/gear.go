package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/safety-portal/internal/domain/model"
)

// GearRepository — интерфейс CRUD для таблицы gear_distributions.
type GearRepository interface {
	Create(ctx context.Context, g *model.GearDistribution) error
	GetByID(ctx context.Context, id int64) (*model.GearDistribution, error)
	Update(ctx context.Context, g *model.GearDistribution) error
	Delete(ctx context.Context, id int64) error
	// Search ищет по подстроке в имени сотрудника или наименовании СИЗ.
	Search(ctx context.Context, term string) ([]*model.GearDistribution, error)
	Count(ctx context.Context) (int64, error)
}

type gearRepo struct {
	db DBTX
}

// NewGearRepository создаёт репозиторий выдачи СИЗ.
func NewGearRepository(db DBTX) GearRepository {
	return &gearRepo{db: db}
}

const gearColumns = `id, employee_name, gear_item, date`

func scanGear(row pgx.Row) (*model.GearDistribution, error) {
	g := &model.GearDistribution{}
	if err := row.Scan(&g.ID, &g.EmployeeName, &g.GearItem, &g.Date); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *gearRepo) Create(ctx context.Context, g *model.GearDistribution) error {
	query := `
		INSERT INTO gear_distributions (employee_name, gear_item, date)
		VALUES ($1, $2, $3)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, g.EmployeeName, g.GearItem, g.Date).Scan(&g.ID); err != nil {
		return fmt.Errorf("ошибка создания выдачи СИЗ: %w", err)
	}
	return nil
}

func (r *gearRepo) GetByID(ctx context.Context, id int64) (*model.GearDistribution, error) {
	query := `SELECT ` + gearColumns + ` FROM gear_distributions WHERE id = $1`

	g, err := scanGear(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения выдачи СИЗ: %w", err)
	}
	return g, nil
}

func (r *gearRepo) Update(ctx context.Context, g *model.GearDistribution) error {
	query := `
		UPDATE gear_distributions
		SET employee_name = $2, gear_item = $3
		WHERE id = $1
		RETURNING date`

	if err := r.db.QueryRow(ctx, query, g.ID, g.EmployeeName, g.GearItem).Scan(&g.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления выдачи СИЗ: %w", err)
	}
	return nil
}

func (r *gearRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gear_distributions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления выдачи СИЗ: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gearRepo) Search(ctx context.Context, term string) ([]*model.GearDistribution, error) {
	query := `SELECT ` + gearColumns + ` FROM gear_distributions`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		query += ` WHERE employee_name ILIKE $1 OR gear_item ILIKE $1`
		args = append(args, containsPattern(term))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска выдачи СИЗ: %w", err)
	}
	defer rows.Close()

	result := make([]*model.GearDistribution, 0)
	for rows.Next() {
		g, err := scanGear(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования выдачи СИЗ: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *gearRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM gear_distributions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта выдачи СИЗ: %w", err)
	}
	return n, nil
}
