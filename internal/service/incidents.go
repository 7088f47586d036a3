// incidents.go — сервис происшествий.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
)

// IncidentInput — поля формы происшествия.
type IncidentInput struct {
	Description string
	ReportedBy  string
}

func (in IncidentInput) validate() (IncidentInput, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.ReportedBy = strings.TrimSpace(in.ReportedBy)
	if in.Description == "" || in.ReportedBy == "" {
		return in, fmt.Errorf("%w: описание и имя сообщившего обязательны", ErrValidation)
	}
	return in, nil
}

// IncidentService — сервис происшествий.
type IncidentService struct {
	repo   repository.IncidentRepository
	stats  StatsInvalidator
	clock  Clock
	logger *slog.Logger
}

// NewIncidentService создаёт сервис происшествий.
func NewIncidentService(repo repository.IncidentRepository, stats StatsInvalidator, clock Clock, logger *slog.Logger) *IncidentService {
	return &IncidentService{
		repo:   repo,
		stats:  stats,
		clock:  clock,
		logger: logger.With(slog.String("component", "incident_service")),
	}
}

// Create регистрирует происшествие.
func (s *IncidentService) Create(ctx context.Context, in IncidentInput) (*model.Incident, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	i := &model.Incident{Description: in.Description, ReportedBy: in.ReportedBy, Date: s.clock.today()}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, mapRepoErr("создание происшествия", err)
	}
	invalidate(s.stats)

	s.logger.Info("Происшествие зарегистрировано",
		slog.Int64("id", i.ID),
		slog.String("reported_by", i.ReportedBy),
	)
	return i, nil
}

// Get возвращает происшествие по ID.
func (s *IncidentService) Get(ctx context.Context, id int64) (*model.Incident, error) {
	i, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(fmt.Sprintf("происшествие %d", id), err)
	}
	return i, nil
}

// Update меняет описание и имя сообщившего.
func (s *IncidentService) Update(ctx context.Context, id int64, in IncidentInput) (*model.Incident, error) {
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	i.Description, i.ReportedBy = in.Description, in.ReportedBy
	if err := s.repo.Update(ctx, i); err != nil {
		return nil, mapRepoErr(fmt.Sprintf("обновление происшествия %d", id), err)
	}

	s.logger.Info("Происшествие обновлено", slog.Int64("id", id))
	return i, nil
}

// Delete удаляет происшествие.
func (s *IncidentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(fmt.Sprintf("удаление происшествия %d", id), err)
	}
	invalidate(s.stats)

	s.logger.Info("Происшествие удалено", slog.Int64("id", id))
	return nil
}

// Search ищет по описанию или имени сообщившего.
// Полный список и поиск упорядочены одинаково: новые сверху.
func (s *IncidentService) Search(ctx context.Context, term string) ([]*model.Incident, error) {
	list, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("поиск происшествий: %w", err)
	}
	return list, nil
}
