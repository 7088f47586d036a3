// gear.go — сервис выдачи средств индивидуальной защиты.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
)

// GearInput — поля формы выдачи СИЗ.
type GearInput struct {
	Employee string
	Gear     string
}

func (in GearInput) validate() (GearInput, error) {
	in.Employee = strings.TrimSpace(in.Employee)
	in.Gear = strings.TrimSpace(in.Gear)
	if in.Employee == "" || in.Gear == "" {
		return in, fmt.Errorf("%w: имя сотрудника и наименование СИЗ обязательны", ErrValidation)
	}
	return in, nil
}

// GearService — сервис выдачи СИЗ.
type GearService struct {
	repo   repository.GearRepository
	stats  StatsInvalidator
	clock  Clock
	logger *slog.Logger
}

// NewGearService создаёт сервис выдачи СИЗ.
func NewGearService(repo repository.GearRepository, stats StatsInvalidator, clock Clock, logger *slog.Logger) *GearService {
	return &GearService{
		repo:   repo,
		stats:  stats,
		clock:  clock,
		logger: logger.With(slog.String("component", "gear_service")),
	}
}

// Create регистрирует выдачу СИЗ.
func (s *GearService) Create(ctx context.Context, in GearInput) (*model.GearDistribution, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	g := &model.GearDistribution{EmployeeName: in.Employee, GearItem: in.Gear, Date: s.clock.today()}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, mapRepoErr("создание выдачи СИЗ", err)
	}
	invalidate(s.stats)

	s.logger.Info("Выдача СИЗ зарегистрирована",
		slog.Int64("id", g.ID),
		slog.String("employee", g.EmployeeName),
		slog.String("gear", g.GearItem),
	)
	return g, nil
}

// Get возвращает выдачу СИЗ по ID.
func (s *GearService) Get(ctx context.Context, id int64) (*model.GearDistribution, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(fmt.Sprintf("выдача СИЗ %d", id), err)
	}
	return g, nil
}

// Update меняет сотрудника и наименование СИЗ.
func (s *GearService) Update(ctx context.Context, id int64, in GearInput) (*model.GearDistribution, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	g.EmployeeName, g.GearItem = in.Employee, in.Gear
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, mapRepoErr(fmt.Sprintf("обновление выдачи СИЗ %d", id), err)
	}

	s.logger.Info("Выдача СИЗ обновлена", slog.Int64("id", id))
	return g, nil
}

// Delete удаляет выдачу СИЗ.
func (s *GearService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(fmt.Sprintf("удаление выдачи СИЗ %d", id), err)
	}
	invalidate(s.stats)

	s.logger.Info("Выдача СИЗ удалена", slog.Int64("id", id))
	return nil
}

// Search ищет по имени сотрудника или наименованию СИЗ.
func (s *GearService) Search(ctx context.Context, term string) ([]*model.GearDistribution, error) {
	list, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("поиск выдачи СИЗ: %w", err)
	}
	return list, nil
}
