// dashboard.go — главная страница: поиск по трём спискам и статистика.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/service"
	"github.com/bigkaa/safety-portal/internal/ui/flash"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

// Sources — сервисы, из которых собираются списки dashboard и выгрузка.
type Sources struct {
	Trainings *service.TrainingService
	Gear      *service.GearService
	Incidents *service.IncidentService
	Stats     *service.StatsService
}

// snapshot — списки и счётчики для одного поискового запроса.
type snapshot struct {
	Stats     model.Stats
	Trainings []*model.Training
	Gear      []*model.GearDistribution
	Incidents []*model.Incident
}

// load выполняет поиск по всем трём спискам.
func (s Sources) load(ctx context.Context, search string) (*snapshot, error) {
	var (
		snap snapshot
		err  error
	)
	if snap.Stats, err = s.Stats.Get(ctx); err != nil {
		return nil, err
	}
	if snap.Trainings, err = s.Trainings.Search(ctx, search); err != nil {
		return nil, err
	}
	if snap.Gear, err = s.Gear.Search(ctx, search); err != nil {
		return nil, err
	}
	if snap.Incidents, err = s.Incidents.Search(ctx, search); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DashboardHandler — обработчик главной страницы.
type DashboardHandler struct {
	view
	sources Sources
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(sources Sources, renderer *pages.Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		view:    newView(renderer, logger, "ui_dashboard"),
		sources: sources,
	}
}

// HandleDashboard — GET /
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	data := pages.DashboardData{
		Page:   h.page(w, r, "dashboard.title"),
		Search: search,
	}

	snap, err := h.sources.load(r.Context(), search)
	if err != nil {
		h.logger.Error("Ошибка загрузки dashboard",
			slog.String("search", search),
			slog.String("error", err.Error()),
		)
		data.Flash = h.message(r, flash.Danger, "flash.internal_error")
		h.render(w, r, http.StatusInternalServerError, h.pages.Dashboard(data))
		return
	}

	data.Stats = snap.Stats
	data.Trainings = snap.Trainings
	data.Gear = snap.Gear
	data.Incidents = snap.Incidents
	h.render(w, r, http.StatusOK, h.pages.Dashboard(data))
}
