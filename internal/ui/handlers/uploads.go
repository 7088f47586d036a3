// uploads.go — выдача документов обучений.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/safety-portal/internal/service"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

// UploadsHandler — GET /uploads/{storedName}.
type UploadsHandler struct {
	view
	trainings *service.TrainingService
}

// NewUploadsHandler создаёт новый UploadsHandler.
func NewUploadsHandler(trainings *service.TrainingService, renderer *pages.Renderer, logger *slog.Logger) *UploadsHandler {
	return &UploadsHandler{
		view:      newView(renderer, logger, "ui_uploads"),
		trainings: trainings,
	}
}

// HandleDownload отдаёт документ и увеличивает счётчик скачиваний.
// Отсутствующий документ — страница 404, счётчики не меняются.
// Запросы продолжения (Range не с нулевого байта) не учитываются.
func (h *UploadsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "storedName")

	open := h.trainings.Open
	if countsAsDownload(r) {
		open = h.trainings.Download
	}
	rc, info, err := open(r.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		h.logger.Error("Ошибка выдачи документа",
			slog.String("stored_name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, h.pages.T(r.Context(), "error.internal"), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name, info.ModTime, rc)
}

// countsAsDownload — true для полного запроса и для Range с нулевого байта.
// Просмотрщики PDF догружают документ частями, каждая часть не скачивание.
func countsAsDownload(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	rng := strings.TrimSpace(r.Header.Get("Range"))
	if rng == "" {
		return true
	}
	return strings.HasPrefix(rng, "bytes=0-")
}
