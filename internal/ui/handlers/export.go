// export.go — выгрузка dashboard в XLSX.
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/safety-portal/internal/export"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

// ExportHandler — GET /export.xlsx.
type ExportHandler struct {
	view
	sources Sources
	now     func() time.Time
}

// NewExportHandler создаёт новый ExportHandler.
func NewExportHandler(sources Sources, renderer *pages.Renderer, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		view:    newView(renderer, logger, "ui_export"),
		sources: sources,
		now:     time.Now,
	}
}

// HandleExport отдаёт книгу со списками dashboard с учётом search.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	snap, err := h.sources.load(r.Context(), search)
	if err != nil {
		h.internalError(w, r, "/", "выгрузка", err)
		return
	}

	var buf bytes.Buffer
	err = export.Write(&buf, export.Data{
		Search:    search,
		Stats:     snap.Stats,
		Trainings: snap.Trainings,
		Gear:      snap.Gear,
		Incidents: snap.Incidents,
	})
	if err != nil {
		h.internalError(w, r, "/", "формирование книги", err)
		return
	}

	filename := fmt.Sprintf("safety-portal-%s.xlsx", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	size := buf.Len()
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	h.logger.Info("Выгрузка сформирована",
		slog.String("search", search),
		slog.Int("bytes", size),
	)
}
