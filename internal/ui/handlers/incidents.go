// incidents.go — журнал происшествий.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/service"
	"github.com/bigkaa/safety-portal/internal/ui/flash"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

const incidentsPath = "/incidents"

// IncidentsHandler — обработчики происшествий.
type IncidentsHandler struct {
	view
	incidents *service.IncidentService
}

// NewIncidentsHandler создаёт новый IncidentsHandler.
func NewIncidentsHandler(incidents *service.IncidentService, renderer *pages.Renderer, logger *slog.Logger) *IncidentsHandler {
	return &IncidentsHandler{
		view:      newView(renderer, logger, "ui_incidents"),
		incidents: incidents,
	}
}

// showList рисует список происшествий с формой регистрации.
func (h *IncidentsHandler) showList(w http.ResponseWriter, r *http.Request, form IncidentForm, msg *flash.Message) {
	data := pages.IncidentsData{
		Page:        h.page(w, r, "incidents.heading"),
		Description: form.Description,
		ReportedBy:  form.ReportedBy,
	}
	if msg != nil {
		data.Flash = msg
	}

	list, err := h.incidents.Search(r.Context(), "")
	if err != nil {
		h.logger.Error("Ошибка загрузки происшествий", slog.String("error", err.Error()))
		data.Flash = h.message(r, flash.Danger, "flash.internal_error")
		h.render(w, r, http.StatusInternalServerError, h.pages.Incidents(data))
		return
	}
	data.Incidents = list
	h.render(w, r, http.StatusOK, h.pages.Incidents(data))
}

// HandleList — GET /incidents
func (h *IncidentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.showList(w, r, IncidentForm{}, nil)
}

// HandleCreate — POST /incidents
func (h *IncidentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, err := parseIncidentForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.incidents.Create(r.Context(), service.IncidentInput{
		Description: form.Description,
		ReportedBy:  form.ReportedBy,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.showList(w, r, form, h.message(r, flash.Danger, "flash.incident_required"))
			return
		}
		h.internalError(w, r, incidentsPath, "регистрация происшествия", err)
		return
	}
	h.redirect(w, r, incidentsPath, flash.Success, "flash.incident_reported")
}

func (h *IncidentsHandler) showForm(w http.ResponseWriter, r *http.Request, i *model.Incident, form IncidentForm, msg *flash.Message) {
	data := pages.IncidentFormData{
		Page:        h.page(w, r, "incidents.edit"),
		Action:      fmt.Sprintf("/edit_incident/%d", i.ID),
		Incident:    i,
		Description: form.Description,
		ReportedBy:  form.ReportedBy,
	}
	if msg != nil {
		data.Flash = msg
	}
	h.render(w, r, http.StatusOK, h.pages.IncidentForm(data))
}

func (h *IncidentsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Incident, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	i, err := h.incidents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.redirect(w, r, incidentsPath, flash.Danger, "flash.incident_not_found")
			return nil, false
		}
		h.internalError(w, r, incidentsPath, "загрузка происшествия", err)
		return nil, false
	}
	return i, true
}

// HandleEditForm — GET /edit_incident/{id}
func (h *IncidentsHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	i, ok := h.load(w, r)
	if !ok {
		return
	}
	h.showForm(w, r, i, IncidentForm{Description: i.Description, ReportedBy: i.ReportedBy}, nil)
}

// HandleEdit — POST /edit_incident/{id}
func (h *IncidentsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	i, ok := h.load(w, r)
	if !ok {
		return
	}
	form, err := parseIncidentForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.incidents.Update(r.Context(), i.ID, service.IncidentInput{
		Description: form.Description,
		ReportedBy:  form.ReportedBy,
	})
	switch {
	case err == nil:
		h.redirect(w, r, incidentsPath, flash.Success, "flash.incident_updated")
	case errors.Is(err, service.ErrValidation):
		h.showForm(w, r, i, form, h.message(r, flash.Danger, "flash.incident_required"))
	case errors.Is(err, service.ErrNotFound):
		h.redirect(w, r, incidentsPath, flash.Danger, "flash.incident_not_found")
	default:
		h.internalError(w, r, incidentsPath, "обновление происшествия", err)
	}
}

// HandleDelete — POST /delete_incident/{id}
func (h *IncidentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	err := h.incidents.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.redirect(w, r, incidentsPath, flash.Success, "flash.incident_deleted")
	case errors.Is(err, service.ErrNotFound):
		h.redirect(w, r, incidentsPath, flash.Danger, "flash.incident_not_found")
	default:
		h.internalError(w, r, incidentsPath, "удаление происшествия", err)
	}
}
