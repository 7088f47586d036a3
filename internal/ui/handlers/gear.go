// gear.go — учёт выдачи СИЗ.
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

// GearHandler — обработчики выдачи СИЗ.
type GearHandler struct {
	view
	gear *service.GearService
}

// NewGearHandler создаёт новый GearHandler.
func NewGearHandler(gear *service.GearService, renderer *pages.Renderer, logger *slog.Logger) *GearHandler {
	return &GearHandler{
		view: newView(renderer, logger, "ui_gear"),
		gear: gear,
	}
}

func (h *GearHandler) showForm(w http.ResponseWriter, r *http.Request, g *model.GearDistribution, form GearForm, msg *flash.Message) {
	data := pages.GearFormData{
		Page:     h.page(w, r, "gear.add"),
		Action:   "/add_gear",
		Gear:     g,
		Employee: form.Employee,
		Item:     form.Gear,
	}
	if g != nil {
		data.Title = "gear.edit"
		data.Action = fmt.Sprintf("/edit_gear/%d", g.ID)
	}
	if msg != nil {
		data.Flash = msg
	}
	h.render(w, r, http.StatusOK, h.pages.GearForm(data))
}

// HandleAddForm — GET /add_gear
func (h *GearHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, r, nil, GearForm{}, nil)
}

// HandleAdd — POST /add_gear
func (h *GearHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	form, err := parseGearForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.gear.Create(r.Context(), service.GearInput{Employee: form.Employee, Gear: form.Gear})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.showForm(w, r, nil, form, h.message(r, flash.Danger, "flash.gear_required"))
			return
		}
		h.internalError(w, r, "/", "добавление выдачи СИЗ", err)
		return
	}
	h.redirect(w, r, "/", flash.Success, "flash.gear_added")
}

func (h *GearHandler) load(w http.ResponseWriter, r *http.Request) (*model.GearDistribution, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	g, err := h.gear.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.redirect(w, r, "/", flash.Danger, "flash.gear_not_found")
			return nil, false
		}
		h.internalError(w, r, "/", "загрузка выдачи СИЗ", err)
		return nil, false
	}
	return g, true
}

// HandleEditForm — GET /edit_gear/{id}
func (h *GearHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	g, ok := h.load(w, r)
	if !ok {
		return
	}
	h.showForm(w, r, g, GearForm{Employee: g.EmployeeName, Gear: g.GearItem}, nil)
}

// HandleEdit — POST /edit_gear/{id}
func (h *GearHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	g, ok := h.load(w, r)
	if !ok {
		return
	}
	form, err := parseGearForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.gear.Update(r.Context(), g.ID, service.GearInput{Employee: form.Employee, Gear: form.Gear})
	switch {
	case err == nil:
		h.redirect(w, r, "/", flash.Success, "flash.gear_updated")
	case errors.Is(err, service.ErrValidation):
		h.showForm(w, r, g, form, h.message(r, flash.Danger, "flash.gear_required"))
	case errors.Is(err, service.ErrNotFound):
		h.redirect(w, r, "/", flash.Danger, "flash.gear_not_found")
	default:
		h.internalError(w, r, "/", "обновление выдачи СИЗ", err)
	}
}

// HandleDelete — POST /delete_gear/{id}
func (h *GearHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	err := h.gear.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.redirect(w, r, "/", flash.Success, "flash.gear_deleted")
	case errors.Is(err, service.ErrNotFound):
		h.redirect(w, r, "/", flash.Danger, "flash.gear_not_found")
	default:
		h.internalError(w, r, "/", "удаление выдачи СИЗ", err)
	}
}
