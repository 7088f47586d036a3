// trainings.go — добавление, редактирование и удаление обучений.
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

// TrainingsHandler — обработчики обучений.
type TrainingsHandler struct {
	view
	trainings *service.TrainingService
}

// NewTrainingsHandler создаёт новый TrainingsHandler.
func NewTrainingsHandler(trainings *service.TrainingService, renderer *pages.Renderer, logger *slog.Logger) *TrainingsHandler {
	return &TrainingsHandler{
		view:      newView(renderer, logger, "ui_trainings"),
		trainings: trainings,
	}
}

// formFlashKey — ключ сообщения для ошибки, при которой форма показывается снова.
// Пустая строка — ошибка не относится к вводу пользователя.
func formFlashKey(err error) string {
	switch {
	case errors.Is(err, service.ErrPayloadTooLarge):
		return "flash.payload_too_large"
	case errors.Is(err, service.ErrInvalidFileType):
		return "flash.invalid_file_type"
	case errors.Is(err, service.ErrValidation):
		return "flash.title_required"
	}
	return ""
}

// showForm рисует форму обучения; t == nil для добавления.
func (h *TrainingsHandler) showForm(w http.ResponseWriter, r *http.Request, t *model.Training, title string, msg *flash.Message) {
	data := pages.TrainingFormData{
		Page:      h.page(w, r, "trainings.add"),
		Action:    "/add_training",
		Training:  t,
		FormTitle: title,
	}
	if t != nil {
		data.Title = "trainings.edit"
		data.Action = fmt.Sprintf("/edit_training/%d", t.ID)
	}
	if msg != nil {
		data.Flash = msg
	}
	h.render(w, r, http.StatusOK, h.pages.TrainingForm(data))
}

// HandleAddForm — GET /add_training
func (h *TrainingsHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, r, nil, "", nil)
}

// HandleAdd — POST /add_training
func (h *TrainingsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	form, err := parseTrainingForm(r)
	defer form.Close()
	if err != nil {
		if key := formFlashKey(err); key != "" {
			h.showForm(w, r, nil, form.Title, h.message(r, flash.Danger, key))
			return
		}
		h.internalError(w, r, "/add_training", "разбор формы обучения", err)
		return
	}

	_, err = h.trainings.Create(r.Context(), service.TrainingInput{Title: form.Title, File: form.File})
	if err != nil {
		if key := formFlashKey(err); key != "" {
			h.showForm(w, r, nil, form.Title, h.message(r, flash.Danger, key))
			return
		}
		h.internalError(w, r, "/", "добавление обучения", err)
		return
	}
	h.redirect(w, r, "/", flash.Success, "flash.training_added")
}

// load загружает обучение по {id}; при неудаче ответ уже отправлен.
func (h *TrainingsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Training, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	t, err := h.trainings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.redirect(w, r, "/", flash.Danger, "flash.training_not_found")
			return nil, false
		}
		h.internalError(w, r, "/", "загрузка обучения", err)
		return nil, false
	}
	return t, true
}

// HandleEditForm — GET /edit_training/{id}
func (h *TrainingsHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	h.showForm(w, r, t, t.Title, nil)
}

// HandleEdit — POST /edit_training/{id}
// Без нового документа текущий документ сохраняется.
func (h *TrainingsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}

	form, err := parseTrainingForm(r)
	defer form.Close()
	if err != nil {
		if key := formFlashKey(err); key != "" {
			h.showForm(w, r, t, form.Title, h.message(r, flash.Danger, key))
			return
		}
		h.internalError(w, r, "/", "разбор формы обучения", err)
		return
	}

	_, err = h.trainings.Update(r.Context(), t.ID, service.TrainingInput{Title: form.Title, File: form.File})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.redirect(w, r, "/", flash.Danger, "flash.training_not_found")
			return
		}
		if key := formFlashKey(err); key != "" {
			h.showForm(w, r, t, form.Title, h.message(r, flash.Danger, key))
			return
		}
		h.internalError(w, r, "/", "обновление обучения", err)
		return
	}
	h.redirect(w, r, "/", flash.Success, "flash.training_updated")
}

// HandleDelete — POST /delete_training/{id}
// Неизвестное обучение — страница 404.
func (h *TrainingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.trainings.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		h.internalError(w, r, "/", "удаление обучения", err)
		return
	}
	h.redirect(w, r, "/", flash.Success, "flash.training_deleted")
}
