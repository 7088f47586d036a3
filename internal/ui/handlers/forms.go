package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/bigkaa/safety-portal/internal/service"
)

// maxMemory — часть multipart-формы в памяти, остальное во временных файлах.
const maxMemory = 1 << 20

// LoginForm — POST /login.
type LoginForm struct {
	Username string
	Password string
}

// TrainingForm — POST /add_training, POST /edit_training/{id}.
// File == nil, если документ не прикреплён.
type TrainingForm struct {
	Title string
	File  *service.FileInput

	file multipart.File
	form *multipart.Form
}

// GearForm — POST /add_gear, POST /edit_gear/{id}.
type GearForm struct {
	Employee string
	Gear     string
}

// IncidentForm — POST /incidents, POST /edit_incident/{id}.
type IncidentForm struct {
	Description string
	ReportedBy  string
}

func parseLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, fmt.Errorf("разбор формы входа: %w", err)
	}
	return LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}, nil
}

func parseGearForm(r *http.Request) (GearForm, error) {
	if err := r.ParseForm(); err != nil {
		return GearForm{}, fmt.Errorf("разбор формы СИЗ: %w", err)
	}
	return GearForm{
		Employee: r.PostFormValue("employee"),
		Gear:     r.PostFormValue("gear"),
	}, nil
}

func parseIncidentForm(r *http.Request) (IncidentForm, error) {
	if err := r.ParseForm(); err != nil {
		return IncidentForm{}, fmt.Errorf("разбор формы происшествия: %w", err)
	}
	return IncidentForm{
		Description: r.PostFormValue("description"),
		ReportedBy:  r.PostFormValue("reported_by"),
	}, nil
}

// parseTrainingForm разбирает multipart-форму обучения.
// Превышение лимита тела запроса возвращается как service.ErrPayloadTooLarge.
// Вызывающий код обязан вызвать Close.
func parseTrainingForm(r *http.Request) (*TrainingForm, error) {
	f := &TrainingForm{}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), errors.Is(err, multipart.ErrMessageTooLarge):
			return f, service.ErrPayloadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			// urlencoded-форма без документа
		default:
			return f, fmt.Errorf("разбор формы обучения: %w", err)
		}
	}
	f.form = r.MultipartForm
	f.Title = r.FormValue("title")

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		f.file = file
		// Пустое поле file в браузере приходит как часть без имени
		if header.Filename != "" {
			f.File = &service.FileInput{Filename: header.Filename, Content: file}
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return f, fmt.Errorf("чтение документа из формы: %w", err)
	}
	return f, nil
}

// Close освобождает документ и временные файлы формы.
func (f *TrainingForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}
