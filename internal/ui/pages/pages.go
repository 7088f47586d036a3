// Пакет pages — страницы UI Safety Portal.
// Каждая страница — templ.Component поверх встроенного html/template
// (templates/layout.html + templates/<page>.html). Функция "t" в шаблонах
// переводит ключ на язык запроса.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/safety-portal/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц (файлы templates/<name>.html).
const (
	pageLogin        = "login"
	pageDashboard    = "dashboard"
	pageTrainingForm = "training_form"
	pageGearForm     = "gear_form"
	pageIncidents    = "incidents"
	pageIncidentForm = "incident_form"
	pageNotFound     = "not_found"
)

var allPages = []string{
	pageLogin, pageDashboard, pageTrainingForm, pageGearForm,
	pageIncidents, pageIncidentForm, pageNotFound,
}

// Renderer — набор разобранных шаблонов страниц.
type Renderer struct {
	pages  map[string]*template.Template
	bundle *i18n.Bundle
}

// baseFuncs — функции шаблонов; "t" и "lang" подменяются при рендеринге.
func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"t":    func(key string) string { return key },
		"lang": func() string { return i18n.DefaultLang },
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
	}
}

// New разбирает все шаблоны страниц.
func New(bundle *i18n.Bundle) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(allPages)),
		bundle: bundle,
	}
	for _, name := range allPages {
		t, err := template.New("layout.html").Funcs(baseFuncs()).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("разбор шаблона %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// T переводит ключ на язык запроса.
func (r *Renderer) T(ctx context.Context, key string) string {
	return r.bundle.T(ctx, key)
}

// component возвращает страницу name с данными data.
func (r *Renderer) component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := r.pages[name].Clone()
		if err != nil {
			return fmt.Errorf("шаблон %s: %w", name, err)
		}
		t.Funcs(template.FuncMap{
			"t":    func(key string) string { return r.bundle.T(ctx, key) },
			"lang": func() string { return i18n.LangFromContext(ctx) },
		})
		return templ.FromGoHTML(t, data).Render(ctx, w)
	})
}

// Login — страница входа.
func (r *Renderer) Login(data LoginData) templ.Component {
	return r.component(pageLogin, data)
}

// Dashboard — главная страница: поиск, статистика, три списка.
func (r *Renderer) Dashboard(data DashboardData) templ.Component {
	return r.component(pageDashboard, data)
}

// TrainingForm — добавление и редактирование обучения.
func (r *Renderer) TrainingForm(data TrainingFormData) templ.Component {
	return r.component(pageTrainingForm, data)
}

// GearForm — добавление и редактирование выдачи СИЗ.
func (r *Renderer) GearForm(data GearFormData) templ.Component {
	return r.component(pageGearForm, data)
}

// Incidents — список происшествий с формой регистрации.
func (r *Renderer) Incidents(data IncidentsData) templ.Component {
	return r.component(pageIncidents, data)
}

// IncidentForm — редактирование происшествия.
func (r *Renderer) IncidentForm(data IncidentFormData) templ.Component {
	return r.component(pageIncidentForm, data)
}

// NotFound — страница 404.
func (r *Renderer) NotFound(data NotFoundData) templ.Component {
	return r.component(pageNotFound, data)
}
