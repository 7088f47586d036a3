// Пакет handlers — HTTP-обработчики UI Safety Portal.
// Мутирующие обработчики завершаются redirect с одноразовым flash-сообщением,
// ошибки валидации перерисовывают форму с сообщением (HTTP 200).
package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/safety-portal/internal/ui/flash"
	uimiddleware "github.com/bigkaa/safety-portal/internal/ui/middleware"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

// view — общие для обработчиков рендеринг, flash и redirect.
type view struct {
	pages  *pages.Renderer
	logger *slog.Logger
}

func newView(renderer *pages.Renderer, logger *slog.Logger, component string) view {
	return view{
		pages:  renderer,
		logger: logger.With(slog.String("component", component)),
	}
}

// page собирает общие данные страницы и забирает flash-сообщение.
func (v *view) page(w http.ResponseWriter, r *http.Request, titleKey string) pages.Page {
	p := pages.Page{Title: titleKey, Flash: flash.Pop(w, r)}
	if s := uimiddleware.SessionFromContext(r.Context()); s != nil {
		p.Username = s.Username
	}
	return p
}

// message — flash-сообщение для текущей страницы (без redirect).
func (v *view) message(r *http.Request, kind flash.Kind, key string) *flash.Message {
	return flash.New(kind, v.pages.T(r.Context(), key))
}

// render рендерит компонент в буфер и отдаёт его со статусом status.
func (v *view) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		v.logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, v.pages.T(r.Context(), "error.internal"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect ставит flash-сообщение и перенаправляет на to.
func (v *view) redirect(w http.ResponseWriter, r *http.Request, to string, kind flash.Kind, key string) {
	flash.Set(w, kind, v.pages.T(r.Context(), key))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// notFound отдаёт страницу 404.
func (v *view) notFound(w http.ResponseWriter, r *http.Request) {
	data := pages.NotFoundData{Page: v.page(w, r, "notfound.title")}
	v.render(w, r, http.StatusNotFound, v.pages.NotFound(data))
}

// internalError логирует непредвиденную ошибку и перенаправляет на to.
func (v *view) internalError(w http.ResponseWriter, r *http.Request, to, op string, err error) {
	v.logger.Error("Ошибка обработки запроса",
		slog.String("op", op),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	v.redirect(w, r, to, flash.Danger, "flash.internal_error")
}

// pathID извлекает положительный идентификатор из сегмента {id}.
func pathID(r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Required:      true,
		})
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NotFoundHandler — страница 404 для неизвестных маршрутов.
func NotFoundHandler(renderer *pages.Renderer, logger *slog.Logger) http.HandlerFunc {
	v := newView(renderer, logger, "ui.not_found")
	return v.notFound
}
