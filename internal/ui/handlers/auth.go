// auth.go — вход по логину и паролю, выход.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/safety-portal/internal/service"
	"github.com/bigkaa/safety-portal/internal/ui/auth"
	"github.com/bigkaa/safety-portal/internal/ui/flash"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	view
	auth           *service.AuthService
	sessionManager *auth.SessionManager
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	sessionManager *auth.SessionManager,
	renderer *pages.Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		view:           newView(renderer, logger, "ui_auth"),
		auth:           authService,
		sessionManager: sessionManager,
	}
}

// loggedIn — есть ли у запроса действующая сессия.
func (h *AuthHandler) loggedIn(r *http.Request) bool {
	s, err := h.sessionManager.GetSessionFromRequest(r)
	return err == nil && s != nil
}

// HandleLoginPage — GET /login
// Уже вошедший пользователь перенаправляется на dashboard.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := pages.LoginData{Page: h.page(w, r, "login.title")}
	h.render(w, r, http.StatusOK, h.pages.Login(data))
}

// HandleLogin — POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form, err := parseLoginForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, service.ErrAuthFailed) {
			h.internalError(w, r, "/login", "вход", err)
			return
		}
		h.logger.Warn("Неудачная попытка входа",
			slog.String("username", form.Username),
			slog.String("remote_addr", r.RemoteAddr),
		)
		data := pages.LoginData{
			Page:         h.page(w, r, "login.title"),
			FormUsername: form.Username,
		}
		data.Flash = h.message(r, flash.Danger, "flash.invalid_credentials")
		h.render(w, r, http.StatusOK, h.pages.Login(data))
		return
	}

	if _, err := h.sessionManager.SetSessionCookie(w, user.Username); err != nil {
		h.internalError(w, r, "/login", "создание сессии", err)
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.String("username", user.Username),
		slog.String("remote_addr", r.RemoteAddr),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout — GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s, err := h.sessionManager.GetSessionFromRequest(r); err == nil && s != nil {
		h.sessionManager.Revoke(s)
		h.logger.Info("Пользователь вышел", slog.String("username", s.Username))
	}
	h.sessionManager.ClearSessionCookie(w)
	h.redirect(w, r, "/login", flash.Success, "flash.logged_out")
}
