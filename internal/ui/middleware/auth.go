// Пакет middleware — HTTP middleware UI Safety Portal.
// auth.go — проверка session cookie, продление сессии, redirect на /login.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/safety-portal/internal/ui/auth"
)

// LoginPath — страница входа для анонимных запросов.
const LoginPath = "/login"

type contextKey string

// ContextKeySession — данные сессии в контексте запроса.
const ContextKeySession contextKey = "ui_session"

// UIAuth пропускает только аутентифицированные запросы.
type UIAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewUIAuth создаёт middleware проверки сессии.
func NewUIAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// RequireAuthenticated возвращает middleware: анонимный запрос получает
// 302 на /login, аутентифицированный — сессию в контексте.
func (ua *UIAuth) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ua.sessionManager.GetSessionFromRequest(r)
			if err != nil {
				ua.logger.Debug("Недействительная сессия",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				ua.sessionManager.ClearSessionCookie(w)
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			if session == nil {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			// Скользящее продление: после половины срока выпускается новый токен
			if ua.sessionManager.NeedsRefresh(session) {
				refreshed, err := ua.sessionManager.RenewSessionCookie(w, session)
				if err != nil {
					ua.logger.Error("Ошибка продления сессии",
						slog.String("username", session.Username),
						slog.String("error", err.Error()),
					)
				} else {
					session = refreshed
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает сессию из контекста.
// Возвращает nil, если запрос не прошёл через RequireAuthenticated.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeySession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
