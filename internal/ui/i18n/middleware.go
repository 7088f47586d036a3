package i18n

import "net/http"

// LangCookieName — cookie с явно выбранным языком.
const LangCookieName = "sp_lang"

// Middleware определяет язык запроса и помещает его в контекст.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLang(r.Context(), detectLanguage(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// detectLanguage: cookie sp_lang → Accept-Language → "en".
func detectLanguage(r *http.Request) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && Supported(cookie.Value) {
		return cookie.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}
	return DefaultLang
}
