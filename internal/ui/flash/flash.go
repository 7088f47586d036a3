// Пакет flash — одноразовые сообщения между редиректом и следующей страницей.
// Сообщение хранится в cookie sp_flash (base64url JSON) и удаляется при чтении.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// CookieName — имя cookie с сообщением.
const CookieName = "sp_flash"

// Kind — вид сообщения (CSS-класс в шаблонах).
type Kind string

const (
	Success Kind = "success"
	Danger  Kind = "danger"
)

// Message — одноразовое сообщение пользователю.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"message"`
}

// New создаёт сообщение.
func New(kind Kind, text string) *Message {
	return &Message{Kind: kind, Text: text}
}

// Set записывает сообщение для следующего запроса.
func Set(w http.ResponseWriter, kind Kind, text string) {
	data, _ := json.Marshal(Message{Kind: kind, Text: text})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop читает сообщение из запроса и удаляет cookie.
// Возвращает nil, если сообщения нет или cookie повреждён.
func Pop(w http.ResponseWriter, r *http.Request) *Message {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	expire(w)

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil || m.Text == "" {
		return nil
	}
	if m.Kind != Success && m.Kind != Danger {
		m.Kind = Danger
	}
	return &m
}

func expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
