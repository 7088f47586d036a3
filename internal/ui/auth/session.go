// Пакет auth — сессии пользователей Safety Portal.
// Сессия — HS256 JWT в HttpOnly cookie: sub = имя пользователя, jti = id сессии, iat, exp.
// Id сессии сохраняется при продлении; logout отзывает его до истечения TTL.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SessionCookieName — имя cookie с session-токеном.
const SessionCookieName = "sp_session"

// issuer — значение claim iss в токенах портала.
const issuer = "safety-portal"

// maxRevoked — предельное число отозванных сессий в памяти.
const maxRevoked = 10000

// ErrInvalidSession — токен повреждён, подделан или истёк.
var ErrInvalidSession = errors.New("недействительная сессия")

// SessionData — данные аутентифицированной сессии.
type SessionData struct {
	ID        string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionManager выпускает и проверяет session-токены.
type SessionManager struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time

	// revoked — id сессий после logout; запись живёт не дольше последнего токена сессии
	revoked *expirable.LRU[string, struct{}]
}

// NewSessionManager создаёт менеджер сессий.
// Пустой secret — случайный ключ, сессии не переживают рестарт процесса.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("время жизни сессии должно быть положительным: %s", ttl)
	}

	var key []byte
	if secret == "" {
		key = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		h := sha256.Sum256([]byte(secret))
		key = h[:]
	}

	return &SessionManager{
		key:     key,
		ttl:     ttl,
		secure:  secure,
		now:     time.Now,
		revoked: expirable.NewLRU[string, struct{}](maxRevoked, nil, ttl),
	}, nil
}

// Issue выпускает подписанный токен новой сессии пользователя.
func (sm *SessionManager) Issue(username string) (string, *SessionData, error) {
	return sm.issue(uuid.NewString(), username)
}

func (sm *SessionManager) issue(id, username string) (string, *SessionData, error) {
	now := sm.now().Truncate(time.Second)
	data := &SessionData{
		ID:        id,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(sm.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(data.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(data.ExpiresAt),
	})
	signed, err := token.SignedString(sm.key)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка подписи session-токена: %w", err)
	}
	return signed, data, nil
}

// Parse проверяет подпись, алгоритм, issuer, срок действия токена
// и то, что сессия не отозвана.
func (sm *SessionManager) Parse(raw string) (*SessionData, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return sm.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: отсутствует sub, iat или jti", ErrInvalidSession)
	}
	if sm.revoked.Contains(claims.ID) {
		return nil, fmt.Errorf("%w: сессия завершена", ErrInvalidSession)
	}

	return &SessionData{
		ID:        claims.ID,
		Username:  claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// NeedsRefresh сообщает, что прошла половина срока жизни сессии.
func (sm *SessionManager) NeedsRefresh(s *SessionData) bool {
	return sm.now().After(s.ExpiresAt.Add(-sm.ttl / 2))
}

// Revoke завершает сессию: все её токены, включая скопированные
// до продления, перестают приниматься.
func (sm *SessionManager) Revoke(s *SessionData) {
	if s == nil || s.ID == "" {
		return
	}
	sm.revoked.Add(s.ID, struct{}{})
}

// SetSessionCookie выпускает токен новой сессии и устанавливает session cookie.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, username string) (*SessionData, error) {
	signed, data, err := sm.Issue(username)
	if err != nil {
		return nil, err
	}
	sm.setCookie(w, signed)
	return data, nil
}

// RenewSessionCookie перевыпускает токен той же сессии с новым сроком.
func (sm *SessionManager) RenewSessionCookie(w http.ResponseWriter, s *SessionData) (*SessionData, error) {
	signed, data, err := sm.issue(s.ID, s.Username)
	if err != nil {
		return nil, err
	}
	sm.setCookie(w, signed)
	return data, nil
}

func (sm *SessionManager) setCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionFromRequest извлекает и проверяет сессию из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	return sm.Parse(cookie.Value)
}

// ClearSessionCookie удаляет session cookie (logout).
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
