package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T, secret string) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(secret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager() ошибка: %v", err)
	}
	return sm
}

func TestIssueParse_RoundTrip(t *testing.T) {
	sm := newTestManager(t, "test-secret")

	token, issued, err := sm.Issue("admin")
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}
	got, err := sm.Parse(token)
	if err != nil {
		t.Fatalf("Parse() ошибка: %v", err)
	}
	if got.Username != "admin" {
		t.Errorf("Username = %q, хотели admin", got.Username)
	}
	if !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, хотели %v", got.ExpiresAt, issued.ExpiresAt)
	}
	if got.ExpiresAt.Sub(got.IssuedAt) != time.Hour {
		t.Errorf("TTL = %v, хотели 1h", got.ExpiresAt.Sub(got.IssuedAt))
	}
}

func TestParse_SameSecretAcrossManagers(t *testing.T) {
	a := newTestManager(t, "shared")
	b := newTestManager(t, "shared")
	token, _, _ := a.Issue("admin")
	if _, err := b.Parse(token); err != nil {
		t.Errorf("токен с тем же секретом отклонён: %v", err)
	}

	// Пустой секрет — случайный ключ для каждого менеджера
	r1 := newTestManager(t, "")
	r2 := newTestManager(t, "")
	token, _, _ = r1.Issue("admin")
	if _, err := r2.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("токен принят менеджером с другим случайным ключом: %v", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	sm := newTestManager(t, "test-secret")
	valid, _, _ := sm.Issue("admin")

	other := newTestManager(t, "other-secret")
	foreign, _, _ := other.Issue("admin")

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  "admin",
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString(sm.key)

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(sm.key)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"foreign key":  foreign,
		"tampered":     tampered,
		"alg none":     none,
		"no exp":       noExp,
		"wrong issuer": wrongIssuer,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := sm.Parse(token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Parse() = %v, хотели ErrInvalidSession", err)
			}
		})
	}
}

func TestParse_Expired(t *testing.T) {
	sm := newTestManager(t, "test-secret")
	token, _, _ := sm.Issue("admin")

	sm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := sm.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Parse() истёкшего токена = %v, хотели ErrInvalidSession", err)
	}
}

func TestNeedsRefresh(t *testing.T) {
	sm := newTestManager(t, "test-secret")
	_, data, _ := sm.Issue("admin")

	if sm.NeedsRefresh(data) {
		t.Error("свежая сессия не должна обновляться")
	}
	sm.now = func() time.Time { return time.Now().Add(40 * time.Minute) }
	if !sm.NeedsRefresh(data) {
		t.Error("сессия старше половины TTL должна обновляться")
	}
}

func TestRevoke(t *testing.T) {
	sm := newTestManager(t, "test-secret")
	token, data, _ := sm.Issue("admin")
	other, _, _ := sm.Issue("admin")

	// Продление сохраняет id сессии
	rec := httptest.NewRecorder()
	renewed, err := sm.RenewSessionCookie(rec, data)
	if err != nil {
		t.Fatalf("RenewSessionCookie() ошибка: %v", err)
	}
	if renewed.ID != data.ID {
		t.Errorf("id после продления = %q, хотели %q", renewed.ID, data.ID)
	}
	renewedToken := rec.Result().Cookies()[0].Value

	sm.Revoke(data)
	for name, tok := range map[string]string{"исходный": token, "продлённый": renewedToken} {
		if _, err := sm.Parse(tok); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("%s токен после Revoke: %v, хотели ErrInvalidSession", name, err)
		}
	}
	if _, err := sm.Parse(other); err != nil {
		t.Errorf("другая сессия отклонена после Revoke: %v", err)
	}
	sm.Revoke(nil)
}

func TestParse_RequiresSessionID(t *testing.T) {
	sm := newTestManager(t, "test-secret")
	noID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(sm.key)
	if _, err := sm.Parse(noID); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Parse() без jti = %v, хотели ErrInvalidSession", err)
	}
}

func TestSessionCookie(t *testing.T) {
	sm := newTestManager(t, "test-secret")

	// Cookie отсутствует
	s, err := sm.GetSessionFromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if s != nil || err != nil {
		t.Fatalf("GetSessionFromRequest() без cookie = %v, %v; хотели nil, nil", s, err)
	}

	rec := httptest.NewRecorder()
	if _, err := sm.SetSessionCookie(rec, "admin"); err != nil {
		t.Fatalf("SetSessionCookie() ошибка: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("ожидался 1 cookie, получено %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("параметры cookie: %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	s, err = sm.GetSessionFromRequest(req)
	if err != nil || s == nil || s.Username != "admin" {
		t.Fatalf("GetSessionFromRequest() = %+v, %v", s, err)
	}

	rec = httptest.NewRecorder()
	sm.ClearSessionCookie(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("ClearSessionCookie() не удалил cookie: %+v", cleared)
	}
}

func TestNewSessionManager_InvalidTTL(t *testing.T) {
	if _, err := NewSessionManager("x", 0, false); err == nil {
		t.Error("ожидалась ошибка для нулевого TTL")
	}
}
