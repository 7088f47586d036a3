package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/safety-portal/internal/repository/memory"
)

func newAuth(t *testing.T) (*AuthService, *memory.Users) {
	t.Helper()
	users := memory.NewUsers()
	return NewAuthService(users, bcrypt.MinCost, testLogger()), users
}

func TestEnsureAdmin(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin123")
	if err != nil {
		t.Fatalf("EnsureAdmin() ошибка: %v", err)
	}
	if !created {
		t.Fatal("EnsureAdmin() не создал пользователя")
	}

	u, err := users.GetByUsername(ctx, AdminUsername)
	if err != nil {
		t.Fatalf("пользователь admin не найден: %v", err)
	}
	if u.PasswordHash == "admin123" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Errorf("пароль хранится не как bcrypt-хэш: %q", u.PasswordHash)
	}

	// Повторный запуск не меняет пароль
	created, err = svc.EnsureAdmin(ctx, "other")
	if err != nil || created {
		t.Fatalf("повторный EnsureAdmin() = %v, %v", created, err)
	}
	if _, err := svc.Authenticate(ctx, AdminUsername, "admin123"); err != nil {
		t.Errorf("исходный пароль не подходит после повторного EnsureAdmin: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	if _, err := svc.EnsureAdmin(ctx, "admin123"); err != nil {
		t.Fatalf("EnsureAdmin() ошибка: %v", err)
	}

	u, err := svc.Authenticate(ctx, " admin ", "admin123")
	if err != nil {
		t.Fatalf("Authenticate() ошибка: %v", err)
	}
	if u.Username != AdminUsername {
		t.Errorf("Username = %q", u.Username)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"unknown user", "bob", "admin123"},
		{"empty", "", ""},
		{"case sensitive password", "admin", "ADMIN123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.username, tt.password); !errors.Is(err, ErrAuthFailed) {
				t.Errorf("Authenticate() = %v, хотели ErrAuthFailed", err)
			}
		})
	}
}

func TestSetPassword(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	// Создание отсутствующего пользователя
	if err := svc.SetPassword(ctx, "inspector", "s3cret"); err != nil {
		t.Fatalf("SetPassword() ошибка: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "inspector", "s3cret"); err != nil {
		t.Fatalf("Authenticate() после создания: %v", err)
	}

	// Смена пароля
	if err := svc.SetPassword(ctx, "inspector", "n3w"); err != nil {
		t.Fatalf("SetPassword() ошибка: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "inspector", "s3cret"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("старый пароль всё ещё подходит")
	}
	if _, err := svc.Authenticate(ctx, "inspector", "n3w"); err != nil {
		t.Errorf("новый пароль не подходит: %v", err)
	}

	if err := svc.SetPassword(ctx, "inspector", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("SetPassword(пустой) = %v, хотели ErrValidation", err)
	}
	if err := svc.SetPassword(ctx, " ", "x"); !errors.Is(err, ErrValidation) {
		t.Errorf("SetPassword(пустой логин) = %v, хотели ErrValidation", err)
	}
	if err := svc.SetPassword(ctx, "inspector", strings.Repeat("x", 80)); !errors.Is(err, ErrValidation) {
		t.Errorf("SetPassword(80 байт) = %v, хотели ErrValidation", err)
	}
}
