// auth.go — проверка учётных данных и управление паролями.
// Пароли хранятся только как bcrypt-хэши.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
)

// AdminUsername — имя пользователя, создаваемого при первом запуске.
const AdminUsername = "admin"

// AuthService — сервис аутентификации.
type AuthService struct {
	users  repository.UserRepository
	cost   int
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService создаёт сервис аутентификации.
// cost — стоимость bcrypt (0 — bcrypt.DefaultCost).
func NewAuthService(users repository.UserRepository, cost int, logger *slog.Logger) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:  users,
		cost:   cost,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// dummy возвращает хэш для сравнения при неизвестном пользователе,
// чтобы время ответа не выдавало существование логина.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("safety-portal-dummy"), s.cost)
	})
	return s.dummyHash
}

// Authenticate проверяет логин и пароль.
// Попытки входа журналирует HTTP-слой, у него есть адрес клиента.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("поиск пользователя: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrAuthFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthFailed
	}
	return u, nil
}

// hash вычисляет bcrypt-хэш пароля.
func (s *AuthService) hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: пароль не может быть пустым", ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: пароль длиннее 72 байт", ErrValidation)
		}
		return "", fmt.Errorf("хэширование пароля: %w", err)
	}
	return string(h), nil
}

// EnsureAdmin создаёт пользователя admin, если его ещё нет.
// Возвращает true, если пользователь был создан.
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	if _, err := s.users.GetByUsername(ctx, AdminUsername); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("поиск пользователя %s: %w", AdminUsername, err)
	}

	h, err := s.hash(password)
	if err != nil {
		return false, err
	}
	if err := s.users.Create(ctx, &model.User{Username: AdminUsername, PasswordHash: h}); err != nil {
		// Параллельный старт второго экземпляра уже создал пользователя
		if errors.Is(err, repository.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("создание пользователя %s: %w", AdminUsername, err)
	}

	s.logger.Info("Создан пользователь по умолчанию", slog.String("username", AdminUsername))
	return true, nil
}

// SetPassword задаёт пароль пользователя, создавая его при отсутствии.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: имя пользователя не может быть пустым", ErrValidation)
	}
	h, err := s.hash(password)
	if err != nil {
		return err
	}

	err = s.users.UpdatePassword(ctx, username, h)
	if errors.Is(err, repository.ErrNotFound) {
		err = s.users.Create(ctx, &model.User{Username: username, PasswordHash: h})
	}
	if err != nil {
		return mapRepoErr(fmt.Sprintf("установка пароля %s", username), err)
	}

	s.logger.Info("Пароль пользователя обновлён", slog.String("username", username))
	return nil
}
