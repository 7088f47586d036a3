// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/bigkaa/safety-portal/internal/repository"
	"github.com/bigkaa/safety-portal/internal/storage/uploads"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrAuthFailed — неверные учётные данные.
	ErrAuthFailed = errors.New("неверное имя пользователя или пароль")
	// ErrInvalidFileType — недопустимый тип документа.
	ErrInvalidFileType = uploads.ErrInvalidFileType
	// ErrPayloadTooLarge — документ превышает допустимый размер.
	ErrPayloadTooLarge = uploads.ErrPayloadTooLarge
)

// mapRepoErr переводит ошибки репозитория в ошибки сервисного слоя.
func mapRepoErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
