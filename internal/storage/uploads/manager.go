// Пакет uploads — жизненный цикл загруженных документов обучений:
// проверка типа, очистка имени, уникальное имя хранения, запись,
// выдача и удаление через storage.Backend.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/safety-portal/internal/storage"
)

// Ошибки менеджера загрузок.
var (
	// ErrInvalidFileType — расширение не входит в список разрешённых.
	ErrInvalidFileType = errors.New("недопустимый тип файла")
	// ErrPayloadTooLarge — превышен предельный размер загрузки.
	ErrPayloadTooLarge = errors.New("превышен допустимый размер файла")
	// ErrNotFound — документ отсутствует в хранилище.
	ErrNotFound = errors.New("документ не найден")
)

// AllowedExtensions — разрешённые расширения документов.
var AllowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
}

// DefaultMaxSize — предельный размер запроса с документом (5 MiB).
const DefaultMaxSize int64 = 5 * 1024 * 1024

// Prometheus метрики загрузок.
var (
	uploadsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_uploads_accepted_total",
		Help: "Количество принятых документов",
	})
	uploadsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safety_uploads_rejected_total",
		Help: "Количество отклонённых документов по причине",
	}, []string{"reason"})
	uploadsBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_uploads_bytes_total",
		Help: "Суммарный объём принятых документов в байтах",
	})
	uploadsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_uploads_removed_total",
		Help: "Количество удалённых документов",
	})
)

// Manager — менеджер загруженных документов.
type Manager struct {
	backend  storage.Backend
	maxSize  int64
	newToken func() string
	logger   *slog.Logger
}

// Option — функциональная опция Manager.
type Option func(*Manager)

// WithMaxSize задаёт предельный размер содержимого документа.
func WithMaxSize(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithTokenFunc подменяет генератор токенов (для тестов).
func WithTokenFunc(fn func() string) Option {
	return func(m *Manager) { m.newToken = fn }
}

// New создаёт менеджер поверх backend.
func New(backend storage.Backend, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		maxSize:  DefaultMaxSize,
		newToken: newToken,
		logger:   logger.With(slog.String("component", "uploads")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// newToken возвращает 32 шестнадцатеричных символа UUIDv4.
func newToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Allowed сообщает, допустимо ли расширение исходного имени файла.
func Allowed(rawFilename string) bool {
	return AllowedExtensions[extension(rawFilename)]
}

// Accept проверяет тип документа, записывает содержимое под именем
// {token}_{очищенное имя} и возвращает это имя.
// При любой ошибке в хранилище ничего не остаётся.
func (m *Manager) Accept(ctx context.Context, rawFilename string, content io.Reader) (string, error) {
	ext := extension(rawFilename)
	if !AllowedExtensions[ext] {
		uploadsRejectedTotal.WithLabelValues("type").Inc()
		return "", fmt.Errorf("%w: %q (допустимы pdf, doc, docx)", ErrInvalidFileType, rawFilename)
	}

	storedName := m.newToken() + "_" + storedBaseName(rawFilename, ext)

	size, err := m.backend.Put(ctx, storedName, &limitedReader{r: content, n: m.maxSize})
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.Is(err, ErrPayloadTooLarge) || errors.As(err, &maxErr) {
			uploadsRejectedTotal.WithLabelValues("size").Inc()
			// Частичная запись не должна оставаться в хранилище
			_ = m.backend.Delete(ctx, storedName)
			return "", fmt.Errorf("%w: предел %d байт", ErrPayloadTooLarge, m.maxSize)
		}
		uploadsRejectedTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("ошибка сохранения документа: %w", err)
	}

	uploadsAcceptedTotal.Inc()
	uploadsBytesTotal.Add(float64(size))
	m.logger.Info("Документ сохранён",
		slog.String("stored_name", storedName),
		slog.Int64("size", size),
	)
	return storedName, nil
}

// Remove удаляет документ. Отсутствие документа ошибкой не считается.
func (m *Manager) Remove(ctx context.Context, storedName string) error {
	if !validStoredName(storedName) {
		return fmt.Errorf("недопустимое имя документа: %q", storedName)
	}
	if err := m.backend.Delete(ctx, storedName); err != nil {
		return fmt.Errorf("ошибка удаления документа %s: %w", storedName, err)
	}
	uploadsRemovedTotal.Inc()
	m.logger.Debug("Документ удалён", slog.String("stored_name", storedName))
	return nil
}

// Resolve открывает документ для выдачи клиенту.
// Вызывающий код обязан закрыть reader.
func (m *Manager) Resolve(ctx context.Context, storedName string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	if !validStoredName(storedName) {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, storedName)
	}

	rc, info, err := m.backend.Open(ctx, storedName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, storedName)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("ошибка открытия документа: %w", err)
	}
	return rc, info, nil
}

// List возвращает все документы хранилища.
func (m *Manager) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	return m.backend.List(ctx)
}

// limitedReader возвращает ErrPayloadTooLarge, если источник длиннее n байт.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, ErrPayloadTooLarge
	}
	// Читаем на байт больше лимита, чтобы отличить «ровно n» от «больше n»
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return 0, ErrPayloadTooLarge
	}
	return n, err
}
