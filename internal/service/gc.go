// gc.go — фоновая очистка осиротевших документов.
//
// Документ считается осиротевшим, если ни одно обучение на него не
// ссылается и он старше SP_GC_MIN_AGE. Такие документы остаются после
// сбоя между записью документа и фиксацией строки в БД.
//
// Запускается как горутина с периодическим тикером (SP_GC_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/safety-portal/internal/repository"
)

// Prometheus метрики GC
var (
	gcRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_gc_runs_total",
		Help: "Общее количество запусков GC",
	})
	gcFilesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_gc_files_deleted_total",
		Help: "Общее количество осиротевших документов, удалённых GC",
	})
	gcErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_gc_errors_total",
		Help: "Общее количество ошибок GC",
	})
	gcDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safety_gc_duration_seconds",
		Help:    "Длительность выполнения GC в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// GCResult — результат одного запуска GC.
type GCResult struct {
	// Scanned — количество просмотренных документов хранилища
	Scanned int
	// DeletedCount — количество удалённых осиротевших документов
	DeletedCount int
	// Errors — количество ошибок
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// GCService — сервис фоновой очистки документов.
type GCService struct {
	trainings repository.TrainingRepository
	uploads   UploadStore
	interval  time.Duration
	minAge    time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGCService создаёт сервис GC.
func NewGCService(
	trainings repository.TrainingRepository,
	uploadStore UploadStore,
	interval time.Duration,
	minAge time.Duration,
	logger *slog.Logger,
) *GCService {
	return &GCService{
		trainings: trainings,
		uploads:   uploadStore,
		interval:  interval,
		minAge:    minAge,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "gc")),
	}
}

// Start запускает фоновую горутину GC. При нулевом интервале GC отключён.
func (gc *GCService) Start(ctx context.Context) {
	if gc.interval <= 0 {
		gc.logger.Info("GC отключён (SP_GC_INTERVAL=0)")
		return
	}

	gcCtx, cancel := context.WithCancel(ctx)
	gc.cancel = cancel
	gc.done = make(chan struct{})

	go gc.run(gcCtx)

	gc.logger.Info("GC запущен",
		slog.String("interval", gc.interval.String()),
		slog.String("min_age", gc.minAge.String()),
	)
}

// Stop останавливает фоновый процесс GC и ждёт завершения текущего прохода.
func (gc *GCService) Stop() {
	if gc.cancel == nil {
		return
	}
	gc.cancel()
	<-gc.done
	gc.logger.Info("GC остановлен")
}

// run — основной цикл фоновой горутины.
func (gc *GCService) run(ctx context.Context) {
	defer close(gc.done)

	gc.RunOnce(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gc.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход GC.
// Потокобезопасен: использует mutex для защиты от параллельного запуска.
func (gc *GCService) RunOnce(ctx context.Context) *GCResult {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	start := time.Now()
	result := &GCResult{}

	defer func() {
		result.Duration = time.Since(start)
		gcRunsTotal.Inc()
		gcFilesDeletedTotal.Add(float64(result.DeletedCount))
		gcErrorsTotal.Add(float64(result.Errors))
		gcDurationSeconds.Observe(result.Duration.Seconds())
	}()

	// Список объектов берётся до списка ссылок: документ, записанный
	// после чтения ссылок, моложе minAge и не будет удалён
	objects, err := gc.uploads.List(ctx)
	if err != nil {
		gc.logger.Error("GC: ошибка получения списка документов", slog.String("error", err.Error()))
		result.Errors++
		return result
	}

	referenced, err := gc.trainings.ListFiles(ctx)
	if err != nil {
		gc.logger.Error("GC: ошибка получения ссылок на документы", slog.String("error", err.Error()))
		result.Errors++
		return result
	}
	owned := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		owned[name] = struct{}{}
	}

	cutoff := gc.now().Add(-gc.minAge)
	for _, obj := range objects {
		result.Scanned++
		if _, ok := owned[obj.Name]; ok {
			continue
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		if err := gc.uploads.Remove(ctx, obj.Name); err != nil {
			gc.logger.Error("GC: ошибка удаления документа",
				slog.String("stored_name", obj.Name),
				slog.String("error", err.Error()),
			)
			result.Errors++
			continue
		}
		gc.logger.Debug("GC: осиротевший документ удалён", slog.String("stored_name", obj.Name))
		result.DeletedCount++
	}

	gc.logger.Info("GC завершён",
		slog.Int("scanned", result.Scanned),
		slog.Int("deleted", result.DeletedCount),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", time.Since(start)),
	)

	return result
}
