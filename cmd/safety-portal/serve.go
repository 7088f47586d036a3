package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	apihandlers "github.com/bigkaa/safety-portal/internal/api/handlers"
	"github.com/bigkaa/safety-portal/internal/config"
	"github.com/bigkaa/safety-portal/internal/database"
	"github.com/bigkaa/safety-portal/internal/repository"
	"github.com/bigkaa/safety-portal/internal/server"
	"github.com/bigkaa/safety-portal/internal/service"
	"github.com/bigkaa/safety-portal/internal/storage"
	"github.com/bigkaa/safety-portal/internal/storage/filestore"
	"github.com/bigkaa/safety-portal/internal/storage/s3store"
	"github.com/bigkaa/safety-portal/internal/storage/uploads"
	"github.com/bigkaa/safety-portal/internal/ui/auth"
	uihandlers "github.com/bigkaa/safety-portal/internal/ui/handlers"
	"github.com/bigkaa/safety-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/safety-portal/internal/ui/middleware"
	"github.com/bigkaa/safety-portal/internal/ui/pages"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервер",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
			}
			return serve(cfg)
		},
	}
}

// serve поднимает все компоненты и блокируется до сигнала завершения.
func serve(cfg *config.Config) error {
	// 1. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("Safety Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("SP_DEPHEALTH_GROUP") == "" {
		logger.Warn("SP_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 2. Миграции БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}

	// 3. PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 4. Repositories
	trainingsRepo := repository.NewTrainingRepository(pool)
	gearRepo := repository.NewGearRepository(pool)
	incidentsRepo := repository.NewIncidentRepository(pool)
	usersRepo := repository.NewUserRepository(pool)

	// 5. Пользователь admin
	authSvc := service.NewAuthService(usersRepo, 0, logger)
	created, err := authSvc.EnsureAdmin(ctx, cfg.AdminPassword)
	if err != nil {
		return err
	}
	warnDefaultPassword(logger, cfg, created)

	// 6. Хранилище документов
	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	uploadMgr := uploads.New(backend, logger, uploads.WithMaxSize(cfg.MaxUploadSize))

	// 7. Services
	stats := service.NewStatsService(trainingsRepo, gearRepo, incidentsRepo, cfg.StatsCacheTTL)
	sources := uihandlers.Sources{
		Trainings: service.NewTrainingService(trainingsRepo, uploadMgr, stats, nil, logger),
		Gear:      service.NewGearService(gearRepo, stats, nil, logger),
		Incidents: service.NewIncidentService(incidentsRepo, stats, nil, logger),
		Stats:     stats,
	}

	// 8. Фоновые задачи
	gcSvc := service.NewGCService(trainingsRepo, uploadMgr, cfg.GCInterval, cfg.GCMinAge, logger)
	gcSvc.Start(ctx)
	defer gcSvc.Stop()

	dephealthSvc, dephealthErr := service.NewDephealthService(
		"safety-portal",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		defer dephealthSvc.Stop()
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. UI
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookie)
	if err != nil {
		return fmt.Errorf("ошибка создания Session Manager: %w", err)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SP_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	bundle, err := i18n.Load(logger)
	if err != nil {
		return err
	}
	renderer, err := pages.New(bundle)
	if err != nil {
		return err
	}

	components := &server.Components{
		Health:         apihandlers.NewHealthHandler(database.NewReadinessChecker(pool)),
		AuthMiddleware: uimiddleware.NewUIAuth(sessionMgr, logger),
		Auth:           uihandlers.NewAuthHandler(authSvc, sessionMgr, renderer, logger),
		Dashboard:      uihandlers.NewDashboardHandler(sources, renderer, logger),
		Trainings:      uihandlers.NewTrainingsHandler(sources.Trainings, renderer, logger),
		Gear:           uihandlers.NewGearHandler(sources.Gear, renderer, logger),
		Incidents:      uihandlers.NewIncidentsHandler(sources.Incidents, renderer, logger),
		Uploads:        uihandlers.NewUploadsHandler(sources.Trainings, renderer, logger),
		Export:         uihandlers.NewExportHandler(sources, renderer, logger),
		NotFound:       uihandlers.NotFoundHandler(renderer, logger),
	}

	// 10. HTTP-сервер
	if err := server.New(cfg, logger, components).Run(); err != nil {
		return err
	}

	logger.Info("Останавливаем фоновые задачи...")
	return nil
}

// newBackend выбирает хранилище документов по SP_UPLOAD_BACKEND.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.UploadBackend {
	case config.UploadBackendS3:
		store, err := s3store.New(ctx, s3store.Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации S3: %w", err)
		}
		logger.Info("Документы хранятся в S3",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return store, nil
	default:
		store, err := filestore.New(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации каталога загрузок: %w", err)
		}
		logger.Info("Документы хранятся локально", slog.String("dir", store.DataDir()))
		return store, nil
	}
}
