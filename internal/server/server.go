// Пакет server — HTTP-сервер Safety Portal с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/safety-portal/internal/api/errors"
	apihandlers "github.com/bigkaa/safety-portal/internal/api/handlers"
	"github.com/bigkaa/safety-portal/internal/api/middleware"
	"github.com/bigkaa/safety-portal/internal/config"
	uihandlers "github.com/bigkaa/safety-portal/internal/ui/handlers"
	"github.com/bigkaa/safety-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/safety-portal/internal/ui/middleware"
	"github.com/bigkaa/safety-portal/internal/ui/static"
)

// Components — обработчики и middleware, из которых собирается router.
type Components struct {
	Health         *apihandlers.HealthHandler
	AuthMiddleware *uimiddleware.UIAuth
	Auth           *uihandlers.AuthHandler
	Dashboard      *uihandlers.DashboardHandler
	Trainings      *uihandlers.TrainingsHandler
	Gear           *uihandlers.GearHandler
	Incidents      *uihandlers.IncidentsHandler
	Uploads        *uihandlers.UploadsHandler
	Export         *uihandlers.ExportHandler
	NotFound       http.HandlerFunc
}

// Server — HTTP-сервер Safety Portal.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, c *Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi router.
// Публичные: /static/*, /login, /logout, /set-language, /health/*, /metrics.
// Остальные маршруты требуют сессии.
func NewRouter(cfg *config.Config, logger *slog.Logger, c *Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware)

	router.NotFound(c.NotFound)

	// Служебные endpoints — JSON
	router.Route("/health", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apierrors.NotFound(w, "неизвестный endpoint: "+r.URL.Path)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			apierrors.MethodNotAllowed(w, "метод "+r.Method+" не поддерживается")
		})
		r.Get("/live", c.Health.HealthLive)
		r.Get("/ready", c.Health.HealthReady)
	})
	router.Get("/metrics", c.Health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/login", c.Auth.HandleLoginPage)
	router.Post("/login", c.Auth.HandleLogin)
	router.Get("/logout", c.Auth.HandleLogout)
	router.Post("/set-language", uihandlers.HandleSetLanguage)

	router.Group(func(r chi.Router) {
		r.Use(c.AuthMiddleware.RequireAuthenticated())

		r.Get("/", c.Dashboard.HandleDashboard)
		r.Get("/export.xlsx", c.Export.HandleExport)
		r.Get("/uploads/{storedName}", c.Uploads.HandleDownload)

		r.Get("/add_training", c.Trainings.HandleAddForm)
		r.Get("/edit_training/{id}", c.Trainings.HandleEditForm)
		r.Post("/delete_training/{id}", c.Trainings.HandleDelete)
		r.Group(func(r chi.Router) {
			r.Use(limitBody(cfg.MaxUploadSize))
			r.Post("/add_training", c.Trainings.HandleAdd)
			r.Post("/edit_training/{id}", c.Trainings.HandleEdit)
		})

		r.Get("/add_gear", c.Gear.HandleAddForm)
		r.Post("/add_gear", c.Gear.HandleAdd)
		r.Get("/edit_gear/{id}", c.Gear.HandleEditForm)
		r.Post("/edit_gear/{id}", c.Gear.HandleEdit)
		r.Post("/delete_gear/{id}", c.Gear.HandleDelete)

		r.Get("/incidents", c.Incidents.HandleList)
		r.Post("/incidents", c.Incidents.HandleCreate)
		r.Get("/edit_incident/{id}", c.Incidents.HandleEditForm)
		r.Post("/edit_incident/{id}", c.Incidents.HandleEdit)
		r.Post("/delete_incident/{id}", c.Incidents.HandleDelete)
	})

	return router
}

// limitBody ограничивает размер тела запроса с документом.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
