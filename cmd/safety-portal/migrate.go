package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bigkaa/safety-portal/internal/config"
	"github.com/bigkaa/safety-portal/internal/database"
	"github.com/bigkaa/safety-portal/internal/repository"
	"github.com/bigkaa/safety-portal/internal/service"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции схемы БД",
		Long: `Управление схемой PostgreSQL.

Примеры:
  safety-portal migrate up       # применить все миграции
  safety-portal migrate down 1   # откатить последнюю миграцию`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Применить все миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg)
			if err := database.Migrate(cfg, logger); err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), cfg, logger)
		},
	}

	down := &cobra.Command{
		Use:   "down N",
		Short: "Откатить N последних миграций",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[0])
			if err != nil || steps <= 0 {
				return fmt.Errorf("N должно быть положительным целым числом: %q", args[0])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg, steps, config.SetupLogger(cfg))
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}

// seedAdmin создаёт пользователя admin, если его ещё нет.
func seedAdmin(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	created, err := service.NewAuthService(repository.NewUserRepository(pool), 0, logger).
		EnsureAdmin(ctx, cfg.AdminPassword)
	if err != nil {
		return err
	}
	warnDefaultPassword(logger, cfg, created)
	return nil
}

func warnDefaultPassword(logger *slog.Logger, cfg *config.Config, created bool) {
	if created && cfg.AdminPassword == config.DefaultAdminPassword {
		logger.Warn("Пользователь admin создан с паролем по умолчанию, смените его: safety-portal passwd")
	}
}
