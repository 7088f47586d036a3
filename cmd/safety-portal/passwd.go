package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/bigkaa/safety-portal/internal/config"
	"github.com/bigkaa/safety-portal/internal/database"
	"github.com/bigkaa/safety-portal/internal/repository"
	"github.com/bigkaa/safety-portal/internal/service"
)

const userFlag = "user"

var passwdFlags = map[string]cobraflags.Flag{
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Value: service.AdminUsername,
		Usage: "имя пользователя",
	},
}

func newPasswdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Задать пароль пользователя (пароль читается из stdin)",
		Long: `Задаёт пароль пользователя; отсутствующий пользователь создаётся.

Пример:
  echo 's3cret' | safety-portal passwd --user admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg)
			username := passwdFlags[userFlag].GetString()
			return setPassword(cmd.Context(), cfg, logger, username, password)
		},
	}

	cobraflags.RegisterMap(cmd, passwdFlags)
	return cmd
}

// readPassword читает первую строку stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("пароль не передан в stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("пароль не может быть пустым")
	}
	return password, nil
}

// setPassword применяет миграции и меняет пароль в одной транзакции.
func setPassword(ctx context.Context, cfg *config.Config, logger *slog.Logger, username, password string) error {
	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return repository.NewTxRunner(pool).RunInTx(ctx, func(tx pgx.Tx) error {
		auth := service.NewAuthService(repository.NewUserRepository(tx), 0, logger)
		return auth.SetPassword(ctx, username, password)
	})
}
