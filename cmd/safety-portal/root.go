package main

import (
	"github.com/spf13/cobra"

	"github.com/bigkaa/safety-portal/internal/config"
)

// newRootCmd собирает дерево команд CLI.
// Конфигурация читается из переменных окружения SP_* (см. internal/config).
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "safety-portal",
		Short: "Safety Portal — портал охраны труда",
		Long: `Safety Portal — web-приложение для учёта обучений по охране труда,
выдачи средств индивидуальной защиты и регистрации происшествий.

Конфигурация задаётся переменными окружения с префиксом SP_
и опционально YAML-файлом из SP_CONFIG_FILE.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newPasswdCmd())
	return root
}
