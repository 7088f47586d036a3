// Точка входа Safety Portal — портал охраны труда: обучения с документами,
// учёт выдачи СИЗ, журнал происшествий.
// Команды: serve (HTTP-сервер), migrate (миграции БД), passwd (пароль пользователя).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
