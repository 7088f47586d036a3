package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/safety-portal/internal/config"
	"github.com/bigkaa/safety-portal/internal/database"
	"github.com/bigkaa/safety-portal/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("safety_test"),
		postgres.WithUsername("safety"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("SP_DB_HOST", host)
	t.Setenv("SP_DB_PORT", port.Port())
	t.Setenv("SP_DB_NAME", "safety_test")
	t.Setenv("SP_DB_USER", "safety")
	t.Setenv("SP_DB_PASSWORD", "test-password")
	t.Setenv("SP_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// --- Тесты TrainingRepository ---

func TestTrainingCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewTrainingRepository(pool)

	tr := &model.Training{Title: "Fire Drill", Date: day(2025, 3, 1), File: strPtr("abc_drill.pdf")}
	if err := repo.Create(ctx, tr); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if tr.ID == 0 {
		t.Fatal("ID не назначен")
	}
	if tr.Downloads != 0 {
		t.Errorf("Downloads = %d, хотели 0", tr.Downloads)
	}

	got, err := repo.GetByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Title != "Fire Drill" || got.FileName() != "abc_drill.pdf" {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.Date.Equal(day(2025, 3, 1)) {
		t.Errorf("Date = %v, хотели 2025-03-01", got.Date)
	}

	got.Title = "Fire Drill 2"
	got.File = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	got, _ = repo.GetByID(ctx, tr.ID)
	if got.Title != "Fire Drill 2" || got.HasFile() {
		t.Errorf("после Update() = %+v", got)
	}

	deleted, err := repo.Delete(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if deleted.ID != tr.ID {
		t.Errorf("Delete() вернул ID %d, хотели %d", deleted.ID, tr.ID)
	}
	if _, err := repo.GetByID(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления: %v, хотели ErrNotFound", err)
	}
	if _, err := repo.Delete(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete(): %v, хотели ErrNotFound", err)
	}
	if err := repo.Update(ctx, &model.Training{ID: tr.ID, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() несуществующего: %v, хотели ErrNotFound", err)
	}
}

func TestTrainingFileUnique(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewTrainingRepository(pool)

	if err := repo.Create(ctx, &model.Training{Title: "a", Date: day(2025, 1, 1), File: strPtr("x.pdf")}); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	err := repo.Create(ctx, &model.Training{Title: "b", Date: day(2025, 1, 1), File: strPtr("x.pdf")})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Create() с занятым документом: %v, хотели ErrConflict", err)
	}
}

func TestTrainingSearchOrderAndEscaping(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewTrainingRepository(pool)

	for _, tr := range []*model.Training{
		{Title: "Fire Drill", Date: day(2025, 1, 1)},
		{Title: "first aid", Date: day(2025, 2, 1)},
		{Title: "100% safety", Date: day(2025, 2, 1)},
	} {
		if err := repo.Create(ctx, tr); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}

	all, err := repo.Search(ctx, "")
	if err != nil {
		t.Fatalf("Search(\"\") ошибка: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Search(\"\") вернул %d, хотели 3", len(all))
	}
	// date DESC, id DESC
	wantOrder := []string{"100% safety", "first aid", "Fire Drill"}
	for i, w := range wantOrder {
		if all[i].Title != w {
			t.Errorf("all[%d] = %q, хотели %q", i, all[i].Title, w)
		}
	}

	fi, err := repo.Search(ctx, "FI")
	if err != nil {
		t.Fatalf("Search(FI) ошибка: %v", err)
	}
	if len(fi) != 2 {
		t.Errorf("Search(FI) вернул %d, хотели 2 (регистронезависимо)", len(fi))
	}

	pct, _ := repo.Search(ctx, "%")
	if len(pct) != 1 {
		t.Errorf("Search(%%) вернул %d, хотели 1 (%% экранирован)", len(pct))
	}

	none, err := repo.Search(ctx, "xyz-not-present")
	if err != nil {
		t.Fatalf("Search() ошибка: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Search(xyz-not-present) = %v, хотели пустой срез", none)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; хотели 3", n, err)
	}
}

func TestTrainingDownloads(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewTrainingRepository(pool)

	tr := &model.Training{Title: "Docs", Date: day(2025, 1, 1), File: strPtr("tok_doc.pdf")}
	if err := repo.Create(ctx, tr); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	for range 2 {
		ok, err := repo.IncrementDownloads(ctx, "tok_doc.pdf")
		if err != nil || !ok {
			t.Fatalf("IncrementDownloads() = %v, %v", ok, err)
		}
	}
	ok, err := repo.IncrementDownloads(ctx, "unknown.pdf")
	if err != nil || ok {
		t.Errorf("IncrementDownloads(unknown) = %v, %v; хотели false, nil", ok, err)
	}

	got, _ := repo.GetByID(ctx, tr.ID)
	if got.Downloads != 2 {
		t.Errorf("Downloads = %d, хотели 2", got.Downloads)
	}

	files, err := repo.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles() ошибка: %v", err)
	}
	if len(files) != 1 || files[0] != "tok_doc.pdf" {
		t.Errorf("ListFiles() = %v", files)
	}
}

// --- Тесты GearRepository и IncidentRepository ---

func TestGearCRUDAndSearch(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewGearRepository(pool)

	g := &model.GearDistribution{EmployeeName: "Ivan", GearItem: "Helmet", Date: day(2025, 1, 1)}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	g2 := &model.GearDistribution{EmployeeName: "Olga", GearItem: "Gloves", Date: day(2025, 1, 2)}
	if err := repo.Create(ctx, g2); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	res, err := repo.Search(ctx, "helm")
	if err != nil || len(res) != 1 || res[0].ID != g.ID {
		t.Errorf("Search(helm) = %v, %v", res, err)
	}
	res, _ = repo.Search(ctx, "olg")
	if len(res) != 1 || res[0].ID != g2.ID {
		t.Errorf("Search(olg) = %v", res)
	}

	g.GearItem = "Boots"
	if err := repo.Update(ctx, g); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	got, _ := repo.GetByID(ctx, g.ID)
	if got.GearItem != "Boots" {
		t.Errorf("GearItem = %q, хотели Boots", got.GearItem)
	}

	if err := repo.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if err := repo.Delete(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete(): %v, хотели ErrNotFound", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, хотели 1", n)
	}
}

func TestIncidentOrderConsistent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewIncidentRepository(pool)

	for _, i := range []*model.Incident{
		{Description: "slip on wet floor", ReportedBy: "Anna", Date: day(2025, 1, 1)},
		{Description: "fire alarm", ReportedBy: "Boris", Date: day(2025, 3, 1)},
		{Description: "broken ladder", ReportedBy: "Anna", Date: day(2025, 2, 1)},
	} {
		if err := repo.Create(ctx, i); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}

	all, _ := repo.Search(ctx, "")
	anna, _ := repo.Search(ctx, "anna")
	if len(all) != 3 || len(anna) != 2 {
		t.Fatalf("Search() вернул %d и %d записей", len(all), len(anna))
	}
	if all[0].Description != "fire alarm" {
		t.Errorf("первая запись = %q, хотели самую свежую", all[0].Description)
	}
	if anna[0].Description != "broken ladder" || anna[1].Description != "slip on wet floor" {
		t.Errorf("порядок поиска не совпадает с порядком списка: %q, %q", anna[0].Description, anna[1].Description)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(9999): %v, хотели ErrNotFound", err)
	}
}

// --- Тесты UserRepository и TxRunner ---

func TestUserRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	if err := repo.Create(ctx, &model.User{Username: "admin", PasswordHash: "h1"}); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if err := repo.Create(ctx, &model.User{Username: "admin", PasswordHash: "h2"}); !errors.Is(err, ErrConflict) {
		t.Errorf("повторный Create(): %v, хотели ErrConflict", err)
	}
	if err := repo.UpdatePassword(ctx, "admin", "h3"); err != nil {
		t.Fatalf("UpdatePassword() ошибка: %v", err)
	}
	u, err := repo.GetByUsername(ctx, "admin")
	if err != nil || u.PasswordHash != "h3" {
		t.Errorf("GetByUsername() = %+v, %v", u, err)
	}
	if err := repo.UpdatePassword(ctx, "ghost", "h"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePassword(ghost): %v, хотели ErrNotFound", err)
	}
}

func TestTxRunnerRollback(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	runner := NewTxRunner(pool)

	sentinel := errors.New("откат")
	err := runner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := NewGearRepository(tx).Create(ctx, &model.GearDistribution{
			EmployeeName: "Tx", GearItem: "Vest", Date: day(2025, 1, 1),
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx() = %v, хотели sentinel", err)
	}
	if n, _ := NewGearRepository(pool).Count(ctx); n != 0 {
		t.Errorf("Count() = %d после отката, хотели 0", n)
	}
}

// --- Модульные тесты без БД ---

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"fire", "%fire%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		if got := containsPattern(tt.term); got != tt.want {
			t.Errorf("containsPattern(%q) = %q, хотели %q", tt.term, got, tt.want)
		}
	}
}
