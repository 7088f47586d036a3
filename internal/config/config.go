// Пакет config — загрузка и валидация конфигурации Safety Portal
// из переменных окружения (префикс SP_) и опционального YAML-файла.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// envPrefix — префикс переменных окружения.
const envPrefix = "SP"

// Допустимые backend'ы хранения загруженных документов.
const (
	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"
)

// Config содержит все параметры конфигурации Safety Portal.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Сессии и вход ---

	// Секрет подписи session-токенов (пустой — случайный на время жизни процесса)
	SessionSecret string
	// Время жизни сессии
	SessionTTL time.Duration
	// Secure flag для cookie (true за HTTPS)
	SecureCookie bool
	// Пароль, с которым создаётся пользователь admin при первом запуске
	AdminPassword string

	// --- Загрузки ---

	// Backend хранения документов: local, s3
	UploadBackend string
	// Директория хранения документов (local)
	UploadDir string
	// Предельный размер запроса с документом в байтах
	MaxUploadSize int64

	// --- S3 (только для UploadBackend=s3) ---

	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// --- Фоновые задачи ---

	// Интервал очистки осиротевших документов (0 — отключено)
	GCInterval time.Duration
	// Минимальный возраст осиротевшего документа перед удалением
	GCMinAge time.Duration
	// TTL кэша статистики dashboard
	StatsCacheTTL time.Duration
	// Группа topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения (и файла SP_CONFIG_FILE,
// если задан), валидирует обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%s_CONFIG_FILE: ошибка чтения %s: %w", envPrefix, path, err)
		}
	}

	env := &source{v: v}
	cfg := &Config{}
	var err error

	// --- Сервер ---

	if cfg.Port, err = env.int("port", 8080); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%s: значение %d вне допустимого диапазона 1-65535", envName("port"), cfg.Port)
	}

	if cfg.LogLevel, err = parseLogLevel(env.str("log_level", "info")); err != nil {
		return nil, fmt.Errorf("%s: %w", envName("log_level"), err)
	}

	cfg.LogFormat = env.str("log_format", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("%s: недопустимое значение %q, допустимые: json, text", envName("log_format"), cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = env.required("db_host"); err != nil {
		return nil, err
	}
	if cfg.DBPort, err = env.int("db_port", 5432); err != nil {
		return nil, err
	}
	if cfg.DBName, err = env.required("db_name"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = env.required("db_user"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = env.required("db_password"); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = env.str("db_ssl_mode", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("%s: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", envName("db_ssl_mode"), cfg.DBSSLMode)
	}

	// --- Сессии ---

	cfg.SessionSecret = env.str("session_secret", "")
	if cfg.SessionTTL, err = env.duration("session_ttl", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("%s: длительность должна быть положительной", envName("session_ttl"))
	}
	if cfg.SecureCookie, err = env.bool("secure_cookie", false); err != nil {
		return nil, err
	}
	cfg.AdminPassword = env.str("admin_password", DefaultAdminPassword)

	// --- Загрузки ---

	cfg.UploadBackend = strings.ToLower(env.str("upload_backend", UploadBackendLocal))
	cfg.UploadDir = env.str("upload_dir", "./uploads")
	maxUpload, err := env.int("max_upload_size", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("%s: значение должно быть положительным", envName("max_upload_size"))
	}
	cfg.MaxUploadSize = int64(maxUpload)

	cfg.S3Endpoint = strings.TrimRight(env.str("s3_endpoint", ""), "/")
	cfg.S3Region = env.str("s3_region", "us-east-1")
	cfg.S3Bucket = env.str("s3_bucket", "")
	cfg.S3AccessKeyID = env.str("s3_access_key_id", "")
	cfg.S3SecretAccessKey = env.str("s3_secret_access_key", "")

	switch cfg.UploadBackend {
	case UploadBackendLocal:
	case UploadBackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("%s: обязателен при %s=s3", envName("s3_bucket"), envName("upload_backend"))
		}
	default:
		return nil, fmt.Errorf("%s: недопустимое значение %q, допустимые: local, s3", envName("upload_backend"), cfg.UploadBackend)
	}

	// --- Фоновые задачи ---

	if cfg.GCInterval, err = env.duration("gc_interval", time.Hour); err != nil {
		return nil, err
	}
	if cfg.GCMinAge, err = env.duration("gc_min_age", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = env.duration("stats_cache_ttl", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.DephealthGroup = env.str("dephealth_group", "safety-portal")
	if cfg.DephealthCheckInterval, err = env.duration("dephealth_check_interval", 15*time.Second); err != nil {
		return nil, err
	}

	// --- Graceful shutdown ---

	if cfg.ShutdownTimeout, err = env.duration("shutdown_timeout", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultAdminPassword — пароль пользователя admin по умолчанию.
const DefaultAdminPassword = "admin123"

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без учётных данных (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// source — чтение значений через viper с единообразными ошибками.
type source struct {
	v *viper.Viper
}

// envName возвращает имя переменной окружения для ключа.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func (s *source) str(key, defaultVal string) string {
	val := strings.TrimSpace(s.v.GetString(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *source) required(key string) (string, error) {
	val := strings.TrimSpace(s.v.GetString(key))
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", envName(key))
	}
	return val, nil
}

func (s *source) int(key string, defaultVal int) (int, error) {
	raw := s.str(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: некорректное целое число: %q", envName(key), raw)
	}
	return n, nil
}

func (s *source) bool(key string, defaultVal bool) (bool, error) {
	raw := strings.ToLower(s.str(key, ""))
	switch raw {
	case "":
		return defaultVal, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s: некорректное логическое значение: %q", envName(key), raw)
}

func (s *source) duration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := s.str(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", envName(key), raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: длительность не может быть отрицательной", envName(key))
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
