// metrics.go — Prometheus HTTP метрики Safety Portal.
// Регистрирует метрики: sp_http_requests_total, sp_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sp_http_requests_total",
			Help: "Общее количество HTTP-запросов к Safety Portal",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sp_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Safety Portal в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// Статические пути, попадающие в лейбл как есть.
var staticPaths = map[string]bool{
	"/": true, "/login": true, "/logout": true, "/set-language": true,
	"/add_training": true, "/add_gear": true, "/incidents": true,
	"/export.xlsx": true,
	"/health/live": true, "/health/ready": true, "/metrics": true,
}

// Пути с параметром: префикс → шаблон.
var paramPrefixes = []struct {
	prefix string
	result string
}{
	{"/edit_training/", "/edit_training/{id}"},
	{"/delete_training/", "/delete_training/{id}"},
	{"/edit_gear/", "/edit_gear/{id}"},
	{"/delete_gear/", "/delete_gear/{id}"},
	{"/edit_incident/", "/edit_incident/{id}"},
	{"/delete_incident/", "/delete_incident/{id}"},
	{"/uploads/", "/uploads/{storedName}"},
	{"/static/", "/static/*"},
}

// normalizePath заменяет параметры пути шаблонами для предотвращения
// роста кардинальности метрик. Неизвестные пути сводятся к "other".
// /edit_training/42 → /edit_training/{id}
func normalizePath(path string) string {
	if staticPaths[path] {
		return path
	}
	for _, p := range paramPrefixes {
		if len(path) > len(p.prefix) && strings.HasPrefix(path, p.prefix) {
			return p.result
		}
	}
	return "other"
}
