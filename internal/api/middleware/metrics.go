// metrics.go — Prometheus метрики QR Module.
// HTTP-метрики: qr_http_requests_total, qr_http_request_duration_seconds.
// Бизнес-метрики (qr_codes_total, qr_operations_total) обновляются
// из сервисного слоя.
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
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_http_requests_total",
			Help: "Общее количество HTTP-запросов к QR Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qr_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к QR Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// QRCodesTotal — текущее количество QR-кодов в хранилище (gauge).
	QRCodesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qr_codes_total",
			Help: "Текущее количество QR-кодов в хранилище",
		},
	)

	// OperationsTotal — общее количество операций над QR-кодами.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_operations_total",
			Help: "Общее количество операций над QR-кодами",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (имена файлов схлопываются в {filename} против роста кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет имя файла в пути на {filename} для предотвращения
// взрывного роста кардинальности метрик.
// /qr-codes/aHR0cHM6Ly9leGFtcGxlLmNvbQ.png → /qr-codes/{filename}
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics", "/qr-codes", "/qr-codes/":
		return path
	}

	const prefix = "/qr-codes/"
	if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return prefix + "{filename}"
	}

	return path
}
