// health.go — обработчики health check endpoints.
// /health/live — процесс жив; /health/ready — хранилище доступно для записи.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bigkaa/qrstore/internal/config"
)

// healthResponse — тело ответа health check.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Message string `json:"message,omitempty"`
}

// HealthHandler — обработчик health check endpoints.
type HealthHandler struct {
	dataDir string
	logger  *slog.Logger
}

// NewHealthHandler создаёт обработчик health checks.
func NewHealthHandler(dataDir string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "health_handler")),
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс работает.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "qr-module",
		Version: config.Version,
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет, что директория хранилища доступна для записи.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	probe := filepath.Join(h.dataDir, ".health_check")

	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		h.logger.Error("Директория хранилища недоступна для записи",
			slog.String("dir", h.dataDir),
			slog.String("error", err.Error()),
		)
		writeHealth(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unavailable",
			Service: "qr-module",
			Version: config.Version,
			Message: "Директория хранилища недоступна для записи",
		})
		return
	}
	_ = os.Remove(probe)

	writeHealth(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "qr-module",
		Version: config.Version,
	})
}

func writeHealth(w http.ResponseWriter, statusCode int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
