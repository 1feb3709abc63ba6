// Пакет handlers — HTTP-обработчики QR Module.
// APIHandler агрегирует обработчики операций над QR-кодами и health checks.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/qrstore/internal/service"
)

// APIHandler — агрегирующий обработчик всех API endpoints.
type APIHandler struct {
	qrcodes *QRCodesHandler
	health  *HealthHandler
}

// NewAPIHandler создаёт агрегирующий обработчик.
func NewAPIHandler(svc *service.QRService, dataDir string, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		qrcodes: NewQRCodesHandler(svc, logger),
		health:  NewHealthHandler(dataDir, logger),
	}
}

// CreateQRCode — POST /qr-codes/.
func (h *APIHandler) CreateQRCode(w http.ResponseWriter, r *http.Request) {
	h.qrcodes.CreateQRCode(w, r)
}

// ListQRCodes — GET /qr-codes/.
func (h *APIHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	h.qrcodes.ListQRCodes(w, r)
}

// RetrieveQRCode — GET /qr-codes/{filename}.
func (h *APIHandler) RetrieveQRCode(w http.ResponseWriter, r *http.Request) {
	h.qrcodes.RetrieveQRCode(w, r)
}

// DeleteQRCode — DELETE /qr-codes/{filename}.
func (h *APIHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	h.qrcodes.DeleteQRCode(w, r)
}

// HealthLive — GET /health/live.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — GET /health/ready.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}
