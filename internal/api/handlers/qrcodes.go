// qrcodes.go — HTTP-обработчики операций над QR-кодами.
// Создание и листинг отвечают JSON с сообщением и набором ссылок,
// скачивание отдаёт PNG напрямую, удаление — 204 без тела.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/qrstore/internal/api/errors"
	"github.com/bigkaa/qrstore/internal/api/middleware"
	"github.com/bigkaa/qrstore/internal/domain/model"
	"github.com/bigkaa/qrstore/internal/service"
)

// maxRequestBodySize — максимальный размер тела запроса (64 KB).
const maxRequestBodySize = 64 << 10

// createRequest — тело запроса на создание QR-кода.
type createRequest struct {
	URL  string `json:"url"`
	Size int    `json:"size"`
}

// qrCodeResponse — тело ответа для создания и листинга.
// При конфликте qr_code_url опускается, остаётся сообщение и набор ссылок.
type qrCodeResponse struct {
	Message   string       `json:"message"`
	QRCodeURL string       `json:"qr_code_url,omitempty"`
	Links     []model.Link `json:"links"`
}

// QRCodesHandler — обработчик HTTP-запросов к коллекции QR-кодов.
type QRCodesHandler struct {
	service *service.QRService
	logger  *slog.Logger
}

// NewQRCodesHandler создаёт обработчик операций над QR-кодами.
func NewQRCodesHandler(svc *service.QRService, logger *slog.Logger) *QRCodesHandler {
	return &QRCodesHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "qrcodes_handler")),
	}
}

// CreateQRCode обрабатывает POST /qr-codes/.
// 201 — создан; 409 — уже существует (с набором ссылок на существующий ресурс).
func (h *QRCodesHandler) CreateQRCode(w http.ResponseWriter, r *http.Request) {
	var req createRequest

	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			apierrors.ValidationError(w, "Пустое тело запроса")
			return
		}
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	qr, svcErr := h.service.Create(req.URL, req.Size)
	if svcErr != nil {
		// Конфликт — ожидаемый исход: отвечаем сообщением и ссылками
		// на существующий ресурс, а не конвертом ошибки.
		if svcErr.StatusCode == http.StatusConflict && qr != nil {
			h.logger.Info("Повторное создание QR-кода",
				slog.String("filename", qr.Filename),
				slog.String("subject", middleware.SubjectFromContext(r.Context())),
			)
			writeJSON(w, http.StatusConflict, qrCodeResponse{
				Message: svcErr.Message,
				Links:   qr.Links,
			})
			return
		}
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, qrCodeResponse{
		Message:   "QR-код успешно создан.",
		QRCodeURL: qr.DownloadURL,
		Links:     qr.Links,
	})
}

// ListQRCodes обрабатывает GET /qr-codes/.
// Возвращает массив записей с исходным URL и набором ссылок для каждого файла.
func (h *QRCodesHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	list, svcErr := h.service.List()
	if svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	entries := make([]qrCodeResponse, 0, len(list))
	for _, qr := range list {
		entries = append(entries, qrCodeResponse{
			Message:   "QR-код доступен",
			QRCodeURL: qr.SourceURL,
			Links:     qr.Links,
		})
	}

	writeJSON(w, http.StatusOK, entries)
}

// RetrieveQRCode обрабатывает GET /qr-codes/{filename}.
// Отдаёт PNG-файл как image/png.
func (h *QRCodesHandler) RetrieveQRCode(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if svcErr := h.service.Serve(w, r, filename); svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
	}
}

// DeleteQRCode обрабатывает DELETE /qr-codes/{filename}.
// 204 — удалён; 404 — не найден (в том числе при конкурентном удалении).
func (h *QRCodesHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if svcErr := h.service.Delete(filename); svcErr != nil {
		apierrors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON записывает JSON-ответ с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
