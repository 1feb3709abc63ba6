// Пакет service — оркестрация операций над QR-кодами:
// кодек имён, файловое хранилище и построение ссылок.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/qrstore/internal/api/errors"
	"github.com/bigkaa/qrstore/internal/api/middleware"
	"github.com/bigkaa/qrstore/internal/codec"
	"github.com/bigkaa/qrstore/internal/domain/model"
	"github.com/bigkaa/qrstore/internal/links"
	"github.com/bigkaa/qrstore/internal/storage/qrstore"
)

// Error — ошибка операции с HTTP-кодом.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// QRService — сервис операций над QR-кодами.
type QRService struct {
	store *qrstore.Store
	// baseURL — публичный базовый URL без завершающего слэша
	baseURL string
	// downloadPath — публичный под-путь скачивания
	downloadPath string
	// maxImageSize — верхняя граница размера изображения в пикселях
	maxImageSize int
	logger       *slog.Logger
}

// New создаёт сервис операций над QR-кодами.
func New(store *qrstore.Store, baseURL, downloadPath string, maxImageSize int, logger *slog.Logger) *QRService {
	return &QRService{
		store:        store,
		baseURL:      strings.TrimRight(baseURL, "/"),
		downloadPath: downloadPath,
		maxImageSize: maxImageSize,
		logger:       logger.With(slog.String("component", "qr_service")),
	}
}

// downloadURL строит публичный URL скачивания для имени файла.
func (s *QRService) downloadURL(filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.downloadPath, filename)
}

// Create генерирует QR-код для sourceURL размером size×size пикселей.
// Имя файла выводится детерминированно из URL, поэтому создание
// идемпотентно на уровне ключа хранения. Если файл уже существует —
// возвращается ресурс с набором ссылок И ошибка 409: конфликт ожидаемый
// исход, а не сбой, и ответ должен нести ссылки.
func (s *QRService) Create(sourceURL string, size int) (*model.QRCode, *Error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, &Error{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    "Поле url обязательно",
		}
	}
	if size <= 0 {
		return nil, &Error{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    "Поле size должно быть положительным",
		}
	}
	if size > s.maxImageSize {
		return nil, &Error{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    fmt.Sprintf("Поле size превышает максимум %d", s.maxImageSize),
		}
	}

	filename := codec.Encode(sourceURL) + qrstore.Extension
	qr := &model.QRCode{
		Filename:    filename,
		SourceURL:   sourceURL,
		DownloadURL: s.downloadURL(filename),
		Links:       links.Build(links.OpCreate, filename, s.baseURL, s.downloadURL(filename)),
	}

	if err := s.store.Generate(sourceURL, filename, size); err != nil {
		if errors.Is(err, qrstore.ErrExists) {
			middleware.OperationsTotal.WithLabelValues("create", "conflict").Inc()
			return qr, &Error{
				StatusCode: http.StatusConflict,
				Code:       apierrors.CodeAlreadyExists,
				Message:    "QR-код уже существует.",
			}
		}
		s.logger.Error("Ошибка генерации QR-кода",
			slog.String("url", sourceURL),
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("create", "error").Inc()
		return nil, &Error{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка генерации QR-кода",
		}
	}

	middleware.OperationsTotal.WithLabelValues("create", "success").Inc()
	middleware.QRCodesTotal.Inc()

	s.logger.Info("QR-код создан",
		slog.String("url", sourceURL),
		slog.String("filename", filename),
		slog.Int("size", size),
	)

	return qr, nil
}

// List возвращает все QR-коды директории, отсортированные по имени файла.
// Файлы с именами, которые не декодируются обратно в URL (постороннее
// вмешательство в директорию), пропускаются с предупреждением —
// листинг целиком из-за них не падает.
func (s *QRService) List() ([]*model.QRCode, *Error) {
	names, err := s.store.List()
	if err != nil {
		s.logger.Error("Ошибка чтения директории", slog.String("error", err.Error()))
		return nil, &Error{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения хранилища QR-кодов",
		}
	}

	result := make([]*model.QRCode, 0, len(names))
	for _, name := range names {
		stem := strings.TrimSuffix(name, qrstore.Extension)
		sourceURL, decErr := codec.Decode(stem)
		if decErr != nil {
			s.logger.Warn("Пропущен файл с некорректным именем",
				slog.String("filename", name),
				slog.String("error", decErr.Error()),
			)
			continue
		}

		result = append(result, &model.QRCode{
			Filename:    name,
			SourceURL:   sourceURL,
			DownloadURL: s.downloadURL(name),
			Links:       links.Build(links.OpList, name, s.baseURL, s.downloadURL(name)),
		})
	}

	middleware.OperationsTotal.WithLabelValues("list", "success").Inc()
	return result, nil
}

// Serve отдаёт PNG-файл клиенту через http.ServeContent.
// filename — непрозрачный ключ из пути запроса; декодирование не требуется.
func (s *QRService) Serve(w http.ResponseWriter, r *http.Request, filename string) *Error {
	file, err := s.store.Open(filename)
	if err != nil {
		return s.mapStoreError("retrieve", filename, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.logger.Error("Ошибка получения stat файла",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return &Error{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}

	w.Header().Set("Content-Type", "image/png")

	// http.ServeContent автоматически обрабатывает Range requests,
	// If-Modified-Since и Content-Length.
	http.ServeContent(w, r, filename, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("retrieve", "success").Inc()
	return nil
}

// Delete удаляет QR-код по имени файла.
func (s *QRService) Delete(filename string) *Error {
	if err := s.store.Delete(filename); err != nil {
		return s.mapStoreError("delete", filename, err)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	middleware.QRCodesTotal.Dec()

	s.logger.Info("QR-код удалён", slog.String("filename", filename))
	return nil
}

// mapStoreError преобразует ошибку хранилища в ошибку операции.
func (s *QRService) mapStoreError(operation, filename string, err error) *Error {
	switch {
	case errors.Is(err, qrstore.ErrInvalidName):
		middleware.OperationsTotal.WithLabelValues(operation, "error").Inc()
		return &Error{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    fmt.Sprintf("Недопустимое имя файла: %s", filename),
		}
	case errors.Is(err, qrstore.ErrNotFound):
		middleware.OperationsTotal.WithLabelValues(operation, "not_found").Inc()
		return &Error{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("QR-код %s не найден", filename),
		}
	default:
		s.logger.Error("Ошибка файловой операции",
			slog.String("operation", operation),
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues(operation, "error").Inc()
		return &Error{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Внутренняя ошибка хранилища",
		}
	}
}
