package handlers

import (
	"bytes"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/qrstore/internal/service"
	"github.com/bigkaa/qrstore/internal/storage/qrstore"
)

// pngMagic — сигнатура PNG-файла.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// newTestRouter собирает API с хранилищем во временной директории.
func newTestRouter(t *testing.T) (*chi.Mux, *qrstore.Store) {
	t.Helper()

	store, err := qrstore.New(t.TempDir(), color.Black, color.White)
	if err != nil {
		t.Fatalf("не удалось создать хранилище: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store, "https://api.example.com", "qr-codes", 2048, logger)
	api := NewAPIHandler(svc, store.Dir(), logger)

	router := chi.NewRouter()
	router.Route("/qr-codes", func(r chi.Router) {
		r.Post("/", api.CreateQRCode)
		r.Get("/", api.ListQRCodes)
		r.Get("/{filename}", api.RetrieveQRCode)
		r.Delete("/{filename}", api.DeleteQRCode)
	})
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)

	return router, store
}

// createBody — хелпер для формирования тела POST-запроса.
func createBody(url string, size int) io.Reader {
	data, _ := json.Marshal(map[string]any{"url": url, "size": size})
	return bytes.NewReader(data)
}

// doCreate выполняет POST /qr-codes/ и возвращает recorder.
func doCreate(router *chi.Mux, url string, size int) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/qr-codes/", createBody(url, size))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestCreateQRCode проверяет создание QR-кода через API.
func TestCreateQRCode(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doCreate(router, "https://example.com", 256)

	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался статус 201, получен %d, тело: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message   string `json:"message"`
		QRCodeURL string `json:"qr_code_url"`
		Links     []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("некорректный JSON ответа: %v", err)
	}

	if resp.Message != "QR-код успешно создан." {
		t.Errorf("неожиданное сообщение: %q", resp.Message)
	}
	if !strings.HasPrefix(resp.QRCodeURL, "https://api.example.com/qr-codes/") {
		t.Errorf("неожиданный qr_code_url: %s", resp.QRCodeURL)
	}
	if !strings.HasSuffix(resp.QRCodeURL, ".png") {
		t.Errorf("qr_code_url должен указывать на PNG: %s", resp.QRCodeURL)
	}
	if len(resp.Links) == 0 {
		t.Error("ожидался непустой набор ссылок")
	}
}

// TestCreateThenRetrieve проверяет сквозной цикл создание → скачивание.
func TestCreateThenRetrieve(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doCreate(router, "https://example.com/page", 256)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался статус 201, получен %d", rec.Code)
	}

	var resp struct {
		QRCodeURL string `json:"qr_code_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	filename := resp.QRCodeURL[strings.LastIndex(resp.QRCodeURL, "/")+1:]

	getReq := httptest.NewRequest(http.MethodGet, "/qr-codes/"+filename, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)

	if getRec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", getRec.Code)
	}
	if ct := getRec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("ожидался Content-Type image/png, получен %s", ct)
	}
	if !bytes.HasPrefix(getRec.Body.Bytes(), pngMagic) {
		t.Error("тело ответа не является PNG")
	}
}

// TestCreateQRCode_Duplicate проверяет, что повторное создание даёт 409
// и не изменяет существующий файл.
func TestCreateQRCode_Duplicate(t *testing.T) {
	router, store := newTestRouter(t)

	rec := doCreate(router, "https://example.com", 256)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался статус 201, получен %d", rec.Code)
	}

	names, err := store.List()
	if err != nil || len(names) != 1 {
		t.Fatalf("ожидался 1 файл в хранилище: %v, %v", names, err)
	}
	original, err := os.ReadFile(filepath.Join(store.Dir(), names[0]))
	if err != nil {
		t.Fatal(err)
	}

	// Повтор, в том числе с другим размером
	rec = doCreate(router, "https://example.com", 512)
	if rec.Code != http.StatusConflict {
		t.Fatalf("ожидался статус 409, получен %d", rec.Code)
	}

	var resp struct {
		Message string `json:"message"`
		Links   []struct {
			Rel string `json:"rel"`
		} `json:"links"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "QR-код уже существует." {
		t.Errorf("неожиданное сообщение: %q", resp.Message)
	}
	if len(resp.Links) == 0 {
		t.Error("при конфликте ожидался непустой набор ссылок")
	}

	after, err := os.ReadFile(filepath.Join(store.Dir(), names[0]))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(original, after) {
		t.Error("существующий файл изменён повторным созданием")
	}
}

// TestCreateQRCode_Validation проверяет валидацию тела запроса.
func TestCreateQRCode_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"пустое тело", ""},
		{"некорректный JSON", "{не json"},
		{"пустой url", `{"url": "", "size": 256}`},
		{"нулевой size", `{"url": "https://example.com", "size": 0}`},
		{"отрицательный size", `{"url": "https://example.com", "size": -5}`},
		{"size больше максимума", `{"url": "https://example.com", "size": 100000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/qr-codes/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("ожидался статус 400, получен %d, тело: %s", rec.Code, rec.Body.String())
			}

			var resp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("некорректный конверт ошибки: %v", err)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("ожидался код VALIDATION_ERROR, получен %s", resp.Error.Code)
			}
		})
	}
}

// TestListQRCodes проверяет листинг созданных QR-кодов.
func TestListQRCodes(t *testing.T) {
	router, _ := newTestRouter(t)

	urls := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	for _, u := range urls {
		if rec := doCreate(router, u, 128); rec.Code != http.StatusCreated {
			t.Fatalf("не удалось создать QR-код %s: статус %d", u, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}

	var entries []struct {
		Message   string `json:"message"`
		QRCodeURL string `json:"qr_code_url"`
		Links     []struct {
			Rel string `json:"rel"`
		} `json:"links"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}

	if len(entries) != len(urls) {
		t.Fatalf("ожидалось %d записей, получено %d", len(urls), len(entries))
	}

	// Листинг возвращает исходные URL (восстановленные из имён файлов)
	got := make(map[string]bool)
	for _, e := range entries {
		if e.Message != "QR-код доступен" {
			t.Errorf("неожиданное сообщение: %q", e.Message)
		}
		if len(e.Links) == 0 {
			t.Error("ожидался непустой набор ссылок")
		}
		got[e.QRCodeURL] = true
	}
	for _, u := range urls {
		if !got[u] {
			t.Errorf("URL %s отсутствует в листинге", u)
		}
	}
}

// TestListQRCodes_Empty проверяет листинг пустого хранилища.
func TestListQRCodes_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("ожидался пустой массив, получено %s", body)
	}
}

// TestRetrieveQRCode_NotFound проверяет скачивание несуществующего файла.
func TestRetrieveQRCode_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/bm9wZQ.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("ожидался статус 404, получен %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("ожидался код NOT_FOUND, получен %s", resp.Error.Code)
	}
}

// TestDeleteQRCode проверяет цикл создание → удаление → 404.
func TestDeleteQRCode(t *testing.T) {
	router, store := newTestRouter(t)

	if rec := doCreate(router, "https://example.com", 256); rec.Code != http.StatusCreated {
		t.Fatalf("не удалось создать QR-код: статус %d", rec.Code)
	}

	names, _ := store.List()
	if len(names) != 1 {
		t.Fatalf("ожидался 1 файл, получено %d", len(names))
	}
	filename := names[0]

	delReq := httptest.NewRequest(http.MethodDelete, "/qr-codes/"+filename, nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)

	if delRec.Code != http.StatusNoContent {
		t.Fatalf("ожидался статус 204, получен %d", delRec.Code)
	}
	if delRec.Body.Len() != 0 {
		t.Errorf("тело ответа 204 должно быть пустым, получено %q", delRec.Body.String())
	}

	// Скачивание после удаления — 404
	getReq := httptest.NewRequest(http.MethodGet, "/qr-codes/"+filename, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)

	if getRec.Code != http.StatusNotFound {
		t.Errorf("ожидался статус 404 после удаления, получен %d", getRec.Code)
	}

	// Повторное удаление — 404
	delReq = httptest.NewRequest(http.MethodDelete, "/qr-codes/"+filename, nil)
	delRec = httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)

	if delRec.Code != http.StatusNotFound {
		t.Errorf("ожидался статус 404 при повторном удалении, получен %d", delRec.Code)
	}
}

// TestDeleteQRCode_NotFound проверяет удаление несуществующего файла.
func TestDeleteQRCode_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/qr-codes/bm9wZQ.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получен %d", rec.Code)
	}
}

// TestHealthLive проверяет liveness probe.
func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}

	var resp struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != "qr-module" {
		t.Errorf("неожиданный ответ: %+v", resp)
	}
}

// TestHealthReady проверяет readiness probe с доступным хранилищем.
func TestHealthReady(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestHealthReady_Unavailable проверяет readiness probe с удалённой директорией.
func TestHealthReady_Unavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	health := NewHealthHandler(filepath.Join(os.TempDir(), "qrstore-missing-dir"), logger)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	health.HealthReady(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ожидался статус 503, получен %d", rec.Code)
	}
}
