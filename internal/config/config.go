// Пакет config — загрузка и валидация конфигурации QR Module
// из переменных окружения. Без ambient-глобалов: Config создаётся
// один раз при старте и передаётся по ссылке в компоненты.
package config

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации QR Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Хранилище QR-кодов ---

	// Путь к директории хранения PNG-файлов
	DataDir string
	// Публичный базовый URL для построения ссылок
	BaseURL string
	// Публичный под-путь скачивания (без слэшей)
	DownloadPath string
	// Цвет модулей QR-кода
	FillColor color.Color
	// Цвет фона QR-кода
	BackColor color.Color
	// Максимальный размер изображения в пикселях
	MaxImageSize int

	// --- JWT / JWKS ---

	// URL JWKS endpoint внешнего провайдера токенов
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Пропускать проверку TLS-сертификатов JWKS endpoint
	TLSSkipVerify bool
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// QR_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("QR_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("QR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("QR_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// QR_DATA_DIR — обязательный, директория хранения PNG-файлов
	cfg.DataDir, err = getEnvRequired("QR_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// QR_BASE_URL — обязательный, публичный базовый URL
	baseURL, err := getEnvRequired("QR_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")

	// QR_DOWNLOAD_PATH — публичный под-путь скачивания (по умолчанию qr-codes)
	cfg.DownloadPath = strings.Trim(getEnvDefault("QR_DOWNLOAD_PATH", "qr-codes"), "/")
	if cfg.DownloadPath == "" {
		return nil, fmt.Errorf("QR_DOWNLOAD_PATH: значение не может быть пустым")
	}

	// QR_FILL_COLOR — цвет модулей (#RRGGBB, по умолчанию чёрный)
	cfg.FillColor, err = parseHexColor(getEnvDefault("QR_FILL_COLOR", "#000000"))
	if err != nil {
		return nil, fmt.Errorf("QR_FILL_COLOR: %w", err)
	}

	// QR_BACK_COLOR — цвет фона (#RRGGBB, по умолчанию белый)
	cfg.BackColor, err = parseHexColor(getEnvDefault("QR_BACK_COLOR", "#FFFFFF"))
	if err != nil {
		return nil, fmt.Errorf("QR_BACK_COLOR: %w", err)
	}

	// QR_MAX_IMAGE_SIZE — максимальный размер изображения (по умолчанию 2048)
	cfg.MaxImageSize, err = getEnvInt("QR_MAX_IMAGE_SIZE", 2048)
	if err != nil {
		return nil, fmt.Errorf("QR_MAX_IMAGE_SIZE: %w", err)
	}
	if cfg.MaxImageSize <= 0 {
		return nil, fmt.Errorf("QR_MAX_IMAGE_SIZE: значение должно быть положительным")
	}

	// QR_JWKS_URL — обязательный, JWKS endpoint провайдера токенов
	cfg.JWKSUrl, err = getEnvRequired("QR_JWKS_URL")
	if err != nil {
		return nil, err
	}

	// QR_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("QR_JWKS_CA_CERT", "")

	// QR_TLS_SKIP_VERIFY — пропуск проверки TLS-сертификатов (по умолчанию false)
	cfg.TLSSkipVerify, err = getEnvBool("QR_TLS_SKIP_VERIFY", false)
	if err != nil {
		return nil, fmt.Errorf("QR_TLS_SKIP_VERIFY: %w", err)
	}

	// QR_JWKS_CLIENT_TIMEOUT — таймаут HTTP-клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("QR_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// QR_JWKS_REFRESH_INTERVAL — интервал обновления ключей (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("QR_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("QR_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// QR_JWT_LEEWAY — допустимое отклонение времени при проверке JWT (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("QR_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_JWT_LEEWAY: %w", err)
	}

	// QR_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("QR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("QR_LOG_LEVEL: %w", err)
	}

	// QR_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("QR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("QR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// QR_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("QR_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_HTTP_READ_TIMEOUT: %w", err)
	}

	// QR_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("QR_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// QR_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("QR_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// QR_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("QR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
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

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
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

// parseHexColor преобразует строку вида "#RRGGBB" в color.RGBA.
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("некорректный формат цвета %q, ожидается #RRGGBB", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("некорректный формат цвета %q: %w", s, err)
	}

	return color.RGBA{
		R: uint8(v >> 16), //nolint:gosec // значение ограничено 24 битами
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xFF,
	}, nil
}
