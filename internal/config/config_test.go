package config

import (
	"image/color"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setRequiredEnv задаёт минимально необходимые переменные окружения.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QR_DATA_DIR", "/var/lib/qr")
	t.Setenv("QR_BASE_URL", "https://api.example.com")
	t.Setenv("QR_JWKS_URL", "https://auth.example.com/jwks")
}

// TestLoad_Defaults проверяет значения по умолчанию.
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port: ожидалось 8040, получено %d", cfg.Port)
	}
	if cfg.DownloadPath != "qr-codes" {
		t.Errorf("DownloadPath: ожидалось qr-codes, получено %q", cfg.DownloadPath)
	}
	if cfg.MaxImageSize != 2048 {
		t.Errorf("MaxImageSize: ожидалось 2048, получено %d", cfg.MaxImageSize)
	}
	if cfg.FillColor != (color.RGBA{A: 0xFF}) {
		t.Errorf("FillColor: ожидался чёрный, получено %v", cfg.FillColor)
	}
	if cfg.BackColor != (color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}) {
		t.Errorf("BackColor: ожидался белый, получено %v", cfg.BackColor)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %v", cfg.ShutdownTimeout)
	}
	if cfg.JWTLeeway != 30*time.Second {
		t.Errorf("JWTLeeway: ожидалось 30s, получено %v", cfg.JWTLeeway)
	}
}

// TestLoad_RequiredMissing проверяет ошибки на отсутствие обязательных переменных.
func TestLoad_RequiredMissing(t *testing.T) {
	tests := []struct {
		name string
		skip string
	}{
		{"без QR_DATA_DIR", "QR_DATA_DIR"},
		{"без QR_BASE_URL", "QR_BASE_URL"},
		{"без QR_JWKS_URL", "QR_JWKS_URL"},
	}

	all := map[string]string{
		"QR_DATA_DIR": "/var/lib/qr",
		"QR_BASE_URL": "https://api.example.com",
		"QR_JWKS_URL": "https://auth.example.com/jwks",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, val := range all {
				if key == tt.skip {
					t.Setenv(key, "")
					continue
				}
				t.Setenv(key, val)
			}

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка при отсутствии %s", tt.skip)
			} else if !strings.Contains(err.Error(), tt.skip) {
				t.Errorf("ошибка должна упоминать %s: %v", tt.skip, err)
			}
		})
	}
}

// TestLoad_BaseURLTrailingSlash проверяет нормализацию базового URL.
func TestLoad_BaseURLTrailingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QR_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL не нормализован: %q", cfg.BaseURL)
	}
}

// TestLoad_CustomColors проверяет парсинг цветов из окружения.
func TestLoad_CustomColors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QR_FILL_COLOR", "#1A2B3C")
	t.Setenv("QR_BACK_COLOR", "#FFEEDD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	if cfg.FillColor != (color.RGBA{R: 0x1A, G: 0x2B, B: 0x3C, A: 0xFF}) {
		t.Errorf("FillColor: получено %v", cfg.FillColor)
	}
	if cfg.BackColor != (color.RGBA{R: 0xFF, G: 0xEE, B: 0xDD, A: 0xFF}) {
		t.Errorf("BackColor: получено %v", cfg.BackColor)
	}
}

// TestLoad_InvalidColor проверяет ошибку на некорректный цвет.
func TestLoad_InvalidColor(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QR_FILL_COLOR", "black")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для некорректного цвета")
	}
}

// TestLoad_InvalidMaxImageSize проверяет валидацию размера изображения.
func TestLoad_InvalidMaxImageSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QR_MAX_IMAGE_SIZE", "-5")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для отрицательного размера")
	}
}

// TestLoad_InvalidLogFormat проверяет валидацию формата логов.
func TestLoad_InvalidLogFormat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QR_LOG_FORMAT", "xml")

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для недопустимого формата логов")
	}
}

// TestParseHexColor проверяет парсинг hex-цветов.
func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#000000", color.RGBA{A: 0xFF}, false},
		{"#FFFFFF", color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, false},
		{"ff0000", color.RGBA{R: 0xFF, A: 0xFF}, false}, // без решётки тоже допустимо
		{"#abc", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := parseHexColor(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseHexColor(%q): ожидалась ошибка", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHexColor(%q): неожиданная ошибка: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexColor(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}

// TestParseLogLevel проверяет преобразование уровней логирования.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q): ожидалась ошибка", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLogLevel(%q): неожиданная ошибка: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}
