// QR Module — HTTP-сервис хранения QR-кодов.
// Генерирует PNG с QR-кодами для URL, хранит их на диске и отдаёт
// по именам, детерминированно выведенным из исходных URL.
// Аутентификация — JWT с валидацией через JWKS внешнего провайдера.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/qrstore/internal/api/handlers"
	"github.com/bigkaa/qrstore/internal/api/middleware"
	"github.com/bigkaa/qrstore/internal/config"
	"github.com/bigkaa/qrstore/internal/server"
	"github.com/bigkaa/qrstore/internal/service"
	"github.com/bigkaa/qrstore/internal/storage/qrstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Запуск QR Module",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	store, err := qrstore.New(cfg.DataDir, cfg.FillColor, cfg.BackColor)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Инициализация gauge текущим содержимым директории
	if names, err := store.List(); err == nil {
		middleware.QRCodesTotal.Set(float64(len(names)))
	} else {
		logger.Warn("Не удалось посчитать QR-коды при старте", slog.String("error", err.Error()))
	}

	svc := service.New(store, cfg.BaseURL, cfg.DownloadPath, cfg.MaxImageSize, logger)
	api := handlers.NewAPIHandler(svc, cfg.DataDir, logger)

	var jwtAuth server.JWTAuthProvider
	auth, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
		JWKSURL:         cfg.JWKSUrl,
		CACertPath:      cfg.JWKSCACert,
		TLSSkipVerify:   cfg.TLSSkipVerify,
		ClientTimeout:   cfg.JWKSClientTimeout,
		RefreshInterval: cfg.JWKSRefreshInterval,
		JWTLeeway:       cfg.JWTLeeway,
	}, logger)
	if err != nil {
		// Сервис стартует без аутентификации: JWKS endpoint может быть
		// временно недоступен при одновременном развёртывании.
		logger.Warn("JWT-аутентификация отключена",
			slog.String("jwks_url", cfg.JWKSUrl),
			slog.String("error", err.Error()),
		)
	} else {
		jwtAuth = auth
		logger.Info("JWT-аутентификация включена", slog.String("jwks_url", cfg.JWKSUrl))
	}

	srv := server.New(cfg, logger, api, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
