// Пакет server — HTTP-сервер QR Module.
// Маршрутизация через chi, JWT-аутентификация с проверкой scope,
// Prometheus метрики и graceful shutdown по SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/qrstore/internal/api/handlers"
	"github.com/bigkaa/qrstore/internal/api/middleware"
	"github.com/bigkaa/qrstore/internal/config"
)

// Scope'ы операций над QR-кодами.
const (
	ScopeRead  = "qr:read"
	ScopeWrite = "qr:write"
)

// JWTAuthProvider — интерфейс JWT middleware.
// Выделен для подстановки mock в тестах и работы без аутентификации.
type JWTAuthProvider interface {
	Middleware() func(http.Handler) http.Handler
}

// Server — HTTP-сервер QR Module.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	logger     *slog.Logger
}

// New создаёт HTTP-сервер с настроенной маршрутизацией.
// jwtAuth может быть nil: тогда endpoints коллекции доступны без токена
// (режим деградации при недоступном JWKS endpoint).
func New(cfg *config.Config, logger *slog.Logger, api *handlers.APIHandler, jwtAuth JWTAuthProvider) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Служебные endpoints без аутентификации
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Handle("/metrics", promhttp.Handler())

	// requireScope — noop при выключенной аутентификации
	requireScope := func(scope string) func(http.Handler) http.Handler {
		if jwtAuth == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RequireScope(scope)
	}

	router.Route("/qr-codes", func(r chi.Router) {
		if jwtAuth != nil {
			r.Use(jwtAuth.Middleware())
		}

		r.With(requireScope(ScopeWrite)).Post("/", api.CreateQRCode)
		r.With(requireScope(ScopeRead)).Get("/", api.ListQRCodes)
		r.With(requireScope(ScopeRead)).Get("/{filename}", api.RetrieveQRCode)
		r.With(requireScope(ScopeWrite)).Delete("/{filename}", api.DeleteQRCode)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Run запускает сервер и блокируется до получения SIGINT/SIGTERM
// или фатальной ошибки ListenAndServe.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.String("version", config.Version),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	case sig := <-quit:
		s.logger.Info("Получен сигнал остановки", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
