// Package httpserver exposes the operational HTTP surface: health probes,
// status, version and Prometheus metrics.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/config"
)

type statusService interface {
	Status(ctx context.Context) (*domain.Stats, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	service  statusService
	analyses domain.AnalysisRepository

	metricsHandler http.Handler
	healthChecks   []HealthCheck
	startTime      time.Time
}

func NewServer(cfg *config.Config, service statusService, analyses domain.AnalysisRepository, metricsHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		service:        service,
		analyses:       analyses,
		metricsHandler: metricsHandler,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
