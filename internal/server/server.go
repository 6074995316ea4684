package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pix-service/internal/config"
	"pix-service/internal/entities"
	"pix-service/internal/services"
)

type AdmissionInterface interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
	Stats() entities.AdmissionStats
}

type MonitorInterface interface {
	Confirm(ctx context.Context, transactionID string) bool
	Status() entities.MonitorStatus
}

type HttpServer struct {
	ps        services.ChargeServiceInterface
	admission AdmissionInterface
	monitor   MonitorInterface
	cfg       *config.Config
	logger    *slog.Logger
	startedAt time.Time
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	ps services.ChargeServiceInterface,
	admission AdmissionInterface,
	monitor MonitorInterface,
	logger *slog.Logger,
) *HttpServer {
	return &HttpServer{
		ps:        ps,
		admission: admission,
		monitor:   monitor,
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
}

func (s *HttpServer) ListenAndServe() error {
	portNum, err := strconv.Atoi(s.cfg.Port)
	if err != nil {
		portNum = 3000
	}

	s.server = s.createHTTPServer(portNum)
	return s.server.ListenAndServe()
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the routed and wrapped handler.
func (s *HttpServer) Handler() http.Handler {
	router := s.loadRoutes(http.NewServeMux())
	middlewareChain := NewChain(
		s.noCache,
		s.recoverPanic,
		s.logRequest,
	)

	return corsHandler()(middlewareChain(router))
}

func (s *HttpServer) createHTTPServer(port int) *http.Server {
	// Charge creation can spend several gateway timeouts plus backoff.
	writeTimeout := s.cfg.AdmitTimeout +
		time.Duration(s.cfg.RetryMaxAttempts)*s.cfg.GatewayTimeout +
		time.Duration(s.cfg.RetryMaxAttempts*s.cfg.RetryMaxAttempts)*s.cfg.RetryBaseDelay

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
}
