package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pix-service/internal/admission"
	"pix-service/internal/config"
	"pix-service/internal/gateway"
	"pix-service/internal/monitor"
	"pix-service/internal/notify"
	"pix-service/internal/queue"
	"pix-service/internal/retry"
	"pix-service/internal/server"
	"pix-service/internal/services"
	"pix-service/internal/telemetry"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
)

const version = "1.0.0"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shut down tracer", "error", err)
		}
	}()

	if !cfg.GatewayConfigured() {
		logger.Warn("gateway credentials missing, charge creation will fail until MP_PUBLIC_KEY and MP_SECRET_KEY are set")
	}

	q, closeQueue, err := newEventQueue(ctx, cfg)
	if err != nil {
		logger.Error("failed to create event queue", "error", err)
		os.Exit(1)
	}
	defer closeQueue()

	sink, closeSink := newSink(cfg, logger)
	defer closeSink()

	dispatcher := notify.NewDispatcher(q, sink, cfg.NotifyWorkers, cfg.NotifyTimeout, logger)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)

	gw := gateway.NewClient(gateway.Options{
		BaseURL:       cfg.GatewayURL,
		PublicKey:     cfg.GatewayPublicKey,
		SecretKey:     cfg.GatewaySecretKey,
		ProductName:   cfg.ProductName,
		ValidityDays:  cfg.ChargeValidityDays,
		CreateTimeout: cfg.GatewayTimeout,
		StatusTimeout: cfg.StatusTimeout,
	})

	paymentMonitor := monitor.New(gw, dispatcher, monitor.Options{
		Interval:    cfg.MonitorInterval,
		MaxAttempts: cfg.MonitorMaxAttempts,
		Concurrency: cfg.MonitorConcurrency,
	}, logger)
	scheduler := monitor.NewScheduler(paymentMonitor, logger)
	if err := scheduler.Start(context.Background()); err != nil {
		logger.Error("failed to start payment monitor", "error", err)
		os.Exit(1)
	}

	processorManager := services.NewProcessorManager(gw, retry.NewExecutor(cfg.RetryMaxAttempts, cfg.RetryBaseDelay), logger)
	paymentsService := services.NewPaymentService(processorManager, paymentMonitor, dispatcher, logger)
	admissionController := admission.NewController(cfg.MaxConcurrent, cfg.AdmitTimeout)

	srv := server.NewServer(cfg, paymentsService, admissionController, paymentMonitor, logger)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			cancel()
		}
	}()

	logger.Info("READY",
		"port", cfg.Port,
		"version", version,
		"amount", cfg.ChargeAmount,
		"monitor_interval", cfg.MonitorInterval,
		"notify_queue", cfg.NotifyQueue,
	)
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop payment monitor", "error", err)
	}
	if pending := paymentMonitor.Status().Pending; pending > 0 {
		logger.Warn("pending charges dropped on shutdown", "count", pending)
	}

	stopDispatch()
	dispatcher.Wait()
	stats := dispatcher.Stats()
	logger.Info("notifications drained", "delivered", stats.Delivered, "failed", stats.Failed)
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newEventQueue(ctx context.Context, cfg *config.Config) (queue.EventQueueInterface, func(), error) {
	if cfg.NotifyQueue != "redis" {
		q := queue.NewMemoryQueue(1024)
		return q, func() { q.Close() }, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		MinIdleConns: 5,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 500 * time.Millisecond,
		IdleTimeout:  2 * time.Minute,
	})

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		redisClient.Close()
		return nil, nil, err
	}

	q := queue.NewRedisQueue(redisClient)
	return q, func() {
		if err := q.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}, nil
}

func newSink(cfg *config.Config, logger *slog.Logger) (notify.Sink, func()) {
	if cfg.CRMWebhookURL == "" {
		logger.Warn("CRM_WEBHOOK_URL not set, charge events will not reach the CRM")
	}
	webhook := notify.NewWebhookSink(cfg.CRMWebhookURL, cfg.CRMConfirmationWebhookURL, cfg.NotifyTimeout, logger)

	if cfg.RabbitMQURL == "" {
		return webhook, func() {}
	}

	amqpSink, err := notify.NewAMQPSink(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		logger.Error("failed to connect to rabbitmq, publishing to the CRM webhook only", "error", err)
		return webhook, func() {}
	}

	return notify.FanoutSink{webhook, amqpSink}, amqpSink.Close
}
