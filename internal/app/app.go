package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "photo-watermark/internal/broker/kafka"
	"photo-watermark/internal/config"
	"photo-watermark/internal/http-server/handler/watermark"
	"photo-watermark/internal/http-server/router"
	"photo-watermark/internal/usecase/processor/geometry"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	renderer, err := NewRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}

	exporter, err := NewExporter(context.Background(), cfg, renderer, logger)
	if err != nil {
		return nil, err
	}

	producer := kafka_impl.NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.JobsTopic)
	jobs := kafka_impl.NewJobPublisher(producer, cfg.DefaultRetryStrategy())
	boundary := geometry.NewBoundaryChecker(cfg.Boundary.Margin, cfg.Boundary.EdgeAllowance)

	watermarkHandler := watermark.NewWatermarkHandler(renderer, exporter, jobs, boundary, cfg.Server.Root, logger)

	h := &router.Handler{
		WatermarkHandler: watermarkHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(a.logger, cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func handleSignals(logger *zlog.Zerolog, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *zlog.Zerolog) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(logger, cancel)
	return ctx, cancel
}
