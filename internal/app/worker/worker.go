package worker

import (
	"context"
	"fmt"
	"time"

	"photo-watermark/internal/app"
	kafka_impl "photo-watermark/internal/broker/kafka"
	"photo-watermark/internal/config"
	pool "photo-watermark/internal/worker"

	"github.com/wb-go/wbf/zlog"
)

const setupTimeout = 30 * time.Second

type Worker struct {
	cfg    *config.Config
	logger *zlog.Zerolog
	broker *kafka_impl.KafkaClient
	pool   *pool.Worker
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	renderer, err := app.NewRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}

	exporter, err := app.NewExporter(ctx, cfg, renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	brokerClient := kafka_impl.NewKafkaClient(cfg.Kafka)
	jobs := pool.NewWorker(brokerClient, brokerClient, exporter, cfg.Worker.Concurrency, cfg.DefaultRetryStrategy(), logger)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.JobsTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:    cfg,
		logger: logger,
		broker: brokerClient,
		pool:   jobs,
	}, nil
}

func (w *Worker) Run() error {
	ctx, cancel := app.SignalContext(w.logger)
	defer cancel()

	err := w.pool.Run(ctx)

	if closeErr := w.broker.Close(); closeErr != nil {
		w.logger.Error().Err(closeErr).Msg("Failed to close broker")
	}
	return err
}
