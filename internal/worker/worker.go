package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"photo-watermark/internal/broker"
	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/export"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

var (
	ErrMalformedJob = errors.New("malformed export job")
	// ErrJobInterrupted marks a job cut short by shutdown. It is left
	// uncommitted and publishes no summary, so redelivery runs it again.
	ErrJobInterrupted = errors.New("export job interrupted by shutdown")
)

type jobRunner interface {
	Run(ctx context.Context, job domain.ExportJob, progress export.Progress) (*domain.ExportSummary, error)
}

// Worker runs export jobs taken from the queue with a fixed number of
// goroutines and publishes one summary per job.
type Worker struct {
	consumer    broker.Consumer
	results     broker.Producer
	runner      jobRunner
	retries     retry.Strategy
	concurrency int
	logger      *zlog.Zerolog
	wg          sync.WaitGroup
}

func NewWorker(consumer broker.Consumer, results broker.Producer, runner jobRunner, concurrency int, retries retry.Strategy, logger *zlog.Zerolog) *Worker {
	if logger == nil {
		logger = &zlog.Logger
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		consumer:    consumer,
		results:     results,
		runner:      runner,
		retries:     retries,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run blocks until ctx is cancelled and every in-flight job has finished
// its current image.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.retries)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	<-ctx.Done()
	w.logger.Info().Msg("Shutting down worker gracefully...")
	w.wg.Wait()
	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			start := time.Now()
			err := w.safeProcessMessage(ctx, id, msg)
			if errors.Is(err, ErrJobInterrupted) {
				w.logger.Warn().
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Job interrupted, leaving message for redelivery")
				continue
			}
			if err != nil && !errors.Is(err, ErrMalformedJob) {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}
			if err := w.consumer.Commit(context.WithoutCancel(ctx), msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message")
				continue
			}
			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(start)).
				Msg("Message committed")
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var job domain.ExportJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		w.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal job")
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}

	w.logger.Info().
		Str("job_id", job.ID).
		Int("items", len(job.Items)).
		Int64("offset", msg.Offset).
		Msg("Export job started")

	summary, err := w.runner.Run(ctx, job, func(done, total int, source string) {
		w.logger.Debug().
			Str("job_id", job.ID).
			Int("done", done).
			Int("total", total).
			Str("source", source).
			Msg("Export progress")
	})
	if err == nil && summary.Status == domain.StatusCancelled && ctx.Err() != nil {
		return fmt.Errorf("%w: job %s stopped after %d of %d items", ErrJobInterrupted, job.ID, summary.Succeeded+summary.Failed, summary.Total)
	}
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Export job rejected")
		summary = &domain.ExportSummary{
			JobID:    job.ID,
			Status:   domain.StatusFailed,
			Total:    len(job.Items),
			Failures: []domain.ExportFailure{{Error: err.Error()}},
		}
	}

	if err := w.sendSummary(context.WithoutCancel(ctx), summary); err != nil {
		return fmt.Errorf("failed to send summary: %w", err)
	}

	w.logger.Info().
		Str("job_id", summary.JobID).
		Str("status", string(summary.Status)).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Export job finished")
	return nil
}

func (w *Worker) sendSummary(ctx context.Context, summary *domain.ExportSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return w.results.Send(ctx, w.retries, []byte(summary.JobID), data)
}
