package kafka

import (
	"context"
	"errors"

	"photo-watermark/internal/broker"
	"photo-watermark/internal/config"

	"github.com/wb-go/wbf/retry"
)

// KafkaClient is the worker side: it consumes export jobs and produces
// batch summaries.
type KafkaClient struct {
	results *ProducerClient
	jobs    *ConsumerClient
}

func NewKafkaClient(cfg config.KafkaConfig) *KafkaClient {
	return &KafkaClient{
		results: NewProducerClient(cfg.Brokers, cfg.ResultsTopic),
		jobs:    NewConsumerClient(cfg.Brokers, cfg.JobsTopic, cfg.GroupID),
	}
}

func (k *KafkaClient) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return k.results.Send(ctx, strategy, key, value)
}

func (k *KafkaClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	k.jobs.Start(ctx, out, strategy)
}

func (k *KafkaClient) Commit(ctx context.Context, msg *broker.Message) error {
	return k.jobs.Commit(ctx, msg)
}

func (k *KafkaClient) Close() error {
	var errs []error

	if k.results != nil {
		if err := k.results.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if k.jobs != nil {
		if err := k.jobs.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
