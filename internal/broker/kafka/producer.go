package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"photo-watermark/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
	topic    string
}

func NewProducerClient(brokers []string, topic string) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(brokers, topic),
		topic:    topic,
	}
}

func (p *ProducerClient) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	if err := p.producer.SendWithRetry(ctx, strategy, key, value); err != nil {
		return fmt.Errorf("failed to send to %s: %w", p.topic, err)
	}
	return nil
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}

// JobPublisher queues export jobs for the worker.
type JobPublisher struct {
	producer *ProducerClient
	retries  retry.Strategy
}

func NewJobPublisher(producer *ProducerClient, retries retry.Strategy) *JobPublisher {
	return &JobPublisher{producer: producer, retries: retries}
}

func (j *JobPublisher) PublishJob(ctx context.Context, job domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return j.producer.Send(ctx, j.retries, []byte(job.ID), data)
}

func (j *JobPublisher) Close() error {
	return j.producer.Close()
}
