package broker

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

type Message struct {
	Key    []byte
	Value  []byte
	Offset int64
	Raw    kafka.Message
}

type Producer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

type Consumer interface {
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}

func FromKafka(m kafka.Message) *Message {
	return &Message{Key: m.Key, Value: m.Value, Offset: m.Offset, Raw: m}
}
