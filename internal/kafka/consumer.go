package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads booking notifications published by the relay.
type Consumer struct {
	reader MessageReader
	logger *slog.Logger
}

type ConsumerOption func(*Consumer)

func WithReader(r MessageReader) ConsumerOption {
	return func(c *Consumer) {
		c.reader = r
	}
}

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func NewConsumer(brokers []string, groupID, topic string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.reader == nil {
		c.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		})
	}
	return c
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands every notification to handler until ctx ends, the reader
// fails or handler returns an error. Messages that do not decode are logged
// and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, Notification) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var n Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			c.logger.Warn("decode notification", "partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}
		if err := handler(ctx, n); err != nil {
			return err
		}
	}
}
