package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer joins groupID on topic. A group without committed offsets
// starts at the newest message.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume calls handler for every message until ctx is cancelled. Handler
// errors are logged and the message is skipped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] Error reading message: %v", err)
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			log.Printf("[Kafka] Error handling message at offset %d: %v", msg.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
