// Package kafka provides the producer and consumer used for document
// ingestion and index-complete notifications, backed by segmentio/kafka-go.
// Payloads are JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
)

// MessageHandler processes one message. Returning an error leaves the
// message uncommitted.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Reader is the part of *kafka.Reader the consumer loop uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  Reader
	logger  *slog.Logger
	handler MessageHandler
}

// NewConsumer joins cfg.ConsumerGroup on topic, starting from the earliest
// offset so a fresh group replays the full ingest history.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return NewConsumerWithReader(r, topic, handler)
}

func NewConsumerWithReader(r Reader, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start fetches and handles messages until ctx is cancelled, then closes
// the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		msgCtx := logger.WithAttrs(ctx, "partition", msg.Partition, "offset", msg.Offset)
		if err := c.handler(msgCtx, msg.Key, msg.Value); err != nil {
			logger.FromContext(msgCtx).Error("failed to process message", "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.FromContext(msgCtx).Error("failed to commit message", "error", err)
		}
	}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
