// Package consumer applies document ingest events read from Kafka to the
// index service.
package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// IngestEvent is the JSON payload on the ingest topic. A nil DocID on an
// upsert appends a new document.
type IngestEvent struct {
	Op     string            `json:"op"`
	DocID  *index.DocID      `json:"doc_id,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Target is the slice of the index service the consumer drives.
type Target interface {
	Append(ctx context.Context, fields map[string]string) (index.DocID, error)
	Upsert(ctx context.Context, id index.DocID, fields map[string]string) (index.DocID, error)
	Remove(ctx context.Context, id index.DocID) error
}

// HandleMessage returns a kafka.MessageHandler applying ingest events to
// target. Malformed events and deletes of unknown documents are logged and
// acknowledged so they do not block the partition.
func HandleMessage(target Target, m *metrics.Metrics) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		log := logger.FromContext(ctx).With("component", "index-consumer")
		event, err := kafka.DecodeJSON[IngestEvent](value)
		if err == nil {
			err = event.Validate()
		}
		if err != nil {
			log.Error("dropping invalid ingest event", "key", string(key), "error", err)
			m.IngestEventsTotal.WithLabelValues("invalid", "dropped").Inc()
			return nil
		}

		id, err := apply(ctx, target, event)
		m.IngestEventsTotal.WithLabelValues(event.Op, apperrors.Kind(err)).Inc()
		switch {
		case errors.Is(err, apperrors.ErrDocumentNotFound):
			log.Warn("ingest event for unknown document", "op", event.Op, "error", err)
			return nil
		case err != nil:
			return fmt.Errorf("applying %s event: %w", event.Op, err)
		}
		log.Debug("ingest event applied", "op", event.Op, "doc_id", id)
		return nil
	}
}

func apply(ctx context.Context, target Target, event IngestEvent) (index.DocID, error) {
	switch {
	case event.Op == OpDelete:
		return *event.DocID, target.Remove(ctx, *event.DocID)
	case event.DocID == nil:
		return target.Append(ctx, event.Fields)
	default:
		return target.Upsert(ctx, *event.DocID, event.Fields)
	}
}

// Validate checks the op and that a delete names its document.
func (e IngestEvent) Validate() error {
	switch e.Op {
	case OpUpsert:
		return nil
	case OpDelete:
		if e.DocID == nil {
			return apperrors.New(apperrors.ErrInvalidInput, "delete without doc_id")
		}
		return nil
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown op %q", e.Op)
	}
}
