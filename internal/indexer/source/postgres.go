// Package source loads the initial document set from PostgreSQL.
//
// Documents live in a table shaped like
//
//	CREATE TABLE documents (id BIGINT PRIMARY KEY, fields JSONB NOT NULL);
//
// where fields is a flat object of string values. Rows are returned in id
// order so repeated loads stage documents in the same order and receive
// the same index ids.
package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
)

const selectDocuments = `SELECT id, fields FROM documents ORDER BY id`

type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{
		client: client,
		logger: slog.Default().With("component", "document-source"),
	}
}

// Load reads every document inside one read-only repeatable-read
// transaction, so the result is a consistent snapshot of the table.
func (p *Postgres) Load(ctx context.Context) ([]index.Document, error) {
	var docs []index.Document
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := p.client.InTx(ctx, opts, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, selectDocuments)
		if err != nil {
			return fmt.Errorf("querying documents: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id  int64
				raw []byte
			)
			if err := rows.Scan(&id, &raw); err != nil {
				return fmt.Errorf("scanning document row: %w", err)
			}
			doc, err := DecodeFields(raw)
			if err != nil {
				return fmt.Errorf("document %d: %w", id, err)
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("documents loaded", "count", len(docs))
	return docs, nil
}

// DecodeFields turns a JSONB fields column into a staged document.
func DecodeFields(raw []byte) (index.Document, error) {
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return index.Document{}, apperrors.Wrap(apperrors.ErrSerialization, err, "decoding fields")
	}
	if fields == nil {
		fields = make(map[string]string)
	}
	return index.Document{Fields: fields}, nil
}
