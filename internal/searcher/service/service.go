// Package service shares one Index between goroutines. Mutations hold the
// write lock and queries the read lock. Around the index it records
// metrics, keeps the query cache coherent, announces completed builds on
// Kafka and writes periodic snapshots.
package service

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Cache memoizes scored queries. *cache.QueryCache implements it.
type Cache interface {
	GetOrCompute(ctx context.Context, query string, opts indexer.SearchOptions, compute func() indexer.SearchResult) (indexer.SearchResult, bool)
	Invalidate(ctx context.Context) error
}

// Publisher announces completed builds. *kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// IndexCompleteEvent is published after every mutation that rebuilt the
// dictionary.
type IndexCompleteEvent struct {
	Trigger   string    `json:"trigger"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

type Service struct {
	mu      sync.RWMutex
	ix      *indexer.Index
	version uint64

	cfg       config.IndexConfig
	metrics   *metrics.Metrics
	cache     Cache
	publisher Publisher
	logger    *slog.Logger

	snapMu       sync.Mutex
	savedVersion uint64
}

func New(cfg config.IndexConfig, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		ix:      indexer.New(cfg),
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "index-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stages documents for the next Build.
func (s *Service) Add(docs ...index.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ix.AddDocuments(docs...); err != nil {
		return err
	}
	s.refreshGauges()
	return nil
}

// Build indexes every staged document. With nothing staged it has no
// side effects.
func (s *Service) Build(ctx context.Context) {
	_ = s.mutate(ctx, "build", func() (bool, error) {
		return s.ix.Build(), nil
	})
}

// Append stages fields as a new document on an already built index and
// rebuilds. It returns the id the document received.
func (s *Service) Append(ctx context.Context, fields map[string]string) (index.DocID, error) {
	var id index.DocID
	err := s.mutate(ctx, "append", func() (bool, error) {
		var err error
		id, err = s.appendLocked(fields)
		return err == nil, err
	})
	return id, err
}

// Upsert replaces the fields of document id, or appends them as a new
// document when id is unknown. It returns the id now holding the fields.
func (s *Service) Upsert(ctx context.Context, id index.DocID, fields map[string]string) (index.DocID, error) {
	err := s.mutate(ctx, "update", func() (bool, error) {
		if _, ok := s.ix.Get(id); !ok {
			var err error
			id, err = s.appendLocked(fields)
			return err == nil, err
		}
		return changed(s.ix.UpdateDocument(index.Document{ID: id, Fields: fields}))
	})
	return id, err
}

func (s *Service) appendLocked(fields map[string]string) (index.DocID, error) {
	id := s.ix.NextID()
	if id == math.MaxUint32 {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "document id space exhausted at %d", id)
	}
	s.ix.Reopen()
	// Reopen guarantees the Staging state AddDocuments requires.
	_ = s.ix.AddDocuments(index.Document{Fields: fields})
	s.ix.Build()
	return id, nil
}

func (s *Service) Update(ctx context.Context, doc index.Document) error {
	return s.mutate(ctx, "update", func() (bool, error) {
		return changed(s.ix.UpdateDocument(doc))
	})
}

func (s *Service) Remove(ctx context.Context, id index.DocID) error {
	return s.mutate(ctx, "remove", func() (bool, error) {
		return changed(s.ix.RemoveDocument(id))
	})
}

// Load replaces the index contents with the snapshot at path.
func (s *Service) Load(ctx context.Context, path string) error {
	err := s.mutate(ctx, "load", func() (bool, error) {
		return changed(s.ix.LoadFromFile(path))
	})
	if err == nil {
		s.snapMu.Lock()
		s.savedVersion = s.currentVersion()
		s.snapMu.Unlock()
	}
	return err
}

// mutate runs fn under the write lock. When fn reports a change the
// version moves, cached queries are dropped and an IndexCompleteEvent is
// published.
func (s *Service) mutate(ctx context.Context, trigger string, fn func() (bool, error)) error {
	s.mu.Lock()
	start := time.Now()
	ok, err := fn()
	if err != nil || !ok {
		s.mu.Unlock()
		return err
	}
	elapsed := time.Since(start)
	s.version++
	s.refreshGauges()
	stats := s.ix.Stats()
	s.mu.Unlock()

	s.metrics.BuildsTotal.WithLabelValues(trigger).Inc()
	s.metrics.BuildDuration.Observe(elapsed.Seconds())

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("cache invalidation failed", "trigger", trigger, "error", err)
		}
	}
	if s.publisher != nil {
		event := IndexCompleteEvent{
			Trigger:   trigger,
			Documents: stats.NumDocuments,
			Terms:     stats.NumTokens,
			Duration:  elapsed.String(),
			Timestamp: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, kafka.Event{Key: "index", Value: event}); err != nil {
			s.logger.Warn("publishing index-complete event failed", "trigger", trigger, "error", err)
		}
	}
	return nil
}

func changed(err error) (bool, error) {
	return err == nil, err
}

// refreshGauges must be called with mu held.
func (s *Service) refreshGauges() {
	st := s.ix.Stats()
	s.metrics.Documents.Set(float64(st.NumDocuments))
	s.metrics.StagedDocuments.Set(float64(st.NumStaged))
	s.metrics.Terms.Set(float64(st.NumTokens))
}

func (s *Service) currentVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Service) SearchIDs(query string) *roaring.Bitmap {
	start := time.Now()
	s.mu.RLock()
	ids := s.ix.SearchIDs(query)
	s.mu.RUnlock()
	s.observe(metrics.KindIDs, start, int(ids.GetCardinality()))
	return ids
}

func (s *Service) Search(query string) []index.Document {
	start := time.Now()
	s.mu.RLock()
	docs := s.ix.Search(query)
	s.mu.RUnlock()
	s.observe(metrics.KindPlain, start, len(docs))
	return docs
}

// SearchWithOptions answers from the cache when one is configured. The
// read lock is held until the computed result is stored, so an entry
// computed against an older index cannot outlive the invalidation that
// follows a mutation.
func (s *Service) SearchWithOptions(ctx context.Context, query string, opts indexer.SearchOptions) indexer.SearchResult {
	start := time.Now()
	s.mu.RLock()
	var result indexer.SearchResult
	if s.cache == nil {
		result = s.ix.SearchWithOptions(query, opts)
	} else {
		var cached bool
		result, cached = s.cache.GetOrCompute(ctx, query, opts, func() indexer.SearchResult {
			return s.ix.SearchWithOptions(query, opts)
		})
		if cached {
			s.metrics.CacheHitsTotal.Inc()
		} else {
			s.metrics.CacheMissesTotal.Inc()
		}
	}
	s.mu.RUnlock()
	s.observe(metrics.KindOptions, start, len(result.Documents))
	return result
}

func (s *Service) SearchFuzzy(query string, maxDistance int) []index.Document {
	start := time.Now()
	s.mu.RLock()
	docs := s.ix.SearchFuzzy(query, maxDistance)
	s.mu.RUnlock()
	s.observe(metrics.KindFuzzy, start, len(docs))
	return docs
}

func (s *Service) Suggest(query string, limit int) []string {
	start := time.Now()
	s.mu.RLock()
	terms := s.ix.Suggest(query, limit)
	s.mu.RUnlock()
	s.observe(metrics.KindSuggest, start, len(terms))
	return terms
}

func (s *Service) observe(kind string, start time.Time, results int) {
	s.metrics.SearchQueriesTotal.WithLabelValues(kind).Inc()
	s.metrics.SearchLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsCount.WithLabelValues(kind).Observe(float64(results))
}

func (s *Service) Get(id index.DocID) (index.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.Get(id)
}

func (s *Service) Stats() indexer.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.Stats()
}

// Built reports whether queries see any documents yet.
func (s *Service) Built() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.State() == indexer.StateBuilt
}
