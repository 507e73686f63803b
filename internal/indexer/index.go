// Package indexer implements the full-text index: staging documents, the
// parallel build of the term dictionary, and every query path (boolean,
// scored, fuzzy and prefix suggestion).
//
// An Index performs no internal synchronization. Callers that share one
// across goroutines must serialize mutations against everything else; see
// the service package for the read-write lock wrapper.
package indexer

import (
	"log/slog"
	"maps"
	"math"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// State is the lifecycle state of an Index.
type State int

const (
	StateStaging State = iota
	StateBuilt
)

func (s State) String() string {
	switch s {
	case StateStaging:
		return "staging"
	case StateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

type Index struct {
	cfg      config.IndexConfig
	analyzer tokenizer.Analyzer
	logger   *slog.Logger

	state    State
	staged   []index.Document
	docs     map[index.DocID]index.Document
	nextID   index.DocID
	inverted *index.InvertedIndex
}

// New creates an empty Index in the staging state.
func New(cfg config.IndexConfig) *Index {
	return &Index{
		cfg: cfg,
		analyzer: tokenizer.New(
			tokenizer.WithStopWords(cfg.StopWords),
			tokenizer.WithStemming(cfg.Stemming),
		),
		logger:   slog.Default().With("component", "index"),
		state:    StateStaging,
		docs:     make(map[index.DocID]index.Document),
		inverted: index.NewInvertedIndex(),
	}
}

// State reports whether the index is staging or built.
func (ix *Index) State() State {
	return ix.state
}

// Len returns the number of documents in the store. Staged documents are
// not counted until Build assigns them ids.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Get returns a copy of the stored document with the given id.
func (ix *Index) Get(id index.DocID) (index.Document, bool) {
	doc, ok := ix.docs[id]
	if !ok {
		return index.Document{}, false
	}
	return doc.Clone(), true
}

// NextID returns the id the next document passed to AddDocuments will
// receive when it is built.
func (ix *Index) NextID() index.DocID {
	return ix.nextID + index.DocID(len(ix.staged))
}

// AddDocuments stages docs for the next Build. Their ID fields are ignored.
// It fails with ErrAlreadyBuilt once the index is built, and with
// ErrInvalidInput when the documents would need ids past math.MaxUint32-1.
func (ix *Index) AddDocuments(docs ...index.Document) error {
	if ix.state == StateBuilt {
		return apperrors.New(apperrors.ErrAlreadyBuilt, "documents added after build")
	}
	if uint64(ix.NextID())+uint64(len(docs)) > math.MaxUint32 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "document id space exhausted at %d", ix.NextID())
	}
	for _, doc := range docs {
		ix.staged = append(ix.staged, doc.Clone())
	}
	ix.logger.Debug("documents staged", "count", len(docs), "staged", len(ix.staged))
	return nil
}

// Build assigns ids to the staged documents, moves them into the store and
// builds the term dictionary over the whole store. It does nothing and
// returns false when the index is already built or nothing is staged.
func (ix *Index) Build() bool {
	if ix.state == StateBuilt || len(ix.staged) == 0 {
		return false
	}
	for _, doc := range ix.staged {
		doc.ID = ix.nextID
		ix.nextID++
		ix.docs[doc.ID] = doc
	}
	added := len(ix.staged)
	ix.staged = nil
	ix.rebuild()
	ix.state = StateBuilt
	ix.logger.Info("index built", "added", added, "documents", len(ix.docs), "terms", ix.inverted.Len())
	return true
}

// Reopen returns a built index to staging so more documents can be added.
// The committed dictionary stays queryable until the next Build replaces it;
// removals and updates made while staging rebuild it.
func (ix *Index) Reopen() {
	ix.state = StateStaging
}

// RemoveDocument deletes a document. If the index is built, the dictionary
// is rebuilt from the remaining documents.
func (ix *Index) RemoveDocument(id index.DocID) error {
	if _, ok := ix.docs[id]; !ok {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, "doc id %d", id)
	}
	delete(ix.docs, id)
	if ix.committed() {
		ix.rebuild()
	}
	ix.logger.Debug("document removed", "doc_id", id, "documents", len(ix.docs))
	return nil
}

// UpdateDocument replaces the stored document with doc.ID and rebuilds the
// dictionary if the index is built. The document keeps its id.
func (ix *Index) UpdateDocument(doc index.Document) error {
	if _, ok := ix.docs[doc.ID]; !ok {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, "doc id %d", doc.ID)
	}
	ix.docs[doc.ID] = doc.Clone()
	if ix.committed() {
		ix.rebuild()
	}
	ix.logger.Debug("document updated", "doc_id", doc.ID)
	return nil
}

// committed reports whether a dictionary has been built that queries can
// see, either because the index is built or because it was reopened.
func (ix *Index) committed() bool {
	return ix.state == StateBuilt || ix.inverted.Len() > 0
}

// rebuild constructs a fresh dictionary from every stored document. It
// leaves the state alone. One task per document runs on a bounded pool;
// tasks only touch the shared TermMap.
func (ix *Index) rebuild() {
	start := time.Now()
	terms := index.NewTermMap(ix.cfg.TermMapShards)

	var g errgroup.Group
	g.SetLimit(ix.workers())
	for _, doc := range ix.docs {
		g.Go(func() error {
			terms.InsertAll(ix.documentTerms(doc), doc.ID)
			return nil
		})
	}
	_ = g.Wait()

	ix.inverted = terms.Drain()
	ix.logger.Debug("dictionary rebuilt",
		"documents", len(ix.docs),
		"terms", ix.inverted.Len(),
		"duration", time.Since(start),
	)
}

func (ix *Index) workers() int {
	if ix.cfg.Workers > 0 {
		return ix.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// documentTerms returns the distinct terms across all fields of doc.
func (ix *Index) documentTerms(doc index.Document) map[string]struct{} {
	set := make(map[string]struct{})
	for _, value := range doc.Fields {
		for term := range ix.analyzer.Terms(value) {
			set[term] = struct{}{}
		}
	}
	return set
}

// sortedIDs returns the stored ids in ascending order.
func (ix *Index) sortedIDs() []index.DocID {
	return slices.Sorted(maps.Keys(ix.docs))
}
