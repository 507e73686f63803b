package indexer

import "github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"

const (
	// PlainSearchLimit caps Search. It is not configurable.
	PlainSearchLimit = 10
	// FuzzyResultLimit caps SearchFuzzy.
	FuzzyResultLimit = 10
	// DefaultLimit is used by SearchWithOptions when Limit <= 0.
	DefaultLimit = 10
	// SuggestMaxDistance bounds the edit distance between a query token and
	// a suggested term.
	SuggestMaxDistance = 2
)

// SearchOptions are the knobs of a scored search.
type SearchOptions struct {
	Limit        int                `json:"limit"`
	Offset       int                `json:"offset"`
	FieldWeights map[string]float64 `json:"field_weights,omitempty"`
	Fuzzy        bool               `json:"fuzzy,omitempty"`
	MaxDistance  int                `json:"max_distance,omitempty"`
}

// SearchResult is the output of a scored search. Scores[i] belongs to
// Documents[i]; TotalHits counts candidates before Offset and Limit apply.
type SearchResult struct {
	Documents []index.Document `json:"documents"`
	Scores    []float64        `json:"scores"`
	TotalHits int              `json:"total_hits"`
}

// IndexStats reports index size. MemoryUsageBytes is an estimate built from
// struct sizes, not an exact accounting; PostingsBytes is the serialized
// size of all postings bitmaps.
type IndexStats struct {
	NumDocuments     int    `json:"num_documents"`
	NumStaged        int    `json:"num_staged"`
	NumTokens        int    `json:"num_tokens"`
	MemoryUsageBytes uint64 `json:"memory_usage_bytes"`
	PostingsBytes    uint64 `json:"postings_bytes"`
}
