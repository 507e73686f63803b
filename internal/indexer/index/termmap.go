package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used when NewTermMap is given n <= 0.
const DefaultShards = 64

// TermMap is a concurrent term -> bitmap map used while building. Each shard
// is guarded by its own mutex, so writers only contend on terms that hash to
// the same shard.
type TermMap struct {
	shards []termShard
}

type termShard struct {
	mu       sync.Mutex
	postings map[string]*roaring.Bitmap
}

// NewTermMap creates a TermMap with n shards.
func NewTermMap(n int) *TermMap {
	if n <= 0 {
		n = DefaultShards
	}
	m := &TermMap{shards: make([]termShard, n)}
	for i := range m.shards {
		m.shards[i].postings = make(map[string]*roaring.Bitmap)
	}
	return m
}

func (m *TermMap) shard(term string) *termShard {
	return &m.shards[xxhash.Sum64String(term)%uint64(len(m.shards))]
}

// Insert records that docID contains term.
func (m *TermMap) Insert(term string, docID DocID) {
	s := m.shard(term)
	s.mu.Lock()
	bm, ok := s.postings[term]
	if !ok {
		bm = roaring.New()
		s.postings[term] = bm
	}
	bm.Add(docID)
	s.mu.Unlock()
}

// InsertAll records every term in terms for docID.
func (m *TermMap) InsertAll(terms map[string]struct{}, docID DocID) {
	for term := range terms {
		m.Insert(term, docID)
	}
}

// Len returns the number of distinct terms.
func (m *TermMap) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.postings)
		s.mu.Unlock()
	}
	return n
}

// Drain moves every entry into a new InvertedIndex and leaves the map empty.
// Term ids follow drain order and are not stable between builds.
func (m *TermMap) Drain() *InvertedIndex {
	ii := &InvertedIndex{
		dict:     make(map[string]uint32, m.Len()),
		terms:    make([]string, 0, m.Len()),
		postings: make([]*roaring.Bitmap, 0, m.Len()),
	}
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for term, bm := range s.postings {
			bm.RunOptimize()
			ii.add(term, bm)
		}
		s.postings = make(map[string]*roaring.Bitmap)
		s.mu.Unlock()
	}
	return ii
}
