package index

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// InvertedIndex is the committed term dictionary. Every term has a dense id
// in [0, Len()), and postings[id] holds the documents containing terms[id].
type InvertedIndex struct {
	dict     map[string]uint32
	terms    []string
	postings []*roaring.Bitmap
}

// NewInvertedIndex returns an empty dictionary.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{dict: make(map[string]uint32)}
}

func (ii *InvertedIndex) add(term string, bm *roaring.Bitmap) {
	if id, ok := ii.dict[term]; ok {
		ii.postings[id].Or(bm)
		return
	}
	ii.dict[term] = uint32(len(ii.terms))
	ii.terms = append(ii.terms, term)
	ii.postings = append(ii.postings, bm)
}

// Lookup returns the term id for term.
func (ii *InvertedIndex) Lookup(term string) (uint32, bool) {
	if ii == nil {
		return 0, false
	}
	id, ok := ii.dict[term]
	return id, ok
}

// Postings returns the bitmap for a term id obtained from Lookup. The bitmap
// is shared with the index and must not be modified.
func (ii *InvertedIndex) Postings(termID uint32) *roaring.Bitmap {
	return ii.postings[termID]
}

// Len returns the number of distinct terms.
func (ii *InvertedIndex) Len() int {
	if ii == nil {
		return 0
	}
	return len(ii.terms)
}

// PostingsLen returns the number of postings bitmaps. It always equals Len.
func (ii *InvertedIndex) PostingsLen() int {
	if ii == nil {
		return 0
	}
	return len(ii.postings)
}

// Terms yields every (term id, term) pair in id order.
func (ii *InvertedIndex) Terms() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		if ii == nil {
			return
		}
		for id, term := range ii.terms {
			if !yield(uint32(id), term) {
				return
			}
		}
	}
}

// Search returns the postings for term, or nil if the term is unknown.
func (ii *InvertedIndex) Search(term string) *roaring.Bitmap {
	id, ok := ii.Lookup(term)
	if !ok {
		return nil
	}
	return ii.Postings(id)
}

// SizeInBytes returns the serialized size of all postings bitmaps.
func (ii *InvertedIndex) SizeInBytes() uint64 {
	if ii == nil {
		return 0
	}
	var total uint64
	for _, bm := range ii.postings {
		total += bm.GetSizeInBytes()
	}
	return total
}
