package index

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
)

func TestTermMapConcurrentInsertAndDrain(t *testing.T) {
	m := NewTermMap(8)
	const docs = 200
	var wg sync.WaitGroup
	for i := 0; i < docs; i++ {
		wg.Add(1)
		go func(id DocID) {
			defer wg.Done()
			terms := map[string]struct{}{"common": {}}
			terms[fmt.Sprintf("term%d", id%10)] = struct{}{}
			m.InsertAll(terms, id)
		}(DocID(i))
	}
	wg.Wait()

	if got := m.Len(); got != 11 {
		t.Fatalf("expected 11 distinct terms, got %d", got)
	}
	ii := m.Drain()
	if m.Len() != 0 {
		t.Fatalf("drain left %d terms behind", m.Len())
	}
	if ii.Len() != 11 || ii.PostingsLen() != ii.Len() {
		t.Fatalf("dictionary %d and postings %d misaligned", ii.Len(), ii.PostingsLen())
	}
	common := ii.Search("common")
	if common == nil || common.GetCardinality() != docs {
		t.Fatalf("common postings: %v", common)
	}
	term3 := ii.Search("term3")
	if term3.GetCardinality() != docs/10 {
		t.Fatalf("term3 cardinality %d", term3.GetCardinality())
	}
	for _, id := range term3.ToArray() {
		if id%10 != 3 {
			t.Fatalf("doc %d should not be in term3 postings", id)
		}
	}
}

func TestInvertedIndexLookupAlignment(t *testing.T) {
	m := NewTermMap(4)
	m.InsertAll(map[string]struct{}{"hello": {}, "world": {}}, 0)
	m.InsertAll(map[string]struct{}{"hello": {}, "rust": {}}, 1)
	ii := m.Drain()
	seen := make([]string, 0, ii.Len())
	for id, term := range ii.Terms() {
		got, ok := ii.Lookup(term)
		if !ok || got != id {
			t.Fatalf("Lookup(%q) = %d,%v want %d", term, got, ok, id)
		}
		seen = append(seen, term)
	}
	slices.Sort(seen)
	if !slices.Equal(seen, []string{"hello", "rust", "world"}) {
		t.Fatalf("terms %v", seen)
	}
	id, _ := ii.Lookup("hello")
	if !ii.Postings(id).Equals(roaring.BitmapOf(0, 1)) {
		t.Fatalf("hello postings %v", ii.Postings(id).ToArray())
	}
	if _, ok := ii.Lookup("missing"); ok {
		t.Fatal("unexpected lookup hit")
	}
	if ii.Search("missing") != nil {
		t.Fatal("Search on a missing term should return nil")
	}
}

func TestNilInvertedIndexIsEmpty(t *testing.T) {
	var ii *InvertedIndex
	if ii.Len() != 0 || ii.PostingsLen() != 0 || ii.SizeInBytes() != 0 {
		t.Fatal("nil index should report zero sizes")
	}
	if _, ok := ii.Lookup("x"); ok {
		t.Fatal("nil index lookup hit")
	}
	for range ii.Terms() {
		t.Fatal("nil index yielded a term")
	}
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	d := Document{ID: 3, Fields: map[string]string{"a": "x"}}
	c := d.Clone()
	c.Fields["a"] = "y"
	if d.Fields["a"] != "x" {
		t.Fatal("clone shares field map with original")
	}
}
