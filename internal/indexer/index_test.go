package indexer

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

func newTestIndex(t *testing.T, texts ...string) *Index {
	t.Helper()
	ix := New(config.IndexConfig{Workers: 4, TermMapShards: 8})
	docs := make([]index.Document, 0, len(texts))
	for _, text := range texts {
		docs = append(docs, index.Document{Fields: map[string]string{"a": text}})
	}
	if err := ix.AddDocuments(docs...); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	ix.Build()
	return ix
}

func docIDs(docs []index.Document) []index.DocID {
	ids := make([]index.DocID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestSearchScenario(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")

	cases := []struct {
		query string
		want  []index.DocID
	}{
		{"hello", []index.DocID{0, 1}},
		{"world", []index.DocID{0}},
		{"world rust", []index.DocID{}},
		{"HELLO, World!", []index.DocID{0}},
		{"missing", []index.DocID{}},
		{"hello missing", []index.DocID{}},
		{"", []index.DocID{}},
		{"  ...  ", []index.DocID{}},
	}
	for _, tc := range cases {
		got := docIDs(ix.Search(tc.query))
		if !slices.Equal(got, tc.want) {
			t.Errorf("Search(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestSearchReturnsDocumentContent(t *testing.T) {
	ix := newTestIndex(t, "hello world")
	docs := ix.Search("world")
	if len(docs) != 1 || docs[0].Fields["a"] != "hello world" {
		t.Fatalf("unexpected documents %+v", docs)
	}
	docs[0].Fields["a"] = "changed"
	if doc, _ := ix.Get(0); doc.Fields["a"] != "hello world" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestSearchIsCappedAtTen(t *testing.T) {
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("common doc%d", i)
	}
	ix := newTestIndex(t, texts...)
	if got := ix.SearchIDs("common").GetCardinality(); got != 25 {
		t.Fatalf("SearchIDs cardinality %d, want 25", got)
	}
	got := docIDs(ix.Search("common"))
	want := []index.DocID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !slices.Equal(got, want) {
		t.Fatalf("Search = %v, want %v", got, want)
	}
}

func TestSearchIDsIsIntersectionOfPostings(t *testing.T) {
	ix := newTestIndex(t,
		"red green blue",
		"red green",
		"green blue",
		"red blue yellow",
		"red green blue yellow",
	)
	queries := map[string][]uint32{
		"red":             {0, 1, 3, 4},
		"red green":       {0, 1, 4},
		"green red":       {0, 1, 4},
		"blue green red":  {0, 4},
		"red blue green":  {0, 4},
		"yellow red blue": {3, 4},
		"yellow green":    {4},
		"purple red":      {},
	}
	for query, want := range queries {
		got := ix.SearchIDs(query).ToArray()
		if len(got) == 0 {
			got = []uint32{}
		}
		if !slices.Equal(got, want) {
			t.Errorf("SearchIDs(%q) = %v, want %v", query, got, want)
		}
	}
}

func TestSearchIDsDoesNotAliasPostings(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	ids := ix.SearchIDs("hello")
	ids.Clear()
	if got := ix.SearchIDs("hello").GetCardinality(); got != 2 {
		t.Fatalf("postings modified through result, cardinality %d", got)
	}
}

func TestAddAfterBuildFails(t *testing.T) {
	ix := newTestIndex(t, "hello world")
	err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "late"}})
	if !errors.Is(err, apperrors.ErrAlreadyBuilt) {
		t.Fatalf("expected ErrAlreadyBuilt, got %v", err)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	before := ix.Stats()
	if ix.Build() || ix.Build() {
		t.Fatal("Build on a built index reported work")
	}
	after := ix.Stats()
	if before != after {
		t.Fatalf("stats changed across repeated builds: %+v -> %+v", before, after)
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0, 1}) {
		t.Fatalf("Search after rebuild = %v", got)
	}
}

func TestBuildWithNothingStagedStaysStaging(t *testing.T) {
	ix := New(config.DefaultIndexConfig())
	ix.Build()
	if ix.State() != StateStaging {
		t.Fatalf("state %s, want staging", ix.State())
	}
	if len(ix.Search("anything")) != 0 {
		t.Fatal("empty index returned results")
	}
}

func TestStagedDocumentsAreNotSearchable(t *testing.T) {
	ix := New(config.DefaultIndexConfig())
	if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "hello"}}); err != nil {
		t.Fatal(err)
	}
	if len(ix.Search("hello")) != 0 {
		t.Fatal("staged document is searchable before build")
	}
	if st := ix.Stats(); st.NumStaged != 1 || st.NumDocuments != 0 {
		t.Fatalf("stats %+v", st)
	}
	ix.Build()
	if len(ix.Search("hello")) != 1 {
		t.Fatal("document not searchable after build")
	}
}

func TestReopenAddsToExistingStore(t *testing.T) {
	ix := newTestIndex(t, "hello world")
	ix.Reopen()
	if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "hello again"}}); err != nil {
		t.Fatalf("AddDocuments after Reopen: %v", err)
	}
	ix.Build()
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0, 1}) {
		t.Fatalf("Search = %v", got)
	}
	if got := docIDs(ix.Search("again")); !slices.Equal(got, []index.DocID{1}) {
		t.Fatalf("Search(again) = %v", got)
	}
}

func TestDocumentIDsAreSequentialAcrossBuilds(t *testing.T) {
	ix := newTestIndex(t, "one", "two")
	ix.Reopen()
	if err := ix.AddDocuments(index.Document{ID: 99, Fields: map[string]string{"a": "three"}}); err != nil {
		t.Fatal(err)
	}
	ix.Build()
	doc, ok := ix.Get(2)
	if !ok || doc.Fields["a"] != "three" {
		t.Fatalf("expected third document at id 2, got %+v %v", doc, ok)
	}
	if _, ok := ix.Get(99); ok {
		t.Fatal("caller-supplied id should be ignored")
	}
}

func TestRemoveDocumentRebuilds(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	if err := ix.RemoveDocument(0); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{1}) {
		t.Fatalf("Search(hello) = %v", got)
	}
	if len(ix.Search("world")) != 0 {
		t.Fatal("removed document's unique term still indexed")
	}
	if ix.Stats().NumTokens != 2 {
		t.Fatalf("expected 2 terms after removal, got %d", ix.Stats().NumTokens)
	}
	err := ix.RemoveDocument(0)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRemoveWhileReopenedDropsStaleTerms(t *testing.T) {
	ix := newTestIndex(t, "hello world", "goodbye rust")
	ix.Reopen()
	if err := ix.RemoveDocument(1); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if ix.State() != StateStaging {
		t.Fatalf("state %s, want staging", ix.State())
	}
	if got := ix.Suggest("good", 5); len(got) != 0 {
		t.Fatalf("Suggest after remove = %v", got)
	}
	if !ix.SearchIDs("rust").IsEmpty() {
		t.Fatal("removed document still matches")
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0}) {
		t.Fatalf("Search(hello) = %v", got)
	}
	if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "more"}}); err != nil {
		t.Fatalf("AddDocuments after remove: %v", err)
	}
}

func TestUpdateDocumentRebuilds(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	err := ix.UpdateDocument(index.Document{ID: 1, Fields: map[string]string{"a": "goodbye gopher"}})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0}) {
		t.Fatalf("Search(hello) = %v", got)
	}
	if got := docIDs(ix.Search("gopher")); !slices.Equal(got, []index.DocID{1}) {
		t.Fatalf("Search(gopher) = %v", got)
	}
	err = ix.UpdateDocument(index.Document{ID: 42, Fields: map[string]string{"a": "x"}})
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSearchFuzzyScenario(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	if got := docIDs(ix.SearchFuzzy("helo", 1)); !slices.Equal(got, []index.DocID{0, 1}) {
		t.Fatalf("SearchFuzzy(helo, 1) = %v", got)
	}
	if got := docIDs(ix.SearchFuzzy("helo", 0)); len(got) != 0 {
		t.Fatalf("SearchFuzzy(helo, 0) = %v", got)
	}
	if got := docIDs(ix.SearchFuzzy("rusty", 1)); !slices.Equal(got, []index.DocID{1}) {
		t.Fatalf("SearchFuzzy(rusty, 1) = %v", got)
	}
	if got := ix.SearchFuzzy("hello", -1); len(got) != 0 {
		t.Fatalf("negative distance returned %v", docIDs(got))
	}
}

func TestSearchFuzzyOrdersByDistance(t *testing.T) {
	ix := newTestIndex(t, "gopherz", "gopher", "gophers rock")
	got := docIDs(ix.SearchFuzzy("gopher", 2))
	if len(got) != 3 || got[0] != 1 {
		t.Fatalf("SearchFuzzy ordering = %v, want exact match first", got)
	}
}

func TestSearchFuzzyZeroDistanceMatchesExact(t *testing.T) {
	ix := newTestIndex(t,
		"alpha beta",
		"beta gamma",
		"gamma delta",
		"alpha delta",
	)
	for _, q := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		exact := docIDs(ix.Search(q))
		fuzzy := docIDs(ix.SearchFuzzy(q, 0))
		slices.Sort(fuzzy)
		if !slices.Equal(exact, fuzzy) {
			t.Errorf("query %q: exact %v, fuzzy %v", q, exact, fuzzy)
		}
	}
}

func TestSearchFuzzyIsCapped(t *testing.T) {
	texts := make([]string, 15)
	for i := range texts {
		texts[i] = "match"
	}
	ix := newTestIndex(t, texts...)
	if got := len(ix.SearchFuzzy("matc", 1)); got != FuzzyResultLimit {
		t.Fatalf("got %d results, want %d", got, FuzzyResultLimit)
	}
}

func TestSearchWithOptionsScenario(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	res := ix.SearchWithOptions("hello", SearchOptions{
		Limit:        1,
		Offset:       1,
		FieldWeights: map[string]float64{"a": 1.0},
	})
	if res.TotalHits != 2 {
		t.Fatalf("TotalHits = %d, want 2", res.TotalHits)
	}
	if got := docIDs(res.Documents); !slices.Equal(got, []index.DocID{1}) {
		t.Fatalf("page = %v, want [1]", got)
	}
	if !slices.Equal(res.Scores, []float64{1}) {
		t.Fatalf("scores = %v", res.Scores)
	}
}

func TestSearchWithOptionsRanksByWeightedFrequency(t *testing.T) {
	ix := New(config.IndexConfig{Workers: 2})
	err := ix.AddDocuments(
		index.Document{Fields: map[string]string{"title": "other", "body": "go go go"}},
		index.Document{Fields: map[string]string{"title": "go", "body": "nothing"}},
		index.Document{Fields: map[string]string{"title": "unrelated", "body": "text"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	ix.Build()

	res := ix.SearchWithOptions("go", SearchOptions{Limit: 10})
	if got := docIDs(res.Documents); !slices.Equal(got, []index.DocID{0, 1}) {
		t.Fatalf("unweighted order = %v", got)
	}
	if !slices.Equal(res.Scores, []float64{3, 1}) {
		t.Fatalf("unweighted scores = %v", res.Scores)
	}

	res = ix.SearchWithOptions("go", SearchOptions{
		Limit:        10,
		FieldWeights: map[string]float64{"title": 5},
	})
	if got := docIDs(res.Documents); !slices.Equal(got, []index.DocID{1, 0}) {
		t.Fatalf("weighted order = %v", got)
	}
	if !slices.Equal(res.Scores, []float64{5, 3}) {
		t.Fatalf("weighted scores = %v", res.Scores)
	}
}

func TestSearchWithOptionsPaging(t *testing.T) {
	ix := newTestIndex(t, "x", "x", "x")
	if res := ix.SearchWithOptions("x", SearchOptions{Offset: 5}); len(res.Documents) != 0 || res.TotalHits != 3 {
		t.Fatalf("offset past end: %+v", res)
	}
	if res := ix.SearchWithOptions("x", SearchOptions{Offset: -3, Limit: 2}); !slices.Equal(docIDs(res.Documents), []index.DocID{0, 1}) {
		t.Fatalf("negative offset: %v", docIDs(res.Documents))
	}
	if res := ix.SearchWithOptions("", SearchOptions{}); res.TotalHits != 0 || res.Documents == nil {
		t.Fatalf("empty query: %+v", res)
	}
	res := ix.SearchWithOptions("x", SearchOptions{Offset: 1, Limit: math.MaxInt})
	if !slices.Equal(docIDs(res.Documents), []index.DocID{1, 2}) {
		t.Fatalf("unbounded limit: %v", docIDs(res.Documents))
	}
}

func TestSearchWithOptionsAppendsFuzzyMatches(t *testing.T) {
	ix := newTestIndex(t, "hello world", "help me")
	res := ix.SearchWithOptions("hello", SearchOptions{Limit: 10, Fuzzy: true, MaxDistance: 1})
	// doc 0 matches exactly (score 1) and fuzzily at distance 0 (score 1);
	// doc 1 matches "help" at distance 1 (score 0.5).
	if res.TotalHits != 3 {
		t.Fatalf("TotalHits = %d, want 3", res.TotalHits)
	}
	if got := docIDs(res.Documents); !slices.Equal(got, []index.DocID{0, 0, 1}) {
		t.Fatalf("documents = %v", got)
	}
	if !slices.Equal(res.Scores, []float64{1, 1, 0.5}) {
		t.Fatalf("scores = %v", res.Scores)
	}
}

func TestSuggestScenario(t *testing.T) {
	ix := newTestIndex(t, "hello world", "help rust", "shell")
	got := ix.Suggest("hel", 5)
	if !slices.Equal(got, []string{"help", "hello"}) {
		t.Fatalf("Suggest(hel) = %v", got)
	}
	if got := ix.Suggest("hel", 1); !slices.Equal(got, []string{"help"}) {
		t.Fatalf("Suggest(hel, 1) = %v", got)
	}
	if got := ix.Suggest("h", 5); len(got) != 0 {
		t.Fatalf("terms beyond distance 2 suggested: %v", got)
	}
	if got := ix.Suggest("", 5); len(got) != 0 {
		t.Fatalf("empty query suggested %v", got)
	}
	if got := ix.Suggest("hel", 0); len(got) != 0 {
		t.Fatalf("zero limit suggested %v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ix := New(config.IndexConfig{Workers: 2})
	err := ix.AddDocuments(
		index.Document{Fields: map[string]string{"title": "hello world", "body": "first"}},
		index.Document{Fields: map[string]string{"title": "hello rust", "body": "second"}},
		index.Document{Fields: map[string]string{"title": "goodbye", "body": "third"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	ix.Build()
	if err := ix.RemoveDocument(1); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "nested", "index.json")
	if err := ix.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}

	loaded := New(config.IndexConfig{Workers: 2})
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.State() != StateBuilt {
		t.Fatalf("loaded index state %s", loaded.State())
	}
	for _, id := range []index.DocID{0, 2} {
		want, _ := ix.Get(id)
		got, ok := loaded.Get(id)
		if !ok || got.ID != want.ID || got.Fields["title"] != want.Fields["title"] || got.Fields["body"] != want.Fields["body"] {
			t.Fatalf("document %d: got %+v, want %+v", id, got, want)
		}
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d documents, want 2", loaded.Len())
	}
	for _, q := range []string{"hello", "goodbye", "rust", "first third", "world"} {
		if a, b := docIDs(ix.Search(q)), docIDs(loaded.Search(q)); !slices.Equal(a, b) {
			t.Errorf("Search(%q): original %v, loaded %v", q, a, b)
		}
	}

	loaded.Reopen()
	if err := loaded.AddDocuments(index.Document{Fields: map[string]string{"title": "new"}}); err != nil {
		t.Fatal(err)
	}
	loaded.Build()
	if _, ok := loaded.Get(3); !ok {
		t.Fatal("next id after load should be one past the largest loaded id")
	}
}

func TestSnapshotFormatIsKeyedByDecimalID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	data := `{"0":{"id":0,"fields":{"a":"hello world"}},"7":{"id":7,"fields":{"a":"hello rust"}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ix := New(config.DefaultIndexConfig())
	if err := ix.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0, 7}) {
		t.Fatalf("Search = %v", got)
	}
}

func TestLoadRejectsReservedMaxID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	data := fmt.Sprintf(`{"%d":{"fields":{"a":"last"}},"0":{"fields":{"a":"first"}}}`, uint32(math.MaxUint32))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ix := newTestIndex(t, "hello world")
	if err := ix.LoadFromFile(path); !errors.Is(err, apperrors.ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
	if ix.Len() != 1 || ix.NextID() != 1 {
		t.Fatalf("index changed: len %d next %d", ix.Len(), ix.NextID())
	}
}

func TestIDSpaceExhaustionIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	data := fmt.Sprintf(`{"%d":{"fields":{"a":"last"}},"0":{"fields":{"a":"first"}}}`, uint32(math.MaxUint32-1))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ix := New(config.DefaultIndexConfig())
	if err := ix.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if ix.NextID() != math.MaxUint32 {
		t.Fatalf("NextID = %d", ix.NextID())
	}
	ix.Reopen()
	err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "overflow"}})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	ix.Build()
	if ix.Len() != 2 {
		t.Fatalf("store has %d documents, want 2", ix.Len())
	}
	if doc, ok := ix.Get(0); !ok || doc.Fields["a"] != "first" {
		t.Fatalf("doc 0 = %+v, %v", doc, ok)
	}
}

func TestLoadFailuresLeaveIndexUntouched(t *testing.T) {
	ix := newTestIndex(t, "hello world")
	dir := t.TempDir()

	err := ix.LoadFromFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, apperrors.ErrIO) {
		t.Fatalf("missing file: expected ErrIO, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	for _, content := range []string{"not json", `["a","b"]`, `{"x":{"id":1}}`, "null"} {
		if err := os.WriteFile(bad, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		err := ix.LoadFromFile(bad)
		if !errors.Is(err, apperrors.ErrSerialization) {
			t.Fatalf("content %q: expected ErrSerialization, got %v", content, err)
		}
	}
	if got := docIDs(ix.Search("hello")); !slices.Equal(got, []index.DocID{0}) {
		t.Fatalf("index changed after failed loads: %v", got)
	}
}

func TestStats(t *testing.T) {
	ix := newTestIndex(t, "hello world", "hello rust")
	st := ix.Stats()
	if st.NumDocuments != 2 || st.NumTokens != 3 {
		t.Fatalf("stats %+v", st)
	}
	want := 2*documentSize + 3*stringSize + 3*bitmapSize
	if st.MemoryUsageBytes != want {
		t.Fatalf("MemoryUsageBytes = %d, want %d", st.MemoryUsageBytes, want)
	}
	if st.PostingsBytes == 0 {
		t.Fatal("PostingsBytes should be non-zero for a built index")
	}
}

func TestParallelBuildMatchesSingleWorker(t *testing.T) {
	texts := make([]string, 300)
	for i := range texts {
		texts[i] = fmt.Sprintf("term%d term%d shared", i%7, i%13)
	}
	single := New(config.IndexConfig{Workers: 1, TermMapShards: 1})
	parallel := New(config.IndexConfig{Workers: 8, TermMapShards: 16})
	for _, ix := range []*Index{single, parallel} {
		for _, text := range texts {
			if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": text}}); err != nil {
				t.Fatal(err)
			}
		}
		ix.Build()
	}
	if single.Stats().NumTokens != parallel.Stats().NumTokens {
		t.Fatalf("term counts differ: %d vs %d", single.Stats().NumTokens, parallel.Stats().NumTokens)
	}
	for _, q := range []string{"shared", "term3", "term3 term5", "term6 term12 shared"} {
		if !single.SearchIDs(q).Equals(parallel.SearchIDs(q)) {
			t.Errorf("SearchIDs(%q) differs between single and parallel builds", q)
		}
	}
}

func TestNextIDAccountsForStagedDocuments(t *testing.T) {
	ix := New(config.DefaultIndexConfig())
	if ix.NextID() != 0 {
		t.Fatalf("NextID on empty index = %d", ix.NextID())
	}
	if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "x"}}); err != nil {
		t.Fatal(err)
	}
	want := ix.NextID()
	if want != 1 {
		t.Fatalf("NextID with one staged = %d", want)
	}
	if err := ix.AddDocuments(index.Document{Fields: map[string]string{"a": "y"}}); err != nil {
		t.Fatal(err)
	}
	ix.Build()
	if doc, ok := ix.Get(want); !ok || doc.Fields["a"] != "y" {
		t.Fatalf("document at predicted id %d: %+v %v", want, doc, ok)
	}
}
