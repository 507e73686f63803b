package indexer

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/levenshtein"
)

// SearchIDs returns the ids of documents containing every query term. A
// term missing from the dictionary, or a query without terms, yields an
// empty bitmap. The returned bitmap is owned by the caller.
func (ix *Index) SearchIDs(query string) *roaring.Bitmap {
	terms := ix.analyzer.TermList(query)
	if len(terms) == 0 {
		return roaring.New()
	}
	postings := make([]*roaring.Bitmap, 0, len(terms))
	for _, term := range terms {
		bm := ix.inverted.Search(term)
		if bm == nil {
			return roaring.New()
		}
		postings = append(postings, bm)
	}
	return intersect(postings)
}

// intersect folds postings with AND, smallest bitmap first.
func intersect(postings []*roaring.Bitmap) *roaring.Bitmap {
	slices.SortFunc(postings, func(a, b *roaring.Bitmap) int {
		return cmp.Compare(a.GetCardinality(), b.GetCardinality())
	})
	result := postings[0].Clone()
	for _, bm := range postings[1:] {
		if result.IsEmpty() {
			break
		}
		result.And(bm)
	}
	return result
}

// Search returns up to PlainSearchLimit documents matching every query term,
// in ascending id order.
func (ix *Index) Search(query string) []index.Document {
	ids := ix.SearchIDs(query)
	results := make([]index.Document, 0, min(ids.GetCardinality(), PlainSearchLimit))
	it := ids.Iterator()
	for it.HasNext() && len(results) < PlainSearchLimit {
		if doc, ok := ix.docs[it.Next()]; ok {
			results = append(results, doc.Clone())
		}
	}
	return results
}

type scoredDoc struct {
	id    index.DocID
	score float64
}

// SearchWithOptions scores every stored document by weighted term frequency
// and returns the page selected by opts. Documents scoring zero are left
// out. With opts.Fuzzy, SearchFuzzy matches are appended to the candidates
// before sorting, so a document can appear twice.
func (ix *Index) SearchWithOptions(query string, opts SearchOptions) SearchResult {
	queryTerms := make(map[string]struct{})
	for term := range ix.analyzer.Terms(query) {
		queryTerms[term] = struct{}{}
	}

	var candidates []scoredDoc
	if len(queryTerms) > 0 {
		for _, id := range ix.sortedIDs() {
			if score := ix.termFrequencyScore(ix.docs[id], queryTerms, opts.FieldWeights); score > 0 {
				candidates = append(candidates, scoredDoc{id: id, score: score})
			}
		}
	}
	if opts.Fuzzy {
		for _, m := range ix.fuzzyMatches(query, opts.MaxDistance) {
			candidates = append(candidates, scoredDoc{id: m.id, score: fuzzyScore(m.distance)})
		}
	}
	slices.SortStableFunc(candidates, func(a, b scoredDoc) int {
		return cmp.Compare(b.score, a.score)
	})

	result := SearchResult{
		Documents: []index.Document{},
		Scores:    []float64{},
		TotalHits: len(candidates),
	}
	for _, c := range paginate(candidates, opts.Offset, opts.Limit) {
		result.Documents = append(result.Documents, ix.docs[c.id].Clone())
		result.Scores = append(result.Scores, c.score)
	}
	return result
}

// termFrequencyScore sums, per field, the field weight times the number of
// field terms that are query terms.
func (ix *Index) termFrequencyScore(doc index.Document, queryTerms map[string]struct{}, weights map[string]float64) float64 {
	var score float64
	for field, value := range doc.Fields {
		count := 0
		for term := range ix.analyzer.Terms(value) {
			if _, ok := queryTerms[term]; ok {
				count++
			}
		}
		if count == 0 {
			continue
		}
		weight, ok := weights[field]
		if !ok {
			weight = 1.0
		}
		score += weight * float64(count)
	}
	return score
}

// fuzzyScore maps an accumulated edit distance to a positive score that
// shrinks as the distance grows.
func fuzzyScore(distance int) float64 {
	return 1 / float64(1+distance)
}

func paginate(candidates []scoredDoc, offset, limit int) []scoredDoc {
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset = max(offset, 0)
	if offset >= len(candidates) {
		return nil
	}
	end := offset + min(limit, len(candidates)-offset)
	return candidates[offset:end]
}

type fuzzyMatch struct {
	id       index.DocID
	distance int
	found    int
}

// SearchFuzzy returns up to FuzzyResultLimit documents containing, for at
// least one query term, a term within maxDistance edits. Documents are
// ordered by the summed distance of their matched query terms, closest
// first.
func (ix *Index) SearchFuzzy(query string, maxDistance int) []index.Document {
	matches := ix.fuzzyMatches(query, maxDistance)
	results := make([]index.Document, 0, len(matches))
	for _, m := range matches {
		results = append(results, ix.docs[m.id].Clone())
	}
	return results
}

func (ix *Index) fuzzyMatches(query string, maxDistance int) []fuzzyMatch {
	queryTerms := ix.analyzer.TermList(query)
	if len(queryTerms) == 0 || maxDistance < 0 {
		return nil
	}
	var matches []fuzzyMatch
	for _, id := range ix.sortedIDs() {
		docTerms := ix.fieldTerms(ix.docs[id])
		if len(docTerms) == 0 {
			continue
		}
		m := fuzzyMatch{id: id}
		for _, q := range queryTerms {
			best := math.MaxInt
			for _, term := range docTerms {
				best = min(best, levenshtein.Distance(q, term))
				if best == 0 {
					break
				}
			}
			if best <= maxDistance {
				m.distance += best
				m.found++
			}
		}
		if m.found > 0 {
			matches = append(matches, m)
		}
	}
	slices.SortStableFunc(matches, func(a, b fuzzyMatch) int {
		return cmp.Compare(a.distance, b.distance)
	})
	if len(matches) > FuzzyResultLimit {
		matches = matches[:FuzzyResultLimit]
	}
	return matches
}

// fieldTerms returns every term of every field of doc, in field-name order.
func (ix *Index) fieldTerms(doc index.Document) []string {
	var terms []string
	for _, field := range slices.Sorted(maps.Keys(doc.Fields)) {
		for term := range ix.analyzer.Terms(doc.Fields[field]) {
			terms = append(terms, term)
		}
	}
	return terms
}

type suggestion struct {
	term     string
	distance int
}

// Suggest returns up to limit dictionary terms that start with a query term
// and are within SuggestMaxDistance edits of it, closest first. Ties are
// ordered lexically so the output does not depend on term id assignment.
func (ix *Index) Suggest(query string, limit int) []string {
	queryTerms := ix.analyzer.TermList(query)
	if len(queryTerms) == 0 || limit <= 0 {
		return []string{}
	}
	var found []suggestion
	for _, term := range ix.inverted.Terms() {
		best := -1
		for _, q := range queryTerms {
			if !strings.HasPrefix(term, q) {
				continue
			}
			d := levenshtein.Distance(q, term)
			if d <= SuggestMaxDistance && (best < 0 || d < best) {
				best = d
			}
		}
		if best >= 0 {
			found = append(found, suggestion{term: term, distance: best})
		}
	}
	slices.SortFunc(found, func(a, b suggestion) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return strings.Compare(a.term, b.term)
	})
	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.term)
	}
	return out
}
