// Package tokenizer provides text tokenisation for the search index.
// It applies NFKC normalisation, lower-cases input and splits on
// non-alphanumeric boundaries. Stop-word removal and a simple suffix-based
// stemmer are available as opt-in Analyzer options.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Analyzer turns raw text into terms. The zero value lower-cases and splits
// only; it holds no mutable state, so copies are interchangeable.
type Analyzer struct {
	stopWords bool
	stemming  bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStopWords drops common English stop-words.
func WithStopWords(enable bool) Option {
	return func(a *Analyzer) {
		a.stopWords = enable
	}
}

// WithStemming applies the suffix stemmer to every term.
func WithStemming(enable bool) Option {
	return func(a *Analyzer) {
		a.stemming = enable
	}
}

// New returns an Analyzer configured with opts.
func New(opts ...Option) Analyzer {
	var a Analyzer
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Terms returns a lazy sequence of the normalised terms of text. The
// sequence can be ranged over any number of times and yields the same terms
// each time.
func (a Analyzer) Terms(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		normalized := strings.ToLower(norm.NFKC.String(text))
		for word := range strings.FieldsFuncSeq(normalized, isSeparator) {
			term, ok := a.normalize(word)
			if !ok {
				continue
			}
			if !yield(term) {
				return
			}
		}
	}
}

// Tokenize breaks text into a slice of Tokens.
func (a Analyzer) Tokenize(text string) []Token {
	tokens := make([]Token, 0, 8)
	pos := 0
	for term := range a.Terms(text) {
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// TermList collects Terms into a slice.
func (a Analyzer) TermList(text string) []string {
	terms := make([]string, 0, 8)
	for term := range a.Terms(text) {
		terms = append(terms, term)
	}
	return terms
}

func (a Analyzer) normalize(word string) (string, bool) {
	if word == "" {
		return "", false
	}
	if a.stopWords {
		if _, isStop := stopWords[word]; isStop {
			return "", false
		}
	}
	if a.stemming {
		word = stem(word)
		if word == "" {
			return "", false
		}
	}
	return word, true
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Tokenize tokenizes text with the default Analyzer.
func Tokenize(text string) []Token {
	return Analyzer{}.Tokenize(text)
}

// Terms yields the terms of text under the default Analyzer.
func Terms(text string) iter.Seq[string] {
	return Analyzer{}.Terms(text)
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}
