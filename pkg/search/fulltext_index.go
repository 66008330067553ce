// Package search provides full-text indexing with BM25 scoring.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// BM25 tuning constants. k1 controls term-frequency saturation (how much a
// repeated term keeps adding to the score); b controls how strongly
// document length is penalized relative to the corpus average.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// FulltextIndex is an in-memory inverted index with BM25 ranking. It holds
// no persistence of its own; callers rebuild it from storage on startup via
// Index calls.
type FulltextIndex struct {
	mu sync.RWMutex

	documents     map[string]string         // docID -> original text
	invertedIndex map[string]map[string]int // term -> docID -> term frequency
	docLengths    map[string]int            // docID -> token count
	avgDocLength  float64
	docCount      int
}

// NewFulltextIndex returns an empty index ready for Index calls.
func NewFulltextIndex() *FulltextIndex {
	return &FulltextIndex{
		documents:     make(map[string]string),
		invertedIndex: make(map[string]map[string]int),
		docLengths:    make(map[string]int),
	}
}

// Index adds or replaces the document under id. Calling it again for the
// same id first retracts the old postings so re-indexing a changed document
// doesn't leak stale terms.
func (f *FulltextIndex) Index(id string, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retract(id)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return
	}

	f.documents[id] = text
	f.docLengths[id] = len(tokens)
	f.docCount++

	for term, freq := range termFrequencies(tokens) {
		if f.invertedIndex[term] == nil {
			f.invertedIndex[term] = make(map[string]int)
		}
		f.invertedIndex[term][id] = freq
	}
	f.recomputeAvgDocLength()
}

// Remove retracts a document's postings entirely.
func (f *FulltextIndex) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retract(id)
}

// retract removes id's postings without taking the lock; callers must
// already hold f.mu.
func (f *FulltextIndex) retract(id string) {
	text, exists := f.documents[id]
	if !exists {
		return
	}

	for term := range termFrequencies(tokenize(text)) {
		docs, ok := f.invertedIndex[term]
		if !ok {
			continue
		}
		delete(docs, id)
		if len(docs) == 0 {
			delete(f.invertedIndex, term)
		}
	}

	delete(f.documents, id)
	delete(f.docLengths, id)
	f.docCount--
	f.recomputeAvgDocLength()
}

// Search ranks documents against query by BM25, matching both exact terms
// and - at a discounted weight - terms the query is a prefix of, so a
// partial word still surfaces relevant results.
func (f *FulltextIndex) Search(query string, limit int) []indexResult {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.docCount == 0 {
		return nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	const prefixMatchPenalty = 0.8
	scores := make(map[string]float64)
	for _, term := range queryTerms {
		f.accumulateTermScores(scores, term, 1.0, exactTerm)
		f.accumulateTermScores(scores, term, prefixMatchPenalty, prefixOf(term))
	}

	return topResults(scores, limit)
}

// termMatcher decides whether an indexed term should contribute to a query
// term's score.
type termMatcher func(queryTerm, indexedTerm string) bool

func exactTerm(queryTerm, indexedTerm string) bool { return queryTerm == indexedTerm }

func prefixOf(queryTerm string) termMatcher {
	return func(_, indexedTerm string) bool {
		return indexedTerm != queryTerm && strings.HasPrefix(indexedTerm, queryTerm)
	}
}

// accumulateTermScores adds each matching indexed term's BM25 contribution,
// scaled by weight, into scores.
func (f *FulltextIndex) accumulateTermScores(scores map[string]float64, queryTerm string, weight float64, matches termMatcher) {
	for indexedTerm, postings := range f.invertedIndex {
		if !matches(queryTerm, indexedTerm) {
			continue
		}
		idf := f.calculateIDF(indexedTerm) * weight
		for docID, freq := range postings {
			scores[docID] += idf * f.bm25TermScore(docID, freq)
		}
	}
}

// bm25TermScore computes a single term's saturation-and-length-normalized
// contribution for one document, excluding the IDF factor.
func (f *FulltextIndex) bm25TermScore(docID string, termFreq int) float64 {
	docLen := float64(f.docLengths[docID])
	tf := float64(termFreq)
	numerator := tf * (bm25K1 + 1)
	denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/f.avgDocLength))
	return numerator / denominator
}

func topResults(scores map[string]float64, limit int) []indexResult {
	results := make([]indexResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, indexResult{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// calculateIDF uses the Lucene/Elasticsearch BM25 IDF variant,
// log(1 + (N-df+0.5)/(df+0.5)), which stays non-negative even for terms
// that appear in most documents (unlike the classic Robertson-Sparck Jones
// form, which can go negative).
func (f *FulltextIndex) calculateIDF(term string) float64 {
	df := float64(len(f.invertedIndex[term]))
	n := float64(f.docCount)
	idf := math.Log(1 + (n-df+0.5)/(df+0.5))
	if idf < 0 {
		return 0
	}
	return idf
}

func (f *FulltextIndex) recomputeAvgDocLength() {
	if f.docCount == 0 {
		f.avgDocLength = 0
		return
	}
	var total int
	for _, length := range f.docLengths {
		total += length
	}
	f.avgDocLength = float64(total) / float64(f.docCount)
}

// Count returns the number of indexed documents.
func (f *FulltextIndex) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.docCount
}

// GetDocument returns a document's original (un-tokenized) text.
func (f *FulltextIndex) GetDocument(id string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	text, exists := f.documents[id]
	return text, exists
}

// PhraseSearch finds documents containing phrase verbatim (case-insensitive
// substring match, not tokenized), scoring earlier occurrences higher.
func (f *FulltextIndex) PhraseSearch(phrase string, limit int) []indexResult {
	f.mu.RLock()
	defer f.mu.RUnlock()

	needle := strings.ToLower(phrase)
	results := make([]indexResult, 0)
	for id, text := range f.documents {
		haystack := strings.ToLower(text)
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			continue
		}
		results = append(results, indexResult{ID: id, Score: 1.0 / (1.0 + float64(idx)/100.0)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// termFrequencies counts how many times each token appears.
func termFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

// tokenize lowercases text, splits on runs of non-alphanumeric characters,
// and drops stop words and single-character tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 || isStopWord(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// stopWords is a deliberately small list of generic function words. Domain
// terms ("query", "learning", "index", ...) are never filtered here.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"we": true, "you": true, "your": true, "my": true, "their": true,
	"been": true, "do": true, "does": true, "did": true,
}

func isStopWord(word string) bool { return stopWords[word] }
