// Schema command parsing and execution for Cypher.
//
// This file implements Neo4j schema management commands:
//   - CREATE CONSTRAINT
//   - CREATE INDEX
//   - CREATE FULLTEXT INDEX
//   - CREATE VECTOR INDEX
package cypher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// emptyResult is what every schema command returns on success - schema
// commands produce no rows.
func emptyResult() *ExecuteResult {
	return &ExecuteResult{Columns: []string{}, Rows: [][]interface{}{}}
}

// schemaCommandHandlers maps, in priority order, a marker substring to the
// handler for that command. Order matters: CREATE FULLTEXT/VECTOR INDEX
// must be checked before the plain CREATE INDEX marker they'd otherwise
// also match.
var schemaCommandHandlers = []struct {
	marker  string
	execute func(*StorageExecutor, context.Context, string) (*ExecuteResult, error)
}{
	{"CREATE CONSTRAINT", (*StorageExecutor).executeCreateConstraint},
	{"CREATE FULLTEXT INDEX", (*StorageExecutor).executeCreateFulltextIndex},
	{"CREATE VECTOR INDEX", (*StorageExecutor).executeCreateVectorIndex},
	{"CREATE INDEX", (*StorageExecutor).executeCreateIndex},
}

// executeSchemaCommand dispatches CREATE CONSTRAINT/INDEX/FULLTEXT
// INDEX/VECTOR INDEX commands to their handler.
func (e *StorageExecutor) executeSchemaCommand(ctx context.Context, cypher string) (*ExecuteResult, error) {
	upper := strings.ToUpper(cypher)
	for _, h := range schemaCommandHandlers {
		if strings.Contains(upper, h.marker) {
			return h.execute(e, ctx, cypher)
		}
	}
	return nil, fmt.Errorf("unknown schema command: %s", cypher)
}

// executeCreateConstraint handles CREATE CONSTRAINT, covering both the
// Neo4j 5.x "REQUIRE" form and the older 4.x "ASSERT" form:
//
//	CREATE CONSTRAINT name IF NOT EXISTS FOR (n:Label) REQUIRE n.property IS UNIQUE
//	CREATE CONSTRAINT IF NOT EXISTS FOR (n:Label) REQUIRE n.property IS UNIQUE
//	CREATE CONSTRAINT IF NOT EXISTS ON (n:Label) ASSERT n.property IS UNIQUE
func (e *StorageExecutor) executeCreateConstraint(ctx context.Context, cypher string) (*ExecuteResult, error) {
	type match struct {
		name, label, property string
	}

	tryPatterns := []func() *match{
		func() *match {
			m := constraintNamedForRequire.FindStringSubmatch(cypher)
			if m == nil {
				return nil
			}
			return &match{name: m[1], label: m[3], property: m[5]}
		},
		func() *match {
			m := constraintUnnamedForRequire.FindStringSubmatch(cypher)
			if m == nil {
				return nil
			}
			return &match{label: m[2], property: m[4]}
		},
		func() *match {
			m := constraintOnAssert.FindStringSubmatch(cypher)
			if m == nil {
				return nil
			}
			return &match{label: m[2], property: m[4]}
		},
	}

	for _, try := range tryPatterns {
		m := try()
		if m == nil {
			continue
		}
		name := m.name
		if name == "" {
			name = fmt.Sprintf("constraint_%s_%s", strings.ToLower(m.label), strings.ToLower(m.property))
		}
		if err := e.storage.GetSchema().AddUniqueConstraint(name, m.label, m.property); err != nil {
			return nil, err
		}
		return emptyResult(), nil
	}

	return nil, fmt.Errorf("invalid CREATE CONSTRAINT syntax")
}

// executeCreateIndex handles:
//
//	CREATE INDEX index_name IF NOT EXISTS FOR (n:Label) ON (n.property)
func (e *StorageExecutor) executeCreateIndex(ctx context.Context, cypher string) (*ExecuteResult, error) {
	if m := indexNamedFor.FindStringSubmatch(cypher); m != nil {
		if err := e.storage.GetSchema().AddPropertyIndex(m[1], m[3], []string{m[5]}); err != nil {
			return nil, err
		}
		return emptyResult(), nil
	}

	if m := indexUnnamedFor.FindStringSubmatch(cypher); m != nil {
		label, property := m[2], m[4]
		name := fmt.Sprintf("index_%s_%s", strings.ToLower(label), strings.ToLower(property))
		if err := e.storage.GetSchema().AddPropertyIndex(name, label, []string{property}); err != nil {
			return nil, err
		}
		return emptyResult(), nil
	}

	return nil, fmt.Errorf("invalid CREATE INDEX syntax")
}

// parseIndexedProperties turns "n.prop1, n.prop2" into ["prop1", "prop2"],
// dropping any entry that isn't in dotted "alias.property" form.
func parseIndexedProperties(raw string) []string {
	properties := []string{}
	for _, prop := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(prop), ".", 2)
		if len(parts) == 2 {
			properties = append(properties, parts[1])
		}
	}
	return properties
}

// executeCreateFulltextIndex handles:
//
//	CREATE FULLTEXT INDEX index_name IF NOT EXISTS
//	FOR (n:Label) ON EACH [n.prop1, n.prop2]
func (e *StorageExecutor) executeCreateFulltextIndex(ctx context.Context, cypher string) (*ExecuteResult, error) {
	m := fulltextIndexPattern.FindStringSubmatch(cypher)
	if m == nil {
		return nil, fmt.Errorf("invalid CREATE FULLTEXT INDEX syntax: %s", cypher)
	}

	indexName, label := m[1], m[3]
	properties := parseIndexedProperties(m[4])
	if len(properties) == 0 {
		return nil, fmt.Errorf("no properties found in fulltext index definition")
	}

	schema := e.storage.GetSchema()
	if schema == nil {
		return nil, fmt.Errorf("schema manager not available")
	}
	if err := schema.AddFulltextIndex(indexName, []string{label}, properties); err != nil {
		return nil, fmt.Errorf("failed to add fulltext index: %w", err)
	}
	return emptyResult(), nil
}

const (
	defaultVectorDimensions = 1024
	defaultVectorSimilarity = "cosine"
)

// executeCreateVectorIndex handles:
//
//	CREATE VECTOR INDEX index_name IF NOT EXISTS
//	FOR (n:Label) ON (n.property)
//	OPTIONS {indexConfig: {`vector.dimensions`: 1024, `vector.similarity_function`: 'cosine'}}
func (e *StorageExecutor) executeCreateVectorIndex(ctx context.Context, cypher string) (*ExecuteResult, error) {
	m := vectorIndexPattern.FindStringSubmatch(cypher)
	if m == nil {
		return nil, fmt.Errorf("invalid CREATE VECTOR INDEX syntax")
	}
	indexName, label, property := m[1], m[3], m[5]

	dimensions, similarity := defaultVectorDimensions, defaultVectorSimilarity
	if strings.Contains(cypher, "OPTIONS") {
		if dm := vectorDimensionsPattern.FindStringSubmatch(cypher); dm != nil {
			if dim, err := strconv.Atoi(dm[1]); err == nil {
				dimensions = dim
			}
		}
		if sm := vectorSimilarityPattern.FindStringSubmatch(cypher); sm != nil {
			similarity = sm[1]
		}
	}

	if err := e.storage.GetSchema().AddVectorIndex(indexName, label, property, dimensions, similarity); err != nil {
		return nil, err
	}
	return emptyResult(), nil
}
