// Package schema provides APOC schema management functions.
//
// This package implements all apoc.schema.* functions for managing
// database schema, constraints, and indexes.
package schema

import (
	"fmt"
)

// Node represents a graph node.
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]interface{}
}

// IndexInfo represents index information.
type IndexInfo struct {
	Name       string
	Label      string
	Properties []string
	Type       string
	State      string
	Unique     bool
}

// ConstraintInfo represents constraint information.
type ConstraintInfo struct {
	Name       string
	Label      string
	Properties []string
	Type       string
}

// logSchemaOp prints a standard "<description> on Label(props)" line for
// the as-yet-unimplemented schema mutation functions.
func logSchemaOp(description, label string, properties []string) {
	fmt.Printf("%s on %s(%v)\n", description, label, properties)
}

// empty returns an empty, non-nil slice of T for the schema query
// functions that don't yet have a backing catalog to read from.
func empty[T any]() []T {
	return []T{}
}

// Assert creates or validates schema constraints.
//
// Example:
//
//	apoc.schema.assert({Person: ['name']}, {Person: [['email']]})
func Assert(indexes, constraints map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"indexesCreated":      0,
		"indexesDropped":      0,
		"constraintsCreated":  0,
		"constraintsDropped":  0,
	}
}

// Nodes returns schema information for node labels.
//
// Example:
//
//	apoc.schema.nodes() => [{label: 'Person', properties: [...]}]
func Nodes() []map[string]interface{} {
	// Placeholder - would query database schema
	return empty[map[string]interface{}]()
}

// Relationships returns schema information for relationship types.
//
// Example:
//
//	apoc.schema.relationships() => [{type: 'KNOWS', properties: [...]}]
func Relationships() []map[string]interface{} {
	// Placeholder - would query database schema
	return empty[map[string]interface{}]()
}

// NodeConstraints returns all node constraints.
//
// Example:
//
//	apoc.schema.node.constraints() => constraint list
func NodeConstraints() []*ConstraintInfo {
	// Placeholder - would query database constraints
	return empty[*ConstraintInfo]()
}

// RelationshipConstraints returns all relationship constraints.
//
// Example:
//
//	apoc.schema.relationship.constraints() => constraint list
func RelationshipConstraints() []*ConstraintInfo {
	// Placeholder - would query database constraints
	return empty[*ConstraintInfo]()
}

// NodeIndexes returns all node indexes.
//
// Example:
//
//	apoc.schema.node.indexes() => index list
func NodeIndexes() []*IndexInfo {
	// Placeholder - would query database indexes
	return empty[*IndexInfo]()
}

// RelationshipIndexes returns all relationship indexes.
//
// Example:
//
//	apoc.schema.relationship.indexes() => index list
func RelationshipIndexes() []*IndexInfo {
	// Placeholder - would query database indexes
	return empty[*IndexInfo]()
}

// NodeConstraintExists checks if a constraint exists.
//
// Example:
//
//	apoc.schema.node.constraintExists('Person', ['email']) => true/false
func NodeConstraintExists(label string, properties []string) bool {
	// Placeholder - would check database
	return false
}

// NodeIndexExists checks if an index exists.
//
// Example:
//
//	apoc.schema.node.indexExists('Person', ['name']) => true/false
func NodeIndexExists(label string, properties []string) bool {
	// Placeholder - would check database
	return false
}

// Properties returns all property keys in the database.
//
// Example:
//
//	apoc.schema.properties.distinct() => ['name', 'age', 'email']
func Properties() []string {
	// Placeholder - would query database
	return empty[string]()
}

// PropertiesDistinct returns distinct property keys.
//
// Example:
//
//	apoc.schema.properties.distinct('Person') => ['name', 'age']
func PropertiesDistinct(label string) []string {
	// Placeholder - would query database
	return empty[string]()
}

// Labels returns all node labels.
//
// Example:
//
//	apoc.schema.labels() => ['Person', 'Company', 'Product']
func Labels() []string {
	// Placeholder - would query database
	return empty[string]()
}

// Types returns all relationship types.
//
// Example:
//
//	apoc.schema.types() => ['KNOWS', 'WORKS_AT', 'BOUGHT']
func Types() []string {
	// Placeholder - would query database
	return empty[string]()
}

// Info returns comprehensive schema information.
//
// Example:
//
//	apoc.schema.info() => {labels: [...], types: [...], constraints: [...], indexes: [...]}
func Info() map[string]interface{} {
	return map[string]interface{}{
		"labels":      Labels(),
		"types":       Types(),
		"constraints": append(NodeConstraints(), RelationshipConstraints()...),
		"indexes":     append(NodeIndexes(), RelationshipIndexes()...),
	}
}

// CreateIndex creates an index.
//
// Example:
//
//	apoc.schema.index.create('Person', ['name']) => index created
func CreateIndex(label string, properties []string) error {
	// Placeholder - would create index
	logSchemaOp("Creating index", label, properties)
	return nil
}

// DropIndex drops an index.
//
// Example:
//
//	apoc.schema.index.drop('Person', ['name']) => index dropped
func DropIndex(label string, properties []string) error {
	// Placeholder - would drop index
	logSchemaOp("Dropping index", label, properties)
	return nil
}

// CreateConstraint creates a constraint.
//
// Example:
//
//	apoc.schema.constraint.create('Person', ['email'], 'UNIQUE') => constraint created
func CreateConstraint(label string, properties []string, constraintType string) error {
	// Placeholder - would create constraint
	logSchemaOp(fmt.Sprintf("Creating %s constraint", constraintType), label, properties)
	return nil
}

// DropConstraint drops a constraint.
//
// Example:
//
//	apoc.schema.constraint.drop('Person', ['email']) => constraint dropped
func DropConstraint(label string, properties []string) error {
	// Placeholder - would drop constraint
	logSchemaOp("Dropping constraint", label, properties)
	return nil
}

// CreateUniqueConstraint creates a unique constraint.
//
// Example:
//
//	apoc.schema.constraint.unique('Person', ['email']) => constraint created
func CreateUniqueConstraint(label string, properties []string) error {
	return CreateConstraint(label, properties, "UNIQUE")
}

// CreateExistsConstraint creates an exists constraint.
//
// Example:
//
//	apoc.schema.constraint.exists('Person', ['name']) => constraint created
func CreateExistsConstraint(label string, properties []string) error {
	return CreateConstraint(label, properties, "EXISTS")
}

// CreateNodeKeyConstraint creates a node key constraint.
//
// Example:
//
//	apoc.schema.constraint.nodeKey('Person', ['id']) => constraint created
func CreateNodeKeyConstraint(label string, properties []string) error {
	return CreateConstraint(label, properties, "NODE_KEY")
}

// Validate validates schema against data.
//
// Example:
//
//	apoc.schema.validate() => {valid: true, errors: []}
func Validate() map[string]interface{} {
	errors := make([]string, 0)

	// Placeholder - would validate schema
	return map[string]interface{}{
		"valid":  len(errors) == 0,
		"errors": errors,
	}
}

// Compare compares two schemas.
//
// Example:
//
//	apoc.schema.compare(schema1, schema2) => differences
func Compare(schema1, schema2 map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"added":   []string{},
		"removed": []string{},
		"changed": []string{},
	}
}

// Export exports schema definition.
//
// Example:
//
//	apoc.schema.export() => schema definition
func Export() map[string]interface{} {
	return Info()
}

// Import imports schema definition.
//
// Example:
//
//	apoc.schema.import(schemaDef) => imported
func Import(schemaDef map[string]interface{}) error {
	// Placeholder - would import schema
	return nil
}

// Snapshot creates a schema snapshot.
//
// Example:
//
//	apoc.schema.snapshot() => snapshot
func Snapshot() map[string]interface{} {
	return Export()
}

// Restore restores from a schema snapshot.
//
// Example:
//
//	apoc.schema.restore(snapshot) => restored
func Restore(snapshot map[string]interface{}) error {
	return Import(snapshot)
}

// Stats returns schema statistics.
//
// Example:
//
//	apoc.schema.stats() => {labelCount: 5, typeCount: 10, ...}
func Stats() map[string]interface{} {
	return map[string]interface{}{
		"labelCount":      len(Labels()),
		"typeCount":       len(Types()),
		"constraintCount": len(NodeConstraints()) + len(RelationshipConstraints()),
		"indexCount":      len(NodeIndexes()) + len(RelationshipIndexes()),
	}
}

// Analyze analyzes schema usage.
//
// Example:
//
//	apoc.schema.analyze() => analysis results
func Analyze() map[string]interface{} {
	return map[string]interface{}{
		"unusedIndexes":      []string{},
		"missingIndexes":     []string{},
		"redundantIndexes":   []string{},
		"recommendations":    []string{},
	}
}

// Optimize optimizes schema.
//
// Example:
//
//	apoc.schema.optimize() => optimization results
func Optimize() map[string]interface{} {
	return map[string]interface{}{
		"indexesCreated":  0,
		"indexesDropped":  0,
		"recommendations": []string{},
	}
}
