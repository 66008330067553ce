// Package quill provides the embeddable API for the QuillGraph property-graph
// database: node/relationship CRUD, Cypher execution, a transaction facade,
// and vector + full-text search, all in-process with no network surface.
//
// Example:
//
//	db, err := quill.Open("./data", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	node, err := db.CreateNode(ctx, []string{"Person"}, map[string]any{"name": "Ada"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := db.ExecuteCypher(ctx, "MATCH (n:Person) RETURN n.name", nil)
package quill

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quillgraph/quill/pkg/cypher"
	"github.com/quillgraph/quill/pkg/embed"
	"github.com/quillgraph/quill/pkg/math/vector"
	"github.com/quillgraph/quill/pkg/search"
	"github.com/quillgraph/quill/pkg/storage"
	"github.com/quillgraph/quill/pkg/topology"
)

// Errors returned by DB operations.
var (
	ErrNotFound     = errors.New("node or relationship not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrClosed       = errors.New("database is closed")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoPath       = errors.New("no path exists between the given nodes")
)

// Config holds QuillGraph database configuration options.
type Config struct {
	// Async writes (eventual consistency)
	AsyncWritesEnabled bool          // Enable async writes for faster performance
	AsyncFlushInterval time.Duration // How often to flush pending writes (default: 50ms)

	// ReadOnly rejects any mutating operation at Open time.
	ReadOnly bool

	// TransactionTimeout bounds how long a begin()'d transaction may stay open
	// before auto-commit callers should treat it as abandoned.
	TransactionTimeout time.Duration
}

// DefaultConfig returns sensible default configuration for QuillGraph.
func DefaultConfig() *Config {
	return &Config{
		AsyncWritesEnabled: false,
		AsyncFlushInterval: 50 * time.Millisecond,
		TransactionTimeout: 30 * time.Second,
	}
}

// DB represents an embedded QuillGraph database instance.
//
// All methods are safe for concurrent use; DB serializes writers and allows
// concurrent readers per the single-writer/multi-reader model.
type DB struct {
	config *Config
	mu     sync.RWMutex
	closed bool

	storage        storage.Engine
	wal            *storage.WAL
	cypherExecutor *cypher.StorageExecutor
	searchService  *search.Service

	embedQueue        *EmbedQueue
	embedWorkerConfig *EmbedWorkerConfig

	bgWg sync.WaitGroup
}

// Open opens or creates a QuillGraph database at the specified directory.
//
// Persistent storage (dataDir != ""):
//   - BadgerDB-backed engine wrapped in a write-ahead log for durability
//   - Optionally wrapped in an async write buffer (config.AsyncWritesEnabled)
//
// In-memory storage (dataDir == ""): data does not survive process exit,
// useful for tests.
func Open(dataDir string, config *Config) (*DB, error) {
	if config == nil {
		config = DefaultConfig()
	}

	db := &DB{config: config}

	if dataDir != "" {
		badgerEngine, err := storage.NewBadgerEngineWithOptions(storage.BadgerOptions{
			DataDir: dataDir,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent storage: %w", err)
		}

		walConfig := storage.DefaultWALConfig()
		walConfig.Dir = dataDir + "/wal"
		wal, err := storage.NewWAL(walConfig.Dir, walConfig)
		if err != nil {
			badgerEngine.Close()
			return nil, fmt.Errorf("failed to initialize WAL: %w", err)
		}
		db.wal = wal

		walEngine := storage.NewWALEngine(badgerEngine, wal)

		if config.AsyncWritesEnabled {
			asyncConfig := &storage.AsyncEngineConfig{FlushInterval: config.AsyncFlushInterval}
			db.storage = storage.NewAsyncEngine(walEngine, asyncConfig)
			log.Printf("using persistent storage at %s (WAL + async writes, flush: %v)", dataDir, config.AsyncFlushInterval)
		} else {
			db.storage = walEngine
			log.Printf("using persistent storage at %s (WAL enabled, batch sync)", dataDir)
		}
	} else {
		db.storage = storage.NewMemoryEngine()
		log.Println("using in-memory storage (data will not persist)")
	}

	db.cypherExecutor = cypher.NewStorageExecutor(db.storage)

	db.searchService = search.NewService(db.storage)

	// Build search indexes from existing data in the background so Open()
	// returns immediately on a large pre-existing database.
	db.bgWg.Add(1)
	go func() {
		defer db.bgWg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := db.searchService.BuildIndexes(ctx); err != nil {
			log.Printf("failed to build search indexes: %v", err)
		}
	}()

	return db, nil
}

// SetEmbedder configures the auto-embed queue and wires it into the Cypher
// executor so nodes created via Cypher also get embeddings computed.
func (db *DB) SetEmbedder(embedder embed.Embedder) {
	if embedder == nil {
		return
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.cypherExecutor != nil {
		db.cypherExecutor.SetEmbedder(embedder)
	}

	if db.embedQueue != nil {
		return
	}

	db.embedQueue = NewEmbedQueue(embedder, db.storage, db.embedWorkerConfig)
	db.embedQueue.SetOnEmbedded(func(node *storage.Node) {
		if db.searchService != nil {
			_ = db.searchService.IndexNode(node)
		}
	})

	if db.cypherExecutor != nil {
		db.cypherExecutor.SetNodeCreatedCallback(func(nodeID string) {
			db.embedQueue.Enqueue(nodeID)
		})
	}

	log.Printf("auto-embed queue started using %s (%d dims)", embedder.Model(), embedder.Dimensions())
}

// BuildSearchIndexes rebuilds vector and full-text indexes from current storage.
func (db *DB) BuildSearchIndexes(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if db.searchService == nil {
		return fmt.Errorf("search service not initialized")
	}
	return db.searchService.BuildIndexes(ctx)
}

// Close flushes and closes the database. Safe to call multiple times.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	db.bgWg.Wait()

	var errs []error

	if db.embedQueue != nil {
		db.embedQueue.Close()
	}

	if db.wal != nil {
		if err := db.wal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("WAL close: %w", err))
		}
	}

	if db.storage != nil {
		if err := db.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// IsAsyncWritesEnabled reports whether writes are buffered for eventual consistency.
func (db *DB) IsAsyncWritesEnabled() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.config.AsyncWritesEnabled
}

func generateID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + "-" + hex.EncodeToString(buf)
}

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// Node is the public representation of a graph node.
type Node struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
	CreatedAt  time.Time              `json:"created_at"`
}

func nodeFromStorage(n *storage.Node) *Node {
	return &Node{
		ID:         string(n.ID),
		Labels:     n.Labels,
		Properties: n.Properties,
		CreatedAt:  n.CreatedAt,
	}
}

// CreateNode creates a new node with the given labels and properties.
func (db *DB) CreateNode(ctx context.Context, labels []string, properties map[string]interface{}) (*Node, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrClosed
	}
	if db.config.ReadOnly {
		return nil, fmt.Errorf("%w: database is read-only", ErrInvalidInput)
	}

	id := generateID("node")
	now := time.Now()

	if properties == nil {
		properties = map[string]interface{}{}
	}
	delete(properties, "embedding")
	delete(properties, "embeddings")
	delete(properties, "vector")

	node := &storage.Node{
		ID:         storage.NodeID(id),
		Labels:     labels,
		Properties: properties,
		CreatedAt:  now,
	}

	if err := db.storage.CreateNode(node); err != nil {
		return nil, err
	}

	if db.embedQueue != nil {
		db.embedQueue.Enqueue(id)
	}
	if db.searchService != nil {
		_ = db.searchService.IndexNode(node)
	}

	return nodeFromStorage(node), nil
}

// GetNode retrieves a node by ID.
func (db *DB) GetNode(ctx context.Context, id string) (*Node, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	n, err := db.storage.GetNode(storage.NodeID(id))
	if err != nil {
		return nil, ErrNotFound
	}
	return nodeFromStorage(n), nil
}

// ListNodes returns nodes with an optional label filter, using streaming
// iteration to avoid loading the whole graph into memory.
func (db *DB) ListNodes(ctx context.Context, label string, limit, offset int) ([]*Node, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	var nodes []*Node
	count := 0

	err := storage.StreamNodesWithFallback(ctx, db.storage, 1000, func(n *storage.Node) error {
		if label != "" && !hasLabel(n.Labels, label) {
			return nil
		}
		if count < offset {
			count++
			return nil
		}
		if len(nodes) >= limit {
			return storage.ErrIterationStopped
		}
		nodes = append(nodes, nodeFromStorage(n))
		count++
		return nil
	})

	if err != nil && err != storage.ErrIterationStopped {
		return nil, err
	}
	return nodes, nil
}

// MatchNodes returns nodes carrying all the given labels whose properties
// contain every key/value pair in properties (exact equality match).
func (db *DB) MatchNodes(ctx context.Context, labels []string, properties map[string]interface{}, limit int) ([]*Node, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	var matches []*Node
	err := storage.StreamNodesWithFallback(ctx, db.storage, 1000, func(n *storage.Node) error {
		for _, l := range labels {
			if !hasLabel(n.Labels, l) {
				return nil
			}
		}
		for k, v := range properties {
			if nv, ok := n.Properties[k]; !ok || nv != v {
				return nil
			}
		}
		if limit > 0 && len(matches) >= limit {
			return storage.ErrIterationStopped
		}
		matches = append(matches, nodeFromStorage(n))
		return nil
	})
	if err != nil && err != storage.ErrIterationStopped {
		return nil, err
	}
	return matches, nil
}

// PropertyPatchMode controls how UpdateNodeProperties merges a patch.
type PropertyPatchMode int

const (
	// PatchMerge adds/overwrites only the keys present in the patch.
	PatchMerge PropertyPatchMode = iota
	// PatchReplace discards existing properties and replaces them with the patch.
	PatchReplace
)

// UpdateNodeProperties applies patch to a node's properties according to mode.
func (db *DB) UpdateNodeProperties(ctx context.Context, id string, patch map[string]interface{}, mode PropertyPatchMode) (*Node, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrClosed
	}

	n, err := db.storage.GetNode(storage.NodeID(id))
	if err != nil {
		return nil, ErrNotFound
	}

	switch mode {
	case PatchReplace:
		n.Properties = map[string]interface{}{}
		for k, v := range patch {
			n.Properties[k] = v
		}
	default:
		if n.Properties == nil {
			n.Properties = map[string]interface{}{}
		}
		for k, v := range patch {
			n.Properties[k] = v
		}
	}

	if err := db.storage.UpdateNode(n); err != nil {
		return nil, err
	}
	return nodeFromStorage(n), nil
}

// AddLabels adds labels to a node, ignoring labels the node already carries.
func (db *DB) AddLabels(ctx context.Context, id string, labels []string) (*Node, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrClosed
	}

	n, err := db.storage.GetNode(storage.NodeID(id))
	if err != nil {
		return nil, ErrNotFound
	}

	for _, l := range labels {
		if !hasLabel(n.Labels, l) {
			n.Labels = append(n.Labels, l)
		}
	}

	if err := db.storage.UpdateNode(n); err != nil {
		return nil, err
	}
	return nodeFromStorage(n), nil
}

// RemoveLabels removes labels from a node. A node may end up with zero
// labels; it is not deleted or rejected.
func (db *DB) RemoveLabels(ctx context.Context, id string, labels []string) (*Node, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrClosed
	}

	n, err := db.storage.GetNode(storage.NodeID(id))
	if err != nil {
		return nil, ErrNotFound
	}

	remaining := n.Labels[:0:0]
	for _, l := range n.Labels {
		if !hasLabel(labels, l) {
			remaining = append(remaining, l)
		}
	}
	n.Labels = remaining

	if err := db.storage.UpdateNode(n); err != nil {
		return nil, err
	}
	return nodeFromStorage(n), nil
}

// DeleteNode deletes a node and its incident relationships.
func (db *DB) DeleteNode(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	if db.searchService != nil {
		_ = db.searchService.RemoveNode(storage.NodeID(id))
	}

	return db.storage.DeleteNode(storage.NodeID(id))
}

func hasLabel(labels []string, target string) bool {
	for _, l := range labels {
		if l == target {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Relationships
// ---------------------------------------------------------------------------

// Relationship is the public representation of a directed, typed edge.
type Relationship struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"`
	Target     string                 `json:"target"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func relationshipFromStorage(e *storage.Edge) *Relationship {
	return &Relationship{
		ID:         string(e.ID),
		Source:     string(e.StartNode),
		Target:     string(e.EndNode),
		Type:       e.Type,
		Properties: e.Properties,
		CreatedAt:  e.CreatedAt,
	}
}

// CreateEdge creates a directed relationship between two existing nodes.
func (db *DB) CreateEdge(ctx context.Context, source, target, edgeType string, properties map[string]interface{}) (*Relationship, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrClosed
	}

	if _, err := db.storage.GetNode(storage.NodeID(source)); err != nil {
		return nil, fmt.Errorf("source node not found: %w", ErrNotFound)
	}
	if _, err := db.storage.GetNode(storage.NodeID(target)); err != nil {
		return nil, fmt.Errorf("target node not found: %w", ErrNotFound)
	}

	edge := &storage.Edge{
		ID:         storage.EdgeID(generateID("edge")),
		StartNode:  storage.NodeID(source),
		EndNode:    storage.NodeID(target),
		Type:       edgeType,
		Properties: properties,
		CreatedAt:  time.Now(),
	}

	if err := db.storage.CreateEdge(edge); err != nil {
		return nil, err
	}
	return relationshipFromStorage(edge), nil
}

// GetEdge retrieves a relationship by ID.
func (db *DB) GetEdge(ctx context.Context, id string) (*Relationship, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	e, err := db.storage.GetEdge(storage.EdgeID(id))
	if err != nil {
		return nil, ErrNotFound
	}
	return relationshipFromStorage(e), nil
}

// ListEdges returns relationships with an optional type filter.
func (db *DB) ListEdges(ctx context.Context, relType string, limit, offset int) ([]*Relationship, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	allEdges, err := db.storage.AllEdges()
	if err != nil {
		return nil, err
	}

	var edges []*Relationship
	count := 0
	for _, e := range allEdges {
		if relType != "" && e.Type != relType {
			continue
		}
		if count < offset {
			count++
			continue
		}
		if len(edges) >= limit {
			break
		}
		edges = append(edges, relationshipFromStorage(e))
		count++
	}
	return edges, nil
}

// DeleteEdge deletes a relationship.
func (db *DB) DeleteEdge(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	return db.storage.DeleteEdge(storage.EdgeID(id))
}

// Direction constrains traversal to outgoing, incoming, or both.
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

// Neighbors returns the relationships incident to id, filtered by direction
// and, if non-empty, relationship type.
func (db *DB) Neighbors(ctx context.Context, id string, direction Direction, relType string) ([]*Relationship, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	nodeID := storage.NodeID(id)
	var edges []*storage.Edge

	if direction == DirectionOutgoing || direction == DirectionBoth {
		out, err := db.storage.GetOutgoingEdges(nodeID)
		if err != nil {
			return nil, err
		}
		edges = append(edges, out...)
	}
	if direction == DirectionIncoming || direction == DirectionBoth {
		in, err := db.storage.GetIncomingEdges(nodeID)
		if err != nil {
			return nil, err
		}
		edges = append(edges, in...)
	}

	var results []*Relationship
	for _, e := range edges {
		if relType != "" && e.Type != relType {
			continue
		}
		results = append(results, relationshipFromStorage(e))
	}
	return results, nil
}

// FindShortestPath returns the relationship chain of a shortest path between
// source and target (unweighted BFS, direction-agnostic), or ErrNoPath.
func (db *DB) FindShortestPath(ctx context.Context, source, target string, maxDepth int) ([]*Relationship, error) {
	paths, err := db.findPaths(ctx, source, target, maxDepth, 1)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoPath
	}
	return paths[0], nil
}

// FindPath returns up to limit paths (as relationship chains) between source
// and target with length at most maxDepth hops, shortest first.
func (db *DB) FindPath(ctx context.Context, source, target string, maxDepth, limit int) ([][]*Relationship, error) {
	return db.findPaths(ctx, source, target, maxDepth, limit)
}

type pathFrame struct {
	node string
	path []*storage.Edge
}

// findPaths performs a breadth-first search over both edge directions,
// expanding edge-disjoint-by-construction frontiers level by level so the
// first `limit` completions are shortest-first and deterministic.
func (db *DB) findPaths(ctx context.Context, source, target string, maxDepth, limit int) ([][]*Relationship, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	if source == target {
		return nil, nil
	}
	if maxDepth <= 0 {
		maxDepth = 15
	}
	if limit <= 0 {
		limit = 1
	}

	queue := []pathFrame{{node: source}}
	var found [][]*Relationship

	for depth := 0; depth < maxDepth && len(queue) > 0 && len(found) < limit; depth++ {
		var next []pathFrame
		for _, frame := range queue {
			nodeID := storage.NodeID(frame.node)
			out, _ := db.storage.GetOutgoingEdges(nodeID)
			in, _ := db.storage.GetIncomingEdges(nodeID)
			candidates := append(append([]*storage.Edge{}, out...), in...)

			for _, e := range candidates {
				neighbor := string(e.EndNode)
				if neighbor == frame.node {
					neighbor = string(e.StartNode)
				}
				if edgeUsed(frame.path, e.ID) {
					continue
				}

				newPath := append(append([]*storage.Edge{}, frame.path...), e)
				if neighbor == target {
					rels := make([]*Relationship, len(newPath))
					for i, pe := range newPath {
						rels[i] = relationshipFromStorage(pe)
					}
					found = append(found, rels)
					if len(found) >= limit {
						return found, nil
					}
					continue
				}
				next = append(next, pathFrame{node: neighbor, path: newPath})
			}
		}
		queue = next
	}

	return found, nil
}

func edgeUsed(path []*storage.Edge, id storage.EdgeID) bool {
	for _, e := range path {
		if e.ID == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Graph-wide metadata
// ---------------------------------------------------------------------------

// GetNodeCount returns the total number of nodes.
func (db *DB) GetNodeCount(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return 0, ErrClosed
	}
	return db.storage.NodeCount()
}

// GetRelationshipCount returns the total number of relationships.
func (db *DB) GetRelationshipCount(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return 0, ErrClosed
	}
	return db.storage.EdgeCount()
}

// GetAllLabels returns all distinct node labels, sorted.
func (db *DB) GetAllLabels(ctx context.Context) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	labels, err := storage.CollectLabels(ctx, db.storage)
	if err != nil {
		return nil, err
	}
	sort.Strings(labels)
	return labels, nil
}

// GetAllRelationshipTypes returns all distinct relationship types, sorted.
func (db *DB) GetAllRelationshipTypes(ctx context.Context) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	types, err := storage.CollectEdgeTypes(ctx, db.storage)
	if err != nil {
		return nil, err
	}
	sort.Strings(types)
	return types, nil
}

// HasFullTextSearch reports whether the full-text (BM25) search subsystem is
// available. QuillGraph always ships its own BM25 index rather than relying
// on an external FTS engine, so this is true whenever the search service is up.
func (db *DB) HasFullTextSearch() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.searchService != nil
}

// DBStats holds coarse database statistics.
type DBStats struct {
	NodeCount int64 `json:"node_count"`
	EdgeCount int64 `json:"edge_count"`
}

// Stats returns current database statistics.
func (db *DB) Stats() DBStats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := DBStats{}
	if db.storage != nil {
		nodeCount, _ := db.storage.NodeCount()
		edgeCount, _ := db.storage.EdgeCount()
		stats.NodeCount = nodeCount
		stats.EdgeCount = edgeCount
	}
	return stats
}

// ---------------------------------------------------------------------------
// Indexes and constraints
// ---------------------------------------------------------------------------

// IndexInfo holds index metadata returned by ListIndexes.
type IndexInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Property string `json:"property"`
	Type     string `json:"type"` // property, composite, fulltext, vector, range
}

// CreateNodeIndex creates a single-property index on label.property.
func (db *DB) CreateNodeIndex(ctx context.Context, name, label, property string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return db.storage.GetSchema().AddPropertyIndex(name, label, []string{property})
}

// CreateConstraint creates a uniqueness constraint on label.property.
func (db *DB) CreateConstraint(ctx context.Context, name, label, property string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return db.storage.GetSchema().AddUniqueConstraint(name, label, property)
}

// ListIndexes returns all property, composite, fulltext, vector, and range indexes.
func (db *DB) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	var infos []IndexInfo
	for _, raw := range db.storage.GetSchema().GetIndexes() {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		info := IndexInfo{
			Name: stringField(m, "name"),
			Type: strings.ToLower(stringField(m, "type")),
		}
		if label := stringField(m, "label"); label != "" {
			info.Label = label
		} else if labels, ok := m["labels"].([]string); ok && len(labels) > 0 {
			info.Label = labels[0]
		}
		if prop := stringField(m, "property"); prop != "" {
			info.Property = prop
		} else if props, ok := m["properties"].([]string); ok && len(props) > 0 {
			info.Property = props[0]
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// Tx is an explicit, multi-statement transaction handle bound to the
// underlying storage engine's own ACID transaction implementation.
type Tx struct {
	db *DB
	tx storageTx
}

// storageTx is satisfied by both storage.Transaction (MemoryEngine) and
// storage.BadgerTransaction (BadgerEngine); the facade dispatches to whichever
// the open engine produces so callers never see the difference.
type storageTx interface {
	CreateNode(node *storage.Node) error
	UpdateNode(node *storage.Node) error
	DeleteNode(nodeID storage.NodeID) error
	CreateEdge(edge *storage.Edge) error
	DeleteEdge(edgeID storage.EdgeID) error
	GetNode(nodeID storage.NodeID) (*storage.Node, error)
	Commit() error
	Rollback() error
	IsActive() bool
}

// Begin starts an explicit transaction. The caller must Commit or Rollback it.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	switch engine := db.storage.(type) {
	case *storage.MemoryEngine:
		return &Tx{db: db, tx: engine.BeginTransaction()}, nil
	case *storage.BadgerEngine:
		tx, err := engine.BeginTransaction()
		if err != nil {
			return nil, err
		}
		return &Tx{db: db, tx: tx}, nil
	default:
		return nil, fmt.Errorf("%w: explicit transactions require a MemoryEngine or BadgerEngine backend", ErrInvalidInput)
	}
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction, discarding its writes.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// CreateNode creates a node within the transaction.
func (t *Tx) CreateNode(labels []string, properties map[string]interface{}) (*Node, error) {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	node := &storage.Node{
		ID:         storage.NodeID(generateID("node")),
		Labels:     labels,
		Properties: properties,
		CreatedAt:  time.Now(),
	}
	if err := t.tx.CreateNode(node); err != nil {
		return nil, err
	}
	return nodeFromStorage(node), nil
}

// CreateEdge creates a relationship within the transaction.
func (t *Tx) CreateEdge(source, target, edgeType string, properties map[string]interface{}) (*Relationship, error) {
	edge := &storage.Edge{
		ID:         storage.EdgeID(generateID("edge")),
		StartNode:  storage.NodeID(source),
		EndNode:    storage.NodeID(target),
		Type:       edgeType,
		Properties: properties,
		CreatedAt:  time.Now(),
	}
	if err := t.tx.CreateEdge(edge); err != nil {
		return nil, err
	}
	return relationshipFromStorage(edge), nil
}

// WithTransaction runs fn within a scoped transaction: on success the
// transaction is committed; on error, or on panic, it is rolled back and the
// panic re-raised. The transaction is always released, matching the "begin
// then guaranteed release" contract of the facade.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Cypher execution
// ---------------------------------------------------------------------------

// CypherResult holds results from a Cypher query.
type CypherResult struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// ExecuteCypher runs a Cypher query and returns structured column/row results.
func (db *DB) ExecuteCypher(ctx context.Context, query string, params map[string]interface{}) (*CypherResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	result, err := db.cypherExecutor.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return &CypherResult{Columns: result.Columns, Rows: result.Rows}, nil
}

// Cypher runs a Cypher query and returns one map per row, keyed by column name.
func (db *DB) Cypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	raw, err := db.ExecuteCypher(ctx, query, params)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, len(raw.Rows))
	for i, row := range raw.Rows {
		results[i] = make(map[string]any)
		for j, col := range raw.Columns {
			if j < len(row) {
				results[i][col] = row[j]
			}
		}
	}
	return results, nil
}

// TypedCypherResult holds typed query results.
type TypedCypherResult[T any] struct {
	Columns []string `json:"columns"`
	Rows    []T      `json:"rows"`
}

// ExecuteCypherTyped runs a Cypher query and decodes results into typed structs.
//
//	type Task struct {
//	    ID     string `cypher:"id"`
//	    Title  string `cypher:"title"`
//	}
//	result, err := quill.ExecuteCypherTyped[Task](db, ctx, "MATCH (t:Task) RETURN t.id, t.title", nil)
func ExecuteCypherTyped[T any](db *DB, ctx context.Context, query string, params map[string]interface{}) (*TypedCypherResult[T], error) {
	raw, err := db.ExecuteCypher(ctx, query, params)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		var decoded T
		if err := decodeRow(raw.Columns, row, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		rows = append(rows, decoded)
	}

	return &TypedCypherResult[T]{Columns: raw.Columns, Rows: rows}, nil
}

// First returns the first row or the zero value if the result set is empty.
func (r *TypedCypherResult[T]) First() (T, bool) {
	if len(r.Rows) == 0 {
		var zero T
		return zero, false
	}
	return r.Rows[0], true
}

func decodeRow(columns []string, values []interface{}, dest interface{}) error {
	m := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if i < len(values) {
			m[col] = values[i]
		}
	}

	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decodeRow: dest must be a pointer to struct")
	}
	return decodeMapToStruct(m, destVal.Elem(), destVal.Elem().Type())
}

func decodeMapToStruct(m map[string]interface{}, destElem reflect.Value, destType reflect.Type) error {
	for i := 0; i < destType.NumField(); i++ {
		field := destType.Field(i)
		tag := field.Tag.Get("cypher")
		if tag == "" {
			tag = field.Name
		}
		if tag == "-" {
			continue
		}
		val, ok := m[tag]
		if !ok {
			continue
		}
		if err := assignValue(destElem.Field(i), val); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func assignValue(field reflect.Value, val interface{}) error {
	if val == nil || !field.CanSet() {
		return nil
	}

	valRef := reflect.ValueOf(val)
	if valRef.Type().AssignableTo(field.Type()) {
		field.Set(valRef)
		return nil
	}
	if valRef.Type().ConvertibleTo(field.Type()) {
		field.Set(valRef.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %v", val, field.Type())
}

// ---------------------------------------------------------------------------
// Search: vector index management, semantic search, text search
// ---------------------------------------------------------------------------

// VectorMetric names a vector similarity function.
type VectorMetric string

const (
	MetricCosine    VectorMetric = "cosine"
	MetricEuclidean VectorMetric = "euclidean"
	MetricDot       VectorMetric = "dot"
)

// VectorIndexInfo describes a registered vector index.
type VectorIndexInfo struct {
	Name       string       `json:"name"`
	Label      string       `json:"label"`
	Property   string       `json:"property"`
	Dimensions int          `json:"dimensions"`
	Metric     VectorMetric `json:"metric"`
}

// CreateVectorIndex registers a vector index over label.property. Embeddings
// stored via UpsertEmbedding/UpsertEmbeddings on matching nodes become
// searchable through SemanticSearch(indexName, ...).
func (db *DB) CreateVectorIndex(ctx context.Context, name, label, property string, dimensions int, metric VectorMetric) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidInput)
	}
	switch metric {
	case MetricCosine, MetricEuclidean, MetricDot:
	default:
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}

	return db.storage.GetSchema().AddVectorIndex(name, label, property, dimensions, string(metric))
}

// ListVectorIndexes returns all registered vector indexes.
func (db *DB) ListVectorIndexes(ctx context.Context) ([]VectorIndexInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	var infos []VectorIndexInfo
	for _, vi := range db.storage.GetSchema().ListVectorIndexes() {
		infos = append(infos, VectorIndexInfo{
			Name: vi.Name, Label: vi.Label, Property: vi.Property,
			Dimensions: vi.Dimensions, Metric: VectorMetric(vi.SimilarityFunc),
		})
	}
	return infos, nil
}

// DropVectorIndex removes a vector index by name.
func (db *DB) DropVectorIndex(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if !db.storage.GetSchema().RemoveVectorIndex(name) {
		return ErrNotFound
	}
	return nil
}

// UpsertEmbedding attaches a vector to an existing node and makes it
// discoverable via SemanticSearch and FindSimilar.
func (db *DB) UpsertEmbedding(ctx context.Context, nodeID string, embedding []float32) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	n, err := db.storage.GetNode(storage.NodeID(nodeID))
	if err != nil {
		return ErrNotFound
	}
	n.Embedding = embedding
	if err := db.storage.UpdateNode(n); err != nil {
		return err
	}
	if db.searchService != nil {
		_ = db.searchService.IndexNode(n)
	}
	return nil
}

// UpsertEmbeddings attaches vectors to many nodes in one call, returning the
// number successfully updated. A missing node ID is skipped, not fatal.
func (db *DB) UpsertEmbeddings(ctx context.Context, embeddings map[string][]float32) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return 0, ErrClosed
	}

	count := 0
	for nodeID, embedding := range embeddings {
		n, err := db.storage.GetNode(storage.NodeID(nodeID))
		if err != nil {
			continue
		}
		n.Embedding = embedding
		if err := db.storage.UpdateNode(n); err != nil {
			continue
		}
		if db.searchService != nil {
			_ = db.searchService.IndexNode(n)
		}
		count++
	}
	return count, nil
}

// RegisterReranker installs a cross-encoder used to re-score the top
// candidates returned by SemanticSearch when opts.Rerank is true.
func (db *DB) RegisterReranker(ctx context.Context, ce *search.CrossEncoder) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.searchService != nil {
		db.searchService.SetCrossEncoder(ce)
	}
}

// SearchResult holds a single search hit with its relevance score.
type SearchResult struct {
	Node  *Node   `json:"node"`
	Score float64 `json:"score"`

	RRFScore   float64 `json:"rrf_score,omitempty"`
	VectorRank int     `json:"vector_rank,omitempty"`
	BM25Rank   int     `json:"bm25_rank,omitempty"`
}

// SemanticSearchOptions configures a vector similarity search.
type SemanticSearchOptions struct {
	Limit         int
	Labels        []string
	MinSimilarity float64
	Rerank        bool
}

// SemanticSearch performs ANN search against queryVector, restricted to the
// vector index's configured label when indexName names a registered index.
// Structural filtering by Labels narrows candidates before scoring; exact
// brute-force scan backs every index (no external ANN library), satisfying
// the spec's requirement that flat/exact search always be available.
func (db *DB) SemanticSearch(ctx context.Context, queryVector []float32, opts *SemanticSearchOptions) ([]*SearchResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	if db.searchService == nil {
		return nil, fmt.Errorf("search service not initialized")
	}
	if opts == nil {
		opts = &SemanticSearchOptions{Limit: 10}
	}

	searchOpts := search.DefaultSearchOptions()
	searchOpts.Limit = opts.Limit
	searchOpts.Types = opts.Labels
	if opts.MinSimilarity > 0 {
		searchOpts.MinSimilarity = opts.MinSimilarity
	}
	searchOpts.RerankEnabled = opts.Rerank

	response, err := db.searchService.Search(ctx, "", queryVector, searchOpts)
	if err != nil {
		return nil, err
	}
	return toSearchResults(response.Results), nil
}

// TextSearchOptions configures a BM25 full-text search.
type TextSearchOptions struct {
	Limit  int
	Labels []string
}

// TextSearch performs BM25 full-text search over indexed node content.
func (db *DB) TextSearch(ctx context.Context, query string, opts *TextSearchOptions) ([]*SearchResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	if db.searchService == nil {
		return nil, fmt.Errorf("search service not initialized")
	}
	if opts == nil {
		opts = &TextSearchOptions{Limit: 10}
	}

	searchOpts := search.DefaultSearchOptions()
	searchOpts.Limit = opts.Limit
	searchOpts.Types = opts.Labels

	response, err := db.searchService.Search(ctx, query, nil, searchOpts)
	if err != nil {
		return nil, err
	}
	return toSearchResults(response.Results), nil
}

func toSearchResults(rs []search.SearchResult) []*SearchResult {
	results := make([]*SearchResult, len(rs))
	for i, r := range rs {
		results[i] = &SearchResult{
			Node:       &Node{ID: r.ID, Labels: r.Labels, Properties: r.Properties},
			Score:      r.Score,
			RRFScore:   r.RRFScore,
			VectorRank: r.VectorRank,
			BM25Rank:   r.BM25Rank,
		}
	}
	return results
}

// FindSimilar finds nodes whose embedding is closest to nodeID's, by cosine
// similarity, excluding nodeID itself and nodes without an embedding.
func (db *DB) FindSimilar(ctx context.Context, nodeID string, limit int) ([]*SearchResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}

	target, err := db.storage.GetNode(storage.NodeID(nodeID))
	if err != nil {
		return nil, ErrNotFound
	}
	if len(target.Embedding) == 0 {
		return nil, fmt.Errorf("node has no embedding")
	}

	type scored struct {
		node  *storage.Node
		score float64
	}
	var results []scored

	err = storage.StreamNodesWithFallback(ctx, db.storage, 1000, func(n *storage.Node) error {
		if string(n.ID) == nodeID || len(n.Embedding) == 0 {
			return nil
		}
		sim := vector.CosineSimilarity(target.Embedding, n.Embedding)

		if len(results) < limit {
			results = append(results, scored{node: n, score: sim})
			if len(results) == limit {
				sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
			}
		} else if limit > 0 && sim > results[limit-1].score {
			results[limit-1] = scored{node: n, score: sim}
			sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{Node: nodeFromStorage(r.node), Score: r.score}
	}
	return searchResults, nil
}

// ---------------------------------------------------------------------------
// Topological link prediction
// ---------------------------------------------------------------------------

// LinkPredictionMethod selects which structural heuristic PredictLinks uses.
type LinkPredictionMethod string

// Supported link prediction methods, in increasing order of how much they
// weight rare (vs. popular) shared neighbors.
const (
	LinkPredictCommonNeighbors        LinkPredictionMethod = LinkPredictionMethod(topology.CommonNeighbors)
	LinkPredictJaccard                LinkPredictionMethod = LinkPredictionMethod(topology.Jaccard)
	LinkPredictAdamicAdar             LinkPredictionMethod = LinkPredictionMethod(topology.AdamicAdar)
	LinkPredictPreferentialAttachment LinkPredictionMethod = LinkPredictionMethod(topology.PreferentialAttachment)
	LinkPredictResourceAllocation     LinkPredictionMethod = LinkPredictionMethod(topology.ResourceAllocation)
)

// LinkPrediction is a candidate edge suggested by graph structure alone - no
// embeddings or properties are consulted.
type LinkPrediction struct {
	Target storage.NodeID
	Score  float64
	Method LinkPredictionMethod
}

// PredictLinks suggests topK nodes that sourceID is not yet connected to but
// that its two-hop neighborhood makes structurally likely, scored by method.
// This complements SemanticSearch/FindSimilar: it only looks at adjacency,
// so it works even for nodes without embeddings and is cheap enough to call
// on every node in a batch job.
func (db *DB) PredictLinks(ctx context.Context, sourceID string, method LinkPredictionMethod, topK int) ([]LinkPrediction, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	if _, err := db.storage.GetNode(storage.NodeID(sourceID)); err != nil {
		return nil, fmt.Errorf("predict links: %w", ErrNotFound)
	}

	graph, err := topology.Build(ctx, db.storage)
	if err != nil {
		return nil, fmt.Errorf("building topology graph: %w", err)
	}

	candidates := topology.Score(graph, storage.NodeID(sourceID), topology.Method(method), topK)
	predictions := make([]LinkPrediction, len(candidates))
	for i, c := range candidates {
		predictions[i] = LinkPrediction{Target: c.Target, Score: c.Score, Method: LinkPredictionMethod(c.Method)}
	}
	return predictions, nil
}
