// Package storage - AsyncEngine layers write-behind caching over any Engine
// for eventual consistency.
//
//   - Writes land in an in-memory cache and return immediately.
//   - A background ticker flushes the cache to the wrapped engine.
//   - Reads check the cache first, falling back to the wrapped engine.
//
// The trade is throughput for a short consistency window: a crash between
// a write and the next flush loses that write (pair with a WAL-backed
// engine for durability), and a read immediately after a write on another
// goroutine may not see it until the next flush tick.
package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// AsyncEngine wraps a storage engine with write-behind caching.
type AsyncEngine struct {
	engine Engine

	mu          sync.RWMutex
	nodeCache   map[NodeID]*Node
	edgeCache   map[EdgeID]*Edge
	deleteNodes map[NodeID]bool
	deleteEdges map[EdgeID]bool
	labelIndex  map[string]map[NodeID]bool // normalized label -> node IDs, for O(1) label lookups

	flushTicker *time.Ticker
	stopChan    chan struct{}
	wg          sync.WaitGroup

	pendingWrites int64
	totalFlushes  int64
}

// AsyncEngineConfig configures the async engine's background flush cadence.
type AsyncEngineConfig struct {
	// FlushInterval controls how often pending writes are flushed to the
	// wrapped engine. Smaller means more consistent, larger means better
	// write throughput. Default: 50ms.
	FlushInterval time.Duration
}

// DefaultAsyncEngineConfig returns sensible defaults.
func DefaultAsyncEngineConfig() *AsyncEngineConfig {
	return &AsyncEngineConfig{FlushInterval: 50 * time.Millisecond}
}

// NewAsyncEngine wraps engine with write-behind caching and starts its
// background flush loop.
func NewAsyncEngine(engine Engine, config *AsyncEngineConfig) *AsyncEngine {
	if config == nil {
		config = DefaultAsyncEngineConfig()
	}

	ae := &AsyncEngine{
		engine:      engine,
		nodeCache:   make(map[NodeID]*Node),
		edgeCache:   make(map[EdgeID]*Edge),
		deleteNodes: make(map[NodeID]bool),
		deleteEdges: make(map[EdgeID]bool),
		labelIndex:  make(map[string]map[NodeID]bool),
		flushTicker: time.NewTicker(config.FlushInterval),
		stopChan:    make(chan struct{}),
	}

	ae.wg.Add(1)
	go ae.flushLoop()

	return ae
}

func (ae *AsyncEngine) flushLoop() {
	defer ae.wg.Done()
	for {
		select {
		case <-ae.flushTicker.C:
			ae.Flush()
		case <-ae.stopChan:
			ae.Flush()
			return
		}
	}
}

// GetUnderlying and GetEngine both expose the wrapped engine; transaction
// support needs direct access to it (e.g. to type-assert for a
// Badger-backed engine's ACID transactions).
func (ae *AsyncEngine) GetUnderlying() Engine { return ae.engine }
func (ae *AsyncEngine) GetEngine() Engine     { return ae.engine }

// --- flush ---

// FlushResult reports what a Flush call actually did, for callers that want
// programmatic access rather than a single pass/fail error.
type FlushResult struct {
	NodesWritten  int
	NodesFailed   int
	EdgesWritten  int
	EdgesFailed   int
	NodesDeleted  int
	EdgesDeleted  int
	DeletesFailed int
	FailedNodeIDs []NodeID // left in cache, retried on the next flush
	FailedEdgeIDs []EdgeID
}

// HasErrors reports whether any part of the flush failed.
func (r FlushResult) HasErrors() bool {
	return r.NodesFailed > 0 || r.EdgesFailed > 0 || r.DeletesFailed > 0
}

// Flush writes all pending changes to the wrapped engine.
func (ae *AsyncEngine) Flush() error {
	result := ae.FlushWithResult()
	if result.HasErrors() {
		return fmt.Errorf("flush incomplete: %d nodes failed, %d edges failed, %d deletes failed",
			result.NodesFailed, result.EdgesFailed, result.DeletesFailed)
	}
	return nil
}

// pendingSnapshot is a point-in-time copy of the write-behind cache, taken
// under the lock and then flushed to the engine without holding it - I/O
// must never block reads.
type pendingSnapshot struct {
	nodes        map[NodeID]*Node
	edges        map[EdgeID]*Edge
	deletedNodes map[NodeID]bool
	deletedEdges map[EdgeID]bool
}

func (ae *AsyncEngine) snapshotPending() pendingSnapshot {
	snap := pendingSnapshot{
		nodes:        make(map[NodeID]*Node, len(ae.nodeCache)),
		edges:        make(map[EdgeID]*Edge, len(ae.edgeCache)),
		deletedNodes: make(map[NodeID]bool, len(ae.deleteNodes)),
		deletedEdges: make(map[EdgeID]bool, len(ae.deleteEdges)),
	}
	for k, v := range ae.nodeCache {
		snap.nodes[k] = v
	}
	for k, v := range ae.edgeCache {
		snap.edges[k] = v
	}
	for k, v := range ae.deleteNodes {
		snap.deletedNodes[k] = v
	}
	for k, v := range ae.deleteEdges {
		snap.deletedEdges[k] = v
	}
	return snap
}

func (ae *AsyncEngine) hasNoPending() bool {
	return len(ae.nodeCache) == 0 && len(ae.edgeCache) == 0 &&
		len(ae.deleteNodes) == 0 && len(ae.deleteEdges) == 0
}

// FlushWithResult writes pending changes to the wrapped engine and reports
// exactly what succeeded. Items that fail to write stay in the cache (not
// removed) so the next flush retries them instead of silently losing data.
func (ae *AsyncEngine) FlushWithResult() FlushResult {
	result := FlushResult{FailedNodeIDs: make([]NodeID, 0), FailedEdgeIDs: make([]EdgeID, 0)}

	ae.mu.Lock()
	if ae.hasNoPending() {
		ae.mu.Unlock()
		return result
	}
	ae.totalFlushes++
	snap := ae.snapshotPending()
	ae.mu.Unlock()

	okNodeDeletes := ae.flushNodeDeletes(snap.deletedNodes, &result)
	okEdgeDeletes := ae.flushEdgeDeletes(snap.deletedEdges, &result)
	okNodeWrites := ae.flushNodeWrites(snap.nodes, snap.deletedNodes, &result)
	okEdgeWrites := ae.flushEdgeWrites(snap.edges, snap.deletedEdges, &result)

	ae.mu.Lock()
	for id, node := range snap.nodes {
		if okNodeWrites[id] && ae.nodeCache[id] == node {
			delete(ae.nodeCache, id)
		}
	}
	for id, edge := range snap.edges {
		if okEdgeWrites[id] && ae.edgeCache[id] == edge {
			delete(ae.edgeCache, id)
		}
	}
	for id := range snap.deletedNodes {
		if okNodeDeletes[id] && ae.deleteNodes[id] {
			delete(ae.deleteNodes, id)
		}
	}
	for id := range snap.deletedEdges {
		if okEdgeDeletes[id] && ae.deleteEdges[id] {
			delete(ae.deleteEdges, id)
		}
	}
	ae.mu.Unlock()

	return result
}

func (ae *AsyncEngine) flushNodeDeletes(toDelete map[NodeID]bool, result *FlushResult) map[NodeID]bool {
	ok := make(map[NodeID]bool)
	if len(toDelete) == 0 {
		return ok
	}
	ids := make([]NodeID, 0, len(toDelete))
	for id := range toDelete {
		ids = append(ids, id)
	}
	if err := ae.engine.BulkDeleteNodes(ids); err == nil {
		for _, id := range ids {
			ok[id] = true
		}
		result.NodesDeleted = len(ids)
		return ok
	}
	for _, id := range ids {
		if err := ae.engine.DeleteNode(id); err != nil {
			result.DeletesFailed++
			continue
		}
		ok[id] = true
		result.NodesDeleted++
	}
	return ok
}

func (ae *AsyncEngine) flushEdgeDeletes(toDelete map[EdgeID]bool, result *FlushResult) map[EdgeID]bool {
	ok := make(map[EdgeID]bool)
	if len(toDelete) == 0 {
		return ok
	}
	ids := make([]EdgeID, 0, len(toDelete))
	for id := range toDelete {
		ids = append(ids, id)
	}
	if err := ae.engine.BulkDeleteEdges(ids); err == nil {
		for _, id := range ids {
			ok[id] = true
		}
		result.EdgesDeleted = len(ids)
		return ok
	}
	for _, id := range ids {
		if err := ae.engine.DeleteEdge(id); err != nil {
			result.DeletesFailed++
			continue
		}
		ok[id] = true
		result.EdgesDeleted++
	}
	return ok
}

// flushNodeWrites upserts every pending node not also marked for deletion.
// UpdateNode has create-or-update semantics on this engine, so one call
// covers both new and modified nodes.
func (ae *AsyncEngine) flushNodeWrites(nodes map[NodeID]*Node, deleted map[NodeID]bool, result *FlushResult) map[NodeID]bool {
	ok := make(map[NodeID]bool)
	for _, node := range nodes {
		if deleted[node.ID] {
			continue
		}
		if err := ae.engine.UpdateNode(node); err != nil {
			result.NodesFailed++
			result.FailedNodeIDs = append(result.FailedNodeIDs, node.ID)
			continue
		}
		ok[node.ID] = true
		result.NodesWritten++
	}
	return ok
}

func (ae *AsyncEngine) flushEdgeWrites(edges map[EdgeID]*Edge, deleted map[EdgeID]bool, result *FlushResult) map[EdgeID]bool {
	ok := make(map[EdgeID]bool)
	pending := make([]*Edge, 0, len(edges))
	for _, edge := range edges {
		if !deleted[edge.ID] {
			pending = append(pending, edge)
		}
	}
	if len(pending) == 0 {
		return ok
	}

	if err := ae.engine.BulkCreateEdges(pending); err == nil {
		for _, e := range pending {
			ok[e.ID] = true
		}
		result.EdgesWritten = len(pending)
		return ok
	}

	for _, edge := range pending {
		if err := ae.engine.CreateEdge(edge); err == nil {
			ok[edge.ID] = true
			result.EdgesWritten++
			continue
		}
		// Bulk and create both failed - the edge may already exist.
		if err := ae.engine.UpdateEdge(edge); err != nil {
			result.EdgesFailed++
			result.FailedEdgeIDs = append(result.FailedEdgeIDs, edge.ID)
			continue
		}
		ok[edge.ID] = true
		result.EdgesWritten++
	}
	return ok
}

// --- single-item writes (cache-only, return immediately) ---

// CreateNode caches node and indexes its labels.
func (ae *AsyncEngine) CreateNode(node *Node) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	delete(ae.deleteNodes, node.ID)
	ae.nodeCache[node.ID] = node
	ae.indexLabels(node)
	ae.pendingWrites++
	return nil
}

// indexLabels must be called with ae.mu held.
func (ae *AsyncEngine) indexLabels(node *Node) {
	for _, label := range node.Labels {
		key := strings.ToLower(label)
		if ae.labelIndex[key] == nil {
			ae.labelIndex[key] = make(map[NodeID]bool)
		}
		ae.labelIndex[key][node.ID] = true
	}
}

// unindexLabels must be called with ae.mu held.
func (ae *AsyncEngine) unindexLabels(node *Node) {
	for _, label := range node.Labels {
		key := strings.ToLower(label)
		delete(ae.labelIndex[key], node.ID)
	}
}

// UpdateNode caches node, overwriting any prior cached version.
func (ae *AsyncEngine) UpdateNode(node *Node) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	ae.nodeCache[node.ID] = node
	ae.pendingWrites++
	return nil
}

// DeleteNode marks id for deletion. If the node was created in this window
// and never flushed, it's simply dropped from the cache - the wrapped
// engine never learns it existed.
func (ae *AsyncEngine) DeleteNode(id NodeID) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	if node, cached := ae.nodeCache[id]; cached {
		ae.unindexLabels(node)
		delete(ae.nodeCache, id)
		return nil
	}

	ae.deleteNodes[id] = true
	ae.pendingWrites++
	return nil
}

// CreateEdge caches edge.
func (ae *AsyncEngine) CreateEdge(edge *Edge) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	delete(ae.deleteEdges, edge.ID)
	ae.edgeCache[edge.ID] = edge
	ae.pendingWrites++
	return nil
}

// UpdateEdge caches edge, overwriting any prior cached version.
func (ae *AsyncEngine) UpdateEdge(edge *Edge) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	ae.edgeCache[edge.ID] = edge
	ae.pendingWrites++
	return nil
}

// DeleteEdge marks id for deletion, or drops it from cache outright if it
// was never flushed to the wrapped engine.
func (ae *AsyncEngine) DeleteEdge(id EdgeID) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	if _, cached := ae.edgeCache[id]; cached {
		delete(ae.edgeCache, id)
		return nil
	}

	ae.deleteEdges[id] = true
	ae.pendingWrites++
	return nil
}

// --- single-item reads (cache, then wrapped engine) ---

// GetNode checks the cache first, falling through to the wrapped engine.
func (ae *AsyncEngine) GetNode(id NodeID) (*Node, error) {
	ae.mu.RLock()
	deleted := ae.deleteNodes[id]
	node, cached := ae.nodeCache[id]
	ae.mu.RUnlock()

	if deleted {
		return nil, ErrNotFound
	}
	if cached {
		return node, nil
	}
	return ae.engine.GetNode(id)
}

// GetEdge checks the cache first, falling through to the wrapped engine.
func (ae *AsyncEngine) GetEdge(id EdgeID) (*Edge, error) {
	ae.mu.RLock()
	deleted := ae.deleteEdges[id]
	edge, cached := ae.edgeCache[id]
	ae.mu.RUnlock()

	if deleted {
		return nil, ErrNotFound
	}
	if cached {
		return edge, nil
	}
	return ae.engine.GetEdge(id)
}

// GetFirstNodeByLabel returns one node carrying label, preferring the
// label index (O(1)) over a full cache scan, and the wrapped engine's own
// GetFirstNodeByLabel (if it implements one) over scanning all its nodes.
func (ae *AsyncEngine) GetFirstNodeByLabel(label string) (*Node, error) {
	ae.mu.RLock()
	key := strings.ToLower(label)
	for id := range ae.labelIndex[key] {
		if ae.deleteNodes[id] {
			continue
		}
		if node := ae.nodeCache[id]; node != nil {
			ae.mu.RUnlock()
			return node, nil
		}
	}
	ae.mu.RUnlock()

	if getter, ok := ae.engine.(interface{ GetFirstNodeByLabel(string) (*Node, error) }); ok {
		return getter.GetFirstNodeByLabel(label)
	}

	nodes, err := ae.engine.GetNodesByLabel(label)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// --- merge helpers ---
//
// Every "all X" / "X by filter" read below follows the same shape: collect
// matches from the cache, fetch the wrapped engine's view without holding
// the lock, then union the two, letting cached entries shadow engine
// entries with the same ID and dropping anything marked for deletion.
// mergeUnique implements that union once for both Node and Edge callers.

func mergeUnique[ID comparable, V any](cached []V, engineItems []V, idOf func(V) ID, deleted map[ID]bool) []V {
	result := make([]V, 0, len(cached)+len(engineItems))
	seen := make(map[ID]bool, len(cached))
	for _, v := range cached {
		result = append(result, v)
		seen[idOf(v)] = true
	}
	for _, v := range engineItems {
		id := idOf(v)
		if !seen[id] && !deleted[id] {
			result = append(result, v)
		}
	}
	return result
}

func nodeID(n *Node) NodeID { return n.ID }
func edgeID(e *Edge) EdgeID { return e.ID }

// GetNodesByLabel merges cached and wrapped-engine nodes carrying label
// (case-insensitive, for Neo4j-style label matching).
func (ae *AsyncEngine) GetNodesByLabel(label string) ([]*Node, error) {
	key := strings.ToLower(label)

	ae.mu.RLock()
	deleted := cloneBoolSet(ae.deleteNodes)
	cached := make([]*Node, 0)
	for _, node := range ae.nodeCache {
		if hasLabel(node, key) {
			cached = append(cached, node)
		}
	}
	ae.mu.RUnlock()

	engineNodes, err := ae.engine.GetNodesByLabel(label)
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineNodes, nodeID, deleted), nil
}

func hasLabel(node *Node, normalizedLabel string) bool {
	for _, l := range node.Labels {
		if strings.ToLower(l) == normalizedLabel {
			return true
		}
	}
	return false
}

func cloneBoolSet[K comparable](src map[K]bool) map[K]bool {
	out := make(map[K]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// BatchGetNodes resolves ids from the cache first, then a single batched
// engine call for whatever's left. Missing IDs are simply absent from the
// result map.
func (ae *AsyncEngine) BatchGetNodes(ids []NodeID) (map[NodeID]*Node, error) {
	if len(ids) == 0 {
		return make(map[NodeID]*Node), nil
	}

	ae.mu.RLock()
	defer ae.mu.RUnlock()

	result := make(map[NodeID]*Node, len(ids))
	var missing []NodeID
	for _, id := range ids {
		if id == "" || ae.deleteNodes[id] {
			continue
		}
		if node, ok := ae.nodeCache[id]; ok {
			result[id] = node
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	engineNodes, err := ae.engine.BatchGetNodes(missing)
	if err != nil {
		return result, nil
	}
	for id, node := range engineNodes {
		if !ae.deleteNodes[id] {
			result[id] = node
		}
	}
	return result, nil
}

// AllNodes merges the cache and the wrapped engine's full node set. The
// read lock spans the entire call, including the engine fetch, so a
// concurrent Flush can't clear the cache out from under an in-progress
// merge.
func (ae *AsyncEngine) AllNodes() ([]*Node, error) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	cached := make([]*Node, 0, len(ae.nodeCache))
	for _, node := range ae.nodeCache {
		cached = append(cached, node)
	}

	engineNodes, err := ae.engine.AllNodes()
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineNodes, nodeID, ae.deleteNodes), nil
}

// AllEdges merges the cache and the wrapped engine's full edge set, under
// the same whole-call locking rationale as AllNodes.
func (ae *AsyncEngine) AllEdges() ([]*Edge, error) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	cached := make([]*Edge, 0, len(ae.edgeCache))
	for _, edge := range ae.edgeCache {
		cached = append(cached, edge)
	}

	engineEdges, err := ae.engine.AllEdges()
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineEdges, edgeID, ae.deleteEdges), nil
}

// GetEdgesByType merges cached and wrapped-engine edges of the given type
// (case-insensitive). An empty type returns every edge.
func (ae *AsyncEngine) GetEdgesByType(edgeType string) ([]*Edge, error) {
	if edgeType == "" {
		return ae.AllEdges()
	}

	key := strings.ToLower(edgeType)
	ae.mu.RLock()
	deleted := cloneBoolSet(ae.deleteEdges)
	cached := make([]*Edge, 0)
	for _, edge := range ae.edgeCache {
		if strings.ToLower(edge.Type) == key {
			cached = append(cached, edge)
		}
	}
	ae.mu.RUnlock()

	engineEdges, err := ae.engine.GetEdgesByType(edgeType)
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineEdges, edgeID, deleted), nil
}

// GetOutgoingEdges merges cached and wrapped-engine edges starting at
// nodeID.
func (ae *AsyncEngine) GetOutgoingEdges(nodeID NodeID) ([]*Edge, error) {
	ae.mu.RLock()
	deleted := cloneBoolSet(ae.deleteEdges)
	var cached []*Edge
	for _, edge := range ae.edgeCache {
		if edge.StartNode == nodeID && !deleted[edge.ID] {
			cached = append(cached, edge)
		}
	}
	ae.mu.RUnlock()

	engineEdges, err := ae.engine.GetOutgoingEdges(nodeID)
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineEdges, edgeID, deleted), nil
}

// GetIncomingEdges merges cached and wrapped-engine edges ending at
// nodeID.
func (ae *AsyncEngine) GetIncomingEdges(nodeID NodeID) ([]*Edge, error) {
	ae.mu.RLock()
	deleted := cloneBoolSet(ae.deleteEdges)
	var cached []*Edge
	for _, edge := range ae.edgeCache {
		if edge.EndNode == nodeID && !deleted[edge.ID] {
			cached = append(cached, edge)
		}
	}
	ae.mu.RUnlock()

	engineEdges, err := ae.engine.GetIncomingEdges(nodeID)
	if err != nil {
		return cached, nil
	}
	return mergeUnique(cached, engineEdges, edgeID, deleted), nil
}

// --- pass-through and aggregate reads ---

func (ae *AsyncEngine) GetEdgesBetween(startID, endID NodeID) ([]*Edge, error) {
	return ae.engine.GetEdgesBetween(startID, endID)
}

func (ae *AsyncEngine) GetEdgeBetween(startID, endID NodeID, edgeType string) *Edge {
	return ae.engine.GetEdgeBetween(startID, endID, edgeType)
}

func (ae *AsyncEngine) GetAllNodes() []*Node {
	nodes, _ := ae.AllNodes()
	return nodes
}

func (ae *AsyncEngine) GetInDegree(nodeID NodeID) int  { return ae.engine.GetInDegree(nodeID) }
func (ae *AsyncEngine) GetOutDegree(nodeID NodeID) int { return ae.engine.GetOutDegree(nodeID) }
func (ae *AsyncEngine) GetSchema() *SchemaManager      { return ae.engine.GetSchema() }

// NodeCount is the wrapped engine's count adjusted for writes still sitting
// in the cache.
func (ae *AsyncEngine) NodeCount() (int64, error) {
	count, err := ae.engine.NodeCount()
	if err != nil {
		return 0, err
	}
	ae.mu.RLock()
	count += int64(len(ae.nodeCache)) - int64(len(ae.deleteNodes))
	ae.mu.RUnlock()
	return count, nil
}

// EdgeCount is the wrapped engine's count adjusted for writes still sitting
// in the cache.
func (ae *AsyncEngine) EdgeCount() (int64, error) {
	count, err := ae.engine.EdgeCount()
	if err != nil {
		return 0, err
	}
	ae.mu.RLock()
	count += int64(len(ae.edgeCache)) - int64(len(ae.deleteEdges))
	ae.mu.RUnlock()
	return count, nil
}

// Close stops the flush loop, performs a final flush, and closes the
// wrapped engine. It returns an error describing both flush failures and
// any writes that remain unflushed afterward - the caller should treat
// either as potential data loss.
func (ae *AsyncEngine) Close() error {
	close(ae.stopChan)
	ae.flushTicker.Stop()
	ae.wg.Wait()

	result := ae.FlushWithResult()

	ae.mu.RLock()
	pendingNodes := len(ae.nodeCache)
	pendingEdges := len(ae.edgeCache)
	pendingNodeDeletes := len(ae.deleteNodes)
	pendingEdgeDeletes := len(ae.deleteEdges)
	ae.mu.RUnlock()

	engineErr := ae.engine.Close()

	if !result.HasErrors() && pendingNodes == 0 && pendingEdges == 0 {
		return engineErr
	}

	var errMsg string
	if result.HasErrors() {
		errMsg = fmt.Sprintf("flush errors: %d nodes failed, %d edges failed, %d deletes failed",
			result.NodesFailed, result.EdgesFailed, result.DeletesFailed)
	}
	if pendingNodes > 0 || pendingEdges > 0 || pendingNodeDeletes > 0 || pendingEdgeDeletes > 0 {
		if errMsg != "" {
			errMsg += "; "
		}
		errMsg += fmt.Sprintf("unflushed: %d nodes, %d edges, %d node deletes, %d edge deletes (potential data loss)",
			pendingNodes, pendingEdges, pendingNodeDeletes, pendingEdgeDeletes)
	}
	if engineErr != nil {
		return fmt.Errorf("%s; engine close: %w", errMsg, engineErr)
	}
	return fmt.Errorf("async engine close: %s", errMsg)
}

// --- bulk writes (cache-only, return immediately) ---

func (ae *AsyncEngine) BulkCreateNodes(nodes []*Node) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	for _, node := range nodes {
		delete(ae.deleteNodes, node.ID)
		ae.nodeCache[node.ID] = node
	}
	ae.pendingWrites += int64(len(nodes))
	return nil
}

func (ae *AsyncEngine) BulkCreateEdges(edges []*Edge) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	for _, edge := range edges {
		delete(ae.deleteEdges, edge.ID)
		ae.edgeCache[edge.ID] = edge
	}
	ae.pendingWrites += int64(len(edges))
	return nil
}

func (ae *AsyncEngine) BulkDeleteNodes(ids []NodeID) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	for _, id := range ids {
		delete(ae.nodeCache, id)
		ae.deleteNodes[id] = true
	}
	ae.pendingWrites += int64(len(ids))
	return nil
}

func (ae *AsyncEngine) BulkDeleteEdges(ids []EdgeID) error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	for _, id := range ids {
		delete(ae.edgeCache, id)
		ae.deleteEdges[id] = true
	}
	ae.pendingWrites += int64(len(ids))
	return nil
}

// --- diagnostics ---

// Stats returns cumulative pending-write and flush-cycle counters.
func (ae *AsyncEngine) Stats() (pendingWrites, totalFlushes int64) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()
	return ae.pendingWrites, ae.totalFlushes
}

// HasPendingWrites is a cheap check callers can use to skip an unnecessary
// Flush call.
func (ae *AsyncEngine) HasPendingWrites() bool {
	ae.mu.RLock()
	defer ae.mu.RUnlock()
	return len(ae.nodeCache) > 0 || len(ae.edgeCache) > 0 ||
		len(ae.deleteNodes) > 0 || len(ae.deleteEdges) > 0
}

// FindNodeNeedingEmbedding returns a node still missing its embedding,
// preferring the cache (so a node whose embedding is pending flush is never
// handed out twice) before asking the wrapped engine.
func (ae *AsyncEngine) FindNodeNeedingEmbedding() *Node {
	ae.mu.RLock()
	embeddedInCache := make(map[NodeID]bool)
	for id, node := range ae.nodeCache {
		if len(node.Embedding) > 0 {
			embeddedInCache[id] = true
		}
	}
	for _, node := range ae.nodeCache {
		if ae.deleteNodes[node.ID] {
			continue
		}
		if !embeddedInCache[node.ID] && NodeNeedsEmbedding(node) {
			ae.mu.RUnlock()
			return node
		}
	}
	ae.mu.RUnlock()

	if finder, ok := ae.engine.(interface{ FindNodeNeedingEmbedding() *Node }); ok {
		node := finder.FindNodeNeedingEmbedding()
		if node == nil || embeddedInCache[node.ID] {
			return nil
		}
		return node
	}

	if exportable, ok := ae.engine.(ExportableEngine); ok {
		nodes, err := exportable.AllNodes()
		if err != nil {
			return nil
		}
		for _, node := range nodes {
			if embeddedInCache[node.ID] {
				continue
			}
			if NodeNeedsEmbedding(node) {
				return node
			}
		}
	}

	return nil
}

// IterateNodes walks the cache first, then the wrapped engine (if it
// supports iteration) skipping anything already visited from the cache.
// fn returning false stops iteration early.
func (ae *AsyncEngine) IterateNodes(fn func(*Node) bool) error {
	ae.mu.RLock()
	visited := make(map[NodeID]bool)
	stop := false
	for id, node := range ae.nodeCache {
		if ae.deleteNodes[id] {
			continue
		}
		visited[id] = true
		if !fn(node) {
			stop = true
			break
		}
	}
	ae.mu.RUnlock()
	if stop {
		return nil
	}

	iterator, ok := ae.engine.(interface{ IterateNodes(func(*Node) bool) error })
	if !ok {
		return nil
	}
	return iterator.IterateNodes(func(node *Node) bool {
		if visited[node.ID] {
			return true
		}
		ae.mu.RLock()
		deleted := ae.deleteNodes[node.ID]
		ae.mu.RUnlock()
		if deleted {
			return true
		}
		return fn(node)
	})
}

var _ Engine = (*AsyncEngine)(nil)
