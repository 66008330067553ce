// Package cypher provides graph traversal operations for QuillGraph.
// This file implements relationship pattern matching, variable-length paths,
// and shortest path algorithms for Neo4j-compatible traversal queries.

package cypher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quillgraph/quill/pkg/storage"
)

// PathResult represents a path through the graph
type PathResult struct {
	Nodes         []*storage.Node
	Relationships []*storage.Edge
	Length        int
}

// TraversalContext holds state during graph traversal
type TraversalContext struct {
	startNode *storage.Node
	endNode   *storage.Node
	relTypes  []string // Allowed relationship types (empty = any)
	direction string   // "outgoing", "incoming", "both"
	minHops   int
	maxHops   int
	visited   map[string]bool
}

// RelationshipPattern represents a parsed relationship pattern
type RelationshipPattern struct {
	Variable   string   // r in [r:TYPE]
	Types      []string // TYPE in [r:TYPE|OTHER]
	Direction  string   // "outgoing" (-[r]->), "incoming" (<-[r]-), "both" (-[r]-)
	MinHops    int      // min in [*min..max]
	MaxHops    int      // max in [*min..max]
	Properties map[string]interface{}
}

// parseRelationshipPattern parses patterns like -[r:TYPE {props}]->
func (e *StorageExecutor) parseRelationshipPattern(pattern string) *RelationshipPattern {
	result := &RelationshipPattern{
		Direction:  "both",
		MinHops:    1,
		MaxHops:    1,
		Properties: make(map[string]interface{}),
	}

	if strings.HasPrefix(pattern, "<-") {
		result.Direction = "incoming"
		pattern = pattern[2:]
	} else if strings.HasPrefix(pattern, "-") {
		pattern = pattern[1:]
	}

	if strings.HasSuffix(pattern, "->") {
		result.Direction = "outgoing"
		pattern = pattern[:len(pattern)-2]
	} else if strings.HasSuffix(pattern, "-") {
		pattern = pattern[:len(pattern)-1]
	}

	if !strings.HasPrefix(pattern, "[") || !strings.HasSuffix(pattern, "]") {
		return result
	}
	inner := pattern[1 : len(pattern)-1]

	if strings.Contains(inner, "*") {
		e.parseVariableLength(inner, result)
		inner = varLengthRelPattern.ReplaceAllString(inner, "")
	}

	colonIdx := strings.Index(inner, ":")
	if colonIdx < 0 {
		if trimmed := strings.TrimSpace(inner); trimmed != "" {
			result.Variable = trimmed
		}
		return result
	}

	result.Variable = strings.TrimSpace(inner[:colonIdx])
	typesPart := inner[colonIdx+1:]

	if propsIdx := strings.Index(typesPart, "{"); propsIdx >= 0 {
		result.Properties = e.parseProperties(typesPart[propsIdx:])
		typesPart = typesPart[:propsIdx]
	}

	for _, t := range strings.Split(typesPart, "|") {
		if t = strings.TrimSpace(t); t != "" {
			result.Types = append(result.Types, t)
		}
	}

	return result
}

// parseVariableLength fills in MinHops/MaxHops from a [*], [*2], or [*1..3]
// variable-length segment, leaving the caller's defaults (1, 1) unless a
// bound is actually specified.
func (e *StorageExecutor) parseVariableLength(inner string, result *RelationshipPattern) {
	matches := varLengthRelPattern.FindStringSubmatch(inner)
	if matches == nil {
		return
	}
	if matches[1] != "" {
		result.MinHops, _ = strconv.Atoi(matches[1])
	} else {
		result.MinHops = 1
	}
	switch {
	case matches[2] != "":
		result.MaxHops, _ = strconv.Atoi(matches[2])
	case matches[1] != "":
		result.MaxHops = result.MinHops
	default:
		result.MaxHops = 10 // Default max for unbounded
	}
}

// aggregateFuncPrefixes lists the RETURN-expression prefixes (already
// upper-cased) that mark an item as an aggregation rather than a plain
// projection.
var aggregateFuncPrefixes = []string{"COUNT(", "SUM(", "AVG(", "MIN(", "MAX(", "COLLECT("}

func isAggregateExpr(upperExpr string) bool {
	for _, prefix := range aggregateFuncPrefixes {
		if strings.HasPrefix(upperExpr, prefix) {
			return true
		}
	}
	return false
}

// aggregateCell evaluates one RETURN item's aggregate value over a group of
// paths (COUNT counts paths, COLLECT gathers per-path values, any other
// aggregate-looking expression falls back to evaluating it against the
// first path in the group).
func (e *StorageExecutor) aggregateCell(upperExpr string, item returnItem, paths []PathResult, match *TraversalMatch) interface{} {
	switch {
	case strings.HasPrefix(upperExpr, "COUNT("):
		return int64(len(paths))
	case strings.HasPrefix(upperExpr, "COLLECT("):
		inner := item.expr[len("COLLECT(") : len(item.expr)-1]
		collected := make([]interface{}, 0, len(paths))
		for _, path := range paths {
			ctx := e.buildPathContext(path, match)
			collected = append(collected, e.evaluateExpressionWithContext(inner, ctx.nodes, ctx.rels))
		}
		return collected
	default:
		if len(paths) == 0 {
			return nil
		}
		ctx := e.buildPathContext(paths[0], match)
		return e.evaluateExpressionWithContext(item.expr, ctx.nodes, ctx.rels)
	}
}

// executeMatchWithRelationships handles MATCH queries with relationship patterns
func (e *StorageExecutor) executeMatchWithRelationships(pattern string, whereClause string, returnItems []returnItem) (*ExecuteResult, error) {
	result := &ExecuteResult{Columns: []string{}, Rows: [][]interface{}{}, Stats: &QueryStats{}}
	for _, item := range returnItems {
		if item.alias != "" {
			result.Columns = append(result.Columns, item.alias)
		} else {
			result.Columns = append(result.Columns, item.expr)
		}
	}

	match := e.parseTraversalPattern(pattern)
	if match == nil {
		return result, fmt.Errorf("invalid traversal pattern: %s", pattern)
	}

	paths := e.traverseGraph(match)

	upperExprs := make([]string, len(returnItems))
	isAgg := make([]bool, len(returnItems))
	anyAgg := false
	for i, item := range returnItems {
		upperExprs[i] = strings.ToUpper(item.expr)
		isAgg[i] = isAggregateExpr(upperExprs[i])
		anyAgg = anyAgg || isAgg[i]
	}

	if !anyAgg {
		for _, path := range paths {
			ctx := e.buildPathContext(path, match)
			row := make([]interface{}, len(returnItems))
			for i, item := range returnItems {
				row[i] = e.evaluateExpressionWithContext(item.expr, ctx.nodes, ctx.rels)
			}
			result.Rows = append(result.Rows, row)
		}
		return result, nil
	}

	hasGrouping := false
	for _, agg := range isAgg {
		if !agg {
			hasGrouping = true
			break
		}
	}

	if !hasGrouping {
		row := make([]interface{}, len(returnItems))
		for i, item := range returnItems {
			row[i] = e.aggregateCell(upperExprs[i], item, paths, match)
		}
		result.Rows = append(result.Rows, row)
		return result, nil
	}

	groups := make(map[string][]PathResult)
	groupKeys := make(map[string][]interface{})
	var groupOrder []string

	for _, path := range paths {
		ctx := e.buildPathContext(path, match)
		var keyParts []interface{}
		for i, item := range returnItems {
			if !isAgg[i] {
				keyParts = append(keyParts, e.evaluateExpressionWithContext(item.expr, ctx.nodes, ctx.rels))
			}
		}
		key := fmt.Sprintf("%v", keyParts)
		if _, exists := groups[key]; !exists {
			groupKeys[key] = keyParts
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], path)
	}

	for _, key := range groupOrder {
		groupPaths := groups[key]
		row := make([]interface{}, len(returnItems))
		keyIdx := 0
		for i, item := range returnItems {
			if !isAgg[i] {
				row[i] = groupKeys[key][keyIdx]
				keyIdx++
				continue
			}
			row[i] = e.aggregateCell(upperExprs[i], item, groupPaths, match)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// TraversalMatch represents a parsed traversal pattern
type TraversalMatch struct {
	StartNode    nodePatternInfo
	EndNode      nodePatternInfo
	Relationship RelationshipPattern
}

// parseTraversalPattern parses (a:Label)-[r:TYPE]->(b:Label) style patterns
func (e *StorageExecutor) parseTraversalPattern(pattern string) *TraversalMatch {
	matches := pathPatternRe.FindStringSubmatch(pattern)
	if matches == nil {
		return nil
	}

	return &TraversalMatch{
		StartNode:    e.parseNodePatternFromString(matches[1]),
		Relationship: *e.parseRelationshipPattern(matches[2]),
		EndNode:      e.parseNodePatternFromString(matches[3]),
	}
}

// parseNodePatternFromString parses n:Label {props} from a string
func (e *StorageExecutor) parseNodePatternFromString(s string) nodePatternInfo {
	info := nodePatternInfo{properties: make(map[string]interface{})}
	s = strings.TrimSpace(s)

	if propsIdx := strings.Index(s, "{"); propsIdx >= 0 {
		info.properties = e.parseProperties(s[propsIdx:])
		s = s[:propsIdx]
	}

	colonIdx := strings.Index(s, ":")
	if colonIdx < 0 {
		info.variable = strings.TrimSpace(s)
		return info
	}

	info.variable = strings.TrimSpace(s[:colonIdx])
	for _, label := range strings.Split(s[colonIdx+1:], ":") {
		if label = strings.TrimSpace(label); label != "" {
			info.labels = append(info.labels, label)
		}
	}
	return info
}

// directionalEdges returns the edges of node relevant to direction
// ("outgoing", "incoming", or anything else treated as "both").
func directionalEdges(e *StorageExecutor, nodeID storage.NodeID, direction string) []*storage.Edge {
	switch direction {
	case "outgoing":
		edges, _ := e.storage.GetOutgoingEdges(nodeID)
		return edges
	case "incoming":
		edges, _ := e.storage.GetIncomingEdges(nodeID)
		return edges
	default:
		outgoing, _ := e.storage.GetOutgoingEdges(nodeID)
		incoming, _ := e.storage.GetIncomingEdges(nodeID)
		return append(outgoing, incoming...)
	}
}

// matchesRelType reports whether edge's type is in relTypes, or true if
// relTypes is empty (no filter).
func matchesRelType(edge *storage.Edge, relTypes []string) bool {
	if len(relTypes) == 0 {
		return true
	}
	for _, t := range relTypes {
		if edge.Type == t {
			return true
		}
	}
	return false
}

// edgeOtherEnd returns the node ID on the far side of edge from currentID,
// given the traversal direction.
func edgeOtherEnd(direction string, edge *storage.Edge, currentID storage.NodeID) storage.NodeID {
	if direction == "outgoing" || (direction == "both" && edge.StartNode == currentID) {
		return edge.EndNode
	}
	return edge.StartNode
}

// traverseGraph executes the traversal and returns all matching paths
func (e *StorageExecutor) traverseGraph(match *TraversalMatch) []PathResult {
	var results []PathResult

	var startNodes []*storage.Node
	if len(match.StartNode.labels) > 0 {
		startNodes, _ = e.storage.GetNodesByLabel(match.StartNode.labels[0])
	} else {
		startNodes = e.storage.GetAllNodes()
	}

	if len(match.StartNode.properties) > 0 {
		var filtered []*storage.Node
		for _, n := range startNodes {
			if e.nodeMatchesProps(n, match.StartNode.properties) {
				filtered = append(filtered, n)
			}
		}
		startNodes = filtered
	}

	for _, startNode := range startNodes {
		ctx := &TraversalContext{
			startNode: startNode,
			relTypes:  match.Relationship.Types,
			direction: match.Relationship.Direction,
			minHops:   match.Relationship.MinHops,
			maxHops:   match.Relationship.MaxHops,
			visited:   make(map[string]bool),
		}
		paths := e.findPaths(ctx, startNode, []*storage.Node{startNode}, []*storage.Edge{}, 0, &match.EndNode)
		results = append(results, paths...)
	}

	return results
}

// findPaths performs DFS to find all paths matching the pattern
func (e *StorageExecutor) findPaths(
	ctx *TraversalContext,
	currentNode *storage.Node,
	pathNodes []*storage.Node,
	pathEdges []*storage.Edge,
	depth int,
	endPattern *nodePatternInfo,
) []PathResult {
	var results []PathResult

	if depth >= ctx.minHops && e.matchesEndPattern(currentNode, endPattern) {
		results = append(results, PathResult{
			Nodes:         append([]*storage.Node{}, pathNodes...),
			Relationships: append([]*storage.Edge{}, pathEdges...),
			Length:        depth,
		})
	}

	if depth >= ctx.maxHops {
		return results
	}

	for _, edge := range directionalEdges(e, currentNode.ID, ctx.direction) {
		if !matchesRelType(edge, ctx.relTypes) {
			continue
		}

		nextNodeID := edgeOtherEnd(ctx.direction, edge, currentNode.ID)
		if ctx.visited[string(nextNodeID)] {
			continue
		}

		nextNode, err := e.storage.GetNode(nextNodeID)
		if err != nil || nextNode == nil {
			continue
		}

		ctx.visited[string(nextNodeID)] = true
		newPathNodes := append(append([]*storage.Node{}, pathNodes...), nextNode)
		newPathEdges := append(append([]*storage.Edge{}, pathEdges...), edge)
		results = append(results, e.findPaths(ctx, nextNode, newPathNodes, newPathEdges, depth+1, endPattern)...)
		ctx.visited[string(nextNodeID)] = false
	}

	return results
}

// matchesEndPattern checks if a node matches the end pattern requirements
func (e *StorageExecutor) matchesEndPattern(node *storage.Node, pattern *nodePatternInfo) bool {
	if pattern == nil {
		return true
	}

	for _, reqLabel := range pattern.labels {
		found := false
		for _, nodeLabel := range node.Labels {
			if nodeLabel == reqLabel {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return e.nodeMatchesProps(node, pattern.properties)
}

// PathContext holds node/relationship mappings for expression evaluation
type PathContext struct {
	nodes map[string]*storage.Node
	rels  map[string]*storage.Edge
}

// buildPathContext creates a context for evaluating expressions over a path
func (e *StorageExecutor) buildPathContext(path PathResult, match *TraversalMatch) PathContext {
	ctx := PathContext{nodes: make(map[string]*storage.Node), rels: make(map[string]*storage.Edge)}

	if match.StartNode.variable != "" && len(path.Nodes) > 0 {
		ctx.nodes[match.StartNode.variable] = path.Nodes[0]
	}
	if match.EndNode.variable != "" && len(path.Nodes) > 1 {
		ctx.nodes[match.EndNode.variable] = path.Nodes[len(path.Nodes)-1]
	}
	if match.Relationship.Variable != "" && len(path.Relationships) > 0 {
		ctx.rels[match.Relationship.Variable] = path.Relationships[0]
	}

	return ctx
}

type bfsQueueItem struct {
	node *storage.Node
	path PathResult
}

// shortestPath finds the shortest path between two nodes via breadth-first
// search, returning the first path found to endNode (BFS guarantees it's
// shortest).
func (e *StorageExecutor) shortestPath(startNode, endNode *storage.Node, relTypes []string, direction string, maxHops int) *PathResult {
	if startNode == nil || endNode == nil {
		return nil
	}

	queue := []bfsQueueItem{{node: startNode, path: PathResult{Nodes: []*storage.Node{startNode}, Relationships: []*storage.Edge{}}}}
	visited := map[string]bool{string(startNode.ID): true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.path.Length >= maxHops {
			continue
		}

		for _, edge := range directionalEdges(e, current.node.ID, direction) {
			if !matchesRelType(edge, relTypes) {
				continue
			}

			nextNodeID := edgeOtherEnd(direction, edge, current.node.ID)
			if visited[string(nextNodeID)] {
				continue
			}

			nextNode, err := e.storage.GetNode(nextNodeID)
			if err != nil || nextNode == nil {
				continue
			}

			newPath := PathResult{
				Nodes:         append(append([]*storage.Node{}, current.path.Nodes...), nextNode),
				Relationships: append(append([]*storage.Edge{}, current.path.Relationships...), edge),
				Length:        current.path.Length + 1,
			}

			if nextNodeID == endNode.ID {
				return &newPath
			}

			visited[string(nextNodeID)] = true
			queue = append(queue, bfsQueueItem{node: nextNode, path: newPath})
		}
	}

	return nil
}

// allShortestPaths finds every path tied for shortest between two nodes via
// breadth-first search, tracking the depth each node was first reached at
// so a node can be revisited at the same depth (to find parallel shortest
// paths) but not at a greater one.
func (e *StorageExecutor) allShortestPaths(startNode, endNode *storage.Node, relTypes []string, direction string, maxHops int) []PathResult {
	if startNode == nil || endNode == nil {
		return nil
	}

	var results []PathResult
	shortestLen := -1

	queue := []bfsQueueItem{{node: startNode, path: PathResult{Nodes: []*storage.Node{startNode}, Relationships: []*storage.Edge{}}}}
	visitedDepth := map[string]int{string(startNode.ID): 0}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if (shortestLen >= 0 && current.path.Length >= shortestLen) || current.path.Length >= maxHops {
			continue
		}

		for _, edge := range directionalEdges(e, current.node.ID, direction) {
			if !matchesRelType(edge, relTypes) {
				continue
			}

			nextNodeID := edgeOtherEnd(direction, edge, current.node.ID)
			if prevDepth, seen := visitedDepth[string(nextNodeID)]; seen && prevDepth < current.path.Length+1 {
				continue
			}

			nextNode, err := e.storage.GetNode(nextNodeID)
			if err != nil || nextNode == nil {
				continue
			}

			newPath := PathResult{
				Nodes:         append(append([]*storage.Node{}, current.path.Nodes...), nextNode),
				Relationships: append(append([]*storage.Edge{}, current.path.Relationships...), edge),
				Length:        current.path.Length + 1,
			}

			if nextNodeID == endNode.ID {
				if shortestLen < 0 {
					shortestLen = newPath.Length
				}
				if newPath.Length == shortestLen {
					results = append(results, newPath)
				}
				continue
			}

			visitedDepth[string(nextNodeID)] = current.path.Length + 1
			queue = append(queue, bfsQueueItem{node: nextNode, path: newPath})
		}
	}

	return results
}

// getRelType gets the type of a relationship - used for type(r) function
func (e *StorageExecutor) getRelType(relID storage.EdgeID) string {
	edge, err := e.storage.GetEdge(relID)
	if err != nil || edge == nil {
		return ""
	}
	return edge.Type
}
