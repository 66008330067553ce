// MATCH clause implementation for QuillGraph.
// This file contains MATCH execution, aggregation, ordering, and filtering.

package cypher

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quillgraph/quill/pkg/storage"
)

// anyItemIsAggregate reports whether any return item invokes an aggregate
// function, used to decide between the plain projection path and the
// aggregation path in both executeMatch and executeMatchWithClause.
func anyItemIsAggregate(items []returnItem) bool {
	for _, item := range items {
		if isAggregateExpr(strings.ToUpper(item.expr)) {
			return true
		}
	}
	return false
}

func (e *StorageExecutor) executeMatch(ctx context.Context, cypher string) (*ExecuteResult, error) {
	// Substitute parameters AFTER routing to avoid keyword detection issues
	if params := getParamsFromContext(ctx); params != nil {
		cypher = e.substituteParams(cypher, params)
	}

	result := &ExecuteResult{
		Columns: []string{},
		Rows:    [][]interface{}{},
		Stats:   &QueryStats{},
	}

	upper := strings.ToUpper(cypher)

	// Check for WITH clause between MATCH and RETURN
	// This handles MATCH ... WITH (CASE WHEN) ... RETURN queries
	// But we must avoid false positives from "STARTS WITH" or "ENDS WITH" in WHERE clauses
	withIdx := findKeywordIndex(cypher, "WITH")
	returnIdx := findKeywordIndex(cypher, "RETURN")

	// Check if WITH is actually a standalone clause (not part of "STARTS WITH" or "ENDS WITH")
	isStandaloneWith := false
	if withIdx > 0 && returnIdx > withIdx {
		precedingText := strings.ToUpper(cypher[:withIdx])
		isStandaloneWith = !strings.HasSuffix(strings.TrimSpace(precedingText), "STARTS") &&
			!strings.HasSuffix(strings.TrimSpace(precedingText), "ENDS")
	}

	if isStandaloneWith {
		return e.executeMatchWithClause(ctx, cypher)
	}

	if returnIdx == -1 {
		result.Columns = []string{"matched"}
		result.Rows = [][]interface{}{{true}}
		return result, nil
	}

	// Parse RETURN part (everything after RETURN, before ORDER BY/SKIP/LIMIT)
	returnPart := cypher[returnIdx+6:]
	returnEndIdx := len(returnPart)
	for _, keyword := range []string{" ORDER BY ", " SKIP ", " LIMIT "} {
		if idx := strings.Index(strings.ToUpper(returnPart), keyword); idx >= 0 && idx < returnEndIdx {
			returnEndIdx = idx
		}
	}
	returnClause := strings.TrimSpace(returnPart[:returnEndIdx])

	distinct := false
	if strings.HasPrefix(strings.ToUpper(returnClause), "DISTINCT ") {
		distinct = true
		returnClause = strings.TrimSpace(returnClause[9:])
	}

	returnItems := e.parseReturnItems(returnClause)
	result.Columns = make([]string, len(returnItems))
	for i, item := range returnItems {
		if item.alias != "" {
			result.Columns[i] = item.alias
		} else {
			result.Columns[i] = item.expr
		}
	}

	hasAggregation := anyItemIsAggregate(returnItems)

	// Extract pattern between MATCH and WHERE/RETURN
	matchPart := cypher[5:] // Skip "MATCH"
	whereIdx := findKeywordIndex(cypher, "WHERE")
	if whereIdx > 0 {
		matchPart = cypher[5:whereIdx]
	} else if returnIdx > 0 {
		matchPart = cypher[5:returnIdx]
	}
	matchPart = strings.TrimSpace(matchPart)

	// Check for relationship pattern: (a)-[r:TYPE]->(b) or (a)<-[r]-(b)
	if strings.Contains(matchPart, "-[") || strings.Contains(matchPart, "]-") {
		var whereClause string
		if whereIdx > 0 {
			whereClause = strings.TrimSpace(cypher[whereIdx+5 : returnIdx])
		}
		return e.executeMatchWithRelationships(matchPart, whereClause, returnItems)
	}

	nodePattern := e.parseNodePattern(matchPart)

	var nodes []*storage.Node
	var err error
	if len(nodePattern.labels) > 0 {
		nodes, err = e.storage.GetNodesByLabel(nodePattern.labels[0])
	} else {
		nodes, err = e.storage.AllNodes()
	}
	if err != nil {
		return nil, fmt.Errorf("storage error: %w", err)
	}

	if len(nodePattern.properties) > 0 {
		nodes = e.filterNodesByProperties(nodes, nodePattern.properties)
	}

	if whereIdx > 0 {
		wherePart := cypher[whereIdx+5 : returnIdx]
		nodes = e.filterNodes(nodes, nodePattern.variable, strings.TrimSpace(wherePart))
	}

	if hasAggregation {
		return e.executeAggregation(nodes, nodePattern.variable, returnItems, result)
	}

	if orderByIdx := strings.Index(upper, "ORDER BY"); orderByIdx > 0 {
		orderPart := upper[orderByIdx+8:]
		endIdx := len(orderPart)
		for _, kw := range []string{" SKIP ", " LIMIT "} {
			if idx := strings.Index(orderPart, kw); idx >= 0 && idx < endIdx {
				endIdx = idx
			}
		}
		orderExpr := strings.TrimSpace(cypher[orderByIdx+8 : orderByIdx+8+endIdx])
		nodes = e.orderNodes(nodes, nodePattern.variable, orderExpr)
	}

	skip := 0
	if skipIdx := strings.Index(upper, "SKIP"); skipIdx > 0 {
		skipPart := strings.Split(strings.TrimSpace(cypher[skipIdx+4:]), " ")[0]
		if s, err := strconv.Atoi(skipPart); err == nil {
			skip = s
		}
	}

	limit := -1
	if limitIdx := strings.Index(upper, "LIMIT"); limitIdx > 0 {
		limitPart := strings.Split(strings.TrimSpace(cypher[limitIdx+5:]), " ")[0]
		if l, err := strconv.Atoi(limitPart); err == nil {
			limit = l
		}
	}

	seen := make(map[string]bool) // For DISTINCT
	rowCount := 0
	for i, node := range nodes {
		if i < skip {
			continue
		}
		if limit >= 0 && rowCount >= limit {
			break
		}

		row := make([]interface{}, len(returnItems))
		for j, item := range returnItems {
			row[j] = e.resolveReturnItem(item, nodePattern.variable, node)
		}

		if distinct {
			key := fmt.Sprintf("%v", row)
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		result.Rows = append(result.Rows, row)
		rowCount++
	}

	return result, nil
}

// aggregateColumn computes one RETURN column's aggregate value (COUNT, SUM,
// AVG, MIN, MAX, or COLLECT, with or without DISTINCT) over nodes. Shared by
// executeAggregation's per-group loop and executeAggregationSingleGroup's
// whole-result-set loop, which previously each carried their own copy of
// this switch.
func (e *StorageExecutor) aggregateColumn(item returnItem, upperExpr, upperVariable string, nodes []*storage.Node) interface{} {
	switch {
	case strings.Contains(upperExpr, "+") && strings.Contains(upperExpr, "SUM("):
		return e.evaluateSumArithmetic(item.expr, nodes, upperVariable)

	case strings.HasPrefix(upperExpr, "COUNT(") && strings.Contains(upperExpr, "DISTINCT"):
		propMatch := countDistinctPropPattern.FindStringSubmatch(item.expr)
		if len(propMatch) == 3 {
			seen := make(map[interface{}]bool)
			for _, node := range nodes {
				if val, exists := node.Properties[propMatch[2]]; exists && val != nil {
					seen[val] = true
				}
			}
			return int64(len(seen))
		}
		return int64(len(nodes))

	case strings.HasPrefix(upperExpr, "COUNT("):
		if strings.Contains(upperExpr, "*") || strings.Contains(upperExpr, "("+upperVariable+")") {
			return int64(len(nodes))
		}
		_, prop := ParseAggregationProperty(item.expr)
		if prop == "" {
			return int64(len(nodes))
		}
		count := int64(0)
		for _, node := range nodes {
			if _, exists := node.Properties[prop]; exists {
				count++
			}
		}
		return count

	case strings.HasPrefix(upperExpr, "SUM("):
		_, prop := ParseAggregationProperty(item.expr)
		if prop == "" {
			return float64(0)
		}
		sum := float64(0)
		for _, node := range nodes {
			if val, exists := node.Properties[prop]; exists {
				if num, ok := toFloat64(val); ok {
					sum += num
				}
			}
		}
		return sum

	case strings.HasPrefix(upperExpr, "AVG("):
		_, prop := ParseAggregationProperty(item.expr)
		if prop == "" {
			return nil
		}
		sum := float64(0)
		count := 0
		for _, node := range nodes {
			if val, exists := node.Properties[prop]; exists {
				if num, ok := toFloat64(val); ok {
					sum += num
					count++
				}
			}
		}
		if count == 0 {
			return nil
		}
		return sum / float64(count)

	case strings.HasPrefix(upperExpr, "MIN("):
		_, prop := ParseAggregationProperty(item.expr)
		if prop == "" {
			return nil
		}
		var min *float64
		for _, node := range nodes {
			if val, exists := node.Properties[prop]; exists {
				if num, ok := toFloat64(val); ok {
					if min == nil || num < *min {
						minVal := num
						min = &minVal
					}
				}
			}
		}
		if min == nil {
			return nil
		}
		return *min

	case strings.HasPrefix(upperExpr, "MAX("):
		_, prop := ParseAggregationProperty(item.expr)
		if prop == "" {
			return nil
		}
		var max *float64
		for _, node := range nodes {
			if val, exists := node.Properties[prop]; exists {
				if num, ok := toFloat64(val); ok {
					if max == nil || num > *max {
						maxVal := num
						max = &maxVal
					}
				}
			}
		}
		if max == nil {
			return nil
		}
		return *max

	case strings.HasPrefix(upperExpr, "COLLECT(") && strings.Contains(upperExpr, "DISTINCT"):
		aggResult := ParseAggregation(item.expr)
		seen := make(map[interface{}]bool)
		collected := make([]interface{}, 0)
		if aggResult != nil && aggResult.Property != "" {
			for _, node := range nodes {
				if val, exists := node.Properties[aggResult.Property]; exists && val != nil {
					if !seen[val] {
						seen[val] = true
						collected = append(collected, val)
					}
				}
			}
		}
		return collected

	case strings.HasPrefix(upperExpr, "COLLECT("):
		aggResult := ParseAggregation(item.expr)
		collected := make([]interface{}, 0)
		if aggResult != nil {
			for _, node := range nodes {
				if aggResult.Property != "" {
					if val, exists := node.Properties[aggResult.Property]; exists {
						collected = append(collected, val)
					}
				} else {
					collected = append(collected, map[string]interface{}{
						"id":         string(node.ID),
						"labels":     node.Labels,
						"properties": node.Properties,
					})
				}
			}
		}
		return collected

	default:
		return nil
	}
}

// executeAggregation handles aggregate functions (COUNT, SUM, AVG, etc.)
// with implicit GROUP BY for non-aggregated columns (Neo4j compatible).
func (e *StorageExecutor) executeAggregation(nodes []*storage.Node, variable string, items []returnItem, result *ExecuteResult) (*ExecuteResult, error) {
	upperExprs := make([]string, len(items))
	for i, item := range items {
		upperExprs[i] = strings.ToUpper(item.expr)
	}
	upperVariable := strings.ToUpper(variable)

	type colInfo struct {
		isAggregation bool
		propName      string // For grouping columns: the property being accessed
	}
	colInfos := make([]colInfo, len(items))

	for i, item := range items {
		if isAggregateExpr(upperExprs[i]) {
			colInfos[i] = colInfo{isAggregation: true}
			continue
		}
		propName := ""
		if strings.HasPrefix(item.expr, variable+".") {
			propName = item.expr[len(variable)+1:]
		}
		colInfos[i] = colInfo{isAggregation: false, propName: propName}
	}

	hasGrouping := false
	for _, ci := range colInfos {
		if !ci.isAggregation && ci.propName != "" {
			hasGrouping = true
			break
		}
	}

	if !hasGrouping || len(nodes) == 0 {
		return e.executeAggregationSingleGroup(nodes, variable, items, result)
	}

	groups := make(map[string][]*storage.Node)
	groupKeys := make(map[string][]interface{})
	var groupOrder []string

	for _, node := range nodes {
		keyParts := make([]interface{}, 0)
		for i, ci := range colInfos {
			if !ci.isAggregation {
				var val interface{}
				if ci.propName != "" {
					val = node.Properties[ci.propName]
				} else {
					val = e.resolveReturnItem(items[i], variable, node)
				}
				keyParts = append(keyParts, val)
			}
		}
		key := fmt.Sprintf("%v", keyParts)
		if _, exists := groups[key]; !exists {
			groupOrder = append(groupOrder, key)
			groupKeys[key] = keyParts
		}
		groups[key] = append(groups[key], node)
	}

	for _, key := range groupOrder {
		groupNodes := groups[key]
		row := make([]interface{}, len(items))
		keyIdx := 0

		for i, item := range items {
			if !colInfos[i].isAggregation {
				row[i] = groupKeys[key][keyIdx]
				keyIdx++
				continue
			}
			row[i] = e.aggregateColumn(item, upperExprs[i], upperVariable, groupNodes)
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// executeAggregationSingleGroup handles aggregation without grouping (original behavior).
func (e *StorageExecutor) executeAggregationSingleGroup(nodes []*storage.Node, variable string, items []returnItem, result *ExecuteResult) (*ExecuteResult, error) {
	row := make([]interface{}, len(items))
	upperVariable := strings.ToUpper(variable)

	for i, item := range items {
		upperExpr := strings.ToUpper(item.expr)
		if isAggregateExpr(upperExpr) || (strings.Contains(upperExpr, "+") && strings.Contains(upperExpr, "SUM(")) {
			row[i] = e.aggregateColumn(item, upperExpr, upperVariable, nodes)
			continue
		}
		// Non-aggregate in aggregation query - return first value
		if len(nodes) > 0 {
			row[i] = e.resolveReturnItem(item, variable, nodes[0])
		}
	}

	result.Rows = [][]interface{}{row}
	return result, nil
}

// orderNodes sorts nodes by the given expression, numerically if both
// sides parse as numbers and lexically otherwise.
func (e *StorageExecutor) orderNodes(nodes []*storage.Node, variable, orderExpr string) []*storage.Node {
	desc := strings.HasSuffix(strings.ToUpper(orderExpr), " DESC")
	orderExpr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(orderExpr, " DESC"), " ASC"))

	var propName string
	if strings.HasPrefix(orderExpr, variable+".") {
		propName = orderExpr[len(variable)+1:]
	} else {
		propName = orderExpr
	}

	sorted := make([]*storage.Node, len(nodes))
	copy(sorted, nodes)

	sort.SliceStable(sorted, func(i, j int) bool {
		val1 := sorted[i].Properties[propName]
		val2 := sorted[j].Properties[propName]

		if num1, ok1 := toFloat64(val1); ok1 {
			if num2, ok2 := toFloat64(val2); ok2 {
				if desc {
					return num1 > num2
				}
				return num1 < num2
			}
		}

		str1 := fmt.Sprintf("%v", val1)
		str2 := fmt.Sprintf("%v", val2)
		if desc {
			return str1 > str2
		}
		return str1 < str2
	})

	return sorted
}

// executeMatchWithClause handles MATCH ... WITH ... RETURN queries.
// This processes computed values (like CASE WHEN) in the WITH clause.
func (e *StorageExecutor) executeMatchWithClause(ctx context.Context, cypher string) (*ExecuteResult, error) {
	withIdx := findKeywordIndex(cypher, "WITH")
	returnIdx := findKeywordIndex(cypher, "RETURN")
	if withIdx == -1 || returnIdx == -1 {
		return nil, fmt.Errorf("WITH and RETURN clauses required")
	}

	matchPart := strings.TrimSpace(cypher[5:withIdx]) // Skip "MATCH"
	nodePattern := e.parseNodePattern(matchPart)

	var nodes []*storage.Node
	var err error
	if len(nodePattern.labels) > 0 {
		nodes, err = e.storage.GetNodesByLabel(nodePattern.labels[0])
	} else {
		nodes, err = e.storage.AllNodes()
	}
	if err != nil {
		return nil, fmt.Errorf("storage error: %w", err)
	}

	if len(nodePattern.properties) > 0 {
		nodes = e.filterNodesByProperties(nodes, nodePattern.properties)
	}

	withClause := strings.TrimSpace(cypher[withIdx+4 : returnIdx])
	withItems := e.splitWithItems(withClause)

	returnClause := strings.TrimSpace(cypher[returnIdx+6:])
	for _, keyword := range []string{" ORDER BY ", " SKIP ", " LIMIT "} {
		if idx := strings.Index(strings.ToUpper(returnClause), keyword); idx >= 0 {
			returnClause = returnClause[:idx]
		}
	}
	returnItems := e.parseReturnItems(returnClause)

	computedRows := e.computeWithRows(nodePattern, nodes, withItems)

	result := &ExecuteResult{
		Columns: make([]string, len(returnItems)),
		Rows:    [][]interface{}{},
	}
	for i, item := range returnItems {
		if item.alias != "" {
			result.Columns[i] = item.alias
		} else {
			result.Columns[i] = item.expr
		}
	}

	if anyItemIsAggregate(returnItems) {
		result.Rows = [][]interface{}{e.aggregateWithRow(returnItems, computedRows, nodePattern.variable)}
		return result, nil
	}

	for _, cr := range computedRows {
		row := make([]interface{}, len(returnItems))
		for i, item := range returnItems {
			if val, ok := cr.values[item.expr]; ok {
				row[i] = val
			}
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// withComputedRow pairs a matched node with the values computed for it by a
// WITH clause's expressions, keyed by alias.
type withComputedRow struct {
	node   *storage.Node
	values map[string]interface{}
}

// computeWithRows evaluates a MATCH ... WITH clause's expressions (CASE
// WHEN, property access, or general expressions) for every matched node.
func (e *StorageExecutor) computeWithRows(nodePattern nodePatternInfo, nodes []*storage.Node, withItems []string) []withComputedRow {
	rows := make([]withComputedRow, 0, len(nodes))

	for _, node := range nodes {
		nodeMap := map[string]*storage.Node{nodePattern.variable: node}
		values := make(map[string]interface{})

		for _, item := range withItems {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}

			upperItem := strings.ToUpper(item)
			var alias, expr string
			if asIdx := strings.Index(upperItem, " AS "); asIdx > 0 {
				expr = strings.TrimSpace(item[:asIdx])
				alias = strings.TrimSpace(item[asIdx+4:])
			} else {
				expr = item
				alias = item
			}

			switch {
			case isCaseExpression(expr):
				values[alias] = e.evaluateCaseExpression(expr, nodeMap, nil)
			case strings.HasPrefix(expr, nodePattern.variable+"."):
				values[alias] = node.Properties[expr[len(nodePattern.variable)+1:]]
			case expr == nodePattern.variable:
				values[alias] = node
			default:
				values[alias] = e.evaluateExpressionWithContext(expr, nodeMap, nil)
			}
		}

		rows = append(rows, withComputedRow{node: node, values: values})
	}

	return rows
}

// aggregateWithRow computes a single aggregated RETURN row over the values
// produced by computeWithRows, for MATCH ... WITH ... RETURN queries whose
// RETURN clause aggregates.
func (e *StorageExecutor) aggregateWithRow(returnItems []returnItem, computedRows []withComputedRow, variable string) []interface{} {
	row := make([]interface{}, len(returnItems))

	for i, item := range returnItems {
		upperExpr := strings.ToUpper(item.expr)

		switch {
		case strings.HasPrefix(upperExpr, "COUNT(DISTINCT "):
			inner := item.expr[15 : len(item.expr)-1]
			seen := make(map[interface{}]bool)
			for _, cr := range computedRows {
				if val, ok := cr.values[inner]; ok && val != nil {
					seen[fmt.Sprintf("%v", val)] = true
				} else if cr.node != nil && inner == variable {
					seen[string(cr.node.ID)] = true
				}
			}
			row[i] = int64(len(seen))

		case strings.HasPrefix(upperExpr, "COUNT("):
			inner := item.expr[6 : len(item.expr)-1]
			if inner == "*" {
				row[i] = int64(len(computedRows))
				continue
			}
			count := int64(0)
			for _, cr := range computedRows {
				if val, ok := cr.values[inner]; ok && val != nil {
					count++
				} else if cr.node != nil {
					count++
				}
			}
			row[i] = count

		case strings.HasPrefix(upperExpr, "SUM("):
			inner := item.expr[4 : len(item.expr)-1]
			sum := float64(0)
			for _, cr := range computedRows {
				if val, ok := cr.values[inner]; ok {
					if num, ok := toFloat64(val); ok {
						sum += num
					}
				}
			}
			row[i] = sum

		case strings.HasPrefix(upperExpr, "COLLECT("):
			inner := item.expr[8 : len(item.expr)-1]
			var collected []interface{}
			for _, cr := range computedRows {
				if val, ok := cr.values[inner]; ok {
					collected = append(collected, val)
				}
			}
			row[i] = collected

		default:
			if len(computedRows) > 0 {
				if val, ok := computedRows[0].values[item.expr]; ok {
					row[i] = val
				}
			}
		}
	}

	return row
}

// evaluateSumArithmetic handles expressions like SUM(n.a) + SUM(n.b).
// Uses optimized string parser (~5x faster than regex).
func (e *StorageExecutor) evaluateSumArithmetic(expr string, nodes []*storage.Node, variable string) float64 {
	parts := splitArithmeticExpression(expr)
	result := float64(0)
	currentOp := "+"

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "+" {
			currentOp = "+"
			continue
		}
		if part == "-" {
			currentOp = "-"
			continue
		}

		var value float64
		upperPart := strings.ToUpper(part)
		if strings.HasPrefix(upperPart, "SUM(") {
			_, prop := ParseAggregationProperty(part)
			if prop != "" {
				for _, node := range nodes {
					if val, exists := node.Properties[prop]; exists {
						if num, ok := toFloat64(val); ok {
							value += num
						}
					}
				}
			}
		} else if num, err := strconv.ParseFloat(part, 64); err == nil {
			value = num
		}

		if currentOp == "+" {
			result += value
		} else {
			result -= value
		}
	}

	return result
}

// splitArithmeticExpression splits an arithmetic expression by + and -
// operators while respecting parentheses.
func splitArithmeticExpression(expr string) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	for i, ch := range expr {
		switch {
		case ch == '(':
			depth++
			current.WriteRune(ch)
		case ch == ')':
			depth--
			current.WriteRune(ch)
		case depth == 0 && (ch == '+' || ch == '-'):
			isUnary := i == 0 || (expr[i-1] == '+' || expr[i-1] == '-' || expr[i-1] == '(')
			if isUnary {
				current.WriteRune(ch)
				continue
			}
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			parts = append(parts, string(ch))
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// filterNodesByProperties filters nodes to only include those matching ALL
// specified properties. Used for MATCH pattern property filtering like
// MATCH (n:Label {prop: value}). Uses parallel execution for large
// datasets (>1000 nodes) for improved performance.
func (e *StorageExecutor) filterNodesByProperties(nodes []*storage.Node, props map[string]interface{}) []*storage.Node {
	if len(props) == 0 {
		return nodes
	}

	filterFn := func(node *storage.Node) bool {
		for key, expectedVal := range props {
			actualVal, exists := node.Properties[key]
			if !exists || !e.compareEqual(actualVal, expectedVal) {
				return false
			}
		}
		return true
	}

	return parallelFilterNodes(nodes, filterFn)
}
