// Package topology scores candidate edges by graph structure alone: shared
// neighbors, neighborhood overlap, and degree. It has no notion of node
// properties, embeddings, or time - just adjacency - so it is cheap to run
// over the whole graph and useful as a baseline or a second opinion next to
// vector/full-text search.
package topology

import (
	"context"
	"math"
	"sort"

	"github.com/quillgraph/quill/pkg/storage"
)

// AdjacencySet holds one node's undirected neighbor set.
type AdjacencySet map[storage.NodeID]struct{}

// Graph is an in-memory adjacency view of a storage.Engine, built once and
// reused across multiple scoring calls so repeated predictions don't each
// re-walk storage.
type Graph struct {
	adj map[storage.NodeID]AdjacencySet
}

// Degree reports how many neighbors a node has, 0 if the node is absent or
// isolated.
func (g *Graph) Degree(id storage.NodeID) int {
	return len(g.adj[id])
}

// Neighbors returns a node's neighbor set. The returned map must not be
// mutated by callers.
func (g *Graph) Neighbors(id storage.NodeID) AdjacencySet {
	return g.adj[id]
}

// Build walks every node's outgoing and incoming edges once and assembles an
// undirected adjacency graph. Call it once per batch of predictions rather
// than per candidate - it is the only part of this package that touches
// storage.
func Build(ctx context.Context, engine storage.Engine) (*Graph, error) {
	nodes, err := engine.AllNodes()
	if err != nil {
		return nil, err
	}

	g := &Graph{adj: make(map[storage.NodeID]AdjacencySet, len(nodes))}
	link := func(a, b storage.NodeID) {
		if a == b {
			return
		}
		if g.adj[a] == nil {
			g.adj[a] = make(AdjacencySet)
		}
		g.adj[a][b] = struct{}{}
	}

	for _, n := range nodes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out, err := engine.GetOutgoingEdges(n.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range out {
			link(e.StartNode, e.EndNode)
			link(e.EndNode, e.StartNode)
		}
	}
	return g, nil
}

// Candidate is a scored, not-yet-existing edge from some source node.
type Candidate struct {
	Target storage.NodeID
	Score  float64
	Method string
}

// Method names a topology scoring function, used both to select an
// algorithm and to label its output.
type Method string

const (
	CommonNeighbors        Method = "common_neighbors"
	Jaccard                Method = "jaccard"
	AdamicAdar             Method = "adamic_adar"
	PreferentialAttachment Method = "preferential_attachment"
	ResourceAllocation     Method = "resource_allocation"
)

// Score ranks the topK best candidate targets for source under the named
// method. Candidates are restricted to the 2-hop neighborhood (a neighbor of
// a neighbor), excluding source itself and anything already adjacent to it.
func Score(g *Graph, source storage.NodeID, method Method, topK int) []Candidate {
	neighbors := g.Neighbors(source)
	if len(neighbors) == 0 {
		return nil
	}

	if method == PreferentialAttachment {
		return scorePreferentialAttachment(g, source, neighbors, topK)
	}

	candidates := secondHopCandidates(g, source, neighbors)
	scorer := scorerFor(method)

	scored := make([]Candidate, 0, len(candidates))
	for c := range candidates {
		raw, ok := scorer(g, neighbors, c)
		if !ok {
			continue
		}
		scored = append(scored, Candidate{
			Target: c,
			Score:  normalize(raw, method),
			Method: string(method),
		})
	}
	return topK_(scored, topK)
}

// secondHopCandidates collects every node reachable in exactly two hops from
// source, minus source and its direct neighbors.
func secondHopCandidates(g *Graph, source storage.NodeID, neighbors AdjacencySet) map[storage.NodeID]struct{} {
	out := make(map[storage.NodeID]struct{})
	for n := range neighbors {
		for c := range g.Neighbors(n) {
			if c == source {
				continue
			}
			if _, adjacent := neighbors[c]; adjacent {
				continue
			}
			out[c] = struct{}{}
		}
	}
	return out
}

// pairScorer computes one candidate's raw (unnormalized) score given the
// source's neighbor set; ok is false when the candidate contributes nothing.
type pairScorer func(g *Graph, sourceNeighbors AdjacencySet, candidate storage.NodeID) (score float64, ok bool)

func scorerFor(method Method) pairScorer {
	switch method {
	case Jaccard:
		return jaccardPair
	case AdamicAdar:
		return adamicAdarPair
	case ResourceAllocation:
		return resourceAllocationPair
	default: // CommonNeighbors and anything unrecognized
		return commonNeighborsPair
	}
}

func commonNeighborsPair(g *Graph, sourceNeighbors AdjacencySet, candidate storage.NodeID) (float64, bool) {
	count := sharedNeighborCount(sourceNeighbors, g.Neighbors(candidate))
	return float64(count), count > 0
}

func jaccardPair(g *Graph, sourceNeighbors AdjacencySet, candidate storage.NodeID) (float64, bool) {
	candidateNeighbors := g.Neighbors(candidate)
	shared := sharedNeighborCount(sourceNeighbors, candidateNeighbors)
	if shared == 0 {
		return 0, false
	}
	union := len(sourceNeighbors) + len(candidateNeighbors) - shared
	if union <= 0 {
		return 0, false
	}
	return float64(shared) / float64(union), true
}

func adamicAdarPair(g *Graph, sourceNeighbors AdjacencySet, candidate storage.NodeID) (float64, bool) {
	sum := 0.0
	for z := range sharedNeighbors(sourceNeighbors, g.Neighbors(candidate)) {
		if deg := g.Degree(z); deg > 1 {
			sum += 1.0 / math.Log(float64(deg))
		}
	}
	return sum, sum > 0
}

func resourceAllocationPair(g *Graph, sourceNeighbors AdjacencySet, candidate storage.NodeID) (float64, bool) {
	sum := 0.0
	for z := range sharedNeighbors(sourceNeighbors, g.Neighbors(candidate)) {
		if deg := g.Degree(z); deg > 0 {
			sum += 1.0 / float64(deg)
		}
	}
	return sum, sum > 0
}

func scorePreferentialAttachment(g *Graph, source storage.NodeID, neighbors AdjacencySet, topK int) []Candidate {
	sourceDegree := float64(len(neighbors))
	scored := make([]Candidate, 0, len(g.adj))
	for candidate, candidateNeighbors := range g.adj {
		if candidate == source {
			continue
		}
		if _, adjacent := neighbors[candidate]; adjacent {
			continue
		}
		raw := sourceDegree * float64(len(candidateNeighbors))
		scored = append(scored, Candidate{
			Target: candidate,
			Score:  normalize(raw, PreferentialAttachment),
			Method: string(PreferentialAttachment),
		})
	}
	return topK_(scored, topK)
}

func sharedNeighborCount(a, b AdjacencySet) int {
	count := 0
	for n := range a {
		if _, ok := b[n]; ok {
			count++
		}
	}
	return count
}

func sharedNeighbors(a, b AdjacencySet) AdjacencySet {
	out := make(AdjacencySet)
	for n := range a {
		if _, ok := b[n]; ok {
			out[n] = struct{}{}
		}
	}
	return out
}

// normalize maps a method's naturally-scaled raw score into [0, 1] so
// results from different methods can be compared or blended with, say, a
// vector-similarity score. The transform is chosen per method's typical
// range rather than a single universal formula.
func normalize(raw float64, method Method) float64 {
	switch method {
	case Jaccard:
		return math.Min(1.0, math.Max(0.0, raw))
	case CommonNeighbors:
		return 1.0 - (1.0 / (1.0 + raw/2.0))
	case AdamicAdar, ResourceAllocation:
		return math.Tanh(raw / 5.0)
	case PreferentialAttachment:
		if raw <= 1.0 {
			return 0.0
		}
		return math.Min(1.0, math.Log10(raw)/4.0)
	default:
		return math.Min(1.0, math.Max(0.0, raw))
	}
}

func topK_(candidates []Candidate, k int) []Candidate {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
