package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillgraph/quill/pkg/storage"
)

// friendGraph builds: alice-bob, alice-charlie, bob-charlie, bob-diana,
// charlie-diana, diana-emily. alice and diana share bob+charlie as mutual
// neighbors but have no direct edge.
func friendGraph(t *testing.T) storage.Engine {
	t.Helper()
	engine := storage.NewMemoryEngine()
	for _, id := range []string{"alice", "bob", "charlie", "diana", "emily"} {
		require.NoError(t, engine.CreateNode(&storage.Node{ID: storage.NodeID(id), Labels: []string{"Person"}}))
	}
	edges := [][2]string{
		{"alice", "bob"}, {"alice", "charlie"}, {"bob", "charlie"},
		{"bob", "diana"}, {"charlie", "diana"}, {"diana", "emily"},
	}
	for i, e := range edges {
		require.NoError(t, engine.CreateEdge(&storage.Edge{
			ID:        storage.EdgeID(string(rune('a' + i))),
			Type:      "KNOWS",
			StartNode: storage.NodeID(e[0]),
			EndNode:   storage.NodeID(e[1]),
		}))
	}
	return engine
}

func TestBuildAndDegree(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)

	assert.Equal(t, 2, g.Degree("alice"))
	assert.Equal(t, 3, g.Degree("bob"))
	assert.Equal(t, 0, g.Degree("nobody"))
}

func TestCommonNeighborsRanksSharedFriends(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)

	results := Score(g, "alice", CommonNeighbors, 10)
	require.NotEmpty(t, results)
	assert.Equal(t, storage.NodeID("diana"), results[0].Target)
	assert.Equal(t, "common_neighbors", results[0].Method)
}

func TestJaccardScoreIsBoundedUnitInterval(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)

	for _, c := range Score(g, "alice", Jaccard, 10) {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestAdamicAdarAndResourceAllocationAgreeOnOrdering(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)

	aa := Score(g, "alice", AdamicAdar, 10)
	ra := Score(g, "alice", ResourceAllocation, 10)
	require.NotEmpty(t, aa)
	require.NotEmpty(t, ra)
	assert.Equal(t, aa[0].Target, ra[0].Target)
}

func TestPreferentialAttachmentFavorsHighDegreeNodes(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)

	results := Score(g, "emily", PreferentialAttachment, 10)
	require.NotEmpty(t, results)
	// bob and charlie (degree 3) should outrank alice (degree 2) as candidates.
	byTarget := make(map[storage.NodeID]float64)
	for _, c := range results {
		byTarget[c.Target] = c.Score
	}
	assert.GreaterOrEqual(t, byTarget["bob"], byTarget["alice"])
}

func TestScoreOnIsolatedSourceReturnsNil(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)
	assert.Nil(t, Score(g, "nobody", CommonNeighbors, 10))
}

func TestScoreRespectsTopKLimit(t *testing.T) {
	g, err := Build(context.Background(), friendGraph(t))
	require.NoError(t, err)
	results := Score(g, "bob", CommonNeighbors, 1)
	assert.LessOrEqual(t, len(results), 1)
}
