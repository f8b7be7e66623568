package subgraph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/driver"
)

// chainFixture builds A -> B -> C with resolved citation edges.
func chainFixture() *driver.MemStore {
	store := driver.NewMemStore()
	store.AddOpinion(model.Opinion{ID: "A", CaseName: "Alpha v. State", CourtID: "scotus", CourtLevel: model.CourtSupreme, DateFiled: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	store.AddOpinion(model.Opinion{ID: "B", CaseName: "Beta v. State", CourtID: "ca9", CourtLevel: model.CourtAppellate, DateFiled: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)})
	store.AddOpinion(model.Opinion{ID: "C", CaseName: "Gamma v. State", CourtID: "ca5", CourtLevel: model.CourtAppellate, DateFiled: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)})
	store.AddCitation(model.CitationEdge{SourceID: "A", TargetID: "B", Type: model.CitationFollows, Confidence: 0.9})
	store.AddCitation(model.CitationEdge{SourceID: "B", TargetID: "C", Type: model.CitationFollows, Confidence: 0.9})
	return store
}

func nodeIDs(g *model.Subgraph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBuild_DepthOne(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	g, err := b.Build(context.Background(), "A", Options{Depth: 1, Direction: model.DirectionOutgoing})
	require.NoError(t, err)
	assert.Equal(t, "A", g.RootID)
	assert.ElementsMatch(t, []string{"A", "B"}, nodeIDs(g))
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "A", g.Edges[0].SourceID)
	assert.Equal(t, "B", g.Edges[0].TargetID)
	assert.False(t, g.Truncated)
}

func TestBuild_DepthTwo(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	g, err := b.Build(context.Background(), "A", Options{Depth: 2, Direction: model.DirectionOutgoing})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, nodeIDs(g))
	assert.Len(t, g.Edges, 2)
}

func TestBuild_DepthZero(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	// Depth 0 still reports the root's direct edges, so an isolated root
	// is distinguishable from one that merely wasn't expanded.
	g, err := b.Build(context.Background(), "A", Options{Depth: 0, Direction: model.DirectionOutgoing})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A"}, nodeIDs(g))
	assert.Len(t, g.Edges, 1)
}

func TestBuild_IncomingDirection(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	g, err := b.Build(context.Background(), "C", Options{Depth: 2, Direction: model.DirectionIncoming})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C", "B", "A"}, nodeIDs(g))
}

func TestBuild_CycleTerminates(t *testing.T) {
	store := chainFixture()
	// Close the cycle: C cites back to A (an overruled opinion citing
	// forward is common in real citation graphs).
	store.AddCitation(model.CitationEdge{SourceID: "C", TargetID: "A", Type: model.CitationOverrules, Confidence: 0.9})
	b := NewBuilder(store, 0.75, 4)

	g, err := b.Build(context.Background(), "A", Options{Depth: 10, Direction: model.DirectionBoth})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, nodeIDs(g))
	assert.Len(t, g.Edges, 3)
}

func TestBuild_UnresolvedEdges(t *testing.T) {
	store := chainFixture()
	store.AddOpinion(model.Opinion{ID: "D", CaseName: "Delta v. State", CourtID: "nd-cal", CourtLevel: model.CourtDistrict})
	store.AddCitation(model.CitationEdge{SourceID: "A", TargetID: "D", Type: model.CitationUnclear, Confidence: 0.2})
	b := NewBuilder(store, 0.75, 4)

	g, err := b.Build(context.Background(), "A", Options{Depth: 2, Direction: model.DirectionOutgoing})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, nodeIDs(g))
	assert.Len(t, g.Edges, 2)

	// Opting in reports the dangling edge but still never expands
	// across it: D stays out of the node set.
	g, err = b.Build(context.Background(), "A", Options{Depth: 2, Direction: model.DirectionOutgoing, IncludeUnresolved: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, nodeIDs(g))
	assert.Len(t, g.Edges, 3)
}

func TestBuild_RootNotFound(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	g, err := b.Build(context.Background(), "missing", Options{Depth: 1, Direction: model.DirectionOutgoing})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBuild_IsolatedRoot(t *testing.T) {
	store := chainFixture()
	store.AddOpinion(model.Opinion{ID: "Z", CaseName: "Zeta v. State", CourtID: "scotus", CourtLevel: model.CourtSupreme})
	b := NewBuilder(store, 0.75, 4)

	g, err := b.Build(context.Background(), "Z", Options{Depth: 3, Direction: model.DirectionBoth})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Z"}, nodeIDs(g))
	assert.Empty(t, g.Edges)
}

func TestBuild_InvalidParameters(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	_, err := b.Build(context.Background(), "A", Options{Depth: -1, Direction: model.DirectionOutgoing})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = b.Build(context.Background(), "A", Options{Depth: 1, Direction: "sideways"})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)
}

func TestBuild_CancelledContextReturnsPartial(t *testing.T) {
	b := NewBuilder(chainFixture(), 0.75, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := b.Build(ctx, "A", Options{Depth: 2, Direction: model.DirectionOutgoing})
	require.NoError(t, err)
	assert.True(t, g.Truncated)
	assert.ElementsMatch(t, []string{"A"}, nodeIDs(g))
}

// failStore simulates a store that can resolve the root but fails on
// edge reads, the shape of a connection dropping mid-traversal.
type failStore struct {
	*driver.MemStore
}

func (s *failStore) GetOutgoingCitations(ctx context.Context, id string) ([]model.CitationEdge, error) {
	return nil, fmt.Errorf("%w: connection reset", model.ErrStoreUnavailable)
}

func TestBuild_StoreFailureDiscardsPartial(t *testing.T) {
	b := NewBuilder(&failStore{chainFixture()}, 0.75, 4)

	g, err := b.Build(context.Background(), "A", Options{Depth: 2, Direction: model.DirectionOutgoing})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
