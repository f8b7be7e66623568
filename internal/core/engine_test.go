package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexatlas/citegraph/internal/config"
	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/core/subgraph"
	"github.com/lexatlas/citegraph/internal/driver"
)

// engineFixture loads a small split: two appellate opinions from
// different circuits disagreeing over three shared supreme court
// precedents.
func engineFixture(t *testing.T) (*Engine, *driver.MemStore) {
	t.Helper()
	store := driver.NewMemStore()

	store.AddOpinion(model.Opinion{
		ID:         "heller",
		CaseName:   "District of Columbia v. Heller",
		CourtID:    "scotus",
		CourtLevel: model.CourtSupreme,
		DateFiled:  time.Date(2008, 6, 26, 0, 0, 0, 0, time.UTC),
	}, driver.ReporterCite{Volume: 554, Reporter: "U.S.", Page: 570})

	for _, id := range []string{"p1", "p2"} {
		store.AddOpinion(model.Opinion{ID: id, CourtID: "scotus", CourtLevel: model.CourtSupreme,
			DateFiled: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)})
	}

	store.AddOpinion(model.Opinion{
		ID: "split-a", CaseName: "United States v. Avery", CourtID: "ca5",
		CourtLevel: model.CourtAppellate, Disposition: model.DispositionAffirmed,
		LegalTopics: []string{"second amendment"},
		DateFiled:   time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	store.AddOpinion(model.Opinion{
		ID: "split-b", CaseName: "United States v. Brook", CourtID: "ca9",
		CourtLevel: model.CourtAppellate, Disposition: model.DispositionReversed,
		LegalTopics: []string{"second amendment"},
		DateFiled:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	for _, src := range []string{"split-a", "split-b"} {
		for _, dst := range []string{"heller", "p1", "p2"} {
			store.AddCitation(model.CitationEdge{SourceID: src, TargetID: dst, Type: model.CitationFollows, Confidence: 0.9})
		}
	}
	store.AddCitation(model.CitationEdge{SourceID: "split-b", TargetID: "split-a", Type: model.CitationCriticizes, Confidence: 0.9})

	engine, err := NewEngine(store, config.Default())
	require.NoError(t, err)
	return engine, store
}

func TestEngine_ResolveThenRank(t *testing.T) {
	engine, _ := engineFixture(t)
	ctx := context.Background()

	res, err := engine.Resolve(ctx, "554 U.S. 570 (2008)")
	require.NoError(t, err)
	require.Equal(t, model.ResolutionExact, res.Status)

	g, ranked, err := engine.RankSubgraph(ctx, res.OpinionID, subgraph.Options{
		Depth:     1,
		Direction: model.DirectionIncoming,
	})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	require.Len(t, ranked, 3)
	// The root is the only cited opinion in the set and the only
	// supreme court one; it ranks first.
	assert.Equal(t, "heller", ranked[0].Opinion.ID)
}

func TestEngine_DetectConflictsFromRoot(t *testing.T) {
	engine, _ := engineFixture(t)

	conflicts, err := engine.DetectConflicts(context.Background(), "heller", 2)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "split-a", conflicts[0].OpinionAID)
	assert.Equal(t, "split-b", conflicts[0].OpinionBID)
	assert.GreaterOrEqual(t, conflicts[0].Confidence, 0.5)
	assert.Equal(t, "second amendment", conflicts[0].Topic)
}

func TestEngine_DetectConflictPair(t *testing.T) {
	engine, _ := engineFixture(t)

	c, err := engine.DetectConflict(context.Background(), "split-a", "split-b")
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = engine.DetectConflict(context.Background(), "split-a", "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEngine_RerankWithMetrics(t *testing.T) {
	engine, _ := engineFixture(t)

	candidates := []model.Candidate{
		{OpinionID: "split-a", Relevance: 0.9, Embedding: []float32{1, 0}},
		{OpinionID: "split-b", Relevance: 0.8, Embedding: []float32{1, 0.05}},
		{OpinionID: "heller", Relevance: 0.6, Embedding: []float32{0, 1}},
		{OpinionID: "gone-from-store", Relevance: 0.5, Embedding: []float32{0.5, 0.5}},
	}

	selected, metrics, err := engine.Rerank(context.Background(), []float32{1, 0}, candidates, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "split-a", selected[0].OpinionID)
	assert.Equal(t, "heller", selected[1].OpinionID)

	assert.Equal(t, 2, metrics.UniqueCourts)
	assert.InDelta(t, 0.75, metrics.AvgRelevance, 1e-9)
	assert.Greater(t, metrics.AvgPairwiseDiversity, 0.9)
	assert.InDelta(t, 13.5, metrics.DateRangeYears, 0.2)
}

func TestEngine_MetricsSkipUnknownOpinions(t *testing.T) {
	engine, _ := engineFixture(t)

	selected, metrics, err := engine.Rerank(context.Background(), []float32{1, 0}, []model.Candidate{
		{OpinionID: "gone-from-store", Relevance: 0.4, Embedding: []float32{1, 0}},
	}, 1, 1.0)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, 0, metrics.UniqueCourts)
	assert.InDelta(t, 0.4, metrics.AvgRelevance, 1e-9)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Metric = "euclidean"

	_, err := NewEngine(driver.NewMemStore(), cfg)
	assert.ErrorIs(t, err, model.ErrInvalidParameter)
}
