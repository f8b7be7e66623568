package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lexatlas/citegraph/internal/config"
	"github.com/lexatlas/citegraph/internal/core/authority"
	"github.com/lexatlas/citegraph/internal/core/cite"
	"github.com/lexatlas/citegraph/internal/core/conflict"
	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/core/search"
	"github.com/lexatlas/citegraph/internal/core/subgraph"
	"github.com/lexatlas/citegraph/internal/core/topic"
	"github.com/lexatlas/citegraph/internal/driver"
)

// Engine wires the citation graph components over one read-only graph
// store. Every operation is a pure function of its inputs plus the
// store, so independent calls are safe to run concurrently.
type Engine struct {
	Store     driver.GraphStore
	Resolver  *cite.Resolver
	Builder   *subgraph.Builder
	Ranker    *authority.Ranker
	Detector  *conflict.Detector
	Reranker  *search.Reranker
	Clusterer *topic.Clusterer
}

func NewEngine(store driver.GraphStore, cfg *config.Config) (*Engine, error) {
	ranker, err := authority.NewRanker(authority.Weights{
		InDegree:   cfg.Ranking.InDegreeWeight,
		CourtLevel: cfg.Ranking.CourtLevelWeight,
		Recency:    cfg.Ranking.RecencyWeight,
	}, cfg.Ranking.RecencyHalfLifeDays)
	if err != nil {
		return nil, err
	}

	detector, err := conflict.NewDetector(store, conflict.Weights{
		AuthorityOverlap: cfg.Conflict.AuthorityOverlapWeight,
		Disposition:      cfg.Conflict.DispositionWeight,
		CitationTension:  cfg.Conflict.CitationTensionWeight,
	}, cfg.Conflict.MinConfidence, cfg.Traversal.ResolutionThreshold)
	if err != nil {
		return nil, err
	}

	reranker, err := search.NewReranker(search.Metric(cfg.Search.Metric))
	if err != nil {
		return nil, err
	}

	return &Engine{
		Store: store,
		Resolver: cite.NewResolver(store, cite.ResolverOptions{
			MinSimilarity: cfg.Resolver.MinSimilarity,
			CacheTTL:      time.Duration(cfg.Resolver.CacheTTLSeconds) * time.Second,
		}),
		Builder:   subgraph.NewBuilder(store, cfg.Traversal.ResolutionThreshold, cfg.Traversal.FanOut),
		Ranker:    ranker,
		Detector:  detector,
		Reranker:  reranker,
		Clusterer: topic.NewClusterer(),
	}, nil
}

// Resolve matches a raw citation string to a canonical opinion.
func (e *Engine) Resolve(ctx context.Context, raw string) (model.Resolution, error) {
	return e.Resolver.Resolve(ctx, raw)
}

// ResolveBatch resolves many citation strings and reports aggregate
// data-quality stats.
func (e *Engine) ResolveBatch(ctx context.Context, raws []string) ([]model.Resolution, model.ResolutionStats, error) {
	return e.Resolver.ResolveBatch(ctx, raws)
}

// BuildSubgraph returns the bounded citation neighborhood of root.
func (e *Engine) BuildSubgraph(ctx context.Context, rootID string, opts subgraph.Options) (*model.Subgraph, error) {
	return e.Builder.Build(ctx, rootID, opts)
}

// Rank orders an ad hoc node set by composite authority score.
func (e *Engine) Rank(nodes []model.Opinion) []model.RankedOpinion {
	return e.Ranker.Rank(nodes)
}

// RankSubgraph builds the neighborhood of root and ranks its members.
func (e *Engine) RankSubgraph(ctx context.Context, rootID string, opts subgraph.Options) (*model.Subgraph, []model.RankedOpinion, error) {
	g, err := e.Builder.Build(ctx, rootID, opts)
	if err != nil {
		return nil, nil, err
	}
	return g, e.Ranker.Rank(g.Nodes), nil
}

// DetectConflict evaluates one pair of opinions by id.
func (e *Engine) DetectConflict(ctx context.Context, aID, bID string) (*model.Conflict, error) {
	a, err := e.Store.GetOpinion(ctx, aID)
	if err != nil {
		return nil, err
	}
	b, err := e.Store.GetOpinion(ctx, bID)
	if err != nil {
		return nil, err
	}
	return e.Detector.Detect(ctx, *a, *b)
}

// DetectConflicts scans the neighborhood of root for circuit splits:
// builds the bidirectional subgraph, clusters it into related-authority
// groups, and evaluates every cross-court pair within each cluster.
// Results are ordered by descending confidence, then pair id.
func (e *Engine) DetectConflicts(ctx context.Context, rootID string, depth int) ([]model.Conflict, error) {
	g, err := e.Builder.Build(ctx, rootID, subgraph.Options{
		Depth:     depth,
		Direction: model.DirectionBoth,
	})
	if err != nil {
		return nil, err
	}

	clusters := e.Clusterer.Cluster(g.Nodes, g.Edges)

	var conflicts []model.Conflict
	for _, pair := range topic.CrossCourtPairs(clusters) {
		c, err := e.Detector.Detect(ctx, pair[0], pair[1])
		if err != nil {
			if errors.Is(err, model.ErrInvalidParameter) {
				continue
			}
			return nil, err
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Confidence != conflicts[j].Confidence {
			return conflicts[i].Confidence > conflicts[j].Confidence
		}
		return conflicts[i].OpinionAID+conflicts[i].OpinionBID < conflicts[j].OpinionAID+conflicts[j].OpinionBID
	})
	return conflicts, nil
}

// Rerank applies MMR diversity reranking to a scored candidate set and
// summarizes the selection. Candidate opinions are looked up for the
// court/date spread metrics; references the store no longer knows are
// skipped rather than failing the search.
func (e *Engine) Rerank(ctx context.Context, query []float32, candidates []model.Candidate, k int, lambda float64) ([]model.Candidate, model.SearchMetrics, error) {
	selected, err := e.Reranker.Rerank(query, candidates, k, lambda)
	if err != nil {
		return nil, model.SearchMetrics{}, err
	}

	metrics, err := e.searchMetrics(ctx, selected)
	if err != nil {
		return nil, model.SearchMetrics{}, err
	}
	return selected, metrics, nil
}

func (e *Engine) searchMetrics(ctx context.Context, selected []model.Candidate) (model.SearchMetrics, error) {
	if len(selected) == 0 {
		return model.SearchMetrics{}, nil
	}

	courts := make(map[string]bool)
	var minDate, maxDate time.Time
	totalRelevance := 0.0

	for _, c := range selected {
		totalRelevance += c.Relevance

		op, err := e.Store.GetOpinion(ctx, c.OpinionID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return model.SearchMetrics{}, err
		}
		courts[op.CourtID] = true
		if minDate.IsZero() || op.DateFiled.Before(minDate) {
			minDate = op.DateFiled
		}
		if maxDate.IsZero() || op.DateFiled.After(maxDate) {
			maxDate = op.DateFiled
		}
	}

	dateRange := 0.0
	if !minDate.IsZero() && maxDate.After(minDate) {
		dateRange = maxDate.Sub(minDate).Hours() / 24 / 365.25
	}

	return model.SearchMetrics{
		UniqueCourts:         len(courts),
		DateRangeYears:       dateRange,
		AvgRelevance:         totalRelevance / float64(len(selected)),
		AvgPairwiseDiversity: e.Reranker.AvgPairwiseDiversity(selected),
	}, nil
}
