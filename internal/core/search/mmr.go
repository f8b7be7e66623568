package search

import (
	"fmt"
	"math"

	"github.com/lexatlas/citegraph/internal/core/model"
)

// Metric names a similarity variant. Selected by configuration, never by
// conditional branching inside scoring code.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

func (m Metric) similarity(a, b []float32) float64 {
	switch m {
	case MetricDot:
		return dot(a, b)
	default:
		return cosine(a, b)
	}
}

// Reranker applies Maximal Marginal Relevance: greedy selection that
// balances relevance against redundancy among already-selected results.
type Reranker struct {
	metric Metric
}

func NewReranker(metric Metric) (*Reranker, error) {
	switch metric {
	case MetricCosine, MetricDot:
		return &Reranker{metric: metric}, nil
	default:
		return nil, fmt.Errorf("similarity metric %q: %w", metric, model.ErrInvalidParameter)
	}
}

// Rerank returns an ordered subsequence of length min(k, len(candidates)):
//
//	mmr(c) = λ*relevance(c) - (1-λ)*max_{s∈selected} sim(c, s)
//
// With selected empty the penalty term is 0, so the first pick falls to
// the relevance tie-break and λ=0 still seeds with the most relevant
// item. Ties break by higher raw relevance, then stable input order.
// Candidates are never mutated, only ordered and selected.
func (r *Reranker) Rerank(query []float32, candidates []model.Candidate, k int, lambda float64) ([]model.Candidate, error) {
	if k < 0 {
		return nil, fmt.Errorf("k %d: %w", k, model.ErrInvalidParameter)
	}
	if lambda < 0 || lambda > 1 || math.IsNaN(lambda) {
		return nil, fmt.Errorf("lambda %v: %w", lambda, model.ErrInvalidParameter)
	}
	if err := checkDimensions(query, candidates); err != nil {
		return nil, err
	}

	n := len(candidates)
	if k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	// Pairwise similarity matrix computed up front: O(k·n) selection
	// instead of recomputing per round.
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := r.metric.similarity(candidates[i].Embedding, candidates[j].Embedding)
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	selected := make([]int, 0, k)
	remaining := make([]bool, n)
	for i := range remaining {
		remaining[i] = true
	}

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := 0; i < n; i++ {
			if !remaining[i] {
				continue
			}

			penalty := 0.0
			for _, s := range selected {
				if sims[i][s] > penalty {
					penalty = sims[i][s]
				}
			}

			score := lambda*candidates[i].Relevance - (1-lambda)*penalty
			if score > bestScore ||
				(score == bestScore && bestIdx >= 0 && candidates[i].Relevance > candidates[bestIdx].Relevance) {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, bestIdx)
		remaining[bestIdx] = false
	}

	out := make([]model.Candidate, 0, k)
	for _, i := range selected {
		out = append(out, candidates[i])
	}
	return out, nil
}

// AvgPairwiseDiversity is the mean (1 - similarity) over all pairs of a
// selected set, reported in search metrics.
func (r *Reranker) AvgPairwiseDiversity(selected []model.Candidate) float64 {
	if len(selected) < 2 {
		return 0
	}
	total, count := 0.0, 0
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			total += 1.0 - r.metric.similarity(selected[i].Embedding, selected[j].Embedding)
			count++
		}
	}
	return total / float64(count)
}

func checkDimensions(query []float32, candidates []model.Candidate) error {
	dim := len(query)
	if dim == 0 {
		return fmt.Errorf("empty query embedding: %w", model.ErrInvalidParameter)
	}
	for _, c := range candidates {
		if len(c.Embedding) != dim {
			return fmt.Errorf("candidate %s embedding dimension %d, query %d: %w",
				c.OpinionID, len(c.Embedding), dim, model.ErrInvalidParameter)
		}
	}
	return nil
}

func cosine(a, b []float32) float64 {
	var dotProd, normA, normB float64
	for i := range a {
		dotProd += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA)*math.Sqrt(normB) + 1e-10
	return dotProd / denom
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
