package authority

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lexatlas/citegraph/internal/core/model"
)

// courtLevelWeight maps the court hierarchy onto [0,1] for scoring.
// Unknown levels score as district.
var courtLevelWeight = map[model.CourtLevel]float64{
	model.CourtSupreme:   1.0,
	model.CourtAppellate: 0.6,
	model.CourtDistrict:  0.3,
}

// Weights are the components of the composite authority score. They
// must be non-negative and sum to 1.
type Weights struct {
	InDegree   float64
	CourtLevel float64
	Recency    float64
}

func (w Weights) validate() error {
	if w.InDegree < 0 || w.CourtLevel < 0 || w.Recency < 0 {
		return fmt.Errorf("negative ranking weight: %w", model.ErrInvalidParameter)
	}
	if sum := w.InDegree + w.CourtLevel + w.Recency; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("ranking weights sum to %v, want 1: %w", sum, model.ErrInvalidParameter)
	}
	return nil
}

// Ranker orders opinions by composite authority:
//
//	score = w1*minmax(in_degree) + w2*court_level_weight + w3*recency_decay(date_filed)
//
// In-degree is min-max normalized within the ranked set, so scores are
// only comparable within one call. Recency decays exponentially with a
// configurable half-life in days.
type Ranker struct {
	weights      Weights
	halfLifeDays float64
	now          func() time.Time
}

func NewRanker(weights Weights, halfLifeDays float64) (*Ranker, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	if halfLifeDays <= 0 {
		return nil, fmt.Errorf("recency half-life %v: %w", halfLifeDays, model.ErrInvalidParameter)
	}
	return &Ranker{
		weights:      weights,
		halfLifeDays: halfLifeDays,
		now:          time.Now,
	}, nil
}

// Rank scores the node set and returns it ordered by descending score,
// ties broken by opinion id so repeated calls are byte-identical.
// The input slice is not mutated.
func (r *Ranker) Rank(nodes []model.Opinion) []model.RankedOpinion {
	if len(nodes) == 0 {
		return nil
	}

	minDeg, maxDeg := nodes[0].InDegree, nodes[0].InDegree
	for _, n := range nodes[1:] {
		if n.InDegree < minDeg {
			minDeg = n.InDegree
		}
		if n.InDegree > maxDeg {
			maxDeg = n.InDegree
		}
	}

	// Day granularity: repeated calls within a day return identical
	// scores, not just identical ordering.
	now := r.now().UTC().Truncate(24 * time.Hour)
	ranked := make([]model.RankedOpinion, 0, len(nodes))
	for _, n := range nodes {
		// Degenerate range: every node has the same in-degree and the
		// signal carries no ordering information, so it contributes 0.
		inDegScore := 0.0
		if maxDeg > minDeg {
			inDegScore = float64(n.InDegree-minDeg) / float64(maxDeg-minDeg)
		}

		courtScore, ok := courtLevelWeight[n.CourtLevel]
		if !ok {
			courtScore = courtLevelWeight[model.CourtDistrict]
		}

		recencyScore := 0.0
		if !n.DateFiled.IsZero() {
			ageDays := now.Sub(n.DateFiled).Hours() / 24
			if ageDays < 0 {
				ageDays = 0
			}
			recencyScore = math.Pow(0.5, ageDays/r.halfLifeDays)
		}

		ranked = append(ranked, model.RankedOpinion{
			Opinion:       n,
			Score:         r.weights.InDegree*inDegScore + r.weights.CourtLevel*courtScore + r.weights.Recency*recencyScore,
			InDegreeScore: inDegScore,
			CourtScore:    courtScore,
			RecencyScore:  recencyScore,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Opinion.ID < ranked[j].Opinion.ID
	})
	return ranked
}
