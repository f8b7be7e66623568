package cite

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/driver"
)

// FuzzyConfidenceCap bounds the confidence any fuzzy (case-name) match
// can report; only an exact structural match earns 1.0.
const FuzzyConfidenceCap = 0.6

// Resolver matches raw citation strings to canonical opinions. It never
// fails on malformed input: the only errors it returns are store
// failures. Everything else is a Resolution result state.
type Resolver struct {
	store         driver.GraphStore
	cache         *gocache.Cache
	minSimilarity float64
}

type ResolverOptions struct {
	// MinSimilarity is the normalized edit-distance similarity a fuzzy
	// case-name match must reach or be rejected outright.
	MinSimilarity float64
	// CacheTTL bounds how long a resolution is reused. Zero disables
	// the cache entirely.
	CacheTTL time.Duration
}

func NewResolver(store driver.GraphStore, opts ResolverOptions) *Resolver {
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = 0.8
	}

	var c *gocache.Cache
	if opts.CacheTTL > 0 {
		c = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}

	return &Resolver{
		store:         store,
		cache:         c,
		minSimilarity: opts.MinSimilarity,
	}
}

// Resolve matches one raw citation string. Exact (volume, reporter,
// page) matches score 1.0; fuzzy case-name matches are capped at
// FuzzyConfidenceCap; no match at all is a not_found result.
func (r *Resolver) Resolve(ctx context.Context, raw string) (model.Resolution, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return notFound(), nil
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(raw); ok {
			return cached.(model.Resolution), nil
		}
	}

	res, err := r.resolve(ctx, raw)
	if err != nil {
		return model.Resolution{}, err
	}

	if r.cache != nil {
		r.cache.SetDefault(raw, res)
	}
	return res, nil
}

// ResolveBatch resolves a batch of raw citation strings and reports
// aggregate data-quality stats alongside the individual results.
func (r *Resolver) ResolveBatch(ctx context.Context, raws []string) ([]model.Resolution, model.ResolutionStats, error) {
	results := make([]model.Resolution, 0, len(raws))
	stats := model.ResolutionStats{}

	for _, raw := range raws {
		res, err := r.Resolve(ctx, raw)
		if err != nil {
			return nil, model.ResolutionStats{}, err
		}
		results = append(results, res)

		stats.Total++
		if res.Status == model.ResolutionNotFound {
			stats.Unresolved++
			stats.UnresolvedCitations = append(stats.UnresolvedCitations, raw)
		} else {
			stats.Resolved++
		}
	}
	return results, stats, nil
}

func (r *Resolver) resolve(ctx context.Context, raw string) (model.Resolution, error) {
	parsed, ok := Parse(raw)

	if ok {
		matches, err := r.store.FindByReporterCite(ctx, parsed.Volume, parsed.Reporter, parsed.Page)
		if err != nil {
			return model.Resolution{}, err
		}
		if len(matches) > 0 {
			// Duplicate reporter entries: the store orders candidates
			// most-recently-filed first, so matches[0] is the policy
			// tie-break. The ambiguity flag lets callers opt out.
			res := model.Resolution{
				Status:     model.ResolutionExact,
				OpinionID:  matches[0].ID,
				Confidence: 1.0,
			}
			if len(matches) > 1 {
				res.Ambiguous = true
				for _, m := range matches {
					res.Candidates = append(res.Candidates, m.ID)
				}
			}
			return res, nil
		}
	}

	return r.fuzzyResolve(ctx, raw, parsed, ok)
}

func (r *Resolver) fuzzyResolve(ctx context.Context, raw string, parsed ParsedCitation, hasCite bool) (model.Resolution, error) {
	name := caseNameHint(raw, parsed, hasCite)
	if name == "" {
		return notFound(), nil
	}

	// ±1 year of any date hint present in the citation.
	var from, to time.Time
	if hasCite && parsed.Year > 0 {
		from = time.Date(parsed.Year-1, 1, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(parsed.Year+1, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	candidates, err := r.store.FindByCaseName(ctx, name, from, to)
	if err != nil {
		return model.Resolution{}, err
	}
	if len(candidates) == 0 {
		// Retry on the longest token; "Heller" still finds
		// "District of Columbia v. Heller" when the full hint is too
		// mangled for a substring match.
		if token := longestToken(name); token != "" && token != name {
			candidates, err = r.store.FindByCaseName(ctx, token, from, to)
			if err != nil {
				return model.Resolution{}, err
			}
		}
	}

	best, bestSim, ambiguous := pickBySimilarity(name, candidates)
	if best == nil || bestSim < r.minSimilarity {
		return notFound(), nil
	}

	res := model.Resolution{
		Status:     model.ResolutionFuzzy,
		OpinionID:  best.ID,
		Confidence: FuzzyConfidenceCap * bestSim,
		Ambiguous:  ambiguous,
	}
	if ambiguous {
		for _, c := range candidates {
			if caseNameSimilarity(name, c.CaseName) == bestSim {
				res.Candidates = append(res.Candidates, c.ID)
			}
		}
	}
	return res, nil
}

// pickBySimilarity returns the most similar candidate. Candidates arrive
// pre-ordered most-recently-filed first, so equal similarity keeps the
// earlier (more recent) candidate and flags the tie as ambiguous.
func pickBySimilarity(name string, candidates []model.Opinion) (*model.Opinion, float64, bool) {
	var best *model.Opinion
	bestSim := -1.0
	ambiguous := false

	for i := range candidates {
		sim := caseNameSimilarity(name, candidates[i].CaseName)
		switch {
		case sim > bestSim:
			best = &candidates[i]
			bestSim = sim
			ambiguous = false
		case sim == bestSim && best != nil && candidates[i].ID != best.ID:
			ambiguous = true
		}
	}
	return best, bestSim, ambiguous
}

// caseNameHint recovers the case-name portion of a raw citation string:
// the text preceding the reporter cite ("District of Columbia v.
// Heller, 554 U.S. 570"), or the whole string when nothing parsed.
func caseNameHint(raw string, parsed ParsedCitation, hasCite bool) string {
	name := raw
	if hasCite {
		name = raw[:parsed.Start]
	}
	return strings.Trim(strings.TrimSpace(name), ",;")
}

func longestToken(name string) string {
	longest := ""
	for _, tok := range strings.Fields(normalizeCaseName(name)) {
		if len(tok) > len(longest) {
			longest = tok
		}
	}
	if len(longest) < 4 {
		return ""
	}
	return longest
}

func notFound() model.Resolution {
	return model.Resolution{Status: model.ResolutionNotFound}
}
