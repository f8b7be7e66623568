package cite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/driver"
)

func resolverFixture() *driver.MemStore {
	store := driver.NewMemStore()

	store.AddOpinion(model.Opinion{
		ID:         "opn-heller",
		CaseName:   "District of Columbia v. Heller",
		CourtID:    "scotus",
		CourtLevel: model.CourtSupreme,
		DateFiled:  time.Date(2008, 6, 26, 0, 0, 0, 0, time.UTC),
	}, driver.ReporterCite{Volume: 554, Reporter: "U.S.", Page: 570})

	store.AddOpinion(model.Opinion{
		ID:         "opn-roe",
		CaseName:   "Roe v. Wade",
		CourtID:    "scotus",
		CourtLevel: model.CourtSupreme,
		DateFiled:  time.Date(1973, 1, 22, 0, 0, 0, 0, time.UTC),
	})

	// A later, unrelated case with the same name, to exercise window
	// filtering and recency tie-breaks.
	store.AddOpinion(model.Opinion{
		ID:         "opn-roe-2",
		CaseName:   "Roe v. Wade",
		CourtID:    "ca5",
		CourtLevel: model.CourtAppellate,
		DateFiled:  time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	return store
}

func TestResolve_ExactMatch(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	res, err := r.Resolve(context.Background(), "554 U.S. 570 (2008)")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionExact, res.Status)
	assert.Equal(t, "opn-heller", res.OpinionID)
	assert.Equal(t, 1.0, res.Confidence)
	assert.False(t, res.Ambiguous)
}

func TestResolve_ExactMatchIsStableAcrossCalls(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{CacheTTL: time.Minute})

	first, err := r.Resolve(context.Background(), "554 U.S. 570 (2008)")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "554 U.S. 570 (2008)")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_DuplicateReporterEntries(t *testing.T) {
	store := resolverFixture()
	// A second opinion published under the same reporter triple. The
	// more recently filed one wins, and the tie is flagged.
	store.AddOpinion(model.Opinion{
		ID:         "opn-dupe",
		CaseName:   "In re Duplicate",
		CourtID:    "ca9",
		CourtLevel: model.CourtAppellate,
		DateFiled:  time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	}, driver.ReporterCite{Volume: 554, Reporter: "U.S.", Page: 570})

	r := NewResolver(store, ResolverOptions{})
	res, err := r.Resolve(context.Background(), "554 U.S. 570")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionExact, res.Status)
	assert.Equal(t, "opn-dupe", res.OpinionID)
	assert.True(t, res.Ambiguous)
	assert.ElementsMatch(t, []string{"opn-dupe", "opn-heller"}, res.Candidates)
}

func TestResolve_MalformedInput(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	for _, raw := range []string{"", "   ", "not a citation", "see generally id. at 4"} {
		res, err := r.Resolve(context.Background(), raw)
		require.NoError(t, err, "malformed input %q must not error", raw)
		assert.Equal(t, model.ResolutionNotFound, res.Status)
		assert.Empty(t, res.OpinionID)
	}
}

func TestResolve_FuzzyCaseName(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	// Misspelled case name with no reporter cite: substring search fails,
	// the longest-token retry recovers the candidate, and similarity
	// stays above the default threshold.
	res, err := r.Resolve(context.Background(), "District of Colombia v. Heller")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionFuzzy, res.Status)
	assert.Equal(t, "opn-heller", res.OpinionID)
	assert.Greater(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, FuzzyConfidenceCap)
}

func TestResolve_FuzzyBelowThreshold(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	res, err := r.Resolve(context.Background(), "Smith v. Jones")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionNotFound, res.Status)
}

func TestResolve_YearWindowDisambiguates(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	// The fixture has no (410, U.S., 113) reporter entry, so this falls
	// to the fuzzy path; the 1973 date hint excludes the 1990 homonym.
	res, err := r.Resolve(context.Background(), "Roe v. Wade, 410 U.S. 113 (1973)")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionFuzzy, res.Status)
	assert.Equal(t, "opn-roe", res.OpinionID)
	assert.False(t, res.Ambiguous)
}

func TestResolve_HomonymWithoutYearIsAmbiguous(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	res, err := r.Resolve(context.Background(), "Roe v. Wade")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionFuzzy, res.Status)
	// Equal similarity: the more recently filed candidate wins the
	// tie-break and the ambiguity is surfaced.
	assert.Equal(t, "opn-roe-2", res.OpinionID)
	assert.True(t, res.Ambiguous)
	assert.ElementsMatch(t, []string{"opn-roe", "opn-roe-2"}, res.Candidates)
}

func TestResolve_CanonicalRenderingRoundTrip(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	raw := "District of Columbia v. Heller,  554  U.S.  570 (2008)"
	first, err := r.Resolve(context.Background(), raw)
	require.NoError(t, err)

	parsed, ok := Parse(raw)
	require.True(t, ok)
	second, err := r.Resolve(context.Background(), parsed.String())
	require.NoError(t, err)
	assert.Equal(t, first.OpinionID, second.OpinionID)
}

func TestResolveBatch_Stats(t *testing.T) {
	r := NewResolver(resolverFixture(), ResolverOptions{})

	results, stats, err := r.ResolveBatch(context.Background(), []string{
		"554 U.S. 570 (2008)",
		"Roe v. Wade, 410 U.S. 113 (1973)",
		"gibberish",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Resolved)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, []string{"gibberish"}, stats.UnresolvedCitations)
}
