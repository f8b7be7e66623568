package conflict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/driver"
)

// conflictNamespace makes candidate ids a pure function of the
// canonicalized opinion pair, so detecting (A,B) and (B,A) yields the
// same candidate.
var conflictNamespace = uuid.MustParse("7b1e3f6a-9c4d-4e2b-8f5a-1d0c2b3a4e5f")

// Weights combine the three conflict signals. They must be
// non-negative and sum to 1.
type Weights struct {
	AuthorityOverlap float64
	Disposition      float64
	CitationTension  float64
}

func (w Weights) validate() error {
	if w.AuthorityOverlap < 0 || w.Disposition < 0 || w.CitationTension < 0 {
		return fmt.Errorf("negative conflict weight: %w", model.ErrInvalidParameter)
	}
	if sum := w.AuthorityOverlap + w.Disposition + w.CitationTension; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("conflict weights sum to %v, want 1: %w", sum, model.ErrInvalidParameter)
	}
	return nil
}

// Detector scores pairs of opinions from different courts as circuit
// split candidates. It is a pure function of the two nodes plus their
// edge sets; pair order never changes the result.
type Detector struct {
	store               driver.GraphStore
	weights             Weights
	minConfidence       float64
	resolutionThreshold float64
	now                 func() time.Time
}

func NewDetector(store driver.GraphStore, weights Weights, minConfidence, resolutionThreshold float64) (*Detector, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("min confidence %v: %w", minConfidence, model.ErrInvalidParameter)
	}
	return &Detector{
		store:               store,
		weights:             weights,
		minConfidence:       minConfidence,
		resolutionThreshold: resolutionThreshold,
		now:                 time.Now,
	}, nil
}

// Detect evaluates one cross-court pair. A nil Conflict with nil error
// means "no conflict": the pair scored below the configured minimum.
// Same-court pairs are rejected at the boundary.
func (d *Detector) Detect(ctx context.Context, a, b model.Opinion) (*model.Conflict, error) {
	if a.ID == b.ID || a.CourtID == b.CourtID {
		return nil, fmt.Errorf("conflict pair must come from different courts: %w", model.ErrInvalidParameter)
	}

	// Canonicalize so invocation order never changes the result.
	if a.ID > b.ID {
		a, b = b, a
	}

	edgesA, err := d.resolvedOutgoing(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	edgesB, err := d.resolvedOutgoing(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	signals := model.ConflictSignals{
		AuthorityOverlap:      authorityOverlap(edgesA, edgesB),
		DispositionOpposition: dispositionOpposition(a.Disposition, b.Disposition),
		CitationTension:       citationTension(a.ID, b.ID, edgesA, edgesB),
	}

	confidence := d.weights.AuthorityOverlap*signals.AuthorityOverlap +
		d.weights.Disposition*signals.DispositionOpposition +
		d.weights.CitationTension*signals.CitationTension
	confidence = clip01(confidence)

	if confidence < d.minConfidence {
		return nil, nil
	}

	topic, matched := sharedTopic(a.LegalTopics, b.LegalTopics)

	return &model.Conflict{
		ID:           uuid.NewSHA1(conflictNamespace, []byte(a.ID+"|"+b.ID)).String(),
		OpinionAID:   a.ID,
		OpinionBID:   b.ID,
		CourtA:       a.CourtID,
		CourtB:       b.CourtID,
		Topic:        topic,
		TopicMatched: matched,
		Description:  describe(a, b, signals),
		Confidence:   confidence,
		Signals:      signals,
		DetectedAt:   d.now().UTC(),
	}, nil
}

// resolvedOutgoing returns the opinion's cited-authority edges, dropping
// unresolved ones: an edge whose target match is uncertain must not
// contribute to overlap or tension.
func (d *Detector) resolvedOutgoing(ctx context.Context, id string) ([]model.CitationEdge, error) {
	edges, err := d.store.GetOutgoingCitations(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved := edges[:0:0]
	for _, e := range edges {
		if e.Resolved(d.resolutionThreshold) {
			resolved = append(resolved, e)
		}
	}
	return resolved, nil
}

// authorityOverlap is the Jaccard similarity of the two cited-authority
// id sets. Shared precedent strongly suggests the same legal issue.
func authorityOverlap(edgesA, edgesB []model.CitationEdge) float64 {
	setA := citedSet(edgesA)
	setB := citedSet(edgesB)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	shared := 0
	for id := range setA {
		if setB[id] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func citedSet(edges []model.CitationEdge) map[string]bool {
	set := make(map[string]bool, len(edges))
	for _, e := range edges {
		set[e.TargetID] = true
	}
	return set
}

// dispositionOpposition applies the fixed opposition table: affirmed vs
// reversed is opposed (1.0), vacated or remanded on either side is
// neutral (0.5), anything else contributes nothing.
func dispositionOpposition(da, db model.Disposition) float64 {
	opposed := (da == model.DispositionAffirmed && db == model.DispositionReversed) ||
		(da == model.DispositionReversed && db == model.DispositionAffirmed)
	if opposed {
		return 1.0
	}
	if neutral(da) || neutral(db) {
		return 0.5
	}
	return 0.0
}

func neutral(d model.Disposition) bool {
	return d == model.DispositionVacated || d == model.DispositionRemanded
}

// citationTension is the fraction of edges between the pair — direct or
// into shared authorities — tagged distinguishes or criticizes rather
// than follows.
func citationTension(aID, bID string, edgesA, edgesB []model.CitationEdge) float64 {
	setA := citedSet(edgesA)
	setB := citedSet(edgesB)

	total, tense := 0, 0
	count := func(e model.CitationEdge, direct bool, shared bool) {
		if !direct && !shared {
			return
		}
		total++
		if e.Type == model.CitationDistinguishes || e.Type == model.CitationCriticizes {
			tense++
		}
	}

	for _, e := range edgesA {
		count(e, e.TargetID == bID, setB[e.TargetID])
	}
	for _, e := range edgesB {
		count(e, e.TargetID == aID, setA[e.TargetID])
	}

	if total == 0 {
		return 0
	}
	return float64(tense) / float64(total)
}

// sharedTopic derives the topic label from the intersection of the two
// topic tag sets, keeping the first three alphabetically. An empty
// intersection still allows a conflict but is flagged unspecified.
func sharedTopic(topicsA, topicsB []string) (string, bool) {
	setA := make(map[string]bool, len(topicsA))
	for _, t := range topicsA {
		setA[t] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, t := range topicsB {
		if setA[t] && !seen[t] {
			seen[t] = true
			shared = append(shared, t)
		}
	}
	if len(shared) == 0 {
		return "unspecified", false
	}

	sort.Strings(shared)
	if len(shared) > 3 {
		shared = shared[:3]
	}
	return strings.Join(shared, ", "), true
}

func describe(a, b model.Opinion, signals model.ConflictSignals) string {
	var parts []string
	if signals.DispositionOpposition == 1.0 {
		parts = append(parts, fmt.Sprintf("%s (%s) reached %s while %s (%s) reached %s",
			a.CourtID, a.CaseName, a.Disposition, b.CourtID, b.CaseName, b.Disposition))
	}
	if signals.CitationTension > 0 {
		parts = append(parts, fmt.Sprintf("%s and %s treat shared authorities differently", a.CourtID, b.CourtID))
	}
	if len(parts) == 0 {
		return "Potential circuit split detected"
	}
	return strings.Join(parts, "; ")
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
