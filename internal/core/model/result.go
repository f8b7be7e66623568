package model

import "time"

// ResolutionStatus discriminates the outcome of resolving a raw citation
// string. Not-found and ambiguous are first-class results, not errors.
type ResolutionStatus string

const (
	ResolutionExact    ResolutionStatus = "exact"
	ResolutionFuzzy    ResolutionStatus = "fuzzy"
	ResolutionNotFound ResolutionStatus = "not_found"
)

// Resolution is the result of matching a raw citation string to a
// canonical opinion. OpinionID is empty when Status is not_found.
type Resolution struct {
	Status     ResolutionStatus `json:"status"`
	OpinionID  string           `json:"opinion_id,omitempty"`
	Confidence float64          `json:"confidence"`

	// Ambiguous is set when multiple equally strong matches existed and
	// the tie-break policy chose one. Candidates lists the contenders so
	// callers can choose to treat the result as unresolved.
	Ambiguous  bool     `json:"ambiguous,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// ResolutionStats aggregates the outcome of a bulk resolution run.
type ResolutionStats struct {
	Total               int      `json:"total"`
	Resolved            int      `json:"resolved"`
	Unresolved          int      `json:"unresolved"`
	UnresolvedCitations []string `json:"unresolved_citations,omitempty"`
}

// Direction selects which citation edges a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Subgraph is the node/edge set produced by a bounded traversal. Nodes
// always include the root. Truncated is set when the traversal was
// cancelled between depth levels and the graph is incomplete.
type Subgraph struct {
	RootID    string         `json:"root_id"`
	Nodes     []Opinion      `json:"nodes"`
	Edges     []CitationEdge `json:"edges"`
	Truncated bool           `json:"truncated,omitempty"`
}

// RankedOpinion attaches a composite authority score to an opinion within
// one ranking invocation. Scores are only comparable within a single call
// because in-degree normalization is relative to the ranked set.
type RankedOpinion struct {
	Opinion Opinion `json:"opinion"`
	Score   float64 `json:"score"`

	// Component scores, kept so rankings stay explainable.
	InDegreeScore float64 `json:"in_degree_score"`
	CourtScore    float64 `json:"court_score"`
	RecencyScore  float64 `json:"recency_score"`
}

// ConflictSignals are the three independent [0,1] signals combined into a
// conflict confidence.
type ConflictSignals struct {
	AuthorityOverlap      float64 `json:"authority_overlap"`
	DispositionOpposition float64 `json:"disposition_opposition"`
	CitationTension       float64 `json:"citation_tension"`
}

// Conflict is a scored circuit-split candidate between two opinions from
// different courts. The pair is canonicalized (OpinionAID < OpinionBID)
// so detection is order-independent. Status tracking is the caller's
// concern; the detector only produces candidates.
type Conflict struct {
	ID           string          `json:"id"`
	OpinionAID   string          `json:"opinion_a_id"`
	OpinionBID   string          `json:"opinion_b_id"`
	CourtA       string          `json:"court_a"`
	CourtB       string          `json:"court_b"`
	Topic        string          `json:"topic"`
	TopicMatched bool            `json:"topic_matched"`
	Description  string          `json:"description"`
	Confidence   float64         `json:"confidence"`
	Signals      ConflictSignals `json:"signals"`
	DetectedAt   time.Time       `json:"detected_at"`
}

// Candidate is a search hit handed to the diversity reranker: an opinion
// reference, its raw similarity-to-query score, and its precomputed
// embedding. The reranker orders and selects candidates, never mutates.
type Candidate struct {
	OpinionID string    `json:"opinion_id"`
	Relevance float64   `json:"relevance"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// SearchMetrics summarizes a returned result set.
type SearchMetrics struct {
	UniqueCourts         int     `json:"unique_courts"`
	DateRangeYears       float64 `json:"date_range_years"`
	AvgRelevance         float64 `json:"avg_relevance"`
	AvgPairwiseDiversity float64 `json:"avg_pairwise_diversity,omitempty"`
}
