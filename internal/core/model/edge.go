package model

// CitationEdge is a directed citation from one opinion to another.
// Edges may be parallel (same endpoints, different context); identity is
// the (source, target, context) triple, never the endpoint pair alone.
type CitationEdge struct {
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Type     CitationType `json:"type"`
	Context  string       `json:"context,omitempty"`

	// Confidence is the resolution confidence of the raw-citation-string
	// to TargetID match, in [0,1]. Edges below the configured threshold
	// are retained but flagged unresolved and excluded from ranking and
	// conflict computations.
	Confidence float64 `json:"confidence"`
}

// Resolved reports whether the edge meets the resolution confidence
// threshold and may participate in traversal and scoring.
func (e CitationEdge) Resolved(threshold float64) bool {
	return e.Confidence >= threshold
}

// Key returns the identity triple of the edge, used for de-duplication
// when the same edge is reached from both of its endpoints.
func (e CitationEdge) Key() string {
	return e.SourceID + "\x00" + e.TargetID + "\x00" + e.Context
}
