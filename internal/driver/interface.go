package driver

import (
	"context"
	"time"

	"github.com/lexatlas/citegraph/internal/core/model"
)

// GraphStore is the read-only view of the persisted opinion graph the
// engine consumes. Implementations must be safe for concurrent reads;
// the subgraph builder issues frontier fetches in parallel. Failures
// should wrap model.ErrStoreUnavailable so callers can distinguish a
// collaborator outage from missing data (model.ErrNotFound).
type GraphStore interface {
	// GetOpinion returns the opinion with the given id, or an error
	// wrapping model.ErrNotFound.
	GetOpinion(ctx context.Context, id string) (*model.Opinion, error)

	// GetOutgoingCitations returns all citation edges where id is the
	// citing opinion, including unresolved ones.
	GetOutgoingCitations(ctx context.Context, id string) ([]model.CitationEdge, error)

	// GetIncomingCitations returns all citation edges where id is the
	// cited opinion, including unresolved ones.
	GetIncomingCitations(ctx context.Context, id string) ([]model.CitationEdge, error)

	// FindByReporterCite returns every opinion whose canonical citation
	// matches the (volume, reporter, page) triple exactly. Duplicate
	// reporter entries may yield more than one.
	FindByReporterCite(ctx context.Context, volume int, reporter string, page int) ([]model.Opinion, error)

	// FindByCaseName returns fuzzy-match candidates whose case name
	// contains the given term, optionally bounded to a filing window.
	// Zero from/to values mean no date constraint.
	FindByCaseName(ctx context.Context, term string, from, to time.Time) ([]model.Opinion, error)

	Close(ctx context.Context) error
}
