package subgraph

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/driver"
)

// Builder performs bounded bidirectional BFS over the citation graph.
// Citation graphs cycle (overruling opinions are cited back), so the
// traversal keys a visited set by opinion id and never relies on the
// graph being acyclic.
type Builder struct {
	store driver.GraphStore

	// resolutionThreshold separates resolved edges (traversable) from
	// unresolved ones (never expanded, optionally reported dangling).
	resolutionThreshold float64

	// fanOut bounds concurrent store reads within one depth level.
	fanOut int
}

func NewBuilder(store driver.GraphStore, resolutionThreshold float64, fanOut int) *Builder {
	if fanOut < 1 {
		fanOut = 1
	}
	return &Builder{
		store:               store,
		resolutionThreshold: resolutionThreshold,
		fanOut:              fanOut,
	}
}

// Options control one traversal.
type Options struct {
	Depth     int
	Direction model.Direction

	// IncludeUnresolved reports edges below the resolution threshold as
	// dangling edges in the output. They are never expanded across and
	// never count toward depth.
	IncludeUnresolved bool
}

// Build returns the nodes and edges within Depth hops of root. Depth 0
// returns only the root and its direct edges. A missing root yields an
// error wrapping model.ErrNotFound, distinct from an isolated root. A
// store failure mid-traversal discards partial results; cancellation
// between levels returns the partial graph with Truncated set.
func (b *Builder) Build(ctx context.Context, rootID string, opts Options) (*model.Subgraph, error) {
	if opts.Depth < 0 {
		return nil, fmt.Errorf("depth %d: %w", opts.Depth, model.ErrInvalidParameter)
	}
	switch opts.Direction {
	case model.DirectionOutgoing, model.DirectionIncoming, model.DirectionBoth:
	default:
		return nil, fmt.Errorf("direction %q: %w", opts.Direction, model.ErrInvalidParameter)
	}

	root, err := b.store.GetOpinion(ctx, rootID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("root %w", err)
		}
		return nil, err
	}

	g := &model.Subgraph{
		RootID: rootID,
		Nodes:  []model.Opinion{*root},
	}

	visited := map[string]bool{rootID: true}
	seenEdges := make(map[string]bool)
	frontier := []string{rootID}

	// Levels 0..Depth-1 expand; depth 0 still fetches the root's direct
	// edges so the result is distinguishable from an isolated root.
	levels := opts.Depth
	if levels == 0 {
		levels = 1
	}

	for level := 0; level < levels && len(frontier) > 0; level++ {
		// Cooperative cancellation, checked at the level barrier so
		// depth accounting stays exact for whatever was traversed.
		select {
		case <-ctx.Done():
			g.Truncated = true
			return g, nil
		default:
		}

		edgesByNode, err := b.fetchLevel(ctx, frontier, opts.Direction)
		if err != nil {
			return nil, err
		}

		expand := opts.Depth > 0 && level < opts.Depth

		var next []string
		for i := range frontier {
			for _, e := range edgesByNode[i] {
				resolved := e.Resolved(b.resolutionThreshold)
				if !resolved && !opts.IncludeUnresolved {
					continue
				}
				if key := e.Key(); !seenEdges[key] {
					seenEdges[key] = true
					g.Edges = append(g.Edges, e)
				}
				if !resolved || !expand {
					continue
				}

				neighbor := e.TargetID
				if neighbor == frontier[i] {
					neighbor = e.SourceID
				}
				if !visited[neighbor] {
					visited[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}

		if len(next) == 0 {
			break
		}

		nodes, err := b.fetchNodes(ctx, next)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, n := range nodes {
			if n == nil {
				continue // endpoint vanished from the store; edge stays, node is skipped
			}
			g.Nodes = append(g.Nodes, *n)
			frontier = append(frontier, n.ID)
		}
	}

	return g, nil
}

// fetchLevel reads the edge lists of every frontier node concurrently,
// bounded by fanOut. Results are indexed by frontier position so the
// traversal stays deterministic regardless of completion order. All
// reads for a level finish before the next level begins.
func (b *Builder) fetchLevel(ctx context.Context, frontier []string, dir model.Direction) ([][]model.CitationEdge, error) {
	edgesByNode := make([][]model.CitationEdge, len(frontier))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.fanOut)

	for i, id := range frontier {
		eg.Go(func() error {
			var edges []model.CitationEdge

			if dir == model.DirectionOutgoing || dir == model.DirectionBoth {
				out, err := b.store.GetOutgoingCitations(gctx, id)
				if err != nil {
					return err
				}
				edges = append(edges, out...)
			}
			if dir == model.DirectionIncoming || dir == model.DirectionBoth {
				in, err := b.store.GetIncomingCitations(gctx, id)
				if err != nil {
					return err
				}
				edges = append(edges, in...)
			}

			edgesByNode[i] = edges
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return edgesByNode, nil
}

func (b *Builder) fetchNodes(ctx context.Context, ids []string) ([]*model.Opinion, error) {
	nodes := make([]*model.Opinion, len(ids))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.fanOut)

	for i, id := range ids {
		eg.Go(func() error {
			op, err := b.store.GetOpinion(gctx, id)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return nil
				}
				return err
			}
			nodes[i] = op
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}
