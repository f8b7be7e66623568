package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexatlas/citegraph/internal/core/model"
)

// ReporterCite is a canonical (volume, reporter, page) triple under which
// an opinion was published. An opinion may appear in several reporters.
type ReporterCite struct {
	Volume   int
	Reporter string
	Page     int
}

// MemStore is an in-memory GraphStore used by tests and the dev server
// mode. Writes exist only to load fixtures; the engine never calls them.
type MemStore struct {
	mu       sync.RWMutex
	opinions map[string]model.Opinion
	outgoing map[string][]model.CitationEdge
	incoming map[string][]model.CitationEdge
	cites    map[string][]ReporterCite
}

func NewMemStore() *MemStore {
	return &MemStore{
		opinions: make(map[string]model.Opinion),
		outgoing: make(map[string][]model.CitationEdge),
		incoming: make(map[string][]model.CitationEdge),
		cites:    make(map[string][]ReporterCite),
	}
}

// AddOpinion loads an opinion fixture with its reporter citations.
func (s *MemStore) AddOpinion(op model.Opinion, cites ...ReporterCite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opinions[op.ID] = op
	s.cites[op.ID] = append(s.cites[op.ID], cites...)
}

// AddCitation loads a citation edge fixture and bumps the cited
// opinion's in-degree to keep the derived aggregate consistent.
func (s *MemStore) AddCitation(e model.CitationEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outgoing[e.SourceID] = append(s.outgoing[e.SourceID], e)
	s.incoming[e.TargetID] = append(s.incoming[e.TargetID], e)
	if op, ok := s.opinions[e.TargetID]; ok {
		op.InDegree++
		s.opinions[e.TargetID] = op
	}
}

func (s *MemStore) GetOpinion(ctx context.Context, id string) (*model.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.opinions[id]
	if !ok {
		return nil, fmt.Errorf("opinion %s: %w", id, model.ErrNotFound)
	}
	return &op, nil
}

func (s *MemStore) GetOutgoingCitations(ctx context.Context, id string) ([]model.CitationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CitationEdge(nil), s.outgoing[id]...), nil
}

func (s *MemStore) GetIncomingCitations(ctx context.Context, id string) ([]model.CitationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CitationEdge(nil), s.incoming[id]...), nil
}

func (s *MemStore) FindByReporterCite(ctx context.Context, volume int, reporter string, page int) ([]model.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []model.Opinion
	for id, cites := range s.cites {
		for _, c := range cites {
			if c.Volume == volume && c.Reporter == reporter && c.Page == page {
				matches = append(matches, s.opinions[id])
				break
			}
		}
	}
	sortOpinions(matches)
	return matches, nil
}

func (s *MemStore) FindByCaseName(ctx context.Context, term string, from, to time.Time) ([]model.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	var matches []model.Opinion
	for _, op := range s.opinions {
		if !strings.Contains(strings.ToLower(op.CaseName), needle) {
			continue
		}
		if !from.IsZero() && op.DateFiled.Before(from) {
			continue
		}
		if !to.IsZero() && op.DateFiled.After(to) {
			continue
		}
		matches = append(matches, op)
	}
	sortOpinions(matches)
	return matches, nil
}

func (s *MemStore) Close(ctx context.Context) error {
	return nil
}

// sortOpinions orders by most recently filed, then id, matching the
// Neo4j query ordering so resolver tie-breaks behave identically.
func sortOpinions(ops []model.Opinion) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].DateFiled.Equal(ops[j].DateFiled) {
			return ops[i].DateFiled.After(ops[j].DateFiled)
		}
		return ops[i].ID < ops[j].ID
	})
}
