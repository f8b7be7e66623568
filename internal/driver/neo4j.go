package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lexatlas/citegraph/internal/core/model"
)

const dateLayout = "2006-01-02"

// Neo4jStore is a GraphStore backed by a Neo4j or Memgraph instance over
// bolt. All operations are reads; the engine never mutates the graph.
type Neo4jStore struct {
	Driver neo4j.DriverWithContext

	// FuzzyFetchLimit caps case-name candidate fetches.
	FuzzyFetchLimit int
}

func NewNeo4jStore(uri, username, password string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	log.Println("Connected to graph store")
	return &Neo4jStore{Driver: driver, FuzzyFetchLimit: 25}, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.Driver.Close(ctx)
}

func (s *Neo4jStore) executeQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return *result, nil
}

// BuildIndices creates the lookup indices the resolver and traversal
// queries rely on. Safe to call repeatedly.
func (s *Neo4jStore) BuildIndices(ctx context.Context) error {
	for _, q := range BuildIndexQueries {
		if _, err := s.executeQuery(ctx, q, nil); err != nil {
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}
	return nil
}

func (s *Neo4jStore) GetOpinion(ctx context.Context, id string) (*model.Opinion, error) {
	result, err := s.executeQuery(ctx, GetOpinionQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("opinion %s: %w", id, model.ErrNotFound)
	}

	op, err := opinionFromRecord(result.Records[0])
	if err != nil {
		return nil, err
	}

	holdings, err := s.executeQuery(ctx, GetHoldingsQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	for _, rec := range holdings.Records {
		text, _ := rec.Get("text")
		confidence, _ := rec.Get("confidence")
		op.Holdings = append(op.Holdings, model.Holding{
			Text:       asString(text),
			Confidence: asFloat(confidence),
		})
	}

	return op, nil
}

func (s *Neo4jStore) GetOutgoingCitations(ctx context.Context, id string) ([]model.CitationEdge, error) {
	return s.citations(ctx, GetOutgoingCitationsQuery, id)
}

func (s *Neo4jStore) GetIncomingCitations(ctx context.Context, id string) ([]model.CitationEdge, error) {
	return s.citations(ctx, GetIncomingCitationsQuery, id)
}

func (s *Neo4jStore) citations(ctx context.Context, query, id string) ([]model.CitationEdge, error) {
	result, err := s.executeQuery(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}

	edges := make([]model.CitationEdge, 0, len(result.Records))
	for _, rec := range result.Records {
		source, _ := rec.Get("source_id")
		target, _ := rec.Get("target_id")
		citeType, _ := rec.Get("type")
		context, _ := rec.Get("context")
		confidence, _ := rec.Get("confidence")

		edges = append(edges, model.CitationEdge{
			SourceID:   asString(source),
			TargetID:   asString(target),
			Type:       model.CitationType(asString(citeType)),
			Context:    asString(context),
			Confidence: asFloat(confidence),
		})
	}
	return edges, nil
}

func (s *Neo4jStore) FindByReporterCite(ctx context.Context, volume int, reporter string, page int) ([]model.Opinion, error) {
	result, err := s.executeQuery(ctx, FindByReporterCiteQuery, map[string]interface{}{
		"volume":   volume,
		"reporter": reporter,
		"page":     page,
	})
	if err != nil {
		return nil, err
	}
	return opinionsFromRecords(result.Records)
}

func (s *Neo4jStore) FindByCaseName(ctx context.Context, term string, from, to time.Time) ([]model.Opinion, error) {
	fromStr, toStr := "", ""
	if !from.IsZero() {
		fromStr = from.Format(dateLayout)
	}
	if !to.IsZero() {
		toStr = to.Format(dateLayout)
	}

	limit := s.FuzzyFetchLimit
	if limit <= 0 {
		limit = 25
	}

	result, err := s.executeQuery(ctx, FindByCaseNameQuery, map[string]interface{}{
		"term":  term,
		"from":  fromStr,
		"to":    toStr,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	return opinionsFromRecords(result.Records)
}

func opinionsFromRecords(records []*neo4j.Record) ([]model.Opinion, error) {
	opinions := make([]model.Opinion, 0, len(records))
	for _, rec := range records {
		op, err := opinionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		opinions = append(opinions, *op)
	}
	return opinions, nil
}

func opinionFromRecord(rec *neo4j.Record) (*model.Opinion, error) {
	id, _ := rec.Get("id")
	caseName, _ := rec.Get("case_name")
	courtID, _ := rec.Get("court_id")
	courtLevel, _ := rec.Get("court_level")
	dateFiled, _ := rec.Get("date_filed")
	disposition, _ := rec.Get("disposition")
	topics, _ := rec.Get("legal_topics")
	inDegree, _ := rec.Get("in_degree")

	filed, err := time.Parse(dateLayout, asString(dateFiled))
	if err != nil {
		return nil, fmt.Errorf("opinion %v: bad date_filed %q", id, dateFiled)
	}

	return &model.Opinion{
		ID:          asString(id),
		CaseName:    asString(caseName),
		CourtID:     asString(courtID),
		CourtLevel:  model.CourtLevel(asString(courtLevel)),
		DateFiled:   filed,
		Disposition: model.Disposition(asString(disposition)),
		LegalTopics: asStringSlice(topics),
		InDegree:    int(asInt(inDegree)),
	}, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
