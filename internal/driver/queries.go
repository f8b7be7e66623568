package driver

const (
	GetOpinionQuery = `
		MATCH (o:Opinion {id: $id})
		RETURN o.id AS id, o.case_name AS case_name, o.court_id AS court_id,
			o.court_level AS court_level, o.date_filed AS date_filed,
			o.disposition AS disposition, o.legal_topics AS legal_topics,
			o.in_degree AS in_degree
	`

	GetHoldingsQuery = `
		MATCH (o:Opinion {id: $id})-[:HAS_HOLDING]->(h:Holding)
		RETURN h.text AS text, h.confidence AS confidence
		ORDER BY h.confidence DESC
	`

	GetOutgoingCitationsQuery = `
		MATCH (o:Opinion {id: $id})-[c:CITES]->(t:Opinion)
		RETURN o.id AS source_id, t.id AS target_id, c.type AS type,
			c.context AS context, c.confidence AS confidence
	`

	GetIncomingCitationsQuery = `
		MATCH (s:Opinion)-[c:CITES]->(o:Opinion {id: $id})
		RETURN s.id AS source_id, o.id AS target_id, c.type AS type,
			c.context AS context, c.confidence AS confidence
	`

	FindByReporterCiteQuery = `
		MATCH (o:Opinion)-[:REPORTED_IN]->(r:Reporter {volume: $volume, reporter: $reporter, page: $page})
		RETURN o.id AS id, o.case_name AS case_name, o.court_id AS court_id,
			o.court_level AS court_level, o.date_filed AS date_filed,
			o.disposition AS disposition, o.legal_topics AS legal_topics,
			o.in_degree AS in_degree
		ORDER BY o.date_filed DESC, o.id ASC
	`

	FindByCaseNameQuery = `
		MATCH (o:Opinion)
		WHERE toLower(o.case_name) CONTAINS toLower($term)
			AND ($from = "" OR o.date_filed >= $from)
			AND ($to = "" OR o.date_filed <= $to)
		RETURN o.id AS id, o.case_name AS case_name, o.court_id AS court_id,
			o.court_level AS court_level, o.date_filed AS date_filed,
			o.disposition AS disposition, o.legal_topics AS legal_topics,
			o.in_degree AS in_degree
		ORDER BY o.date_filed DESC, o.id ASC
		LIMIT $limit
	`
)

// BuildIndexQueries are run once at startup. Index creation is
// idempotent on Memgraph; failures are logged and skipped since the
// index may already exist.
var BuildIndexQueries = []string{
	"CREATE INDEX ON :Opinion(id);",
	"CREATE INDEX ON :Opinion(court_id);",
	"CREATE INDEX ON :Opinion(case_name);",
	"CREATE INDEX ON :Reporter(volume);",
	"CREATE INDEX ON :Reporter(reporter);",
}
