package model

import "time"

// CourtLevel is the tier of the issuing court. The ordering is total and
// used directly by authority ranking: supreme > appellate > district.
type CourtLevel string

const (
	CourtSupreme   CourtLevel = "supreme"
	CourtAppellate CourtLevel = "appellate"
	CourtDistrict  CourtLevel = "district"
)

// Rank returns the position of the level in the court hierarchy.
// Higher is more authoritative. Unknown levels rank below district.
func (l CourtLevel) Rank() int {
	switch l {
	case CourtSupreme:
		return 3
	case CourtAppellate:
		return 2
	case CourtDistrict:
		return 1
	default:
		return 0
	}
}

// Disposition is how the court disposed of the case.
type Disposition string

const (
	DispositionAffirmed Disposition = "affirmed"
	DispositionReversed Disposition = "reversed"
	DispositionVacated  Disposition = "vacated"
	DispositionRemanded Disposition = "remanded"
	DispositionOther    Disposition = "other"
)

// CitationType is how a cited authority was used by the citing opinion.
type CitationType string

const (
	CitationFollows       CitationType = "follows"
	CitationDistinguishes CitationType = "distinguishes"
	CitationCriticizes    CitationType = "criticizes"
	CitationOverrules     CitationType = "overrules"
	CitationUnclear       CitationType = "unclear"
)

// Holding is a single extracted holding with the extraction confidence
// reported for it. Confidence is in [0,1].
type Holding struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Opinion is a court decision, the base node type of the citation graph.
// Opinions are immutable once extraction completes; InDegree is a derived
// aggregate recomputed by the ingestion side, never mutated here.
type Opinion struct {
	ID          string      `json:"id"`
	CaseName    string      `json:"case_name"`
	CourtID     string      `json:"court_id"`
	CourtLevel  CourtLevel  `json:"court_level"`
	DateFiled   time.Time   `json:"date_filed"`
	Holdings    []Holding   `json:"holdings,omitempty"`
	Disposition Disposition `json:"disposition"`
	LegalTopics []string    `json:"legal_topics,omitempty"`
	InDegree    int         `json:"in_degree"`
}
