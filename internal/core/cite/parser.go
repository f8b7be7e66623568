package cite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reporter abbreviations in regex-escaped form, ordered longest-first so
// "F." cannot match before "F.3d". Not exhaustive; covers the most
// commonly cited federal and state reporters.
var federalReporters = []string{
	`F\.\s*Supp\.\s*3d`,
	`F\.\s*Supp\.\s*2d`,
	`F\.\s*Supp\.`,
	`F\.\s*App(?:'|’)x`,
	`F\.4th`,
	`F\.3d`,
	`F\.2d`,
	`L\.\s*Ed\.\s*2d`,
	`S\.\s*Ct\.`,
	`U\.S\.`,
	`B\.R\.`,
}

var stateReporters = []string{
	`N\.Y\.S\.3d`,
	`N\.Y\.S\.2d`,
	`N\.Y\.3d`,
	`N\.Y\.2d`,
	`N\.Y\.`,
	`Cal\.\s*Rptr\.\s*3d`,
	`Cal\.\s*Rptr\.\s*2d`,
	`Cal\.\s*Rptr\.`,
	`Cal\.5th`,
	`Cal\.4th`,
	`Cal\.3d`,
	`Cal\.2d`,
	`Cal\.`,
	`Ill\.2d`,
	`Ill\.\s*App\.\s*3d`,
	`Ill\.\s*App\.\s*2d`,
	`Mass\.`,
	`Pa\.\s*Super\.`,
	`Pa\.`,
	`Ohio\s*St\.\s*3d`,
	`Ohio\s*St\.\s*2d`,
	`N\.J\.\s*Super\.`,
	`N\.J\.`,
	`A\.3d`,
	`A\.2d`,
	`N\.E\.3d`,
	`N\.E\.2d`,
	`N\.W\.2d`,
	`S\.E\.2d`,
	`S\.W\.3d`,
	`S\.W\.2d`,
	`P\.3d`,
	`P\.2d`,
	`So\.\s*3d`,
	`So\.\s*2d`,
}

var reporterAlternatives = strings.Join(append(append([]string{}, federalReporters...), stateReporters...), "|")

// Citation format: {volume} {reporter} {page}[, {pinpoint}] [({year})]
// Example: "554 U.S. 570, 573 (2008)"
var citationRE = regexp.MustCompile(
	`(?P<volume>\d{1,4})` +
		`\s+` +
		`(?P<reporter>` + reporterAlternatives + `)` +
		`\s+` +
		`(?P<page>\d{1,5})` +
		`(?:[,\s]+(?P<pinpoint>\d{1,5}))?` +
		`(?:\s*\((?P<year>\d{4})\))?`)

// ParsedCitation is the structured form of a legal citation.
type ParsedCitation struct {
	Volume   int
	Reporter string
	Page     int
	Pinpoint int // 0 when absent
	Year     int // 0 when absent
	Raw      string
	// Start is the offset of the match in the input, used to recover any
	// case-name text preceding the citation.
	Start int
}

// String renders the canonical citation. Round-tripping a resolved
// citation through String need not be byte-identical to the original
// input, but must resolve to the same opinion.
func (p ParsedCitation) String() string {
	s := fmt.Sprintf("%d %s %d", p.Volume, p.Reporter, p.Page)
	if p.Year > 0 {
		s += fmt.Sprintf(" (%d)", p.Year)
	}
	return s
}

// normalizeReporter collapses internal whitespace in a matched reporter
// abbreviation ("F. Supp.  2d" -> "F. Supp. 2d").
var spaceRE = regexp.MustCompile(`\s+`)

func normalizeReporter(reporter string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(reporter, " "))
}

// Parse extracts the first citation from text. The grammar is tolerant of
// whitespace and punctuation variance; ok is false when no reporter
// citation is present at all.
func Parse(text string) (ParsedCitation, bool) {
	loc := citationRE.FindStringSubmatchIndex(text)
	if loc == nil {
		return ParsedCitation{}, false
	}
	return fromMatch(text, loc), true
}

// ExtractCitations finds every citation in a block of text,
// de-duplicated by (volume, reporter, page).
func ExtractCitations(text string) []ParsedCitation {
	var results []ParsedCitation
	seen := make(map[string]bool)

	for _, loc := range citationRE.FindAllStringSubmatchIndex(text, -1) {
		parsed := fromMatch(text, loc)
		key := fmt.Sprintf("%d|%s|%d", parsed.Volume, parsed.Reporter, parsed.Page)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, parsed)
	}
	return results
}

func fromMatch(text string, loc []int) ParsedCitation {
	group := func(name string) string {
		i := citationRE.SubexpIndex(name)
		if i < 0 || loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	return ParsedCitation{
		Volume:   atoi(group("volume")),
		Reporter: normalizeReporter(group("reporter")),
		Page:     atoi(group("page")),
		Pinpoint: atoi(group("pinpoint")),
		Year:     atoi(group("year")),
		Raw:      strings.TrimSpace(text[loc[0]:loc[1]]),
		Start:    loc[0],
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
