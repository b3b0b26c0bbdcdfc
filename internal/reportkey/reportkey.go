// Package reportkey implements the ReportCode/ReportStatistic/ReportKey
// data model and its URL-safe, percent-encoded canonical text form.
package reportkey

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Code identifies which family of aggregate report a ReportKey belongs to.
type Code string

const (
	// DataSourceSummary is the per-data-source totals report.
	DataSourceSummary Code = "DSS"
	// CrossSourceSummary is the cross-source matched/ambiguous/possible
	// report.
	CrossSourceSummary Code = "CSS"
	// EntitySizeBreakdown is the entity-size histogram report.
	EntitySizeBreakdown Code = "ESB"
	// EntityRelationBreakdown is the entity-relations histogram report.
	EntityRelationBreakdown Code = "ERB"
)

var validCodes = map[Code]bool{
	DataSourceSummary:       true,
	CrossSourceSummary:      true,
	EntitySizeBreakdown:     true,
	EntityRelationBreakdown: true,
}

// Statistic base tags, before optional (principle, matchKey) qualification.
const (
	EntityCount            = "ENTITY_COUNT"
	RecordCount             = "RECORD_COUNT"
	UnmatchedCount          = "UNMATCHED_COUNT"
	MatchedCount            = "MATCHED_COUNT"
	AmbiguousMatchCount     = "AMBIGUOUS_MATCH_COUNT"
	PossibleMatchCount      = "POSSIBLE_MATCH_COUNT"
	PossibleRelationCount   = "POSSIBLE_RELATION_COUNT"
	DisclosedRelationCount  = "DISCLOSED_RELATION_COUNT"
)

var upper = cases.Upper(language.Und)

// Statistic is a base statistic tag optionally qualified by a principle
// and/or match key: text form STAT[:principle[:matchKey]] with blank
// fields normalized to absent.
type Statistic struct {
	Base      string
	Principle string
	MatchKey  string
}

// NewStatistic builds a Statistic, normalizing the base tag to upper case
// and trimming/blank-to-absent on principle and match key.
func NewStatistic(base, principle, matchKey string) Statistic {
	return Statistic{
		Base:      upper.String(strings.TrimSpace(base)),
		Principle: strings.TrimSpace(principle),
		MatchKey:  strings.TrimSpace(matchKey),
	}
}

// String renders the statistic's canonical text form.
func (s Statistic) String() string {
	switch {
	case s.Principle == "" && s.MatchKey == "":
		return s.Base
	case s.MatchKey == "":
		return s.Base + ":" + s.Principle
	default:
		// A matchKey without a principle still needs the middle slot
		// represented; an empty principle segment is valid text.
		return s.Base + ":" + s.Principle + ":" + s.MatchKey
	}
}

// ParseStatistic parses a statistic's text form, the inverse of String.
func ParseStatistic(text string) (Statistic, error) {
	parts := strings.SplitN(text, ":", 3)
	st := Statistic{Base: upper.String(strings.TrimSpace(parts[0]))}
	if st.Base == "" {
		return Statistic{}, fmt.Errorf("reportkey: empty statistic base in %q", text)
	}
	if len(parts) > 1 {
		st.Principle = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		st.MatchKey = strings.TrimSpace(parts[2])
	}
	return st, nil
}

// Key is the structured address of a single aggregate counter:
// (code, statistic, dataSource1?, dataSource2?). DataSource2 may only be
// set when DataSource1 is.
type Key struct {
	Code        Code
	Statistic   Statistic
	DataSource1 string
	DataSource2 string
}

// New builds a Key, validating the code and the dataSource1/dataSource2
// dependency invariant.
func New(code Code, statistic Statistic, dataSource1, dataSource2 string) (Key, error) {
	if !validCodes[code] {
		return Key{}, fmt.Errorf("reportkey: unknown code %q", code)
	}
	if dataSource2 != "" && dataSource1 == "" {
		return Key{}, fmt.Errorf("reportkey: dataSource2 %q given without dataSource1", dataSource2)
	}
	return Key{Code: code, Statistic: statistic, DataSource1: dataSource1, DataSource2: dataSource2}, nil
}

// String renders the key's canonical text form:
// code:urlenc(statistic)[:urlenc(ds1)[:urlenc(ds2)]].
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Code))
	b.WriteByte(':')
	b.WriteString(url.QueryEscape(k.Statistic.String()))
	if k.DataSource1 != "" {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(k.DataSource1))
		if k.DataSource2 != "" {
			b.WriteByte(':')
			b.WriteString(url.QueryEscape(k.DataSource2))
		}
	}
	return b.String()
}

// Parse parses a key's canonical text form. It is a total inverse of
// String: Parse(k.String()) == k for every valid Key.
func Parse(text string) (Key, error) {
	tokens := strings.Split(text, ":")
	if len(tokens) < 2 || len(tokens) > 4 {
		return Key{}, fmt.Errorf("reportkey: expected 2-4 colon-separated tokens, got %d in %q", len(tokens), text)
	}

	code := Code(tokens[0])
	if !validCodes[code] {
		return Key{}, fmt.Errorf("reportkey: unknown code %q", tokens[0])
	}

	statText, err := url.QueryUnescape(tokens[1])
	if err != nil {
		return Key{}, fmt.Errorf("reportkey: bad statistic encoding in %q: %w", text, err)
	}
	stat, err := ParseStatistic(statText)
	if err != nil {
		return Key{}, err
	}

	var ds1, ds2 string
	if len(tokens) > 2 {
		ds1, err = url.QueryUnescape(tokens[2])
		if err != nil {
			return Key{}, fmt.Errorf("reportkey: bad dataSource1 encoding in %q: %w", text, err)
		}
	}
	if len(tokens) > 3 {
		ds2, err = url.QueryUnescape(tokens[3])
		if err != nil {
			return Key{}, fmt.Errorf("reportkey: bad dataSource2 encoding in %q: %w", text, err)
		}
	}

	return New(code, stat, ds1, ds2)
}
