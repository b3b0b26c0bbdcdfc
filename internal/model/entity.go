package model

import (
	"sort"
	"strings"
)

// Entity is the resolved ER engine's view of a single entity: an ID, an
// optional display name, the records it's made of, and a derived
// per-data-source record count.
type Entity struct {
	ID            int64
	Name          string
	Records       map[RecordKey]Record
	SourceSummary map[string]int
}

// NewEntity builds an Entity from its ID, name and records, deriving
// SourceSummary so the invariant SourceSummary[d] == count(records with
// DataSource == d) always holds. The source is never asked to trust a
// caller-supplied summary.
func NewEntity(id int64, name string, records []Record) Entity {
	recMap := make(map[RecordKey]Record, len(records))
	summary := make(map[string]int)
	for _, r := range records {
		recMap[r.RecordKey] = r
		summary[r.DataSource]++
	}
	return Entity{ID: id, Name: name, Records: recMap, SourceSummary: summary}
}

// RecordCount returns the number of records making up the entity.
func (e Entity) RecordCount() int { return len(e.Records) }

// ContributesTo reports whether the entity has at least one record from
// dataSource — the definition of "contributes to source d" from §4.3.
func (e Entity) ContributesTo(dataSource string) bool {
	return e.SourceSummary[dataSource] > 0
}

// SortedSources returns the entity's contributing data sources in sorted
// order, useful for deterministic iteration when building report updates.
func (e Entity) SortedSources() []string {
	out := make([]string, 0, len(e.SourceSummary))
	for ds := range e.SourceSummary {
		out = append(out, ds)
	}
	sort.Strings(out)
	return out
}

// RelatedEntity is an Entity observed as the far side of a relationship,
// tagged with the strength/kind of the link and the match-key/principle
// that produced it.
type RelatedEntity struct {
	Entity
	MatchLevel int
	MatchType  MatchType
	MatchKey   string
	Principle  string
}

// NewRelatedEntity builds a RelatedEntity, normalizing MatchKey/Principle
// the same way NewRecord does.
func NewRelatedEntity(e Entity, matchLevel int, matchType MatchType, matchKey, principle string) RelatedEntity {
	return RelatedEntity{
		Entity:     e,
		MatchLevel: matchLevel,
		MatchType:  matchType,
		MatchKey:   strings.TrimSpace(matchKey),
		Principle:  strings.TrimSpace(principle),
	}
}

// ResolvedEntity is the full authoritative state of an entity as returned
// by the ER engine: its own records plus every entity it relates to.
type ResolvedEntity struct {
	Entity
	RelatedEntities map[int64]RelatedEntity
}

// NewResolvedEntity builds a ResolvedEntity from an Entity and its related
// entities. A self-relation (an invariant violation the caller should
// treat as a Logic error, not silently coalesce) is kept in
// RelatedEntities rather than dropped — see SelfRelationID.
func NewResolvedEntity(e Entity, related []RelatedEntity) ResolvedEntity {
	m := make(map[int64]RelatedEntity, len(related))
	for _, r := range related {
		m[r.ID] = r
	}
	return ResolvedEntity{Entity: e, RelatedEntities: m}
}

// SelfRelationID reports an error-worthy condition: a related
// entity sharing this entity's own ID. Returns the offending ID, or -1
// if none.
func (r ResolvedEntity) SelfRelationID() int64 {
	if _, ok := r.RelatedEntities[r.ID]; ok {
		return r.ID
	}
	return -1
}

