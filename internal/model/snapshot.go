package model

// The wire/snapshot DTOs below exist because RecordKey, used as a map key
// in Entity.Records, cannot round-trip through encoding/json (struct map
// keys aren't supported). Snapshotting flattens the map to a slice; the
// derived SourceSummary is recomputed by NewEntity on decode rather than
// trusted from the wire, so it can never drift from the record set it was
// supposed to summarize.

// EntitySnapshot is the JSON-serializable form of an Entity.
type EntitySnapshot struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name,omitempty"`
	Records []Record `json:"records"`
}

// ToSnapshot flattens e into its wire form.
func (e Entity) ToSnapshot() EntitySnapshot {
	records := make([]Record, 0, len(e.Records))
	for _, r := range e.Records {
		records = append(records, r)
	}
	return EntitySnapshot{ID: e.ID, Name: e.Name, Records: records}
}

// FromEntitySnapshot rebuilds an Entity from its wire form, recomputing
// SourceSummary.
func FromEntitySnapshot(s EntitySnapshot) Entity {
	return NewEntity(s.ID, s.Name, s.Records)
}

// RelatedEntitySnapshot is the JSON-serializable form of a RelatedEntity.
type RelatedEntitySnapshot struct {
	EntitySnapshot
	MatchLevel int       `json:"matchLevel,omitempty"`
	MatchType  MatchType `json:"matchType"`
	MatchKey   string    `json:"matchKey,omitempty"`
	Principle  string    `json:"principle,omitempty"`
}

// ToSnapshot flattens r into its wire form.
func (r RelatedEntity) ToSnapshot() RelatedEntitySnapshot {
	return RelatedEntitySnapshot{
		EntitySnapshot: r.Entity.ToSnapshot(),
		MatchLevel:     r.MatchLevel,
		MatchType:      r.MatchType,
		MatchKey:       r.MatchKey,
		Principle:      r.Principle,
	}
}

// FromRelatedEntitySnapshot rebuilds a RelatedEntity from its wire form.
func FromRelatedEntitySnapshot(s RelatedEntitySnapshot) RelatedEntity {
	return NewRelatedEntity(FromEntitySnapshot(s.EntitySnapshot), s.MatchLevel, s.MatchType, s.MatchKey, s.Principle)
}

// ResolvedEntitySnapshot is the JSON-serializable form of a ResolvedEntity
// — the value persisted (compressed) as an entity row's snapshot hash.
type ResolvedEntitySnapshot struct {
	EntitySnapshot
	RelatedEntities []RelatedEntitySnapshot `json:"relatedEntities,omitempty"`
}

// ToSnapshot flattens r into its wire form.
func (r ResolvedEntity) ToSnapshot() ResolvedEntitySnapshot {
	related := make([]RelatedEntitySnapshot, 0, len(r.RelatedEntities))
	for _, re := range r.RelatedEntities {
		related = append(related, re.ToSnapshot())
	}
	return ResolvedEntitySnapshot{EntitySnapshot: r.Entity.ToSnapshot(), RelatedEntities: related}
}

// FromResolvedEntitySnapshot rebuilds a ResolvedEntity from its wire form.
func FromResolvedEntitySnapshot(s ResolvedEntitySnapshot) ResolvedEntity {
	related := make([]RelatedEntity, 0, len(s.RelatedEntities))
	for _, re := range s.RelatedEntities {
		related = append(related, FromRelatedEntitySnapshot(re))
	}
	return NewResolvedEntity(FromEntitySnapshot(s.EntitySnapshot), related)
}
