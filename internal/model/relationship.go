package model

// Relationship is the canonical, normalized form of an entity-to-entity
// link: endpoints ordered lo < hi, with each side's source summary
// relabeled to match.
type Relationship struct {
	Lo               int64
	Hi               int64
	MatchLevel       int
	MatchType        MatchType
	MatchKey         string
	Principle        string
	SourceSummaryLo  map[string]int
	SourceSummaryHi  map[string]int
}

// NewRelationship builds the canonical Relationship for a (resolved,
// related) pair observed from one entity's point of view, flipping the
// endpoints and their source summaries as needed so Lo < Hi always holds.
// related.MatchLevel is carried through for storage/debugging.
func NewRelationship(resolved ResolvedEntity, related RelatedEntity) Relationship {
	if resolved.ID < related.ID {
		return Relationship{
			Lo:              resolved.ID,
			Hi:              related.ID,
			MatchLevel:      related.MatchLevel,
			MatchType:       related.MatchType,
			MatchKey:        related.MatchKey,
			Principle:       related.Principle,
			SourceSummaryLo: resolved.SourceSummary,
			SourceSummaryHi: related.SourceSummary,
		}
	}
	return Relationship{
		Lo:              related.ID,
		Hi:              resolved.ID,
		MatchLevel:      related.MatchLevel,
		MatchType:       related.MatchType,
		MatchKey:        related.MatchKey,
		Principle:       related.Principle,
		SourceSummaryLo: related.SourceSummary,
		SourceSummaryHi: resolved.SourceSummary,
	}
}

// Valid reports whether the relationship's endpoints are correctly
// normalized (the one invariant every stored relationship must satisfy).
func (r Relationship) Valid() bool { return r.Lo < r.Hi }

// Equal reports whether two relationships match on every field, including
// both source summaries — the equality used to decide "modified" in the
// entity snapshot diff.
func (r Relationship) Equal(other Relationship) bool {
	if r.Lo != other.Lo || r.Hi != other.Hi || r.MatchLevel != other.MatchLevel ||
		r.MatchType != other.MatchType || r.MatchKey != other.MatchKey ||
		r.Principle != other.Principle {
		return false
	}
	return intMapEqual(r.SourceSummaryLo, other.SourceSummaryLo) &&
		intMapEqual(r.SourceSummaryHi, other.SourceSummaryHi)
}

func intMapEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// LoContributesTo reports whether the Lo side of the relationship has at
// least one record from dataSource.
func (r Relationship) LoContributesTo(dataSource string) bool {
	return r.SourceSummaryLo[dataSource] > 0
}

func (r Relationship) HiContributesTo(dataSource string) bool {
	return r.SourceSummaryHi[dataSource] > 0
}
