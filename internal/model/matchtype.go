package model

// MatchType describes the strength/kind of an entity-to-entity link.
type MatchType string

const (
	AmbiguousMatch    MatchType = "AMBIGUOUS_MATCH"
	PossibleMatch     MatchType = "POSSIBLE_MATCH"
	PossibleRelation  MatchType = "POSSIBLE_RELATION"
	DisclosedRelation MatchType = "DISCLOSED_RELATION"
)

// DetectMatchType applies the flags-then-level cascade from the ER engine's
// RELATED_ENTITIES payload: ambiguous beats disclosed beats match-level,
// defaulting to a possible relation.
func DetectMatchType(isAmbiguous, isDisclosed bool, matchLevel int) MatchType {
	switch {
	case isAmbiguous:
		return AmbiguousMatch
	case isDisclosed:
		return DisclosedRelation
	case matchLevel == 2:
		return PossibleMatch
	default:
		return PossibleRelation
	}
}
