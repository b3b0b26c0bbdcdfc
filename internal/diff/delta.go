package diff

import (
	"sort"
	"strconv"

	"github.com/senzing-garage/data-mart-replicator/internal/journal"
	"github.com/senzing-garage/data-mart-replicator/internal/matchkey"
	"github.com/senzing-garage/data-mart-replicator/internal/model"
	"github.com/senzing-garage/data-mart-replicator/internal/reportkey"
)

// DetailChange is one report_detail membership transition: Add inserts
// (report_key, entity_id, related_id), !Add deletes it. Derived from the
// journal updates a refresh produces, so pagination always has an
// entity/relation index to enumerate (§4.5).
type DetailChange struct {
	ReportKey string
	EntityID  int64
	RelatedID *int64
	Add       bool
}

// detailChangesFrom derives report_detail transitions from a batch of
// journal updates. EntityDelta and RelationDelta are always presence
// transitions (±1, never accumulating), so their sign alone says whether
// the (entity, related) pair just entered or left a report key's scope.
// RecordDelta is excluded: a DSS RECORD_COUNT update can carry any
// magnitude while the entity keeps contributing to the same data source
// (e.g. a second record arriving from a source already counted), so its
// sign doesn't mean "entered"/"left" — the co-occurring ENTITY_COUNT
// update for the same data source already carries that membership edge.
func detailChangesFrom(updates []journal.Update) []DetailChange {
	var out []DetailChange
	for _, u := range updates {
		key, err := reportkey.Parse(u.ReportKey)
		if err == nil && key.Statistic.Base == reportkey.RecordCount {
			continue
		}
		switch {
		case u.EntityDelta > 0, u.RelationDelta > 0:
			out = append(out, DetailChange{ReportKey: u.ReportKey, EntityID: u.EntityID, RelatedID: u.RelatedID, Add: true})
		case u.EntityDelta < 0, u.RelationDelta < 0:
			out = append(out, DetailChange{ReportKey: u.ReportKey, EntityID: u.EntityID, RelatedID: u.RelatedID, Add: false})
		}
	}
	return out
}

// ownStatUpdates computes the DSS/CSS deltas attributable to an entity's
// own records — per-source entity/record counts, single-record
// UNMATCHED_COUNT, and cross-source-pair MATCHED_COUNT — comparing prior
// to current. Either may be nil (absent before creation, or after removal).
func ownStatUpdates(entityID int64, prior, current *model.Entity) []journal.Update {
	var updates []journal.Update
	sources := unionSources(prior, current)

	for _, ds := range sources {
		pc, cc := countFor(prior, ds), countFor(current, ds)
		if delta := cc - pc; delta != 0 {
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(reportkey.DataSourceSummary, reportkey.RecordCount, "", "", ds, ""),
				EntityID:    entityID,
				RecordDelta: delta,
			})
		}
		if pContributes, cContributes := pc > 0, cc > 0; pContributes != cContributes {
			delta := -1
			if cContributes {
				delta = 1
			}
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(reportkey.DataSourceSummary, reportkey.EntityCount, "", "", ds, ""),
				EntityID:    entityID,
				EntityDelta: delta,
			})
		}
	}

	if priorSole, currentSole := soleSource(prior), soleSource(current); priorSole != currentSole {
		if priorSole != "" {
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(reportkey.DataSourceSummary, reportkey.UnmatchedCount, "", "", priorSole, ""),
				EntityID:    entityID,
				EntityDelta: -1,
			})
		}
		if currentSole != "" {
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(reportkey.DataSourceSummary, reportkey.UnmatchedCount, "", "", currentSole, ""),
				EntityID:    entityID,
				EntityDelta: 1,
			})
		}
	}

	for i, ds1 := range sources {
		for _, ds2 := range sources[i:] {
			pMatched, cMatched := pairMatched(prior, ds1, ds2), pairMatched(current, ds1, ds2)
			if pMatched == cMatched {
				continue
			}
			delta := -1
			if cMatched {
				delta = 1
			}
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(reportkey.CrossSourceSummary, reportkey.MatchedCount, "", "", ds1, ds2),
				EntityID:    entityID,
				EntityDelta: delta,
			})
		}
	}

	return updates
}

// relationshipCountDeltas computes the CSS deltas for one relationship
// coming into existence (sign=1), going out of existence (sign=-1), or
// being replaced wholesale (two calls: -1 against the old form, 1 against
// the new), qualified by the 4-tuple enumeration
// {(mk,p),(mk,ø),(ø,p),(ø,ø)} over the relationship's canonicalized match
// key and principle.
//
// ds1/ds2 are always the Lo side's and Hi side's contributing sources —
// derived from rel's own canonical form, never from which endpoint's
// refresh happens to be persisting it. A relationship is observed
// independently by both its endpoints' refreshes (§4.3's edge case); if
// ds1/ds2 were picked by "refreshing entity first", the two observations
// would build different report keys for the same physical relationship.
// Callers are responsible for calling this exactly once per actual
// create/remove/modify transition (diff.go's persistRelationships decides
// that from the persisted row's own prior state), so the same relationship
// never contributes twice to one counter regardless of arrival order.
func relationshipCountDeltas(rel model.Relationship, sign int) []journal.Update {
	base := statBaseForMatchType(rel.MatchType)
	if base == "" {
		return nil
	}
	canonicalMK := matchkey.Canonicalize(rel.MatchKey)
	qualifiers := [][2]string{
		{canonicalMK, rel.Principle},
		{canonicalMK, ""},
		{"", rel.Principle},
		{"", ""},
	}

	loSources := contributingSources(rel.SourceSummaryLo)
	if len(loSources) == 0 {
		loSources = []string{""}
	}
	hiSources := contributingSources(rel.SourceSummaryHi)
	if len(hiSources) == 0 {
		hiSources = []string{""}
	}

	var updates []journal.Update
	seen := make(map[string]bool)
	hi := rel.Hi
	for _, ds1 := range loSources {
		for _, ds2 := range hiSources {
			for _, q := range qualifiers {
				key := buildKey(reportkey.CrossSourceSummary, base, q[1], q[0], ds1, ds2)
				if seen[key] {
					continue
				}
				seen[key] = true
				updates = append(updates, journal.Update{
					ReportKey:     key,
					EntityID:      rel.Lo,
					RelatedID:     &hi,
					RelationDelta: sign,
				})
			}
		}
	}
	return updates
}

func statBaseForMatchType(mt model.MatchType) string {
	switch mt {
	case model.AmbiguousMatch:
		return reportkey.AmbiguousMatchCount
	case model.PossibleMatch:
		return reportkey.PossibleMatchCount
	case model.PossibleRelation:
		return reportkey.PossibleRelationCount
	case model.DisclosedRelation:
		return reportkey.DisclosedRelationCount
	default:
		return ""
	}
}

// sizeBreakdownUpdates computes the ESB deltas attributable to an
// entity's total record count moving between size buckets, per
// contributing data source.
func sizeBreakdownUpdates(entityID int64, prior, current *model.Entity) []journal.Update {
	return bucketDeltas(entityID, reportkey.EntitySizeBreakdown, prior, sizeOf(prior), current, sizeOf(current))
}

// relationBreakdownUpdates computes the ERB deltas attributable to an
// entity's total relation count moving between buckets, per contributing
// data source. The relation count lives on ResolvedEntity, not Entity, so
// it's passed in rather than derived from prior/current.
func relationBreakdownUpdates(entityID int64, prior, current *model.Entity, priorRelCount, currentRelCount int) []journal.Update {
	return bucketDeltas(entityID, reportkey.EntityRelationBreakdown, prior, priorRelCount, current, currentRelCount)
}

func sizeOf(e *model.Entity) int {
	if e == nil {
		return 0
	}
	return e.RecordCount()
}

// bucketDeltas emits -1/+1 histogram deltas for every data source the
// entity contributes to in prior or current, wherever its bucket changes.
// The bucket value has no data-source-pair shape of its own, so it's
// carried in the statistic's match-key slot (reusing ENTITY_COUNT as the
// base tag, the nearest existing fit) with the source in DataSource1,
// mirroring DSS's own per-source loop. prior/current nil means the entity
// didn't exist at that snapshot, so it contributes to no bucket there
// regardless of priorSize/currentSize.
func bucketDeltas(entityID int64, code reportkey.Code, prior *model.Entity, priorSize int, current *model.Entity, currentSize int) []journal.Update {
	set := make(map[string]bool)
	if prior != nil {
		for ds := range prior.SourceSummary {
			set[ds] = true
		}
	}
	if current != nil {
		for ds := range current.SourceSummary {
			set[ds] = true
		}
	}

	var updates []journal.Update
	for _, ds := range sortedKeys(set) {
		pIn := prior != nil && prior.ContributesTo(ds)
		cIn := current != nil && current.ContributesTo(ds)
		if pIn && cIn && priorSize == currentSize {
			continue
		}
		if pIn {
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(code, reportkey.EntityCount, "", strconv.Itoa(priorSize), ds, ""),
				EntityID:    entityID,
				EntityDelta: -1,
			})
		}
		if cIn {
			updates = append(updates, journal.Update{
				ReportKey:   buildKey(code, reportkey.EntityCount, "", strconv.Itoa(currentSize), ds, ""),
				EntityID:    entityID,
				EntityDelta: 1,
			})
		}
	}
	return updates
}

func buildKey(code reportkey.Code, base, principle, matchKey, ds1, ds2 string) string {
	return reportkey.Key{
		Code:        code,
		Statistic:   reportkey.NewStatistic(base, principle, matchKey),
		DataSource1: ds1,
		DataSource2: ds2,
	}.String()
}

func unionSources(a, b *model.Entity) []string {
	set := make(map[string]bool)
	for ds := range summaryOf(a) {
		set[ds] = true
	}
	for ds := range summaryOf(b) {
		set[ds] = true
	}
	return sortedKeys(set)
}

func summaryOf(e *model.Entity) map[string]int {
	if e == nil {
		return nil
	}
	return e.SourceSummary
}

func countFor(e *model.Entity, ds string) int {
	if e == nil {
		return 0
	}
	return e.SourceSummary[ds]
}

func soleSource(e *model.Entity) string {
	if e == nil || e.RecordCount() != 1 {
		return ""
	}
	for ds, c := range e.SourceSummary {
		if c == 1 {
			return ds
		}
	}
	return ""
}

func pairMatched(e *model.Entity, ds1, ds2 string) bool {
	if e == nil {
		return false
	}
	if ds1 == ds2 {
		return e.SourceSummary[ds1] >= 2
	}
	return e.SourceSummary[ds1] > 0 && e.SourceSummary[ds2] > 0
}

func contributingSources(summary map[string]int) []string {
	set := make(map[string]bool)
	for ds, c := range summary {
		if c > 0 {
			set[ds] = true
		}
	}
	return sortedKeys(set)
}

func unionRelatedIDs(a, b map[int64]model.RelatedEntity) []int64 {
	set := make(map[int64]bool)
	for id := range a {
		set[id] = true
	}
	for id := range b {
		set[id] = true
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
