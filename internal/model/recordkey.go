// Package model holds the entity / record / relationship types that make up
// the mart's in-memory view of resolved ER state.
package model

import "strings"

// RecordKey identifies a single source record by the data source that
// loaded it and the record's ID within that source. RecordKeys are
// totally ordered lexicographically, data source first.
type RecordKey struct {
	DataSource string
	RecordID   string
}

// Less reports whether k sorts before other: data source first, then
// record ID.
func (k RecordKey) Less(other RecordKey) bool {
	if k.DataSource != other.DataSource {
		return k.DataSource < other.DataSource
	}
	return k.RecordID < other.RecordID
}

// Record is a source record plus the optional match-key / principle that
// the ER engine attributed to it within its owning entity.
type Record struct {
	RecordKey
	MatchKey  string
	Principle string
}

// NewRecord builds a Record with matchKey/principle normalized: both are
// trimmed, and an empty result is stored as absent ("").
func NewRecord(dataSource, recordID, matchKey, principle string) Record {
	return Record{
		RecordKey: RecordKey{DataSource: dataSource, RecordID: recordID},
		MatchKey:  strings.TrimSpace(matchKey),
		Principle: strings.TrimSpace(principle),
	}
}

// HasMatchKey reports whether the record carries a non-empty match key.
func (r Record) HasMatchKey() bool { return r.MatchKey != "" }

// HasPrinciple reports whether the record carries a non-empty principle.
func (r Record) HasPrinciple() bool { return r.Principle != "" }
