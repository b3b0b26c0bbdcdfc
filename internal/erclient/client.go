// Package erclient defines the boundary contract for the ER engine: an
// opaque external collaborator exposing GetEntity (and, for other
// operations, GetFeatures — out of this module's scope). The engine's
// wire format is decoded here; everything past this package speaks
// model.ResolvedEntity.
package erclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senzing-garage/data-mart-replicator/internal/model"
)

// Client is the ER engine surface the mart consumes.
type Client interface {
	// GetEntity returns the current resolved entity for id. ok is false
	// when the engine reports the entity no longer exists (the entity was
	// removed and any stored state for it should be torn down).
	GetEntity(ctx context.Context, id int64) (entity model.ResolvedEntity, ok bool, err error)
}

// wireRecord mirrors one element of RESOLVED_ENTITY.RECORDS.
type wireRecord struct {
	DataSource string `json:"DATA_SOURCE"`
	RecordID   string `json:"RECORD_ID"`
	MatchKey   string `json:"MATCH_KEY"`
	ErruleCode string `json:"ERRULE_CODE"`
}

// wireRecordSummaryEntry mirrors one element of RELATED_ENTITIES[].RECORD_SUMMARY.
type wireRecordSummaryEntry struct {
	DataSource  string `json:"DATA_SOURCE"`
	RecordCount int    `json:"RECORD_COUNT"`
}

// wireRelatedEntity mirrors one element of RESOLVED_ENTITY.RELATED_ENTITIES.
type wireRelatedEntity struct {
	EntityID      int64                    `json:"ENTITY_ID"`
	MatchLevel    int                      `json:"MATCH_LEVEL"`
	MatchKey      string                   `json:"MATCH_KEY"`
	ErruleCode    string                   `json:"ERRULE_CODE"`
	IsAmbiguous   int                      `json:"IS_AMBIGUOUS"`
	IsDisclosed   int                      `json:"IS_DISCLOSED"`
	RecordSummary []wireRecordSummaryEntry `json:"RECORD_SUMMARY"`
}

// wireResolvedEntity mirrors the RESOLVED_ENTITY object.
type wireResolvedEntity struct {
	EntityID        int64               `json:"ENTITY_ID"`
	EntityName      string              `json:"ENTITY_NAME"`
	Records         []wireRecord        `json:"RECORDS"`
	RelatedEntities []wireRelatedEntity `json:"RELATED_ENTITIES"`
}

// wireEnvelope mirrors the top-level GetEntity response.
type wireEnvelope struct {
	ResolvedEntity wireResolvedEntity `json:"RESOLVED_ENTITY"`
}

// DecodeResolvedEntity parses the ER engine's getEntity JSON response body
// into a model.ResolvedEntity, applying the matchType detection cascade
// from §3 to each related entity.
func DecodeResolvedEntity(body []byte) (model.ResolvedEntity, error) {
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.ResolvedEntity{}, fmt.Errorf("erclient: decode envelope: %w", err)
	}
	we := env.ResolvedEntity

	records := make([]model.Record, 0, len(we.Records))
	for _, r := range we.Records {
		records = append(records, model.NewRecord(r.DataSource, r.RecordID, r.MatchKey, r.ErruleCode))
	}
	entity := model.NewEntity(we.EntityID, we.EntityName, records)

	related := make([]model.RelatedEntity, 0, len(we.RelatedEntities))
	for _, re := range we.RelatedEntities {
		relEntity := model.NewEntity(re.EntityID, "", recordsFromSummary(re.RecordSummary))
		matchType := model.DetectMatchType(re.IsAmbiguous == 1, re.IsDisclosed == 1, re.MatchLevel)
		related = append(related, model.NewRelatedEntity(relEntity, re.MatchLevel, matchType, re.MatchKey, re.ErruleCode))
	}

	return model.NewResolvedEntity(entity, related), nil
}

// recordsFromSummary synthesizes placeholder records from a per-source
// count summary for a related entity: the ER engine's RELATED_ENTITIES
// payload only reports counts, not individual records, so placeholder
// RecordKeys are minted (dataSource, "#N") purely so SourceSummary stays
// derived rather than a trusted, independently-stored field even for
// related entities.
func recordsFromSummary(entries []wireRecordSummaryEntry) []model.Record {
	var records []model.Record
	for _, s := range entries {
		for i := 0; i < s.RecordCount; i++ {
			records = append(records, model.Record{RecordKey: model.RecordKey{
				DataSource: s.DataSource, RecordID: fmt.Sprintf("#%d", i),
			}})
		}
	}
	return records
}

// ErrNotFound is an error value for an entity the engine has no record of.
// GetEntity does not return it: HTTPClient reports a missing entity as
// ok=false with a nil error.
var ErrNotFound = fmt.Errorf("erclient: entity not found")
