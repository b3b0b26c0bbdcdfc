package erclient

import (
	"testing"

	"github.com/senzing-garage/data-mart-replicator/internal/model"
)

const sampleResponse = `{
  "RESOLVED_ENTITY": {
    "ENTITY_ID": 1,
    "ENTITY_NAME": "Alice",
    "RECORDS": [
      {"DATA_SOURCE": "FOO", "RECORD_ID": "1", "MATCH_KEY": "NAME+DOB", "ERRULE_CODE": "CNAME_CFF_EXACT"},
      {"DATA_SOURCE": "FOO", "RECORD_ID": "2", "MATCH_KEY": "NAME", "ERRULE_CODE": "CNAME"}
    ],
    "RELATED_ENTITIES": [
      {
        "ENTITY_ID": 2,
        "MATCH_LEVEL": 3,
        "MATCH_KEY": "PHONE",
        "ERRULE_CODE": "SF1",
        "IS_AMBIGUOUS": 0,
        "IS_DISCLOSED": 0,
        "RECORD_SUMMARY": [{"DATA_SOURCE": "BAR", "RECORD_COUNT": 2}]
      }
    ]
  }
}`

func TestDecodeResolvedEntity(t *testing.T) {
	entity, err := DecodeResolvedEntity([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("DecodeResolvedEntity: %v", err)
	}
	if entity.ID != 1 || entity.Name != "Alice" {
		t.Fatalf("unexpected entity: %+v", entity)
	}
	if entity.RecordCount() != 2 {
		t.Fatalf("expected 2 records, got %d", entity.RecordCount())
	}
	related, ok := entity.RelatedEntities[2]
	if !ok {
		t.Fatalf("expected related entity 2")
	}
	if related.MatchType != model.PossibleRelation {
		t.Fatalf("expected PossibleRelation (level != 2, not ambiguous/disclosed), got %s", related.MatchType)
	}
	if related.SourceSummary["BAR"] != 2 {
		t.Fatalf("expected BAR summary of 2, got %d", related.SourceSummary["BAR"])
	}
}

func TestDecodeResolvedEntityDetectsAmbiguous(t *testing.T) {
	body := []byte(`{"RESOLVED_ENTITY":{"ENTITY_ID":1,"RECORDS":[],"RELATED_ENTITIES":[
		{"ENTITY_ID":2,"MATCH_LEVEL":2,"IS_AMBIGUOUS":1,"IS_DISCLOSED":0,"RECORD_SUMMARY":[]}
	]}}`)
	entity, err := DecodeResolvedEntity(body)
	if err != nil {
		t.Fatalf("DecodeResolvedEntity: %v", err)
	}
	if entity.RelatedEntities[2].MatchType != model.AmbiguousMatch {
		t.Fatalf("expected AmbiguousMatch, got %s", entity.RelatedEntities[2].MatchType)
	}
}
