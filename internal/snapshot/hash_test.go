package snapshot

import (
	"testing"

	"github.com/senzing-garage/data-mart-replicator/internal/model"
)

func TestEncodeDecodeResolvedEntityRoundTrip(t *testing.T) {
	resolved := model.NewResolvedEntity(
		model.NewEntity(1, "Alice", []model.Record{
			model.NewRecord("FOO", "1", "NAME+DOB", "CNAME_CFF_EXACT"),
			model.NewRecord("FOO", "2", "NAME", "CNAME"),
		}),
		[]model.RelatedEntity{
			model.NewRelatedEntity(model.NewEntity(2, "", []model.Record{
				model.NewRecord("BAR", "9", "", ""),
			}), 1, model.PossibleRelation, "PHONE", "SF1"),
		},
	)

	hash, err := Encode(resolved.ToSnapshot())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}

	var decoded model.ResolvedEntitySnapshot
	if err := Decode(hash, &decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := model.FromResolvedEntitySnapshot(decoded)

	if got.ID != resolved.ID || got.Name != resolved.Name {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, resolved)
	}
	if got.RecordCount() != resolved.RecordCount() {
		t.Fatalf("record count mismatch: got %d, want %d", got.RecordCount(), resolved.RecordCount())
	}
	if len(got.RelatedEntities) != 1 {
		t.Fatalf("expected 1 related entity, got %d", len(got.RelatedEntities))
	}
	if got.RelatedEntities[2].MatchKey != "PHONE" {
		t.Fatalf("related entity match key lost in round-trip: %+v", got.RelatedEntities[2])
	}
}

func TestEncodeDecodeRelationshipRoundTrip(t *testing.T) {
	rel := model.Relationship{
		Lo: 1, Hi: 2, MatchLevel: 1, MatchType: model.PossibleRelation,
		MatchKey: "ADDRESS+PHONE", Principle: "SF1",
		SourceSummaryLo: map[string]int{"FOO": 2},
		SourceSummaryHi: map[string]int{"BAR": 1},
	}

	hash, err := Encode(rel)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got model.Relationship
	if err := Decode(hash, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(rel) {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, rel)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if err := Decode("not valid base64!!", &struct{}{}); err == nil {
		t.Fatalf("expected error decoding garbage input")
	}
}
