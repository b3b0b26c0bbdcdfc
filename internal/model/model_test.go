package model

import "testing"

func TestEntitySourceSummaryDerived(t *testing.T) {
	records := []Record{
		NewRecord("FOO", "1", "NAME+DOB", "CNAME_CFF_EXACT"),
		NewRecord("FOO", "2", "NAME", "CNAME"),
		NewRecord("BAR", "9", "", ""),
	}
	e := NewEntity(1, "Alice", records)

	if e.RecordCount() != 3 {
		t.Fatalf("RecordCount() = %d, want 3", e.RecordCount())
	}
	if e.SourceSummary["FOO"] != 2 {
		t.Fatalf("SourceSummary[FOO] = %d, want 2", e.SourceSummary["FOO"])
	}
	if e.SourceSummary["BAR"] != 1 {
		t.Fatalf("SourceSummary[BAR] = %d, want 1", e.SourceSummary["BAR"])
	}
	if !e.ContributesTo("FOO") || e.ContributesTo("BAZ") {
		t.Fatalf("ContributesTo mismatch")
	}
}

func TestRecordNormalizesBlankToAbsent(t *testing.T) {
	r := NewRecord("FOO", "1", "  ", "\t")
	if r.HasMatchKey() || r.HasPrinciple() {
		t.Fatalf("blank fields should normalize to absent, got %+v", r)
	}
	r2 := NewRecord("FOO", "1", "  NAME+DOB  ", " SF1 ")
	if r2.MatchKey != "NAME+DOB" || r2.Principle != "SF1" {
		t.Fatalf("trim failed: %+v", r2)
	}
}

func TestRecordKeyOrdering(t *testing.T) {
	a := RecordKey{DataSource: "FOO", RecordID: "1"}
	b := RecordKey{DataSource: "FOO", RecordID: "2"}
	c := RecordKey{DataSource: "ZOO", RecordID: "0"}

	if !a.Less(b) {
		t.Fatalf("expected %+v < %+v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %+v < %+v", b, c)
	}
	if c.Less(a) {
		t.Fatalf("expected %+v NOT < %+v", c, a)
	}
}

func TestResolvedEntitySelfRelationDetected(t *testing.T) {
	e := NewEntity(1, "", nil)
	self := NewRelatedEntity(NewEntity(1, "", nil), 1, PossibleRelation, "PHONE", "SF1")
	other := NewRelatedEntity(NewEntity(2, "", nil), 1, PossibleRelation, "PHONE", "SF1")

	withSelf := NewResolvedEntity(e, []RelatedEntity{self, other})
	if withSelf.SelfRelationID() != 1 {
		t.Fatalf("expected self-relation id 1, got %d", withSelf.SelfRelationID())
	}

	withoutSelf := NewResolvedEntity(e, []RelatedEntity{other})
	if withoutSelf.SelfRelationID() != -1 {
		t.Fatalf("expected no self-relation, got %d", withoutSelf.SelfRelationID())
	}
}

func TestDetectMatchType(t *testing.T) {
	cases := []struct {
		ambiguous, disclosed bool
		level                int
		want                 MatchType
	}{
		{true, true, 2, AmbiguousMatch},
		{false, true, 2, DisclosedRelation},
		{false, false, 2, PossibleMatch},
		{false, false, 1, PossibleRelation},
	}
	for _, c := range cases {
		got := DetectMatchType(c.ambiguous, c.disclosed, c.level)
		if got != c.want {
			t.Errorf("DetectMatchType(%v,%v,%d) = %s, want %s", c.ambiguous, c.disclosed, c.level, got, c.want)
		}
	}
}

func TestNewRelationshipNormalizesOrder(t *testing.T) {
	e1 := NewEntity(5, "", []Record{NewRecord("FOO", "1", "", "")})
	e2 := NewEntity(2, "", []Record{NewRecord("BAR", "1", "", "")})

	resolved := NewResolvedEntity(e1, nil)
	related := NewRelatedEntity(e2, 1, PossibleRelation, "PHONE", "SF1")

	rel := NewRelationship(resolved, related)
	if !rel.Valid() {
		t.Fatalf("expected Lo < Hi, got %+v", rel)
	}
	if rel.Lo != 2 || rel.Hi != 5 {
		t.Fatalf("expected (2,5), got (%d,%d)", rel.Lo, rel.Hi)
	}
	if rel.SourceSummaryLo["BAR"] != 1 || rel.SourceSummaryHi["FOO"] != 1 {
		t.Fatalf("source summaries not flipped correctly: %+v", rel)
	}
}

func TestRelationshipEqual(t *testing.T) {
	a := Relationship{Lo: 1, Hi: 2, MatchLevel: 1, MatchType: PossibleRelation, MatchKey: "PHONE", Principle: "SF1",
		SourceSummaryLo: map[string]int{"FOO": 1}, SourceSummaryHi: map[string]int{"BAR": 1}}
	b := a
	b.SourceSummaryHi = map[string]int{"BAR": 1}
	if !a.Equal(b) {
		t.Fatalf("expected equal relationships")
	}
	b.SourceSummaryHi = map[string]int{"BAR": 2}
	if a.Equal(b) {
		t.Fatalf("expected unequal relationships after summary change")
	}
}
