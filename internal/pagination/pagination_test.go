package pagination

import (
	"errors"
	"math"
	"testing"

	"github.com/senzing-garage/data-mart-replicator/internal/errs"
)

func TestParseEntityBoundMaxSentinel(t *testing.T) {
	got, err := ParseEntityBound("max", InclusiveUpper)
	if err != nil {
		t.Fatalf("ParseEntityBound: %v", err)
	}
	if got != math.MaxInt64 {
		t.Fatalf("ParseEntityBound(max) = %d, want MaxInt64", got)
	}
}

func TestParseEntityBoundNullDefaults(t *testing.T) {
	lower, err := ParseEntityBound("", InclusiveLower)
	if err != nil || lower != 0 {
		t.Fatalf("null lower bound = %d, %v; want 0, nil", lower, err)
	}
	upper, err := ParseEntityBound("", InclusiveUpper)
	if err != nil || upper != math.MaxInt64 {
		t.Fatalf("null upper bound = %d, %v; want MaxInt64, nil", upper, err)
	}
}

func TestParseEntityBoundRejectsNonInteger(t *testing.T) {
	_, err := ParseEntityBound("not-a-number", InclusiveLower)
	if !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput, got %v", err)
	}
}

func TestParseEntityBoundParsesInteger(t *testing.T) {
	got, err := ParseEntityBound("42", InclusiveLower)
	if err != nil || got != 42 {
		t.Fatalf("ParseEntityBound(42) = %d, %v", got, err)
	}
}

func TestParseRelationBoundMaxSentinel(t *testing.T) {
	got, err := ParseRelationBound("max:max", InclusiveUpper)
	if err != nil {
		t.Fatalf("ParseRelationBound: %v", err)
	}
	if got != (RelationBound{math.MaxInt64, math.MaxInt64}) {
		t.Fatalf("ParseRelationBound(max:max) = %+v", got)
	}
}

func TestParseRelationBoundNullDefaults(t *testing.T) {
	lower, err := ParseRelationBound("", InclusiveLower)
	if err != nil || lower != (RelationBound{0, 0}) {
		t.Fatalf("null lower relation bound = %+v, %v", lower, err)
	}
}

func TestParseRelationBoundRejectsMalformed(t *testing.T) {
	if _, err := ParseRelationBound("1", InclusiveLower); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput for single-token relation bound")
	}
	if _, err := ParseRelationBound("1:2:3", InclusiveLower); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput for 3-token relation bound")
	}
	if _, err := ParseRelationBound("a:b", InclusiveLower); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput for non-integer relation bound")
	}
}

func TestRelationBoundLess(t *testing.T) {
	a := RelationBound{Lo: 1, Hi: 5}
	b := RelationBound{Lo: 1, Hi: 6}
	c := RelationBound{Lo: 2, Hi: 0}
	if !a.Less(b) {
		t.Fatalf("expected %+v < %+v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %+v < %+v", b, c)
	}
}

func TestResolvePageSizeDefaults(t *testing.T) {
	size, err := (Request{}).ResolvePageSize()
	if err != nil || size != DefaultPageSize {
		t.Fatalf("ResolvePageSize() = %d, %v; want %d, nil", size, err, DefaultPageSize)
	}
}

func TestResolvePageSizeFromSampleSize(t *testing.T) {
	n := 3
	size, err := (Request{SampleSize: &n}).ResolvePageSize()
	if err != nil || size != SampleSizeMultiplier*n {
		t.Fatalf("ResolvePageSize() = %d, %v; want %d", size, err, SampleSizeMultiplier*n)
	}
}

func TestResolvePageSizeRejectsNegative(t *testing.T) {
	if _, err := (Request{PageSize: -1}).ResolvePageSize(); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput for negative pageSize")
	}
	n := -1
	if _, err := (Request{SampleSize: &n}).ResolvePageSize(); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput for negative sampleSize")
	}
}

func TestResolvePageSizeRejectsSampleNotSmallerThanPage(t *testing.T) {
	n := 10
	if _, err := (Request{PageSize: 10, SampleSize: &n}).ResolvePageSize(); !errors.Is(err, errs.MalformedInput) {
		t.Fatalf("expected MalformedInput when sampleSize >= pageSize")
	}
}

func firstNSampler(window []int64, n int) []int64 {
	if n > len(window) {
		n = len(window)
	}
	return append([]int64(nil), window[:n]...)
}

// TestAssembleEntityPageInvariant6 checks §8 invariant 6: for an
// unsampled page, beforePageCount + |items| + afterPageCount = totalCount
// and items are ascending.
func TestAssembleEntityPageInvariant6(t *testing.T) {
	universe := make([]int64, 17)
	for i := range universe {
		universe[i] = int64(i + 1)
	}
	req := Request{Bound: "0", BoundType: InclusiveLower, PageSize: 5}
	window := universe[0:5]
	before := int64(0)
	after := int64(len(universe) - 5)
	total := int64(len(universe))
	min, max := universe[0], universe[len(universe)-1]

	page := AssembleEntityPage(req, window, total, before, after, &min, &max, firstNSampler)

	if got := page.BeforePageCount + int64(len(page.Items)) + page.AfterPageCount; got != page.TotalCount {
		t.Fatalf("invariant 6 violated: before(%d)+items(%d)+after(%d) != total(%d)",
			page.BeforePageCount, len(page.Items), page.AfterPageCount, page.TotalCount)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i-1] >= page.Items[i] {
			t.Fatalf("items not strictly ascending: %+v", page.Items)
		}
	}
	if page.PageMin != 1 || page.PageMax != 5 {
		t.Fatalf("pageMin/pageMax = %d/%d, want 1/5", page.PageMin, page.PageMax)
	}
}

// TestAssembleEntityPageInvariant7 checks §8 invariant 7: for a sampled
// page, |items| <= sampleSize, every item drawn from the window, and
// pageMin/pageMax stay within the unsampled window's bounds.
func TestAssembleEntityPageInvariant7(t *testing.T) {
	window := []int64{10, 11, 12, 13, 14}
	sampleSize := 3
	req := Request{Bound: "10", BoundType: InclusiveLower, PageSize: 5, SampleSize: &sampleSize}

	page := AssembleEntityPage(req, window, 20, 10, 5, nil, nil, firstNSampler)

	if len(page.Items) > sampleSize {
		t.Fatalf("expected at most %d items, got %d", sampleSize, len(page.Items))
	}
	inWindow := map[int64]bool{}
	for _, v := range window {
		inWindow[v] = true
	}
	for _, v := range page.Items {
		if !inWindow[v] {
			t.Fatalf("sampled item %d not drawn from window %+v", v, window)
		}
	}
	if page.PageMin < window[0] || page.PageMax > window[len(window)-1] {
		t.Fatalf("pageMin/pageMax outside window: %d/%d not within [%d,%d]",
			page.PageMin, page.PageMax, window[0], window[len(window)-1])
	}
	if page.OverallMin != nil || page.OverallMax != nil {
		t.Fatalf("expected overallMin/overallMax omitted for sampled page")
	}
}

func TestAssembleEntityPageEmptyWindow(t *testing.T) {
	req := Request{Bound: "1000", BoundType: InclusiveLower, PageSize: 5}
	page := AssembleEntityPage(req, nil, 0, 0, 0, nil, nil, firstNSampler)
	if len(page.Items) != 0 {
		t.Fatalf("expected no items, got %+v", page.Items)
	}
	if page.PageMin != 0 || page.PageMax != 0 {
		t.Fatalf("expected zero-value pageMin/pageMax for empty window, got %d/%d", page.PageMin, page.PageMax)
	}
}
