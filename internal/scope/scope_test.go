package scope

import (
	"reflect"
	"sort"
	"testing"
)

func TestSelectSourcesAllButDefaultExcludesTemplates(t *testing.T) {
	configured := []string{"FOO", "BAR", TestDataSource, SearchDataSource}
	got := selectSources(AllButDefault, configured, nil, nil)
	sort.Strings(got)
	want := []string{"BAR", "FOO"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectSources(AllButDefault) = %+v, want %+v", got, want)
	}
}

func TestSelectSourcesAllWithDefaultIncludesTemplates(t *testing.T) {
	configured := []string{"FOO", TestDataSource}
	got := selectSources(AllWithDefault, configured, nil, nil)
	sort.Strings(got)
	want := []string{"FOO", TestDataSource}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectSources(AllWithDefault) = %+v, want %+v", got, want)
	}
}

func TestSelectSourcesLoadedUsesOnlyLoadedSources(t *testing.T) {
	configured := []string{"FOO", "BAR"}
	loaded := []string{"FOO"}
	got := selectSources(Loaded, configured, loaded, nil)
	want := []string{"FOO"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectSources(Loaded) = %+v, want %+v", got, want)
	}
}

func TestSelectSourcesAlwaysIncludesExtra(t *testing.T) {
	got := selectSources(Loaded, nil, nil, []string{"ZOO"})
	want := []string{"ZOO"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectSources with extra = %+v, want %+v", got, want)
	}
}

func TestSelectSourcesDeduplicates(t *testing.T) {
	got := selectSources(AllWithDefault, []string{"FOO"}, nil, []string{"FOO"})
	if len(got) != 1 {
		t.Fatalf("expected deduplication, got %+v", got)
	}
}
