// Package scope implements data-source scope control (§4.6): ensuring a
// zero-valued report_counter row exists for every data source in scope,
// so report queries return zeros rather than nulls for sources that are
// configured but currently empty.
package scope

import (
	"context"
	"fmt"
	"sort"

	"github.com/senzing-garage/data-mart-replicator/internal/reportkey"
	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// Mode selects which data sources are in scope for materialization.
type Mode string

const (
	// Loaded includes only data sources with at least one loaded record.
	Loaded Mode = "LOADED"
	// AllButDefault includes every configured source minus the
	// well-known template defaults.
	AllButDefault Mode = "ALL_BUT_DEFAULT"
	// AllWithDefault includes every configured source, defaults included.
	AllWithDefault Mode = "ALL_WITH_DEFAULT"
)

// Default template data sources, excluded by AllButDefault.
const (
	TestDataSource   = "TEST"
	SearchDataSource = "SEARCH"
)

var defaultSources = map[string]bool{
	TestDataSource:   true,
	SearchDataSource: true,
}

// Scope materializes zero-valued report_counter rows for the data sources
// selected by mode, plus any caller-supplied extra sources.
type Scope struct {
	s store.DB
}

// New builds a Scope.
func New(s store.DB) *Scope { return &Scope{s: s} }

// Materialize ensures a zero-valued report_counter row exists for every
// data source selected by mode (plus extra), for each of the fixed
// statistic base tags that DSS reports over.
func (sc *Scope) Materialize(ctx context.Context, mode Mode, extra []string) error {
	configured, err := sc.configuredSources(ctx)
	if err != nil {
		return fmt.Errorf("scope: list configured sources: %w", err)
	}
	loaded, err := sc.loadedSources(ctx)
	if err != nil {
		return fmt.Errorf("scope: list loaded sources: %w", err)
	}

	sources := selectSources(mode, configured, loaded, extra)
	sort.Strings(sources)

	for _, ds := range sources {
		for _, base := range dssStatisticBases {
			key := reportkey.Key{
				Code:        reportkey.DataSourceSummary,
				Statistic:   reportkey.NewStatistic(base, "", ""),
				DataSource1: ds,
			}.String()
			if err := sc.materializeRow(ctx, key); err != nil {
				return err
			}
		}
	}

	// A configured-but-empty source pair still contributes zero rows to
	// every cross-source summary, not just the per-source DSS ones
	// (§4.6) — so every pair (ds1, ds2) from the same scoped source set
	// with ds1 sorting at or before ds2 (the same pairs ownStatUpdates
	// emits MATCHED_COUNT for) is materialized for CSS's unqualified
	// statistic too.
	for i, ds1 := range sources {
		for _, ds2 := range sources[i:] {
			key := reportkey.Key{
				Code:        reportkey.CrossSourceSummary,
				Statistic:   reportkey.NewStatistic(reportkey.MatchedCount, "", ""),
				DataSource1: ds1,
				DataSource2: ds2,
			}.String()
			if err := sc.materializeRow(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sc *Scope) materializeRow(ctx context.Context, key string) error {
	if _, err := sc.s.Pool().Exec(ctx, `
		INSERT INTO report_counter (report_key, entity_count, record_count, relation_count)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (report_key) DO NOTHING
	`, key); err != nil {
		return fmt.Errorf("scope: materialize %q: %w", key, err)
	}
	return nil
}

var dssStatisticBases = []string{
	reportkey.EntityCount,
	reportkey.RecordCount,
	reportkey.UnmatchedCount,
}

func selectSources(mode Mode, configured, loaded, extra []string) []string {
	set := make(map[string]bool)
	switch mode {
	case Loaded:
		for _, ds := range loaded {
			set[ds] = true
		}
	case AllButDefault:
		for _, ds := range configured {
			if !defaultSources[ds] {
				set[ds] = true
			}
		}
	case AllWithDefault:
		for _, ds := range configured {
			set[ds] = true
		}
	}
	for _, ds := range extra {
		set[ds] = true
	}
	out := make([]string, 0, len(set))
	for ds := range set {
		out = append(out, ds)
	}
	return out
}

func (sc *Scope) configuredSources(ctx context.Context) ([]string, error) {
	return sc.queryDistinctSources(ctx, `SELECT DISTINCT data_source FROM data_source_config`)
}

func (sc *Scope) loadedSources(ctx context.Context) ([]string, error) {
	return sc.queryDistinctSources(ctx, `SELECT DISTINCT data_source FROM record`)
}

func (sc *Scope) queryDistinctSources(ctx context.Context, sql string) ([]string, error) {
	rows, err := sc.s.Pool().Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ds string
		if err := rows.Scan(&ds); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}
