// Package storetest provides a hand-rolled in-memory store.DB fake, used
// to exercise the diff and pagination engines end to end without a live
// Postgres connection. No DB-mocking convention exists elsewhere in this
// module, so each query the engines issue is matched against its fixed
// SQL text rather than replayed against a real driver.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

type recordRow struct {
	EntityID  int64
	MatchKey  string
	Principle string
}

type reportUpdateRow struct {
	ReportKey                              string
	EntityID                               int64
	RelatedID                              *int64
	EntityDelta, RecordDelta, RelationDelta int
}

type detailKey struct {
	ReportKey  string
	EntityID   int64
	RelatedID  int64
	HasRelated bool
}

// Store is an in-memory store.DB: entity/record/relationship/report_detail
// tables held as plain maps, mutated by the same fixed SQL text the diff
// and pagination engines issue against a real Postgres database.
type Store struct {
	entities      map[int64]string
	records       map[string]recordRow
	relationships map[[2]int64]string
	reportDetails map[detailKey]bool
	reportUpdates []reportUpdateRow
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		entities:      make(map[int64]string),
		records:       make(map[string]recordRow),
		relationships: make(map[[2]int64]string),
		reportDetails: make(map[detailKey]bool),
	}
}

// Pool implements store.DB.
func (s *Store) Pool() store.Querier { return s }

// WithTx implements store.DB. The fake has no transaction isolation —
// every call runs directly against the shared maps — so it only models
// commit-on-success; it never needs to roll anything back.
func (s *Store) WithTx(ctx context.Context, fn store.TxFunc) error {
	return fn(ctx, s)
}

type tag struct{ n int64 }

func (t tag) RowsAffected() int64 { return t.n }

type row struct {
	vals []interface{}
	err  error
}

func (r row) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("storetest: scan arity mismatch: got %d dest, %d vals", len(dest), len(r.vals))
	}
	for i, d := range dest {
		if err := assign(d, r.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

type rows struct {
	data [][]interface{}
	idx  int
}

func (r *rows) Next() bool {
	r.idx++
	return r.idx <= len(r.data)
}

func (r *rows) Scan(dest ...interface{}) error {
	return row{vals: r.data[r.idx-1]}.Scan(dest...)
}

func (r *rows) Err() error { return nil }
func (r *rows) Close()     {}

func assign(dest interface{}, val interface{}) error {
	switch d := dest.(type) {
	case *int64:
		switch v := val.(type) {
		case int64:
			*d = v
			return nil
		case nil:
			*d = 0
			return nil
		}
	case **int64:
		switch v := val.(type) {
		case int64:
			n := v
			*d = &n
			return nil
		case nil:
			*d = nil
			return nil
		}
	case *string:
		switch v := val.(type) {
		case string:
			*d = v
			return nil
		case nil:
			*d = ""
			return nil
		}
	}
	return fmt.Errorf("storetest: cannot scan %T into %T", val, dest)
}

func optionalID(v interface{}) (int64, bool) {
	p, ok := v.(*int64)
	if !ok || p == nil {
		return 0, false
	}
	return *p, true
}

// Exec implements store.Querier, dispatching on the fixed SQL text the
// diff package and journal.Append issue. Statements it does not recognize
// (journal.Fold's and the scope package's among them) return an
// "unhandled Exec" error.
func (s *Store) Exec(ctx context.Context, sql string, args ...interface{}) (store.CommandTag, error) {
	switch {
	case strings.Contains(sql, "DELETE FROM record"):
		entityID := args[0].(int64)
		for k, r := range s.records {
			if r.EntityID == entityID {
				delete(s.records, k)
			}
		}
		return tag{1}, nil

	case strings.Contains(sql, "INSERT INTO record"):
		ds := args[0].(string)
		id := args[1].(string)
		entityID := args[2].(int64)
		matchKey, _ := args[3].(string)
		principle, _ := args[4].(string)
		s.records[ds+"\x00"+id] = recordRow{EntityID: entityID, MatchKey: matchKey, Principle: principle}
		return tag{1}, nil

	case strings.Contains(sql, "DELETE FROM entity"):
		entityID := args[0].(int64)
		delete(s.entities, entityID)
		return tag{1}, nil

	case strings.Contains(sql, "INSERT INTO entity"):
		entityID := args[0].(int64)
		hash, _ := args[2].(string)
		s.entities[entityID] = hash
		return tag{1}, nil

	case strings.Contains(sql, "DELETE FROM relationship"):
		lo := args[0].(int64)
		hi := args[1].(int64)
		delete(s.relationships, [2]int64{lo, hi})
		return tag{1}, nil

	case strings.Contains(sql, "INSERT INTO relationship"):
		lo := args[0].(int64)
		hi := args[1].(int64)
		hash, _ := args[7].(string)
		s.relationships[[2]int64{lo, hi}] = hash
		return tag{1}, nil

	case strings.Contains(sql, "INSERT INTO report_detail"):
		reportKey := args[0].(string)
		entityID := args[1].(int64)
		related, hasRelated := optionalID(args[2])
		s.reportDetails[detailKey{reportKey, entityID, related, hasRelated}] = true
		return tag{1}, nil

	case strings.Contains(sql, "DELETE FROM report_detail"):
		reportKey := args[0].(string)
		entityID := args[1].(int64)
		related, hasRelated := optionalID(args[2])
		delete(s.reportDetails, detailKey{reportKey, entityID, related, hasRelated})
		return tag{1}, nil

	case strings.Contains(sql, "INSERT INTO report_update"):
		var related *int64
		if v, ok := args[2].(*int64); ok {
			related = v
		}
		s.reportUpdates = append(s.reportUpdates, reportUpdateRow{
			ReportKey:     args[0].(string),
			EntityID:      args[1].(int64),
			RelatedID:     related,
			EntityDelta:   args[3].(int),
			RecordDelta:   args[4].(int),
			RelationDelta: args[5].(int),
		})
		return tag{1}, nil
	}
	return nil, fmt.Errorf("storetest: unhandled Exec: %s", sql)
}

// QueryRow implements store.Querier.
func (s *Store) QueryRow(ctx context.Context, sql string, args ...interface{}) store.Row {
	switch {
	case strings.Contains(sql, "SELECT hash FROM entity"):
		entityID := args[0].(int64)
		hash, ok := s.entities[entityID]
		if !ok {
			return row{err: pgx.ErrNoRows}
		}
		return row{vals: []interface{}{hash}}

	case strings.Contains(sql, "SELECT hash FROM relationship"):
		lo := args[0].(int64)
		hi := args[1].(int64)
		hash, ok := s.relationships[[2]int64{lo, hi}]
		if !ok {
			return row{err: pgx.ErrNoRows}
		}
		return row{vals: []interface{}{hash}}

	case strings.Contains(sql, "MIN(entity_id), MAX(entity_id)"):
		reportKey := args[0].(string)
		ids := s.matchingEntityIDs(reportKey, false, 0, "")
		if len(ids) == 0 {
			return row{vals: []interface{}{int64(0), nil, nil}}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return row{vals: []interface{}{int64(len(ids)), ids[0], ids[len(ids)-1]}}

	case strings.Contains(sql, "COUNT(*) FROM report_detail") && strings.Contains(sql, "related_id IS NULL"):
		reportKey := args[0].(string)
		bound := args[1].(int64)
		cmp := extractCmp(sql)
		ids := s.matchingEntityIDs(reportKey, true, bound, cmp)
		return row{vals: []interface{}{int64(len(ids))}}

	case strings.Contains(sql, "SELECT entity_id, related_id FROM report_detail") && strings.Contains(sql, "LIMIT 1"):
		reportKey := args[0].(string)
		dir := "ASC"
		if strings.Contains(sql, "DESC") {
			dir = "DESC"
		}
		pairs := s.matchingRelationPairs(reportKey, false, 0, 0, "")
		if len(pairs) == 0 {
			return row{err: pgx.ErrNoRows}
		}
		sort.Slice(pairs, func(i, j int) bool {
			if dir == "ASC" {
				return pairLess(pairs[i], pairs[j])
			}
			return pairLess(pairs[j], pairs[i])
		})
		return row{vals: []interface{}{pairs[0][0], pairs[0][1]}}

	case strings.Contains(sql, "COUNT(*) FROM report_detail") && strings.Contains(sql, "related_id IS NOT NULL") && strings.Contains(sql, "entity_id, related_id"):
		reportKey := args[0].(string)
		lo := args[1].(int64)
		hi := args[2].(int64)
		cmp := extractTupleCmp(sql)
		pairs := s.matchingRelationPairs(reportKey, true, lo, hi, cmp)
		return row{vals: []interface{}{int64(len(pairs))}}

	case strings.Contains(sql, "COUNT(*) FROM report_detail") && strings.Contains(sql, "related_id IS NOT NULL"):
		reportKey := args[0].(string)
		pairs := s.matchingRelationPairs(reportKey, false, 0, 0, "")
		return row{vals: []interface{}{int64(len(pairs))}}
	}
	return row{err: fmt.Errorf("storetest: unhandled QueryRow: %s", sql)}
}

// Query implements store.Querier.
func (s *Store) Query(ctx context.Context, sql string, args ...interface{}) (store.Rows, error) {
	switch {
	case strings.Contains(sql, "SELECT entity_id FROM report_detail"):
		reportKey := args[0].(string)
		bound := args[1].(int64)
		limit := args[2].(int)
		cmp := extractCmp(sql)
		ascending := strings.Contains(sql, "ORDER BY entity_id ASC")

		ids := s.matchingEntityIDs(reportKey, true, bound, cmp)
		sort.Slice(ids, func(i, j int) bool {
			if ascending {
				return ids[i] < ids[j]
			}
			return ids[i] > ids[j]
		})
		if limit >= 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		data := make([][]interface{}, len(ids))
		for i, id := range ids {
			data[i] = []interface{}{id}
		}
		return &rows{data: data}, nil

	case strings.Contains(sql, "SELECT entity_id, related_id FROM report_detail"):
		reportKey := args[0].(string)
		lo := args[1].(int64)
		hi := args[2].(int64)
		limit := args[3].(int)
		cmp := extractTupleCmp(sql)
		ascending := strings.Contains(sql, "ORDER BY entity_id ASC")

		pairs := s.matchingRelationPairs(reportKey, true, lo, hi, cmp)
		sort.Slice(pairs, func(i, j int) bool {
			if ascending {
				return pairLess(pairs[i], pairs[j])
			}
			return pairLess(pairs[j], pairs[i])
		})
		if limit >= 0 && len(pairs) > limit {
			pairs = pairs[:limit]
		}
		data := make([][]interface{}, len(pairs))
		for i, p := range pairs {
			data[i] = []interface{}{p[0], p[1]}
		}
		return &rows{data: data}, nil
	}
	return nil, fmt.Errorf("storetest: unhandled Query: %s", sql)
}

func (s *Store) matchingEntityIDs(reportKey string, bounded bool, bound int64, cmp string) []int64 {
	var out []int64
	for k := range s.reportDetails {
		if k.ReportKey != reportKey || k.HasRelated {
			continue
		}
		if bounded && !compareBound(k.EntityID, bound, cmp) {
			continue
		}
		out = append(out, k.EntityID)
	}
	return out
}

func (s *Store) matchingRelationPairs(reportKey string, bounded bool, lo, hi int64, cmp string) [][2]int64 {
	var out [][2]int64
	for k := range s.reportDetails {
		if k.ReportKey != reportKey || !k.HasRelated {
			continue
		}
		if bounded && !compareTuple(k.EntityID, k.RelatedID, lo, hi, cmp) {
			continue
		}
		out = append(out, [2]int64{k.EntityID, k.RelatedID})
	}
	return out
}

func extractCmp(sql string) string {
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.Contains(sql, "entity_id "+op+" $2") {
			return op
		}
	}
	return ">="
}

func extractTupleCmp(sql string) string {
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.Contains(sql, ") "+op+" (") {
			return op
		}
	}
	return ">="
}

func compareBound(id, bound int64, cmp string) bool {
	switch cmp {
	case ">=":
		return id >= bound
	case ">":
		return id > bound
	case "<=":
		return id <= bound
	case "<":
		return id < bound
	}
	return false
}

func compareTuple(entityID, relatedID, lo, hi int64, cmp string) bool {
	less := entityID < lo || (entityID == lo && relatedID < hi)
	equal := entityID == lo && relatedID == hi
	greater := entityID > lo || (entityID == lo && relatedID > hi)
	switch cmp {
	case ">=":
		return equal || greater
	case ">":
		return greater
	case "<=":
		return equal || less
	case "<":
		return less
	}
	return false
}

func pairLess(a, b [2]int64) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}
