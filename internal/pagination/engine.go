package pagination

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/jackc/pgx/v5"

	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// Engine queries report_detail for a bounded, optionally sampled page of
// entity IDs scoped to a single report key.
type Engine struct {
	s store.DB
}

// New builds an Engine.
func New(s store.DB) *Engine {
	return &Engine{s: s}
}

// PageEntities returns a Page of entity IDs in reportKey's scope, per
// §4.5's contract. Only report_detail rows with a null related_id count —
// relation-scoped rows belong to PageRelations, not here.
func (e *Engine) PageEntities(ctx context.Context, reportKey string, req Request) (Page, error) {
	if _, err := req.ResolvePageSize(); err != nil {
		return Page{}, err
	}
	pageSize, _ := req.ResolvePageSize()
	bound, err := ParseEntityBound(req.Bound, req.BoundType)
	if err != nil {
		return Page{}, err
	}

	ascending := req.BoundType.Ascending()
	cmp, order := boundComparison(req.BoundType)

	rows, err := e.s.Pool().Query(ctx, fmt.Sprintf(`
		SELECT entity_id FROM report_detail
		WHERE report_key = $1 AND related_id IS NULL AND entity_id %s $2
		ORDER BY entity_id %s
		LIMIT $3
	`, cmp, order), reportKey, bound, pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("pagination: query window: %w", err)
	}
	defer rows.Close()

	var window []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return Page{}, fmt.Errorf("pagination: scan window row: %w", err)
		}
		window = append(window, id)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("pagination: iterate window: %w", err)
	}
	if !ascending {
		reverseInt64s(window)
	}

	var total, before, after int64
	var overallMin, overallMax *int64
	err = e.s.Pool().QueryRow(ctx, `SELECT COUNT(*), MIN(entity_id), MAX(entity_id) FROM report_detail WHERE report_key = $1 AND related_id IS NULL`, reportKey).
		Scan(&total, &overallMin, &overallMax)
	if err != nil {
		return Page{}, fmt.Errorf("pagination: count total: %w", err)
	}

	boundaryCmp, _ := boundComparison(oppositeBoundType(req.BoundType))
	err = e.s.Pool().QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM report_detail WHERE report_key = $1 AND related_id IS NULL AND entity_id %s $2
	`, boundaryCmp), reportKey, bound).Scan(&before)
	if err != nil {
		return Page{}, fmt.Errorf("pagination: count before: %w", err)
	}
	after = total - before - int64(len(window))
	if after < 0 {
		after = 0
	}

	if req.SampleSize == nil {
		return AssembleEntityPage(req, window, total, before, after, overallMin, overallMax, nil), nil
	}
	return AssembleEntityPage(req, window, total, before, after, nil, nil, uniformSample), nil
}

// PageRelations returns a Page of (entityId, relatedId) pairs in
// reportKey's scope, the relation counterpart of PageEntities. Only rows
// with a non-null related_id count.
func (e *Engine) PageRelations(ctx context.Context, reportKey string, req Request) (RelationPage, error) {
	if _, err := req.ResolvePageSize(); err != nil {
		return RelationPage{}, err
	}
	pageSize, _ := req.ResolvePageSize()
	bound, err := ParseRelationBound(req.Bound, req.BoundType)
	if err != nil {
		return RelationPage{}, err
	}

	ascending := req.BoundType.Ascending()
	cmp, order := boundComparison(req.BoundType)

	rows, err := e.s.Pool().Query(ctx, fmt.Sprintf(`
		SELECT entity_id, related_id FROM report_detail
		WHERE report_key = $1 AND related_id IS NOT NULL AND (entity_id, related_id) %s ($2, $3)
		ORDER BY entity_id %s, related_id %s
		LIMIT $4
	`, cmp, order, order), reportKey, bound.Lo, bound.Hi, pageSize)
	if err != nil {
		return RelationPage{}, fmt.Errorf("pagination: query relation window: %w", err)
	}
	defer rows.Close()

	var window []RelationBound
	for rows.Next() {
		var rb RelationBound
		if err := rows.Scan(&rb.Lo, &rb.Hi); err != nil {
			return RelationPage{}, fmt.Errorf("pagination: scan relation window row: %w", err)
		}
		window = append(window, rb)
	}
	if err := rows.Err(); err != nil {
		return RelationPage{}, fmt.Errorf("pagination: iterate relation window: %w", err)
	}
	if !ascending {
		reverseRelationBounds(window)
	}

	var total, before, after int64
	err = e.s.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM report_detail WHERE report_key = $1 AND related_id IS NOT NULL`, reportKey).Scan(&total)
	if err != nil {
		return RelationPage{}, fmt.Errorf("pagination: count relation total: %w", err)
	}

	overallMin, err := e.relationExtreme(ctx, reportKey, "ASC")
	if err != nil {
		return RelationPage{}, err
	}
	overallMax, err := e.relationExtreme(ctx, reportKey, "DESC")
	if err != nil {
		return RelationPage{}, err
	}

	boundaryCmp, _ := boundComparison(oppositeBoundType(req.BoundType))
	err = e.s.Pool().QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM report_detail WHERE report_key = $1 AND related_id IS NOT NULL AND (entity_id, related_id) %s ($2, $3)
	`, boundaryCmp), reportKey, bound.Lo, bound.Hi).Scan(&before)
	if err != nil {
		return RelationPage{}, fmt.Errorf("pagination: count relation before: %w", err)
	}
	after = total - before - int64(len(window))
	if after < 0 {
		after = 0
	}

	if req.SampleSize == nil {
		return AssembleRelationPage(req, window, total, before, after, overallMin, overallMax, nil), nil
	}
	return AssembleRelationPage(req, window, total, before, after, nil, nil, uniformRelationSample), nil
}

// relationExtreme returns the minimum (dir "ASC") or maximum (dir "DESC")
// (entity_id, related_id) pair in reportKey's relation scope, or nil if
// there are none. Postgres has no MIN/MAX aggregate over row types, so the
// extreme is found with an ordered LIMIT 1 scan instead.
func (e *Engine) relationExtreme(ctx context.Context, reportKey, dir string) (*RelationBound, error) {
	var rb RelationBound
	err := e.s.Pool().QueryRow(ctx, fmt.Sprintf(`
		SELECT entity_id, related_id FROM report_detail
		WHERE report_key = $1 AND related_id IS NOT NULL
		ORDER BY entity_id %s, related_id %s
		LIMIT 1
	`, dir, dir), reportKey).Scan(&rb.Lo, &rb.Hi)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pagination: relation extreme: %w", err)
	}
	return &rb, nil
}

func uniformSample(window []int64, n int) []int64 {
	if n >= len(window) {
		return append([]int64(nil), window...)
	}
	perm := rand.Perm(len(window))[:n]
	out := make([]int64, n)
	for i, idx := range perm {
		out[i] = window[idx]
	}
	return out
}

func uniformRelationSample(window []RelationBound, n int) []RelationBound {
	if n >= len(window) {
		return append([]RelationBound(nil), window...)
	}
	perm := rand.Perm(len(window))[:n]
	out := make([]RelationBound, n)
	for i, idx := range perm {
		out[i] = window[idx]
	}
	return out
}

func boundComparison(bt BoundType) (cmp, order string) {
	switch bt {
	case InclusiveLower:
		return ">=", "ASC"
	case ExclusiveLower:
		return ">", "ASC"
	case InclusiveUpper:
		return "<=", "DESC"
	case ExclusiveUpper:
		return "<", "DESC"
	default:
		return ">=", "ASC"
	}
}

func oppositeBoundType(bt BoundType) BoundType {
	switch bt {
	case InclusiveLower:
		return ExclusiveUpper
	case ExclusiveLower:
		return InclusiveUpper
	case InclusiveUpper:
		return ExclusiveLower
	default:
		return InclusiveLower
	}
}

func reverseInt64s(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseRelationBounds(s []RelationBound) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
