// Package journal implements the report-update journal (§4.4): an
// append-only, monotonically sequenced log of signed statistic deltas
// that a single folder sums into the report_counter aggregate rows.
package journal

import (
	"context"
	"fmt"

	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// folderLockKey is the fixed pg_advisory_xact_lock key serializing
// folders across worker processes (§5 "Shared resources" (c)).
const folderLockKey = 0x6d61727431 // "mart1" in hex, arbitrary but stable

// Update is one entry of the report-update journal: a signed delta to a
// single ReportKey's counters, attributable to one entity (and, for
// relationship-scoped updates, one related entity).
type Update struct {
	ReportKey     string
	EntityID      int64
	RelatedID     *int64
	EntityDelta   int
	RecordDelta   int
	RelationDelta int
}

// IsZero reports whether every delta in the update is zero — such
// updates must never be emitted (§4.3 step 5) and Append silently drops
// any that slip through rather than bloating the journal.
func (u Update) IsZero() bool {
	return u.EntityDelta == 0 && u.RecordDelta == 0 && u.RelationDelta == 0
}

// Journal is the report-update journal.
type Journal struct {
	s store.DB
}

// New creates a Journal over s.
func New(s store.DB) *Journal { return &Journal{s: s} }

// Append persists updates in insertion order with a monotonic sequence
// number, using tx so the caller can append in the same transaction as
// the entity/relationship mutations that produced them (§4.3 step 6).
func (j *Journal) Append(ctx context.Context, tx store.Querier, updates []Update) error {
	for _, u := range updates {
		if u.IsZero() {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO report_update
				(report_key, entity_id, related_id, entity_delta, record_delta, relation_delta)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, u.ReportKey, u.EntityID, u.RelatedID, u.EntityDelta, u.RecordDelta, u.RelationDelta)
		if err != nil {
			return fmt.Errorf("journal: append: %w", err)
		}
	}
	return nil
}

// Fold consumes up to limit journal entries (ordered by seq, oldest
// first) and sums their deltas into report_counter, then deletes the
// folded rows — all inside one transaction guarded by a fixed advisory
// lock so only one folder runs at a time. Folding is commutative and
// associative (§4.4 "Idempotence"): replaying any suffix yields the same
// sum. The delete is part of the same transaction as the counter update,
// so a crash before commit rolls back both and the next pass folds the
// same rows exactly once.
func (j *Journal) Fold(ctx context.Context, limit int) (folded int64, err error) {
	err = j.s.WithTx(ctx, func(ctx context.Context, tx store.Querier) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, folderLockKey); err != nil {
			return fmt.Errorf("journal: acquire fold lock: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			WITH batch AS (
				SELECT seq, report_key, entity_delta, record_delta, relation_delta
				FROM report_update
				ORDER BY seq
				LIMIT $1
			),
			summed AS (
				SELECT report_key,
				       SUM(entity_delta)   AS entity_delta,
				       SUM(record_delta)   AS record_delta,
				       SUM(relation_delta) AS relation_delta
				FROM batch
				GROUP BY report_key
			),
			upserted AS (
				INSERT INTO report_counter (report_key, entity_count, record_count, relation_count)
				SELECT report_key, entity_delta, record_delta, relation_delta FROM summed
				ON CONFLICT (report_key) DO UPDATE SET
					entity_count   = report_counter.entity_count   + EXCLUDED.entity_count,
					record_count   = report_counter.record_count   + EXCLUDED.record_count,
					relation_count = report_counter.relation_count + EXCLUDED.relation_count
				RETURNING report_key
			)
			DELETE FROM report_update WHERE seq IN (SELECT seq FROM batch)
		`, limit)
		if err != nil {
			return fmt.Errorf("journal: fold batch: %w", err)
		}
		folded = tag.RowsAffected()
		return nil
	})
	return folded, err
}
