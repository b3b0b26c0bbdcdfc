// Package diff implements the entity snapshot diff engine (§4.3): given an
// entity ID, it fetches the current resolved entity from the ER engine,
// compares it against the last persisted snapshot, and in one transaction
// writes the resulting entity/record/relationship mutations plus the
// report-update deltas that reconcile the aggregate counters.
package diff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/senzing-garage/data-mart-replicator/internal/errs"
	"github.com/senzing-garage/data-mart-replicator/internal/journal"
	"github.com/senzing-garage/data-mart-replicator/internal/matchkey"
	"github.com/senzing-garage/data-mart-replicator/internal/model"
	"github.com/senzing-garage/data-mart-replicator/internal/reportkey"
	"github.com/senzing-garage/data-mart-replicator/internal/snapshot"
	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// Client is the ER engine surface the diff engine consumes — narrowed to
// avoid an import cycle back onto the full erclient.Client in tests.
type Client interface {
	GetEntity(ctx context.Context, id int64) (model.ResolvedEntity, bool, error)
}

// Engine computes and persists per-entity snapshot diffs.
type Engine struct {
	er Client
	s  store.DB
	j  *journal.Journal
}

// New builds an Engine.
func New(er Client, s store.DB, j *journal.Journal) *Engine {
	return &Engine{er: er, s: s, j: j}
}

// Refresh implements §4.3's contract in full: read prior state, fetch
// current state, diff, persist mutations and new hash, append journal
// updates, all inside one transaction.
func (e *Engine) Refresh(ctx context.Context, entityID int64) error {
	current, found, err := e.er.GetEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("diff: get entity %d: %w", entityID, errs.TransportTransient)
	}
	if found {
		if self := current.SelfRelationID(); self == current.ID {
			return fmt.Errorf("diff: entity %d relates to itself: %w", entityID, errs.Logic)
		}
	} else {
		// A removed entity still owns the relationship rows keyed by its id.
		current.ID = entityID
	}

	return e.s.WithTx(ctx, func(ctx context.Context, tx store.Querier) error {
		prior, priorFound, err := readPrior(ctx, tx, entityID)
		if err != nil {
			return fmt.Errorf("diff: read prior snapshot for %d: %w", entityID, err)
		}

		var priorEntityPtr, currentEntityPtr *model.Entity
		if priorFound {
			priorEntityPtr = &prior.Entity
		}
		if found {
			currentEntityPtr = &current.Entity
		}

		updates := ownStatUpdates(entityID, priorEntityPtr, currentEntityPtr)
		updates = append(updates, sizeBreakdownUpdates(entityID, priorEntityPtr, currentEntityPtr)...)
		updates = append(updates, relationBreakdownUpdates(entityID, priorEntityPtr, currentEntityPtr, len(prior.RelatedEntities), len(current.RelatedEntities))...)

		var hash string
		if found {
			hash, err = snapshot.Encode(current.ToSnapshot())
			if err != nil {
				return fmt.Errorf("diff: encode snapshot for %d: %w", entityID, err)
			}
		}

		if err := persistEntity(ctx, tx, entityID, found, current, hash); err != nil {
			return fmt.Errorf("diff: persist entity %d: %w", entityID, err)
		}
		relUpdates, err := persistRelationships(ctx, tx, current, prior.RelatedEntities, current.RelatedEntities)
		if err != nil {
			return fmt.Errorf("diff: persist relationships for %d: %w", entityID, err)
		}
		updates = append(updates, relUpdates...)

		if err := writeReportDetails(ctx, tx, detailChangesFrom(updates)); err != nil {
			return fmt.Errorf("diff: write report detail for %d: %w", entityID, err)
		}
		if err := e.j.Append(ctx, tx, updates); err != nil {
			return fmt.Errorf("diff: append journal for %d: %w", entityID, err)
		}
		return nil
	})
}

// writeReportDetails applies report_detail membership transitions. The
// "insert if not already present" / "delete if present" form is used
// instead of ON CONFLICT so idempotent re-delivery (§8 Scenario E) never
// depends on how the underlying unique index treats a NULL related_id.
func writeReportDetails(ctx context.Context, tx store.Querier, changes []DetailChange) error {
	for _, c := range changes {
		if c.Add {
			if _, err := tx.Exec(ctx, `
				INSERT INTO report_detail (report_key, entity_id, related_id)
				SELECT $1, $2, $3::bigint
				WHERE NOT EXISTS (
					SELECT 1 FROM report_detail
					WHERE report_key = $1 AND entity_id = $2 AND related_id IS NOT DISTINCT FROM $3::bigint
				)
			`, c.ReportKey, c.EntityID, c.RelatedID); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM report_detail
			WHERE report_key = $1 AND entity_id = $2 AND related_id IS NOT DISTINCT FROM $3::bigint
		`, c.ReportKey, c.EntityID, c.RelatedID); err != nil {
			return err
		}
	}
	return nil
}

// readPrior reads the prior snapshot hash for entityID and decodes it,
// returning a zero ResolvedEntity and found=false when no row exists.
func readPrior(ctx context.Context, tx store.Querier, entityID int64) (model.ResolvedEntity, bool, error) {
	var hash string
	err := tx.QueryRow(ctx, `SELECT hash FROM entity WHERE entity_id = $1`, entityID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ResolvedEntity{}, false, nil
	}
	if err != nil {
		return model.ResolvedEntity{}, false, err
	}
	if hash == "" {
		return model.ResolvedEntity{}, false, nil
	}
	var snap model.ResolvedEntitySnapshot
	if err := snapshot.Decode(hash, &snap); err != nil {
		return model.ResolvedEntity{}, false, err
	}
	return model.FromResolvedEntitySnapshot(snap), true, nil
}

// persistEntity writes current's own record set and entity row, or tears
// both down when the entity has been removed from the ER engine.
func persistEntity(ctx context.Context, tx store.Querier, entityID int64, found bool, current model.ResolvedEntity, hash string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM record WHERE entity_id = $1`, entityID); err != nil {
		return err
	}
	if !found {
		_, err := tx.Exec(ctx, `DELETE FROM entity WHERE entity_id = $1`, entityID)
		return err
	}

	for _, r := range current.Records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO record (data_source, record_id, entity_id, match_key, principle)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (data_source, record_id) DO UPDATE SET
				entity_id = EXCLUDED.entity_id,
				match_key = EXCLUDED.match_key,
				principle = EXCLUDED.principle
		`, r.DataSource, r.RecordID, entityID, r.MatchKey, r.Principle); err != nil {
			return err
		}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO entity (entity_id, name, hash, record_count, relation_count, modified_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (entity_id) DO UPDATE SET
			name = EXCLUDED.name,
			hash = EXCLUDED.hash,
			record_count = EXCLUDED.record_count,
			relation_count = EXCLUDED.relation_count,
			modified_at = now()
	`, entityID, current.Name, hash, current.RecordCount(), len(current.RelatedEntities))
	return err
}

// persistRelationships writes, overwrites, or removes relationship rows
// and returns the CSS journal updates those transitions produce.
//
// A relationship is observed independently by both its endpoints'
// refreshes (§4.3's edge case), so transitions are decided against the
// persisted relationship row itself — not against this entity's own
// prior/current RelatedEntities map — the same way Scenario C's "row
// written once... counter increments by 1 regardless of arrival order"
// requires: whichever refresh sees the row missing creates it and counts
// the +1; the other endpoint's later refresh finds the row already
// present with identical content and does nothing. The side with the
// larger entityId is authoritative for the stored form whenever the two
// sides' observations disagree, but either side may remove a row it no
// longer observes (§8 Scenario D).
func persistRelationships(ctx context.Context, tx store.Querier, current model.ResolvedEntity, prior, curRelated map[int64]model.RelatedEntity) ([]journal.Update, error) {
	var updates []journal.Update
	for _, id := range unionRelatedIDs(prior, curRelated) {
		re, hasCurrent := curRelated[id]

		lo, hi := current.ID, id
		if lo > hi {
			lo, hi = hi, lo
		}

		var existingHash string
		err := tx.QueryRow(ctx, `SELECT hash FROM relationship WHERE lo_entity_id = $1 AND hi_entity_id = $2 FOR UPDATE`, lo, hi).Scan(&existingHash)
		existed := true
		if errors.Is(err, pgx.ErrNoRows) {
			existed, err = false, nil
		}
		if err != nil {
			return nil, err
		}

		var priorRel model.Relationship
		havePriorRel := false
		if existed && existingHash != "" {
			if err := snapshot.Decode(existingHash, &priorRel); err != nil {
				return nil, err
			}
			havePriorRel = true
		}

		if !hasCurrent {
			if existed {
				if _, err := tx.Exec(ctx, `DELETE FROM relationship WHERE lo_entity_id = $1 AND hi_entity_id = $2`, lo, hi); err != nil {
					return nil, err
				}
				if havePriorRel {
					updates = append(updates, relationshipCountDeltas(priorRel, -1)...)
				}
			}
			continue
		}

		rel := model.NewRelationship(current, re)
		hash, err := snapshot.Encode(rel)
		if err != nil {
			return nil, err
		}

		switch {
		case !existed:
			if err := upsertRelationship(ctx, tx, rel, hash); err != nil {
				return nil, err
			}
			updates = append(updates, relationshipCountDeltas(rel, 1)...)
		case havePriorRel && priorRel.Equal(rel):
			// Both endpoints agree; the other side's refresh already
			// created and counted this relationship.
		case current.ID > id:
			if err := upsertRelationship(ctx, tx, rel, hash); err != nil {
				return nil, err
			}
			if havePriorRel {
				updates = append(updates, relationshipCountDeltas(priorRel, -1)...)
			}
			updates = append(updates, relationshipCountDeltas(rel, 1)...)
		default:
			// Non-authoritative side observing stale content: the
			// authoritative (larger-id) side's own refresh reconciles
			// both the stored row and the counter.
		}
	}
	return updates, nil
}

// upsertRelationship writes rel's row, overwriting any existing row's
// content. Only called once a transition has already decided this side's
// observation should win (a fresh row, or this side's entityId is the
// larger, authoritative one), so the write is unconditionally a DO UPDATE.
func upsertRelationship(ctx context.Context, tx store.Querier, rel model.Relationship, hash string) error {
	reverseMK := matchkey.Reverse(matchkey.Canonicalize(rel.MatchKey))
	_, err := tx.Exec(ctx, `
		INSERT INTO relationship
			(lo_entity_id, hi_entity_id, match_level, match_type, match_key, reverse_match_key, principle, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lo_entity_id, hi_entity_id) DO UPDATE SET
			match_level = EXCLUDED.match_level,
			match_type = EXCLUDED.match_type,
			match_key = EXCLUDED.match_key,
			reverse_match_key = EXCLUDED.reverse_match_key,
			principle = EXCLUDED.principle,
			hash = EXCLUDED.hash
	`, rel.Lo, rel.Hi, rel.MatchLevel, string(rel.MatchType), rel.MatchKey, reverseMK, rel.Principle, hash)
	return err
}
