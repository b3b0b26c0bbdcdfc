// Package queue implements the durable pending-event queue (§4.1): at
// least once delivery via row-level leases, reclaimed by a background
// sweeper on expiry.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// ErrLeaseMismatch is returned by Ack when the lease no longer matches
// (already expired and re-leased, or already acked) — a no-op, not a
// failure.
var ErrLeaseMismatch = errors.New("queue: lease mismatch")

// PendingEvent is one row of the pending_event table.
type PendingEvent struct {
	ID      int64
	LeaseID string
	Payload string
}

// Queue is the durable pending-event queue, backed by a single table in
// the same database as the mart so event ack and mart mutation commit
// together (§4.1 "Why").
type Queue struct {
	s *store.Store
}

// New creates a Queue over s.
func New(s *store.Store) *Queue { return &Queue{s: s} }

// Enqueue durably appends payload, unleased.
func (q *Queue) Enqueue(ctx context.Context, payload string) error {
	_, err := q.s.Pool().Exec(ctx, `
		INSERT INTO pending_event (payload, created_at, modified_at)
		VALUES ($1, now(), now())
	`, payload)
	if err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// LeaseBatch atomically marks up to n currently unleased (or
// expired-lease) rows with a new lease and returns them, oldest id first.
// SKIP LOCKED lets multiple workers lease concurrently without blocking
// each other on overlapping scans.
func (q *Queue) LeaseBatch(ctx context.Context, workerID string, n int, leaseDur time.Duration) ([]PendingEvent, error) {
	leaseID := uuid.New().String()
	expires := time.Now().UTC().Add(leaseDur)

	rows, err := q.s.Pool().Query(ctx, `
		UPDATE pending_event
		SET lease_id = $1, lease_expires_at = $2, modified_at = now()
		WHERE id IN (
			SELECT id FROM pending_event
			WHERE lease_id IS NULL OR lease_expires_at < now()
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, payload
	`, leaseID, expires, n)
	if err != nil {
		return nil, fmt.Errorf("queue: lease batch (worker %s): %w", workerID, err)
	}
	defer rows.Close()

	var out []PendingEvent
	for rows.Next() {
		var pe PendingEvent
		if err := rows.Scan(&pe.ID, &pe.Payload); err != nil {
			return nil, fmt.Errorf("queue: scan leased row: %w", err)
		}
		pe.LeaseID = leaseID
		out = append(out, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue: lease batch rows: %w", err)
	}
	return out, nil
}

// Ack deletes the row iff the lease still matches. A mismatched or
// expired lease is a no-op, reported as ErrLeaseMismatch so callers can
// distinguish it from a hard failure without treating it as one.
func (q *Queue) Ack(ctx context.Context, id int64, leaseID string) error {
	tag, err := q.s.Pool().Exec(ctx, `
		DELETE FROM pending_event WHERE id = $1 AND lease_id = $2
	`, id, leaseID)
	if err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	if !ackSucceeded(tag.RowsAffected()) {
		return ErrLeaseMismatch
	}
	return nil
}

// ackSucceeded is split out as a pure predicate so the "what counts as a
// successful ack" rule is unit-testable without a database.
func ackSucceeded(rowsAffected int64) bool { return rowsAffected == 1 }

// SweepExpired clears the lease on every row whose lease has expired, so
// the next LeaseBatch call can pick them back up. Returns the number of
// rows reclaimed.
func (q *Queue) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := q.s.Pool().Exec(ctx, `
		UPDATE pending_event
		SET lease_id = NULL, lease_expires_at = NULL, modified_at = now()
		WHERE lease_id IS NOT NULL AND lease_expires_at < now()
	`)
	if err != nil {
		return 0, fmt.Errorf("queue: sweep expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunSweeper runs SweepExpired on interval until ctx is cancelled,
// logging failures through onErr (may be nil).
func (q *Queue) RunSweeper(ctx context.Context, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.SweepExpired(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
