// Package deadletter persists poison events (§4.2, §7 Poison / Logic) so
// operators can inspect and optionally replay them, generalizing the
// donor's error-reply plumbing (services/dal-service/main.go's
// replyError) into a durable sink instead of an RPC reply.
package deadletter

import (
	"context"
	"fmt"

	"github.com/senzing-garage/data-mart-replicator/internal/store"
)

// Sink writes to the dead_letter_event table.
type Sink struct {
	s *store.Store
}

// New creates a Sink over s.
func New(s *store.Store) *Sink { return &Sink{s: s} }

// Move persists payload with the error chain that caused it to be
// abandoned and its cumulative failure count.
func (d *Sink) Move(ctx context.Context, payload string, failureCount int, lastErr error) error {
	var lastErrText string
	if lastErr != nil {
		lastErrText = lastErr.Error()
	}
	_, err := d.s.Pool().Exec(ctx, `
		INSERT INTO dead_letter_event (payload, failure_count, last_error, created_at)
		VALUES ($1, $2, $3, now())
	`, payload, failureCount, lastErrText)
	if err != nil {
		return fmt.Errorf("deadletter: move: %w", err)
	}
	return nil
}
