// Package scheduler implements the refresh scheduler (§4.2): a worker pool
// that leases pending events, decodes each into its affected entity IDs,
// and drives the per-entity refresh routine with at most one refresh
// in-flight per entity at any moment.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/senzing-garage/data-mart-replicator/internal/deadletter"
	"github.com/senzing-garage/data-mart-replicator/internal/errs"
	"github.com/senzing-garage/data-mart-replicator/internal/logging"
	"github.com/senzing-garage/data-mart-replicator/internal/queue"
)

// Refresher performs the entity snapshot diff for a single entity.
// internal/diff.Engine satisfies this.
type Refresher interface {
	Refresh(ctx context.Context, entityID int64) error
}

// Config bounds the scheduler's concurrency and retry behavior.
type Config struct {
	WorkerCount   int
	BatchSize     int
	LeaseDuration time.Duration
	MaxFailures   int
}

// Scheduler is the refresh scheduler / worker pool.
type Scheduler struct {
	cfg       Config
	q         *queue.Queue
	refresher Refresher
	dl        *deadletter.Sink
	log       *logging.Logger

	inFlight singleflight.Group
}

// New builds a Scheduler.
func New(cfg Config, q *queue.Queue, refresher Refresher, dl *deadletter.Sink) *Scheduler {
	return &Scheduler{cfg: cfg, q: q, refresher: refresher, dl: dl, log: logging.New("scheduler")}
}

// Run starts cfg.WorkerCount workers and blocks until ctx is canceled or a
// worker returns a fatal (non-lease) error. A worker completing its
// current batch exits the loop before re-leasing, per §4.2's "Scheduling
// model".
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.WorkerCount; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.New().String())
		g.Go(func() error {
			return s.workerLoop(ctx, workerID)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Scheduler) workerLoop(ctx context.Context, workerID string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		events, err := s.q.LeaseBatch(ctx, workerID, s.cfg.BatchSize, s.cfg.LeaseDuration)
		if err != nil {
			s.log.Printf("%s: lease batch: %v", workerID, err)
			continue
		}
		if len(events) == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}

		for _, ev := range events {
			s.processEvent(ctx, workerID, ev)
		}
	}
}

// processEvent decodes ev's affected entities and refreshes each,
// acknowledging the lease only once every entity has been refreshed
// without a transient failure.
func (s *Scheduler) processEvent(ctx context.Context, workerID string, ev queue.PendingEvent) {
	ids, err := affectedEntityIDs(ev.Payload)
	if err != nil {
		s.deadLetter(ctx, ev, 1, fmt.Errorf("%w: %v", errs.Logic, err))
		return
	}

	for _, id := range ids {
		if err := s.refreshCoalesced(ctx, id); err != nil {
			if errors.Is(err, errs.Logic) || errors.Is(err, errs.MalformedInput) {
				s.deadLetter(ctx, ev, 1, err)
				return
			}
			// Transient failure: leave the lease to expire for redelivery.
			s.log.Printf("%s: refresh entity %d failed, leaving lease to expire: %v", workerID, id, err)
			return
		}
	}

	if err := s.q.Ack(ctx, ev.ID, ev.LeaseID); err != nil {
		s.log.Printf("%s: ack event %d: %v", workerID, ev.ID, err)
	}
}

// refreshCoalesced ensures at most one in-flight refresh per entity ID:
// concurrent callers for the same ID share a single Refresh call and its
// result, per §4.2's "at most one in-flight refresh per entity".
func (s *Scheduler) refreshCoalesced(ctx context.Context, entityID int64) error {
	key := fmt.Sprintf("%d", entityID)
	_, err, _ := s.inFlight.Do(key, func() (interface{}, error) {
		return nil, s.refresher.Refresh(ctx, entityID)
	})
	return err
}

func (s *Scheduler) deadLetter(ctx context.Context, ev queue.PendingEvent, failureCount int, cause error) {
	if err := s.dl.Move(ctx, ev.Payload, failureCount, cause); err != nil {
		s.log.Printf("dead-letter move failed for event %d: %v", ev.ID, err)
		return
	}
	if err := s.q.Ack(ctx, ev.ID, ev.LeaseID); err != nil {
		s.log.Printf("ack after dead-letter for event %d: %v", ev.ID, err)
	}
}

// wireAffectedEntity mirrors one element of AFFECTED_ENTITIES (§6).
type wireAffectedEntity struct {
	EntityID int64 `json:"ENTITY_ID"`
}

// wireEventPayload mirrors the event payload (§6): DATA_SOURCE and
// RECORD_ID are carried for observability but not consumed by the
// scheduler; only AFFECTED_ENTITIES drives refresh.
type wireEventPayload struct {
	DataSource       string                `json:"DATA_SOURCE"`
	RecordID         string                `json:"RECORD_ID"`
	AffectedEntities []wireAffectedEntity  `json:"AFFECTED_ENTITIES"`
}

// affectedEntityIDs decodes a pending-event payload into the set of
// entity IDs it names, per §4.2 "convert each payload to a set of
// affected entity IDs".
func affectedEntityIDs(payload string) ([]int64, error) {
	var p wireEventPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("scheduler: decode event payload: %w", err)
	}
	ids := make([]int64, 0, len(p.AffectedEntities))
	for _, ae := range p.AffectedEntities {
		ids = append(ids, ae.EntityID)
	}
	return ids, nil
}
