// Package natsconsumer is the reference transport binding (§1, §11): a
// JetStream durable consumer that enqueues each entity-change event's raw
// payload, undecoded, onto the pending-event queue, narrowed from
// the donor's generic multi-subject EventManager (sdk/nats/manager.go) to
// the mart's single event kind.
package natsconsumer

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/senzing-garage/data-mart-replicator/internal/errs"
	"github.com/senzing-garage/data-mart-replicator/internal/logging"
	"github.com/senzing-garage/data-mart-replicator/internal/queue"
)

// Enqueuer is the subset of *queue.Queue the consumer needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload string) error
}

// Config names the stream/subject/consumer to bind.
type Config struct {
	StreamName   string
	Subject      string
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
}

// Consumer is the JetStream durable consumer feeding the pending-event
// queue.
type Consumer struct {
	cfg Config
	js  jetstream.JetStream
	q   Enqueuer
	log *logging.Logger
}

// New connects to a JetStream context and prepares (without yet starting)
// a durable consumer per cfg.
func New(nc *nats.Conn, cfg Config, q Enqueuer) (*Consumer, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("natsconsumer: create jetstream context: %w: %v", errs.ConsumerSetup, err)
	}
	return &Consumer{cfg: cfg, js: js, q: q, log: logging.New("natsconsumer")}, nil
}

// Run creates (or re-attaches to) the durable consumer and processes
// messages until ctx is canceled. Each message's raw body is enqueued
// verbatim; decoding AFFECTED_ENTITIES happens downstream in the
// scheduler (§4.2), keeping this package ignorant of payload shape beyond
// "it is the next pending-event payload".
func (c *Consumer) Run(ctx context.Context) error {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.cfg.StreamName, jetstream.ConsumerConfig{
		Name:          c.cfg.ConsumerName,
		Durable:       c.cfg.ConsumerName,
		FilterSubject: c.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.cfg.AckWait,
		MaxDeliver:    c.cfg.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("natsconsumer: create consumer %q: %w: %v", c.cfg.ConsumerName, errs.ConsumerSetup, err)
	}

	msgs, err := consumer.Messages()
	if err != nil {
		return fmt.Errorf("natsconsumer: open message iterator: %w: %v", errs.ConsumerSetup, err)
	}
	defer msgs.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := msgs.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Printf("next message: %v", err)
			continue
		}

		if err := c.q.Enqueue(ctx, string(msg.Data())); err != nil {
			c.log.Printf("enqueue: %v", err)
			_ = msg.Nak()
			continue
		}
		_ = msg.Ack()
	}
}
