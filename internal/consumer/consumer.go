// Package consumer dequeues relayed envelopes and persists them.
//
// Each message moves through received → decoded → saving → saved or
// failed. Two properties are load-bearing:
//
//   - at-most-once save: a cache key derived from (event id, project)
//     is claimed atomically before the save; redelivered or concurrent
//     copies of the same event observe the claim and become no-ops.
//
//   - no self-capture: failures raised while the consumer processes a
//     message are logged against the cache key and returned to the
//     queue runtime, but never submitted as new events. A failing save
//     that captured its own error would generate new events, which
//     would fail to save, and so on until the queue saturates.
package consumer

import (
	"context"
	"fmt"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/common/messaging"
	"github.com/faultline-io/faultline/internal/consumer/claims"
	"github.com/faultline-io/faultline/internal/dlq"
	"github.com/faultline-io/faultline/internal/metrics"
	"github.com/faultline-io/faultline/pkg/client"
	"github.com/faultline-io/faultline/pkg/envelope"
	"github.com/faultline-io/faultline/pkg/event"
)

// CacheKey derives the deduplication token correlating a save attempt
// to a specific submission. Format: e:{eventID}:{projectID}.
func CacheKey(id event.ID, project int) string {
	return fmt.Sprintf("e:%s:%d", id, project)
}

// PersistenceManager is the collaborator that durably stores events.
type PersistenceManager interface {
	Save(ctx context.Context, ev *event.Event, project int, cacheKey string) error
}

// Consumer processes queue deliveries. Multiple Consumers may run
// concurrently (one per partition/worker); the claim store is the only
// shared state between them.
type Consumer struct {
	persistence PersistenceManager
	claims      claims.Store
	deadLetter  dlq.Writer
	logger      *logging.Logger
}

// New creates a Consumer. The DLQ writer may be nil, in which case
// malformed envelopes are only logged before being dropped.
func New(persistence PersistenceManager, claimStore claims.Store, deadLetter dlq.Writer, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Consumer{
		persistence: persistence,
		claims:      claimStore,
		deadLetter:  deadLetter,
		logger:      logger,
	}
}

// Consume handles one delivery. A nil return acks the message; an error
// return hands the decision to the queue runtime (nack/redeliver up to
// its ceiling). Errors raised here are terminal for this message and
// are never re-captured as new events.
func (c *Consumer) Consume(ctx context.Context, msg *messaging.Message) error {
	env, err := envelope.Decode(msg.Data)
	if err != nil {
		// Malformed envelopes can never succeed; drop instead of requeue.
		metrics.EnvelopesMalformed.Inc()
		metrics.ConsumerMessages.WithLabelValues("malformed").Inc()
		c.logger.ErrorContext(ctx, "dropping malformed envelope",
			logging.Subject(msg.Subject), logging.Error(err))
		if c.deadLetter != nil {
			if dlqErr := c.deadLetter.Write(ctx, msg.Data, err, "malformed"); dlqErr != nil {
				c.logger.ErrorContext(ctx, "dlq write failed", logging.Error(dlqErr))
			}
		}
		return nil
	}

	key := CacheKey(env.EventID, env.Project)

	won, err := c.claims.Claim(ctx, key)
	if err != nil {
		// Guard unavailable: we cannot prove at-most-once, so let the
		// runtime redeliver rather than risk a lost event.
		metrics.ConsumerMessages.WithLabelValues("claim_error").Inc()
		return fmt.Errorf("claim %s: %w", key, err)
	}
	if !won {
		metrics.ClaimsDuplicate.Inc()
		metrics.ConsumerMessages.WithLabelValues("duplicate").Inc()
		c.logger.DebugContext(ctx, "skipping already-claimed event",
			logging.CacheKey(key), logging.Attempt(msg.Attempt))
		return nil
	}

	// From here on any failure is pipeline-internal. Mark the context
	// so nothing underneath can capture it back into the pipeline.
	ctx = client.DisableCapture(ctx)

	if err := c.persistence.Save(ctx, env.Event, env.Project, key); err != nil {
		metrics.ConsumerMessages.WithLabelValues("save_failed").Inc()
		c.logger.ErrorContext(ctx, "event save failed",
			logging.EventID(string(env.EventID)),
			logging.Project(env.Project),
			logging.CacheKey(key),
			logging.Error(err))
		// Surface to the queue runtime only. The claim stays: the save
		// had its one attempt.
		return fmt.Errorf("save %s: %w", key, err)
	}

	metrics.ConsumerMessages.WithLabelValues("saved").Inc()
	c.logger.InfoContext(ctx, "event ingested",
		logging.EventID(string(env.EventID)),
		logging.Project(env.Project))
	return nil
}
