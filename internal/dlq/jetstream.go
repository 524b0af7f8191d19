package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/common/messaging"
	natsclient "github.com/faultline-io/faultline/common/messaging/nats"
)

// JetStreamWriter publishes failed envelopes to a durable NATS
// JetStream stream. Safe for use across multiple consumer instances.
type JetStreamWriter struct {
	js      *natsclient.JetStreamClient
	stream  jetstream.Stream
	logger  *logging.Logger
	written atomic.Uint64
}

// NewJetStreamWriter ensures the DLQ stream exists and returns a writer.
func NewJetStreamWriter(ctx context.Context, js *natsclient.JetStreamClient, logger *logging.Logger) (*JetStreamWriter, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream client is nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	stream, err := js.CreateOrUpdateStream(ctx, natsclient.IngestDLQStream)
	if err != nil {
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	return &JetStreamWriter{js: js, stream: stream, logger: logger}, nil
}

// Write implements Writer.
func (w *JetStreamWriter) Write(ctx context.Context, raw []byte, cause error, reason string) error {
	failed := FailedEnvelope{
		Timestamp: time.Now().UTC(),
		Raw:       raw,
		Error:     cause.Error(),
		Reason:    reason,
		Attempts:  1,
	}

	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	subject := messaging.IngestDLQSubject(reason)
	if _, err := w.js.PublishSync(ctx, subject, data); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish dlq entry",
			logging.Subject(subject), logging.Error(err))
		return err
	}

	w.written.Add(1)
	w.logger.InfoContext(ctx, "dead-lettered envelope",
		logging.Subject(subject), logging.Reason(reason))
	return nil
}

// Stats returns DLQ stream counters for health endpoints.
func (w *JetStreamWriter) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"written_local": w.written.Load(),
	}

	info, err := w.stream.Info(ctx)
	if err != nil {
		stats["error"] = err.Error()
		return stats
	}

	stats["total_messages"] = info.State.Msgs
	stats["total_bytes"] = info.State.Bytes
	stats["first_seq"] = info.State.FirstSeq
	stats["last_seq"] = info.State.LastSeq
	return stats
}
