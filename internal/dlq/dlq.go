// Package dlq dead-letters envelopes the pipeline gave up on so
// operators can inspect and replay them.
package dlq

import (
	"context"
	"sync"
	"time"
)

// FailedEnvelope captures failure details for a dead-lettered message.
type FailedEnvelope struct {
	Timestamp time.Time `json:"timestamp"`
	Raw       []byte    `json:"raw"`
	Error     string    `json:"error"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
}

// Writer records failed envelopes.
type Writer interface {
	// Write dead-letters the raw envelope bytes under a failure reason
	// such as "malformed".
	Write(ctx context.Context, raw []byte, cause error, reason string) error
}

// MemoryWriter collects failed envelopes in memory; used in tests and
// when no durable DLQ is configured.
type MemoryWriter struct {
	mu      sync.Mutex
	entries []FailedEnvelope
}

// NewMemoryWriter creates an empty in-memory DLQ.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// Write implements Writer.
func (w *MemoryWriter) Write(ctx context.Context, raw []byte, cause error, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, FailedEnvelope{
		Timestamp: time.Now().UTC(),
		Raw:       raw,
		Error:     cause.Error(),
		Reason:    reason,
		Attempts:  1,
	})
	return nil
}

// Entries returns a snapshot of recorded failures.
func (w *MemoryWriter) Entries() []FailedEnvelope {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FailedEnvelope, len(w.entries))
	copy(out, w.entries)
	return out
}
