// Package client is the submission SDK for the faultline pipeline. It
// assigns event identifiers, merges ambient scope into events, encodes
// them and hands them to an asynchronous relay transport.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/internal/metrics"
	"github.com/faultline-io/faultline/pkg/envelope"
	"github.com/faultline-io/faultline/pkg/event"
)

// Transport forwards encoded envelopes toward the ingestion endpoint.
type Transport interface {
	// Send enqueues an encoded envelope. It never blocks the caller and
	// never reports delivery failures back; those surface through
	// metrics and logs only.
	Send(project int, data []byte)

	// Flush blocks until every envelope enqueued before the call has
	// been handed to the network, or timeout elapses. Returns false on
	// partial drain.
	Flush(timeout time.Duration) bool

	// Close flushes briefly and stops the background worker.
	Close()
}

// Config configures a Client.
type Config struct {
	// RelayURL is the base URL of the relay intake, e.g.
	// "http://localhost:8090".
	RelayURL string

	// Project is the default project id for captured events.
	Project int

	// Transport overrides the default HTTP transport. Used in tests and
	// embedded setups.
	Transport Transport

	// BufferSize is the outbound queue capacity (default 128).
	BufferSize int

	// MaxRetries is the send attempt ceiling per envelope (default 3).
	MaxRetries int

	// RetryBackoff is the base backoff between attempts (default 100ms,
	// doubled per attempt).
	RetryBackoff time.Duration

	// Logger defaults to the process logger.
	Logger *logging.Logger
}

// Client is the submission client. Safe for concurrent use; the global
// scope must be configured before concurrent captures begin.
type Client struct {
	project   int
	transport Transport
	global    *Scope
	logger    *logging.Logger
}

// New creates a Client. A relay URL or an explicit transport is required.
func New(cfg Config) (*Client, error) {
	if cfg.Project <= 0 {
		return nil, fmt.Errorf("client: project id required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		if cfg.RelayURL == "" {
			return nil, fmt.Errorf("client: relay URL required")
		}
		transport = NewHTTPTransport(HTTPTransportOptions{
			RelayURL:     cfg.RelayURL,
			BufferSize:   cfg.BufferSize,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
	}

	return &Client{
		project:   cfg.Project,
		transport: transport,
		global:    NewScope(),
		logger:    logger,
	}, nil
}

// GlobalScope returns the client-wide scope merged into every event.
func (c *Client) GlobalScope() *Scope {
	return c.global
}

// CaptureEvent submits an event. A missing id is generated; the ambient
// scope layers (global, then request scope) are merged under the
// event's own values; the encoded envelope is handed to the transport.
// Returns immediately with the event id.
//
// When ctx carries the capture-off marker (see DisableCapture) the
// event is dropped: pipeline-internal errors must not re-enter the
// pipeline.
func (c *Client) CaptureEvent(ctx context.Context, ev *event.Event, scope *Scope) event.ID {
	if CaptureDisabled(ctx) {
		metrics.CaptureSuppressed.Inc()
		c.logger.DebugContext(ctx, "capture suppressed inside pipeline processing",
			slog.String(logging.FieldEventID, string(ev.ID)))
		return ""
	}

	if ev.ID == "" {
		ev.ID = event.NewID()
	}
	if ev.Project == 0 {
		ev.Project = c.project
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Logentry.Formatted == "" {
		ev.Logentry.Formatted = ev.Message
	}

	merged := c.global.Clone()
	merged.merge(scope)
	merged.applyTo(ev)

	data, err := envelope.Encode(envelope.New(ev))
	if err != nil {
		// Encode degrades bad values instead of failing; reaching this
		// means the envelope itself was unbuildable.
		metrics.EventsDropped.WithLabelValues("encode").Inc()
		c.logger.ErrorContext(ctx, "dropping event: encode failed",
			logging.EventID(string(ev.ID)), logging.Error(err))
		return ev.ID
	}

	c.transport.Send(ev.Project, data)
	metrics.EventsCaptured.Inc()
	return ev.ID
}

// CaptureMessage is shorthand for capturing a plain message event.
func (c *Client) CaptureMessage(ctx context.Context, message string, scope *Scope) event.ID {
	return c.CaptureEvent(ctx, event.New(c.project, message), scope)
}

// Flush blocks until all previously submitted events are handed off to
// the network layer or timeout elapses. Returns false on partial drain.
func (c *Client) Flush(timeout time.Duration) bool {
	return c.transport.Flush(timeout)
}

// Close shuts the transport down.
func (c *Client) Close() {
	c.transport.Close()
}
