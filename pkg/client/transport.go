package client

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/internal/metrics"
)

// HTTPTransportOptions configures the default relay transport.
type HTTPTransportOptions struct {
	// RelayURL is the base URL of the relay intake.
	RelayURL string

	// BufferSize is the outbound queue capacity (default 128).
	BufferSize int

	// MaxRetries is the per-envelope send attempt ceiling (default 3).
	MaxRetries int

	// RetryBackoff is the base delay between attempts, doubled each
	// retry (default 100ms).
	RetryBackoff time.Duration

	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client

	// Logger defaults to the process logger.
	Logger *logging.Logger
}

// HTTPTransport buffers envelopes and drains them with a single
// background worker POSTing to the relay. Submission is fire-and-forget:
// after the retry ceiling an envelope is dropped and the failure is
// surfaced only via metrics and logs.
type HTTPTransport struct {
	relayURL     string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger

	queue chan *outbound
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// outbound is either an envelope to deliver or a flush barrier.
type outbound struct {
	project int
	data    []byte
	flush   chan struct{}
}

// NewHTTPTransport creates the transport and starts its sender worker.
func NewHTTPTransport(opts HTTPTransportOptions) *HTTPTransport {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 128
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	t := &HTTPTransport{
		relayURL:     opts.RelayURL,
		httpClient:   opts.HTTPClient,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		logger:       opts.Logger,
		queue:        make(chan *outbound, opts.BufferSize),
		done:         make(chan struct{}),
	}
	go t.worker()
	return t
}

// Send enqueues an encoded envelope. When the buffer is full the
// envelope is dropped and counted; the caller is never blocked.
func (t *HTTPTransport) Send(project int, data []byte) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		metrics.EventsDropped.WithLabelValues("closed").Inc()
		return
	}

	select {
	case t.queue <- &outbound{project: project, data: data}:
	default:
		metrics.EventsDropped.WithLabelValues("buffer_full").Inc()
		t.logger.Warn("outbound buffer full, dropping envelope",
			logging.Project(project))
	}
}

// Flush pushes a barrier through the worker and waits for it. Every
// envelope enqueued before the call is either handed to the network or
// still pending when the timeout fires, in which case Flush returns
// false.
func (t *HTTPTransport) Flush(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	barrier := &outbound{flush: make(chan struct{})}

	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return true
	}
	select {
	case t.queue <- barrier:
		t.mu.RUnlock()
	case <-deadline.C:
		t.mu.RUnlock()
		metrics.FlushTimeouts.Inc()
		return false
	}

	select {
	case <-barrier.flush:
		return true
	case <-deadline.C:
		metrics.FlushTimeouts.Inc()
		return false
	}
}

// Close drains briefly and stops the worker. Further Sends are no-ops.
func (t *HTTPTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	select {
	case <-t.done:
	case <-time.After(5 * time.Second):
		t.logger.Warn("transport close timed out waiting for drain")
	}
}

func (t *HTTPTransport) worker() {
	defer close(t.done)
	for out := range t.queue {
		if out.flush != nil {
			close(out.flush)
			continue
		}
		t.deliver(out)
	}
}

func (t *HTTPTransport) deliver(out *outbound) {
	backoff := t.retryBackoff
	var lastErr error

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		retryable, err := t.post(out)
		if err == nil {
			metrics.EnvelopesSent.Inc()
			return
		}
		lastErr = err
		if !retryable {
			break
		}
		metrics.SendRetries.Inc()
		if attempt < t.maxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	metrics.EventsDropped.WithLabelValues("send_failed").Inc()
	t.logger.Error("dropping envelope after send failures",
		logging.Project(out.project),
		logging.Attempt(t.maxRetries),
		logging.Error(lastErr))
}

// post performs one delivery attempt. The boolean reports whether a
// failure is transient (network error, 429, 5xx).
func (t *HTTPTransport) post(out *outbound) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%d/envelope", t.relayURL, out.project)
	resp, err := t.httpClient.Post(url, "application/json", bytes.NewReader(out.data))
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("relay responded %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("relay rejected envelope: %d", resp.StatusCode)
	}
}
