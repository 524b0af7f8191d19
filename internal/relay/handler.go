// Package relay implements the network-facing intake that accepts
// encoded envelopes from SDK clients and forwards them onto the durable
// ingest queue.
package relay

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/faultline-io/faultline/common/httputil"
	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/common/messaging"
	"github.com/faultline-io/faultline/internal/metrics"
	"github.com/faultline-io/faultline/pkg/envelope"
)

// Handler accepts envelope submissions and publishes them to the queue.
type Handler struct {
	publisher    messaging.Publisher
	maxBodyBytes int64
	logger       *logging.Logger
}

// NewHandler creates a Handler. maxBodyBytes bounds accepted envelope
// size (default 1 MiB).
func NewHandler(publisher messaging.Publisher, maxBodyBytes int64, logger *logging.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		publisher:    publisher,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Submit handles POST /api/v1/projects/{project}/envelope. The body is
// one encoded envelope; on success the event id is acknowledged with
// 202 and the envelope is on the durable queue.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	project, err := strconv.Atoi(r.PathValue("project"))
	if err != nil || project <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodyBytes+1))
	if err != nil {
		metrics.RelayEnvelopesTotal.WithLabelValues("read_error").Inc()
		httputil.WriteError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if int64(len(body)) > h.maxBodyBytes {
		metrics.RelayEnvelopesTotal.WithLabelValues("too_large").Inc()
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "envelope too large")
		return
	}

	env, err := envelope.Decode(body)
	if err != nil {
		metrics.RelayEnvelopesTotal.WithLabelValues("malformed").Inc()
		h.logger.WarnContext(r.Context(), "rejecting malformed envelope",
			logging.Project(project), logging.Error(err))
		httputil.WriteError(w, http.StatusBadRequest, "malformed envelope")
		return
	}
	if env.Project != project {
		metrics.RelayEnvelopesTotal.WithLabelValues("project_mismatch").Inc()
		httputil.WriteError(w, http.StatusBadRequest, "envelope project does not match URL")
		return
	}

	subject := messaging.IngestEventSubject(project)
	start := time.Now()
	if err := h.publisher.Publish(r.Context(), subject, body); err != nil {
		metrics.RelayEnvelopesTotal.WithLabelValues("publish_error").Inc()
		h.logger.ErrorContext(r.Context(), "queue publish failed",
			logging.Subject(subject),
			logging.EventID(string(env.EventID)),
			logging.Error(err))
		httputil.WriteError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	metrics.RelayPublishDuration.Observe(time.Since(start).Seconds())
	metrics.RelayEnvelopesTotal.WithLabelValues("accepted").Inc()

	h.logger.DebugContext(r.Context(), "envelope relayed",
		logging.EventID(string(env.EventID)),
		logging.Project(project))
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"id": string(env.EventID),
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
