package store

import (
	"context"
	"fmt"
	"time"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/internal/metrics"
	"github.com/faultline-io/faultline/pkg/event"
)

// Manager is the persistence manager invoked by the ingest consumer.
// It wraps a Store, times the write and correlates failures back to the
// submission via the cache key.
type Manager struct {
	store  Store
	logger *logging.Logger
}

// NewManager creates a persistence manager over the given store.
func NewManager(s Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{store: s, logger: logger}
}

// Save persists one event under its cache key. Exactly one attempt is
// made; retries are a transport-level decision made by the caller.
func (m *Manager) Save(ctx context.Context, ev *event.Event, project int, cacheKey string) error {
	if ev.Project != project {
		return fmt.Errorf("event project %d does not match routing project %d", ev.Project, project)
	}

	start := time.Now()
	err := m.store.Save(ctx, ev)
	metrics.SaveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SaveFailures.Inc()
		return fmt.Errorf("save %s: %w", cacheKey, err)
	}

	m.logger.DebugContext(ctx, "event saved",
		logging.EventID(string(ev.ID)),
		logging.Project(project),
		logging.CacheKey(cacheKey))
	return nil
}
