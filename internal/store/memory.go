package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faultline-io/faultline/pkg/event"
)

// MemoryStore is an in-process Store used by tests and embedded setups.
// A configurable visibility delay mimics the asynchronous index refresh
// of the OpenSearch backend: saved events stay invisible to GetByID
// until the delay has passed.
type MemoryStore struct {
	mu              sync.RWMutex
	events          map[string]*memoryEntry
	visibilityDelay time.Duration
}

type memoryEntry struct {
	ev        *event.Event
	visibleAt time.Time
}

// NewMemoryStore creates a store whose writes become readable after
// visibilityDelay (zero for immediate visibility).
func NewMemoryStore(visibilityDelay time.Duration) *MemoryStore {
	return &MemoryStore{
		events:          make(map[string]*memoryEntry),
		visibilityDelay: visibilityDelay,
	}
}

func memoryKey(project int, id event.ID) string {
	return fmt.Sprintf("%d/%s", project, id)
}

// Save stores the event; it becomes visible after the configured delay.
func (s *MemoryStore) Save(ctx context.Context, ev *event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[memoryKey(ev.Project, ev.ID)] = &memoryEntry{
		ev:        ev,
		visibleAt: time.Now().Add(s.visibilityDelay),
	}
	return nil
}

// GetByID returns the event once its visibility delay has elapsed.
func (s *MemoryStore) GetByID(ctx context.Context, project int, id event.ID) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.events[memoryKey(project, id)]
	if !ok || time.Now().Before(entry.visibleAt) {
		return nil, ErrNotFound
	}
	return entry.ev, nil
}

// Len reports how many events have been saved, visible or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
