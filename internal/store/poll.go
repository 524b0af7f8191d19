package store

import (
	"context"
	"errors"
	"time"

	"github.com/faultline-io/faultline/pkg/event"
)

// ErrIngestTimeout is returned by WaitForEvent when the event did not
// become visible within the timeout budget.
var ErrIngestTimeout = errors.New("timed out waiting for event ingestion")

// WaitForEvent polls GetByID until the event becomes visible or the
// timeout elapses. The poll interval grows by half each round, capped
// at one second. This is the only cross-process synchronization
// primitive the read path offers; the store itself never blocks.
func WaitForEvent(ctx context.Context, s Store, project int, id event.ID, timeout, interval time.Duration) (*event.Event, error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		ev, err := s.GetByID(ctx, project, id)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, ErrNotFound) {
			if ctx.Err() != nil {
				return nil, ErrIngestTimeout
			}
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrIngestTimeout
		case <-time.After(interval):
		}

		interval += interval / 2
		if interval > time.Second {
			interval = time.Second
		}
	}
}
