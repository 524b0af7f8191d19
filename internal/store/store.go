// Package store provides the read/write side of event persistence.
// Writes come from the ingest consumer; reads are keyed by
// (project, event id) and are eventually consistent with writes.
package store

import (
	"context"
	"errors"

	"github.com/faultline-io/faultline/pkg/event"
)

// ErrNotFound is returned by GetByID when the event is not (yet)
// visible. Callers poll with WaitForEvent rather than treating this as
// terminal.
var ErrNotFound = errors.New("event not found")

// Store persists and looks up events.
type Store interface {
	// Save writes the event under its (project, id) key. Saved events
	// are immutable; a second save of the same key is an overwrite with
	// identical content and is harmless.
	Save(ctx context.Context, ev *event.Event) error

	// GetByID returns the event or ErrNotFound. Read-after-write is not
	// guaranteed: a freshly saved event may not be visible yet.
	GetByID(ctx context.Context, project int, id event.ID) (*event.Event, error)
}
