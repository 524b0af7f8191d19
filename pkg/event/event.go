// Package event defines the error-event model shared by the SDK client,
// the relay and the ingest pipeline.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is an opaque event identifier: 32 lowercase hex characters.
// Callers may assign their own; NewID generates one otherwise.
type ID string

// NewID returns a fresh event identifier.
func NewID() ID {
	return ID(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// Valid reports whether id has the expected fixed-length hex format.
func (id ID) Valid() bool {
	if len(id) != 32 {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// LogEntry is the structured message payload of an event.
type LogEntry struct {
	Formatted string `json:"formatted"`
}

// Event is a single error/crash report. Once persisted it is immutable;
// the (Project, ID) pair is unique.
type Event struct {
	ID        ID                        `json:"event_id"`
	Project   int                       `json:"project"`
	Message   string                    `json:"message,omitempty"`
	Logentry  LogEntry                  `json:"logentry"`
	Timestamp time.Time                 `json:"timestamp"`
	Tags      map[string]string         `json:"tags,omitempty"`
	Extra     map[string]any            `json:"extra,omitempty"`
	Contexts  map[string]map[string]any `json:"contexts,omitempty"`
}

// New creates an event for a project with the message prepared as a
// formatted log entry.
func New(project int, message string) *Event {
	return &Event{
		Project:   project,
		Message:   message,
		Logentry:  LogEntry{Formatted: message},
		Timestamp: time.Now().UTC(),
	}
}

// SetTag sets a tag on the event, allocating the map on first use.
func (e *Event) SetTag(key, value string) {
	if e.Tags == nil {
		e.Tags = make(map[string]string)
	}
	e.Tags[key] = value
}

// SetExtra attaches an arbitrary annotation to the event.
func (e *Event) SetExtra(key string, value any) {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
}

// SetContext attaches a structured context to the event.
func (e *Event) SetContext(name string, values map[string]any) {
	if e.Contexts == nil {
		e.Contexts = make(map[string]map[string]any)
	}
	e.Contexts[name] = values
}

// Organization is a read-only projection of the organization an event
// belongs to, used for scope tagging.
type Organization struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}
