package client

import (
	"github.com/faultline-io/faultline/pkg/event"
)

// Scope is an ambient, caller-local collection of tags, extras and
// contexts merged into events at submission time. A Scope is owned by a
// single caller; it is not safe for concurrent mutation. Layering is
// explicit: global scope < request scope < values set on the event
// itself, last writer wins within a layer.
type Scope struct {
	tags     map[string]string
	extra    map[string]any
	contexts map[string]map[string]any
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		tags:     make(map[string]string),
		extra:    make(map[string]any),
		contexts: make(map[string]map[string]any),
	}
}

// SetTag sets a tag on the scope.
func (s *Scope) SetTag(key, value string) {
	s.tags[key] = value
}

// Tag returns the tag value and whether it is set.
func (s *Scope) Tag(key string) (string, bool) {
	v, ok := s.tags[key]
	return v, ok
}

// SetExtra attaches an arbitrary annotation to the scope.
func (s *Scope) SetExtra(key string, value any) {
	s.extra[key] = value
}

// SetContext attaches a structured context to the scope.
func (s *Scope) SetContext(name string, values map[string]any) {
	s.contexts[name] = values
}

// Context returns the named context and whether it is set.
func (s *Scope) Context(name string) (map[string]any, bool) {
	v, ok := s.contexts[name]
	return v, ok
}

// Clone returns an independent copy of the scope.
func (s *Scope) Clone() *Scope {
	c := NewScope()
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.extra {
		c.extra[k] = v
	}
	for name, ctx := range s.contexts {
		inner := make(map[string]any, len(ctx))
		for k, v := range ctx {
			inner[k] = v
		}
		c.contexts[name] = inner
	}
	return c
}

// merge overlays other onto s; other wins on conflicts.
func (s *Scope) merge(other *Scope) {
	if other == nil {
		return
	}
	for k, v := range other.tags {
		s.tags[k] = v
	}
	for k, v := range other.extra {
		s.extra[k] = v
	}
	for name, ctx := range other.contexts {
		s.contexts[name] = ctx
	}
}

// applyTo merges the scope into the event. Values already present on
// the event are call-site overrides and win over scope values.
func (s *Scope) applyTo(ev *event.Event) {
	for k, v := range s.tags {
		if _, exists := ev.Tags[k]; !exists {
			ev.SetTag(k, v)
		}
	}
	for k, v := range s.extra {
		if _, exists := ev.Extra[k]; !exists {
			ev.SetExtra(k, v)
		}
	}
	for name, ctx := range s.contexts {
		if _, exists := ev.Contexts[name]; !exists {
			ev.SetContext(name, ctx)
		}
	}
}
