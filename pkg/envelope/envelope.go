// Package envelope implements the wire container carrying one event from
// the SDK client through the relay to the ingest consumer.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faultline-io/faultline/pkg/event"
)

// ErrMalformed indicates an envelope that cannot be decoded or is
// missing required routing fields. This is fatal for the single
// message: it is logged and dropped, never requeued.
var ErrMalformed = errors.New("malformed envelope")

// Envelope wraps one event plus the routing metadata the consumer needs
// before it looks at the payload. An envelope is created by the
// submission client, consumed exactly once, and discarded after decode.
type Envelope struct {
	EventID event.ID     `json:"event_id"`
	Project int          `json:"project"`
	SentAt  time.Time    `json:"sent_at"`
	Event   *event.Event `json:"event"`
}

// New wraps an event into an envelope. The event must already carry an
// id and project.
func New(ev *event.Event) *Envelope {
	return &Envelope{
		EventID: ev.ID,
		Project: ev.Project,
		SentAt:  time.Now().UTC(),
		Event:   ev,
	}
}

// Encode serializes the envelope for transport. Extras and contexts are
// sanitized first so encoding never fails on arbitrary caller-supplied
// values: anything the wire format cannot represent is replaced with a
// string naming its type.
func Encode(env *Envelope) ([]byte, error) {
	if env.Event != nil {
		env.Event.Extra = sanitizeMap(env.Event.Extra)
		for name, ctx := range env.Event.Contexts {
			env.Event.Contexts[name] = sanitizeMap(ctx)
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		// Sanitization should have made this impossible.
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses an envelope off the wire. Missing or invalid event id
// or project yields ErrMalformed.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !env.EventID.Valid() {
		return nil, fmt.Errorf("%w: missing or invalid event id", ErrMalformed)
	}
	if env.Project <= 0 {
		return nil, fmt.Errorf("%w: missing or invalid project id", ErrMalformed)
	}
	if env.Event == nil {
		return nil, fmt.Errorf("%w: missing event payload", ErrMalformed)
	}

	// The envelope header is authoritative for routing.
	env.Event.ID = env.EventID
	env.Event.Project = env.Project

	return &env, nil
}

// sanitizeMap returns a copy of m with every non-representable value
// degraded to a descriptive string.
func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch tv := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return tv
	case map[string]any:
		return sanitizeMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = sanitizeValue(e)
		}
		return out
	}

	// Probe anything else; JSON rejects funcs, channels, complex
	// numbers, cycles and types with failing marshalers.
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("<non-serializable: %T>", v)
	}
	return v
}
