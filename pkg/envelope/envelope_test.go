package envelope

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline-io/faultline/pkg/event"
)

type notJSONSerializable struct {
	Ch chan int
}

func newTestEvent(t *testing.T) *event.Event {
	t.Helper()
	ev := event.New(1, "internal client test")
	ev.ID = event.NewID()
	return ev
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	ev := newTestEvent(t)
	ev.SetTag("environment", "test")
	ev.SetExtra("attempt", 3)

	data, err := Encode(New(ev))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, ev.ID, decoded.EventID)
	assert.Equal(t, 1, decoded.Project)
	assert.Equal(t, "internal client test", decoded.Event.Logentry.Formatted)
	assert.Equal(t, "test", decoded.Event.Tags["environment"])
}

func TestEncodeNeverFailsOnBadExtras(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "channel", value: make(chan int)},
		{name: "function", value: func() {}},
		{name: "struct holding channel", value: notJSONSerializable{Ch: make(chan int)}},
		{name: "complex number", value: complex(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := newTestEvent(t)
			ev.SetExtra("request", tt.value)

			data, err := Encode(New(ev))
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)

			got, ok := decoded.Event.Extra["request"].(string)
			require.True(t, ok, "degraded extra should be a string")
			assert.Contains(t, got, "non-serializable")
		})
	}
}

func TestEncodeDegradedExtraMentionsTypeName(t *testing.T) {
	ev := newTestEvent(t)
	ev.SetExtra("request", notJSONSerializable{Ch: make(chan int)})

	data, err := Encode(New(ev))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Contains(t, decoded.Event.Extra["request"], "notJSONSerializable")
}

func TestEncodeSanitizesNestedValues(t *testing.T) {
	ev := newTestEvent(t)
	ev.SetExtra("nested", map[string]any{
		"ok":  "fine",
		"bad": make(chan int),
	})
	ev.SetContext("runtime", map[string]any{"handle": func() {}})

	data, err := Encode(New(ev))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	nested, ok := decoded.Event.Extra["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fine", nested["ok"])
	assert.Contains(t, nested["bad"], "non-serializable")
	assert.Contains(t, decoded.Event.Contexts["runtime"]["handle"], "non-serializable")
}

func TestDecodeMalformed(t *testing.T) {
	valid := newTestEvent(t)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "not json", data: []byte("not json at all")},
		{name: "empty object", data: []byte("{}")},
		{name: "missing project", data: mustEncode(t, &Envelope{
			EventID: valid.ID, SentAt: time.Now(), Event: valid,
		})},
		{name: "bad event id", data: mustEncode(t, &Envelope{
			EventID: "short", Project: 1, SentAt: time.Now(), Event: valid,
		})},
		{name: "missing payload", data: mustEncode(t, &Envelope{
			EventID: valid.ID, Project: 1, SentAt: time.Now(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeHeaderIsAuthoritative(t *testing.T) {
	ev := newTestEvent(t)
	env := New(ev)
	// Simulate a client that filled the header but not the payload copy.
	env.Event.ID = ""
	env.Event.Project = 0

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.Event.ID)
	assert.Equal(t, env.Project, decoded.Event.Project)
}

func mustEncode(t *testing.T, env *Envelope) []byte {
	t.Helper()
	data, err := Encode(env)
	if err != nil {
		// Fall back for envelopes Encode refuses outright.
		require.Fail(t, "encode fixture", err.Error())
	}
	return data
}

func TestEncodePreservesScalarExtras(t *testing.T) {
	ev := newTestEvent(t)
	ev.SetExtra("count", 7)
	ev.SetExtra("ratio", 0.5)
	ev.SetExtra("flag", true)

	data, err := Encode(New(ev))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(data), "non-serializable"))
}
