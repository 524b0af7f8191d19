package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	require.Len(t, string(id), 32)
	assert.True(t, id.Valid())
	assert.NotContains(t, string(id), "-")

	// IDs must be unique across calls.
	assert.NotEqual(t, id, NewID())
}

func TestIDValid(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want bool
	}{
		{name: "generated id", id: NewID(), want: true},
		{name: "empty", id: "", want: false},
		{name: "too short", id: "abc123", want: false},
		{name: "uppercase hex", id: "ABCDEF00112233445566778899AABBCC", want: false},
		{name: "non-hex characters", id: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", want: false},
		{name: "explicit hex token", id: "4f8e2b1a9c0d4e5f8a7b6c5d4e3f2a1b", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Valid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	ev := New(1, "internal client test")

	assert.Equal(t, 1, ev.Project)
	assert.Equal(t, "internal client test", ev.Message)
	assert.Equal(t, "internal client test", ev.Logentry.Formatted)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Empty(t, ev.ID)
}

func TestEventSetters(t *testing.T) {
	ev := New(1, "msg")

	ev.SetTag("environment", "test")
	ev.SetExtra("request", 42)
	ev.SetContext("runtime", map[string]any{"name": "go"})

	assert.Equal(t, "test", ev.Tags["environment"])
	assert.Equal(t, 42, ev.Extra["request"])
	assert.Equal(t, "go", ev.Contexts["runtime"]["name"])
}
