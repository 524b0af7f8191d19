package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline-io/faultline/pkg/envelope"
	"github.com/faultline-io/faultline/pkg/event"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	flushed bool
}

func (f *fakeTransport) Send(project int, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
}

func (f *fakeTransport) Flush(timeout time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
	return true
}

func (f *fakeTransport) Close() {}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) last(t *testing.T) *envelope.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	env, err := envelope.Decode(f.sent[len(f.sent)-1])
	require.NoError(t, err)
	return env
}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	c, err := New(Config{Project: 1, Transport: transport})
	require.NoError(t, err)
	return c, transport
}

func TestNewRequiresProjectAndEndpoint(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Project: 1})
	require.Error(t, err)

	_, err = New(Config{Project: 1, Transport: &fakeTransport{}})
	require.NoError(t, err)
}

func TestCaptureEventAssignsID(t *testing.T) {
	c, transport := newTestClient(t)

	id := c.CaptureEvent(context.Background(), event.New(1, "internal client test"), nil)
	require.True(t, id.Valid())

	env := transport.last(t)
	assert.Equal(t, id, env.EventID)
	assert.Equal(t, 1, env.Project)
	assert.Equal(t, "internal client test", env.Event.Logentry.Formatted)
}

func TestCaptureEventKeepsExplicitID(t *testing.T) {
	c, transport := newTestClient(t)

	explicit := event.NewID()
	ev := event.New(1, "msg")
	ev.ID = explicit

	got := c.CaptureEvent(context.Background(), ev, nil)
	assert.Equal(t, explicit, got)
	assert.Equal(t, explicit, transport.last(t).EventID)
}

func TestCaptureEventMergesScopes(t *testing.T) {
	c, transport := newTestClient(t)
	c.GlobalScope().SetTag("environment", "test")
	c.GlobalScope().SetTag("layer", "global")

	request := NewScope()
	request.SetTag("layer", "request")
	request.SetExtra("request_id", "abc")

	ev := event.New(1, "msg")
	ev.SetTag("layer", "event")

	c.CaptureEvent(context.Background(), ev, request)

	sent := transport.last(t).Event
	assert.Equal(t, "test", sent.Tags["environment"])
	assert.Equal(t, "event", sent.Tags["layer"])
	assert.Equal(t, "abc", sent.Extra["request_id"])
}

func TestCaptureEventDefaultsProject(t *testing.T) {
	c, transport := newTestClient(t)

	ev := &event.Event{Message: "msg"}
	c.CaptureEvent(context.Background(), ev, nil)

	env := transport.last(t)
	assert.Equal(t, 1, env.Project)
	assert.Equal(t, "msg", env.Event.Logentry.Formatted)
	assert.False(t, env.Event.Timestamp.IsZero())
}

func TestCaptureDisabledContextSuppresses(t *testing.T) {
	c, transport := newTestClient(t)

	ctx := DisableCapture(context.Background())
	id := c.CaptureEvent(ctx, event.New(1, "internal failure"), nil)

	assert.Empty(t, id)
	assert.Zero(t, transport.count())
}

func TestCaptureMessage(t *testing.T) {
	c, transport := newTestClient(t)

	id := c.CaptureMessage(context.Background(), "hello", nil)
	require.True(t, id.Valid())
	assert.Equal(t, "hello", transport.last(t).Event.Message)
}

func TestFlushDelegatesToTransport(t *testing.T) {
	c, transport := newTestClient(t)
	assert.True(t, c.Flush(time.Second))
	assert.True(t, transport.flushed)
}
