package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransportForURL(url string, maxRetries int) *HTTPTransport {
	return NewHTTPTransport(HTTPTransportOptions{
		RelayURL:     url,
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
	})
}

func TestTransportDeliversEnvelope(t *testing.T) {
	var requests atomic.Int64
	var gotPath atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		gotPath.Store(r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 3)
	defer tr.Close()

	tr.Send(1, []byte(`{"event_id":"x"}`))
	require.True(t, tr.Flush(2*time.Second))

	assert.Equal(t, int64(1), requests.Load())
	assert.Equal(t, "/api/v1/projects/1/envelope", gotPath.Load())
}

func TestTransportRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 3)
	defer tr.Close()

	tr.Send(1, []byte(`{}`))
	require.True(t, tr.Flush(2*time.Second))

	assert.Equal(t, int64(3), requests.Load())
}

func TestTransportDropsAfterRetryCeiling(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 2)
	defer tr.Close()

	tr.Send(1, []byte(`{}`))

	// Flush still succeeds: the envelope was handled (dropped), not stuck.
	require.True(t, tr.Flush(2*time.Second))
	assert.Equal(t, int64(2), requests.Load())
}

func TestTransportDoesNotRetryPermanentRejection(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 5)
	defer tr.Close()

	tr.Send(1, []byte(`{}`))
	require.True(t, tr.Flush(2*time.Second))

	assert.Equal(t, int64(1), requests.Load())
}

func TestFlushTimesOutOnSlowServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	defer close(release)

	tr := newTransportForURL(srv.URL, 1)

	tr.Send(1, []byte(`{}`))
	assert.False(t, tr.Flush(50*time.Millisecond))
}

func TestFlushOrderingGuarantee(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 3)
	defer tr.Close()

	for i := 0; i < 10; i++ {
		tr.Send(1, []byte(`{}`))
	}
	require.True(t, tr.Flush(5*time.Second))

	// Everything submitted before the flush must have been attempted.
	assert.Equal(t, int64(10), requests.Load())
}

func TestSendAfterCloseIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := newTransportForURL(srv.URL, 1)
	tr.Close()

	tr.Send(1, []byte(`{}`))
	assert.True(t, tr.Flush(time.Second))
}
