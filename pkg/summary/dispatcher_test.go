package summary_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/ports"
	"github.com/parleylabs/parley/pkg/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		Subject:               "math",
		TutorPersona:          "David",
		SessionLength:         "12m",
		TopicsCovered:         []string{"fractions"},
		StudentEngagement:     "high",
		LearningObjectivesMet: true,
		DifficultyLevel:       "intermediate",
		SessionID:             "call-42",
		Duration:              12 * time.Minute,
	}
}

func TestDispatcher_RemoteConfigured(t *testing.T) {
	var hits atomic.Int32
	var received domain.Report
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := summary.NewDispatcher(srv.URL)
	d.Dispatch(context.Background(), sampleReport())

	assert.Equal(t, int32(1), hits.Load(), "exactly one delivery per session")
	assert.Equal(t, "math", received.Subject)
	assert.Equal(t, "David", received.TutorPersona)
	assert.Equal(t, "call-42", received.SessionID)
}

func TestDispatcher_LocalFallback(t *testing.T) {
	var localCalls atomic.Int32
	local := ports.SummaryFunc(func(_ context.Context, report *domain.Report) error {
		localCalls.Add(1)
		assert.Equal(t, "call-42", report.SessionID)
		return nil
	})

	d := summary.NewDispatcher("", summary.WithSink(local))
	d.Dispatch(context.Background(), sampleReport())

	assert.Equal(t, int32(1), localCalls.Load())
}

func TestDispatcher_DeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := summary.NewDispatcher(srv.URL)

	// Must not panic or propagate: teardown goes on regardless.
	d.Dispatch(context.Background(), sampleReport())
}

func TestWebhookSink_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := summary.NewWebhookSink(srv.URL)
	err := sink.Deliver(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSink_Unreachable(t *testing.T) {
	sink := summary.NewWebhookSink("http://127.0.0.1:1/nope",
		summary.WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	err := sink.Deliver(context.Background(), sampleReport())
	assert.Error(t, err)
}

func TestLocalSink_Succeeds(t *testing.T) {
	sink := summary.NewLocalSink(nil)
	assert.NoError(t, sink.Deliver(context.Background(), sampleReport()))
}
