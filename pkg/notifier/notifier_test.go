package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
)

type capturedRequest struct {
	Payload Payload
	Headers http.Header
	Method  string
}

func setupTestServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Headers = r.Header
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Payload))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestWebhookSink_Send(t *testing.T) {
	var captured capturedRequest
	server := setupTestServer(t, &captured)
	defer server.Close()

	sink := NewWebhookSink("test", Settings{URL: server.URL}, http.DefaultClient)
	err := sink.Send(context.Background(), Payload{EventType: "grab", MovieTitle: "Heat"})
	require.NoError(t, err)

	assert.Equal(t, "grab", captured.Payload.EventType)
	assert.Equal(t, "Heat", captured.Payload.MovieTitle)
	assert.Equal(t, "application/json", captured.Headers.Get("Content-Type"))
}

func TestWebhookSink_DefaultMethod(t *testing.T) {
	sink := NewWebhookSink("test", Settings{}, nil)
	assert.Equal(t, http.MethodPost, sink.settings.Method)
}

func TestWebhookSink_BasicAuth(t *testing.T) {
	var captured capturedRequest
	server := setupTestServer(t, &captured)
	defer server.Close()

	sink := NewWebhookSink("test", Settings{URL: server.URL, Username: "u", Password: "p"}, http.DefaultClient)
	require.NoError(t, sink.Send(context.Background(), Payload{EventType: "test"}))

	auth := captured.Headers.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "Basic "))
}

func TestWebhookSink_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sink := NewWebhookSink("test", Settings{URL: server.URL}, http.DefaultClient)
	err := sink.Send(context.Background(), Payload{EventType: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

type recordingSink struct {
	name     string
	received []Payload
}

func (r *recordingSink) Name() string { return r.name }
func (r *recordingSink) Send(ctx context.Context, payload Payload) error {
	r.received = append(r.received, payload)
	return nil
}

func TestService_Start_dispatchesBreakerTransition(t *testing.T) {
	bus := eventbus.New(4)
	svc := New("test-instance")
	sink := &recordingSink{name: "rec"}
	svc.Register(sink)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx, bus)

	bus.Publish(ctx, eventbus.Event{
		Kind: eventbus.KindBreakerTransition,
		Payload: eventbus.BreakerTransitionPayload{
			Endpoint: "prowlarr", From: "closed", To: "open",
		},
	})

	require.Eventually(t, func() bool { return len(sink.received) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "breakerTransition", sink.received[0].EventType)
	assert.Equal(t, "prowlarr", sink.received[0].Endpoint)
	assert.Equal(t, "open", sink.received[0].To)

	cancel()
}

func TestService_Start_dispatchesBlocklistAdded(t *testing.T) {
	bus := eventbus.New(4)
	svc := New("")
	sink := &recordingSink{name: "rec"}
	svc.Register(sink)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx, bus)

	bus.Publish(ctx, eventbus.Event{
		Kind:    eventbus.KindBlocklistAdded,
		Payload: domain.BlocklistEntry{Reason: domain.ReasonQualityRejected, Detail: "too small"},
	})

	require.Eventually(t, func() bool { return len(sink.received) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "blocklistAdded", sink.received[0].EventType)
	assert.Contains(t, sink.received[0].Message, "too small")

	cancel()
}

func TestService_Start_ignoresUnsubscribedKind(t *testing.T) {
	bus := eventbus.New(4)
	svc := New("test")
	sink := &recordingSink{name: "rec"}
	svc.Register(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, bus)

	bus.Publish(ctx, eventbus.Event{Kind: eventbus.KindSearchCompleted})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.received)
}
