// Package notifier implements a generic NotificationSink:
// a webhook dispatched on grab/import/dead-letter/breaker-transition
// events from pkg/eventbus. Grounded on SlipStream's
// internal/notification/webhook package (per-provider payload shape,
// basic-auth + custom-header support), trimmed to this module's
// movie-only domain and its event-bus event kinds; concrete providers
// (Discord, Slack, Pushover, email, Plex) are out of scope.
package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/logger"
)

// Settings configures a single webhook endpoint.
type Settings struct {
	URL            string
	Method         string
	Username       string
	Password       string
	Headers        map[string]string
	ApplicationURL string
}

// HTTPClient is the subset of *http.Client the sink needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sink is a single notification destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, payload Payload) error
}

// WebhookSink posts a JSON Payload to a configured URL.
type WebhookSink struct {
	name     string
	settings Settings
	http     HTTPClient
}

// NewWebhookSink builds a Sink. httpClient defaults to http.DefaultClient;
// settings.Method defaults to POST.
func NewWebhookSink(name string, settings Settings, httpClient HTTPClient) *WebhookSink {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if settings.Method == "" {
		settings.Method = http.MethodPost
	}
	return &WebhookSink{name: name, settings: settings, http: httpClient}
}

func (w *WebhookSink) Name() string { return w.name }

// Send marshals payload and sends it to the configured URL with the
// configured Method (POST by default).
func (w *WebhookSink) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.settings.Method, w.settings.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if w.settings.Username != "" && w.settings.Password != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(w.settings.Username + ":" + w.settings.Password))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	for k, v := range w.settings.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook %q returned status %d", w.name, resp.StatusCode)
	}
	return nil
}

// Payload is the webhook request body, one shape reused across event
// kinds with unused fields left zero.
type Payload struct {
	EventType      string    `json:"eventType"`
	InstanceName   string    `json:"instanceName"`
	ApplicationURL string    `json:"applicationUrl,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Message        string    `json:"message,omitempty"`

	MovieID    int64  `json:"movieId,omitempty"`
	MovieTitle string `json:"movieTitle,omitempty"`

	ReleaseTitle string `json:"releaseTitle,omitempty"`
	Quality      string `json:"quality,omitempty"`
	Indexer      int64  `json:"indexerId,omitempty"`

	QueueItemID int64  `json:"queueItemId,omitempty"`
	LocalPath   string `json:"localPath,omitempty"`

	DeadLetterID int64  `json:"deadLetterId,omitempty"`
	JobKind      string `json:"jobKind,omitempty"`

	Endpoint string `json:"endpoint,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// Service subscribes to the event bus and fans events out to every
// registered Sink, logging (not failing) delivery errors so one broken
// webhook never blocks another or the publisher.
type Service struct {
	sinks        []Sink
	instanceName string
}

// New constructs a Service with no sinks registered yet.
func New(instanceName string) *Service {
	if instanceName == "" {
		instanceName = "reelwatch"
	}
	return &Service{instanceName: instanceName}
}

// Register adds a Sink that every future event is delivered to.
func (s *Service) Register(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Run subscribes to bus and blocks delivering events to every sink until
// ctx is cancelled. Intended to run in its own goroutine; callers that need
// the subscription established before publishing should use Start instead.
func (s *Service) Run(ctx context.Context, bus *eventbus.Bus) {
	events := bus.Subscribe(
		eventbus.KindGrabCompleted,
		eventbus.KindImportCompleted,
		eventbus.KindJobDeadLettered,
		eventbus.KindBreakerTransition,
		eventbus.KindBlocklistAdded,
	)
	s.consume(ctx, events)
}

// Start subscribes to bus synchronously, then delivers events to every
// sink in a background goroutine until ctx is cancelled. Unlike Run, the
// subscription is guaranteed to be in place before Start returns, so a
// publish issued right after Start observes it.
func (s *Service) Start(ctx context.Context, bus *eventbus.Bus) {
	events := bus.Subscribe(
		eventbus.KindGrabCompleted,
		eventbus.KindImportCompleted,
		eventbus.KindJobDeadLettered,
		eventbus.KindBreakerTransition,
		eventbus.KindBlocklistAdded,
	)
	go s.consume(ctx, events)
}

func (s *Service) consume(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, ev eventbus.Event) {
	payload, ok := s.toPayload(ev)
	if !ok {
		return
	}

	log := logger.FromCtx(ctx)
	for _, sink := range s.sinks {
		if err := sink.Send(ctx, payload); err != nil {
			log.Debugw("notification delivery failed", "sink", sink.Name(), "event", ev.Kind, "error", err)
		}
	}
}

func (s *Service) toPayload(ev eventbus.Event) (Payload, bool) {
	base := Payload{
		InstanceName: s.instanceName,
		Timestamp:    time.Now(),
	}

	switch ev.Kind {
	case eventbus.KindGrabCompleted:
		base.EventType = "grab"
		if p, ok := ev.Payload.(eventbus.GrabCompletedPayload); ok {
			base.QueueItemID = p.QueueItemID
			base.MovieID = p.MovieID
			base.ReleaseTitle = p.ReleaseTitle
			base.Indexer = p.IndexerID
		}
	case eventbus.KindImportCompleted:
		base.EventType = "import"
		if p, ok := ev.Payload.(eventbus.QueueTransitionPayload); ok {
			base.QueueItemID = p.QueueItemID
			base.MovieID = p.MovieID
		}
	case eventbus.KindJobDeadLettered:
		base.EventType = "jobDeadLettered"
		if m, ok := ev.Payload.(map[string]any); ok {
			if id, ok := m["dead_letter_id"].(int64); ok {
				base.DeadLetterID = id
			}
			if kind, ok := m["kind"].(string); ok {
				base.JobKind = kind
			}
		}
	case eventbus.KindBreakerTransition:
		base.EventType = "breakerTransition"
		if p, ok := ev.Payload.(eventbus.BreakerTransitionPayload); ok {
			base.Endpoint = p.Endpoint
			base.From = p.From
			base.To = p.To
		}
	case eventbus.KindBlocklistAdded:
		base.EventType = "blocklistAdded"
		if entry, ok := ev.Payload.(domain.BlocklistEntry); ok {
			base.Message = string(entry.Reason) + ": " + entry.Detail
		}
	default:
		return Payload{}, false
	}

	return base, true
}
