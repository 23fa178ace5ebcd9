// Package resilience wraps external-service calls in the deadline →
// circuit breaker → rate limiter → retry pipeline.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kasuboski/reelwatch/pkg/blocklist"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/machine"
)

// Sentinel errors surfaced by the pipeline itself, independent of the
// wrapped call's own error.
var (
	ErrCircuitOpen      = errors.New("resilience: circuit open")
	ErrRateLimitTimeout = errors.New("resilience: rate limit wait exceeded deadline")
	ErrDeadlineExceeded = errors.New("resilience: overall deadline exceeded")
)

// BreakerState is one of the three circuit breaker states.
type BreakerState string

const (
	Closed   BreakerState = "closed"
	Open     BreakerState = "open"
	HalfOpen BreakerState = "half_open"
)

var breakerTransitions = []machine.Allowable[BreakerState]{
	machine.From(Closed).To(Open),
	machine.From(Open).To(HalfOpen),
	machine.From(HalfOpen).To(Closed, Open),
}

// StateChangeFunc is invoked whenever the breaker transitions, for event
// emission: state transitions emit events for observability.
type StateChangeFunc func(endpoint string, from, to BreakerState)

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures to trip Closed->Open
	SuccessThreshold int           // consecutive probe successes to close HalfOpen->Closed
	RecoveryTimeout  time.Duration // Open->HalfOpen after this elapses
	OnStateChange    StateChangeFunc
}

// CircuitBreaker guards one external endpoint.
type CircuitBreaker struct {
	mu                  sync.Mutex
	endpoint            string
	cfg                 BreakerConfig
	state               BreakerState
	consecutiveFailures int
	consecutiveSuccess  int
	openedAt            time.Time
}

// NewCircuitBreaker constructs a breaker starting Closed.
func NewCircuitBreaker(endpoint string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &CircuitBreaker{endpoint: endpoint, cfg: cfg, state: Closed}
}

// Allow reports whether a call may proceed, advancing Open->HalfOpen when
// the recovery timeout has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && time.Since(b.openedAt) >= b.cfg.RecoveryTimeout {
		b.transition(HalfOpen)
	}

	return b.state != Open
}

// RecordSuccess reports a successful call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.consecutiveSuccess++
		if b.consecutiveSuccess >= b.cfg.SuccessThreshold {
			b.transition(Closed)
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

// RecordFailure reports a failed call.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.transition(Open)
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(Open)
		}
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition validates and applies a state change; callers must hold mu.
func (b *CircuitBreaker) transition(to BreakerState) {
	m := machine.New(b.state, breakerTransitions...)
	if err := m.ToState(to); err != nil {
		return
	}
	from := b.state
	b.state = to
	b.consecutiveFailures = 0
	b.consecutiveSuccess = 0
	if to == Open {
		b.openedAt = time.Now()
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.endpoint, from, to)
	}
}

// RetryClassifier maps an error from the wrapped call to a blocklist
// reason, so retry eligibility and backoff follow the blocklist policy table.
// Implementations live alongside each capability client (indexer,
// download, metadata), which know how to interpret their own errors.
type RetryClassifier func(err error) domain.BlockReason

// Policy bundles the resilience knobs for one endpoint.
type Policy struct {
	Endpoint        string
	Breaker         *CircuitBreaker
	Limiter         *rate.Limiter
	RequestTimeout  time.Duration // per-attempt deadline
	OverallBudget   time.Duration // deadline across all retries
	Classify        RetryClassifier
	// Backoff overrides the default blocklist.Delay lookup; tests inject a
	// zero-delay function to avoid real sleeps.
	Backoff func(reason domain.BlockReason, attempt int) time.Duration
}

// NewLimiter builds a per-endpoint token-bucket limiter with configurable
// rate and burst.
func NewLimiter(ratePerSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// Call executes fn through deadline -> circuit breaker -> rate limiter ->
// retry, outermost first.
func Call[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if p.OverallBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.OverallBudget)
		defer cancel()
	}

	log := logger.FromCtx(ctx)

	attempt := 0
	for {
		attempt++

		if p.Breaker != nil && !p.Breaker.Allow() {
			return zero, ErrCircuitOpen
		}

		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return zero, ErrRateLimitTimeout
				}
				return zero, err
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.RequestTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.RequestTimeout)
		}

		result, err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			if p.Breaker != nil {
				p.Breaker.RecordSuccess()
			}
			return result, nil
		}

		if p.Breaker != nil {
			p.Breaker.RecordFailure()
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}

		reason := domain.ReasonNetworkError
		if p.Classify != nil {
			reason = p.Classify(err)
		}

		if !blocklist.Retryable(reason, attempt) {
			return zero, err
		}

		backoff := p.Backoff
		if backoff == nil {
			backoff = func(reason domain.BlockReason, attempt int) time.Duration {
				return blocklist.Delay(reason, attempt, 0)
			}
		}
		delay := backoff(reason, attempt)
		log.Debugw("retrying after failure", "endpoint", p.Endpoint, "attempt", attempt, "reason", reason, "delay", delay)

		select {
		case <-ctx.Done():
			return zero, ErrDeadlineExceeded
		case <-time.After(delay):
		}
	}
}
