package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour})

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, Closed, b.State())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	b := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, RecoveryTimeout: time.Millisecond})

	b.RecordFailure()
	require.Equal(t, Open, b.State())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Millisecond})
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	b.Allow()
	require.Equal(t, HalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestCall_SucceedsOnFirstAttempt(t *testing.T) {
	policy := Policy{Endpoint: "test", Breaker: NewCircuitBreaker("test", BreakerConfig{})}

	result, err := Call(context.Background(), policy, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCall_CircuitOpenFailsFast(t *testing.T) {
	breaker := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	breaker.RecordFailure()

	policy := Policy{Endpoint: "test", Breaker: breaker}

	_, err := Call(context.Background(), policy, func(ctx context.Context) (string, error) {
		t.Fatal("should not be called when circuit is open")
		return "", nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCall_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	policy := Policy{
		Endpoint: "test",
		Classify: func(err error) domain.BlockReason { return domain.ReasonNetworkError },
		Backoff:  func(reason domain.BlockReason, attempt int) time.Duration { return 0 },
	}

	result, err := Call(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, calls)
}

func TestCall_PermanentReasonShortCircuits(t *testing.T) {
	calls := 0
	policy := Policy{
		Endpoint: "test",
		Classify: func(err error) domain.BlockReason { return domain.ReasonQualityRejected },
	}

	_, err := Call(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("rejected")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
