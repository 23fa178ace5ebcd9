package blocklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kasuboski/reelwatch/pkg/blocklist/mocks"
	"github.com/kasuboski/reelwatch/pkg/domain"
)

func TestRetryable_PermanentNeverRetries(t *testing.T) {
	assert.False(t, Retryable(domain.ReasonQualityRejected, 0))
}

func TestRetryable_TransientWithinBudget(t *testing.T) {
	assert.True(t, Retryable(domain.ReasonNetworkError, 1))
	assert.False(t, Retryable(domain.ReasonNetworkError, 4))
}

func TestDelay_HonorsRetryAfter(t *testing.T) {
	d := Delay(domain.ReasonRateLimited, 1, 45*time.Second)
	assert.Equal(t, 45*time.Second, d)
}

func TestDelay_ExpBackoffGrowsWithAttempt(t *testing.T) {
	d1 := Delay(domain.ReasonConnectionTimeout, 1, 0)
	d3 := Delay(domain.ReasonConnectionTimeout, 3, 0)
	// jitter is +/-20%, but exponential growth dominates across two doublings
	assert.Greater(t, d3, d1)
}

func TestService_IsBlocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := New(store, func() time.Time { return now })

	store.EXPECT().Get(gomock.Any(), int64(1), "guid-1").Return(&domain.BlocklistEntry{
		BlockedUntil: now.Add(time.Hour),
	}, nil)

	blocked, err := svc.IsBlocked(context.Background(), 1, "guid-1")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestService_IsBlocked_Expired(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := New(store, func() time.Time { return now })

	store.EXPECT().Get(gomock.Any(), int64(1), "guid-1").Return(&domain.BlocklistEntry{
		BlockedUntil: now.Add(-time.Hour),
	}, nil)

	blocked, err := svc.IsBlocked(context.Background(), 1, "guid-1")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestService_Add(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := New(store, func() time.Time { return now })

	store.EXPECT().Upsert(gomock.Any(), gomock.AssignableToTypeOf(domain.BlocklistEntry{})).
		DoAndReturn(func(_ context.Context, entry domain.BlocklistEntry) error {
			assert.Equal(t, domain.ReasonServerError, entry.Reason)
			assert.True(t, entry.BlockedUntil.After(now))
			return nil
		})

	err := svc.Add(context.Background(), 1, "guid-1", domain.ReasonServerError, "500", nil, "Some.Release", 1, 0)
	require.NoError(t, err)
}

func TestService_Add_UnknownReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	svc := New(store, nil)

	err := svc.Add(context.Background(), 1, "guid-1", domain.BlockReason("made_up"), "", nil, "", 1, 0)
	assert.Error(t, err)
}

func TestService_Cleanup(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := New(store, func() time.Time { return now })

	store.EXPECT().DeleteExpired(gomock.Any(), now).Return(int64(3), nil)

	n, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
