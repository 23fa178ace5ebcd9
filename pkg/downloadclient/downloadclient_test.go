package downloadclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

type fakeClient struct {
	progress []float64
	status   domain.QueueStatus
	call     int
}

func (f *fakeClient) Add(ctx context.Context, downloadURL, category string) (Handle, error) {
	return "h1", nil
}

func (f *fakeClient) Status(ctx context.Context, handle Handle) (Info, error) {
	p := f.progress[f.call]
	if f.call < len(f.progress)-1 {
		f.call++
	}
	return Info{Handle: handle, Status: f.status, Progress: p}, nil
}

func (f *fakeClient) Remove(ctx context.Context, handle Handle, deleteData bool) error { return nil }
func (f *fakeClient) Pause(ctx context.Context, handle Handle) error                   { return nil }
func (f *fakeClient) Resume(ctx context.Context, handle Handle) error                  { return nil }

func TestMonotonicClient_ClampsRegression(t *testing.T) {
	fake := &fakeClient{progress: []float64{0.10, 0.30, 0.05, 0.40}, status: domain.QueueDownloading}
	m := NewMonotonicClient(fake)
	ctx := context.Background()

	info, err := m.Status(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 0.10, info.Progress)

	info, err = m.Status(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 0.30, info.Progress)

	// backend reports a regression; the wrapper must clamp to the prior high.
	info, err = m.Status(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 0.30, info.Progress)

	info, err = m.Status(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 0.40, info.Progress)
}

func TestMonotonicClient_ResetsOnTerminalStatus(t *testing.T) {
	fake := &fakeClient{progress: []float64{50}, status: domain.QueueCompleted}
	m := NewMonotonicClient(fake)
	ctx := context.Background()

	info, err := m.Status(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, domain.QueueCompleted, info.Status)
	_, tracked := m.seen["h1"]
	assert.False(t, tracked, "terminal status should clear tracked progress")
}
