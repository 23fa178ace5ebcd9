// Package downloadclient defines the download-client capability contract
// and wraps concrete backends (torrent, usenet) in a monotonic-progress
// guarantee the scheduler's reconciliation loop relies on: progress must
// never be reported lower than a prior poll while a download is in the
// Downloading state.
package downloadclient

import (
	"context"
	"sync"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

// Handle is the backend's own identifier for an in-flight download
// (an info hash for torrents, an nzo id for usenet).
type Handle string

// Info is a point-in-time snapshot of one download.
type Info struct {
	Handle          Handle
	Name            string
	Status          domain.QueueStatus
	Progress        float64 // fraction, 0..1
	Size            int64
	BytesDownloaded int64
	DownloadSpeed   int64
	UploadSpeed     int64
	Peers           int
	FilePaths       []string
	ErrorDetail     string
}

// Client is the capability contract every download backend satisfies.
type Client interface {
	Add(ctx context.Context, downloadURL, category string) (Handle, error)
	Status(ctx context.Context, handle Handle) (Info, error)
	Remove(ctx context.Context, handle Handle, deleteData bool) error
	Pause(ctx context.Context, handle Handle) error
	Resume(ctx context.Context, handle Handle) error
}

// MonotonicClient wraps a Client so that Status never reports a Progress
// lower than a previous observation for the same handle while the item
// remains in QueueDownloading. A backend that reports a spurious drop
// (e.g. a stats reset) is clamped rather than surfaced.
type MonotonicClient struct {
	Client
	mu   sync.Mutex
	seen map[Handle]float64
}

// NewMonotonicClient wraps an existing Client implementation.
func NewMonotonicClient(c Client) *MonotonicClient {
	return &MonotonicClient{Client: c, seen: map[Handle]float64{}}
}

func (m *MonotonicClient) Status(ctx context.Context, handle Handle) (Info, error) {
	info, err := m.Client.Status(ctx, handle)
	if err != nil {
		return info, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if info.Status == domain.QueueDownloading {
		if prior, ok := m.seen[handle]; ok && info.Progress < prior {
			info.Progress = prior
		}
		m.seen[handle] = info.Progress
	} else {
		delete(m.seen, handle)
	}

	return info, nil
}
