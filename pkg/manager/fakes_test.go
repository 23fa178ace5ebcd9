package manager

import (
	"context"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/indexerclient"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// fakeIndexer is a hand-written test double for indexerclient.Client; the
// interface is small enough that a mockgen-generated mock would add nothing
// a literal struct doesn't already give us.
type fakeIndexer struct {
	results     []domain.Release
	searchErr   error
	health      indexerclient.HealthStatus
	healthErr   error
	capabilities indexerclient.Capabilities
	calls       int
}

func (f *fakeIndexer) Search(ctx context.Context, criteria indexerclient.SearchCriteria) ([]domain.Release, error) {
	f.calls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeIndexer) HealthCheck(ctx context.Context) (indexerclient.HealthStatus, error) {
	return f.health, f.healthErr
}

func (f *fakeIndexer) Capabilities(ctx context.Context) (indexerclient.Capabilities, error) {
	return f.capabilities, nil
}

func (f *fakeIndexer) RateLimits() indexerclient.RateLimits {
	return indexerclient.RateLimits{RequestsPerSecond: 1, Burst: 1}
}

// fakeDownloader is a hand-written test double for downloadclient.Client.
type fakeDownloader struct {
	addHandle downloadclient.Handle
	addErr    error
	status    downloadclient.Info
	statusErr error
	removed   []downloadclient.Handle
}

func (f *fakeDownloader) Add(ctx context.Context, downloadURL, category string) (downloadclient.Handle, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	if f.addHandle == "" {
		f.addHandle = "handle-1"
	}
	return f.addHandle, nil
}

func (f *fakeDownloader) Status(ctx context.Context, handle downloadclient.Handle) (downloadclient.Info, error) {
	if f.statusErr != nil {
		return downloadclient.Info{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeDownloader) Remove(ctx context.Context, handle downloadclient.Handle, deleteData bool) error {
	f.removed = append(f.removed, handle)
	return nil
}

func (f *fakeDownloader) Pause(ctx context.Context, handle downloadclient.Handle) error  { return nil }
func (f *fakeDownloader) Resume(ctx context.Context, handle downloadclient.Handle) error { return nil }

// fakeMetadata is a hand-written test double for metadataclient.Client.
type fakeMetadata struct {
	byID      map[int64]metadataclient.MovieMetadata
	lookupErr error
	calls     int
}

func (f *fakeMetadata) LookupByID(ctx context.Context, tmdbID int64) (metadataclient.MovieMetadata, error) {
	f.calls++
	if f.lookupErr != nil {
		return metadataclient.MovieMetadata{}, f.lookupErr
	}
	m, ok := f.byID[tmdbID]
	if !ok {
		return metadataclient.MovieMetadata{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeMetadata) lookupCalls() int { return f.calls }

func (f *fakeMetadata) Search(ctx context.Context, term string, year int) ([]metadataclient.MovieMetadata, error) {
	return nil, nil
}
