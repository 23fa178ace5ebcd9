package importpipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	dio "github.com/kasuboski/reelwatch/pkg/io"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite"
)

func initStore(t *testing.T) *sqlite.SQLite {
	t.Helper()
	ctx := t.Context()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}

func seedMovieAndProfile(t *testing.T, store *sqlite.SQLite) (domain.Movie, int64) {
	t.Helper()
	ctx := t.Context()

	profileID, err := store.QualityProfiles().Create(ctx, quality.QualityProfile{
		Name:           "HD",
		Allowed:        []int64{8, 9},
		CutoffID:       9,
		UpgradeAllowed: true,
	})
	require.NoError(t, err)

	movie := domain.Movie{
		Title:            "The Matrix",
		Year:             1999,
		Monitored:        true,
		QualityProfileID: profileID,
	}
	id, err := store.Movies().Create(ctx, movie)
	require.NoError(t, err)
	movie.ID = id

	return movie, profileID
}

func writeFile(t *testing.T, path string, size int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(size))
}

func TestPipeline_Import_happyPath(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()

	sourceFile := filepath.Join(downloadDir, "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, sourceFile, 100*1024*1024)

	item := domain.QueueItem{MovieID: movie.ID, ReleaseTitle: "The.Matrix.1999.1080p.BluRay.x264-GROUPB", Status: domain.QueueCompleted}
	itemID, err := store.QueueItems().Create(ctx, item)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: libraryDir}, nil)

	result, err := pipeline.Import(ctx, itemID, sourceFile)
	require.NoError(t, err)
	assert.Equal(t, quality.Tiers[9].ID, result.Quality.ID) // Bluray-1080p
	assert.FileExists(t, result.AbsolutePath)
	assert.Contains(t, result.AbsolutePath, "The Matrix (1999)")

	updated, err := store.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.True(t, updated.HasFile)
	require.NotNil(t, updated.MovieFileID)

	history, err := store.QualityHistory().ListByMovie(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.QualityHistoryImport, history[0].Reason)

	updatedItem, err := store.QueueItems().Get(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueueCompleted, updatedItem.Status)
}

func TestPipeline_Import_scanPicksLargestFile(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()

	writeFile(t, filepath.Join(downloadDir, "sample.mkv"), 10*1024*1024)
	largest := filepath.Join(downloadDir, "The.Matrix.1999.1080p.WEB-DL.x264-GROUPA.mkv")
	writeFile(t, largest, 200*1024*1024)

	item := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID, err := store.QueueItems().Create(ctx, item)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: libraryDir, MinVideoBytes: 1024 * 1024}, nil)
	result, err := pipeline.Import(ctx, itemID, downloadDir)
	require.NoError(t, err)
	assert.Equal(t, int64(200*1024*1024), func() int64 {
		info, statErr := os.Stat(result.AbsolutePath)
		require.NoError(t, statErr)
		return info.Size()
	}())
	assert.Contains(t, result.AbsolutePath, "WEBDL-1080p")
}

func TestPipeline_Import_tooSmallFailsUnsupportedFormat(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	small := filepath.Join(downloadDir, "tiny.mkv")
	writeFile(t, small, 1024)

	item := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID, err := store.QueueItems().Create(ctx, item)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: t.TempDir()}, nil)
	_, err = pipeline.Import(ctx, itemID, small)
	require.Error(t, err)

	var impErr *Error
	require.ErrorAs(t, err, &impErr)
	assert.Equal(t, domain.ReasonImportUnsupportedFormat, impErr.Reason)
}

func TestPipeline_Import_existingFileSameSizeIsIdempotent(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()
	source := filepath.Join(downloadDir, "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, source, 100*1024*1024)

	item := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID, err := store.QueueItems().Create(ctx, item)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: libraryDir}, nil)
	first, err := pipeline.Import(ctx, itemID, source)
	require.NoError(t, err)

	// Reset the movie's has_file bookkeeping to force a second pass through
	// the algorithm rather than the short-circuit at the top of Import.
	m, err := store.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	m.HasFile = false
	m.MovieFileID = nil
	require.NoError(t, store.Movies().Update(ctx, movie.ID, m))

	item2 := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID2, err := store.QueueItems().Create(ctx, item2)
	require.NoError(t, err)

	second, err := pipeline.Import(ctx, itemID2, source)
	require.NoError(t, err)
	assert.Equal(t, first.AbsolutePath, second.AbsolutePath)
}

func TestPipeline_Import_existingDifferentFileFailsWithoutReplaceExisting(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()

	source1 := filepath.Join(downloadDir, "a", "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, source1, 100*1024*1024)
	source2 := filepath.Join(downloadDir, "b", "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, source2, 50*1024*1024)

	item1 := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID1, err := store.QueueItems().Create(ctx, item1)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: libraryDir}, nil)
	_, err = pipeline.Import(ctx, itemID1, source1)
	require.NoError(t, err)

	m, err := store.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	m.HasFile = false
	m.MovieFileID = nil
	require.NoError(t, store.Movies().Update(ctx, movie.ID, m))

	item2 := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID2, err := store.QueueItems().Create(ctx, item2)
	require.NoError(t, err)

	_, err = pipeline.Import(ctx, itemID2, source2)
	require.Error(t, err)
	var impErr *Error
	require.ErrorAs(t, err, &impErr)
	assert.Equal(t, domain.ReasonImportFileAlreadyExists, impErr.Reason)
}

func TestPipeline_Import_recyclesPreviousFile(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()

	source1 := filepath.Join(downloadDir, "first", "The.Matrix.1999.720p.WEBDL.x264-GROUPA.mkv")
	writeFile(t, source1, 60*1024*1024)

	item1 := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID1, err := store.QueueItems().Create(ctx, item1)
	require.NoError(t, err)

	pipeline := New(&dio.MediaFileSystem{}, store, Settings{RootFolder: libraryDir, ReplaceExisting: true}, nil)
	firstResult, err := pipeline.Import(ctx, itemID1, source1)
	require.NoError(t, err)
	assert.FileExists(t, firstResult.AbsolutePath)

	source2 := filepath.Join(downloadDir, "second", "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, source2, 100*1024*1024)

	item2 := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID2, err := store.QueueItems().Create(ctx, item2)
	require.NoError(t, err)

	secondResult, err := pipeline.Import(ctx, itemID2, source2)
	require.NoError(t, err)
	assert.NotEqual(t, firstResult.AbsolutePath, secondResult.AbsolutePath)

	history, err := store.QualityHistory().ListByMovie(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.QualityHistoryUpgrade, history[0].Reason)
	require.NotNil(t, history[0].OldQuality)
}

func TestPipeline_Import_crossDeviceFallsBackToCopy(t *testing.T) {
	// fakeCrossDeviceIO reports every pair of paths as being on different
	// filesystems, which is enough to exercise the copy branch without
	// needing two real mounted devices.
	store := initStore(t)
	ctx := t.Context()
	movie, _ := seedMovieAndProfile(t, store)

	downloadDir := t.TempDir()
	libraryDir := t.TempDir()
	source := filepath.Join(downloadDir, "The.Matrix.1999.1080p.BluRay.x264-GROUPB.mkv")
	writeFile(t, source, 100*1024*1024)

	item := domain.QueueItem{MovieID: movie.ID, Status: domain.QueueCompleted}
	itemID, err := store.QueueItems().Create(ctx, item)
	require.NoError(t, err)

	fakeIO := &fakeCrossDeviceIO{MediaFileSystem: &dio.MediaFileSystem{}}
	pipeline := New(fakeIO, store, Settings{RootFolder: libraryDir}, nil)
	result, err := pipeline.Import(ctx, itemID, source)
	require.NoError(t, err)
	assert.FileExists(t, result.AbsolutePath)
}

// fakeCrossDeviceIO forces IsSameFileSystem to report false, exercising the
// copy placement path deterministically regardless of the test host's
// actual filesystem layout.
type fakeCrossDeviceIO struct {
	*dio.MediaFileSystem
}

func (f *fakeCrossDeviceIO) IsSameFileSystem(source, target string) (bool, error) {
	return false, nil
}
