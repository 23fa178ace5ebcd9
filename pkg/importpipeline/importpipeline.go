// Package importpipeline places a completed download under the media
// library and records it against its Movie. Built around the usual
// move/rename/copy/sanitizeFilename primitives, generalized from a single
// rename-or-copy move into the full eight-step algorithm: scan the
// largest video candidate,
// identify it and take its quality from the parsed file name (it is not
// compared against the grabbed release), render a
// destination path from a configurable template, place it with a
// hardlink-preferred/.partial-then-rename protocol, recycle any prior
// file, record the MovieFile, the Movie update and the QualityHistory
// entry, and ask the download client to clean up. Those three records are
// written one after another, not in a single transaction: a failure part
// way through leaves the earlier writes in place.
package importpipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kasuboski/reelwatch/pkg/decision"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	dio "github.com/kasuboski/reelwatch/pkg/io"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/parser"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

func localDirFS(path string) fs.FS { return os.DirFS(path) }

var videoExtensions = []string{".mp4", ".mkv", ".avi", ".m4v", ".ts", ".m2ts", ".wmv"}

// Error wraps an import failure with the BlockReason driving its retry
// policy, mirroring pkg/scheduler.HandlerError so the scheduler's retry/
// dead-letter classification applies uniformly to import failures too.
type Error struct {
	Reason domain.BlockReason
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("import: %s: %v", e.Reason, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Settings configures placement behavior.
type Settings struct {
	RootFolder      string
	MinVideoBytes   int64
	RecycleBinDir   string
	FolderTemplate  string
	FileTemplate    string
	ReplaceExisting bool
}

func (s Settings) withDefaults() Settings {
	if s.MinVideoBytes <= 0 {
		s.MinVideoBytes = 50 * 1024 * 1024
	}
	if s.RecycleBinDir == "" {
		s.RecycleBinDir = ".recycle"
	}
	if s.FolderTemplate == "" {
		s.FolderTemplate = "{title} ({year})"
	}
	if s.FileTemplate == "" {
		s.FileTemplate = "{title} ({year}) {quality}"
	}
	return s
}

// Pipeline runs the import algorithm against a library root using a
// storage.Store for persistence and a download client for post-import
// cleanup.
type Pipeline struct {
	io       dio.FileIO
	store    storage.Store
	settings Settings
	clients  map[int64]downloadclient.Client // keyed by indexer/client id, looked up per queue item
}

// New constructs a Pipeline. clients maps a QueueItem's download-client
// handle namespace (by indexer id, matching how GrabRelease dispatched it)
// to the Client used to clean up after a successful import.
func New(io dio.FileIO, store storage.Store, settings Settings, clients map[int64]downloadclient.Client) *Pipeline {
	return &Pipeline{io: io, store: store, settings: settings.withDefaults(), clients: clients}
}

// Result summarizes a completed import.
type Result struct {
	MovieFileID   int64
	AbsolutePath  string
	Quality       quality.Quality
	TitleMismatch bool // soft warning: parsed file name didn't match the queue item's movie
}

// Import runs the full algorithm for one completed download.
// Re-invoking for a queue item whose completion time is recorded, after a
// prior success, is a no-op that returns the existing MovieFile.
func (p *Pipeline) Import(ctx context.Context, queueItemID int64, localPath string) (Result, error) {
	log := logger.FromCtx(ctx).With("queue_item_id", queueItemID, "local_path", localPath)

	item, err := p.store.QueueItems().Get(ctx, queueItemID)
	if err != nil {
		return Result{}, fmt.Errorf("get queue item: %w", err)
	}

	movie, err := p.store.Movies().Get(ctx, item.MovieID)
	if err != nil {
		return Result{}, fmt.Errorf("get movie: %w", err)
	}

	// Already imported from this queue item since it completed (the movie's
	// file row is no older than the item's completion time); treat as a
	// successful re-invocation rather than reprocessing.
	if movie.HasFile && movie.MovieFileID != nil && item.CompletedAt != nil {
		if existing, err := p.store.MovieFiles().Get(ctx, *movie.MovieFileID); err == nil && !existing.CreatedAt.Before(*item.CompletedAt) {
			return Result{MovieFileID: existing.ID, AbsolutePath: existing.RelativePath, Quality: existing.Quality}, nil
		}
	}

	// 1. Scan
	candidate, err := p.scan(localPath)
	if err != nil {
		return Result{}, err
	}
	log = log.With("candidate", candidate)

	// 2. Identify
	descriptor, parseErr := parser.Parse(filepath.Base(candidate))
	titleMismatch := false
	if parseErr != nil {
		return Result{}, &Error{Reason: domain.ReasonImportFilenameParseFailed, Err: parseErr}
	}
	if !titleMatches(descriptor.Title, movie.Title) {
		titleMismatch = true
		log.Debugw("parsed file title does not match movie title, continuing", "parsed_title", descriptor.Title, "movie_title", movie.Title)
	}

	// 3. Quality verify
	fileQuality := descriptor.Quality
	var oldQuality *quality.Quality
	if movie.MovieFileID != nil {
		if prior, err := p.store.MovieFiles().Get(ctx, *movie.MovieFileID); err == nil {
			q := prior.Quality
			oldQuality = &q
		}
	}

	profile, err := p.store.QualityProfiles().Get(ctx, movie.QualityProfileID)
	if err != nil {
		return Result{}, fmt.Errorf("get quality profile: %w", err)
	}

	// 4. Destination
	destDir, destName, err := p.renderDestination(movie, fileQuality, descriptor, filepath.Ext(candidate))
	if err != nil {
		return Result{}, &Error{Reason: domain.ReasonImportDirectoryCreationFailed, Err: err}
	}
	destPath := filepath.Join(destDir, destName)

	if err := p.io.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, &Error{Reason: domain.ReasonImportDirectoryCreationFailed, Err: err}
	}

	// 5. Placement
	absolutePath, copied, err := p.place(ctx, candidate, destPath)
	if err != nil {
		var impErr *Error
		if ok := isImportError(err, &impErr); ok {
			return Result{}, impErr
		}
		return Result{}, &Error{Reason: domain.ReasonImportFileMoveError, Err: err}
	}

	// 6. Recycle previous
	if movie.MovieFileID != nil {
		if prior, err := p.store.MovieFiles().Get(ctx, *movie.MovieFileID); err == nil {
			if err := p.recycle(prior.RelativePath); err != nil {
				return Result{}, &Error{Reason: domain.ReasonImportFileMoveError, Err: fmt.Errorf("recycle previous file: %w", err)}
			}
		}
	}

	info, err := p.io.Stat(absolutePath)
	if err != nil {
		return Result{}, &Error{Reason: domain.ReasonImportMediaInfoFailed, Err: err}
	}

	score := decision.Score(domain.Release{
		Quality:     fileQuality,
		PublishedAt: time.Now(),
	}, decision.Input{Movie: movie, Profile: profile, Now: time.Now()})

	reason := domain.QualityHistoryImport
	if oldQuality != nil {
		reason = domain.QualityHistoryUpgrade
	}

	// 7. Commit
	file := domain.MovieFile{
		MovieID:      movie.ID,
		RelativePath: absolutePath,
		Size:         info.Size(),
		Quality:      fileQuality,
		CreatedAt:    time.Now(),
	}
	fileID, err := p.store.MovieFiles().Create(ctx, file)
	if err != nil {
		return Result{}, fmt.Errorf("persist movie file: %w", err)
	}

	movie.HasFile = true
	movie.MovieFileID = &fileID
	movie.UpdatedAt = time.Now()
	if err := p.store.Movies().Update(ctx, movie.ID, movie); err != nil {
		return Result{}, fmt.Errorf("update movie: %w", err)
	}

	if _, err := p.store.QualityHistory().Create(ctx, domain.QualityHistory{
		MovieID:    movie.ID,
		OldQuality: oldQuality,
		NewQuality: fileQuality,
		Reason:     reason,
		Score:      score,
		CreatedAt:  time.Now(),
	}); err != nil {
		return Result{}, fmt.Errorf("record quality history: %w", err)
	}

	item.Status = domain.QueueCompleted
	if err := p.store.QueueItems().Update(ctx, item.ID, item); err != nil {
		log.Debugw("failed to mark queue item completed after import", "error", err)
	}

	// 8. Cleanup
	p.cleanup(ctx, item, copied)

	log.Infow("import completed", "movie_file_id", fileID, "quality", fileQuality.Name)
	return Result{MovieFileID: fileID, AbsolutePath: absolutePath, Quality: fileQuality, TitleMismatch: titleMismatch}, nil
}

// scan enumerates video files under localPath (a file or directory) and
// returns the path of the largest one.
func (p *Pipeline) scan(localPath string) (string, error) {
	info, err := p.io.Stat(localPath)
	if err != nil {
		return "", &Error{Reason: domain.ReasonImportUnsupportedFormat, Err: err}
	}

	if !info.IsDir() {
		if !isVideoFile(localPath) || info.Size() < p.settings.MinVideoBytes {
			return "", &Error{Reason: domain.ReasonImportUnsupportedFormat, Err: fmt.Errorf("%s is not an eligible video file", localPath)}
		}
		return localPath, nil
	}

	type candidate struct {
		path string
		size int64
	}
	var found []candidate
	err = p.io.WalkDir(localDirFS(localPath), ".", func(relPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		full := filepath.Join(localPath, relPath)
		if !isVideoFile(full) {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() < p.settings.MinVideoBytes {
			return nil
		}
		found = append(found, candidate{path: full, size: fi.Size()})
		return nil
	})
	if err != nil {
		return "", &Error{Reason: domain.ReasonImportUnsupportedFormat, Err: err}
	}
	if len(found) == 0 {
		return "", &Error{Reason: domain.ReasonImportUnsupportedFormat, Err: fmt.Errorf("no eligible video file under %s", localPath)}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].size > found[j].size })
	if len(found) > 1 {
		largest, secondLargest := found[0].size, found[1].size
		if largest > 0 && float64(secondLargest)/float64(largest) > 0.9 {
			return "", &Error{Reason: domain.ReasonImportUnsupportedFormat, Err: fmt.Errorf("multiple comparable-size candidates under %s", localPath)}
		}
	}
	return found[0].path, nil
}

// place performs the hardlink-preferred, .partial-then-rename placement
// protocol below. The returned bool reports whether a copy
// (rather than a hardlink) was used, which governs whether cleanup asks
// the download client to delete the source data.
func (p *Pipeline) place(ctx context.Context, sourcePath, destPath string) (string, bool, error) {
	log := logger.FromCtx(ctx)

	if existing, err := p.io.Stat(destPath); err == nil {
		sourceInfo, serr := p.io.Stat(sourcePath)
		if serr == nil && existing.Size() == sourceInfo.Size() {
			log.Debug("destination already matches source, treating as idempotent re-import")
			return destPath, false, nil
		}
		if !p.settings.ReplaceExisting {
			return "", false, &Error{Reason: domain.ReasonImportFileAlreadyExists, Err: fmt.Errorf("%s already exists", destPath)}
		}
		if err := p.io.Remove(destPath); err != nil {
			return "", false, &Error{Reason: domain.ReasonImportFileAlreadyExists, Err: err}
		}
	}

	partialPath := destPath + ".partial"
	sameFS, err := p.io.IsSameFileSystem(filepath.Dir(destPath), sourcePath)
	if err != nil {
		return "", false, fmt.Errorf("determine filesystem: %w", err)
	}

	copied := !sameFS
	if sameFS {
		log.Debug("hardlinking into library")
		if err := p.io.Link(sourcePath, partialPath); err != nil {
			return "", false, fmt.Errorf("hardlink: %w", err)
		}
	} else {
		log.Debug("copying into library across devices")
		if _, err := p.io.Copy(sourcePath, partialPath); err != nil {
			return "", false, fmt.Errorf("copy: %w", err)
		}
	}

	if err := p.io.Rename(partialPath, destPath); err != nil {
		_ = p.io.Remove(partialPath)
		return "", false, fmt.Errorf("rename into place: %w", err)
	}

	return destPath, copied, nil
}

// recycle moves a displaced MovieFile into the recycle bin rather than
// deleting it.
func (p *Pipeline) recycle(path string) error {
	if path == "" {
		return nil
	}
	if _, err := p.io.Stat(path); err != nil {
		return nil // already gone, nothing to recycle
	}

	recycleDir := filepath.Join(p.settings.RootFolder, p.settings.RecycleBinDir)
	if err := p.io.MkdirAll(recycleDir, 0o755); err != nil {
		return err
	}

	dest := filepath.Join(recycleDir, fmt.Sprintf("%d-%s", time.Now().Unix(), filepath.Base(path)))
	same, err := p.io.IsSameFileSystem(recycleDir, path)
	if err != nil {
		return err
	}
	if same {
		return p.io.Rename(path, dest)
	}
	if _, err := p.io.Copy(path, dest); err != nil {
		return err
	}
	return p.io.Remove(path)
}

// cleanup asks the download client to remove the completed transfer
// never delete source data when a hardlink was used
// (it shares bytes with the library copy), only delete when a cross-device
// copy was used and ReplaceExisting configuration allows it. Failures are
// logged, not propagated: the import itself already committed successfully.
func (p *Pipeline) cleanup(ctx context.Context, item domain.QueueItem, copied bool) {
	log := logger.FromCtx(ctx)
	client, ok := p.clients[item.IndexerID]
	if !ok || client == nil {
		return
	}
	deleteData := copied && p.settings.ReplaceExisting
	if err := client.Remove(ctx, downloadclient.Handle(item.DownloadClientID), deleteData); err != nil {
		log.Warnw("failed to remove completed download from client", "error", err)
	}
}

func (p *Pipeline) renderDestination(movie domain.Movie, q quality.Quality, d parser.Descriptor, ext string) (dir, name string, err error) {
	folder := renderTemplate(p.settings.FolderTemplate, movie, q, d)
	file := renderTemplate(p.settings.FileTemplate, movie, q, d)
	return filepath.Join(p.settings.RootFolder, folder), file + ext, nil
}

var templateTokens = regexp.MustCompile(`\{(title|year|quality|release_group|edition)\}`)

func renderTemplate(tmpl string, movie domain.Movie, q quality.Quality, d parser.Descriptor) string {
	rendered := templateTokens.ReplaceAllStringFunc(tmpl, func(token string) string {
		switch token {
		case "{title}":
			return sanitizePathSegment(movie.Title)
		case "{year}":
			return strconv.Itoa(movie.Year)
		case "{quality}":
			return sanitizePathSegment(q.Name)
		case "{release_group}":
			return sanitizePathSegment(d.ReleaseGroup)
		case "{edition}":
			return sanitizePathSegment(d.Edition)
		default:
			return token
		}
	})
	return strings.TrimSpace(rendered)
}

var forbiddenPathChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
)

func sanitizePathSegment(s string) string {
	s = forbiddenPathChars.Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(strings.TrimSpace(s), "- ")
}

func isVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

func titleMatches(parsed, movieTitle string) bool {
	a := strings.ToLower(strings.TrimSpace(parsed))
	b := strings.ToLower(strings.TrimSpace(movieTitle))
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func isImportError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
