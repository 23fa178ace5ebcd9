package domain

import (
	"time"

	"github.com/kasuboski/reelwatch/pkg/quality"
)

// Release is one indexer-supplied candidate, identified by (IndexerID, GUID).
// Not persisted until grabbed.
type Release struct {
	IndexerID    int64
	GUID         string
	Title        string
	Size         int64
	Seeders      *int
	Leechers     *int
	PublishedAt  time.Time
	Freeleech    bool
	Internal     bool
	Scene        bool
	InfoHash     string
	DownloadURL  string

	// ID match alternative to the title+year heuristic, when the indexer's
	// payload carries one. Zero/empty means "not supplied", not "no match".
	TMDBID *int64
	IMDBID string

	// Derived by the parser/decision engine, not supplied by the indexer.
	Quality         quality.Quality
	ReleaseGroup    string
	Language        string
	MatchedFormats  []int64
	Score           int
	Year            int
}

// Key identifies a Release for blocklist and dedup purposes.
func (r Release) Key() (indexerID int64, guid string) {
	return r.IndexerID, r.GUID
}

// QueueStatus is the QueueItem state machine's state.
type QueueStatus string

const (
	QueueQueued     QueueStatus = "queued"
	QueueDownloading QueueStatus = "downloading"
	QueuePaused     QueueStatus = "paused"
	QueueStalled    QueueStatus = "stalled"
	QueueCompleted  QueueStatus = "completed"
	QueueSeeding    QueueStatus = "seeding"
	QueueFailed     QueueStatus = "failed"
	QueueCancelled  QueueStatus = "cancelled"
)

// QueueItem is a release dispatched to a download client.
type QueueItem struct {
	ID               int64
	MovieID          int64
	IndexerID        int64
	ReleaseTitle     string
	ReleaseGUID      string
	DownloadClientID string // the client's own handle, e.g. torrent hash
	Status           QueueStatus
	Progress         float64
	BytesDownloaded  int64
	BytesUploaded    int64
	DownloadSpeed    int64
	UploadSpeed      int64
	ETA              *time.Duration
	Peers            int
	RetryCount       int
	MaxRetries       int
	LastError        string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// BlockReason is the error taxonomy driving retry policy and blocklist TTL
//
type BlockReason string

const (
	ReasonConnectionTimeout  BlockReason = "connection_timeout"
	ReasonNetworkError       BlockReason = "network_error"
	ReasonServerError        BlockReason = "server_error"
	ReasonRateLimited        BlockReason = "rate_limited"
	ReasonAuthenticationFailed BlockReason = "authentication_failed"
	ReasonPermissionDenied   BlockReason = "permission_denied"
	ReasonParseError         BlockReason = "parse_error"
	ReasonDownloadStalled    BlockReason = "download_stalled"
	ReasonHashMismatch       BlockReason = "hash_mismatch"
	ReasonCorruptedDownload  BlockReason = "corrupted_download"
	ReasonDownloadClientError BlockReason = "download_client_error"
	ReasonDiskFull           BlockReason = "disk_full"
	ReasonQualityRejected    BlockReason = "quality_rejected"
	ReasonSizeRejected       BlockReason = "size_rejected"
	ReasonExclusionMatched   BlockReason = "exclusion_matched"
	ReasonManuallyRejected   BlockReason = "manually_rejected"
	ReasonReleasePurged      BlockReason = "release_purged"
	ReasonImportUnsupportedFormat      BlockReason = "import_unsupported_format"
	ReasonImportFileAlreadyExists      BlockReason = "import_file_already_exists"
	ReasonImportFileMoveError          BlockReason = "import_file_move_error"
	ReasonImportDirectoryCreationFailed BlockReason = "import_directory_creation_failed"
	ReasonImportQualityAnalysisFailed  BlockReason = "import_quality_analysis_failed"
	ReasonImportMediaInfoFailed        BlockReason = "import_media_info_failed"
	ReasonImportFilenameParseFailed    BlockReason = "import_filename_parse_failed"
	ReasonMismatchedMovie    BlockReason = "mismatched_movie"
	ReasonCircuitOpen        BlockReason = "circuit_open"
	ReasonRateLimitTimeout   BlockReason = "rate_limit_timeout"
)

// BlocklistEntry records a (release_guid, indexer) that should not be
// retried until BlockedUntil.
type BlocklistEntry struct {
	IndexerID    int64
	ReleaseGUID  string
	Reason       BlockReason
	Detail       string
	BlockedUntil time.Time
	RetryCount   int
	MovieID      *int64
	ReleaseTitle string
	CreatedAt    time.Time
}

// DeadLetterKind identifies the subsystem that produced a DeadLetter.
type DeadLetterKind string

const (
	DeadLetterDownload DeadLetterKind = "download"
	DeadLetterImport   DeadLetterKind = "import"
	DeadLetterSearch   DeadLetterKind = "search"
)

// DeadLetterStatus is the manual-replay lifecycle of a DeadLetter.
type DeadLetterStatus string

const (
	DeadLetterFailed   DeadLetterStatus = "failed"
	DeadLetterRetrying DeadLetterStatus = "retrying"
	DeadLetterResolved DeadLetterStatus = "resolved"
	DeadLetterIgnored  DeadLetterStatus = "ignored"
)

// DeadLetter is an item that permanently failed after exhausting retries
//
type DeadLetter struct {
	ID           int64
	Kind         DeadLetterKind
	LastError    string
	ErrorHistory []string
	Payload      []byte
	Status       DeadLetterStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SceneGroup is a reputation record keyed by parsed release group, used as
// input to decision scoring.
type SceneGroup struct {
	Name              string
	Reputation        int // 0..100
	Confidence        float64
	ReleaseCount       int64
	FreeleechShare     float64
	ResolutionCounts   map[string]int64
	CodecCounts        map[string]int64
	SourceCounts       map[string]int64
	LastSeen           time.Time
}
