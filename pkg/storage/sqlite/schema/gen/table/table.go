//
// Hand-authored in the go-jet codegen shape; see schema/gen/model/model.go
// for the trimming rationale (no alias/prefix/suffix plumbing).
//

package table

import (
	"github.com/go-jet/jet/v2/sqlite"
)

type movieTable struct {
	sqlite.Table

	ID               sqlite.ColumnInteger
	TMDBID           sqlite.ColumnInteger
	IMDBID           sqlite.ColumnString
	Title            sqlite.ColumnString
	Year             sqlite.ColumnInteger
	Monitored        sqlite.ColumnBool
	QualityProfileID sqlite.ColumnInteger
	HasFile          sqlite.ColumnBool
	MovieFileID      sqlite.ColumnInteger
	Metadata         sqlite.ColumnString
	CreatedAt        sqlite.ColumnTimestamp
	UpdatedAt        sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var Movie = newMovieTable()

func newMovieTable() *movieTable {
	id := sqlite.IntegerColumn("id")
	tmdbID := sqlite.IntegerColumn("tmdb_id")
	imdbID := sqlite.StringColumn("imdb_id")
	title := sqlite.StringColumn("title")
	year := sqlite.IntegerColumn("year")
	monitored := sqlite.BoolColumn("monitored")
	profileID := sqlite.IntegerColumn("quality_profile_id")
	hasFile := sqlite.BoolColumn("has_file")
	movieFileID := sqlite.IntegerColumn("movie_file_id")
	metadata := sqlite.StringColumn("metadata")
	createdAt := sqlite.TimestampColumn("created_at")
	updatedAt := sqlite.TimestampColumn("updated_at")
	all := sqlite.ColumnList{id, tmdbID, imdbID, title, year, monitored, profileID, hasFile, movieFileID, metadata, createdAt, updatedAt}
	mutable := sqlite.ColumnList{tmdbID, imdbID, title, year, monitored, profileID, hasFile, movieFileID, metadata, createdAt, updatedAt}

	return &movieTable{
		Table:            sqlite.NewTable("", "movie", "", all...),
		ID:               id,
		TMDBID:           tmdbID,
		IMDBID:           imdbID,
		Title:            title,
		Year:             year,
		Monitored:        monitored,
		QualityProfileID: profileID,
		HasFile:          hasFile,
		MovieFileID:      movieFileID,
		Metadata:         metadata,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
		AllColumns:       all,
		MutableColumns:   mutable,
	}
}

type movieFileTable struct {
	sqlite.Table

	ID              sqlite.ColumnInteger
	MovieID         sqlite.ColumnInteger
	RelativePath    sqlite.ColumnString
	Size            sqlite.ColumnInteger
	QualityID       sqlite.ColumnInteger
	QualityName     sqlite.ColumnString
	MediaDurationMS sqlite.ColumnInteger
	MediaBitrate    sqlite.ColumnInteger
	MediaChannels   sqlite.ColumnString
	CreatedAt       sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var MovieFile = newMovieFileTable()

func newMovieFileTable() *movieFileTable {
	id := sqlite.IntegerColumn("id")
	movieID := sqlite.IntegerColumn("movie_id")
	relPath := sqlite.StringColumn("relative_path")
	size := sqlite.IntegerColumn("size")
	qualityID := sqlite.IntegerColumn("quality_id")
	qualityName := sqlite.StringColumn("quality_name")
	durationMS := sqlite.IntegerColumn("media_duration_ms")
	bitrate := sqlite.IntegerColumn("media_bitrate")
	channels := sqlite.StringColumn("media_channels")
	createdAt := sqlite.TimestampColumn("created_at")
	all := sqlite.ColumnList{id, movieID, relPath, size, qualityID, qualityName, durationMS, bitrate, channels, createdAt}
	mutable := sqlite.ColumnList{movieID, relPath, size, qualityID, qualityName, durationMS, bitrate, channels, createdAt}

	return &movieFileTable{
		Table:           sqlite.NewTable("", "movie_file", "", all...),
		ID:              id,
		MovieID:         movieID,
		RelativePath:    relPath,
		Size:            size,
		QualityID:       qualityID,
		QualityName:     qualityName,
		MediaDurationMS: durationMS,
		MediaBitrate:    bitrate,
		MediaChannels:   channels,
		CreatedAt:       createdAt,
		AllColumns:      all,
		MutableColumns:  mutable,
	}
}

type qualityProfileTable struct {
	sqlite.Table

	ID              sqlite.ColumnInteger
	Name            sqlite.ColumnString
	CutoffQualityID sqlite.ColumnInteger
	UpgradeAllowed  sqlite.ColumnBool
	MinSizeMB       sqlite.ColumnInteger
	MaxSizeMB       sqlite.ColumnInteger
	Language        sqlite.ColumnString

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var QualityProfile = newQualityProfileTable()

func newQualityProfileTable() *qualityProfileTable {
	id := sqlite.IntegerColumn("id")
	name := sqlite.StringColumn("name")
	cutoff := sqlite.IntegerColumn("cutoff_quality_id")
	upgrade := sqlite.BoolColumn("upgrade_allowed")
	minSize := sqlite.IntegerColumn("min_size_mb")
	maxSize := sqlite.IntegerColumn("max_size_mb")
	lang := sqlite.StringColumn("language")
	all := sqlite.ColumnList{id, name, cutoff, upgrade, minSize, maxSize, lang}
	mutable := sqlite.ColumnList{name, cutoff, upgrade, minSize, maxSize, lang}

	return &qualityProfileTable{
		Table:           sqlite.NewTable("", "quality_profile", "", all...),
		ID:              id,
		Name:            name,
		CutoffQualityID: cutoff,
		UpgradeAllowed:  upgrade,
		MinSizeMB:       minSize,
		MaxSizeMB:       maxSize,
		Language:        lang,
		AllColumns:      all,
		MutableColumns:  mutable,
	}
}

type qualityProfileAllowedTable struct {
	sqlite.Table

	ProfileID sqlite.ColumnInteger
	QualityID sqlite.ColumnInteger

	AllColumns sqlite.ColumnList
}

var QualityProfileAllowed = newQualityProfileAllowedTable()

func newQualityProfileAllowedTable() *qualityProfileAllowedTable {
	profileID := sqlite.IntegerColumn("profile_id")
	qualityID := sqlite.IntegerColumn("quality_id")
	all := sqlite.ColumnList{profileID, qualityID}

	return &qualityProfileAllowedTable{
		Table:      sqlite.NewTable("", "quality_profile_allowed", "", all...),
		ProfileID:  profileID,
		QualityID:  qualityID,
		AllColumns: all,
	}
}

type qualityProfileFormatScoreTable struct {
	sqlite.Table

	ProfileID      sqlite.ColumnInteger
	CustomFormatID sqlite.ColumnInteger
	Score          sqlite.ColumnInteger

	AllColumns sqlite.ColumnList
}

var QualityProfileFormatScore = newQualityProfileFormatScoreTable()

func newQualityProfileFormatScoreTable() *qualityProfileFormatScoreTable {
	profileID := sqlite.IntegerColumn("profile_id")
	formatID := sqlite.IntegerColumn("custom_format_id")
	score := sqlite.IntegerColumn("score")
	all := sqlite.ColumnList{profileID, formatID, score}

	return &qualityProfileFormatScoreTable{
		Table:          sqlite.NewTable("", "quality_profile_format_score", "", all...),
		ProfileID:      profileID,
		CustomFormatID: formatID,
		Score:          score,
		AllColumns:     all,
	}
}

type customFormatTable struct {
	sqlite.Table

	ID      sqlite.ColumnInteger
	Name    sqlite.ColumnString
	Score   sqlite.ColumnInteger
	Enabled sqlite.ColumnBool

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var CustomFormat = newCustomFormatTable()

func newCustomFormatTable() *customFormatTable {
	id := sqlite.IntegerColumn("id")
	name := sqlite.StringColumn("name")
	score := sqlite.IntegerColumn("score")
	enabled := sqlite.BoolColumn("enabled")
	all := sqlite.ColumnList{id, name, score, enabled}
	mutable := sqlite.ColumnList{name, score, enabled}

	return &customFormatTable{
		Table:          sqlite.NewTable("", "custom_format", "", all...),
		ID:             id,
		Name:           name,
		Score:          score,
		Enabled:        enabled,
		AllColumns:     all,
		MutableColumns: mutable,
	}
}

type customFormatSpecTable struct {
	sqlite.Table

	ID             sqlite.ColumnInteger
	CustomFormatID sqlite.ColumnInteger
	Kind           sqlite.ColumnString
	Value          sqlite.ColumnString
	Negate         sqlite.ColumnBool

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var CustomFormatSpec = newCustomFormatSpecTable()

func newCustomFormatSpecTable() *customFormatSpecTable {
	id := sqlite.IntegerColumn("id")
	formatID := sqlite.IntegerColumn("custom_format_id")
	kind := sqlite.StringColumn("kind")
	value := sqlite.StringColumn("value")
	negate := sqlite.BoolColumn("negate")
	all := sqlite.ColumnList{id, formatID, kind, value, negate}
	mutable := sqlite.ColumnList{formatID, kind, value, negate}

	return &customFormatSpecTable{
		Table:          sqlite.NewTable("", "custom_format_spec", "", all...),
		ID:             id,
		CustomFormatID: formatID,
		Kind:           kind,
		Value:          value,
		Negate:         negate,
		AllColumns:     all,
		MutableColumns: mutable,
	}
}

type queueItemTable struct {
	sqlite.Table

	ID               sqlite.ColumnInteger
	MovieID          sqlite.ColumnInteger
	IndexerID        sqlite.ColumnInteger
	ReleaseTitle     sqlite.ColumnString
	ReleaseGUID      sqlite.ColumnString
	DownloadClientID sqlite.ColumnInteger
	Status           sqlite.ColumnString
	Progress         sqlite.ColumnFloat
	BytesDownloaded  sqlite.ColumnInteger
	BytesUploaded    sqlite.ColumnInteger
	DownloadSpeed    sqlite.ColumnInteger
	UploadSpeed      sqlite.ColumnInteger
	ETASeconds       sqlite.ColumnInteger
	Peers            sqlite.ColumnInteger
	RetryCount       sqlite.ColumnInteger
	MaxRetries       sqlite.ColumnInteger
	LastError        sqlite.ColumnString
	CreatedAt        sqlite.ColumnTimestamp
	StartedAt        sqlite.ColumnTimestamp
	CompletedAt      sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var QueueItem = newQueueItemTable()

func newQueueItemTable() *queueItemTable {
	id := sqlite.IntegerColumn("id")
	movieID := sqlite.IntegerColumn("movie_id")
	indexerID := sqlite.IntegerColumn("indexer_id")
	releaseTitle := sqlite.StringColumn("release_title")
	releaseGUID := sqlite.StringColumn("release_guid")
	clientID := sqlite.IntegerColumn("download_client_id")
	status := sqlite.StringColumn("status")
	progress := sqlite.FloatColumn("progress")
	bytesDown := sqlite.IntegerColumn("bytes_downloaded")
	bytesUp := sqlite.IntegerColumn("bytes_uploaded")
	downSpeed := sqlite.IntegerColumn("download_speed")
	upSpeed := sqlite.IntegerColumn("upload_speed")
	eta := sqlite.IntegerColumn("eta_seconds")
	peers := sqlite.IntegerColumn("peers")
	retry := sqlite.IntegerColumn("retry_count")
	maxRetry := sqlite.IntegerColumn("max_retries")
	lastErr := sqlite.StringColumn("last_error")
	createdAt := sqlite.TimestampColumn("created_at")
	startedAt := sqlite.TimestampColumn("started_at")
	completedAt := sqlite.TimestampColumn("completed_at")
	all := sqlite.ColumnList{id, movieID, indexerID, releaseTitle, releaseGUID, clientID, status, progress, bytesDown, bytesUp, downSpeed, upSpeed, eta, peers, retry, maxRetry, lastErr, createdAt, startedAt, completedAt}
	mutable := sqlite.ColumnList{movieID, indexerID, releaseTitle, releaseGUID, clientID, status, progress, bytesDown, bytesUp, downSpeed, upSpeed, eta, peers, retry, maxRetry, lastErr, createdAt, startedAt, completedAt}

	return &queueItemTable{
		Table:            sqlite.NewTable("", "queue_item", "", all...),
		ID:               id,
		MovieID:          movieID,
		IndexerID:        indexerID,
		ReleaseTitle:     releaseTitle,
		ReleaseGUID:      releaseGUID,
		DownloadClientID: clientID,
		Status:           status,
		Progress:         progress,
		BytesDownloaded:  bytesDown,
		BytesUploaded:    bytesUp,
		DownloadSpeed:    downSpeed,
		UploadSpeed:      upSpeed,
		ETASeconds:       eta,
		Peers:            peers,
		RetryCount:       retry,
		MaxRetries:       maxRetry,
		LastError:        lastErr,
		CreatedAt:        createdAt,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		AllColumns:       all,
		MutableColumns:   mutable,
	}
}

type jobTable struct {
	sqlite.Table

	ID          sqlite.ColumnInteger
	Kind        sqlite.ColumnString
	Priority    sqlite.ColumnInteger
	Payload     sqlite.ColumnString
	Status      sqlite.ColumnString
	LeaseOwner  sqlite.ColumnString
	LeaseUntil  sqlite.ColumnTimestamp
	Attempts    sqlite.ColumnInteger
	MaxAttempts sqlite.ColumnInteger
	LastError   sqlite.ColumnString
	RunAfter    sqlite.ColumnTimestamp
	CreatedAt   sqlite.ColumnTimestamp
	UpdatedAt   sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var Job = newJobTable()

func newJobTable() *jobTable {
	id := sqlite.IntegerColumn("id")
	kind := sqlite.StringColumn("kind")
	priority := sqlite.IntegerColumn("priority")
	payload := sqlite.StringColumn("payload")
	status := sqlite.StringColumn("status")
	leaseOwner := sqlite.StringColumn("lease_owner")
	leaseUntil := sqlite.TimestampColumn("lease_until")
	attempts := sqlite.IntegerColumn("attempts")
	maxAttempts := sqlite.IntegerColumn("max_attempts")
	lastErr := sqlite.StringColumn("last_error")
	runAfter := sqlite.TimestampColumn("run_after")
	createdAt := sqlite.TimestampColumn("created_at")
	updatedAt := sqlite.TimestampColumn("updated_at")
	all := sqlite.ColumnList{id, kind, priority, payload, status, leaseOwner, leaseUntil, attempts, maxAttempts, lastErr, runAfter, createdAt, updatedAt}
	mutable := sqlite.ColumnList{kind, priority, payload, status, leaseOwner, leaseUntil, attempts, maxAttempts, lastErr, runAfter, createdAt, updatedAt}

	return &jobTable{
		Table:          sqlite.NewTable("", "job", "", all...),
		ID:             id,
		Kind:           kind,
		Priority:       priority,
		Payload:        payload,
		Status:         status,
		LeaseOwner:     leaseOwner,
		LeaseUntil:     leaseUntil,
		Attempts:       attempts,
		MaxAttempts:    maxAttempts,
		LastError:      lastErr,
		RunAfter:       runAfter,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		AllColumns:     all,
		MutableColumns: mutable,
	}
}

type blocklistEntryTable struct {
	sqlite.Table

	IndexerID    sqlite.ColumnInteger
	ReleaseGUID  sqlite.ColumnString
	Reason       sqlite.ColumnString
	Detail       sqlite.ColumnString
	BlockedUntil sqlite.ColumnTimestamp
	RetryCount   sqlite.ColumnInteger
	MovieID      sqlite.ColumnInteger
	ReleaseTitle sqlite.ColumnString
	CreatedAt    sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var BlocklistEntry = newBlocklistEntryTable()

func newBlocklistEntryTable() *blocklistEntryTable {
	indexerID := sqlite.IntegerColumn("indexer_id")
	releaseGUID := sqlite.StringColumn("release_guid")
	reason := sqlite.StringColumn("reason")
	detail := sqlite.StringColumn("detail")
	blockedUntil := sqlite.TimestampColumn("blocked_until")
	retryCount := sqlite.IntegerColumn("retry_count")
	movieID := sqlite.IntegerColumn("movie_id")
	releaseTitle := sqlite.StringColumn("release_title")
	createdAt := sqlite.TimestampColumn("created_at")
	all := sqlite.ColumnList{indexerID, releaseGUID, reason, detail, blockedUntil, retryCount, movieID, releaseTitle, createdAt}
	mutable := sqlite.ColumnList{reason, detail, blockedUntil, retryCount, movieID, releaseTitle, createdAt}

	return &blocklistEntryTable{
		Table:          sqlite.NewTable("", "blocklist_entry", "", all...),
		IndexerID:      indexerID,
		ReleaseGUID:    releaseGUID,
		Reason:         reason,
		Detail:         detail,
		BlockedUntil:   blockedUntil,
		RetryCount:     retryCount,
		MovieID:        movieID,
		ReleaseTitle:   releaseTitle,
		CreatedAt:      createdAt,
		AllColumns:     all,
		MutableColumns: mutable,
	}
}

type deadLetterTable struct {
	sqlite.Table

	ID           sqlite.ColumnInteger
	Kind         sqlite.ColumnString
	LastError    sqlite.ColumnString
	ErrorHistory sqlite.ColumnString
	Payload      sqlite.ColumnString
	Status       sqlite.ColumnString
	CreatedAt    sqlite.ColumnTimestamp
	UpdatedAt    sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var DeadLetter = newDeadLetterTable()

func newDeadLetterTable() *deadLetterTable {
	id := sqlite.IntegerColumn("id")
	kind := sqlite.StringColumn("kind")
	lastErr := sqlite.StringColumn("last_error")
	errHistory := sqlite.StringColumn("error_history")
	payload := sqlite.StringColumn("payload")
	status := sqlite.StringColumn("status")
	createdAt := sqlite.TimestampColumn("created_at")
	updatedAt := sqlite.TimestampColumn("updated_at")
	all := sqlite.ColumnList{id, kind, lastErr, errHistory, payload, status, createdAt, updatedAt}
	mutable := sqlite.ColumnList{kind, lastErr, errHistory, payload, status, createdAt, updatedAt}

	return &deadLetterTable{
		Table:          sqlite.NewTable("", "dead_letter", "", all...),
		ID:             id,
		Kind:           kind,
		LastError:      lastErr,
		ErrorHistory:   errHistory,
		Payload:        payload,
		Status:         status,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		AllColumns:     all,
		MutableColumns: mutable,
	}
}

type sceneGroupTable struct {
	sqlite.Table

	Name             sqlite.ColumnString
	Reputation       sqlite.ColumnInteger
	Confidence       sqlite.ColumnFloat
	ReleaseCount     sqlite.ColumnInteger
	FreeleechShare   sqlite.ColumnFloat
	ResolutionCounts sqlite.ColumnString
	CodecCounts      sqlite.ColumnString
	SourceCounts     sqlite.ColumnString
	LastSeen         sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var SceneGroup = newSceneGroupTable()

func newSceneGroupTable() *sceneGroupTable {
	name := sqlite.StringColumn("name")
	reputation := sqlite.IntegerColumn("reputation")
	confidence := sqlite.FloatColumn("confidence")
	releaseCount := sqlite.IntegerColumn("release_count")
	freeleechShare := sqlite.FloatColumn("freeleech_share")
	resCounts := sqlite.StringColumn("resolution_counts")
	codecCounts := sqlite.StringColumn("codec_counts")
	sourceCounts := sqlite.StringColumn("source_counts")
	lastSeen := sqlite.TimestampColumn("last_seen")
	all := sqlite.ColumnList{name, reputation, confidence, releaseCount, freeleechShare, resCounts, codecCounts, sourceCounts, lastSeen}
	mutable := sqlite.ColumnList{reputation, confidence, releaseCount, freeleechShare, resCounts, codecCounts, sourceCounts, lastSeen}

	return &sceneGroupTable{
		Table:            sqlite.NewTable("", "scene_group", "", all...),
		Name:             name,
		Reputation:       reputation,
		Confidence:       confidence,
		ReleaseCount:     releaseCount,
		FreeleechShare:   freeleechShare,
		ResolutionCounts: resCounts,
		CodecCounts:      codecCounts,
		SourceCounts:     sourceCounts,
		LastSeen:         lastSeen,
		AllColumns:       all,
		MutableColumns:   mutable,
	}
}

type qualityHistoryTable struct {
	sqlite.Table

	ID           sqlite.ColumnInteger
	MovieID      sqlite.ColumnInteger
	OldQualityID sqlite.ColumnInteger
	NewQualityID sqlite.ColumnInteger
	Reason       sqlite.ColumnString
	Score        sqlite.ColumnInteger
	CreatedAt    sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

var QualityHistory = newQualityHistoryTable()

func newQualityHistoryTable() *qualityHistoryTable {
	id := sqlite.IntegerColumn("id")
	movieID := sqlite.IntegerColumn("movie_id")
	oldQ := sqlite.IntegerColumn("old_quality_id")
	newQ := sqlite.IntegerColumn("new_quality_id")
	reason := sqlite.StringColumn("reason")
	score := sqlite.IntegerColumn("score")
	createdAt := sqlite.TimestampColumn("created_at")
	all := sqlite.ColumnList{id, movieID, oldQ, newQ, reason, score, createdAt}
	mutable := sqlite.ColumnList{movieID, oldQ, newQ, reason, score, createdAt}

	return &qualityHistoryTable{
		Table:        sqlite.NewTable("", "quality_history", "", all...),
		ID:           id,
		MovieID:      movieID,
		OldQualityID: oldQ,
		NewQualityID: newQ,
		Reason:       reason,
		Score:        score,
		CreatedAt:    createdAt,
		AllColumns:   all,
		MutableColumns: mutable,
	}
}
