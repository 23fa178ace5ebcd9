//
// Hand-authored in the shape go-jet's codegen produces (DO NOT regenerate:
// there is no schema.sql migration runner invoked at build time). Trimmed
// relative to upstream go-jet output: no unused AS/FromSchema/WithPrefix/
// WithSuffix table-alias plumbing, since nothing in this module joins a
// table against itself.
//

package model

import "time"

type Movie struct {
	ID               int64 `sql:"primary_key"`
	TMDBID           *int64
	IMDBID           *string
	Title            string
	Year             int32
	Monitored        bool
	QualityProfileID int64
	HasFile          bool
	MovieFileID      *int64
	Metadata         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type MovieFile struct {
	ID          int64 `sql:"primary_key"`
	MovieID     int64
	RelativePath string
	Size        int64
	QualityID   int64
	QualityName string
	MediaDurationMS *int64
	MediaBitrate    *int64
	MediaChannels   *string
	CreatedAt   time.Time
}

type QualityProfile struct {
	ID              int64 `sql:"primary_key"`
	Name            string
	CutoffQualityID *int64
	UpgradeAllowed  bool
	MinSizeMB       *int64
	MaxSizeMB       *int64
	Language        string
}

type QualityProfileAllowed struct {
	ProfileID int64 `sql:"primary_key"`
	QualityID int64 `sql:"primary_key"`
}

type QualityProfileFormatScore struct {
	ProfileID      int64 `sql:"primary_key"`
	CustomFormatID int64 `sql:"primary_key"`
	Score          int32
}

type CustomFormat struct {
	ID      int64 `sql:"primary_key"`
	Name    string
	Score   int32
	Enabled bool
}

type CustomFormatSpec struct {
	ID             int64 `sql:"primary_key"`
	CustomFormatID int64
	Kind           string
	Value          string
	Negate         bool
}

type QueueItem struct {
	ID               int64 `sql:"primary_key"`
	MovieID          int64
	IndexerID        int64
	ReleaseTitle     string
	ReleaseGUID      string
	DownloadClientID int64
	Status           string
	Progress         float64
	BytesDownloaded  int64
	BytesUploaded    int64
	DownloadSpeed    int64
	UploadSpeed      int64
	ETASeconds       *int64
	Peers            int32
	RetryCount       int32
	MaxRetries       int32
	LastError        *string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

type Job struct {
	ID          int64 `sql:"primary_key"`
	Kind        string
	Priority    int32
	Payload     []byte
	Status      string
	LeaseOwner  string
	LeaseUntil  *time.Time
	Attempts    int32
	MaxAttempts int32
	LastError   string
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BlocklistEntry struct {
	IndexerID    int64 `sql:"primary_key"`
	ReleaseGUID  string `sql:"primary_key"`
	Reason       string
	Detail       string
	BlockedUntil time.Time
	RetryCount   int32
	MovieID      *int64
	ReleaseTitle string
	CreatedAt    time.Time
}

type DeadLetter struct {
	ID           int64 `sql:"primary_key"`
	Kind         string
	LastError    string
	ErrorHistory string
	Payload      []byte
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SceneGroup struct {
	Name             string `sql:"primary_key"`
	Reputation       int32
	Confidence       float64
	ReleaseCount     int64
	FreeleechShare   float64
	ResolutionCounts string
	CodecCounts      string
	SourceCounts     string
	LastSeen         time.Time
}

type QualityHistory struct {
	ID           int64 `sql:"primary_key"`
	MovieID      int64
	OldQualityID *int64
	NewQualityID int64
	Reason       string
	Score        int32
	CreatedAt    time.Time
}
