// Package domain holds the plain entity types shared by the decision engine,
// scheduler, import pipeline, and storage layer. These are storage
// and transport agnostic: no struct tags, no jet/sql concerns.
package domain

import (
	"time"

	"github.com/kasuboski/reelwatch/pkg/quality"
)

// Movie is a title the user wants, tracked against one quality profile.
type Movie struct {
	ID              int64
	TMDBID          *int64
	IMDBID          *string
	Title           string
	Year            int
	Monitored       bool
	QualityProfileID int64
	HasFile         bool
	MovieFileID     *int64
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MovieFile is a persisted file under the library, owned by exactly one Movie.
type MovieFile struct {
	ID           int64
	MovieID      int64
	RelativePath string
	Size         int64
	Quality      quality.Quality
	MediaInfo    *MediaInfo
	CreatedAt    time.Time
}

// MediaInfo carries optional probed media details for a MovieFile.
type MediaInfo struct {
	Duration time.Duration
	Bitrate  int64
	Channels string
}

// QualityHistoryReason explains why a QualityHistory row was recorded.
type QualityHistoryReason string

const (
	QualityHistoryUpgrade QualityHistoryReason = "upgrade"
	QualityHistoryImport  QualityHistoryReason = "import"
	QualityHistoryManual  QualityHistoryReason = "manual"
)

// QualityHistory records a movie's quality transition at import time.
type QualityHistory struct {
	ID        int64
	MovieID   int64
	OldQuality *quality.Quality
	NewQuality quality.Quality
	Reason    QualityHistoryReason
	Score     int
	CreatedAt time.Time
}
