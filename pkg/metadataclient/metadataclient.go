// Package metadataclient defines the movie-metadata capability contract
// and a TMDB-backed implementation.
package metadataclient

import (
	"context"
	"time"
)

// MovieMetadata is the subset of a metadata provider's movie record the
// decision engine and import pipeline need.
type MovieMetadata struct {
	TMDBID      int64
	IMDBID      string
	Title       string
	Year        int
	ReleaseDate time.Time
	Overview    string
	Runtime     time.Duration
	VoteAverage float64
	PosterPath  string
}

// Client is the capability contract every metadata provider satisfies
// Rate limiting is applied externally via pkg/resilience.
type Client interface {
	LookupByID(ctx context.Context, tmdbID int64) (MovieMetadata, error)
	Search(ctx context.Context, term string, year int) ([]MovieMetadata, error)
}
