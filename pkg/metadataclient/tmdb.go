package metadataclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kasuboski/reelwatch/pkg/logger"
)

// HTTPClient is the subset of *http.Client the TMDB adapter needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const tmdbReleaseDateFormat = "2006-01-02"

// TMDBClient implements Client against The Movie Database's v3 API.
type TMDBClient struct {
	http   HTTPClient
	base   string
	apiKey string
}

// NewTMDBClient builds a Client. apiKey is sent as a bearer token, matching
// TMDB's v4-style auth for v3 endpoints.
func NewTMDBClient(httpClient HTTPClient, base, apiKey string) *TMDBClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if base == "" {
		base = "https://api.themoviedb.org/3"
	}
	return &TMDBClient{http: httpClient, base: base, apiKey: apiKey}
}

func (c *TMDBClient) do(ctx context.Context, path string, query url.Values, out any) error {
	log := logger.FromCtx(ctx)

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugw("tmdb request failed", "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: unexpected status %s", resp.Status)
	}
	return json.Unmarshal(body, out)
}

type tmdbMovieDetails struct {
	ID          int64   `json:"id"`
	IMDBID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
}

func (d tmdbMovieDetails) toMetadata() MovieMetadata {
	releaseDate, _ := time.Parse(tmdbReleaseDateFormat, d.ReleaseDate)
	return MovieMetadata{
		TMDBID:      d.ID,
		IMDBID:      d.IMDBID,
		Title:       d.Title,
		Year:        releaseDate.Year(),
		ReleaseDate: releaseDate,
		Overview:    d.Overview,
		Runtime:     time.Duration(d.Runtime) * time.Minute,
		VoteAverage: d.VoteAverage,
		PosterPath:  d.PosterPath,
	}
}

// LookupByID fetches a single movie's details by TMDB id.
func (c *TMDBClient) LookupByID(ctx context.Context, tmdbID int64) (MovieMetadata, error) {
	var details tmdbMovieDetails
	path := fmt.Sprintf("/movie/%d", tmdbID)
	if err := c.do(ctx, path, nil, &details); err != nil {
		return MovieMetadata{}, fmt.Errorf("couldn't get movie details: %w", err)
	}
	return details.toMetadata(), nil
}

type tmdbSearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

// Search finds candidate movies by title, optionally narrowed by year.
func (c *TMDBClient) Search(ctx context.Context, term string, year int) ([]MovieMetadata, error) {
	q := url.Values{}
	q.Set("query", term)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var resp tmdbSearchResponse
	if err := c.do(ctx, "/search/movie", q, &resp); err != nil {
		return nil, fmt.Errorf("couldn't search movies: %w", err)
	}

	out := make([]MovieMetadata, 0, len(resp.Results))
	for _, r := range resp.Results {
		releaseDate, _ := time.Parse(tmdbReleaseDateFormat, r.ReleaseDate)
		out = append(out, MovieMetadata{
			TMDBID:      r.ID,
			Title:       r.Title,
			Year:        releaseDate.Year(),
			ReleaseDate: releaseDate,
			Overview:    r.Overview,
			VoteAverage: r.VoteAverage,
			PosterPath:  r.PosterPath,
		})
	}
	return out, nil
}

var _ Client = (*TMDBClient)(nil)
