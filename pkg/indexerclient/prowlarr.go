package indexerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/logger"
)

// HTTPClient is the subset of *http.Client the Prowlarr adapter needs,
// letting tests substitute a fake transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProwlarrClient implements Client against a Prowlarr instance's REST API.
type ProwlarrClient struct {
	http   HTTPClient
	base   string
	apiKey string
	limits RateLimits
}

// NewProwlarrClient builds a Client from Config. Retry/backoff/rate-limiting
// is the caller's responsibility via pkg/resilience; this adapter only
// speaks the wire protocol.
func NewProwlarrClient(httpClient HTTPClient, cfg Config) (*ProwlarrClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("prowlarr client requires an api key")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base := fmt.Sprintf("%s://%s", cfg.Scheme, cfg.Host)
	if cfg.Port != 0 && cfg.Port != 80 && cfg.Port != 443 {
		base = fmt.Sprintf("%s:%d", base, cfg.Port)
	}

	return &ProwlarrClient{
		http:   httpClient,
		base:   base,
		apiKey: cfg.APIKey,
		limits: RateLimits{RequestsPerSecond: cfg.RatePerSecond, Burst: cfg.Burst},
	}, nil
}

type prowlarrIndexerResource struct {
	ID          int32                       `json:"id"`
	Name        string                      `json:"name"`
	Enable      bool                        `json:"enable"`
	IndexerUrls []string                    `json:"indexerUrls"`
	Priority    int32                       `json:"priority"`
	Capabilities prowlarrIndexerCapabilities `json:"capabilities"`
}

type prowlarrIndexerCapabilities struct {
	Categories   []prowlarrCategory `json:"categories"`
	SupportsRss  bool               `json:"supportsRss"`
	SupportsSearch bool             `json:"supportsSearch"`
}

type prowlarrCategory struct {
	ID int `json:"id"`
}

type prowlarrReleaseResource struct {
	GUID        string  `json:"guid"`
	Title       string  `json:"title"`
	Size        int64   `json:"size"`
	Seeders     *int    `json:"seeders"`
	Leechers    *int    `json:"leechers"`
	PublishDate string  `json:"publishDate"`
	DownloadURL string  `json:"downloadUrl"`
	InfoHash    string  `json:"infoHash"`
	IndexerID   int32   `json:"indexerId"`
	Freeleech   bool    `json:"freeleech"`
	ImdbID      *int32  `json:"imdbId"`
	TmdbID      *int64  `json:"tmdbId"`
}

func (p *ProwlarrClient) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := p.base + path
	if query != nil {
		query.Set("apikey", p.apiKey)
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prowlarr: unexpected status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Search queries Prowlarr's aggregate search endpoint and translates the
// response into domain.Release values. Quality/ReleaseGroup/Language are
// left zero-valued; the decision engine derives them via pkg/parser.
func (p *ProwlarrClient) Search(ctx context.Context, criteria SearchCriteria) ([]domain.Release, error) {
	log := logger.FromCtx(ctx)

	q := url.Values{}
	q.Set("query", criteria.Query)
	for _, c := range criteria.Categories {
		q.Add("categories", strconv.Itoa(c))
	}

	log.Debugw("prowlarr search request", "query", criteria.Query, "categories", criteria.Categories)

	var resources []prowlarrReleaseResource
	if err := p.do(ctx, http.MethodGet, "/api/v1/search", q, &resources); err != nil {
		log.Debugw("prowlarr search failed", "error", err)
		return nil, err
	}

	releases := make([]domain.Release, 0, len(resources))
	for _, r := range resources {
		publishedAt, _ := time.Parse(time.RFC3339, r.PublishDate)
		release := domain.Release{
			IndexerID:   int64(r.IndexerID),
			GUID:        r.GUID,
			Title:       r.Title,
			Size:        r.Size,
			Seeders:     r.Seeders,
			Leechers:    r.Leechers,
			PublishedAt: publishedAt,
			Freeleech:   r.Freeleech,
			InfoHash:    r.InfoHash,
			DownloadURL: r.DownloadURL,
			TMDBID:      r.TmdbID,
		}
		if r.ImdbID != nil {
			release.IMDBID = fmt.Sprintf("tt%07d", *r.ImdbID)
		}
		releases = append(releases, release)
	}
	return releases, nil
}

// HealthCheck pings Prowlarr's system status endpoint.
func (p *ProwlarrClient) HealthCheck(ctx context.Context) (HealthStatus, error) {
	if err := p.do(ctx, http.MethodGet, "/api/v1/system/status", url.Values{}, nil); err != nil {
		return HealthStatus{Healthy: false, Detail: err.Error()}, nil
	}
	return HealthStatus{Healthy: true}, nil
}

// Capabilities aggregates the categories and feature flags across every
// enabled indexer Prowlarr proxies.
func (p *ProwlarrClient) Capabilities(ctx context.Context) (Capabilities, error) {
	var resources []prowlarrIndexerResource
	if err := p.do(ctx, http.MethodGet, "/api/v1/indexer", url.Values{}, &resources); err != nil {
		return Capabilities{}, err
	}

	caps := Capabilities{}
	seen := map[int]bool{}
	for _, r := range resources {
		if !r.Enable {
			continue
		}
		caps.SupportsRSS = caps.SupportsRSS || r.Capabilities.SupportsRss
		caps.SupportsSearch = caps.SupportsSearch || r.Capabilities.SupportsSearch
		for _, c := range r.Capabilities.Categories {
			if !seen[c.ID] {
				seen[c.ID] = true
				caps.Categories = append(caps.Categories, c.ID)
			}
		}
	}
	return caps, nil
}

// RateLimits returns the configured (not discovered) rate budget.
func (p *ProwlarrClient) RateLimits() RateLimits {
	return p.limits
}
