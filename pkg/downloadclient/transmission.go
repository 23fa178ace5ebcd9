package downloadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

// HTTPClient is the subset of *http.Client the bundled adapters need.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransmissionClient implements Client against Transmission's RPC API.
type TransmissionClient struct {
	http    HTTPClient
	scheme  string
	host    string
	session string
	mu      sync.Mutex
}

// NewTransmissionClient builds a torrent-backed Client.
func NewTransmissionClient(httpClient HTTPClient, scheme, host string, port int) *TransmissionClient {
	if port != 0 {
		host = fmt.Sprintf("%s:%d", host, port)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TransmissionClient{http: httpClient, scheme: scheme, host: host}
}

type transmissionRequest struct {
	Arguments any    `json:"arguments"`
	Method    string `json:"method"`
}

var torrentFields = []string{
	"id", "name", "hashString", "downloadDir", "files", "totalSize",
	"percentDone", "rateDownload", "rateUpload", "peersConnected",
	"status", "errorString", "error", "eta",
}

type transmissionTorrent struct {
	ID              int                `json:"id"`
	Name            string             `json:"name"`
	HashString      string             `json:"hashString"`
	DownloadDir     string             `json:"downloadDir"`
	Files           []transmissionFile `json:"files"`
	TotalSize       int64              `json:"totalSize"`
	PercentDone     float64            `json:"percentDone"`
	RateDownload    int64              `json:"rateDownload"`
	RateUpload      int64              `json:"rateUpload"`
	PeersConnected  int                `json:"peersConnected"`
	Status          int                `json:"status"`
	Error           int                `json:"error"`
	ErrorString     string             `json:"errorString"`
}

type transmissionFile struct {
	Name string `json:"name"`
}

// transmission torrent-get `status` values.
const (
	tStatusStopped      = 0
	tStatusCheckWait    = 1
	tStatusCheck        = 2
	tStatusDownloadWait = 3
	tStatusDownload     = 4
	tStatusSeedWait     = 5
	tStatusSeed         = 6
)

func (t transmissionTorrent) toInfo() Info {
	status := domain.QueueDownloading
	switch {
	case t.Error != 0:
		status = domain.QueueFailed
	case t.Status == tStatusStopped:
		status = domain.QueuePaused
	case t.Status == tStatusSeed || t.Status == tStatusSeedWait:
		status = domain.QueueSeeding
	case t.PercentDone >= 1.0:
		status = domain.QueueCompleted
	case t.Status == tStatusDownload:
		status = domain.QueueDownloading
	}

	paths := make([]string, 0, len(t.Files))
	for _, f := range t.Files {
		paths = append(paths, f.Name)
	}

	return Info{
		Handle:          Handle(t.HashString),
		Name:            t.Name,
		Status:          status,
		Progress:        t.PercentDone,
		Size:            t.TotalSize,
		BytesDownloaded: int64(float64(t.TotalSize) * t.PercentDone),
		DownloadSpeed:   t.RateDownload,
		UploadSpeed:     t.RateUpload,
		Peers:           t.PeersConnected,
		FilePaths:       paths,
		ErrorDetail:     t.ErrorString,
	}
}

type transmissionTorrentsResponse struct {
	Result    string `json:"result"`
	Arguments struct {
		Torrents []transmissionTorrent `json:"torrents"`
	} `json:"arguments"`
}

const transmissionSessionHeader = "x-transmission-session-id"

func (c *TransmissionClient) do(ctx context.Context, body []byte, retry bool) ([]byte, error) {
	u := url.URL{Scheme: c.scheme, Host: c.host, Path: "/transmission/rpc"}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(transmissionSessionHeader, c.getSession())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusConflict:
		if retry {
			return nil, errors.New("transmission: session id invalid after retry")
		}
		session := resp.Header.Get(transmissionSessionHeader)
		if session == "" {
			return nil, errors.New("transmission: empty session id")
		}
		c.setSession(session)
		return c.do(ctx, body, true)
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	default:
		return nil, fmt.Errorf("transmission: unexpected status %s", resp.Status)
	}
}

func (c *TransmissionClient) setSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = id
}

func (c *TransmissionClient) getSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *TransmissionClient) get(ctx context.Context, ids []string) ([]transmissionTorrent, error) {
	args := map[string]any{"fields": torrentFields}
	if len(ids) > 0 {
		args["ids"] = ids
	}
	body, err := json.Marshal(transmissionRequest{Method: "torrent-get", Arguments: args})
	if err != nil {
		return nil, err
	}
	b, err := c.do(ctx, body, false)
	if err != nil {
		return nil, err
	}
	var resp transmissionTorrentsResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "success" {
		return nil, fmt.Errorf("transmission: unexpected result %q", resp.Result)
	}
	return resp.Arguments.Torrents, nil
}

func (c *TransmissionClient) Add(ctx context.Context, downloadURL, category string) (Handle, error) {
	args := map[string]any{"filename": downloadURL, "labels": []string{category}}
	body, err := json.Marshal(transmissionRequest{Method: "torrent-add", Arguments: args})
	if err != nil {
		return "", err
	}

	b, err := c.do(ctx, body, false)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result    string `json:"result"`
		Arguments struct {
			TorrentAdded struct {
				HashString string `json:"hashString"`
			} `json:"torrent-added"`
		} `json:"arguments"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return "", err
	}
	if resp.Result != "success" {
		return "", fmt.Errorf("transmission: unexpected result %q", resp.Result)
	}
	return Handle(resp.Arguments.TorrentAdded.HashString), nil
}

func (c *TransmissionClient) Status(ctx context.Context, handle Handle) (Info, error) {
	torrents, err := c.get(ctx, []string{string(handle)})
	if err != nil {
		return Info{}, err
	}
	if len(torrents) == 0 {
		return Info{}, fmt.Errorf("transmission: no torrent for handle %q", handle)
	}
	return torrents[0].toInfo(), nil
}

func (c *TransmissionClient) call(ctx context.Context, method string, handle Handle) error {
	args := map[string]any{"ids": []string{string(handle)}}
	body, err := json.Marshal(transmissionRequest{Method: method, Arguments: args})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, body, false)
	return err
}

func (c *TransmissionClient) Remove(ctx context.Context, handle Handle, deleteData bool) error {
	args := map[string]any{"ids": []string{string(handle)}, "delete-local-data": deleteData}
	body, err := json.Marshal(transmissionRequest{Method: "torrent-remove", Arguments: args})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, body, false)
	return err
}

func (c *TransmissionClient) Pause(ctx context.Context, handle Handle) error {
	return c.call(ctx, "torrent-stop", handle)
}

func (c *TransmissionClient) Resume(ctx context.Context, handle Handle) error {
	return c.call(ctx, "torrent-start", handle)
}

var _ Client = (*TransmissionClient)(nil)
