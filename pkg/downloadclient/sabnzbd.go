package downloadclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"context"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/logger"
)

// SabnzbdClient implements Client against SABnzbd's HTTP API.
type SabnzbdClient struct {
	http   HTTPClient
	scheme string
	host   string
	apiKey string
}

// NewSabnzbdClient builds a usenet-backed Client.
func NewSabnzbdClient(httpClient HTTPClient, scheme, host, apiKey string) *SabnzbdClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SabnzbdClient{http: httpClient, scheme: scheme, host: host, apiKey: apiKey}
}

func (c *SabnzbdClient) do(ctx context.Context, query url.Values) ([]byte, error) {
	log := logger.FromCtx(ctx)

	query.Set("apikey", c.apiKey)
	query.Set("output", "json")

	u := url.URL{Scheme: c.scheme, Host: c.host, Path: "/sabnzbd/api", RawQuery: query.Encode()}
	log.Debugw("sabnzbd request", "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sabnzbd: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

type sabnzbdAddResponse struct {
	NzoIDs []string `json:"nzo_ids"`
	Status bool     `json:"status"`
}

func (c *SabnzbdClient) Add(ctx context.Context, downloadURL, category string) (Handle, error) {
	q := url.Values{}
	q.Set("mode", "addurl")
	q.Set("name", downloadURL)
	if category != "" {
		q.Set("cat", category)
	}

	b, err := c.do(ctx, q)
	if err != nil {
		return "", err
	}

	var resp sabnzbdAddResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return "", err
	}
	if len(resp.NzoIDs) == 0 {
		return "", errors.New("sabnzbd: add returned no nzo id")
	}
	return Handle(resp.NzoIDs[0]), nil
}

type sabnzbdQueueResponse struct {
	Queue sabnzbdQueue `json:"queue"`
}

type sabnzbdQueue struct {
	Speed string            `json:"speed"`
	Slots []sabnzbdQueueSlot `json:"slots"`
}

type sabnzbdQueueSlot struct {
	NzoID      string `json:"nzo_id"`
	Filename   string `json:"filename"`
	Percentage string `json:"percentage"`
	MB         string `json:"mb"`
	MBLeft     string `json:"mbleft"`
	Status     string `json:"status"`
}

type sabnzbdHistoryResponse struct {
	History sabnzbdHistory `json:"history"`
}

type sabnzbdHistory struct {
	Slots []sabnzbdHistorySlot `json:"slots"`
}

type sabnzbdHistorySlot struct {
	NzoID       string `json:"nzo_id"`
	Storage     string `json:"storage"`
	Status      string `json:"status"`
	FailMessage string `json:"fail_message"`
}

func (c *SabnzbdClient) history(ctx context.Context, nzoID string) (sabnzbdHistorySlot, bool, error) {
	q := url.Values{}
	q.Set("mode", "history")
	q.Set("nzo_id", nzoID)

	b, err := c.do(ctx, q)
	if err != nil {
		return sabnzbdHistorySlot{}, false, err
	}
	var resp sabnzbdHistoryResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return sabnzbdHistorySlot{}, false, err
	}
	if len(resp.History.Slots) == 0 {
		return sabnzbdHistorySlot{}, false, nil
	}
	return resp.History.Slots[0], true, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func (c *SabnzbdClient) Status(ctx context.Context, handle Handle) (Info, error) {
	q := url.Values{}
	q.Set("mode", "queue")
	b, err := c.do(ctx, q)
	if err != nil {
		return Info{}, err
	}

	var resp sabnzbdQueueResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return Info{}, err
	}

	for _, s := range resp.Queue.Slots {
		if s.NzoID != string(handle) {
			continue
		}
		speed := parseFloat(strings.Split(resp.Queue.Speed, " ")[0])
		return Info{
			Handle:          handle,
			Name:            s.Filename,
			Status:          domain.QueueDownloading,
			Progress:        parseFloat(s.Percentage) / 100,
			Size:            int64(parseFloat(s.MB) * (1 << 20)),
			BytesDownloaded: int64((parseFloat(s.MB) - parseFloat(s.MBLeft)) * (1 << 20)),
			DownloadSpeed:   int64(speed),
		}, nil
	}

	slot, found, err := c.history(ctx, string(handle))
	if err != nil {
		return Info{}, err
	}
	if !found {
		return Info{}, fmt.Errorf("sabnzbd: no download for handle %q", handle)
	}

	status := domain.QueueCompleted
	if slot.FailMessage != "" {
		status = domain.QueueFailed
	}
	return Info{
		Handle:      handle,
		Name:        slot.NzoID,
		Status:      status,
		Progress:    1,
		FilePaths:   []string{slot.Storage},
		ErrorDetail: slot.FailMessage,
	}, nil
}

func (c *SabnzbdClient) Remove(ctx context.Context, handle Handle, deleteData bool) error {
	q := url.Values{}
	q.Set("mode", "queue")
	q.Set("name", "delete")
	q.Set("value", string(handle))
	if deleteData {
		q.Set("del_files", "1")
	}
	_, err := c.do(ctx, q)
	return err
}

func (c *SabnzbdClient) Pause(ctx context.Context, handle Handle) error {
	q := url.Values{}
	q.Set("mode", "queue")
	q.Set("name", "pause")
	q.Set("value", string(handle))
	_, err := c.do(ctx, q)
	return err
}

func (c *SabnzbdClient) Resume(ctx context.Context, handle Handle) error {
	q := url.Values{}
	q.Set("mode", "queue")
	q.Set("name", "resume")
	q.Set("value", string(handle))
	_, err := c.do(ctx, q)
	return err
}

var _ Client = (*SabnzbdClient)(nil)
