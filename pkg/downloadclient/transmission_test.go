package downloadclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTPClient struct {
	do func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return f.do(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewTransmissionClient(t *testing.T) {
	c := NewTransmissionClient(nil, "http", "localhost", 0)
	assert.Equal(t, "localhost", c.host)

	c = NewTransmissionClient(nil, "https", "example.com", 9091)
	assert.Equal(t, "example.com:9091", c.host)
}

func TestTransmissionClient_Add(t *testing.T) {
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"result":"success","arguments":{"torrent-added":{"hashString":"abc123"}}}`), nil
	}}
	c := NewTransmissionClient(fake, "http", "localhost", 0)

	handle, err := c.Add(context.Background(), "magnet:?xt=urn:btih:abc", "movies")
	require.NoError(t, err)
	assert.Equal(t, Handle("abc123"), handle)
}

func TestTransmissionClient_Status(t *testing.T) {
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"result":"success","arguments":{"torrents":[{"id":1,"hashString":"abc123","name":"Heat","totalSize":1000,"percentDone":0.5,"rateDownload":100,"status":4}]}}`), nil
	}}
	c := NewTransmissionClient(fake, "http", "localhost", 0)

	info, err := c.Status(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0.5, info.Progress)
	assert.EqualValues(t, 500, info.BytesDownloaded)
}

func TestTransmissionClient_SessionRetry(t *testing.T) {
	calls := 0
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			resp := jsonResponse(http.StatusConflict, "")
			resp.Header.Set(transmissionSessionHeader, "new-session")
			return resp, nil
		}
		assert.Equal(t, "new-session", req.Header.Get(transmissionSessionHeader))
		return jsonResponse(http.StatusOK, `{"result":"success","arguments":{"torrents":[]}}`), nil
	}}
	c := NewTransmissionClient(fake, "http", "localhost", 0)

	_, err := c.get(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
