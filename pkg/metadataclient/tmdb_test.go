package metadataclient

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
	return &http.Response{StatusCode: status, Status: http.StatusText(status), Body: io.NopCloser(strings.NewReader(body))}
}

func TestTMDBClient_LookupByID(t *testing.T) {
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/movie/949", req.URL.Path)
		assert.Equal(t, "Bearer key", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{"id":949,"imdb_id":"tt0113277","title":"Heat","release_date":"1995-12-15","runtime":170,"vote_average":8.2}`), nil
	}}
	c := NewTMDBClient(fake, "https://api.themoviedb.org/3", "key")

	meta, err := c.LookupByID(context.Background(), 949)
	require.NoError(t, err)
	assert.Equal(t, "Heat", meta.Title)
	assert.Equal(t, 1995, meta.Year)
	assert.Equal(t, "tt0113277", meta.IMDBID)
}

func TestTMDBClient_Search(t *testing.T) {
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/search/movie", req.URL.Path)
		assert.Equal(t, "Heat", req.URL.Query().Get("query"))
		assert.Equal(t, "1995", req.URL.Query().Get("year"))
		return jsonResponse(http.StatusOK, `{"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}]}`), nil
	}}
	c := NewTMDBClient(fake, "https://api.themoviedb.org/3", "key")

	results, err := c.Search(context.Background(), "Heat", 1995)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(949), results[0].TMDBID)
}

func TestTMDBClient_LookupByID_Error(t *testing.T) {
	fake := &fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{}`), nil
	}}
	c := NewTMDBClient(fake, "https://api.themoviedb.org/3", "key")

	_, err := c.LookupByID(context.Background(), 1)
	require.Error(t, err)
}
