package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ScreenSync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30","overview":"A hacker...","poster_path":"/p1.jpg"},
			{"id":604,"title":"The Matrix Reloaded","release_date":"2003-05-15"}
		]}`))
	})

	mux.HandleFunc("/search/tv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}
		]}`))
	})

	mux.HandleFunc("/movie/603/external_ids", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"imdb_id":"tt0133093"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchByTitle_Movie(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL, "test-key")

	results, err := client.SearchByTitle(context.Background(), "matrix", model.KindCatalogMovie)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "603", results[0].CatalogID)
	assert.Equal(t, "The Matrix", results[0].Title)
	assert.Equal(t, "1999", results[0].Year) // 发行日期截取年份
	assert.Equal(t, model.KindCatalogMovie, results[0].Kind)
}

func TestSearchByTitle_ShowUsesNameAndFirstAirDate(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL, "test-key")

	results, err := client.SearchByTitle(context.Background(), "breaking bad", model.KindCatalogShow)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Breaking Bad", results[0].Title)
	assert.Equal(t, "2008", results[0].Year)
	assert.Equal(t, "1396", results[0].CatalogID)
}

func TestSearchByTitle_NonCatalogKindRejected(t *testing.T) {
	client := NewClient("http://unused", "")

	_, err := client.SearchByTitle(context.Background(), "x", model.KindDirect)
	assert.Error(t, err)
}

func TestSearchByTitle_ServerErrorSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "bad-key")

	_, err := client.SearchByTitle(context.Background(), "matrix", model.KindCatalogMovie)
	assert.Error(t, err)
}

func TestGetExternalIDs_Movie(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient(srv.URL, "test-key")

	ids, err := client.GetExternalIDs(context.Background(), "603", model.KindCatalogMovie)
	require.NoError(t, err)
	assert.Equal(t, "tt0133093", ids.StableID)
}

func TestGetExternalIDs_NonCatalogKindRejected(t *testing.T) {
	client := NewClient("http://unused", "")

	_, err := client.GetExternalIDs(context.Background(), "603", model.KindLocalUpload)
	assert.Error(t, err)
}
