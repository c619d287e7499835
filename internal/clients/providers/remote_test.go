package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, handler http.HandlerFunc) *RemoteClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemoteClient(srv.URL+"/", "browser", NewStandardFetcher(5*time.Second))
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestRemoteClient_RunAll(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/run/all", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		body := decodeBody(t, r)
		assert.Equal(t, "browser", body["target"])
		assert.Equal(t, []interface{}{"flixhq"}, body["sourceOrder"])
		media := body["media"].(map[string]interface{})
		assert.Equal(t, "movie", media["type"])
		assert.Equal(t, "Fight Club", media["title"])
		assert.EqualValues(t, 1999, media["releaseYear"])
		assert.Equal(t, "550", media["tmdbId"])
		assert.NotContains(t, media, "season")

		w.Write([]byte(`{"sourceId":"flixhq","embedId":"upcloud","stream":{"id":"primary","type":"hls","playlist":"https://cdn.example/master.m3u8","flags":[],"captions":[]}}`))
	})

	out, err := client.RunAll(context.Background(), RunOptions{
		Media:       Media{Type: MediaTypeMovie, Title: "Fight Club", ReleaseYear: 1999, TMDBID: "550"},
		SourceOrder: []string{"flixhq"},
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "flixhq", out.SourceID)
	assert.Equal(t, "upcloud", out.EmbedID)
	assert.True(t, out.HasPlaylist())
	assert.Equal(t, StreamTypeHLS, out.Stream.Type)
}

func TestRemoteClient_RunAllNothingFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "json null",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`null`))
			},
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"No stream found"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestRunner(t, tt.handler)

			out, err := client.RunAll(context.Background(), RunOptions{Media: Media{Type: MediaTypeMovie}})
			require.NoError(t, err)
			assert.Nil(t, out)
			assert.False(t, out.HasPlaylist())
		})
	}
}

func TestRemoteClient_RunAllWrongURL(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	out, err := client.RunAll(context.Background(), RunOptions{Media: Media{Type: MediaTypeMovie}})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.False(t, errors.Is(err, ErrNotFound))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestRemoteClient_RunSourceScraper(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/run/source", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "zoechip", body["id"])

		w.Write([]byte(`{"embeds":[{"embedId":"upcloud","url":"https://upcloud.example/e/1"}]}`))
	})

	out, err := client.RunSourceScraper(context.Background(), SourceRunOptions{
		ID:    "zoechip",
		Media: Media{Type: MediaTypeMovie, Title: "Heat", TMDBID: "949"},
	})
	require.NoError(t, err)

	assert.False(t, out.Empty())
	assert.Empty(t, out.Stream)
	require.Len(t, out.Embeds, 1)
	assert.Equal(t, "upcloud", out.Embeds[0].EmbedID)
}

func TestRemoteClient_RunSourceScraperEmptyStreamList(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeds":[],"stream":[]}`))
	})

	out, err := client.RunSourceScraper(context.Background(), SourceRunOptions{ID: "flixhq"})
	require.NoError(t, err)
	assert.NotNil(t, out.Stream)
	assert.False(t, out.Empty())
}

func TestSourcererOutput_Empty(t *testing.T) {
	tests := []struct {
		name   string
		output *SourcererOutput
		want   bool
	}{
		{"nil output", nil, true},
		{"nothing", &SourcererOutput{}, true},
		{"empty embeds only", &SourcererOutput{Embeds: []Embed{}}, true},
		{"empty stream list", &SourcererOutput{Embeds: []Embed{}, Stream: []Stream{}}, false},
		{"embeds", &SourcererOutput{Embeds: []Embed{{EmbedID: "upcloud"}}}, false},
		{"streams", &SourcererOutput{Stream: []Stream{{ID: "primary"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.output.Empty())
		})
	}
}

func TestRemoteClient_RunSourceScraperNotFound(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Couldn't find a stream"}`))
	})

	_, err := client.RunSourceScraper(context.Background(), SourceRunOptions{ID: "gomovies"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Couldn't find a stream")
}

func TestRemoteClient_RunnerFailure(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream timed out"}`))
	})

	_, err := client.RunSourceScraper(context.Background(), SourceRunOptions{ID: "superstream"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream timed out", httpErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRemoteClient_RunEmbedScraper(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/run/embed", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "upcloud", body["id"])
		assert.Equal(t, "https://upcloud.example/e/1", body["url"])
		assert.Equal(t, "browser", body["target"])

		w.Write([]byte(`{"stream":[{"id":"primary","type":"file","flags":["cors-allowed"],"captions":[],"qualities":{"720":{"type":"mp4","url":"https://cdn.example/720.mp4"}}}]}`))
	})

	out, err := client.RunEmbedScraper(context.Background(), EmbedRunOptions{ID: "upcloud", URL: "https://upcloud.example/e/1"})
	require.NoError(t, err)
	require.Len(t, out.Stream, 1)
	assert.Equal(t, StreamTypeFile, out.Stream[0].Type)
	assert.Equal(t, "https://cdn.example/720.mp4", out.Stream[0].Qualities["720"].URL)
}

func TestRemoteClient_ListSourcesAndHealth(t *testing.T) {
	client := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/sources":
			w.Write([]byte(`[{"id":"flixhq","name":"FlixHQ","type":"source","rank":61,"mediaTypes":["movie","show"]}]`))
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	sources, err := client.ListSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "flixhq", sources[0].ID)
	assert.Equal(t, 61, sources[0].Rank)

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestRemoteClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewRemoteClient(srv.URL, "browser", NewStandardFetcher(time.Second))
	err := client.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach providers runner")
}
