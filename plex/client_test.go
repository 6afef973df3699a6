package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityResponse = `{"MediaContainer":{"size":0,"machineIdentifier":"abc123","version":"1.40.0"}}`

// newTestServer returns an httptest server that answers /identity plus any
// extra routes the test registers
func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Plex-Token"))
		fmt.Fprint(w, identityResponse)
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		})
	}
	return httptest.NewServer(mux)
}

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewClient("", "token", logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := NewClient("http://localhost:32400", "", logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("valid config", func(t *testing.T) {
		server := newTestServer(t, nil)
		defer server.Close()

		client, err := NewClient(server.URL, "test-token", logger)
		require.NoError(t, err)
		assert.Equal(t, "abc123", client.MachineIdentifier())
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "bad-token", logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestGetAllMedia(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/library/sections": `{"MediaContainer":{"size":3,"Directory":[
			{"key":"1","type":"movie","title":"Movies"},
			{"key":"2","type":"show","title":"TV Shows"},
			{"key":"9","type":"photo","title":"Photos"}
		]}}`,
		"/library/sections/1/all": `{"MediaContainer":{"size":2,"Metadata":[
			{"ratingKey":"10","type":"movie","title":"The Matrix","year":1999,"addedAt":1700000000,
			 "Guid":[{"id":"tmdb://603"},{"id":"imdb://tt0133093"}],"duration":8160000,"rating":8.7},
			{"ratingKey":"11","type":"movie","title":"Interstellar","year":2014}
		]}}`,
		"/library/sections/2/all": `{"MediaContainer":{"size":1,"Metadata":[
			{"ratingKey":"20","type":"show","title":"Breaking Bad","year":2008,"leafCount":62,"childCount":5}
		]}}`,
	})
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	items, err := client.GetAllMedia(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Section order is preserved: movies first, then shows
	assert.Equal(t, "The Matrix", items[0].Title)
	assert.Equal(t, "Movies", items[0].Library)
	assert.Equal(t, int64(603), items[0].TMDBID)
	assert.Equal(t, "tt0133093", items[0].IMDBID)
	assert.Equal(t, MediaTypeMovie, items[0].Type)
	assert.False(t, items[0].AddedAt.IsZero())

	show := items[2]
	assert.Equal(t, "Breaking Bad", show.Title)
	assert.Equal(t, 62, show.EpisodeCount)
	assert.Equal(t, 5, show.SeasonCount)
}

func TestGetSessions(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/status/sessions": `{"MediaContainer":{"size":2,"Metadata":[
			{"sessionKey":"5","type":"movie","title":"The Matrix","year":1999,
			 "viewOffset":4080000,"duration":8160000,
			 "Media":[{"videoResolution":"1080"}],
			 "Player":{"title":"Living Room TV","device":"Apple TV","state":"paused"}},
			{"sessionKey":"6","type":"episode","title":"Ozymandias",
			 "grandparentTitle":"Breaking Bad","grandparentYear":2008,"parentIndex":5,"index":14,
			 "viewOffset":0,"duration":2820000,
			 "TranscodeSession":{"videoDecision":"transcode"},
			 "Player":{"title":"Chrome","state":"playing"}}
		]}}`,
	})
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	sessions, err := client.GetSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	movie := sessions[0]
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "paused", movie.State)
	assert.Equal(t, "Direct Play", movie.TranscodeDecision)
	assert.Equal(t, "1080p", movie.Quality)
	assert.InDelta(t, 50.0, movie.ProgressPercent(), 0.1)

	episode := sessions[1]
	assert.Equal(t, "Breaking Bad - S05E14 - Ozymandias", episode.Title)
	assert.Equal(t, 2008, episode.Year)
	assert.Equal(t, "Transcode", episode.TranscodeDecision)
}

func TestGetRecentlyAdded(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/library/recentlyAdded": `{"MediaContainer":{"size":3,"Metadata":[
			{"ratingKey":"1","type":"movie","title":"A","librarySectionTitle":"Movies"},
			{"ratingKey":"2","type":"movie","title":"B","librarySectionTitle":"Movies"},
			{"ratingKey":"3","type":"show","title":"C","librarySectionTitle":"TV Shows"}
		]}}`,
	})
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	items, err := client.GetRecentlyAdded(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title)
	assert.Equal(t, "Movies", items[0].Library)
}

func TestGetServerInfo(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": `{"MediaContainer":{"friendlyName":"Home Server","version":"1.40.0","platform":"Linux"}}`,
		"/status/sessions": `{"MediaContainer":{"size":2,"Metadata":[
			{"sessionKey":"1","type":"movie","title":"A","TranscodeSession":{"videoDecision":"transcode"}},
			{"sessionKey":"2","type":"movie","title":"B"}
		]}}`,
	})
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	info, err := client.GetServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home Server", info.Name)
	assert.Equal(t, 2, info.Streams)
	assert.Equal(t, 1, info.Transcodes)
}

func TestThumbAndWebURL(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	assert.Empty(t, client.ThumbURL(""))
	assert.Equal(t,
		server.URL+"/library/metadata/10/thumb/1?X-Plex-Token=test-token",
		client.ThumbURL("/library/metadata/10/thumb/1"))

	assert.Contains(t, client.WebURL("10"), "abc123")
	assert.Contains(t, client.WebURL("10"), "%2Flibrary%2Fmetadata%2F10")
}

func TestGetMetadata(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/library/metadata/603": `{"MediaContainer":{"size":1,"Metadata":[
			{"ratingKey":"603","type":"movie","title":"The Matrix","year":1999,
			 "librarySectionTitle":"Movies","Guid":[{"id":"tmdb://603"}]}
		]}}`,
		"/library/metadata/999": `{"MediaContainer":{"size":0}}`,
	})
	defer server.Close()

	client, err := NewClient(server.URL, "test-token", zerolog.Nop())
	require.NoError(t, err)

	item, err := client.GetMetadata(context.Background(), "603")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", item.Title)
	assert.Equal(t, "Movies", item.Library)
	assert.Equal(t, int64(603), item.TMDBID)

	_, err = client.GetMetadata(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}
