package overseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authOK(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]any{"id": 1, "displayName": "Test User"})
}

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		baseURL string
		apiKey  string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			baseURL: "http://localhost:5055",
			apiKey:  "test-key",
			wantErr: false,
		},
		{
			name:    "missing URL",
			baseURL: "",
			apiKey:  "test-key",
			wantErr: true,
			errMsg:  "URL is required",
		},
		{
			name:    "missing API key",
			baseURL: "http://localhost:5055",
			apiKey:  "",
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Skip connection test for error cases
			if tt.wantErr {
				_, err := NewClient(tt.baseURL, tt.apiKey, logger)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
				authOK(w)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, tt.apiKey, logger)
			require.NoError(t, err)
			assert.NotNil(t, client)
			assert.Equal(t, server.URL, client.baseURL)
		})
	}
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authOK(w)
	}))
	defer server.Close()

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient(server.URL, "test-key", logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with page size", func(t *testing.T) {
		client, err := NewClient(server.URL, "test-key", logger, WithPageSize(50))
		require.NoError(t, err)
		assert.Equal(t, 50, client.pageSize)
	})

	t.Run("with custom http client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient(server.URL, "test-key", logger, WithHTTPClient(customClient))
		require.NoError(t, err)
		assert.Equal(t, customClient, client.httpClient)
	})
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "the matrix", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"page":1,"totalPages":1,"totalResults":4,"results":[
			{"id":603,"mediaType":"movie","title":"The Matrix","releaseDate":"1999-03-30",
			 "posterPath":"/p1.jpg","overview":"A hacker learns the truth.","voteAverage":8.2,
			 "mediaInfo":{"id":1,"tmdbId":603,"status":5,"mediaType":"movie"}},
			{"id":604,"mediaType":"movie","title":"The Matrix Reloaded","releaseDate":"2003-05-15",
			 "mediaInfo":{"id":2,"tmdbId":604,"status":3,"mediaType":"movie"}},
			{"id":1438,"mediaType":"tv","name":"The Wire","firstAirDate":"2002-06-02"},
			{"id":99,"mediaType":"person","name":"Keanu Reeves"}
		]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "the matrix")
	require.NoError(t, err)
	require.Len(t, results, 3) // person hit filtered out

	assert.Equal(t, "The Matrix", results[0].Title)
	assert.Equal(t, 1999, results[0].Year)
	assert.True(t, results[0].AlreadyAvailable)
	assert.False(t, results[0].AlreadyRequested)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p1.jpg", results[0].PosterURL())

	assert.True(t, results[1].AlreadyRequested)
	assert.Equal(t, RequestStatusProcessing, results[1].RequestStatus)

	assert.Equal(t, MediaTypeTV, results[2].MediaType)
	assert.Equal(t, "The Wire", results[2].Title)
	assert.Equal(t, 2002, results[2].Year)
}

func TestGetRequestsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/request", func(w http.ResponseWriter, r *http.Request) {
		skip := r.URL.Query().Get("skip")
		if skip == "0" {
			fmt.Fprint(w, `{"pageInfo":{"pages":2,"page":1,"results":3},"results":[
				{"id":1,"status":1,"type":"movie","createdAt":"2024-01-01T00:00:00Z",
				 "media":{"tmdbId":603,"status":2,"mediaType":"movie"},
				 "requestedBy":{"displayName":"alice"}},
				{"id":2,"status":2,"type":"tv","createdAt":"2024-01-02T00:00:00Z",
				 "media":{"tmdbId":1438,"status":3,"mediaType":"tv"},
				 "requestedBy":{"plexUsername":"bob"}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"pageInfo":{"pages":2,"page":2,"results":3},"results":[
			{"id":3,"status":2,"type":"movie","createdAt":"2024-01-03T00:00:00Z",
			 "media":{"tmdbId":605,"status":5,"mediaType":"movie"},
			 "requestedBy":{"email":"carol@example.com"}}
		]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop(), WithPageSize(2))
	require.NoError(t, err)

	requests, err := client.GetRequests(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, requests, 3)

	assert.Equal(t, RequestStatusPending, requests[0].Status)
	assert.Equal(t, "alice", requests[0].RequestedBy)
	assert.Equal(t, int64(603), requests[0].TMDBID)

	assert.Equal(t, MediaTypeTV, requests[1].MediaType)
	assert.Equal(t, "bob", requests[1].RequestedBy)

	// Media fully available overrides approved status
	assert.Equal(t, RequestStatusAvailable, requests[2].Status)
	assert.Equal(t, "carol@example.com", requests[2].RequestedBy)
}

func TestCreateApproveDecline(t *testing.T) {
	var approved, declined bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/request", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "movie", payload["mediaType"])
		assert.Equal(t, float64(603), payload["mediaId"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":42,"status":1,"type":"movie","createdAt":"2024-01-01T00:00:00Z",
			"media":{"tmdbId":603,"status":2,"mediaType":"movie"},
			"requestedBy":{"displayName":"alice"}}`)
	})
	mux.HandleFunc("/api/v1/request/42/approve", func(w http.ResponseWriter, r *http.Request) {
		approved = true
		fmt.Fprint(w, `{"id":42,"status":2}`)
	})
	mux.HandleFunc("/api/v1/request/42/decline", func(w http.ResponseWriter, r *http.Request) {
		declined = true
		fmt.Fprint(w, `{"id":42,"status":3}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	request, err := client.CreateRequest(context.Background(), MediaTypeMovie, 603, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, request.ID)
	assert.Equal(t, RequestStatusPending, request.Status)

	require.NoError(t, client.ApproveRequest(context.Background(), 42))
	assert.True(t, approved)

	require.NoError(t, client.DeclineRequest(context.Background(), 42))
	assert.True(t, declined)
}

func TestApproveNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/request/999/approve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	err = client.ApproveRequest(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrichRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/movie/603", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":603,"title":"The Matrix","releaseDate":"1999-03-30",
			"posterPath":"/p1.jpg","overview":"A hacker learns the truth."}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	request := Request{ID: 1, MediaType: MediaTypeMovie, TMDBID: 603, Title: "Unknown"}
	require.NoError(t, client.EnrichRequest(context.Background(), &request))
	assert.Equal(t, "The Matrix", request.Title)
	assert.Equal(t, 1999, request.Year)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p1.jpg", request.PosterURL())
}

func TestRequestStatusStrings(t *testing.T) {
	tests := []struct {
		status   RequestStatus
		expected string
	}{
		{RequestStatusPending, "Pending"},
		{RequestStatusApproved, "Approved"},
		{RequestStatusDeclined, "Declined"},
		{RequestStatusProcessing, "Processing"},
		{RequestStatusAvailable, "Available"},
		{RequestStatusUnknown, "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}

func TestGetMediaDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) { authOK(w) })
	mux.HandleFunc("/api/v1/movie/603", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":603,"title":"The Matrix","releaseDate":"1999-03-30",
			"posterPath":"/p1.jpg","overview":"A hacker learns the truth.","voteAverage":8.2,
			"mediaInfo":{"id":1,"tmdbId":603,"status":5,"mediaType":"movie"}}`)
	})
	mux.HandleFunc("/api/v1/tv/1438", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1438,"name":"The Wire","firstAirDate":"2002-06-02",
			"mediaInfo":{"id":2,"tmdbId":1438,"status":3,"mediaType":"tv"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	movie, err := client.GetMediaDetails(context.Background(), MediaTypeMovie, 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix (1999)", movie.DisplayTitle())
	assert.Equal(t, 8.2, movie.VoteAverage)
	assert.True(t, movie.Available)
	assert.False(t, movie.Requested)

	show, err := client.GetMediaDetails(context.Background(), MediaTypeTV, 1438)
	require.NoError(t, err)
	assert.Equal(t, "The Wire", show.Title)
	assert.Equal(t, 2002, show.Year)
	assert.False(t, show.Available)
	assert.True(t, show.Requested)
}
