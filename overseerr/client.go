package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
)

// Client represents an Overseerr API client
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Overseerr client and verifies connectivity
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: overseerr URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: overseerr API key is required", ErrInvalidConfig)
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	// Test the connection
	if err := client.TestConnection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Overseerr: %w", err)
	}

	return client, nil
}

// doRequest performs an authenticated HTTP request, optionally with a JSON body
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, payload any) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/api/v1%s", c.baseURL, endpoint)
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// TestConnection tests the connection and API key via /auth/me
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, nil)
	return err
}

// Search queries Overseerr for movies and TV shows matching the query.
// Availability flags are derived from the attached media info: fully
// available titles are marked available, anything pending, processing, or
// partially available is marked requested.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")

	body, err := c.doRequest(ctx, http.MethodGet, "/search", params, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(response.Results))
	for _, hit := range response.Results {
		mediaType := MediaType(hit.MediaType)
		if mediaType != MediaTypeMovie && mediaType != MediaTypeTV {
			continue
		}

		result := SearchResult{
			MediaType:   mediaType,
			TMDBID:      hit.ID,
			Title:       hit.Title,
			PosterPath:  hit.PosterPath,
			Overview:    hit.Overview,
			VoteAverage: hit.VoteAverage,
		}

		if mediaType == MediaTypeTV {
			result.Title = hit.Name
			result.Year = yearFromDate(hit.FirstAirDate)
		} else {
			result.Year = yearFromDate(hit.ReleaseDate)
		}
		if result.Title == "" {
			result.Title = "Unknown"
		}

		if hit.MediaInfo != nil {
			switch hit.MediaInfo.Status {
			case mediaStatusAvailable:
				result.AlreadyAvailable = true
			case mediaStatusPending, mediaStatusProcessing, mediaStatusPartiallyAvailable:
				result.AlreadyRequested = true
				result.RequestStatus = statusFromMediaCode(hit.MediaInfo.Status)
			}
		}

		results = append(results, result)
	}

	c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Overseerr search")
	return results, nil
}

// GetRequests retrieves requests, paginating until exhausted. The filter
// matches the Overseerr API: "all", "pending", "approved", "available", etc.
func (c *Client) GetRequests(ctx context.Context, filter string) ([]Request, error) {
	var all []Request
	page := 1

	for {
		params := url.Values{}
		params.Set("take", strconv.Itoa(c.pageSize))
		params.Set("skip", strconv.Itoa((page-1)*c.pageSize))
		if filter != "" {
			params.Set("filter", filter)
		}

		body, err := c.doRequest(ctx, http.MethodGet, "/request", params, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get requests: %w", err)
		}

		var response requestsResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		for _, payload := range response.Results {
			all = append(all, parseRequest(payload))
		}

		c.logger.Debug().
			Int("page", page).
			Int("count", len(response.Results)).
			Int("total", len(all)).
			Msg("Retrieved requests from Overseerr")

		if page >= response.PageInfo.Pages {
			break
		}
		page++
	}

	return all, nil
}

// GetPendingRequests retrieves requests awaiting approval
func (c *Client) GetPendingRequests(ctx context.Context) ([]Request, error) {
	return c.GetRequests(ctx, "pending")
}

// GetRequest retrieves a single request by ID
func (c *Client) GetRequest(ctx context.Context, requestID int) (*Request, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/request/%d", requestID), nil, nil)
	if err != nil {
		return nil, err
	}

	var payload requestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	request := parseRequest(payload)
	return &request, nil
}

// CreateRequest submits a new media request. For TV requests an optional
// season list restricts the request to those seasons.
func (c *Client) CreateRequest(ctx context.Context, mediaType MediaType, tmdbID int64, seasons []int) (*Request, error) {
	payload := map[string]any{
		"mediaType": string(mediaType),
		"mediaId":   tmdbID,
	}
	if mediaType == MediaTypeTV && len(seasons) > 0 {
		payload["seasons"] = seasons
	}

	c.logger.Info().Str("type", string(mediaType)).Int64("tmdb_id", tmdbID).Msg("Creating Overseerr request")

	body, err := c.doRequest(ctx, http.MethodPost, "/request", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var raw requestPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse created request: %w", err)
	}

	request := parseRequest(raw)
	c.logger.Info().Int("request_id", request.ID).Str("status", request.Status.String()).Msg("Overseerr request created")
	return &request, nil
}

// ApproveRequest approves a pending request
func (c *Client) ApproveRequest(ctx context.Context, requestID int) error {
	c.logger.Info().Int("request_id", requestID).Msg("Approving Overseerr request")
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/request/%d/approve", requestID), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to approve request %d: %w", requestID, err)
	}
	return nil
}

// DeclineRequest declines a pending request
func (c *Client) DeclineRequest(ctx context.Context, requestID int) error {
	c.logger.Info().Int("request_id", requestID).Msg("Declining Overseerr request")
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/request/%d/decline", requestID), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to decline request %d: %w", requestID, err)
	}
	return nil
}

// DeleteRequest removes a request entirely
func (c *Client) DeleteRequest(ctx context.Context, requestID int) error {
	_, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/request/%d", requestID), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete request %d: %w", requestID, err)
	}
	return nil
}

// GetMediaDetails fetches display details for a single movie or show,
// including its current availability on the media server.
func (c *Client) GetMediaDetails(ctx context.Context, mediaType MediaType, tmdbID int64) (*MediaDetails, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/%s/%d", mediaType, tmdbID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", mediaType, tmdbID, err)
	}

	var wire mediaDetails
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse media details: %w", err)
	}

	details := &MediaDetails{
		MediaType:   mediaType,
		TMDBID:      tmdbID,
		Title:       wire.Title,
		Year:        yearFromDate(wire.ReleaseDate),
		Overview:    wire.Overview,
		PosterPath:  wire.PosterPath,
		VoteAverage: wire.VoteAverage,
	}
	if mediaType == MediaTypeTV {
		details.Title = wire.Name
		details.Year = yearFromDate(wire.FirstAirDate)
	}
	if details.Title == "" {
		details.Title = "Unknown"
	}

	if wire.MediaInfo != nil {
		switch wire.MediaInfo.Status {
		case mediaStatusAvailable:
			details.Available = true
		case mediaStatusPending, mediaStatusProcessing, mediaStatusPartiallyAvailable:
			details.Requested = true
		}
	}
	return details, nil
}

// PosterURL looks up the TMDB poster URL for a title, empty when absent
func (c *Client) PosterURL(ctx context.Context, mediaType MediaType, tmdbID int64) (string, error) {
	details, err := c.GetMediaDetails(ctx, mediaType, tmdbID)
	if err != nil {
		return "", err
	}
	return details.PosterURL(), nil
}

// EnrichRequest fills in title, year, poster, and overview from the
// media-details endpoint. Request listings only carry TMDB IDs, so the bot
// resolves display fields before rendering.
func (c *Client) EnrichRequest(ctx context.Context, request *Request) error {
	if request.TMDBID == 0 {
		return nil
	}

	details, err := c.GetMediaDetails(ctx, request.MediaType, request.TMDBID)
	if err != nil {
		return err
	}

	request.Title = details.Title
	request.Year = details.Year
	request.PosterPath = details.PosterPath
	request.Overview = details.Overview
	return nil
}

// GetStatus returns the Overseerr server status
func (c *Client) GetStatus(ctx context.Context) (*ServerStatus, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/status", nil, nil)
	if err != nil {
		return nil, err
	}

	var status ServerStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// parseRequest converts a wire request into the simplified Request model
func parseRequest(payload requestPayload) Request {
	request := Request{
		ID:          payload.ID,
		MediaType:   MediaTypeMovie,
		Status:      statusFromCode(payload.Status),
		RequestedBy: payload.RequestedBy.displayName(),
		RequestedAt: payload.CreatedAt,
		Title:       "Unknown",
	}

	if payload.Type == string(MediaTypeTV) {
		request.MediaType = MediaTypeTV
	}

	if payload.Media != nil {
		request.TMDBID = payload.Media.TmdbID
		if payload.Media.MediaType != "" {
			request.MediaType = MediaType(payload.Media.MediaType)
		}
		// Once the media is fully available the request status follows
		if payload.Media.Status == mediaStatusAvailable {
			request.Status = RequestStatusAvailable
		}
	}

	return request
}
