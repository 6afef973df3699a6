package plex

import (
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
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout            = 30 * time.Second
	defaultSectionConcurrency = 4

	clientIdentifier = "discord-plex-bot"
	clientProduct    = "discord-plex"
)

// Client wraps the Plex Media Server HTTP API
type Client struct {
	baseURL            string
	token              string
	machineIdentifier  string
	sectionConcurrency int
	httpClient         *http.Client
	logger             zerolog.Logger
}

// NewClient creates a new Plex client and verifies connectivity
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: plex URL is required", ErrInvalidConfig)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: plex token is required", ErrInvalidConfig)
	}

	client := &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		token:              token,
		sectionConcurrency: defaultSectionConcurrency,
		httpClient:         &http.Client{Timeout: defaultTimeout},
		logger:             logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	// Test the connection and learn the server identity
	if err := client.TestConnection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Plex: %w", err)
	}

	return client, nil
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	req.Header.Set("X-Plex-Product", clientProduct)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// parseContainer parses a JSON response into its MediaContainer
func parseContainer(body []byte) (*mediaContainer, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp.MediaContainer, nil
}

// TestConnection verifies the server is reachable and records its identity
func (c *Client) TestConnection(ctx context.Context) error {
	body, err := c.doRequest(ctx, http.MethodGet, "/identity", nil)
	if err != nil {
		return err
	}

	container, err := parseContainer(body)
	if err != nil {
		return err
	}

	c.machineIdentifier = container.MachineIdentifier
	return nil
}

// MachineIdentifier returns the server identifier learned at connect time
func (c *Client) MachineIdentifier() string {
	return c.machineIdentifier
}

// GetAllMedia fetches every item from every movie, show, and artist library.
// Sections are fetched concurrently with bounded parallelism; item order
// follows section order so cache snapshots are deterministic.
func (c *Client) GetAllMedia(ctx context.Context) ([]MediaItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/library/sections", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list library sections: %w", err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	var sections []directory
	for _, dir := range container.Directory {
		switch dir.Type {
		case "movie", "show", "artist":
			sections = append(sections, dir)
		}
	}

	perSection := make([][]MediaItem, len(sections))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.sectionConcurrency)

	for i, section := range sections {
		i, section := i, section
		g.Go(func() error {
			items, err := c.getSectionItems(ctx, section)
			if err != nil {
				return fmt.Errorf("failed to scan library %q: %w", section.Title, err)
			}
			perSection[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []MediaItem
	for _, items := range perSection {
		all = append(all, items...)
	}

	c.logger.Info().Int("items", len(all)).Int("sections", len(sections)).Msg("Fetched Plex library")
	return all, nil
}

// getSectionItems fetches all items of a single library section
func (c *Client) getSectionItems(ctx context.Context, section directory) ([]MediaItem, error) {
	c.logger.Debug().Str("library", section.Title).Str("type", section.Type).Msg("Scanning library section")

	path := fmt.Sprintf("/library/sections/%s/all", section.Key)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(container.Metadata))
	for _, md := range container.Metadata {
		if item, ok := c.mapItem(md, section.Title); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetSessions returns all currently active playback sessions
func (c *Client) GetSessions(ctx context.Context) ([]Session, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/status/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(container.Metadata))
	for _, md := range container.Metadata {
		sessions = append(sessions, mapSession(md))
	}

	c.logger.Debug().Int("count", len(sessions)).Msg("Fetched active sessions")
	return sessions, nil
}

// GetRecentlyAdded returns recently added items, optionally scoped to a
// single library section by title
func (c *Client) GetRecentlyAdded(ctx context.Context, library string, limit int) ([]MediaItem, error) {
	path := "/library/recentlyAdded"
	if library != "" {
		key, err := c.findSectionKey(ctx, library)
		if err != nil {
			return nil, err
		}
		path = fmt.Sprintf("/library/sections/%s/recentlyAdded", key)
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("X-Plex-Container-Size", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get recently added: %w", err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	var items []MediaItem
	for _, md := range container.Metadata {
		if limit > 0 && len(items) >= limit {
			break
		}
		if item, ok := c.mapItem(md, md.LibrarySection); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// findSectionKey resolves a library title to its section key
func (c *Client) findSectionKey(ctx context.Context, library string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/library/sections", nil)
	if err != nil {
		return "", err
	}

	container, err := parseContainer(body)
	if err != nil {
		return "", err
	}

	for _, dir := range container.Directory {
		if strings.EqualFold(dir.Title, library) {
			return dir.Key, nil
		}
	}
	return "", fmt.Errorf("%w: library %q", ErrNotFound, library)
}

// Search queries the Plex server directly, bypassing the cache
func (c *Client) Search(ctx context.Context, query string, limit int) ([]MediaItem, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := c.doRequest(ctx, http.MethodGet, "/search", params)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	var items []MediaItem
	for _, md := range container.Metadata {
		if limit > 0 && len(items) >= limit {
			break
		}
		switch MediaType(md.Type) {
		case MediaTypeMovie, MediaTypeShow, MediaTypeArtist, MediaTypeAlbum:
			if item, ok := c.mapItem(md, md.LibrarySection); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

// GetMetadata fetches a single library item by rating key
func (c *Client) GetMetadata(ctx context.Context, ratingKey string) (*MediaItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(ratingKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", ratingKey, err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}
	if len(container.Metadata) == 0 {
		return nil, ErrNotFound
	}

	md := container.Metadata[0]
	item, ok := c.mapItem(md, md.LibrarySection)
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

// GetServerInfo returns server details and current activity counts
func (c *Client) GetServerInfo(ctx context.Context) (*ServerInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get server info: %w", err)
	}

	container, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	info := &ServerInfo{
		Name:     container.FriendlyName,
		Version:  container.Version,
		Platform: container.Platform,
	}

	sessions, err := c.GetSessions(ctx)
	if err != nil {
		// Activity counts are best-effort; the server details still stand
		c.logger.Warn().Err(err).Msg("Failed to count active sessions")
		return info, nil
	}

	info.Streams = len(sessions)
	for _, s := range sessions {
		if s.TranscodeDecision == "Transcode" {
			info.Transcodes++
		}
	}
	return info, nil
}

// ThumbURL converts a Plex thumb path to a full URL with token
func (c *Client) ThumbURL(thumbPath string) string {
	if thumbPath == "" {
		return ""
	}
	return fmt.Sprintf("%s%s?X-Plex-Token=%s", c.baseURL, thumbPath, c.token)
}

// WebURL returns the app.plex.tv details link for a library item
func (c *Client) WebURL(ratingKey string) string {
	if c.machineIdentifier == "" {
		return ""
	}
	return fmt.Sprintf(
		"https://app.plex.tv/desktop#!/server/%s/details?key=%s",
		c.machineIdentifier,
		url.QueryEscape("/library/metadata/"+ratingKey),
	)
}

// mapItem converts Plex metadata into a MediaItem
func (c *Client) mapItem(md metadata, library string) (MediaItem, bool) {
	mediaType := MediaType(md.Type)
	switch mediaType {
	case MediaTypeMovie, MediaTypeShow, MediaTypeEpisode, MediaTypeSeason,
		MediaTypeArtist, MediaTypeAlbum, MediaTypeTrack:
	default:
		return MediaItem{}, false
	}

	if library == "" {
		library = "Unknown"
	}

	guids := make([]string, 0, len(md.Guids))
	for _, g := range md.Guids {
		guids = append(guids, g.ID)
	}
	ids := ParseExternalIDs(md.GUID, guids)

	item := MediaItem{
		RatingKey: md.RatingKey,
		Title:     md.Title,
		Year:      md.Year,
		Type:      mediaType,
		Library:   library,
		Thumb:     md.Thumb,
		Summary:   md.Summary,
		Rating:    md.Rating,
		Duration:  md.Duration,
		TMDBID:    ids.TMDB,
		IMDBID:    ids.IMDB,
	}

	if md.AddedAt > 0 {
		item.AddedAt = time.Unix(md.AddedAt, 0)
	}

	if mediaType == MediaTypeShow {
		item.EpisodeCount = md.LeafCount
		item.SeasonCount = md.ChildCount
	}

	return item, true
}

// mapSession converts session metadata into a Session
func mapSession(md metadata) Session {
	s := Session{
		SessionKey:        md.SessionKey,
		Title:             md.Title,
		Year:              md.Year,
		Type:              MediaType(md.Type),
		Thumb:             md.Thumb,
		ViewOffset:        md.ViewOffset,
		Duration:          md.Duration,
		State:             "playing",
		TranscodeDecision: "Direct Play",
	}

	if md.GrandparentYear > 0 {
		s.Year = md.GrandparentYear
	}

	// Episodes get the show name and episode number folded into the title
	if s.Type == MediaTypeEpisode && md.GrandparentTitle != "" {
		if md.ParentIndex > 0 && md.Index > 0 {
			s.Title = fmt.Sprintf("%s - S%02dE%02d - %s", md.GrandparentTitle, md.ParentIndex, md.Index, md.Title)
		} else {
			s.Title = fmt.Sprintf("%s - %s", md.GrandparentTitle, md.Title)
		}
	}

	if md.Player != nil {
		s.PlayerName = md.Player.Title
		s.PlayerDevice = md.Player.Device
		if md.Player.State != "" {
			s.State = strings.ToLower(md.Player.State)
		}
	}

	if md.TranscodeSession != nil {
		s.TranscodeDecision = "Transcode"
		s.Quality = md.TranscodeSession.VideoDecision
	}

	if len(md.Media) > 0 && md.Media[0].VideoResolution != "" {
		resolution := md.Media[0].VideoResolution
		if !strings.HasSuffix(resolution, "p") && resolution != "4k" && resolution != "sd" {
			resolution += "p"
		}
		s.Quality = resolution
	}

	return s
}
