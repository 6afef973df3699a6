package overseerr

import (
	"strconv"
	"time"
)

// RequestStatus represents the lifecycle state of a media request
type RequestStatus int

const (
	// RequestStatusUnknown represents an unknown request status
	RequestStatusUnknown RequestStatus = iota
	// RequestStatusPending indicates a request awaiting approval
	RequestStatusPending
	// RequestStatusApproved indicates an approved request
	RequestStatusApproved
	// RequestStatusDeclined indicates a declined request
	RequestStatusDeclined
	// RequestStatusProcessing indicates a request being downloaded
	RequestStatusProcessing
	// RequestStatusAvailable indicates the media is available in Plex
	RequestStatusAvailable
)

// String returns the string representation of a RequestStatus
func (rs RequestStatus) String() string {
	switch rs {
	case RequestStatusPending:
		return "Pending"
	case RequestStatusApproved:
		return "Approved"
	case RequestStatusDeclined:
		return "Declined"
	case RequestStatusProcessing:
		return "Processing"
	case RequestStatusAvailable:
		return "Available"
	default:
		return "Unknown"
	}
}

// Emoji returns the display emoji for a request status
func (rs RequestStatus) Emoji() string {
	switch rs {
	case RequestStatusPending:
		return "⏳"
	case RequestStatusApproved:
		return "✅"
	case RequestStatusDeclined:
		return "❌"
	case RequestStatusProcessing:
		return "⚙️"
	case RequestStatusAvailable:
		return "🎉"
	default:
		return "❓"
	}
}

// statusFromCode maps an Overseerr numeric status onto a RequestStatus
func statusFromCode(code int) RequestStatus {
	switch code {
	case 1:
		return RequestStatusPending
	case 2:
		return RequestStatusApproved
	case 3:
		return RequestStatusDeclined
	case 4:
		return RequestStatusProcessing
	case 5:
		return RequestStatusAvailable
	default:
		return RequestStatusUnknown
	}
}

// Media availability codes reported under mediaInfo.status
const (
	mediaStatusPending            = 2
	mediaStatusProcessing         = 3
	mediaStatusPartiallyAvailable = 4
	mediaStatusAvailable          = 5
)

// statusFromMediaCode maps a mediaInfo.status availability code onto the
// nearest RequestStatus for display. The two scales differ: request
// statuses track approval, media statuses track download progress.
func statusFromMediaCode(code int) RequestStatus {
	switch code {
	case mediaStatusPending:
		return RequestStatusPending
	case mediaStatusProcessing, mediaStatusPartiallyAvailable:
		return RequestStatusProcessing
	case mediaStatusAvailable:
		return RequestStatusAvailable
	default:
		return RequestStatusUnknown
	}
}

// MediaType represents the type of media
type MediaType string

const (
	// MediaTypeMovie represents a movie
	MediaTypeMovie MediaType = "movie"
	// MediaTypeTV represents a TV show
	MediaTypeTV MediaType = "tv"
)

// Emoji returns the display emoji for a media type
func (mt MediaType) Emoji() string {
	if mt == MediaTypeMovie {
		return "🎬"
	}
	return "📺"
}

// posterBaseURL is the public TMDB image host used for embed thumbnails
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// SearchResult represents a search hit from Overseerr/TMDB
type SearchResult struct {
	MediaType        MediaType
	TMDBID           int64
	Title            string
	Year             int
	PosterPath       string
	Overview         string
	VoteAverage      float64
	AlreadyAvailable bool
	AlreadyRequested bool
	RequestStatus    RequestStatus
}

// PosterURL returns the full TMDB poster URL, empty when no poster exists
func (r SearchResult) PosterURL() string {
	if r.PosterPath == "" {
		return ""
	}
	return posterBaseURL + r.PosterPath
}

// DisplayTitle returns the title with year when known
func (r SearchResult) DisplayTitle() string {
	if r.Year > 0 {
		return r.Title + " (" + strconv.Itoa(r.Year) + ")"
	}
	return r.Title
}

// Request represents a media request
type Request struct {
	ID          int
	MediaType   MediaType
	TMDBID      int64
	Title       string
	Year        int
	Status      RequestStatus
	RequestedBy string
	RequestedAt time.Time
	PosterPath  string
	Overview    string
}

// PosterURL returns the full TMDB poster URL, empty when no poster exists
func (r Request) PosterURL() string {
	if r.PosterPath == "" {
		return ""
	}
	return posterBaseURL + r.PosterPath
}

// user represents an Overseerr user
type user struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username,omitempty"`
	PlexUsername string `json:"plexUsername,omitempty"`
	DisplayName  string `json:"displayName"`
}

// displayName returns the best available name for the user
func (u *user) displayName() string {
	if u == nil {
		return "Unknown"
	}
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Username != "":
		return u.Username
	case u.PlexUsername != "":
		return u.PlexUsername
	case u.Email != "":
		return u.Email
	}
	return "Unknown"
}

// mediaInfo carries availability data attached to requests and search hits
type mediaInfo struct {
	ID        int    `json:"id"`
	TmdbID    int64  `json:"tmdbId"`
	ImdbID    string `json:"imdbId,omitempty"`
	Status    int    `json:"status"`
	MediaType string `json:"mediaType"`
}

// requestPayload is the wire form of a request
type requestPayload struct {
	ID          int        `json:"id"`
	Status      int        `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Type        string     `json:"type"`
	Media       *mediaInfo `json:"media,omitempty"`
	RequestedBy *user      `json:"requestedBy,omitempty"`
	ModifiedBy  *user      `json:"modifiedBy,omitempty"`
}

// pageInfo contains pagination information
type pageInfo struct {
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
	Page     int `json:"page"`
}

// requestsResponse is the paginated response from the requests endpoint
type requestsResponse struct {
	PageInfo pageInfo         `json:"pageInfo"`
	Results  []requestPayload `json:"results"`
}

// searchHit is the wire form of a single search result
type searchHit struct {
	ID           int64      `json:"id"`
	MediaType    string     `json:"mediaType"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	ReleaseDate  string     `json:"releaseDate,omitempty"`
	FirstAirDate string     `json:"firstAirDate,omitempty"`
	PosterPath   string     `json:"posterPath,omitempty"`
	Overview     string     `json:"overview,omitempty"`
	VoteAverage  float64    `json:"voteAverage,omitempty"`
	MediaInfo    *mediaInfo `json:"mediaInfo,omitempty"`
}

// searchResponse is the paginated response from the search endpoint
type searchResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"totalPages"`
	TotalResults int         `json:"totalResults"`
	Results      []searchHit `json:"results"`
}

// mediaDetails is the subset of movie/tv detail fields the bot renders
type mediaDetails struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	ReleaseDate  string     `json:"releaseDate,omitempty"`
	FirstAirDate string     `json:"firstAirDate,omitempty"`
	PosterPath   string     `json:"posterPath,omitempty"`
	Overview     string     `json:"overview,omitempty"`
	VoteAverage  float64    `json:"voteAverage,omitempty"`
	MediaInfo    *mediaInfo `json:"mediaInfo,omitempty"`
}

// MediaDetails holds the display fields for a single movie or show
type MediaDetails struct {
	MediaType   MediaType
	TMDBID      int64
	Title       string
	Year        int
	Overview    string
	PosterPath  string
	VoteAverage float64
	Available   bool
	Requested   bool
}

// PosterURL returns the full TMDB poster URL, empty when no poster exists
func (d MediaDetails) PosterURL() string {
	if d.PosterPath == "" {
		return ""
	}
	return posterBaseURL + d.PosterPath
}

// DisplayTitle returns the title with year when known
func (d MediaDetails) DisplayTitle() string {
	if d.Year > 0 {
		return d.Title + " (" + strconv.Itoa(d.Year) + ")"
	}
	return d.Title
}

// ServerStatus holds the Overseerr version reported by /status
type ServerStatus struct {
	Version string `json:"version"`
}

// yearFromDate extracts the year from a "2006-01-02" date string
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
