package plex

import (
	"fmt"
	"time"
)

// MediaType represents the kind of library item
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeShow    MediaType = "show"
	MediaTypeEpisode MediaType = "episode"
	MediaTypeSeason  MediaType = "season"
	MediaTypeArtist  MediaType = "artist"
	MediaTypeAlbum   MediaType = "album"
	MediaTypeTrack   MediaType = "track"
)

// Emoji returns the display emoji for a media type
func (mt MediaType) Emoji() string {
	switch mt {
	case MediaTypeMovie:
		return "🎬"
	case MediaTypeShow, MediaTypeEpisode, MediaTypeSeason:
		return "📺"
	case MediaTypeArtist:
		return "🎤"
	case MediaTypeAlbum:
		return "💿"
	case MediaTypeTrack:
		return "🎵"
	default:
		return "📁"
	}
}

// MediaItem is an immutable snapshot of a library item. Instances are built
// once during a cache refresh and never mutated afterwards.
type MediaItem struct {
	RatingKey    string
	Title        string
	Year         int
	Type         MediaType
	Library      string
	Thumb        string
	Summary      string
	Rating       float64
	Duration     int // milliseconds
	AddedAt      time.Time
	EpisodeCount int // shows only
	SeasonCount  int // shows only
	TMDBID       int64
	IMDBID       string
}

// DisplayTitle returns the title with year when known
func (m MediaItem) DisplayTitle() string {
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}
	return m.Title
}

// DurationFormatted returns the duration as "1h 36m" or "36m", empty when unknown
func (m MediaItem) DurationFormatted() string {
	if m.Duration <= 0 {
		return ""
	}
	totalMinutes := m.Duration / 60000
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Session represents an active playback session. Sessions are rebuilt on
// every query and never cached.
type Session struct {
	SessionKey        string
	Title             string
	Year              int
	Type              MediaType
	Thumb             string
	ViewOffset        int // milliseconds
	Duration          int // milliseconds
	State             string // playing, paused, buffering
	Quality           string
	TranscodeDecision string // Direct Play or Transcode
	PlayerName        string
	PlayerDevice      string
}

// ProgressPercent returns playback progress as 0-100
func (s Session) ProgressPercent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.ViewOffset) / float64(s.Duration) * 100
}

// ProgressBar renders a ten-segment progress bar
func (s Session) ProgressBar() string {
	filled := int(s.ProgressPercent() / 10)
	if filled > 10 {
		filled = 10
	}
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

// ProgressFormatted returns "current / total" playback position
func (s Session) ProgressFormatted() string {
	return fmt.Sprintf("%s / %s", formatClock(s.ViewOffset), formatClock(s.Duration))
}

// StateEmoji returns the playback-state emoji
func (s Session) StateEmoji() string {
	switch s.State {
	case "paused":
		return "⏸️"
	case "buffering":
		return "⏳"
	default:
		return "▶️"
	}
}

// formatClock formats milliseconds as H:MM:SS or M:SS
func formatClock(ms int) string {
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ServerInfo holds basic Plex server details and live activity counts
type ServerInfo struct {
	Name       string
	Version    string
	Platform   string
	Streams    int
	Transcodes int
}

// apiResponse wraps the MediaContainer for JSON unmarshaling
type apiResponse struct {
	MediaContainer mediaContainer `json:"MediaContainer"`
}

// mediaContainer is the root container for Plex API responses
type mediaContainer struct {
	Size              int         `json:"size"`
	TotalSize         int         `json:"totalSize,omitempty"`
	MachineIdentifier string      `json:"machineIdentifier,omitempty"`
	FriendlyName      string      `json:"friendlyName,omitempty"`
	Version           string      `json:"version,omitempty"`
	Platform          string      `json:"platform,omitempty"`
	Directory         []directory `json:"Directory,omitempty"`
	Metadata          []metadata  `json:"Metadata,omitempty"`
}

// directory represents a library section
type directory struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// guid represents an external identifier entry, e.g. "tmdb://603"
type guid struct {
	ID string `json:"id"`
}

// metadata represents a media item or playback session
type metadata struct {
	RatingKey        string  `json:"ratingKey"`
	SessionKey       string  `json:"sessionKey,omitempty"`
	GUID             string  `json:"guid,omitempty"`
	Guids            []guid  `json:"Guid,omitempty"`
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	GrandparentTitle string  `json:"grandparentTitle,omitempty"`
	ParentIndex      int     `json:"parentIndex,omitempty"`
	Index            int     `json:"index,omitempty"`
	Summary          string  `json:"summary,omitempty"`
	Rating           float64 `json:"rating,omitempty"`
	Year             int     `json:"year,omitempty"`
	GrandparentYear  int     `json:"grandparentYear,omitempty"`
	Thumb            string  `json:"thumb,omitempty"`
	Duration         int     `json:"duration,omitempty"`
	ViewOffset       int     `json:"viewOffset,omitempty"`
	AddedAt          int64   `json:"addedAt,omitempty"`
	ChildCount       int     `json:"childCount,omitempty"`
	LeafCount        int     `json:"leafCount,omitempty"`
	LibrarySection   string  `json:"librarySectionTitle,omitempty"`

	Media            []media            `json:"Media,omitempty"`
	Player           *player            `json:"Player,omitempty"`
	TranscodeSession *transcodeSession  `json:"TranscodeSession,omitempty"`
}

// media carries stream details for a media item
type media struct {
	VideoResolution string `json:"videoResolution,omitempty"`
}

// player describes the client playing a session
type player struct {
	Title  string `json:"title,omitempty"`
	Device string `json:"device,omitempty"`
	State  string `json:"state,omitempty"`
}

// transcodeSession is present when a session is being transcoded
type transcodeSession struct {
	VideoDecision string `json:"videoDecision,omitempty"`
}
