package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-plex/cache"
	"github.com/jdmsharpe/discord-plex/overseerr"
	"github.com/jdmsharpe/discord-plex/plex"
)

const (
	colorPlex      = 0xE5A00D
	colorOverseerr = 0x5C6BC0
	colorError     = 0xED4245
	colorSuccess   = 0x57F287

	maxDescriptionLength = 4096
	maxFieldLength       = 1024
	maxSelectOptions     = 25
	maxLabelLength       = 100
)

// truncate shortens s to at most max runes, appending an ellipsis when cut
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: truncate(message, maxDescriptionLength),
		Color:       colorError,
	}
}

func successEmbed(title, message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ " + title,
		Description: truncate(message, maxDescriptionLength),
		Color:       colorSuccess,
	}
}

func notAuthorizedEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔒 Not Authorized",
		Description: "You do not have permission to manage requests.",
		Color:       colorError,
	}
}

// mediaDetailEmbed renders a single library item with poster and metadata
func mediaDetailEmbed(item plex.MediaItem, thumbURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", item.Type.Emoji(), item.DisplayTitle()),
		Description: truncate(item.Summary, maxDescriptionLength),
		Color:       colorPlex,
	}

	if thumbURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbURL}
	}

	addField := func(name, value string) {
		if value == "" {
			return
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  truncate(value, maxFieldLength),
			Inline: true,
		})
	}

	addField("Library", item.Library)
	addField("Duration", item.DurationFormatted())
	if item.Rating > 0 {
		addField("Rating", fmt.Sprintf("⭐ %.1f", item.Rating))
	}
	if item.Type == plex.MediaTypeShow {
		if item.SeasonCount > 0 {
			addField("Seasons", fmt.Sprintf("%d", item.SeasonCount))
		}
		if item.EpisodeCount > 0 {
			addField("Episodes", fmt.Sprintf("%d", item.EpisodeCount))
		}
	}
	if !item.AddedAt.IsZero() {
		addField("Added", item.AddedAt.Format("Jan 2, 2006"))
	}

	return embed
}

// mediaListEmbed renders multiple search hits as a numbered list
func mediaListEmbed(query string, items []plex.MediaItem) *discordgo.MessageEmbed {
	var sb strings.Builder
	for n, item := range items {
		fmt.Fprintf(&sb, "%d. %s **%s** — %s\n", n+1, item.Type.Emoji(), item.DisplayTitle(), item.Library)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔍 Results for %q", query),
		Description: truncate(sb.String(), maxDescriptionLength),
		Color:       colorPlex,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Pick a title below for details",
		},
	}
}

// sessionEmbed renders one playback session in detail
func sessionEmbed(session plex.Session, thumbURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s %s", session.StateEmoji(), session.Title),
		Description: fmt.Sprintf("%s `%s` %.0f%%",
			session.ProgressBar(), session.ProgressFormatted(), session.ProgressPercent()),
		Color: colorPlex,
	}

	if thumbURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbURL}
	}

	fields := []struct{ name, value string }{
		{"Player", session.PlayerName},
		{"Device", session.PlayerDevice},
		{"Quality", session.Quality},
		{"Playback", session.TranscodeDecision},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.name,
			Value:  f.value,
			Inline: true,
		})
	}

	return embed
}

// sessionsSummaryEmbed condenses many sessions into one embed
func sessionsSummaryEmbed(sessions []plex.Session) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📡 %d Active Streams", len(sessions)),
		Color: colorPlex,
	}

	for _, session := range sessions {
		value := fmt.Sprintf("%s %.0f%% on %s",
			session.ProgressBar(), session.ProgressPercent(), session.PlayerName)
		if session.TranscodeDecision != "" {
			value += " (" + session.TranscodeDecision + ")"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s", session.StateEmoji(), truncate(session.Title, maxLabelLength)),
			Value: truncate(value, maxFieldLength),
		})
	}

	return embed
}

// relativeDay annotates a timestamp as Today, Yesterday, or "Nd ago"
func relativeDay(t time.Time, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

// recentEmbed renders recently added items with relative-day annotations
func recentEmbed(library string, items []plex.MediaItem, now time.Time) *discordgo.MessageEmbed {
	title := "🆕 Recently Added"
	if library != "" {
		title += " — " + library
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "%s **%s**", item.Type.Emoji(), item.DisplayTitle())
		if !item.AddedAt.IsZero() {
			fmt.Fprintf(&sb, " · %s", relativeDay(item.AddedAt, now))
		}
		sb.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: truncate(sb.String(), maxDescriptionLength),
		Color:       colorPlex,
	}
}

// statsEmbed renders server info alongside cache statistics
func statsEmbed(info *plex.ServerInfo, stats cache.Stats) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📊 Server Stats",
		Color: colorPlex,
	}

	if info != nil {
		embed.Title = "📊 " + info.Name
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Version", Value: info.Version, Inline: true},
			&discordgo.MessageEmbedField{Name: "Platform", Value: info.Platform, Inline: true},
			&discordgo.MessageEmbedField{
				Name:   "Now Playing",
				Value:  fmt.Sprintf("%d streams (%d transcoding)", info.Streams, info.Transcodes),
				Inline: true,
			},
		)
	}

	var library strings.Builder
	fmt.Fprintf(&library, "%d items across %d libraries\n", stats.TotalItems, len(stats.ByLibrary))
	for _, mediaType := range []string{"movie", "show", "artist"} {
		if count := stats.ByType[mediaType]; count > 0 {
			fmt.Fprintf(&library, "%s %d %ss\n", plex.MediaType(mediaType).Emoji(), count, mediaType)
		}
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Library",
		Value: truncate(library.String(), maxFieldLength),
	})

	if !stats.LastRefresh.IsZero() {
		footer := "Cache refreshed " + stats.LastRefresh.Format("15:04 MST")
		if stats.Stale {
			footer += " (stale)"
		}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}

	return embed
}

// requestSearchEmbed renders Overseerr search hits with availability flags
func requestSearchEmbed(query string, results []overseerr.SearchResult) *discordgo.MessageEmbed {
	var sb strings.Builder
	for n, result := range results {
		fmt.Fprintf(&sb, "%d. %s **%s**", n+1, result.MediaType.Emoji(), result.DisplayTitle())
		switch {
		case result.AlreadyAvailable:
			sb.WriteString(" · ✅ Available")
		case result.AlreadyRequested:
			fmt.Fprintf(&sb, " · %s %s", result.RequestStatus.Emoji(), result.RequestStatus)
		}
		sb.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔍 Results for %q", query),
		Description: truncate(sb.String(), maxDescriptionLength),
		Color:       colorOverseerr,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Pick a title below to request it",
		},
	}
}

// mediaDetailsEmbed renders an Overseerr title ahead of a request confirmation
func mediaDetailsEmbed(details *overseerr.MediaDetails) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", details.MediaType.Emoji(), details.DisplayTitle()),
		Description: truncate(details.Overview, maxDescriptionLength),
		Color:       colorOverseerr,
	}

	if url := details.PosterURL(); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}
	if details.VoteAverage > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Rating",
			Value:  fmt.Sprintf("⭐ %.1f", details.VoteAverage),
			Inline: true,
		})
	}

	return embed
}

// requestEmbed renders a single request with its status
func requestEmbed(request *overseerr.Request, headline string) *discordgo.MessageEmbed {
	title := request.Title
	if request.Year > 0 {
		title = fmt.Sprintf("%s (%d)", request.Title, request.Year)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", request.MediaType.Emoji(), title),
		Description: truncate(request.Overview, maxDescriptionLength),
		Color:       colorOverseerr,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: fmt.Sprintf("%s %s", request.Status.Emoji(), request.Status), Inline: true},
			{Name: "Request ID", Value: fmt.Sprintf("#%d", request.ID), Inline: true},
		},
	}

	if headline != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: headline}
	}
	if request.RequestedBy != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Requested By", Value: request.RequestedBy, Inline: true,
		})
	}
	if url := request.PosterURL(); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}

	return embed
}

// requestListEmbed renders a page of requests as compact fields
func requestListEmbed(title string, requests []overseerr.Request) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: colorOverseerr,
	}

	if len(requests) == 0 {
		embed.Description = "No requests found."
		return embed
	}

	for _, request := range requests {
		name := fmt.Sprintf("%s %s", request.MediaType.Emoji(), request.Title)
		if request.Year > 0 {
			name = fmt.Sprintf("%s (%d)", name, request.Year)
		}
		value := fmt.Sprintf("%s %s · #%d", request.Status.Emoji(), request.Status, request.ID)
		if request.RequestedBy != "" {
			value += " · by " + request.RequestedBy
		}
		if !request.RequestedAt.IsZero() {
			value += " · " + request.RequestedAt.Format("Jan 2")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(name, 256),
			Value: truncate(value, maxFieldLength),
		})
	}

	return embed
}
