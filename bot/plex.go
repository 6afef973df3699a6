package bot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sahilm/fuzzy"

	"github.com/jdmsharpe/discord-plex/cache"
	"github.com/jdmsharpe/discord-plex/overseerr"
	"github.com/jdmsharpe/discord-plex/plex"
)

const componentPlexSelect = "plex_select"

func (b *Bot) handlePlexSearch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	query := stringOption(options, "query")
	library := stringOption(options, "library")
	mediaType := stringOption(options, "type")

	var searchOpts []cache.SearchOption
	if library != "" {
		searchOpts = append(searchOpts, cache.WithLibrary(library))
	}
	if mediaType != "" {
		searchOpts = append(searchOpts, cache.WithType(plex.MediaType(mediaType)))
	}

	results := b.library.Search(query, searchLimit, searchOpts...)

	// Thin cache hits get topped up with a live server search, which also
	// covers queries arriving before the first refresh completes
	if len(results) < directSearchFloor {
		results = b.mergeDirectSearch(ctx, query, library, mediaType, results)
	}

	if len(results) == 0 {
		b.respondError(s, i, "No matches for \""+query+"\". Try `/request search` to add it.")
		return
	}

	if len(results) == 1 {
		b.respondMediaDetail(ctx, s, i, results[0])
		return
	}

	if len(results) > maxSelectOptions {
		results = results[:maxSelectOptions]
	}

	menu := discordgo.SelectMenu{
		CustomID:    componentPlexSelect,
		Placeholder: "Pick a title",
	}
	for _, item := range results {
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label:       truncate(item.DisplayTitle(), maxLabelLength),
			Value:       item.RatingKey,
			Description: truncate(item.Library, maxLabelLength),
			Emoji:       &discordgo.ComponentEmoji{Name: item.Type.Emoji()},
		})
	}

	b.editResponse(s, i,
		[]*discordgo.MessageEmbed{mediaListEmbed(query, results)},
		[]discordgo.MessageComponent{discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{menu},
		}},
	)
}

// mergeDirectSearch appends live Plex search hits not already present in
// the cached results
func (b *Bot) mergeDirectSearch(ctx context.Context, query, library, mediaType string, cached []plex.MediaItem) []plex.MediaItem {
	direct, err := b.plex.Search(ctx, query, searchLimit)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Direct Plex search failed, serving cache only")
		return cached
	}

	seen := make(map[string]struct{}, len(cached))
	for _, item := range cached {
		seen[item.RatingKey] = struct{}{}
	}

	merged := cached
	for _, item := range direct {
		if _, ok := seen[item.RatingKey]; ok {
			continue
		}
		if library != "" && !strings.EqualFold(item.Library, library) {
			continue
		}
		if mediaType != "" && string(item.Type) != mediaType {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

func (b *Bot) respondMediaDetail(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, item plex.MediaItem) {
	thumbURL := b.posterFor(ctx, item)

	var components []discordgo.MessageComponent
	if webURL := b.plex.WebURL(item.RatingKey); webURL != "" {
		components = []discordgo.MessageComponent{discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{discordgo.Button{
				Label: "Open in Plex",
				Style: discordgo.LinkButton,
				URL:   webURL,
			}},
		}}
	}

	b.editResponse(s, i, []*discordgo.MessageEmbed{mediaDetailEmbed(item, thumbURL)}, components)
}

// posterFor prefers the public TMDB poster so embeds do not carry a tokened
// Plex URL; the Plex thumb is the fallback for items without a TMDB ID
func (b *Bot) posterFor(ctx context.Context, item plex.MediaItem) string {
	if item.TMDBID != 0 {
		mediaType := overseerr.MediaTypeMovie
		if item.Type == plex.MediaTypeShow {
			mediaType = overseerr.MediaTypeTV
		}
		if url, err := b.requests.PosterURL(ctx, mediaType, item.TMDBID); err == nil && url != "" {
			return url
		}
	}
	return b.plex.ThumbURL(item.Thumb)
}

func (b *Bot) handlePlexSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	if b.deferResponse(s, i, false) != nil {
		return
	}

	ratingKey := values[0]
	item, ok := b.library.Get(ratingKey)
	if !ok {
		// Merged direct-search hits are not in the cache
		fetched, err := b.plex.GetMetadata(ctx, ratingKey)
		if err != nil {
			b.logger.Error().Err(err).Str("rating_key", ratingKey).Msg("Failed to fetch selected item")
			b.respondError(s, i, "That title is no longer available.")
			return
		}
		item = *fetched
	}

	b.respondMediaDetail(ctx, s, i, item)
}

func (b *Bot) handlePlexPlaying(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	sessions, err := b.plex.GetSessions(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to fetch sessions")
		b.respondError(s, i, "Could not reach the Plex server.")
		return
	}

	if len(sessions) == 0 {
		b.editResponse(s, i, []*discordgo.MessageEmbed{{
			Title:       "📡 Now Playing",
			Description: "Nothing is playing right now.",
			Color:       colorPlex,
		}}, nil)
		return
	}

	if len(sessions) > 3 {
		b.editResponse(s, i, []*discordgo.MessageEmbed{sessionsSummaryEmbed(sessions)}, nil)
		return
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(sessions))
	for _, session := range sessions {
		embeds = append(embeds, sessionEmbed(session, b.plex.ThumbURL(session.Thumb)))
	}
	b.editResponse(s, i, embeds, nil)
}

func (b *Bot) handlePlexRecent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	library := stringOption(options, "library")
	limit := intOption(options, "limit", defaultRecent)

	items, err := b.plex.GetRecentlyAdded(ctx, library, limit)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to fetch recently added")
		b.respondError(s, i, "Could not reach the Plex server.")
		return
	}

	if len(items) == 0 {
		b.respondError(s, i, "Nothing has been added recently.")
		return
	}

	b.editResponse(s, i, []*discordgo.MessageEmbed{recentEmbed(library, items, time.Now())}, nil)
}

func (b *Bot) handlePlexStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	info, err := b.plex.GetServerInfo(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to fetch server info, rendering cache stats only")
		info = nil
	}

	b.editResponse(s, i, []*discordgo.MessageEmbed{statsEmbed(info, b.library.Stats())}, nil)
}

// handleAutocomplete ranks library names against the partial input
func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}

	var input string
	for _, option := range data.Options[0].Options {
		if option.Focused && option.Name == "library" {
			input = option.StringValue()
			break
		}
	}

	libraries := b.library.Libraries()

	ranked := libraries
	if input != "" {
		matches := fuzzy.Find(input, libraries)
		ranked = make([]string, 0, len(matches))
		for _, match := range matches {
			ranked = append(ranked, match.Str)
		}
	}
	if len(ranked) > maxSelectOptions {
		ranked = ranked[:maxSelectOptions]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(ranked))
	for _, name := range ranked {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to send autocomplete choices")
	}
}
