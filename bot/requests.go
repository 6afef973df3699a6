package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-plex/overseerr"
)

const (
	componentRequestSelect  = "request_select"
	componentRequestCancel  = "request_cancel"
	componentRequestConfirm = "request_confirm:"
	componentRequestApprove = "request_approve:"
	componentRequestDeny    = "request_deny:"

	requestListLimit = 10
)

// interactionUser returns the invoking user for guild and DM interactions
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) handleRequestSearch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	query := stringOption(options, "query")
	results, err := b.requests.Search(ctx, query)
	if err != nil {
		b.logger.Error().Err(err).Msg("Overseerr search failed")
		b.respondError(s, i, "Could not reach Overseerr.")
		return
	}

	if len(results) == 0 {
		b.respondError(s, i, "No results for \""+query+"\".")
		return
	}

	if len(results) > requestListLimit {
		results = results[:requestListLimit]
	}

	menu := discordgo.SelectMenu{
		CustomID:    componentRequestSelect,
		Placeholder: "Pick a title to request",
	}
	for _, result := range results {
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label:       truncate(result.DisplayTitle(), maxLabelLength),
			Value:       fmt.Sprintf("%s:%d", result.MediaType, result.TMDBID),
			Description: truncate(result.Overview, maxLabelLength),
			Emoji:       &discordgo.ComponentEmoji{Name: result.MediaType.Emoji()},
		})
	}

	b.editResponse(s, i,
		[]*discordgo.MessageEmbed{requestSearchEmbed(query, results)},
		[]discordgo.MessageComponent{discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{menu},
		}},
	)
}

// parseMediaRef decodes a "mediatype:tmdbid" component value
func parseMediaRef(value string) (overseerr.MediaType, int64, error) {
	mediaTypeRaw, idRaw, found := strings.Cut(value, ":")
	if !found {
		return "", 0, fmt.Errorf("malformed media reference %q", value)
	}

	mediaType := overseerr.MediaType(mediaTypeRaw)
	if mediaType != overseerr.MediaTypeMovie && mediaType != overseerr.MediaTypeTV {
		return "", 0, fmt.Errorf("unknown media type %q", mediaTypeRaw)
	}

	tmdbID, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed TMDB id %q: %w", idRaw, err)
	}
	return mediaType, tmdbID, nil
}

func (b *Bot) handleRequestSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}

	mediaType, tmdbID, err := parseMediaRef(values[0])
	if err != nil {
		b.logger.Error().Err(err).Msg("Bad request-select value")
		return
	}

	if b.deferUpdate(s, i) != nil {
		return
	}

	details, err := b.requests.GetMediaDetails(ctx, mediaType, tmdbID)
	if err != nil {
		b.logger.Error().Err(err).Int64("tmdb_id", tmdbID).Msg("Failed to fetch media details")
		b.respondError(s, i, "Could not load that title from Overseerr.")
		return
	}

	embed := mediaDetailsEmbed(details)

	switch {
	case details.Available:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Already available on Plex"}
		b.editResponse(s, i, []*discordgo.MessageEmbed{embed}, []discordgo.MessageComponent{})

	case details.Requested:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Already requested"}
		b.editResponse(s, i, []*discordgo.MessageEmbed{embed}, []discordgo.MessageComponent{})

	default:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Confirm this request?"}
		b.editResponse(s, i, []*discordgo.MessageEmbed{embed}, []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Request",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("%s%s:%d", componentRequestConfirm, mediaType, tmdbID),
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: componentRequestCancel,
				},
			}},
		})
	}
}

func (b *Bot) handleRequestConfirm(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	mediaType, tmdbID, err := parseMediaRef(strings.TrimPrefix(customID, componentRequestConfirm))
	if err != nil {
		b.logger.Error().Err(err).Msg("Bad request-confirm id")
		return
	}

	if b.deferUpdate(s, i) != nil {
		return
	}

	request, err := b.requests.CreateRequest(ctx, mediaType, tmdbID, nil)
	if err != nil {
		b.logger.Error().Err(err).Int64("tmdb_id", tmdbID).Msg("Failed to create request")
		b.respondError(s, i, "Overseerr rejected the request.")
		return
	}

	if err := b.requests.EnrichRequest(ctx, request); err != nil {
		b.logger.Warn().Err(err).Int("request_id", request.ID).Msg("Failed to enrich request")
	}

	user := interactionUser(i)
	requester := ""
	if user != nil {
		requester = user.Username
	}

	autoApproved := b.maybeAutoApprove(ctx, request)

	headline := "Request submitted"
	if requester != "" {
		headline = "Requested by " + requester
	}
	if autoApproved {
		headline += " · auto-approved"
	}
	b.editResponse(s, i, []*discordgo.MessageEmbed{requestEmbed(request, headline)}, []discordgo.MessageComponent{})

	if request.Status == overseerr.RequestStatusPending {
		b.notifyRequestChannel(s, request, requester)
	}
}

// maybeAutoApprove evaluates the auto-approve policy against a new request
// and approves it when the policy matches
func (b *Bot) maybeAutoApprove(ctx context.Context, request *overseerr.Request) bool {
	if !b.policy.Enabled() {
		return false
	}

	env := RequestEnv{
		MediaType:   string(request.MediaType),
		Title:       request.Title,
		Year:        request.Year,
		RequestedBy: request.RequestedBy,
	}
	if details, err := b.requests.GetMediaDetails(ctx, request.MediaType, request.TMDBID); err == nil {
		env.VoteAverage = details.VoteAverage
	}

	matched, err := b.policy.Evaluate(env)
	if err != nil {
		b.logger.Error().Err(err).Int("request_id", request.ID).Msg("Auto-approve evaluation failed")
		return false
	}
	if !matched {
		return false
	}

	if err := b.requests.ApproveRequest(ctx, request.ID); err != nil {
		b.logger.Error().Err(err).Int("request_id", request.ID).Msg("Auto-approve call failed")
		return false
	}

	b.logger.Info().Int("request_id", request.ID).Str("title", request.Title).Msg("Request auto-approved")
	request.Status = overseerr.RequestStatusApproved
	return true
}

// notifyRequestChannel posts a pending request to the configured admin
// channel with approve and deny buttons
func (b *Bot) notifyRequestChannel(s *discordgo.Session, request *overseerr.Request, requester string) {
	channelID := b.cfg.Discord.RequestChannelID
	if channelID == "" {
		return
	}

	headline := "New request"
	if requester != "" {
		headline = "New request from " + requester
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{requestEmbed(request, headline)},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("%s%d", componentRequestApprove, request.ID),
				},
				discordgo.Button{
					Label:    "Deny",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("%s%d", componentRequestDeny, request.ID),
				},
			},
		}},
	})
	if err != nil {
		b.logger.Error().Err(err).Str("channel_id", channelID).Msg("Failed to post to request channel")
	}
}

func (b *Bot) handleRequestCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title: "Request cancelled",
				Color: colorOverseerr,
			}},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to cancel request prompt")
	}
}

// handleRequestButton resolves the Approve and Deny buttons on request
// channel notifications. Admin only.
func (b *Bot) handleRequestButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, customID string, approve bool) {
	if !b.isAdmin(i) {
		b.respondEmbed(s, i, notAuthorizedEmbed(), true)
		return
	}

	prefix := componentRequestApprove
	if !approve {
		prefix = componentRequestDeny
	}
	requestID, err := strconv.Atoi(strings.TrimPrefix(customID, prefix))
	if err != nil {
		b.logger.Error().Err(err).Str("custom_id", customID).Msg("Bad request button id")
		return
	}

	if b.deferUpdate(s, i) != nil {
		return
	}

	if err := b.resolveRequest(ctx, requestID, approve); err != nil {
		b.respondError(s, i, err.Error())
		return
	}

	verdict := "✅ Approved"
	if !approve {
		verdict = "⛔ Denied"
	}
	if user := interactionUser(i); user != nil {
		verdict += " by " + user.Username
	}

	// Keep the original embed, strip the buttons, stamp the verdict
	embeds := i.Message.Embeds
	if len(embeds) > 0 {
		embeds[0].Footer = &discordgo.MessageEmbedFooter{Text: verdict}
	}
	b.editResponse(s, i, embeds, []discordgo.MessageComponent{})
}

func (b *Bot) handleRequestStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.deferResponse(s, i, false) != nil {
		return
	}

	requests, err := b.requests.GetRequests(ctx, "all")
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to fetch requests")
		b.respondError(s, i, "Could not reach Overseerr.")
		return
	}

	if len(requests) > requestListLimit {
		requests = requests[:requestListLimit]
	}
	b.enrichRequests(ctx, requests)

	b.editResponse(s, i, []*discordgo.MessageEmbed{requestListEmbed("📋 Recent Requests", requests)}, nil)
}

func (b *Bot) handleRequestQueue(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.isAdmin(i) {
		b.respondEmbed(s, i, notAuthorizedEmbed(), true)
		return
	}
	if b.deferResponse(s, i, false) != nil {
		return
	}

	requests, err := b.requests.GetPendingRequests(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to fetch pending requests")
		b.respondError(s, i, "Could not reach Overseerr.")
		return
	}

	if len(requests) > requestListLimit {
		requests = requests[:requestListLimit]
	}
	b.enrichRequests(ctx, requests)

	embed := requestListEmbed("⏳ Pending Requests", requests)
	if len(requests) > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "Approve or deny with /request approve <id> and /request deny <id>",
		}
	}
	b.editResponse(s, i, []*discordgo.MessageEmbed{embed}, nil)
}

// handleRequestDecision resolves the /request approve and deny subcommands.
// Admin only.
func (b *Bot) handleRequestDecision(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption, approve bool) {
	if !b.isAdmin(i) {
		b.respondEmbed(s, i, notAuthorizedEmbed(), true)
		return
	}
	if b.deferResponse(s, i, false) != nil {
		return
	}

	requestID := intOption(options, "id", 0)
	if err := b.resolveRequest(ctx, requestID, approve); err != nil {
		b.respondError(s, i, err.Error())
		return
	}

	title := fmt.Sprintf("request #%d", requestID)
	if request, err := b.requests.GetRequest(ctx, requestID); err == nil {
		if err := b.requests.EnrichRequest(ctx, request); err == nil && request.Title != "" {
			title = fmt.Sprintf("%s (#%d)", request.Title, requestID)
		}
	}

	if approve {
		b.editResponse(s, i, []*discordgo.MessageEmbed{successEmbed("Approved", "Approved "+title+".")}, nil)
	} else {
		b.editResponse(s, i, []*discordgo.MessageEmbed{successEmbed("Denied", "Denied "+title+".")}, nil)
	}
}

// resolveRequest calls the approve or decline endpoint, translating errors
// into user-facing messages
func (b *Bot) resolveRequest(ctx context.Context, requestID int, approve bool) error {
	var err error
	if approve {
		err = b.requests.ApproveRequest(ctx, requestID)
	} else {
		err = b.requests.DeclineRequest(ctx, requestID)
	}

	if err == nil {
		return nil
	}
	b.logger.Error().Err(err).Int("request_id", requestID).Bool("approve", approve).Msg("Failed to resolve request")

	if errors.Is(err, overseerr.ErrNotFound) {
		return fmt.Errorf("request #%d was not found", requestID)
	}
	return errors.New("Overseerr rejected the change.")
}

func (b *Bot) enrichRequests(ctx context.Context, requests []overseerr.Request) {
	for n := range requests {
		if err := b.requests.EnrichRequest(ctx, &requests[n]); err != nil {
			b.logger.Warn().Err(err).Int("request_id", requests[n].ID).Msg("Failed to enrich request")
		}
	}
}

// deferUpdate acknowledges a component interaction so the original message
// can be edited after slow upstream calls
func (b *Bot) deferUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to defer component update")
	}
	return err
}
