package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/jdmsharpe/discord-plex/cache"
	"github.com/jdmsharpe/discord-plex/config"
	"github.com/jdmsharpe/discord-plex/overseerr"
	"github.com/jdmsharpe/discord-plex/plex"
)

const (
	handlerWorkers    = 8
	handlerTimeout    = 20 * time.Second
	searchLimit       = 20
	directSearchFloor = 5
	defaultRecent     = 10
)

// MediaServer is the subset of the Plex client the bot calls
type MediaServer interface {
	GetSessions(ctx context.Context) ([]plex.Session, error)
	GetRecentlyAdded(ctx context.Context, library string, limit int) ([]plex.MediaItem, error)
	GetServerInfo(ctx context.Context) (*plex.ServerInfo, error)
	GetMetadata(ctx context.Context, ratingKey string) (*plex.MediaItem, error)
	Search(ctx context.Context, query string, limit int) ([]plex.MediaItem, error)
	ThumbURL(thumbPath string) string
	WebURL(ratingKey string) string
}

// RequestManager is the subset of the Overseerr client the bot calls
type RequestManager interface {
	Search(ctx context.Context, query string) ([]overseerr.SearchResult, error)
	GetMediaDetails(ctx context.Context, mediaType overseerr.MediaType, tmdbID int64) (*overseerr.MediaDetails, error)
	PosterURL(ctx context.Context, mediaType overseerr.MediaType, tmdbID int64) (string, error)
	CreateRequest(ctx context.Context, mediaType overseerr.MediaType, tmdbID int64, seasons []int) (*overseerr.Request, error)
	GetRequests(ctx context.Context, filter string) ([]overseerr.Request, error)
	GetPendingRequests(ctx context.Context) ([]overseerr.Request, error)
	GetRequest(ctx context.Context, requestID int) (*overseerr.Request, error)
	ApproveRequest(ctx context.Context, requestID int) error
	DeclineRequest(ctx context.Context, requestID int) error
	EnrichRequest(ctx context.Context, request *overseerr.Request) error
}

// Bot wires the Discord session to the Plex and Overseerr clients
type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	plex     MediaServer
	requests RequestManager
	library  *cache.Cache
	pool     *handlerPool
	policy   *approvalPolicy
	logger   zerolog.Logger
}

// New creates the bot but does not connect. Call Start to open the gateway
// session and register commands.
func New(cfg *config.Config, mediaServer MediaServer, requestManager RequestManager, library *cache.Cache, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	policy, err := newApprovalPolicy(cfg.Requests.AutoApprove)
	if err != nil {
		return nil, fmt.Errorf("invalid auto_approve expression: %w", err)
	}

	bot := &Bot{
		session:  session,
		cfg:      cfg,
		plex:     mediaServer,
		requests: requestManager,
		library:  library,
		pool:     newHandlerPool(handlerWorkers),
		policy:   policy,
		logger:   logger.With().Str("component", "bot").Logger(),
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onInteraction)

	return bot, nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Discord session ready")
}

// Start opens the gateway connection and registers slash commands in every
// configured guild
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return err
	}
	return nil
}

// Stop closes the gateway session and drains in-flight handlers
func (b *Bot) Stop(ctx context.Context) error {
	if err := b.session.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("Error closing discord session")
	}
	return b.pool.Stop(ctx)
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	definitions := commandDefinitions()

	guildIDs := b.cfg.Discord.GuildIDs
	if len(guildIDs) == 0 {
		// Global registration; Discord propagates these slowly
		guildIDs = []string{""}
	}

	for _, guildID := range guildIDs {
		for _, definition := range definitions {
			if _, err := b.session.ApplicationCommandCreate(appID, guildID, definition); err != nil {
				return fmt.Errorf("failed to register command %s: %w", definition.Name, err)
			}
		}
		b.logger.Info().Str("guild_id", guildID).Int("commands", len(definitions)).Msg("Registered slash commands")
	}
	return nil
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		// Autocomplete must answer fast; skip the pool
		b.handleAutocomplete(s, i)

	case discordgo.InteractionApplicationCommand:
		b.dispatch(s, i, b.routeCommand)

	case discordgo.InteractionMessageComponent:
		b.dispatch(s, i, b.routeComponent)
	}
}

func (b *Bot) dispatch(s *discordgo.Session, i *discordgo.InteractionCreate, route func(*discordgo.Session, *discordgo.InteractionCreate)) {
	err := b.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error().Interface("panic", r).Msg("Interaction handler panicked")
			}
		}()
		route(s, i)
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("Dropped interaction during shutdown")
	}
}

func (b *Bot) routeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	subcommand := data.Options[0]

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch data.Name {
	case "plex":
		switch subcommand.Name {
		case "search":
			b.handlePlexSearch(ctx, s, i, subcommand.Options)
		case "playing":
			b.handlePlexPlaying(ctx, s, i)
		case "recent":
			b.handlePlexRecent(ctx, s, i, subcommand.Options)
		case "stats":
			b.handlePlexStats(ctx, s, i)
		}
	case "request":
		switch subcommand.Name {
		case "search":
			b.handleRequestSearch(ctx, s, i, subcommand.Options)
		case "status":
			b.handleRequestStatus(ctx, s, i)
		case "queue":
			b.handleRequestQueue(ctx, s, i)
		case "approve":
			b.handleRequestDecision(ctx, s, i, subcommand.Options, true)
		case "deny":
			b.handleRequestDecision(ctx, s, i, subcommand.Options, false)
		}
	}
}

func (b *Bot) routeComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch {
	case customID == componentPlexSelect:
		b.handlePlexSelect(ctx, s, i)
	case customID == componentRequestSelect:
		b.handleRequestSelect(ctx, s, i)
	case strings.HasPrefix(customID, componentRequestConfirm):
		b.handleRequestConfirm(ctx, s, i, customID)
	case customID == componentRequestCancel:
		b.handleRequestCancel(s, i)
	case strings.HasPrefix(customID, componentRequestApprove):
		b.handleRequestButton(ctx, s, i, customID, true)
	case strings.HasPrefix(customID, componentRequestDeny):
		b.handleRequestButton(ctx, s, i, customID, false)
	}
}

// isAdmin reports whether the interaction comes from a configured admin
// user, a holder of the configured admin role, or a guild administrator.
// Anything else, including DMs, is denied.
func (b *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}

	if b.cfg.Discord.AdminUserID != "" && i.Member.User.ID == b.cfg.Discord.AdminUserID {
		return true
	}

	if b.cfg.Discord.AdminRoleID != "" {
		for _, roleID := range i.Member.Roles {
			if roleID == b.cfg.Discord.AdminRoleID {
				return true
			}
		}
	}

	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// deferResponse acknowledges the interaction so handlers get more than the
// three-second interaction deadline
func (b *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := s.InteractionRespond(i.Interaction, response); err != nil {
		b.logger.Error().Err(err).Msg("Failed to defer interaction response")
		return err
	}
	return nil
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	edit := &discordgo.WebhookEdit{Embeds: &embeds}
	if components != nil {
		edit.Components = &components
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.logger.Error().Err(err).Msg("Failed to edit interaction response")
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	b.editResponse(s, i, []*discordgo.MessageEmbed{errorEmbed(message)}, nil)
}

// stringOption extracts a string option by name, empty when absent
func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, option := range options {
		if option.Name == name {
			return option.StringValue()
		}
	}
	return ""
}

// intOption extracts an integer option by name with a fallback default
func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int) int {
	for _, option := range options {
		if option.Name == name {
			return int(option.IntValue())
		}
	}
	return fallback
}
