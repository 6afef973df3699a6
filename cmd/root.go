package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jdmsharpe/discord-plex/bot"
	"github.com/jdmsharpe/discord-plex/cache"
	"github.com/jdmsharpe/discord-plex/config"
	"github.com/jdmsharpe/discord-plex/overseerr"
	"github.com/jdmsharpe/discord-plex/plex"
)

var (
	cfgFile         string
	cfg             *config.Config
	logger          zerolog.Logger
	plexClient      *plex.Client
	overseerrClient *overseerr.Client

	appVersion   = "dev"
	appBuildTime = "unknown"
)

// rootCmd starts the bot when invoked with no subcommand
var rootCmd = &cobra.Command{
	Use:   "discord-plex",
	Short: "Discord bot bridging Plex and Overseerr",
	Long: `discord-plex is a Discord bot that exposes your Plex library and
Overseerr request queue through slash commands: fuzzy library search,
active playback sessions, recent additions, and media request management.`,
	PersistentPreRunE: initializeApp,
	RunE:              runBot,
	SilenceUsage:      true,
}

// SetVersion records build metadata injected at link time
func SetVersion(version, buildTime string) {
	appVersion = version
	appBuildTime = buildTime
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp loads configuration and connects the service clients
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	plexClient, err = plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, logger)
	if err != nil {
		return fmt.Errorf("failed to create Plex client: %w", err)
	}

	overseerrClient, err = overseerr.NewClient(cfg.Overseerr.URL, cfg.Overseerr.APIKey, logger)
	if err != nil {
		return fmt.Errorf("failed to create Overseerr client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func runBot(cmd *cobra.Command, args []string) error {
	interval := time.Duration(cfg.Cache.RefreshMinutes) * time.Minute
	libraryCache := cache.New(plexClient, interval, logger)

	discordBot, err := bot.New(cfg, plexClient, overseerrClient, libraryCache, logger)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go libraryCache.Run(ctx)

	if err := discordBot.Start(); err != nil {
		return err
	}
	logger.Info().
		Str("version", appVersion).
		Int("refresh_minutes", cfg.Cache.RefreshMinutes).
		Msg("Bot is running, press Ctrl+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return discordBot.Stop(shutdownCtx)
}

// testCmd verifies connectivity to Plex, Overseerr, and Discord
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to Plex, Overseerr, and Discord",
	Long:  `Verify that the configured Plex server, Overseerr instance, and Discord bot token all work.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Plex and Overseerr connections are verified during client creation
	fmt.Printf("✓ Plex reachable at %s\n", cfg.Plex.URL)
	if info, err := plexClient.GetServerInfo(ctx); err == nil {
		fmt.Printf("  %s (version %s, %d active streams)\n", info.Name, info.Version, info.Streams)
	}

	fmt.Printf("✓ Overseerr reachable at %s\n", cfg.Overseerr.URL)
	if status, err := overseerrClient.GetStatus(ctx); err == nil {
		fmt.Printf("  version %s\n", status.Version)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	botUser, err := session.User("@me")
	if err != nil {
		return fmt.Errorf("discord token rejected: %w", err)
	}
	fmt.Printf("✓ Discord token valid for %s\n", botUser.Username)

	return nil
}
