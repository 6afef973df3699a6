package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file and environment variables.
// Environment variables take precedence over the config file, so the bot
// can run with no file at all in containerized deployments.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Bind the environment variables the bot documents
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".discord-plex"))
		}

		// Check /etc
		v.AddConfigPath("/etc/discord-plex/")
	}

	// Read config file if present; env-only configuration is valid
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// GUILD_IDS arrives as a comma-separated string from the environment
	cfg.Discord.GuildIDs = splitGuildIDs(cfg.Discord.GuildIDs)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnv maps the documented environment variables onto config keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("discord.token", "BOT_TOKEN")
	_ = v.BindEnv("discord.guild_ids", "GUILD_IDS")
	_ = v.BindEnv("discord.admin_user_id", "ADMIN_USER_ID")
	_ = v.BindEnv("discord.admin_role_id", "ADMIN_ROLE_ID")
	_ = v.BindEnv("discord.request_channel_id", "REQUEST_CHANNEL_ID")
	_ = v.BindEnv("plex.url", "PLEX_URL")
	_ = v.BindEnv("plex.token", "PLEX_TOKEN")
	_ = v.BindEnv("overseerr.url", "OVERSEERR_URL")
	_ = v.BindEnv("overseerr.api_key", "OVERSEERR_API_KEY")
	_ = v.BindEnv("cache.refresh_minutes", "CACHE_REFRESH_MINUTES")
	_ = v.BindEnv("requests.auto_approve", "AUTO_APPROVE")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Plex defaults
	v.SetDefault("plex.url", "http://localhost:32400")

	// Overseerr defaults
	v.SetDefault("overseerr.url", "http://localhost:5055")

	// Cache defaults
	v.SetDefault("cache.refresh_minutes", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// splitGuildIDs normalizes guild IDs that may arrive as a single
// comma-separated entry from the GUILD_IDS environment variable
func splitGuildIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord.token (BOT_TOKEN) is required")
	}

	if cfg.Plex.URL == "" {
		return fmt.Errorf("plex.url is required")
	}

	if cfg.Plex.Token == "" {
		return fmt.Errorf("plex.token (PLEX_TOKEN) is required")
	}

	if cfg.Overseerr.URL == "" {
		return fmt.Errorf("overseerr.url is required")
	}

	if cfg.Overseerr.APIKey == "" || cfg.Overseerr.APIKey == "your-api-key-here" {
		return fmt.Errorf("overseerr.api_key must be set to a valid API key")
	}

	if cfg.Cache.RefreshMinutes <= 0 {
		return fmt.Errorf("cache.refresh_minutes must be positive, got %d", cfg.Cache.RefreshMinutes)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
