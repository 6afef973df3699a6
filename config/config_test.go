package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Token: "bot-token",
		},
		Plex: PlexConfig{
			URL:   "http://localhost:32400",
			Token: "plex-token",
		},
		Overseerr: OverseerrConfig{
			URL:    "http://localhost:5055",
			APIKey: "valid-api-key",
		},
		Cache: CacheConfig{
			RefreshMinutes: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing bot token",
			mutate:  func(c *Config) { c.Discord.Token = "" },
			wantErr: true,
		},
		{
			name:    "missing plex token",
			mutate:  func(c *Config) { c.Plex.Token = "" },
			wantErr: true,
		},
		{
			name:    "placeholder overseerr key",
			mutate:  func(c *Config) { c.Overseerr.APIKey = "your-api-key-here" },
			wantErr: true,
		},
		{
			name:    "zero refresh interval",
			mutate:  func(c *Config) { c.Cache.RefreshMinutes = 0 },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "logfmt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-bot-token")
	t.Setenv("GUILD_IDS", "123, 456,789")
	t.Setenv("PLEX_URL", "http://plex:32400")
	t.Setenv("PLEX_TOKEN", "env-plex-token")
	t.Setenv("OVERSEERR_URL", "http://overseerr:5055")
	t.Setenv("OVERSEERR_API_KEY", "env-overseerr-key")
	t.Setenv("CACHE_REFRESH_MINUTES", "15")
	t.Setenv("ADMIN_USER_ID", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Discord.Token != "env-bot-token" {
		t.Errorf("Discord.Token = %q", cfg.Discord.Token)
	}
	if len(cfg.Discord.GuildIDs) != 3 || cfg.Discord.GuildIDs[1] != "456" {
		t.Errorf("Discord.GuildIDs = %v, want [123 456 789]", cfg.Discord.GuildIDs)
	}
	if cfg.Plex.URL != "http://plex:32400" {
		t.Errorf("Plex.URL = %q", cfg.Plex.URL)
	}
	if cfg.Cache.RefreshMinutes != 15 {
		t.Errorf("Cache.RefreshMinutes = %d, want 15", cfg.Cache.RefreshMinutes)
	}
	if cfg.Discord.AdminUserID != "42" {
		t.Errorf("Discord.AdminUserID = %q, want 42", cfg.Discord.AdminUserID)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-bot-token")
	t.Setenv("PLEX_TOKEN", "env-plex-token")
	t.Setenv("OVERSEERR_API_KEY", "env-overseerr-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plex.URL != "http://localhost:32400" {
		t.Errorf("Plex.URL default = %q", cfg.Plex.URL)
	}
	if cfg.Overseerr.URL != "http://localhost:5055" {
		t.Errorf("Overseerr.URL default = %q", cfg.Overseerr.URL)
	}
	if cfg.Cache.RefreshMinutes != 30 {
		t.Errorf("Cache.RefreshMinutes default = %d", cfg.Cache.RefreshMinutes)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}
