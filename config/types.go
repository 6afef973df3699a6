package config

// Config represents the complete configuration structure
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Plex      PlexConfig      `mapstructure:"plex"`
	Overseerr OverseerrConfig `mapstructure:"overseerr"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Requests  RequestsConfig  `mapstructure:"requests"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DiscordConfig holds Discord bot credentials and guild scoping
type DiscordConfig struct {
	Token            string   `mapstructure:"token"`
	GuildIDs         []string `mapstructure:"guild_ids"`
	AdminUserID      string   `mapstructure:"admin_user_id"`
	AdminRoleID      string   `mapstructure:"admin_role_id"`
	RequestChannelID string   `mapstructure:"request_channel_id"`
}

// PlexConfig holds Plex Media Server connection details
type PlexConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// OverseerrConfig holds Overseerr API connection details
type OverseerrConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// CacheConfig contains library cache settings
type CacheConfig struct {
	RefreshMinutes int `mapstructure:"refresh_minutes"`
}

// RequestsConfig contains request handling settings
type RequestsConfig struct {
	// AutoApprove is an optional expression evaluated against newly created
	// requests, e.g. `MediaType == "movie" && VoteAverage >= 6.5`. Requests
	// matching the expression are approved without admin action.
	AutoApprove string `mapstructure:"auto_approve"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
