package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ConflictPolicyUpsert = "upsert"
	ConflictPolicyInsert = "insert"
)

type Config struct {
	Port         string `mapstructure:"PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	StoreKey     string `mapstructure:"STORE_KEY"`

	SupabaseURL            string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey        string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseTable          string `mapstructure:"SUPABASE_TABLE"`
	SupabaseConflictPolicy string `mapstructure:"SUPABASE_CONFLICT_POLICY"`
	AutoSync               bool   `mapstructure:"AUTO_SYNC"`
	SyncIntervalMS         int    `mapstructure:"SYNC_INTERVAL_MS"`

	GitHubAPIURL         string `mapstructure:"GITHUB_API_URL"`
	GitHubOwner          string `mapstructure:"GITHUB_OWNER"`
	GitHubRepo           string `mapstructure:"GITHUB_REPO"`
	GitHubBranch         string `mapstructure:"GITHUB_BRANCH"`
	GitHubToken          string `mapstructure:"GITHUB_TOKEN"`
	GitHubDataFilePath   string `mapstructure:"GITHUB_DATA_FILE_PATH"`
	GitHubSyncIntervalMS int    `mapstructure:"GITHUB_SYNC_INTERVAL_MS"`
	ShowSyncStatus       bool   `mapstructure:"SHOW_SYNC_STATUS"`
	SyncHistoryLimit     int    `mapstructure:"SYNC_HISTORY_LIMIT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
}

// IsAdminDevice reports whether this installation holds the GitHub write token.
// It is a convenience switch for the source-control sync path, not access control.
func (c *Config) IsAdminDevice() bool {
	return strings.TrimSpace(c.GitHubToken) != ""
}

// DatabaseEnabled reports whether the hosted database credentials are present.
func (c *Config) DatabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

func (c *Config) GitHubSyncInterval() time.Duration {
	return time.Duration(c.GitHubSyncIntervalMS) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "registrations.db")
	v.SetDefault("STORE_KEY", "msp_registrations")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_ANON_KEY", "")
	v.SetDefault("SUPABASE_TABLE", "msp_registrations")
	v.SetDefault("SUPABASE_CONFLICT_POLICY", ConflictPolicyUpsert)
	v.SetDefault("AUTO_SYNC", true)
	v.SetDefault("SYNC_INTERVAL_MS", 60000)
	v.SetDefault("GITHUB_API_URL", "https://api.github.com")
	v.SetDefault("GITHUB_OWNER", "lugoga")
	v.SetDefault("GITHUB_REPO", "nc_msp")
	v.SetDefault("GITHUB_BRANCH", "registrations-data")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_DATA_FILE_PATH", "data/registrations.json")
	v.SetDefault("GITHUB_SYNC_INTERVAL_MS", 300000)
	v.SetDefault("SHOW_SYNC_STATUS", false)
	v.SetDefault("SYNC_HISTORY_LIMIT", 500)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DISCORD_BOT_TOKEN", "")
	v.SetDefault("DISCORD_NOTIFICATIONS_CHANNEL_ID", "")
	v.SetDefault("JWT_SECRET", "")
}

// Load reads defaults, the optional config file and the environment into a Config.
// Every key has a default, so AutomaticEnv picks up overrides for all of them.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfig loads configuration through the global viper instance.
func LoadConfig(configFile string) (*Config, error) {
	return Load(viper.GetViper(), configFile)
}

func (c *Config) validate() error {
	switch c.SupabaseConflictPolicy {
	case ConflictPolicyUpsert, ConflictPolicyInsert:
	default:
		return fmt.Errorf("invalid SUPABASE_CONFLICT_POLICY %q (want %q or %q)",
			c.SupabaseConflictPolicy, ConflictPolicyUpsert, ConflictPolicyInsert)
	}
	if c.SyncIntervalMS <= 0 {
		return fmt.Errorf("SYNC_INTERVAL_MS must be positive, got %d", c.SyncIntervalMS)
	}
	if c.GitHubSyncIntervalMS <= 0 {
		return fmt.Errorf("GITHUB_SYNC_INTERVAL_MS must be positive, got %d", c.GitHubSyncIntervalMS)
	}
	if c.StoreKey == "" {
		return fmt.Errorf("STORE_KEY must not be empty")
	}
	return nil
}
