package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	Timezone       string `mapstructure:"TIMEZONE"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`
	FrontendURL   string        `mapstructure:"FRONTEND_URL"`
	EnableCORS    bool          `mapstructure:"ENABLE_CORS"`

	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	FortyTwoClientID     string `mapstructure:"FORTYTWO_CLIENT_ID"`
	FortyTwoClientSecret string `mapstructure:"FORTYTWO_CLIENT_SECRET"`
	FortyTwoRedirectURL  string `mapstructure:"FORTYTWO_REDIRECT_URL"`
	FortyTwoAPIURL       string `mapstructure:"FORTYTWO_API_URL"`

	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments pass the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "events.db")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:5173/")
	v.SetDefault("FORTYTWO_REDIRECT_URL", "http://127.0.0.1:8080/auth/42/callback")
	v.SetDefault("FORTYTWO_API_URL", "https://api.intra.42.fr")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")

	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "SESSION_SECRET", "COOKIE_SECURE", "ENABLE_CORS",
		"ADMIN_USERNAME", "ADMIN_PASSWORD",
		"FORTYTWO_CLIENT_ID", "FORTYTWO_CLIENT_SECRET",
		"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_GUILD_ID",
		"DISCORD_BOT_TOKEN", "DISCORD_NOTIFICATIONS_CHANNEL_ID",
	} {
		_ = v.BindEnv(key)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: TIMEZONE: %w", err)
	}
	return nil
}

// Location is the zone used to decide which calendar day "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
