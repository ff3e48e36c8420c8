package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	golobby "github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"

	"github.com/marqueehq/marquee/shared"
)

type Config struct {
	Jellyfin JellyfinConfig
	Discord  DiscordConfig
	TMDB     TMDBConfig
	Marquee  MarqueeConfig
	Pushover PushoverConfig
}

type JellyfinConfig struct {
	Host   string `env:"JELLYFIN_HOST"`
	APIKey string `env:"JELLYFIN_API_KEY"`
	// Username is matched against /Users entries. Older deployments relied
	// on substring matching which can resolve the wrong account, so exact
	// matching is the default and the legacy behaviour sits behind a flag.
	Username      string `env:"JELLYFIN_USERNAME"`
	ExactUsername bool   `env:"EXACT_USERNAME"`
}

type DiscordConfig struct {
	ClientID string `env:"DISCORD_CLIENT_ID"`
}

type TMDBConfig struct {
	APIKey string `env:"TMDB_API_KEY"`
}

type MarqueeConfig struct {
	MediaTypes       string `env:"MEDIA_TYPES"`
	RefreshRate      int    `env:"REFRESH_RATE"`
	ShowWhenPaused   bool   `env:"SHOW_WHEN_PAUSED"`
	ShowServerName   bool   `env:"SHOW_SERVER_NAME"`
	ShowAppIcon      bool   `env:"SHOW_APP_ICON"`
	PosterLanguages  string `env:"POSTER_LANGUAGES"`
	SeasonOverSeries bool   `env:"SEASON_OVER_SERIES"`
	ReleaseOverGroup bool   `env:"RELEASE_OVER_GROUP"`
	FindBestMatch    bool   `env:"FIND_BEST_MATCH"`
	ChannelPosters   bool   `env:"CHANNEL_POSTERS"`
	LogLevel         string `env:"LOG_LEVEL"`
}

type PushoverConfig struct {
	Token     string `env:"PUSHOVER_TOKEN"`
	Recipient string `env:"PUSHOVER_RECIPIENT"`
}

// Load feeds the environment into a Config on top of the defaults below.
// Dotenv files are handled before this runs (godotenv in main) so a plain
// Env feeder covers both sources.
func Load() (Config, error) {
	cfg := Config{
		Jellyfin: JellyfinConfig{
			ExactUsername: true,
		},
		Discord: DiscordConfig{
			ClientID: shared.DEFAULT_DISCORD_CLIENT_ID,
		},
		Marquee: MarqueeConfig{
			MediaTypes:       "Shows,Movies,Music,LiveTV",
			RefreshRate:      5,
			ShowWhenPaused:   true,
			SeasonOverSeries: true,
			ReleaseOverGroup: true,
			FindBestMatch:    true,
			LogLevel:         "info",
		},
	}
	if err := golobby.New().AddFeeder(feeder.Env{}).AddStruct(&cfg).Feed(); err != nil {
		return cfg, err
	}
	if cfg.Marquee.RefreshRate < 1 {
		cfg.Marquee.RefreshRate = 1
	}
	for key, value := range map[string]string{
		"JELLYFIN_HOST":     cfg.Jellyfin.Host,
		"JELLYFIN_API_KEY":  cfg.Jellyfin.APIKey,
		"JELLYFIN_USERNAME": cfg.Jellyfin.Username,
	} {
		if value == "" {
			return cfg, fmt.Errorf("value for %s must be provided", key)
		}
	}
	cfg.Jellyfin.Host = strings.TrimRight(cfg.Jellyfin.Host, "/")
	return cfg, nil
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Marquee.RefreshRate) * time.Second
}

// MediaTypeEnabled reports whether a media group (Shows, Movies, Music,
// LiveTV) is in the configured set.
func (c *Config) MediaTypeEnabled(group string) bool {
	for _, entry := range strings.Split(c.Marquee.MediaTypes, ",") {
		if strings.EqualFold(strings.TrimSpace(entry), group) {
			return true
		}
	}
	return false
}

// PosterLanguageList splits POSTER_LANGUAGES on commas and whitespace.
func (c *Config) PosterLanguageList() []string {
	return strings.FieldsFunc(c.Marquee.PosterLanguages, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Marquee.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
