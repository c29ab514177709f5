package gavelbot

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
)

//go:embed config_default.toml
var configDefault []byte

// LoadConfig reads the TOML config at path, writing the default template
// first when the file does not exist yet. Admin and blacklist names are
// lowercased on load; bidder identity is case-insensitive everywhere.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, configDefault, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		slog.Info("New config file created", slog.String("path", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	lower(cfg.Bot.Admins)
	lower(cfg.Bot.Blacklist)
	return &cfg, nil
}

// WriteDefaultConfig writes the default config template to path, refusing to
// clobber an existing file unless force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	return os.WriteFile(path, configDefault, 0o644)
}

func lower(names []string) {
	for i, name := range names {
		names[i] = strings.ToLower(name)
	}
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	Auction AuctionConfig `toml:"auction"`
	DB      DBConfig      `toml:"db"`
	Spaces  SpacesConfig  `toml:"spaces"`

	// Channels maps a channel ID (as a string key) to its overrides of the
	// [auction] defaults.
	Channels map[string]ChannelOverrides `toml:"channel"`
}

type BotConfig struct {
	Token     string         `toml:"token"`
	Prefix    string         `toml:"prefix"`
	Channels  []snowflake.ID `toml:"channels"`
	Admins    []string       `toml:"admins"`
	Blacklist []string       `toml:"blacklist"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// AuctionConfig holds the global auction defaults. Durations are in whole
// seconds, amounts in the smallest currency unit.
type AuctionConfig struct {
	Duration int64 `toml:"duration"`
	Helmet   int64 `toml:"helmet"`
	MaxRaise int64 `toml:"max_raise"`
	MinBid   int64 `toml:"min_bid"`
}

// ChannelOverrides carries the per-channel subset of AuctionConfig; nil
// fields fall through to the global defaults.
type ChannelOverrides struct {
	Duration *int64 `toml:"duration"`
	Helmet   *int64 `toml:"helmet"`
	MaxRaise *int64 `toml:"max_raise"`
	MinBid   *int64 `toml:"min_bid"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// Enabled reports whether durable persistence is configured at all; the bot
// runs fine without it, auctions just leave no database record.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type SpacesConfig struct {
	Key    string `toml:"key"`
	Secret string `toml:"secret"`
	Region string `toml:"region"`
	Bucket string `toml:"bucket"`
	Root   string `toml:"root"`
}

func (c SpacesConfig) Enabled() bool {
	return c.Key != "" && c.Bucket != ""
}

// SettingsFor resolves the auction rules for a channel: global defaults with
// the channel's overrides applied. Resolution happens once, when an auction
// is opened; a running auction never reacts to config edits.
func (c *Config) SettingsFor(channelID snowflake.ID) auction.Settings {
	s := auction.Settings{
		Duration: time.Duration(c.Auction.Duration) * time.Second,
		Helmet:   time.Duration(c.Auction.Helmet) * time.Second,
		MaxRaise: c.Auction.MaxRaise,
		MinBid:   c.Auction.MinBid,
	}

	over, ok := c.Channels[channelID.String()]
	if !ok {
		return s
	}
	if over.Duration != nil {
		s.Duration = time.Duration(*over.Duration) * time.Second
	}
	if over.Helmet != nil {
		s.Helmet = time.Duration(*over.Helmet) * time.Second
	}
	if over.MaxRaise != nil {
		s.MaxRaise = *over.MaxRaise
	}
	if over.MinBid != nil {
		s.MinBid = *over.MinBid
	}
	return s
}

// IsAdmin reports whether name may issue privileged commands (start, stop,
// prize). Names are compared lowercased.
func (c *Config) IsAdmin(name string) bool {
	return contains(c.Bot.Admins, strings.ToLower(name))
}

// IsBlacklisted reports whether name is barred from bidding.
func (c *Config) IsBlacklisted(name string) bool {
	return contains(c.Bot.Blacklist, strings.ToLower(name))
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}
