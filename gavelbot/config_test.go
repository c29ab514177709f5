package gavelbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const configFixture = `
[log]
level = "DEBUG"

[bot]
token = "secret"
prefix = "!"
channels = [111, 222]
admins = ["Admin", "BOSS"]
blacklist = ["Grifter"]

[auction]
duration = 300
helmet = 30
max_raise = 1000
min_bid = 100

[channel."222"]
duration = 60
min_bid = 500

[db]
host = ""

[spaces]
key = ""
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, configFixture))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Bot.Prefix != "!" {
		t.Errorf("prefix = %q, want %q", cfg.Bot.Prefix, "!")
	}
	if len(cfg.Bot.Channels) != 2 || cfg.Bot.Channels[1] != snowflake.ID(222) {
		t.Errorf("channels = %v, want [111 222]", cfg.Bot.Channels)
	}

	// Names are lowercased on load and matched case-insensitively.
	for _, name := range []string{"admin", "Admin", "BOSS", "boss"} {
		if !cfg.IsAdmin(name) {
			t.Errorf("IsAdmin(%q) = false, want true", name)
		}
	}
	if cfg.IsAdmin("alice") {
		t.Error("IsAdmin(alice) = true, want false")
	}
	if !cfg.IsBlacklisted("GRIFTER") {
		t.Error("IsBlacklisted(GRIFTER) = false, want true")
	}

	if cfg.DB.Enabled() {
		t.Error("DB.Enabled() = true with no host")
	}
	if cfg.Spaces.Enabled() {
		t.Error("Spaces.Enabled() = true with no key")
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on missing file error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Auction.Duration <= 0 || cfg.Auction.Helmet <= 0 {
		t.Errorf("default auction config = %+v, want positive duration and helmet", cfg.Auction)
	}
}

func TestWriteDefaultConfigRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, configFixture)

	if err := WriteDefaultConfig(path, false); err == nil {
		t.Error("WriteDefaultConfig() overwrote an existing file")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Errorf("WriteDefaultConfig(force) error = %v", err)
	}
}

func TestSettingsFor(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, configFixture))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	plain := cfg.SettingsFor(snowflake.ID(111))
	if plain.Duration != 300*time.Second || plain.MinBid != 100 {
		t.Errorf("SettingsFor(111) = %+v, want global defaults", plain)
	}

	over := cfg.SettingsFor(snowflake.ID(222))
	if over.Duration != 60*time.Second {
		t.Errorf("SettingsFor(222).Duration = %v, want 1m", over.Duration)
	}
	if over.MinBid != 500 {
		t.Errorf("SettingsFor(222).MinBid = %d, want 500", over.MinBid)
	}
	// Fields without an override keep the global value.
	if over.Helmet != 30*time.Second || over.MaxRaise != 1000 {
		t.Errorf("SettingsFor(222) = %+v, want inherited helmet and raise cap", over)
	}
}
