// Package config holds the user editable settings stored in
// etsyscraper.toml. CLI flags override config values; config values
// override the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bcaptain404/EtsyScraper/internal/harvest"
)

// DefaultURL is the ads dashboard capture opens. Etsy may redirect it;
// that is fine.
const DefaultURL = "https://www.etsy.com/your/shops/me/advertising"

const defaultWindowMS = 15000

// Config captures the settings stored in etsyscraper.toml.
type Config struct {
	ProfileRoot    string `toml:"profile_root"`
	ProfileName    string `toml:"profile_name"`
	Executable     string `toml:"executable"`
	BrowserChannel string `toml:"browser_channel"`
	OutDir         string `toml:"out_dir"`
	URL            string `toml:"url"`

	Capture CaptureBlock `toml:"capture"`
	Harvest HarvestBlock `toml:"harvest"`
	Process ProcessBlock `toml:"process"`
}

// CaptureBlock governs the capture command.
type CaptureBlock struct {
	CaptureMS   *int `toml:"capture_ms"`
	Headful     bool `toml:"headful"`
	Autorun     bool `toml:"autorun"`
	KeepOpen    bool `toml:"keep_open"`
	SaveAll     bool `toml:"save_all"`
	KillRunning bool `toml:"kill_running"`
}

// WindowMS reports the capture window in milliseconds, defaulting to 15
// seconds. Zero or negative means capture until interrupted.
func (c CaptureBlock) WindowMS() int {
	if c.CaptureMS == nil {
		return defaultWindowMS
	}
	return *c.CaptureMS
}

// HarvestBlock governs the harvest and report commands.
type HarvestBlock struct {
	AggregatePolicy    string `toml:"aggregate_policy"`
	TZOffsetHours      int    `toml:"tz_offset_hours"`
	Derived            bool   `toml:"derived"`
	KeepRaw            bool   `toml:"keep_raw"`
	IncludeRangeTotals bool   `toml:"include_range_totals"`
}

func (h *HarvestBlock) applyDefaults() {
	if h.AggregatePolicy == "" {
		h.AggregatePolicy = "sum"
	} else {
		h.AggregatePolicy = strings.ToLower(h.AggregatePolicy)
	}
}

// ProcessBlock governs the kill command and --kill-running.
type ProcessBlock struct {
	KillTimeout string `toml:"kill_timeout"`
}

func (p *ProcessBlock) applyDefaults() {
	if p.KillTimeout == "" {
		p.KillTimeout = "3s"
	}
}

// KillWait reports how long to wait for signaled processes to exit.
func (p ProcessBlock) KillWait() time.Duration {
	d, err := time.ParseDuration(p.KillTimeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// ErrInvalidKillTimeout indicates process.kill_timeout cannot be parsed.
var ErrInvalidKillTimeout = errors.New("config.process.kill_timeout must be a positive duration")

// Default returns the baseline configuration: system Chrome, the
// "Profile 2" sub-profile, artifacts under ./out.
func Default() Config {
	window := defaultWindowMS
	cfg := Config{
		Capture: CaptureBlock{CaptureMS: &window},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ProfileRoot == "" {
		c.ProfileRoot = "~/.config/google-chrome"
	}
	if c.ProfileName == "" {
		c.ProfileName = "Profile 2"
	}
	if c.BrowserChannel == "" {
		c.BrowserChannel = "chrome"
	}
	if c.OutDir == "" {
		c.OutDir = "./out"
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	c.Harvest.applyDefaults()
	c.Process.applyDefaults()
}

// Validate ensures the configuration can drive the commands.
func (c Config) Validate() error {
	if _, err := harvest.ParsePolicy(c.Harvest.AggregatePolicy); err != nil {
		return fmt.Errorf("config.harvest.aggregate_policy: %w", err)
	}
	if d, err := time.ParseDuration(c.Process.KillTimeout); err != nil || d <= 0 {
		return ErrInvalidKillTimeout
	}
	return nil
}

// Load reads configuration from disk. Missing files return the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes configuration to disk, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ExpandHome expands a leading ~ to the user home directory. Config
// values and flags both accept ~ paths.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
