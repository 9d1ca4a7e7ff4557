package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// APIConfig points at the inventory console API that owns events, users and
// all persistence.
type APIConfig struct {
	// BaseURL is the console API root, e.g. "https://stock.example.com".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Token is an optional bearer token sent with every request.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`
	// DefaultAuthor is stamped onto created events without an author.
	// Explicit configuration replaces the old browser-session lookup.
	DefaultAuthor string `yaml:"default_author,omitempty" json:"default_author,omitempty"`
}

// HolidayConfig points at the public-holiday API queried per (year, month).
type HolidayConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	ServiceKey string `yaml:"service_key,omitempty" json:"service_key,omitempty"`
}

// ICSConfig describes a single subscribed ICS feed shown read-only in the
// calendar.
type ICSConfig struct {
	URL   string `yaml:"url" json:"url"`
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// SnapshotConfig controls the headless-Chromium calendar snapshot.
type SnapshotConfig struct {
	// Enabled turns the periodic snapshot on.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL of the calendar page to capture. Defaults to the local server.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// OutputPath is where the PNG lands.
	OutputPath string `yaml:"output_path,omitempty" json:"output_path,omitempty"`
	// Width / Height are the emulated viewport in pixels.
	Width  int `yaml:"width,omitempty" json:"width,omitempty"`
	Height int `yaml:"height,omitempty" json:"height,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules cache warmup (holidays, events) in cron syntax.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	API      APIConfig      `yaml:"api" json:"api"`
	Holiday  HolidayConfig  `yaml:"holiday" json:"holiday"`
	ICS      []ICSConfig    `yaml:"ics" json:"ics"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// CacheDir is the base directory for the ICS disk cache and snapshots.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Seoul",
		RefreshCron: "*/15 * * * *",
		ICS:         []ICSConfig{},
		Snapshot: SnapshotConfig{
			Enabled:    false,
			OutputPath: "./cache/snapshot.png",
			Width:      1280,
			Height:     960,
		},
		CacheDir: "./cache",
	}
}

// Normalize fills missing/zero values so partially-filled configs from older
// versions still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = "./cache"
	}
	if c.Snapshot.OutputPath == "" {
		c.Snapshot.OutputPath = filepath.Join(c.CacheDir, "snapshot.png")
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 1280
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 960
	}
	if c.Snapshot.URL == "" {
		c.Snapshot.URL = "http://" + c.Listen + "/"
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: the default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".invcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save for call-site convenience.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
