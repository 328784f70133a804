package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/store"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the contents of config.toml. Command-line flags override it.
//
// Example:
//
//	[engine]
//	width = 640
//	height = 480
//	quality = "high"
//
//	[store]
//	backend = "redis"
//	prefix = "gallery:"
//
//	[store.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "30m"
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Store  store.Config `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// EngineConfig holds engine defaults.
type EngineConfig struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	Transforms   int    `toml:"transforms"`
	BurnIn       int    `toml:"burn_in"` // -1 disables burn-in
	WarmupPasses int    `toml:"warmup_passes"`
	Quality      string `toml:"quality"`
	Seed         uint64 `toml:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	SessionTTL  duration `toml:"session_ttl"`
	MaxSessions int      `toml:"max_sessions"`
}

// duration decodes TOML strings such as "15m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// loadConfig reads the config file at path. A missing file is not an error
// when path is the default location.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// FlameConfig converts the engine section into an engine configuration.
func (e EngineConfig) FlameConfig() (flame.Config, error) {
	cfg := flame.Config{
		Width:        e.Width,
		Height:       e.Height,
		Transforms:   e.Transforms,
		BurnIn:       e.BurnIn,
		WarmupPasses: e.WarmupPasses,
		Seed:         e.Seed,
	}
	if e.Quality != "" {
		q, err := flame.ParseQuality(e.Quality)
		if err != nil {
			return flame.Config{}, err
		}
		cfg.Quality = q
	}
	return cfg, nil
}

// =============================================================================
// Paths
// =============================================================================

// configPath returns the config file path using XDG standard
// (~/.config/flametower/config.toml).
func configPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// dataDir returns the file store directory using XDG standard
// (~/.local/share/flametower/).
func dataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
