// Package cli implements the flametower command-line interface.
//
// # Commands
//
//   - view: interactive terminal viewer driven by the flame engine
//   - run: headless run that prints statistics
//   - serve: HTTP server exposing engine sessions
//   - preset: save, list, show and delete stored transform parameters
//   - cache: inspect and clear cached run results
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports engine, run and store events through observability hooks.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/buildinfo"
	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flametower"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level, engine, run and
// store events are logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flametower renders fractal flames with the chaos game",
		Long:         `Flametower renders fractal flames progressively: a small set of nonlinear transforms is iterated with the chaos game, hits are accumulated into a density grid and the grid is tone-mapped into a color frame.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/flametower/config.toml)")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.presetCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Store
// =============================================================================

// loadedConfig reads the config file once per process.
func (c *CLI) loadedConfig() (*Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			c.config = &Config{}
			return c.config, nil
		}
		path = p
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", path)
	c.config = cfg
	return cfg, nil
}

// engineDefaults returns the engine configuration from the config file.
func (c *CLI) engineDefaults() (flame.Config, error) {
	cfg, err := c.loadedConfig()
	if err != nil {
		return flame.Config{}, err
	}
	fc, err := cfg.Engine.FlameConfig()
	if err != nil {
		return flame.Config{}, err
	}
	fc.Logger = c.Logger
	return fc, nil
}

// openStore opens the configured store. noStore selects the null store.
func (c *CLI) openStore(ctx context.Context, noStore bool) (*store.Instrumented, error) {
	cfg, err := c.loadedConfig()
	if err != nil {
		return nil, err
	}
	sc := cfg.Store
	if noStore {
		sc.Backend = store.BackendNone
	}
	if (sc.Backend == "" || sc.Backend == store.BackendFile) && sc.Dir == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		sc.Dir = dir
	}
	s, err := store.Open(ctx, sc)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("store opened", "backend", s.Backend())
	return s, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noStore bool) (*pipeline.Runner, error) {
	s, err := c.openStore(ctx, noStore)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(s, c.storeKeyer(), c.Logger), nil
}

// storeKeyer returns the keyer for the configured store prefix.
func (c *CLI) storeKeyer() store.Keyer {
	if c.config == nil {
		return store.NewDefaultKeyer()
	}
	return c.config.Store.Keyer()
}
