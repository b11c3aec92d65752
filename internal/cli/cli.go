// Package cli implements the descript command-line interface.
//
// This package provides commands for compiling GDSII layouts into
// Nanoscribe print jobs, inspecting the intermediate stages, and
// managing the tool configuration and artifact cache. The CLI is built
// using cobra and logs through the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - run: Compile a layout into a flat GWL print job
//   - targets: Resolve and list print targets without slicing
//   - graph: Render the cell hierarchy as DOT, SVG or PNG
//   - gwl: Check or reformat GWL script files
//   - recipe: Show or write the effective slicer recipe
//   - commands: List the GWL instruction catalog
//   - config: Manage the TOML configuration
//   - cache: Manage the artifact cache
//   - serve: Preview a completed run directory over HTTP
//
// # Logging
//
// All commands support --log-level (debug, info, warn, error). Loggers
// are passed through context.Context to allow structured progress
// tracking.
//
// # Example
//
//	import "github.com/nanofab/descript/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/buildinfo"
	"github.com/nanofab/descript/pkg/cache"
	"github.com/nanofab/descript/pkg/config"
	"github.com/nanofab/descript/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and suggested
// commands.
const appName = "descript"

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

	// configPath is the --config override; empty means the default
	// location under the user config directory.
	configPath string
	// config is loaded lazily on first use so that the config
	// subcommands stay usable with a broken or missing file.
	config       config.Config
	configLoaded bool

	logLevel string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Descript compiles GDSII layouts into Nanoscribe print jobs",
		Long:         `Descript resolves the print targets of a hierarchical GDSII layout, slices their meshes through DeScribe, and assembles a flat GWL job script that prints every target at its placed position.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(c.logLevel)
			if err != nil {
				return err
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.FileName+" under the user config directory)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.targetsCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.gwlCommand())
	root.AddCommand(c.recipeCommand())
	root.AddCommand(c.commandsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// configValue loads the configuration once, on first use. Commands
// that operate on the config file itself bypass this and never fail on
// a broken file.
func (c *CLI) configValue() (config.Config, error) {
	if !c.configLoaded {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return config.Config{}, err
		}
		c.config = cfg
		c.configLoaded = true
	}
	return c.config, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the cache backend the
// configuration selects.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.configValue()
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Namespace != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Namespace)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache builds the configured cache backend. An unreachable Redis
// degrades to the local file cache with a warning.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}

	if cfg.Cache.Backend == config.BackendRedis {
		store, err := cache.NewRedisCache(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err == nil {
			return store, nil
		}
		if !stderrors.Is(err, cache.ErrUnavailable) {
			return nil, err
		}
		c.Logger.Warn("redis cache unavailable, using local file cache", "addr", cfg.Cache.Redis.Addr)
	}

	dir, err := cfg.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
