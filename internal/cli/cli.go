// Package cli implements the bricklayers command-line interface.
//
// The root command processes one G-code file in place, which is how slicers
// call post-processing scripts:
//
//	bricklayers -layerHeight 0.2 -extrusionMultiplier 1.0 part.gcode
//
// # Commands
//
//   - (root): rewrite a file with brick-shift, non-planar infill and wall
//     reordering
//   - inspect: show the layers and features of a file and what the current
//     options would do with them
//   - restore: put back the slicer's file after processing
//   - cache: manage the local cache of outputs and originals
//   - completion: shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-file to keep a copy of the log. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bricklayers/pkg/buildinfo"
	"github.com/matzehuels/bricklayers/pkg/cache"
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/observability"
	"github.com/matzehuels/bricklayers/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bricklayers"

	// cacheSchema scopes cache keys; bump it when the cached formats change.
	cacheSchema = "v1:"

	// configFileName is the config file looked up in the config directory.
	configFileName = "config.toml"
)

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

	out     io.Writer
	logFile *os.File
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if any.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose bool
		logPath string
	)

	root := c.processCommand()
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetVersionTemplate(buildinfo.Template())
	root.SetGlobalNormalizationFunc(normalizeFlagName)

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&logPath, "log-file", "", "also append the log to this file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		if logPath != "" {
			if err := c.openLogFile(logPath, level); err != nil {
				return err
			}
		}
		c.SetLogLevel(level)
		if verbose {
			observability.SetPipelineHooks(newPipelineLogHooks(c.Logger))
			observability.SetCacheHooks(newCacheLogHooks(c.Logger))
		}
		cmd.SetContext(withLogger(contextOf(cmd), c.Logger))
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// openLogFile replaces the logger with one writing to both the terminal
// and the file at path.
func (c *CLI) openLogFile(path string, level log.Level) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "open log file %s", path)
	}
	_ = c.Close()
	c.logFile = f
	c.Logger = newLogger(io.MultiWriter(c.out, f), level)
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, newKeyer(), c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func newKeyer() cache.Keyer {
	return cache.NewScopedKeyer(nil, cacheSchema)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bricklayers/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file using XDG standard
// (~/.config/bricklayers/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFileName), nil
}
