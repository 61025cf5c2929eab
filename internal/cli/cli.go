// Package cli implements the musicore command-line interface.
package cli

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/buildinfo"
	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/httputil"
	"github.com/aylabs/musicore/pkg/pipeline"
	"github.com/aylabs/musicore/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "musicore"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "musicore",
		Short:        "Musicore engraves musical scores into spatial layouts",
		Long:         `Musicore is a music engraving engine: it takes a score document (instruments, staves, voices, notes) and computes a complete spatial layout with SMuFL glyph positions, ready for rendering.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.scoresCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newScoreStore opens the CLI's file-backed score library.
func newScoreStore() (*store.FileStore, error) {
	return store.NewFileStore("")
}

// readScore loads a score document from a local path or an http(s) URL.
// Remote fetches go through the file cache so repeated runs skip the network.
func (c *CLI) readScore(ctx context.Context, arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		cch, err := newCache(false)
		if err != nil {
			return nil, err
		}
		defer cch.Close()
		c.Logger.Debug("fetching remote score", "url", arg)
		return httputil.NewClient(cch).FetchScore(ctx, arg)
	}
	return os.ReadFile(arg)
}

// outputBase derives the default output file base name from the score
// argument, handling both local paths and URLs.
func outputBase(input string) string {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if u, err := url.Parse(input); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				input = base
			} else {
				input = "score"
			}
		} else {
			input = "score"
		}
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// cacheDir returns the cache directory using XDG standard (~/.cache/musicore/).
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
