package commands

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/artifactpub/internal/config"
	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Context is cancelled on SIGINT/SIGTERM.
	Context context.Context
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish PublishCmd `cmd:"" default:"withargs" help:"Check out, build, harvest artifacts and publish them to the distribution repository"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	if err := config.LoadEnvFiles(); err != nil {
		slog.Warn("Failed to load environment file", "error", err)
	}
	level := parseLogLevel(c.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel picks debug for -v, otherwise ARTIFACTPUB_LOG_LEVEL, otherwise info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return config.LogLevelFromEnv(slog.LevelInfo)
}

func (g *Global) context() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}
