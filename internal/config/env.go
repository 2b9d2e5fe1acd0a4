package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read outside of flag parsing.
const (
	EnvSSHKeyPassphrase = "ARTIFACTPUB_SSH_KEY_PASSPHRASE"
	EnvGitToken         = "ARTIFACTPUB_GIT_TOKEN"
	EnvLogLevel         = "ARTIFACTPUB_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads .env and .env.local from the working directory if present.
// Variables already set in the process environment win.
func LoadEnvFiles() error {
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return err
		}
		slog.Debug("Loaded environment file", slog.String("path", name))
	}
	return nil
}

// LogLevelFromEnv reports the log level requested via ARTIFACTPUB_LOG_LEVEL.
func LogLevelFromEnv(fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
