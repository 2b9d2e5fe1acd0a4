// Package config defines the RunConfig consumed by one pipeline invocation,
// its YAML file form, .env loading, defaults and validation.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
)

// RunConfig is the complete input of a single checkout → build → harvest → publish run.
// It is assembled once (file, environment, flags, defaults) and then passed by value.
type RunConfig struct {
	Source       SourceConfig       `yaml:"source"`
	Distribution DistributionConfig `yaml:"distribution"`
	Build        BuildConfig        `yaml:"build"`
	Harvest      HarvestConfig      `yaml:"harvest"`
	Auth         AuthConfig         `yaml:"auth"`
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	Timeouts     TimeoutConfig      `yaml:"timeouts"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// SourceConfig locates the repository that gets built.
type SourceConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
}

// DistributionConfig locates the repository that receives artifacts and describes the commit.
type DistributionConfig struct {
	URL           string `yaml:"url"`
	Branch        string `yaml:"branch,omitempty"` // empty: remote default branch
	CommitMessage string `yaml:"commit_message,omitempty"`
	Tag           string `yaml:"tag,omitempty"`
	AuthorName    string `yaml:"author_name,omitempty"`
	AuthorEmail   string `yaml:"author_email,omitempty"`
	// SkipEmpty turns a run with nothing to commit into a successful no-op
	// instead of an empty commit.
	SkipEmpty bool `yaml:"skip_empty,omitempty"`
}

// BuildConfig describes the build entry point run inside the source tree.
type BuildConfig struct {
	Command []string `yaml:"command,omitempty"`
}

// HarvestConfig selects artifacts and where they land in the distribution tree.
type HarvestConfig struct {
	Extensions []string        `yaml:"extensions,omitempty"`
	DestDir    string          `yaml:"dest_dir,omitempty"`
	Collision  CollisionPolicy `yaml:"collision,omitempty"`
}

// WorkspaceConfig places the two working trees on disk.
type WorkspaceConfig struct {
	BaseDir         string `yaml:"base_dir,omitempty"`
	SourceDir       string `yaml:"source_dir,omitempty"`
	DistributionDir string `yaml:"distribution_dir,omitempty"`
	Cleanup         bool   `yaml:"cleanup,omitempty"`
}

// TimeoutConfig bounds blocking stages. Zero means no deadline.
type TimeoutConfig struct {
	Build time.Duration `yaml:"build,omitempty"`
	Git   time.Duration `yaml:"git,omitempty"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile,omitempty"`
}

// Load reads a YAML RunConfig file. Environment references (${VAR}) are expanded
// before parsing and unknown keys are rejected.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)

	var cfg RunConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, ferrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path)).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &cfg, nil
}
