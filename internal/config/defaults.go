package config

import (
	"path/filepath"
	"strings"
)

// Default values used when neither the config file nor the command line sets a field.
const (
	DefaultBranch          = "master"
	DefaultCommitMessage   = "Add built artifacts"
	DefaultHost            = "gitlab.com"
	DefaultWorkDir         = "."
	DefaultSourceDir       = "source_repo"
	DefaultDistributionDir = "commit_repo"
	DefaultAuthorName      = "artifactpub"
	DefaultAuthorEmail     = "artifactpub@localhost"
)

// DefaultBuildCommand is the build entry point of the reference project layout.
func DefaultBuildCommand() []string { return []string{"./gradlew", "izpack"} }

// DefaultExtensions lists the artifact suffixes harvested by default.
func DefaultExtensions() []string { return []string{".jar", ".xml"} }

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *RunConfig)
	Domain() string
}

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *RunConfig) {
	if cfg.Source.Branch == "" {
		cfg.Source.Branch = DefaultBranch
	}
}

type distributionDefaults struct{}

func (distributionDefaults) Domain() string { return "distribution" }

func (distributionDefaults) ApplyDefaults(cfg *RunConfig) {
	d := &cfg.Distribution
	if d.CommitMessage == "" {
		d.CommitMessage = DefaultCommitMessage
	}
	if d.AuthorName == "" {
		d.AuthorName = DefaultAuthorName
	}
	if d.AuthorEmail == "" {
		d.AuthorEmail = DefaultAuthorEmail
	}
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *RunConfig) {
	if len(cfg.Build.Command) == 0 {
		cfg.Build.Command = DefaultBuildCommand()
	}
}

type harvestDefaults struct{}

func (harvestDefaults) Domain() string { return "harvest" }

func (harvestDefaults) ApplyDefaults(cfg *RunConfig) {
	h := &cfg.Harvest
	if len(h.Extensions) == 0 {
		h.Extensions = DefaultExtensions()
	}
	if h.Collision == "" {
		h.Collision = CollisionOverwrite
	}
	// Clean maps "" to ".", the distribution tree root.
	h.DestDir = filepath.Clean(strings.TrimSpace(h.DestDir))
}

type authDefaults struct{}

func (authDefaults) Domain() string { return "auth" }

func (authDefaults) ApplyDefaults(cfg *RunConfig) {
	a := &cfg.Auth
	if a.Type == "" {
		a.Type = AuthTypeAuto
	}
	if a.Host == "" {
		a.Host = DefaultHost
	}
	if a.HostKeyPolicy == "" {
		if len(a.KnownHosts) > 0 {
			a.HostKeyPolicy = HostKeyKnownHosts
		} else {
			a.HostKeyPolicy = HostKeyInsecure
		}
	}
}

type workspaceDefaults struct{}

func (workspaceDefaults) Domain() string { return "workspace" }

func (workspaceDefaults) ApplyDefaults(cfg *RunConfig) {
	w := &cfg.Workspace
	if w.BaseDir == "" {
		w.BaseDir = DefaultWorkDir
	}
	if w.SourceDir == "" {
		w.SourceDir = DefaultSourceDir
	}
	if w.DistributionDir == "" {
		w.DistributionDir = DefaultDistributionDir
	}
}

var defaultAppliers = []DefaultApplier{
	sourceDefaults{},
	distributionDefaults{},
	buildDefaults{},
	harvestDefaults{},
	authDefaults{},
	workspaceDefaults{},
}

// ApplyDefaults fills every unset field. It is idempotent.
func ApplyDefaults(cfg *RunConfig) {
	for _, applier := range defaultAppliers {
		applier.ApplyDefaults(cfg)
	}
}

// SourcePath returns the absolute-or-relative location of the source working tree.
func (c RunConfig) SourcePath() string {
	return filepath.Join(c.Workspace.BaseDir, c.Workspace.SourceDir)
}

// DistributionPath returns the location of the distribution working tree.
func (c RunConfig) DistributionPath() string {
	return filepath.Join(c.Workspace.BaseDir, c.Workspace.DistributionDir)
}
