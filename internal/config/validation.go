package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
)

// Validate checks a defaulted RunConfig and returns the first problem as a
// validation ClassifiedError naming the offending field.
func Validate(cfg *RunConfig) error {
	if cfg == nil {
		return ferrors.ValidationError("configuration is required").Build()
	}
	return newRunConfigValidator(cfg).validate()
}

type runConfigValidator struct {
	cfg *RunConfig
}

func newRunConfigValidator(cfg *RunConfig) *runConfigValidator {
	return &runConfigValidator{cfg: cfg}
}

func (v *runConfigValidator) validate() error {
	checks := []func() error{
		v.validateSource,
		v.validateDistribution,
		v.validateBuild,
		v.validateHarvest,
		v.validateAuth,
		v.validateWorkspace,
		v.validateTimeouts,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ValidationError(msg).WithContext("field", field).Build()
}

func (v *runConfigValidator) validateSource() error {
	if strings.TrimSpace(v.cfg.Source.URL) == "" {
		return invalid("source.url", "source repository is required (--repo)")
	}
	if strings.TrimSpace(v.cfg.Source.Branch) == "" {
		return invalid("source.branch", "source branch must not be empty")
	}
	return nil
}

func (v *runConfigValidator) validateDistribution() error {
	d := v.cfg.Distribution
	if strings.TrimSpace(d.URL) == "" {
		return invalid("distribution.url", "distribution repository is required (--commit-repo)")
	}
	if strings.TrimSpace(d.CommitMessage) == "" {
		return invalid("distribution.commit_message", "commit message must not be empty")
	}
	if d.Tag != "" && strings.ContainsAny(d.Tag, " ~^:?*[\\") {
		return invalid("distribution.tag", fmt.Sprintf("invalid tag name %q", d.Tag))
	}
	return nil
}

func (v *runConfigValidator) validateBuild() error {
	if len(v.cfg.Build.Command) == 0 || strings.TrimSpace(v.cfg.Build.Command[0]) == "" {
		return invalid("build.command", "build command must not be empty")
	}
	return nil
}

func (v *runConfigValidator) validateHarvest() error {
	h := v.cfg.Harvest
	if len(h.Extensions) == 0 {
		return invalid("harvest.extensions", "at least one artifact extension is required")
	}
	for _, ext := range h.Extensions {
		if ext == "" {
			return invalid("harvest.extensions", "artifact extensions must not be empty")
		}
	}
	if NormalizeCollisionPolicy(string(h.Collision)) == "" {
		return invalid("harvest.collision", fmt.Sprintf("unknown collision policy %q (want overwrite, fail or namespace)", h.Collision))
	}
	if filepath.IsAbs(h.DestDir) || h.DestDir == ".." || strings.HasPrefix(h.DestDir, ".."+string(filepath.Separator)) {
		return invalid("harvest.dest_dir", fmt.Sprintf("destination directory %q must stay inside the distribution tree", h.DestDir))
	}
	if first, _, _ := strings.Cut(filepath.ToSlash(filepath.Clean(h.DestDir)), "/"); first == ".git" {
		return invalid("harvest.dest_dir", fmt.Sprintf("destination directory %q must not be inside .git", h.DestDir))
	}
	return nil
}

func (v *runConfigValidator) validateAuth() error {
	a := v.cfg.Auth
	switch a.Type {
	case AuthTypeAuto, AuthTypeNone, AuthTypeSSH, AuthTypeAgent, AuthTypeToken:
	default:
		return invalid("auth.type", fmt.Sprintf("unknown auth type %q", a.Type))
	}
	if a.Type == AuthTypeSSH && a.KeyPath == "" {
		return invalid("auth.key_path", "auth type ssh requires a key path (--ssh-key)")
	}
	switch a.HostKeyPolicy {
	case HostKeyInsecure:
	case HostKeyKnownHosts:
		if len(a.KnownHosts) == 0 {
			return invalid("auth.known_hosts", "host key policy known_hosts requires at least one known_hosts file")
		}
	default:
		return invalid("auth.host_key_policy", fmt.Sprintf("unknown host key policy %q", a.HostKeyPolicy))
	}
	if strings.TrimSpace(a.Host) == "" {
		return invalid("auth.host", "transport host must not be empty")
	}
	return nil
}

func (v *runConfigValidator) validateWorkspace() error {
	w := v.cfg.Workspace
	if w.SourceDir == "" || w.DistributionDir == "" {
		return invalid("workspace", "working tree names must not be empty")
	}
	src := filepath.Clean(v.cfg.SourcePath())
	dist := filepath.Clean(v.cfg.DistributionPath())
	if src == dist {
		return invalid("workspace.distribution_dir", "source and distribution trees must be different directories")
	}
	if isWithin(src, dist) || isWithin(dist, src) {
		return invalid("workspace.distribution_dir", "source and distribution trees must not be nested")
	}
	return nil
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

func (v *runConfigValidator) validateTimeouts() error {
	if v.cfg.Timeouts.Build < 0 {
		return invalid("timeouts.build", "build timeout must not be negative")
	}
	if v.cfg.Timeouts.Git < 0 {
		return invalid("timeouts.git", "git timeout must not be negative")
	}
	return nil
}
