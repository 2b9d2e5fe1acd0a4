package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/artifactpub/internal/build"
	"git.home.luguber.info/inful/artifactpub/internal/config"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/metrics"
	"git.home.luguber.info/inful/artifactpub/internal/pipeline"
)

// PublishCmd implements the default 'publish' command.
type PublishCmd struct {
	Config string `name:"config" help:"YAML run configuration file; flags override its values" type:"path"`

	Repo          string `short:"r" help:"Source repository (URL, path or group/project)"`
	Branch        string `short:"b" help:"Source branch (default: master)"`
	CommitRepo    string `short:"c" name:"commit-repo" help:"Distribution repository receiving the artifacts"`
	DistBranch    string `name:"dist-branch" help:"Distribution branch (default: remote HEAD)"`
	CommitMessage string `short:"m" name:"commit-message" help:"Commit message (default: Add built artifacts)"`
	Tag           string `short:"t" help:"Tag the published commit"`
	Host          string `help:"Host used to expand group/project locations (default: gitlab.com)"`

	SSHKey     string   `name:"ssh-key" help:"Private key file; the running ssh-agent is used when unset" type:"path"`
	Auth       string   `help:"Force the auth provider (auto, none, ssh, agent, token)"`
	KnownHosts []string `name:"known-hosts" help:"known_hosts files used to verify SSH host keys" sep:","`

	BuildCmd    string   `name:"build-cmd" help:"Build command line run with sh -c in the source tree (default: ./gradlew izpack)"`
	Ext         []string `help:"Artifact file extensions (default: .jar,.xml)" sep:","`
	DestDir     string   `name:"dest-dir" help:"Artifact directory inside the distribution tree"`
	Collision   string   `help:"Duplicate artifact name policy: overwrite, fail or namespace"`
	SkipEmpty   bool     `name:"skip-empty" help:"Succeed without committing when nothing changed"`
	WorkDir     string   `name:"work-dir" help:"Directory holding the working trees (default: .)"`
	Cleanup     bool     `help:"Remove both working trees after the run"`
	MetricsFile string   `name:"metrics-file" help:"Write run metrics in Prometheus textfile format"`

	BuildTimeout time.Duration `name:"build-timeout" help:"Abort the build after this duration (0 = no limit)"`
	GitTimeout   time.Duration `name:"git-timeout" help:"Abort each clone or push after this duration (0 = no limit)"`

	out io.Writer
}

func (p *PublishCmd) Run(g *Global, _ *CLI) error {
	cfg, err := p.resolveConfig()
	if err != nil {
		return err
	}

	var recorder *metrics.PrometheusRecorder
	pl := pipeline.New(*cfg)
	if cfg.Metrics.TextfilePath != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		pl = pl.WithRecorder(recorder)
	}

	outcome := pl.Run(g.context())

	if recorder != nil {
		if werr := recorder.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.TextfilePath), logfields.Error(werr))
		}
	}
	if !outcome.Succeeded() {
		return outcome.Cause
	}
	p.report(cfg, outcome)
	return nil
}

// resolveConfig assembles the RunConfig: file, then flags, then defaults, then validation.
func (p *PublishCmd) resolveConfig() (*config.RunConfig, error) {
	cfg := &config.RunConfig{}
	if p.Config != "" {
		loaded, err := config.Load(p.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	p.applyFlags(cfg)
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag the user set over the file values.
func (p *PublishCmd) applyFlags(cfg *config.RunConfig) {
	setString(&cfg.Source.URL, p.Repo)
	setString(&cfg.Source.Branch, p.Branch)
	setString(&cfg.Distribution.URL, p.CommitRepo)
	setString(&cfg.Distribution.Branch, p.DistBranch)
	setString(&cfg.Distribution.CommitMessage, p.CommitMessage)
	setString(&cfg.Distribution.Tag, p.Tag)
	if p.SkipEmpty {
		cfg.Distribution.SkipEmpty = true
	}

	setString(&cfg.Auth.KeyPath, p.SSHKey)
	setString(&cfg.Auth.Host, p.Host)
	if p.Auth != "" {
		cfg.Auth.Type = config.AuthType(p.Auth)
	}
	if len(p.KnownHosts) > 0 {
		cfg.Auth.KnownHosts = p.KnownHosts
		cfg.Auth.HostKeyPolicy = config.HostKeyKnownHosts
	}

	if p.BuildCmd != "" {
		cfg.Build.Command = build.ShellCommand(p.BuildCmd)
	}
	if len(p.Ext) > 0 {
		cfg.Harvest.Extensions = p.Ext
	}
	setString(&cfg.Harvest.DestDir, p.DestDir)
	if p.Collision != "" {
		if policy := config.NormalizeCollisionPolicy(p.Collision); policy != "" {
			cfg.Harvest.Collision = policy
		} else {
			// Left as given so validation reports it.
			cfg.Harvest.Collision = config.CollisionPolicy(p.Collision)
		}
	}

	setString(&cfg.Workspace.BaseDir, p.WorkDir)
	if p.Cleanup {
		cfg.Workspace.Cleanup = true
	}
	if p.BuildTimeout > 0 {
		cfg.Timeouts.Build = p.BuildTimeout
	}
	if p.GitTimeout > 0 {
		cfg.Timeouts.Git = p.GitTimeout
	}
	setString(&cfg.Metrics.TextfilePath, p.MetricsFile)
}

func (p *PublishCmd) report(cfg *config.RunConfig, outcome *pipeline.Outcome) {
	w := p.out
	if w == nil {
		w = os.Stdout
	}
	if outcome.Skipped {
		_, _ = fmt.Fprintf(w, "Nothing to publish to %s\n", cfg.Distribution.URL)
		return
	}
	_, _ = fmt.Fprintf(w, "Published %d artifact(s) to %s", len(outcome.Artifacts), cfg.Distribution.URL)
	if outcome.Commit != "" {
		_, _ = fmt.Fprintf(w, " at %s", shortHash(outcome.Commit))
	}
	if outcome.Tag != "" {
		_, _ = fmt.Fprintf(w, " (tag %s)", outcome.Tag)
	}
	_, _ = fmt.Fprintln(w)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
