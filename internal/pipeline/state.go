package pipeline

import (
	"time"

	"git.home.luguber.info/inful/artifactpub/internal/auth"
	"git.home.luguber.info/inful/artifactpub/internal/build"
	"git.home.luguber.info/inful/artifactpub/internal/config"
	"git.home.luguber.info/inful/artifactpub/internal/git"
	"git.home.luguber.info/inful/artifactpub/internal/harvest"
	"git.home.luguber.info/inful/artifactpub/internal/workspace"
)

// RunState carries everything stages share during one run.
type RunState struct {
	Config config.RunConfig
	RunID  string

	// Resolved remote locations after host expansion.
	SourceURL       string
	DistributionURL string

	Identity  *auth.Identity
	Git       *git.Client
	Workspace *workspace.Manager

	SourceTree       *workspace.Tree
	DistributionTree *workspace.Tree

	Checkout     *git.SourceCheckout
	BuildResult  *build.Result
	Distribution *git.Distribution
	Artifacts    harvest.ArtifactSet
	Commit       *git.CommitResult

	StageDurations map[StageName]time.Duration
}

func newRunState(cfg config.RunConfig, runID string) *RunState {
	return &RunState{
		Config:         cfg,
		RunID:          runID,
		Workspace:      workspace.NewManager(cfg.Workspace.BaseDir),
		StageDurations: make(map[StageName]time.Duration),
	}
}
