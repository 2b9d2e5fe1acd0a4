package pipeline

import (
	"time"

	"git.home.luguber.info/inful/artifactpub/internal/harvest"
)

// OutcomeKind is the terminal classification of a run.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	SourceStageFailed
	BuildStageFailed
	HarvestStageFailed
	PublishStageFailed
)

// String returns the label used in logs and metrics.
func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case SourceStageFailed:
		return "source_failed"
	case BuildStageFailed:
		return "build_failed"
	case HarvestStageFailed:
		return "harvest_failed"
	case PublishStageFailed:
		return "publish_failed"
	default:
		return "unknown"
	}
}

// KindForStage maps a failing stage onto the outcome it produces.
func KindForStage(stage StageName) OutcomeKind {
	switch stage {
	case StageAuthenticate, StageCheckout:
		return SourceStageFailed
	case StageBuild:
		return BuildStageFailed
	case StageHarvest:
		return HarvestStageFailed
	case StagePrepareDistribution, StagePublish:
		return PublishStageFailed
	default:
		return PublishStageFailed
	}
}

// Outcome is the result of one run.
type Outcome struct {
	Kind  OutcomeKind
	Cause error // nil on Success

	RunID     string
	Stage     StageName // failing stage; empty on Success
	Artifacts harvest.ArtifactSet
	Commit    string // published commit hash; empty when nothing was committed
	Tag       string
	// Skipped is true when nothing changed and empty commits were disabled.
	Skipped        bool
	StageDurations map[StageName]time.Duration
	Duration       time.Duration
	// CleanupErr records a failed cleanup. It never changes Kind.
	CleanupErr error
}

// ExitCode is 0 for Success and 1 for any stage failure.
func (o *Outcome) ExitCode() int {
	if o == nil || o.Kind == Success {
		return 0
	}
	return 1
}

// Succeeded reports whether the run published (or had nothing to publish).
func (o *Outcome) Succeeded() bool { return o != nil && o.Kind == Success }
