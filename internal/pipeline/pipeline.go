package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/artifactpub/internal/auth"
	"git.home.luguber.info/inful/artifactpub/internal/build"
	"git.home.luguber.info/inful/artifactpub/internal/config"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/metrics"
	"git.home.luguber.info/inful/artifactpub/internal/observability"
)

// Pipeline executes one publish run for an immutable RunConfig.
type Pipeline struct {
	cfg      config.RunConfig
	recorder metrics.Recorder
	auth     *auth.Manager
	builder  build.Runner
}

// New creates a pipeline for cfg. cfg is copied; later changes by the caller
// are not observed.
func New(cfg config.RunConfig) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		auth:     auth.NewManager(),
		builder:  build.NewCommandRunner(cfg.Build.Command, cfg.Timeouts.Build),
	}
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithAuthManager replaces the authentication manager (fluent helper).
func (p *Pipeline) WithAuthManager(m *auth.Manager) *Pipeline {
	if m != nil {
		p.auth = m
	}
	return p
}

// WithBuildRunner replaces how the build step is executed (fluent helper).
func (p *Pipeline) WithBuildRunner(r build.Runner) *Pipeline {
	if r != nil {
		p.builder = r
	}
	return p
}

func (p *Pipeline) stages() []StageDef {
	return NewStagePlan().
		Add(StageAuthenticate, p.stageAuthenticate).
		Add(StageCheckout, p.stageCheckout).
		Add(StageBuild, p.stageBuild).
		Add(StagePrepareDistribution, p.stagePrepareDistribution).
		Add(StageHarvest, p.stageHarvest).
		Add(StagePublish, p.stagePublish).
		Build()
}

// Run executes every stage and returns the outcome. It never returns nil.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	start := time.Now()
	runID := observability.NewRunID()
	ctx = observability.WithRunID(ctx, runID)
	rs := newRunState(p.cfg, runID)

	observability.InfoContext(ctx, "Publish run started",
		logfields.URL(p.cfg.Source.URL),
		logfields.Branch(p.cfg.Source.Branch))

	err := RunStages(ctx, rs, p.stages(), p.recorder)
	outcome := p.outcomeFrom(rs, err)

	if p.cfg.Workspace.Cleanup {
		outcome.CleanupErr = p.cleanup(ctx, rs)
	}
	if cerr := rs.Identity.Close(); cerr != nil {
		slog.Debug("Failed to release transport identity", logfields.Error(cerr))
	}

	outcome.Duration = time.Since(start)
	p.recorder.ObserveRunDuration(outcome.Duration)
	p.recorder.IncRunOutcome(outcome.Kind.String())
	p.recorder.SetArtifactsPublished(len(outcome.Artifacts))

	attrs := []slog.Attr{
		logfields.Outcome(outcome.Kind.String()),
		logfields.ExitCode(outcome.ExitCode()),
		logfields.Artifacts(len(outcome.Artifacts)),
		logfields.Duration(outcome.Duration),
	}
	if outcome.Succeeded() {
		observability.InfoContext(ctx, "Publish run finished", attrs...)
	} else {
		attrs = append(attrs, logfields.Stage(string(outcome.Stage)), logfields.Error(outcome.Cause))
		observability.ErrorContext(ctx, "Publish run failed", attrs...)
	}
	return outcome
}

func (p *Pipeline) outcomeFrom(rs *RunState, err error) *Outcome {
	outcome := &Outcome{
		RunID:          rs.RunID,
		Artifacts:      rs.Artifacts,
		StageDurations: rs.StageDurations,
	}
	if err == nil {
		outcome.Kind = Success
		if rs.Commit != nil && rs.Commit.Skipped {
			outcome.Skipped = true
		} else if rs.Commit != nil {
			outcome.Commit = rs.Commit.Hash.String()
			outcome.Tag = rs.Config.Distribution.Tag
		}
		return outcome
	}

	outcome.Cause = err
	var se *StageError
	if errors.As(err, &se) {
		outcome.Stage = se.Stage
		outcome.Kind = KindForStage(se.Stage)
	} else {
		outcome.Kind = PublishStageFailed
	}
	return outcome
}

// cleanup removes the working trees this run owns. Its error is recorded but
// never changes the outcome.
func (p *Pipeline) cleanup(ctx context.Context, rs *RunState) error {
	stageCtx := observability.WithStage(ctx, string(StageCleanup))
	t0 := time.Now()
	err := rs.Workspace.Cleanup()
	dur := time.Since(t0)
	rs.StageDurations[StageCleanup] = dur
	p.recorder.ObserveStageDuration(string(StageCleanup), dur)
	if err != nil {
		p.recorder.IncStageResult(string(StageCleanup), metrics.ResultFatal)
		observability.WarnContext(stageCtx, "Cleanup failed", logfields.Error(err))
		return err
	}
	p.recorder.IncStageResult(string(StageCleanup), metrics.ResultSuccess)
	observability.InfoContext(stageCtx, "Cleanup completed", logfields.Duration(dur))
	return nil
}
