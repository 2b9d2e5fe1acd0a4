package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/metrics"
	"git.home.luguber.info/inful/artifactpub/internal/observability"
)

// RunStages executes stages in order, recording timing and stopping on the
// first error. A cancelled context fails the stage about to start.
func RunStages(ctx context.Context, rs *RunState, stages []StageDef, recorder metrics.Recorder) error {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		stageCtx := observability.WithStage(ctx, string(st.Name))
		observability.DebugContext(stageCtx, "Stage started")

		t0 := time.Now()
		err := st.Fn(stageCtx, rs)
		dur := time.Since(t0)

		rs.StageDurations[st.Name] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			se := NewFatalStageError(st.Name, err)
			result := metrics.ResultFatal
			if ctx.Err() != nil {
				se = NewCanceledStageError(st.Name, err)
				result = metrics.ResultCanceled
			}
			recorder.IncStageResult(string(st.Name), result)
			observability.ErrorContext(stageCtx, "Stage failed", logfields.Duration(dur), logfields.Error(err))
			return se
		}

		recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		observability.InfoContext(stageCtx, "Stage completed", logfields.Duration(dur))
	}
	slog.Debug("All stages completed", slog.Int("stages", len(stages)))
	return nil
}
