package pipeline

import (
	"context"

	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/observability"
)

// stageBuild runs the build command inside the source tree. Only the exit
// status matters; a failure is never retried.
func (p *Pipeline) stageBuild(ctx context.Context, rs *RunState) error {
	res, err := p.builder.Run(ctx, rs.SourceTree.Path)
	rs.BuildResult = res
	if err != nil {
		return err
	}
	observability.DebugContext(ctx, "Build output captured", logfields.ExitCode(res.ExitCode))
	return nil
}
