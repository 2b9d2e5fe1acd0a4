package pipeline

import (
	"context"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/git"
	"git.home.luguber.info/inful/artifactpub/internal/harvest"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/observability"
)

// stagePrepareDistribution clones the distribution repository. It runs after
// a successful build so a failed build never contacts the distribution remote.
func (p *Pipeline) stagePrepareDistribution(ctx context.Context, rs *RunState) error {
	tree, err := rs.Workspace.Claim(rs.Config.Workspace.DistributionDir)
	if err != nil {
		return ferrors.PublishError("failed to claim distribution tree").WithCause(err).Build()
	}
	rs.DistributionTree = tree

	dist, err := rs.Git.CloneDistribution(ctx, rs.DistributionURL, rs.Config.Distribution.Branch, tree.Path)
	if err != nil {
		return err
	}
	rs.Distribution = dist
	return nil
}

// stageHarvest moves matching build outputs into the distribution tree.
func (p *Pipeline) stageHarvest(ctx context.Context, rs *RunState) error {
	set, err := harvest.NewHarvester(rs.Config.Harvest).Harvest(rs.SourceTree.Path, rs.DistributionTree.Path)
	if err != nil {
		return err
	}
	rs.Artifacts = set
	observability.InfoContext(ctx, "Harvest finished", logfields.Artifacts(len(set)))
	return nil
}

// stagePublish stages everything, commits, tags the new commit and pushes
// branch and tags in one push.
func (p *Pipeline) stagePublish(ctx context.Context, rs *RunState) error {
	d := rs.Config.Distribution
	result, err := rs.Distribution.Commit(d.CommitMessage, git.Author{Name: d.AuthorName, Email: d.AuthorEmail}, d.SkipEmpty)
	if err != nil {
		return err
	}
	rs.Commit = result
	if result.Skipped {
		observability.InfoContext(ctx, "Nothing changed in distribution tree; skipping tag and push")
		return nil
	}

	if d.Tag != "" {
		if err := rs.Distribution.Tag(d.Tag, result.Hash); err != nil {
			return err
		}
	}

	if err := rs.Distribution.Push(ctx); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Artifacts published",
		logfields.URL(rs.DistributionURL),
		logfields.Branch(rs.Distribution.Branch),
		logfields.Commit(result.Hash.String()))
	return nil
}
