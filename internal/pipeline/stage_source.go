package pipeline

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/git"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
	"git.home.luguber.info/inful/artifactpub/internal/observability"
)

// stageAuthenticate resolves both remote locations and builds the single
// identity used by every later clone and push.
func (p *Pipeline) stageAuthenticate(ctx context.Context, rs *RunState) error {
	cfg := rs.Config
	rs.SourceURL = git.ExpandLocation(cfg.Source.URL, cfg.Auth.Host)
	rs.DistributionURL = git.ExpandLocation(cfg.Distribution.URL, cfg.Auth.Host)

	identity, err := p.auth.Resolve(cfg.Auth, rs.SourceURL, rs.DistributionURL)
	if err != nil {
		return err
	}
	rs.Identity = identity
	rs.Git = git.NewClient(identity).WithTimeout(cfg.Timeouts.Git)

	observability.InfoContext(ctx, "Transport identity established",
		logfields.URL(rs.SourceURL),
		slog.String("auth_type", string(identity.Type)))
	return nil
}

// stageCheckout clones the source repository at the configured branch.
func (p *Pipeline) stageCheckout(ctx context.Context, rs *RunState) error {
	if err := rs.Workspace.Create(); err != nil {
		return ferrors.CheckoutError("failed to prepare workspace").WithCause(err).
			WithContext("path", rs.Workspace.GetPath()).Build()
	}
	tree, err := rs.Workspace.Claim(rs.Config.Workspace.SourceDir)
	if err != nil {
		return ferrors.CheckoutError("failed to claim source tree").WithCause(err).Build()
	}
	rs.SourceTree = tree

	checkout, err := rs.Git.CloneSource(ctx, rs.SourceURL, rs.Config.Source.Branch, tree.Path)
	if err != nil {
		return err
	}
	rs.Checkout = checkout
	return nil
}
