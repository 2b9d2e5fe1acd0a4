package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
)

const (
	remoteName = "origin"
	// fallbackBranch names the first branch of an empty distribution remote
	// when none is configured.
	fallbackBranch = "master"
)

// Distribution is a cloned (or freshly initialised) distribution working tree.
type Distribution struct {
	Path   string
	URL    string
	Branch string
	// Initialized is true when the remote was empty and the tree was created locally.
	Initialized bool

	repo   *git.Repository
	client *Client
}

// Author identifies the committer of published artifacts.
type Author struct {
	Name  string
	Email string
}

// CommitResult describes the outcome of Commit.
type CommitResult struct {
	Hash plumbing.Hash
	// Skipped is true when nothing was staged and empty commits were not wanted.
	Skipped bool
}

// CloneDistribution clones url into path. An empty branch follows the remote
// HEAD. An empty remote is accepted: the tree is initialised locally with
// origin pointing at url and branch (or master) as its first branch.
func (c *Client) CloneDistribution(ctx context.Context, url, branch, path string) (*Distribution, error) {
	if err := ensureVacant(path); err != nil {
		return nil, ferrors.PublishError(fmt.Sprintf("distribution target %s is not empty", path)).
			WithCause(err).
			WithContext("op", "clone").
			WithContext("url", url).
			WithContext("path", path).
			WithContext("reason", ReasonNotEmpty).
			Build()
	}

	slog.Debug("Cloning distribution repository", logfields.URL(url), logfields.Branch(branch), logfields.Path(path))

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	opts := &git.CloneOptions{
		URL:  url,
		Auth: c.authFor(url),
		Tags: git.AllTags,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	repository, err := git.PlainCloneContext(opCtx, path, false, opts)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return c.initDistribution(url, branch, path)
	}
	if err != nil {
		return nil, publishFailure("clone", url, err)
	}

	head, err := repository.Head()
	if err != nil {
		return nil, publishFailure("resolve HEAD", url, err)
	}
	if !head.Name().IsBranch() {
		return nil, publishFailure("resolve HEAD", url, fmt.Errorf("HEAD %s is not a branch", head.Name()))
	}

	slog.Info("Distribution repository cloned", logfields.URL(url), logfields.Branch(head.Name().Short()), logfields.Commit(head.Hash().String()))
	return &Distribution{Path: path, URL: url, Branch: head.Name().Short(), repo: repository, client: c}, nil
}

func (c *Client) initDistribution(url, branch, path string) (*Distribution, error) {
	if branch == "" {
		branch = fallbackBranch
	}
	repository, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
	})
	if err != nil {
		return nil, publishFailure("init", url, err)
	}
	if _, err := repository.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, publishFailure("init", url, err)
	}

	slog.Info("Distribution remote is empty, initialised new tree", logfields.URL(url), logfields.Branch(branch), logfields.Path(path))
	return &Distribution{Path: path, URL: url, Branch: branch, Initialized: true, repo: repository, client: c}, nil
}

// Commit stages every change in the tree (including deletions) and commits it.
// With skipEmpty set and nothing staged, no commit is made and Skipped is true.
func (d *Distribution) Commit(message string, author Author, skipEmpty bool) (*CommitResult, error) {
	wt, err := d.repo.Worktree()
	if err != nil {
		return nil, publishFailure("stage", d.URL, err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, publishFailure("stage", d.URL, err)
	}

	if skipEmpty {
		status, err := wt.Status()
		if err != nil {
			return nil, publishFailure("stage", d.URL, err)
		}
		if status.IsClean() {
			slog.Info("Nothing to commit, skipping", logfields.URL(d.URL), logfields.Branch(d.Branch))
			return &CommitResult{Skipped: true}, nil
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return nil, publishFailure("commit", d.URL, err)
	}

	slog.Info("Committed artifacts", logfields.Branch(d.Branch), logfields.Commit(hash.String()))
	return &CommitResult{Hash: hash}, nil
}

// Tag creates a lightweight tag on hash. An existing tag of that name is an error.
func (d *Distribution) Tag(name string, hash plumbing.Hash) error {
	if _, err := d.repo.CreateTag(name, hash, nil); err != nil {
		return ferrors.PublishError(fmt.Sprintf("failed to create tag %s", name)).
			WithCause(err).
			WithContext("op", "tag").
			WithContext("url", d.URL).
			WithContext("reason", reasonFor(err)).
			Build()
	}
	slog.Info("Tagged commit", logfields.Tag(name), logfields.Commit(hash.String()))
	return nil
}

// Push sends the branch and all tags to origin in a single push.
func (d *Distribution) Push(ctx context.Context) error {
	opCtx, cancel := d.client.opContext(ctx)
	defer cancel()

	branchRef := plumbing.NewBranchReferenceName(d.Branch)
	err := d.repo.PushContext(opCtx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec(fmt.Sprintf("%s:%s", branchRef, branchRef)),
			gitconfig.RefSpec("refs/tags/*:refs/tags/*"),
		},
		Auth: d.client.authFor(d.URL),
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Info("Distribution remote already up to date", logfields.URL(d.URL), logfields.Branch(d.Branch))
		return nil
	}
	if err != nil {
		return publishFailure("push", d.URL, err)
	}
	slog.Info("Pushed distribution branch and tags", logfields.URL(d.URL), logfields.Branch(d.Branch))
	return nil
}

// Head returns the current branch tip, or ZeroHash on an unborn branch.
func (d *Distribution) Head() plumbing.Hash {
	ref, err := d.repo.Head()
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}
