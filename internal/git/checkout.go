package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
)

// SourceCheckout describes a successful source clone.
type SourceCheckout struct {
	Path   string
	Branch string
	Head   plumbing.Hash
}

// CloneSource clones url at branch (single branch) into path. The target must
// be absent or an empty directory, and afterwards HEAD must be the requested
// branch; anything else is a checkout error.
func (c *Client) CloneSource(ctx context.Context, url, branch, path string) (*SourceCheckout, error) {
	if err := ensureVacant(path); err != nil {
		return nil, ferrors.CheckoutError(fmt.Sprintf("checkout target %s is not empty", path)).
			WithCause(err).
			WithContext("op", "clone").
			WithContext("url", url).
			WithContext("path", path).
			WithContext("reason", ReasonNotEmpty).
			Build()
	}

	slog.Debug("Cloning source repository", logfields.URL(url), logfields.Branch(branch), logfields.Path(path))

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	want := plumbing.NewBranchReferenceName(branch)
	repository, err := git.PlainCloneContext(opCtx, path, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: want,
		SingleBranch:  true,
		Auth:          c.authFor(url),
	})
	if err != nil {
		return nil, checkoutFailure("clone", url, err)
	}

	head, err := repository.Head()
	if err != nil {
		return nil, checkoutFailure("resolve HEAD", url, err)
	}
	if head.Name() != want {
		return nil, ferrors.CheckoutError(fmt.Sprintf("checked out %s but %s was requested", head.Name().Short(), branch)).
			WithContext("op", "verify").
			WithContext("url", url).
			WithContext("reason", ReasonHeadMismatch).
			Build()
	}

	slog.Info("Source repository cloned", logfields.URL(url), logfields.Branch(branch), logfields.Commit(head.Hash().String()))
	return &SourceCheckout{Path: path, Branch: branch, Head: head.Hash()}, nil
}

// ensureVacant accepts a missing path or an empty directory.
func ensureVacant(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from validated configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	if _, err := f.Readdirnames(1); errors.Is(err, io.EOF) {
		return nil
	} else if err != nil {
		return err
	}
	return fmt.Errorf("directory %s already has content", path)
}
