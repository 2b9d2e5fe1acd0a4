package git

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/artifactpub/internal/auth"
)

// Client handles Git operations for one run.
type Client struct {
	identity *auth.Identity
	timeout  time.Duration // per network operation; zero means none
}

// NewClient creates a Git client that authenticates with identity.
func NewClient(identity *auth.Identity) *Client { return &Client{identity: identity} }

// WithTimeout bounds each clone and push (fluent helper).
func (c *Client) WithTimeout(d time.Duration) *Client { c.timeout = d; return c }

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) authFor(url string) transport.AuthMethod {
	return c.identity.MethodFor(url)
}
