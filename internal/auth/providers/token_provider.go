package providers

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/artifactpub/internal/config"
)

// TokenProvider handles token-based HTTPS authentication.
type TokenProvider struct{}

// NewTokenProvider creates a new token authentication provider.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// Type returns the authentication type this provider handles.
func (p *TokenProvider) Type() config.AuthType {
	return config.AuthTypeToken
}

// CreateAuth creates token authentication from ARTIFACTPUB_GIT_TOKEN.
func (p *TokenProvider) CreateAuth(_ *config.AuthConfig) (transport.AuthMethod, error) {
	token := os.Getenv(config.EnvGitToken)
	if token == "" {
		return nil, fmt.Errorf("token authentication requires %s", config.EnvGitToken)
	}

	// Most Git hosting services accept "token" as the username for token auth
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// ValidateConfig checks that a token is present in the environment.
func (p *TokenProvider) ValidateConfig(_ *config.AuthConfig) error {
	if os.Getenv(config.EnvGitToken) == "" {
		return fmt.Errorf("token authentication requires %s", config.EnvGitToken)
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *TokenProvider) Name() string {
	return "TokenProvider"
}
