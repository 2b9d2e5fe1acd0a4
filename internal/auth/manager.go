// Package auth builds the single transport identity used for every clone and
// push of a run.
package auth

import (
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/artifactpub/internal/auth/providers"
	"git.home.luguber.info/inful/artifactpub/internal/config"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
)

// Identity is the credential handed explicitly to git operations. It is built
// once before any network operation and only read afterwards.
type Identity struct {
	Type     config.AuthType
	Provider string
	method   transport.AuthMethod
}

// MethodFor returns the auth method to use against remote. Local and file
// remotes never receive credentials, and SSH credentials are never offered to
// HTTP remotes or the reverse.
func (id *Identity) MethodFor(remote string) transport.AuthMethod {
	if id == nil || id.method == nil {
		return nil
	}
	switch SchemeOf(remote) {
	case SchemeSSH:
		if id.Type == config.AuthTypeSSH || id.Type == config.AuthTypeAgent {
			return id.method
		}
	case SchemeHTTP:
		if id.Type == config.AuthTypeToken {
			return id.method
		}
	}
	return nil
}

// Close releases resources held by the identity (the agent connection).
func (id *Identity) Close() error {
	if id == nil {
		return nil
	}
	if c, ok := id.method.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Manager provides a high-level interface for authentication operations.
type Manager struct {
	registry *providers.AuthProviderRegistry
}

// NewManager creates a new authentication manager with the standard providers.
func NewManager() *Manager {
	return NewManagerWithRegistry(providers.NewAuthProviderRegistry())
}

// NewManagerWithRegistry creates a manager backed by a custom registry.
func NewManagerWithRegistry(registry *providers.AuthProviderRegistry) *Manager {
	return &Manager{registry: registry}
}

// Resolve picks the provider for authCfg (resolving AuthTypeAuto against the
// remotes the run will contact) and builds the Identity. Failures are
// auth-category ClassifiedErrors.
func (m *Manager) Resolve(authCfg config.AuthConfig, remotes ...string) (*Identity, error) {
	authCfg.Type = SelectType(authCfg, remotes...)

	result, err := m.registry.CreateAuth(&authCfg)
	if err != nil {
		return nil, ferrors.AuthError("failed to establish transport identity").
			WithCause(err).
			WithContext("auth_type", string(authCfg.Type)).
			Build()
	}

	slog.Debug("Transport identity ready",
		slog.String("auth_type", string(result.Type)),
		slog.String("provider", result.Provider))

	return &Identity{
		Type:     result.Type,
		Provider: result.Provider,
		method:   result.Auth,
	}, nil
}

// SelectType resolves AuthTypeAuto. A key path always means key file auth;
// otherwise SSH remotes use the agent, HTTPS remotes use a token when one is
// configured, and everything else is anonymous.
func SelectType(authCfg config.AuthConfig, remotes ...string) config.AuthType {
	if authCfg.Type != config.AuthTypeAuto && authCfg.Type != "" {
		return authCfg.Type
	}
	if authCfg.KeyPath != "" {
		return config.AuthTypeSSH
	}

	var hasHTTP bool
	for _, remote := range remotes {
		switch SchemeOf(remote) {
		case SchemeSSH:
			return config.AuthTypeAgent
		case SchemeHTTP:
			hasHTTP = true
		}
	}
	if hasHTTP && tokenAvailable() {
		return config.AuthTypeToken
	}
	return config.AuthTypeNone
}
