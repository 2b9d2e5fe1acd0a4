package providers

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh/agent"

	"git.home.luguber.info/inful/artifactpub/internal/config"
)

// AgentAuth is an SSH identity backed by a running ssh-agent. It owns the agent
// connection; Close releases it.
type AgentAuth struct {
	*gitssh.PublicKeysCallback
	conn net.Conn
	keys int
}

// Keys reports how many identities the agent offered.
func (a *AgentAuth) Keys() int { return a.keys }

// Close closes the agent connection.
func (a *AgentAuth) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// AgentProvider delegates signing to the user's ssh-agent.
type AgentProvider struct {
	connect func() (agent.Agent, net.Conn, error)
}

// NewAgentProvider creates a provider that talks to the agent at SSH_AUTH_SOCK.
func NewAgentProvider() *AgentProvider {
	return &AgentProvider{connect: sshagent.New}
}

// Type returns the authentication type this provider handles.
func (p *AgentProvider) Type() config.AuthType {
	return config.AuthTypeAgent
}

// CreateAuth connects to the agent and fails unless it holds at least one key.
func (p *AgentProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	ag, conn, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("ssh-agent is not reachable: %w", err)
	}

	keys, err := ag.List()
	if err != nil {
		closeConn(conn)
		return nil, fmt.Errorf("failed to list ssh-agent keys: %w", err)
	}
	if len(keys) == 0 {
		closeConn(conn)
		return nil, errors.New("ssh-agent holds no keys")
	}

	helper, err := hostKeyHelper(authCfg)
	if err != nil {
		closeConn(conn)
		return nil, err
	}

	return &AgentAuth{
		PublicKeysCallback: &gitssh.PublicKeysCallback{
			User:                  sshUser,
			Callback:              ag.Signers,
			HostKeyCallbackHelper: helper,
		},
		conn: conn,
		keys: len(keys),
	}, nil
}

// ValidateConfig accepts any configuration; reachability is checked in CreateAuth.
func (p *AgentProvider) ValidateConfig(_ *config.AuthConfig) error {
	return nil
}

// Name returns a human-readable name for this provider.
func (p *AgentProvider) Name() string {
	return "AgentProvider"
}

func closeConn(conn net.Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}
