package providers

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/artifactpub/internal/config"
)

// SSHProvider loads exactly one private key file.
type SSHProvider struct{}

// NewSSHProvider creates a new SSH key file authentication provider.
func NewSSHProvider() *SSHProvider {
	return &SSHProvider{}
}

// Type returns the authentication type this provider handles.
func (p *SSHProvider) Type() config.AuthType {
	return config.AuthTypeSSH
}

// CreateAuth loads the key at KeyPath. An encrypted key is only usable when
// ARTIFACTPUB_SSH_KEY_PASSPHRASE is set; there is no interactive prompt.
func (p *SSHProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	passphrase := os.Getenv(config.EnvSSHKeyPassphrase)
	publicKeys, err := gitssh.NewPublicKeysFromFile(sshUser, authCfg.KeyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", authCfg.KeyPath, err)
	}

	helper, err := hostKeyHelper(authCfg)
	if err != nil {
		return nil, err
	}
	publicKeys.HostKeyCallbackHelper = helper
	return publicKeys, nil
}

// ValidateConfig checks that the key file exists and is a regular file.
func (p *SSHProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	if authCfg.KeyPath == "" {
		return fmt.Errorf("SSH key path is required")
	}
	info, err := os.Stat(authCfg.KeyPath)
	if err != nil {
		return fmt.Errorf("SSH key file is not readable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("SSH key path %s is a directory", authCfg.KeyPath)
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *SSHProvider) Name() string {
	return "SSHProvider"
}
