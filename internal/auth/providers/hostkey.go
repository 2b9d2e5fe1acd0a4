package providers

import (
	"fmt"

	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	"git.home.luguber.info/inful/artifactpub/internal/config"
)

// sshUser is the account every supported forge expects for git over SSH.
const sshUser = "git"

// hostKeyHelper builds the server key verification for SSH identities.
func hostKeyHelper(authCfg *config.AuthConfig) (gitssh.HostKeyCallbackHelper, error) {
	switch authCfg.HostKeyPolicy {
	case config.HostKeyKnownHosts:
		if len(authCfg.KnownHosts) == 0 {
			return gitssh.HostKeyCallbackHelper{}, fmt.Errorf("known_hosts policy requires at least one file")
		}
		cb, err := gitssh.NewKnownHostsCallback(authCfg.KnownHosts...)
		if err != nil {
			return gitssh.HostKeyCallbackHelper{}, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		return gitssh.HostKeyCallbackHelper{HostKeyCallback: cb}, nil
	case config.HostKeyInsecure, "":
		return gitssh.HostKeyCallbackHelper{HostKeyCallback: ssh.InsecureIgnoreHostKey()}, nil //nolint:gosec // opt-in policy for disposable build hosts
	default:
		return gitssh.HostKeyCallbackHelper{}, fmt.Errorf("unknown host key policy %q", authCfg.HostKeyPolicy)
	}
}
