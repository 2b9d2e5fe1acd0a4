package config

// AuthType selects the credential source for git transport.
type AuthType string

const (
	AuthTypeAuto  AuthType = "auto"  // ssh key/agent for ssh remotes, none otherwise
	AuthTypeNone  AuthType = "none"  // anonymous or local remotes
	AuthTypeSSH   AuthType = "ssh"   // one private key file
	AuthTypeAgent AuthType = "agent" // keys held by a running ssh-agent
	AuthTypeToken AuthType = "token" // HTTPS token from ARTIFACTPUB_GIT_TOKEN
)

// HostKeyPolicy controls SSH server key verification.
type HostKeyPolicy string

const (
	// HostKeyInsecure accepts any server key (non-interactive, disposable environments).
	HostKeyInsecure HostKeyPolicy = "insecure"
	// HostKeyKnownHosts verifies against a pinned known_hosts set.
	HostKeyKnownHosts HostKeyPolicy = "known_hosts"
)

// AuthConfig represents transport authentication configuration.
type AuthConfig struct {
	Type          AuthType      `yaml:"type,omitempty"`
	KeyPath       string        `yaml:"key_path,omitempty"`
	Host          string        `yaml:"host,omitempty"`
	HostKeyPolicy HostKeyPolicy `yaml:"host_key_policy,omitempty"`
	KnownHosts    []string      `yaml:"known_hosts,omitempty"`
}
