package auth

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/artifactpub/internal/config"
)

// Scheme is the transport family of a remote location.
type Scheme string

const (
	SchemeSSH   Scheme = "ssh"
	SchemeHTTP  Scheme = "http"
	SchemeOther Scheme = "other"
)

// SchemeOf classifies a remote. scp-like locations (git@host:path) are SSH;
// local paths, file:// and git:// are SchemeOther.
func SchemeOf(remote string) Scheme {
	ep, err := transport.NewEndpoint(remote)
	if err != nil {
		return SchemeOther
	}
	switch ep.Protocol {
	case "ssh":
		return SchemeSSH
	case "http", "https":
		return SchemeHTTP
	default:
		return SchemeOther
	}
}

func tokenAvailable() bool {
	return os.Getenv(config.EnvGitToken) != ""
}
