package git

import (
	"os"
	"strings"
)

// ExpandLocation turns a short "group/project" location into an SSH URL on
// host. Locations that carry a scheme, contain ':' (scp-like or Windows paths)
// or name an existing local path are returned unchanged.
func ExpandLocation(location, host string) string {
	loc := strings.TrimSpace(location)
	if loc == "" || host == "" {
		return loc
	}
	if strings.Contains(loc, "://") || strings.Contains(loc, ":") {
		return loc
	}
	if strings.HasPrefix(loc, "/") || strings.HasPrefix(loc, ".") || strings.HasPrefix(loc, "~") {
		return loc
	}
	if _, err := os.Stat(loc); err == nil {
		return loc
	}
	return "git@" + host + ":" + strings.TrimSuffix(loc, ".git") + ".git"
}
