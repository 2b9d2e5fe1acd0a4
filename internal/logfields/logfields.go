package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyPath       = "path"
	KeyCommit     = "commit"
	KeyTag        = "tag"
	KeyArtifacts  = "artifacts"
	KeyExitCode   = "exit_code"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr { return slog.String(KeyBranch, b) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Tag(t string) slog.Attr { return slog.String(KeyTag, t) }
func Artifacts(n int) slog.Attr { return slog.Int(KeyArtifacts, n) }
func ExitCode(code int) slog.Attr { return slog.Int(KeyExitCode, code) }
func Outcome(o string) slog.Attr { return slog.String(KeyOutcome, o) }
func Duration(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }

// Commit shortens a full hash to 8 characters.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
