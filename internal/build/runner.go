package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
)

// ExitNotStarted is reported when the command could not be started at all,
// matching the shell's "command not found" status.
const ExitNotStarted = 127

// maxCapturedOutput bounds the output tail logged or attached to a BuildError.
const maxCapturedOutput = 64 * 1024

// Runner abstracts how the build step is executed so orchestration can be
// tested without spawning processes.
type Runner interface {
	Run(ctx context.Context, dir string) (*Result, error)
}

// Result is what a finished build left behind.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandRunner executes an external command with dir as working directory.
type CommandRunner struct {
	Command []string
	Timeout time.Duration // zero means none
}

// NewCommandRunner creates a runner for argv.
func NewCommandRunner(argv []string, timeout time.Duration) *CommandRunner {
	return &CommandRunner{Command: argv, Timeout: timeout}
}

// ShellCommand wraps a command line so it runs through sh -c.
func ShellCommand(line string) []string {
	return []string{"sh", "-c", line}
}

// Run executes the command. A zero exit status is success whatever the output;
// any other status, a failure to start or an expired deadline returns a
// BuildError carrying exit_code and the captured stderr. The Result is
// returned in both cases.
func (r *CommandRunner) Run(ctx context.Context, dir string) (*Result, error) {
	if len(r.Command) == 0 {
		return nil, ferrors.BuildError("no build command configured").WithContext("path", dir).Build()
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	// #nosec G204 -- the build command is operator configuration
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	display := strings.Join(r.Command, " ")
	slog.Info("Running build", slog.String("command", display), logfields.Path(dir))

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		ExitCode: exitCode(cmd, err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		if res.Stdout != "" {
			slog.Info("build stdout", slog.String("output", tail(res.Stdout)))
		}
		slog.Info("Build succeeded", logfields.Duration(res.Duration))
		return res, nil
	}

	if res.Stderr != "" {
		slog.Warn("build stderr", slog.String("error_output", tail(res.Stderr)))
	}

	msg := fmt.Sprintf("build command %q exited with status %d", display, res.ExitCode)
	switch {
	case ctx.Err() != nil:
		msg = fmt.Sprintf("build command %q did not finish: %v", display, ctx.Err())
	case res.ExitCode == ExitNotStarted && !isExitError(err):
		msg = fmt.Sprintf("build command %q could not be started", display)
	}

	return res, ferrors.BuildError(msg).
		WithCause(err).
		WithContext("op", "build").
		WithContext("path", dir).
		WithContext("exit_code", res.ExitCode).
		WithContext("stderr", tail(res.Stderr)).
		Build()
}

func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return ExitNotStarted
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return ExitNotStarted
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func tail(s string) string {
	if len(s) <= maxCapturedOutput {
		return s
	}
	return "..." + s[len(s)-maxCapturedOutput:]
}
