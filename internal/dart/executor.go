package dart

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
	"github.com/google/shlex"

	"github.com/kokistudios/dartmcp/internal/ui"
)

// DefaultCommand is the toolchain binary invoked when none is configured.
const DefaultCommand = "dart"

// Result is the captured outcome of one toolchain invocation.
// A non-empty Stderr is the only failure signal.
type Result struct {
	Stdout string
	Stderr string
}

// Failed reports whether the invocation signalled failure.
func (r Result) Failed() bool {
	return r.Stderr != ""
}

// Text returns stdout when present, else stderr.
func (r Result) Text() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Executor spawns the toolchain binary, one process per call.
type Executor struct {
	// Command is the binary plus any leading wrapper words, e.g. ["fvm", "dart"].
	Command []string
}

// NewExecutor parses command with shell word rules ("fvm dart", "'/opt/my sdk/bin/dart'").
// An empty command means DefaultCommand.
func NewExecutor(command string) (*Executor, error) {
	if strings.TrimSpace(command) == "" {
		return &Executor{Command: []string{DefaultCommand}}, nil
	}
	words, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid dart command %q: %w", command, err)
	}
	if len(words) == 0 {
		return &Executor{Command: []string{DefaultCommand}}, nil
	}
	return &Executor{Command: words}, nil
}

func (e *Executor) command() []string {
	if e == nil || len(e.Command) == 0 {
		return []string{DefaultCommand}
	}
	return e.Command
}

// Name is the command line prefix as the user would type it.
func (e *Executor) Name() string {
	return strings.Join(e.command(), " ")
}

// LookPath locates the binary that would be spawned.
func (e *Executor) LookPath() (string, error) {
	return safeexec.LookPath(e.command()[0])
}

// Run invokes `<command> <subcommand> <args...>` in workingDir (or the inherited
// working directory when empty) and waits for it to exit. Every failure is folded
// into the returned Result; Run does not time out or retry.
func (e *Executor) Run(subcommand string, args []string, workingDir string) Result {
	argv := append(append(append([]string{}, e.command()[1:]...), subcommand), args...)
	line := e.Name() + " " + subcommand
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	ui.Debug("executing command", "cmd", line, "dir", workingDir, "args", args)

	bin, err := e.LookPath()
	if err != nil {
		return Result{Stderr: err.Error()}
	}

	cmd := exec.Command(bin, argv...)
	cmd.Dir = workingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if res.Stderr == "" {
			res.Stderr = fmt.Sprintf("Command failed: %s: %v", line, exitErr)
		}
		ui.Debug("command failed", "cmd", line, "exit", exitErr.ExitCode())
		return res
	}

	// Start failures (bad working directory, permission denied) carry no output.
	ui.Debug("command could not start", "cmd", line, "err", runErr)
	return Result{Stderr: runErr.Error()}
}
