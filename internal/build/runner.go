package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Default commands.
const (
	DefaultInstallCommand = "pnpm install"
	DefaultBuildCommand   = "pnpm build"
)

// tailLines of output are kept for failure messages.
const tailLines = 20

const waitDelay = time.Second

// Runner executes shell commands inside an application directory.
type Runner struct {
	log   logr.Logger
	shell string
	env   []string
	out   io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger command output is streamed to.
func WithLogger(log logr.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithShell overrides the shell used to interpret commands.
func WithShell(shell string) Option {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) { r.env = append(r.env, env...) }
}

// WithOutput additionally copies raw command output to w.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{log: logr.Discard(), shell: "sh"}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithName("build")
	return r
}

// Install runs the dependency install command in dir.
func (r *Runner) Install(ctx context.Context, dir, command string) error {
	if command == "" {
		command = DefaultInstallCommand
	}
	return r.Run(ctx, dir, command)
}

// Build runs the build command in dir and returns the detected output
// directory.
func (r *Runner) Build(ctx context.Context, dir, command string) (string, error) {
	if command == "" {
		command = DefaultBuildCommand
	}
	if err := r.Run(ctx, dir, command); err != nil {
		return "", err
	}
	return OutputDir(dir)
}

// Run executes command through the shell with dir as working directory.
// Each output line is logged as it arrives. A failure carries the exit code
// and the last lines of output.
func (r *Runner) Run(ctx context.Context, dir, command string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access app directory: %w", err)
	}
	if !info.IsDir() {
		return errdefs.Newf(errdefs.KindValidation, "build", "%s is not a directory", dir)
	}

	r.log.Info("running command", "command", command, "dir", dir)

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = dir
	// Children of the shell may hold the output pipes after it is killed.
	cmd.WaitDelay = waitDelay
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	tail := &tailWriter{log: r.log, max: tailLines}
	var w io.Writer = tail
	if r.out != nil {
		w = io.MultiWriter(tail, r.out)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	err = cmd.Run()
	tail.Flush()
	if err == nil {
		r.log.Info("command finished", "command", command)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("command %q interrupted: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{Command: command, ExitCode: exitErr.ExitCode(), Output: tail.String()}
	}
	return fmt.Errorf("failed to run %q: %w", command, err)
}

// CommandError reports a command that exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	// Output holds the last lines the command printed.
	Output string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Command, e.ExitCode)
	if e.Output != "" {
		msg += ":\n" + e.Output
	}
	return msg
}

// tailWriter logs complete lines and remembers the most recent ones.
type tailWriter struct {
	mu      sync.Mutex
	log     logr.Logger
	max     int
	partial []byte
	lines   []string
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		t.add(string(t.partial[:i]))
		t.partial = t.partial[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line without newline.
func (t *tailWriter) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.partial) > 0 {
		t.add(string(t.partial))
		t.partial = nil
	}
}

func (t *tailWriter) add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	t.log.V(1).Info(line)
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

// OutputDir returns the detected build output directory of dir.
func (r *Runner) OutputDir(dir string) (string, error) {
	return OutputDir(dir)
}
