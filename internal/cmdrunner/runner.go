package cmdrunner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bestruirui/bestsub-release/internal/logger"
)

// Runner abstracts external tool invocation so services can be tested
// with a recording stub instead of real compilers.
type Runner interface {
	// Run executes a command and returns an error carrying the
	// combined output on failure.
	Run(ctx context.Context, name string, args ...string) error
	// RunEnv behaves like Run with extra environment entries appended
	// to the parent environment.
	RunEnv(ctx context.Context, env []string, name string, args ...string) error
	// Output executes a command and returns its trimmed combined output.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// LookPath resolves an executable in PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands through os/exec. All invocations are
// synchronous and blocking; cancellation comes from the context only.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return r.RunEnv(ctx, nil, name, args...)
}

// RunEnv implements Runner.
func (r *ExecRunner) RunEnv(ctx context.Context, env []string, name string, args ...string) error {
	logger.DebugKV(ctx, "Running command", "command", name, "args", strings.Join(args, " "), "env", strings.Join(env, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return fmt.Errorf("%s failed: %w\n%s", name, err, strings.TrimSpace(string(output)))
	}

	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logger.DebugKV(ctx, "Running command for output", "command", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		return "", fmt.Errorf("%s failed: %w\n%s", name, err, strings.TrimSpace(string(output)))
	}

	return strings.TrimSpace(string(output)), nil
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
