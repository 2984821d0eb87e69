package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrLaunch is returned when a tool could not be started at all
// (binary missing, not executable, bad working directory).
var ErrLaunch = errors.New("failed to launch subprocess")

// Analyzer runs a static analysis pass over target.
type Analyzer interface {
	Analyze(ctx context.Context, target string) (AnalysisResult, error)
}

// AnalyzerFunc adapts a plain function to Analyzer.
type AnalyzerFunc func(ctx context.Context, target string) (AnalysisResult, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, target string) (AnalysisResult, error) {
	return f(ctx, target)
}

// TestRunner runs the test suite of target.
type TestRunner interface {
	RunTests(ctx context.Context, target string) (TestRunResult, error)
}

// TestRunnerFunc adapts a plain function to TestRunner.
type TestRunnerFunc func(ctx context.Context, target string) (TestRunResult, error)

// RunTests calls f.
func (f TestRunnerFunc) RunTests(ctx context.Context, target string) (TestRunResult, error) {
	return f(ctx, target)
}

// Command is an external tool invoked with the target as its working directory.
// It satisfies both Analyzer and TestRunner.
type Command struct {
	Name string
	Args []string
	// Env is appended to the current process environment when non-empty.
	Env []string
}

// ParseCommand splits a command line on whitespace. Quoting is not supported.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("empty command")
	}
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Exec runs the command in dir and blocks until it exits, capturing both streams.
// Only a failure to start the process (or a cancelled ctx) is returned as an error.
func (c Command) Exec(ctx context.Context, dir string) (ProcessResult, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ProcessResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%s interrupted: %w", c, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("%w: %s: %v", ErrLaunch, c, err)
}

// Analyze implements Analyzer.
func (c Command) Analyze(ctx context.Context, target string) (AnalysisResult, error) {
	res, err := c.Exec(ctx, target)
	return AnalysisResult(res), err
}

// RunTests implements TestRunner.
func (c Command) RunTests(ctx context.Context, target string) (TestRunResult, error) {
	res, err := c.Exec(ctx, target)
	return TestRunResult(res), err
}
