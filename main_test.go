package main

import (
	"bytes"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}
}

// runCLI runs the app without letting cli.Exit terminate the test binary.
func runCLI(t *testing.T, args ...string) (exitCode int, stdout, stderr string) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")

	var out, errOut bytes.Buffer
	app := newApp(&out, &errOut)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"accounts"}, args...))
	if err != nil {
		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
		exitCode = exitErr.ExitCode()
	}
	return exitCode, out.String(), errOut.String()
}

func TestRunCommand_CleanAnalysisRunsTests(t *testing.T) {
	requireTools(t, "true", "echo")

	code, stdout, _ := runCLI(t, "run", "--target", t.TempDir(), "--analyzer", "true", "--tests", "echo OK (12 tests)")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Static analysis passed. Running tests...\nOK (12 tests)\n", stdout)
}

func TestRunCommand_ViolationsExitOne(t *testing.T) {
	requireTools(t, "false", "echo")

	code, stdout, stderr := runCLI(t, "run", "--target", t.TempDir(), "--analyzer", "false", "--tests", "echo should-not-run")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Static analysis errors detected:")
	assert.NotContains(t, stdout, "should-not-run")
	assert.Contains(t, stderr, "Fix them before running tests.")
}

func TestRunCommand_TestFailureIgnoredUnlessStrict(t *testing.T) {
	requireTools(t, "true", "false")
	dir := t.TempDir()

	code, _, _ := runCLI(t, "run", "--target", dir, "--analyzer", "true", "--tests", "false")
	assert.Equal(t, 0, code)

	code, _, _ = runCLI(t, "run", "--target", dir, "--analyzer", "true", "--tests", "false", "--fail-on-test-failure")
	assert.Equal(t, 1, code)
}

func TestRunCommand_EnvFallback(t *testing.T) {
	requireTools(t, "true", "false")
	t.Setenv("GATE_TARGET", t.TempDir())
	t.Setenv("GATE_ANALYZER_CMD", "true")
	t.Setenv("GATE_TEST_CMD", "false")
	t.Setenv("GATE_FAIL_ON_TEST_FAILURE", "true")

	code, _, _ := runCLI(t, "run")
	assert.Equal(t, 1, code)

	// Flags win over the environment.
	code, _, _ = runCLI(t, "run", "--fail-on-test-failure=false")
	assert.Equal(t, 0, code)
}

func TestRunCommand_MissingAnalyzerIsFatal(t *testing.T) {
	code, stdout, stderr := runCLI(t, "run", "--target", t.TempDir(), "--analyzer", "definitely-not-a-real-linter-binary")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "quality gate could not run")
}

func TestRunCommand_BlankCommandRejected(t *testing.T) {
	code, stdout, _ := runCLI(t, "run", "--analyzer", "   ")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
}

func TestNewLogger_RejectsBadFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := newLogger(&bytes.Buffer{})
	assert.ErrorContains(t, err, "LOG_FORMAT")
}
