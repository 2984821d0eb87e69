package gate

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("  go   vet ./... ")
	require.NoError(t, err)
	assert.Equal(t, "go", cmd.Name)
	assert.Equal(t, []string{"vet", "./..."}, cmd.Args)
	assert.Equal(t, "go vet ./...", cmd.String())

	_, err = ParseCommand("   ")
	assert.Error(t, err)
}

func TestCommand_CapturesStreamsAndExitCode(t *testing.T) {
	requireShell(t)
	cmd := Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}}

	res, err := cmd.Analyze(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.False(t, res.Clean())
}

func TestCommand_RunsInTargetDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	cmd := Command{Name: "sh", Args: []string{"-c", "touch marker && ls"}}

	res, err := cmd.RunTests(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "marker\n", res.Stdout)
}

func TestCommand_Env(t *testing.T) {
	requireShell(t)
	cmd := Command{Name: "sh", Args: []string{"-c", "printf %s \"$GATE_PROBE\""}, Env: []string{"GATE_PROBE=yes"}}

	res, err := cmd.Exec(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "yes", res.Stdout)
}

func TestCommand_MissingBinaryIsLaunchFailure(t *testing.T) {
	cmd := Command{Name: "definitely-not-a-real-linter-binary"}

	_, err := cmd.Analyze(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunch)
}

func TestCommand_CancelledContext(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Command{Name: "sh", Args: []string{"-c", "sleep 5"}}.Exec(ctx, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_WithRealCommands(t *testing.T) {
	requireShell(t)
	analyzer := Command{Name: "sh", Args: []string{"-c", "echo 'x.go:1: bad' >&2; exit 1"}}
	tests := Command{Name: "sh", Args: []string{"-c", "echo ran > ran.txt"}}
	dir := t.TempDir()

	outcome, err := NewRunner(analyzer, tests, nil, nil, Options{Target: dir}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, "x.go:1: bad\n", outcome.Analysis.Stderr)
	assert.NoFileExists(t, dir+"/ran.txt")
}
