package gate

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTools records every invocation in order so tests can check sequencing.
type fakeTools struct {
	analysis    AnalysisResult
	analysisErr error
	tests       TestRunResult
	testsErr    error
	calls       []string
	targets     []string
}

func (f *fakeTools) Analyze(_ context.Context, target string) (AnalysisResult, error) {
	f.calls = append(f.calls, "analyze")
	f.targets = append(f.targets, target)
	return f.analysis, f.analysisErr
}

func (f *fakeTools) RunTests(_ context.Context, target string) (TestRunResult, error) {
	f.calls = append(f.calls, "tests")
	f.targets = append(f.targets, target)
	return f.tests, f.testsErr
}

func (f *fakeTools) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func newTestRunner(tools *fakeTools, opts Options) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRunner(tools, tools, NewReporter(&out, &errOut), nil, opts), &out, &errOut
}

func TestRun_CleanAnalysisRunsTestsOnce(t *testing.T) {
	tools := &fakeTools{
		analysis: AnalysisResult{ExitCode: 0, Stdout: "All checks passed"},
		tests:    TestRunResult{Stdout: "OK (12 tests)"},
	}
	r, out, errOut := newTestRunner(tools, Options{})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, outcome.Status)
	assert.True(t, outcome.Passed())
	assert.Equal(t, 0, outcome.ExitCode())
	require.NotNil(t, outcome.Tests)
	assert.Equal(t, "OK (12 tests)", outcome.Tests.Stdout)

	assert.Equal(t, []string{"analyze", "tests"}, tools.calls)
	assert.Equal(t, "Static analysis passed. Running tests...\nOK (12 tests)\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRun_ViolationsSkipTests(t *testing.T) {
	tools := &fakeTools{
		analysis: AnalysisResult{ExitCode: 1, Stderr: "./app.py:10: unused import"},
		tests:    TestRunResult{Stdout: "should never be printed"},
	}
	r, out, errOut := newTestRunner(tools, Options{})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Nil(t, outcome.Tests)
	assert.Equal(t, 0, tools.count("tests"))

	assert.Equal(t, "Static analysis errors detected:\n./app.py:10: unused import\n", out.String())
	assert.Equal(t, "Fix them before running tests.\n", errOut.String())
}

func TestRun_ViolationsOnStdoutAreEchoed(t *testing.T) {
	tools := &fakeTools{
		analysis: AnalysisResult{ExitCode: 3, Stdout: "main.go:4:2: unreachable code"},
	}
	r, out, _ := newTestRunner(tools, Options{})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, out.String(), "main.go:4:2: unreachable code")
}

func TestRun_ViolationsOutputOrder(t *testing.T) {
	tools := &fakeTools{
		analysis: AnalysisResult{
			ExitCode: 1,
			Stdout:   "Found 2 errors.",
			Stderr:   "./app.py:10: unused import\n./app.py:12: undefined name\n",
		},
	}
	r, out, errOut := newTestRunner(tools, Options{})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"Static analysis errors detected:\n"+
			"Found 2 errors.\n"+
			"./app.py:10: unused import\n./app.py:12: undefined name\n",
		out.String())
	assert.Equal(t, "Fix them before running tests.\n", errOut.String())
	assert.Zero(t, tools.count("tests"))
}

func TestRun_AnyNonZeroExitFails(t *testing.T) {
	for _, code := range []int{1, 2, 127, -1} {
		tools := &fakeTools{analysis: AnalysisResult{ExitCode: code}}
		r, _, _ := newTestRunner(tools, Options{})

		outcome, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.ExitCode(), "analyzer exit code %d", code)
		assert.Equal(t, 0, tools.count("tests"), "analyzer exit code %d", code)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	for _, analysis := range []AnalysisResult{{ExitCode: 0}, {ExitCode: 1, Stderr: "E501"}} {
		tools := &fakeTools{analysis: analysis}
		r, _, _ := newTestRunner(tools, Options{})

		first, err := r.Run(context.Background())
		require.NoError(t, err)
		second, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
	}
}

func TestRun_PassesTargetToBothTools(t *testing.T) {
	tools := &fakeTools{}
	r, _, _ := newTestRunner(tools, Options{Target: "/srv/project"})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/project", "/srv/project"}, tools.targets)
}

func TestRun_DefaultTarget(t *testing.T) {
	tools := &fakeTools{analysis: AnalysisResult{ExitCode: 1}}
	r, _, _ := newTestRunner(tools, Options{})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultTarget}, tools.targets)
}

func TestRun_TestFailureIgnoredByDefault(t *testing.T) {
	tools := &fakeTools{tests: TestRunResult{ExitCode: 1, Stdout: "FAILED (failures=2)"}}
	r, out, errOut := newTestRunner(tools, Options{})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, outcome.Status)
	assert.Equal(t, 0, outcome.ExitCode())
	assert.Contains(t, out.String(), "FAILED (failures=2)")
	assert.Empty(t, errOut.String())
}

func TestRun_StrictModeFailsOnTestFailure(t *testing.T) {
	tools := &fakeTools{tests: TestRunResult{ExitCode: 2, Stdout: "FAILED", Stderr: "panic: boom"}}
	r, out, errOut := newTestRunner(tools, Options{FailOnTestFailure: true})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusTestsFailed, outcome.Status)
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Contains(t, out.String(), "panic: boom")
	assert.Equal(t, "Tests failed (exit code 2).\n", errOut.String())
}

func TestRun_StrictModePassesCleanTests(t *testing.T) {
	tools := &fakeTools{tests: TestRunResult{Stdout: "ok"}}
	r, _, _ := newTestRunner(tools, Options{FailOnTestFailure: true})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, outcome.Status)
}

func TestRun_AnalyzerLaunchFailure(t *testing.T) {
	tools := &fakeTools{analysisErr: ErrLaunch}
	r, out, _ := newTestRunner(tools, Options{})

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLaunch))
	assert.Equal(t, 0, tools.count("tests"))
	assert.Empty(t, out.String())
}

func TestRun_TestRunnerLaunchFailure(t *testing.T) {
	tools := &fakeTools{testsErr: ErrLaunch}
	r, _, _ := newTestRunner(tools, Options{})

	outcome, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunch)
	assert.Equal(t, 1, outcome.ExitCode())
}

func TestRun_FuncAdapters(t *testing.T) {
	var order []string
	analyzer := AnalyzerFunc(func(context.Context, string) (AnalysisResult, error) {
		order = append(order, "analyze")
		return AnalysisResult{}, nil
	})
	tests := TestRunnerFunc(func(context.Context, string) (TestRunResult, error) {
		order = append(order, "tests")
		return TestRunResult{}, nil
	})

	outcome, err := NewRunner(analyzer, tests, nil, nil, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Passed())
	assert.Equal(t, []string{"analyze", "tests"}, order)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "passed", StatusPassed.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "tests_failed", StatusTestsFailed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
