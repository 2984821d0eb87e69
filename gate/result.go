// Package gate implements the lint-then-test quality gate behind the `run` command.
// A static analyzer is run over the project tree first; the test suite only runs
// when the analyzer reports no violations.
package gate

// ProcessResult is what a finished child process leaves behind.
// A non-zero ExitCode is data, not an error.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// AnalysisResult is produced once per analyzer invocation.
type AnalysisResult ProcessResult

// Clean reports whether the analyzer found no violations.
func (a AnalysisResult) Clean() bool {
	return a.ExitCode == 0
}

// TestRunResult is produced only after a clean analysis.
// ExitCode is recorded but only inspected in strict mode.
type TestRunResult ProcessResult

// Status is the outcome class of one gate run.
type Status int

const (
	// StatusFailed means the analyzer reported violations and no tests were run.
	StatusFailed Status = iota
	// StatusPassed means the analyzer was clean and the tests were run.
	StatusPassed
	// StatusTestsFailed means the analyzer was clean but the test runner exited
	// non-zero. Only produced when Options.FailOnTestFailure is set.
	StatusTestsFailed
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusTestsFailed:
		return "tests_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of Runner.Run. Tests is nil when the test runner never ran.
type Outcome struct {
	Status   Status
	Analysis AnalysisResult
	Tests    *TestRunResult
}

// Passed reports whether the gate let the tree through.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// ExitCode maps the outcome to the process exit status of the `run` command.
func (o Outcome) ExitCode() int {
	if o.Passed() {
		return 0
	}
	return 1
}
