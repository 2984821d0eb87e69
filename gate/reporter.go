package gate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console messages printed by the gate.
const (
	msgAnalysisPassed = "Static analysis passed. Running tests..."
	msgAnalysisFailed = "Static analysis errors detected:"
	msgFixFirst       = "Fix them before running tests."
	msgTestsFailed    = "Tests failed (exit code %d)."
)

// Reporter writes the gate's console output. Banners are colored when the
// destination is a terminal; captured tool output is echoed verbatim.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	success *color.Color
	failure *color.Color
}

// NewReporter creates a Reporter writing regular output to out and the
// remediation hint to errOut. A nil writer discards its output.
func NewReporter(out, errOut io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	success := color.New(color.FgGreen, color.Bold)
	failure := color.New(color.FgRed, color.Bold)
	if !isTerminal(out) {
		success.DisableColor()
		failure.DisableColor()
	}

	return &Reporter{
		out:     out,
		errOut:  errOut,
		success: success,
		failure: failure,
	}
}

func isTerminal(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// AnalysisPassed prints the informational banner shown before tests start.
func (r *Reporter) AnalysisPassed() {
	r.success.Fprintln(r.out, msgAnalysisPassed)
}

// TestOutput echoes the test runner's standard output.
func (r *Reporter) TestOutput(res TestRunResult) {
	writeBlock(r.out, res.Stdout)
}

// AnalysisFailed prints the error banner, the analyzer's captured output and the
// remediation hint.
func (r *Reporter) AnalysisFailed(res AnalysisResult) {
	r.failure.Fprintln(r.out, msgAnalysisFailed)
	// Most linters report violations on stdout; print it too so nothing is lost.
	writeBlock(r.out, res.Stdout)
	writeBlock(r.out, res.Stderr)
	fmt.Fprintln(r.errOut, msgFixFirst)
}

// TestsFailed reports a failing test run in strict mode.
func (r *Reporter) TestsFailed(res TestRunResult) {
	writeBlock(r.out, res.Stderr)
	r.failure.Fprintf(r.errOut, msgTestsFailed+"\n", res.ExitCode)
}

// writeBlock writes text and terminates it with a newline if it lacks one.
func writeBlock(w io.Writer, text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	io.WriteString(w, text)
}
