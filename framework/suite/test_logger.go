package suite

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/linguasigna/integration-harness/framework/helpers"
)

var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives status information about each case as the suite runs.
type TestLogger interface {
	CaseStarted(name string)
	CaseError(name string, err error)
	CaseFinished(result TestResult)
	CaseExcluded(name string)
}

type nullTestLogger struct{}

func (n nullTestLogger) CaseStarted(string)      {}
func (n nullTestLogger) CaseError(string, error) {}
func (n nullTestLogger) CaseFinished(TestResult) {}
func (n nullTestLogger) CaseExcluded(string)     {}

type multiTestLogger []TestLogger

// MultiTestLogger returns a TestLogger that forwards everything to all of the given loggers.
func MultiTestLogger(loggers ...TestLogger) TestLogger {
	return multiTestLogger(loggers)
}

func (m multiTestLogger) CaseStarted(name string) {
	for _, l := range m {
		l.CaseStarted(name)
	}
}

func (m multiTestLogger) CaseError(name string, err error) {
	for _, l := range m {
		l.CaseError(name, err)
	}
}

func (m multiTestLogger) CaseFinished(result TestResult) {
	for _, l := range m {
		l.CaseFinished(result)
	}
}

func (m multiTestLogger) CaseExcluded(name string) {
	for _, l := range m {
		l.CaseExcluded(name)
	}
}

// ConsoleTestLogger writes progress to an output stream, normally stdout.
type ConsoleTestLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) CaseStarted(name string) {
	_, _ = fmt.Fprintf(c.Out, "[%s]\n", name)
}

func (c ConsoleTestLogger) CaseError(name string, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Fprintf(c.Out, "  %s\n", line)
	}
}

func (c ConsoleTestLogger) CaseFinished(result TestResult) {
	if result.Message == NotRunMessage && len(result.Errors) == 0 {
		_, _ = consoleTestSkippedColor.Fprintf(c.Out, "  NOT RUN: %s\n", result.Name)
		return
	}
	if result.Passed() {
		if result.Message == "" {
			_, _ = allTestsPassedColor.Fprintf(c.Out, "  PASSED\n")
		} else {
			_, _ = allTestsPassedColor.Fprintf(c.Out, "  PASSED: %s\n", result.Message)
		}
	} else {
		_, _ = consoleTestFailedColor.Fprintf(c.Out, "  FAILED: %s\n", result.Name)
	}
	failed := !result.Passed()
	if len(result.Output) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(c.Out, result.Output.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) CaseExcluded(name string) {
	_, _ = consoleTestSkippedColor.Fprintf(c.Out, "  SKIPPED: %s (excluded by filter parameters)\n", name)
}

// PrintReport writes the final tally and a one-line reason for each failed case.
func PrintReport(w io.Writer, report Report) {
	helpers.MustFprintln(w)
	tallyColor := helpers.IfElse(report.OK(), allTestsPassedColor, consoleTestFailedColor)
	_, _ = tallyColor.Fprintf(w, "INTEGRATION TEST RESULTS: %d/%d PASSED\n", report.PassCount(), report.Total())
	for _, r := range report.Results {
		if r.Passed() {
			helpers.MustFprintf(w, "  PASS  %s\n", r.Name)
		} else {
			_, _ = consoleTestFailedColor.Fprintf(w, "  FAIL  %s: %s\n", r.Name, r.Message)
		}
	}
	if report.OK() {
		_, _ = allTestsPassedColor.Fprintln(w, "All tests passed")
	} else {
		_, _ = consoleTestFailedColor.Fprintf(w, "FAILED TESTS (%d)\n", len(report.Failures()))
	}
}

// PrintFilterDescription tells the user which cases were excluded by command-line filters.
func PrintFilterDescription(w io.Writer, filters RegexFilters) {
	if !filters.IsDefined() {
		return
	}
	helpers.MustFprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		helpers.MustFprintf(w, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		helpers.MustFprintf(w, "  skip any matching %s\n", filters.MustNotMatch)
	}
	helpers.MustFprintln(w)
}
