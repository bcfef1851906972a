package suite

import (
	"strings"
	"time"

	"github.com/linguasigna/integration-harness/framework"
)

// Outcome is the result of a single test case.
type Outcome string

const (
	Pass Outcome = "pass"
	Fail Outcome = "fail"
)

// TestResult is the immutable record of one executed test case.
type TestResult struct {
	Name      string
	Outcome   Outcome
	Message   string
	Errors    []error
	Timestamp time.Time
	Duration  time.Duration
	Output    framework.CapturedOutput
}

func (r TestResult) Passed() bool { return r.Outcome == Pass }

// Report is the aggregate result of a suite run. Results are in execution order.
type Report struct {
	RunID     string
	Results   []TestResult
	StartTime time.Time
	EndTime   time.Time
}

func (r Report) Total() int { return len(r.Results) }

func (r Report) PassCount() int {
	n := 0
	for _, result := range r.Results {
		if result.Passed() {
			n++
		}
	}
	return n
}

// OK is true if no case failed. A report with no cases is OK.
func (r Report) OK() bool {
	return r.PassCount() == r.Total()
}

func (r Report) Failures() []TestResult {
	var ret []TestResult
	for _, result := range r.Results {
		if !result.Passed() {
			ret = append(ret, result)
		}
	}
	return ret
}

func (r Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// firstLine returns the first non-blank line of an error message.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
