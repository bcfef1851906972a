package suite

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotRunMessage is the failure message recorded for cases that were never started because the run
// was interrupted.
const NotRunMessage = "not run: suite interrupted"

// Case is a named test action. Cases that depend on data from earlier cases read it from variables
// their closures share, and use T.RequireDependency to fail cleanly when it is missing.
type Case struct {
	Name   string
	Action func(*T)
}

// Config contains options for a suite run.
type Config struct {
	// Filter is an optional function for determining which cases to run based on their names. Cases
	// it rejects are not registered at all, so they do not appear in the report.
	Filter Filter

	// TestLogger receives status information about each case.
	TestLogger TestLogger
}

// Runner executes test cases sequentially in registration order.
type Runner struct {
	config Config
	cases  []Case
}

func NewRunner(config Config) *Runner {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	return &Runner{config: config}
}

// Add registers cases to be run, in order. Cases that do not pass the filter are reported to the test
// logger as excluded and otherwise ignored.
func (r *Runner) Add(cases ...Case) {
	for _, c := range cases {
		if r.config.Filter != nil && !r.config.Filter(c.Name) {
			r.config.TestLogger.CaseExcluded(c.Name)
			continue
		}
		r.cases = append(r.cases, c)
	}
}

// CaseNames returns the names of all registered cases.
func (r *Runner) CaseNames() []string {
	ret := make([]string, 0, len(r.cases))
	for _, c := range r.cases {
		ret = append(ret, c.Name)
	}
	return ret
}

// Run executes every registered case and returns a report with exactly one result per case. A case
// failure never stops the run. If ctx is cancelled, the cases that have not started yet are recorded
// as failed without being run.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	for _, c := range r.cases {
		if ctx.Err() != nil {
			result := TestResult{Name: c.Name, Outcome: Fail, Message: NotRunMessage, Timestamp: time.Now()}
			r.config.TestLogger.CaseFinished(result)
			report.Results = append(report.Results, result)
			continue
		}
		r.config.TestLogger.CaseStarted(c.Name)
		t := newT(ctx, c.Name, r.config.TestLogger)
		result := t.run(c.Action)
		r.config.TestLogger.CaseFinished(result)
		report.Results = append(report.Results, result)
	}
	report.EndTime = time.Now()
	return report
}

// Run is a shortcut for creating a Runner, adding the cases, and running them.
func Run(ctx context.Context, config Config, cases ...Case) Report {
	r := NewRunner(config)
	r.Add(cases...)
	return r.Run(ctx)
}
