package reportstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/linguasigna/integration-harness/framework/harness"
	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/framework/suite"
)

// RunRecord is the stored summary of one harness run.
type RunRecord struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Success   bool

	// Error is the message of the error that stopped the run before or instead of the suite, if any.
	Error string

	NotReady      []string
	Results       []suite.TestResult
	ServiceStates map[string]string
}

// NewRunRecord summarizes a harness outcome. If the suite never ran, the record gets a new run ID and
// the current time.
func NewRunRecord(outcome harness.Outcome) RunRecord {
	r := RunRecord{
		Success:  outcome.Success,
		NotReady: helpers.CopyOf(outcome.NotReady),
	}
	if outcome.Err != nil {
		r.Error = outcome.Err.Error()
	}
	if outcome.Report != nil {
		r.RunID = outcome.Report.RunID
		r.StartTime = outcome.Report.StartTime
		r.EndTime = outcome.Report.EndTime
		r.Results = outcome.Report.Results
	} else {
		r.RunID = uuid.NewString()
		r.StartTime = time.Now()
		r.EndTime = r.StartTime
	}
	if len(outcome.FinalStates) != 0 {
		r.ServiceStates = make(map[string]string, len(outcome.FinalStates))
		for name, state := range outcome.FinalStates {
			r.ServiceStates[name] = state.String()
		}
	}
	return r
}

func (r RunRecord) PassCount() int {
	n := 0
	for _, result := range r.Results {
		if result.Passed() {
			n++
		}
	}
	return n
}

func (r RunRecord) Total() int { return len(r.Results) }

func (r RunRecord) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	r.WriteToJSONWriter(&w)
	return w.Bytes(), w.Error()
}

// WriteToJSONWriter writes the record as a JSON object. Keys of maps are written in sorted order so
// the output is stable.
func (r RunRecord) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("runId").String(r.RunID)
	obj.Name("startTime").String(r.StartTime.UTC().Format(time.RFC3339Nano))
	obj.Name("endTime").String(r.EndTime.UTC().Format(time.RFC3339Nano))
	obj.Name("durationMillis").Int(int(r.EndTime.Sub(r.StartTime).Milliseconds()))
	obj.Name("success").Bool(r.Success)
	obj.Maybe("error", r.Error != "").String(r.Error)
	if len(r.NotReady) != 0 {
		arr := obj.Name("notReady").Array()
		for _, name := range r.NotReady {
			w.String(name)
		}
		arr.End()
	}
	obj.Name("passed").Int(r.PassCount())
	obj.Name("total").Int(r.Total())

	results := obj.Name("results").Array()
	for _, result := range r.Results {
		writeResult(w, result)
	}
	results.End()

	if len(r.ServiceStates) != 0 {
		services := obj.Name("services").Object()
		for _, name := range helpers.SortedKeys(r.ServiceStates) {
			services.Name(name).String(r.ServiceStates[name])
		}
		services.End()
	}
	obj.End()
}

func writeResult(w *jwriter.Writer, result suite.TestResult) {
	obj := w.Object()
	obj.Name("name").String(result.Name)
	obj.Name("outcome").String(string(result.Outcome))
	obj.Maybe("message", result.Message != "").String(result.Message)
	obj.Name("timestamp").String(result.Timestamp.UTC().Format(time.RFC3339Nano))
	obj.Name("durationMillis").Int(int(result.Duration.Milliseconds()))
	obj.End()
}
