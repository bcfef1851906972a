package suite

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/launchdarkly/eventsource"

	"github.com/linguasigna/integration-harness/framework"
)

const eventStreamChannel = "cases"

// EventStreamLogger publishes case progress as a Server-Sent Events stream, so a dashboard or another
// terminal can follow a run live. Every event is kept, and a client that connects late receives the
// full history of the run before any new events.
type EventStreamLogger struct {
	streams *eventsource.Server
	history []eventsource.Event
	lock    sync.Mutex
}

type caseEvent struct {
	id   string
	name string
	data interface{}
}

type caseEventData struct {
	Name           string  `json:"name"`
	Outcome        Outcome `json:"outcome,omitempty"`
	Message        string  `json:"message,omitempty"`
	DurationMillis int64   `json:"durationMillis,omitempty"`
}

type reportEventData struct {
	RunID  string `json:"runId"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
	OK     bool   `json:"ok"`
}

func NewEventStreamLogger(debugLogger framework.Logger) *EventStreamLogger {
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = debugLogger
	l := &EventStreamLogger{streams: streams}
	streams.Register(eventStreamChannel, l)
	return l
}

func (l *EventStreamLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	l.streams.Handler(eventStreamChannel)(w, r)
}

// Replay is called by the SSE server for each new subscriber.
func (l *EventStreamLogger) Replay(channel, id string) chan eventsource.Event {
	l.lock.Lock()
	history := append([]eventsource.Event(nil), l.history...)
	l.lock.Unlock()

	start := 0
	if lastID, err := strconv.Atoi(id); err == nil && lastID >= 0 && lastID <= len(history) {
		start = lastID
	}
	eventsCh := make(chan eventsource.Event, len(history)-start)
	for _, e := range history[start:] {
		eventsCh <- e
	}
	close(eventsCh)
	return eventsCh
}

func (l *EventStreamLogger) publish(name string, data interface{}) {
	l.lock.Lock()
	e := caseEvent{id: strconv.Itoa(len(l.history) + 1), name: name, data: data}
	l.history = append(l.history, e)
	l.lock.Unlock()
	l.streams.Publish([]string{eventStreamChannel}, e)
}

func (l *EventStreamLogger) CaseStarted(name string) {
	l.publish("started", caseEventData{Name: name})
}

func (l *EventStreamLogger) CaseError(name string, err error) {
	l.publish("error", caseEventData{Name: name, Message: err.Error()})
}

func (l *EventStreamLogger) CaseFinished(result TestResult) {
	l.publish("finished", caseEventData{
		Name:           result.Name,
		Outcome:        result.Outcome,
		Message:        result.Message,
		DurationMillis: result.Duration.Milliseconds(),
	})
}

func (l *EventStreamLogger) CaseExcluded(name string) {
	l.publish("excluded", caseEventData{Name: name})
}

// EndLog publishes the final tally.
func (l *EventStreamLogger) EndLog(report Report) error {
	l.publish("report", reportEventData{
		RunID:  report.RunID,
		Passed: report.PassCount(),
		Total:  report.Total(),
		OK:     report.OK(),
	})
	return nil
}

// Close disconnects all subscribers.
func (l *EventStreamLogger) Close() {
	l.streams.Close()
}

func (e caseEvent) Event() string { return e.name }
func (e caseEvent) Id() string    { return e.id } //nolint:stylecheck
func (e caseEvent) Data() string {
	bytes, _ := json.Marshal(e.data)
	return string(bytes)
}
