package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger records timestamped output so it can be shown later, or not at all. The harness
// uses one per test case and one per child service process.
type CapturingLogger struct {
	output []CapturedMessage
	limit  int
	lock   sync.Mutex
}

// NewCapturingLogger creates a CapturingLogger that keeps at most limit messages, discarding the
// oldest ones first. A limit of zero or less means unlimited.
func NewCapturingLogger(limit int) *CapturingLogger {
	return &CapturingLogger{limit: limit}
}

func (l *CapturingLogger) Println(args ...interface{}) {
	m := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	l.append(CapturedMessage{Time: time.Now(), Message: m})
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.append(CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
}

func (l *CapturingLogger) append(m CapturedMessage) {
	l.lock.Lock()
	l.output = append(l.output, m)
	if l.limit > 0 && len(l.output) > l.limit {
		l.output = append([]CapturedMessage(nil), l.output[len(l.output)-l.limit:]...)
	}
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) ToString(prefix string) string {
	ret := ""
	for _, m := range output {
		if ret != "" {
			ret += "\n"
		}
		ret += fmt.Sprintf("%s[%s] %s",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
	return ret
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}

type multiLogger struct {
	loggers []Logger
}

// MultiLogger returns a Logger that sends every message to all of the given loggers.
func MultiLogger(loggers ...Logger) Logger {
	return multiLogger{loggers}
}

func (m multiLogger) Println(args ...interface{}) {
	for _, l := range m.loggers {
		l.Println(args...)
	}
}

func (m multiLogger) Printf(message string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Printf(message, args...)
	}
}
