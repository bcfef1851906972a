package harness

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/linguasigna/integration-harness/framework"
)

// outputWriter receives a child process's combined stdout and stderr and logs one message per line.
// Lines matching any of the exclude patterns are dropped.
type outputWriter struct {
	logger       framework.Logger
	excludeRegex []*regexp.Regexp
	partial      []byte
	lock         sync.Mutex
}

func newOutputWriter(logger framework.Logger, excludeRegex []*regexp.Regexp) *outputWriter {
	return &outputWriter{logger: logger, excludeRegex: excludeRegex}
}

func (w *outputWriter) Write(data []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.partial = append(w.partial, data...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.partial[:i]))
		w.partial = w.partial[i+1:]
	}
	return len(data), nil
}

// flush logs any final line that was not terminated by a newline.
func (w *outputWriter) flush() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if len(w.partial) > 0 {
		w.emit(string(w.partial))
		w.partial = nil
	}
}

func (w *outputWriter) emit(line string) {
	line = strings.TrimRight(line, "\r")
	for _, r := range w.excludeRegex {
		if r.MatchString(line) {
			return
		}
	}
	w.logger.Printf("%s", line)
}
