package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/linguasigna/integration-harness/framework"
)

// T represents the scope of one test case. It is very similar to Go's testing.T type, and implements
// the TestingT interfaces of testify's assert and require packages.
type T struct {
	ctx         context.Context
	name        string
	testLogger  TestLogger
	debugLogger framework.CapturingLogger
	notes       []string
	errors      []error
	failed      bool
	cleanups    []func()
	helperFns   []string
}

func newT(ctx context.Context, name string, testLogger TestLogger) *T {
	return &T{ctx: ctx, name: name, testLogger: testLogger}
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.Name = t.name
	result.Timestamp = time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.testLogger.CaseError(t.name, addError)
			}
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.runCleanup(t.cleanups[i])
		}
		result.Duration = time.Since(result.Timestamp)
		result.Errors = t.errors
		result.Output = t.debugLogger.Output()
		if t.failed {
			result.Outcome = Fail
			if len(t.errors) > 0 {
				result.Message = firstLine(t.errors[0].Error())
			}
		} else {
			result.Outcome = Pass
			result.Message = strings.Join(t.notes, "; ")
		}
	}()

	action(t)
	return result
}

// runCleanup calls a function registered with Defer. A panic in it fails the case instead of
// escaping the runner.
func (t *T) runCleanup(cleanupFn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.failed = true
			err := fmt.Errorf("unexpected panic in cleanup: %+v", r)
			if _, ok := r.(*T); ok {
				err = errors.New("test failed during cleanup")
			}
			t.errors = append(t.errors, err)
			t.testLogger.CaseError(t.name, err)
		}
	}()
	cleanupFn()
}

// CaseName returns the name of the current test case.
func (t *T) CaseName() string {
	return t.name
}

// Context returns the context of the suite run. It is cancelled if the run is interrupted, so
// any blocking call made by a test case should use it.
func (t *T) Context() context.Context {
	return t.ctx
}

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the test
// to terminate, but adds the failure message to the output and marks the test as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)

	stacktrace := getStacktrace(false, t.helperFns)
	err = transformError(err, stacktrace)

	t.errors = append(t.errors, err)
	t.testLogger.CaseError(t.name, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Fatalf is a shortcut for Errorf followed by FailNow.
func (t *T) Fatalf(format string, args ...interface{}) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Note records a message describing what a passing test accomplished, such as the ID of an entity
// it created. Notes are shown in the result of a test that passes.
func (t *T) Note(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.notes = append(t.notes, message)
	t.debugLogger.Println(message)
}

// RequireDependency returns the value that an earlier test case stored, or terminates this test as
// failed if that value was never produced.
func (t *T) RequireDependency(name string, value ldvalue.OptionalString) string {
	if !value.IsDefined() {
		t.Fatalf("missing dependency: %s was not produced by an earlier test", name)
	}
	return value.StringValue()
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this test scope. The output is
// included in the TestResult, and the test loggers can choose whether to display it.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason. Unlike a Go defer statement, Defer can be used from within helper
// functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper() itself, 1 is who called it
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.helperFns = append(t.helperFns, f.Name())
}
