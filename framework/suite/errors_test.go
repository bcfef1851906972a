package suite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/framework/suite/internal"
)

func TestStacktrace(t *testing.T) {
	ctx := context.Background()

	t.Run("without filtering", func(t *testing.T) {
		_ = Run(ctx, Config{}, Case{Name: "a", Action: func(*T) {
			stack := getStacktrace(true, nil)
			require.Len(t, stack, 1)
			assert.Equal(t, currentPackageName(), stack[0].Package)
			assert.Contains(t, stack[0].Function, "TestStacktrace.")
		}})
	})

	t.Run("auto-filtering removes suite functions", func(t *testing.T) {
		_ = Run(ctx, Config{}, Case{Name: "a", Action: func(*T) {
			internal.RunAction(func() {
				stack := getStacktrace(false, nil)
				require.Len(t, stack, 1)
				assert.Equal(t, currentPackageName()+"/internal", stack[0].Package)
				assert.Equal(t, "RunAction", stack[0].Function)
			})
		}})
	})

	t.Run("filter out designated helpers", func(t *testing.T) {
		_ = Run(ctx, Config{}, Case{Name: "a", Action: func(*T) {
			internal.RunAction(func() {
				internal.RunAction2(func() {
					stack := getStacktrace(false, []string{currentPackageName() + "/internal.RunAction2"})
					require.Len(t, stack, 1)
					assert.Equal(t, "RunAction", stack[0].Function)
				})
			})
		}})
	})
}

func TestTransformErrorStripsTestifyTrace(t *testing.T) {
	var rec helpers.TestRecorder
	assert.Equal(&rec, 200, 404, "translation request returned HTTP %d", 404)
	require.Len(t, rec.Errors, 1)
	require.Contains(t, rec.Errors[0], "Error Trace:")

	err := transformError(errors.New(rec.Errors[0]), nil)
	lines := strings.Split(err.Error(), "\n")
	assert.Equal(t, "translation request returned HTTP 404", lines[0])
	assert.NotContains(t, err.Error(), "Error Trace:")
	assert.Contains(t, err.Error(), "expected: 200")
}

func TestTransformErrorWithoutCustomMessage(t *testing.T) {
	var rec helpers.TestRecorder
	assert.True(&rec, false)
	require.Len(t, rec.Errors, 1)

	err := transformError(errors.New(rec.Errors[0]), nil)
	assert.Equal(t, "Should be true", err.Error())
}

func TestTransformErrorLeavesPlainMessagesAlone(t *testing.T) {
	err := transformError(errors.New("plain failure"), nil)
	assert.Equal(t, "plain failure", err.Error())

	stack := []StacktraceInfo{{FileName: "x.go", Package: "p", Function: "f", Line: 3}}
	err = transformError(errors.New("plain failure"), stack)
	var es ErrorWithStacktrace
	require.True(t, errors.As(err, &es))
	assert.Equal(t, stack, es.Stacktrace)
}
