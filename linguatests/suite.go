package linguatests

import (
	"context"
	"net/http"
	"time"

	"github.com/linguasigna/integration-harness/framework/harness"
	"github.com/linguasigna/integration-harness/framework/suite"
	"github.com/linguasigna/integration-harness/servicedef"
)

// DefaultRequestTimeout bounds each request a test case makes.
const DefaultRequestTimeout = time.Second * 10

// SuiteParams configures a test run.
type SuiteParams struct {
	// Language is the sign language the recognition case asks for. It is sent as is, so an
	// unsupported value can be used to check the recognition service's error handling. The default
	// is "asl".
	Language string

	// Extended adds the room join and session listing cases after the standard ones.
	Extended bool

	Filter     suite.Filter
	TestLogger suite.TestLogger

	// HTTPClient is used for all requests. The default has a timeout of DefaultRequestTimeout.
	HTTPClient *http.Client
}

// CaseNames returns the names of the cases that a run with these parameters would include, before
// filtering.
func CaseNames(extended bool) []string {
	var s testSuite
	cases := s.cases(extended)
	ret := make([]string, 0, len(cases))
	for _, c := range cases {
		ret = append(ret, c.Name)
	}
	return ret
}

// NewSuite creates the runner for one test run against the given endpoints. Each call gets its own
// scratch state, so runners are never shared between runs.
func NewSuite(endpoints harness.Endpoints, params SuiteParams) *suite.Runner {
	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	language := servicedef.Language(params.Language)
	if language == "" {
		language = servicedef.LanguageASL
	}

	s := &testSuite{
		backend:     serviceClient{name: servicedef.RoleBackend, baseURL: endpoints[servicedef.RoleBackend], client: client},
		recognition: serviceClient{name: servicedef.RoleRecognition, baseURL: endpoints[servicedef.RoleRecognition], client: client},
		language:    language,
	}

	runner := suite.NewRunner(suite.Config{Filter: params.Filter, TestLogger: params.TestLogger})
	runner.Add(s.cases(params.Extended)...)
	return runner
}

// RunSuite runs the test cases against the given endpoints and returns the report.
func RunSuite(ctx context.Context, endpoints harness.Endpoints, params SuiteParams) suite.Report {
	return NewSuite(endpoints, params).Run(ctx)
}

// SuiteFunc adapts RunSuite for harness.Harness.Run.
func SuiteFunc(params SuiteParams) harness.SuiteFunc {
	return func(ctx context.Context, endpoints harness.Endpoints) suite.Report {
		return RunSuite(ctx, endpoints, params)
	}
}
