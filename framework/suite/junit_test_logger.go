package suite

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/linguasigna/integration-harness/framework/helpers"
)

// JUnitTestLogger collects case results and writes them as a JUnit XML file when EndLog is called.
type JUnitTestLogger struct {
	filePath   string
	suiteName  string
	properties map[string]string
	results    []TestResult // in the order the cases finished
	excluded   []string
	lock       sync.Mutex
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Timestamp  string             `xml:"timestamp,attr,omitempty"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
	SystemOut   string               `xml:"system-out,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitTestLogger creates a JUnitTestLogger. The properties are written into the suite element,
// sorted by name, so that a CI system can show how the run was configured.
func NewJUnitTestLogger(filePath, suiteName string, properties map[string]string) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath:   filePath,
		suiteName:  suiteName,
		properties: properties,
	}
}

func (j *JUnitTestLogger) CaseStarted(string)      {}
func (j *JUnitTestLogger) CaseError(string, error) {}

func (j *JUnitTestLogger) CaseFinished(result TestResult) {
	j.lock.Lock()
	j.results = append(j.results, result)
	j.lock.Unlock()
}

func (j *JUnitTestLogger) CaseExcluded(name string) {
	j.lock.Lock()
	j.excluded = append(j.excluded, name)
	j.lock.Unlock()
}

// EndLog writes the XML file.
func (j *JUnitTestLogger) EndLog(report Report) error {
	bytes, err := j.render(report)
	if err != nil {
		return err
	}
	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) render(report Report) ([]byte, error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	suite := jUnitXMLTestSuite{
		Name:      j.suiteName,
		Timestamp: report.StartTime.UTC().Format(time.RFC3339),
		Time:      jUnitDurationString(report.Duration()),
	}
	suite.Properties = append(suite.Properties, jUnitXMLProperty{Name: "run.id", Value: report.RunID})
	for _, name := range helpers.SortedKeys(j.properties) {
		suite.Properties = append(suite.Properties, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}

	for _, r := range j.results {
		suite.Tests++
		testCase := jUnitXMLTestCase{
			Classname: j.suiteName,
			Name:      r.Name,
			Time:      jUnitDurationString(r.Duration),
		}
		if !r.Passed() {
			suite.Failures++
			testCase.Failure = &jUnitXMLFailure{
				Message:  r.Message,
				Contents: describeErrors(r.Errors),
			}
		}
		if len(r.Output) > 0 {
			testCase.SystemOut = r.Output.ToString("")
		}
		suite.TestCases = append(suite.TestCases, testCase)
	}
	for _, name := range j.excluded {
		suite.Tests++
		suite.Skipped++
		suite.TestCases = append(suite.TestCases, jUnitXMLTestCase{
			Classname:   j.suiteName,
			Name:        name,
			Time:        jUnitDurationString(0),
			SkipMessage: &jUnitXMLSkipMessage{Message: "excluded by filter parameters"},
		})
	}

	doc := jUnitXMLDocument{Suites: []jUnitXMLTestSuite{suite}}
	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(bytes, '\n'), nil
}

func describeErrors(errs []error) string {
	var messages []string
	for _, e := range errs {
		message := e.Error()
		if es, ok := e.(ErrorWithStacktrace); ok {
			message += "\n  Stacktrace:"
			for _, s := range es.Stacktrace {
				message += "\n    " + s.String()
			}
		}
		messages = append(messages, message)
	}
	return strings.Join(messages, "\n")
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
