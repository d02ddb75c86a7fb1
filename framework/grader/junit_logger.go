package grader

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cs106l/autograder/framework"
	o "github.com/cs106l/autograder/framework/opt"
)

// JUnitLogger writes the results of a run as a JUnit XML file when the run finishes.
type JUnitLogger struct {
	filePath  string
	suiteName string
	filters   RegexFilters
	parts     []jUnitPartStatus // indexed by PartID.Index
	lock      sync.Mutex
}

type jUnitPartStatus struct {
	id        PartID
	failures  []error
	skipped   o.Maybe[string]
	output    string
	startTime time.Time
	duration  time.Duration
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
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
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

func NewJUnitLogger(filePath, suiteName string, filters RegexFilters) *JUnitLogger {
	return &JUnitLogger{
		filePath:  filePath,
		suiteName: suiteName,
		filters:   filters,
	}
}

func (j *JUnitLogger) status(id PartID) *jUnitPartStatus {
	for len(j.parts) <= id.Index {
		j.parts = append(j.parts, jUnitPartStatus{})
	}
	return &j.parts[id.Index]
}

func (j *JUnitLogger) PartStarted(id PartID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	*j.status(id) = jUnitPartStatus{id: id, startTime: time.Now()}
}

func (j *JUnitLogger) PartError(id PartID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	s := j.status(id)
	s.failures = append(s.failures, err)
}

func (j *JUnitLogger) PartFinished(id PartID, result PartResult, output framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	s := j.status(id)
	s.output = output.ToString("")
	s.duration = time.Since(s.startTime)
	if result.Status == Failed && len(s.failures) == 0 {
		// failed without a reason, or through a path that bypassed PartError
		s.failures = append(s.failures, result.Errors...)
		if len(s.failures) == 0 {
			s.failures = append(s.failures, fmt.Errorf("%s failed", id.Name))
		}
	}
}

func (j *JUnitLogger) PartSkipped(id PartID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.status(id).skipped = o.Some(reason)
}

func (j *JUnitLogger) RunFinished(results Results) error {
	j.lock.Lock()
	doc := j.document()
	j.lock.Unlock()

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitLogger) document() jUnitXMLDocument {
	suite := jUnitXMLTestSuite{
		Name: fmt.Sprintf("Autograder: %s", j.suiteName),
		Properties: []jUnitXMLProperty{
			{Name: "parts.filter.mustMatch", Value: j.filters.MustMatch.String()},
			{Name: "parts.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
		},
	}
	total := time.Duration(0)
	for _, status := range j.parts {
		if status.startTime.IsZero() {
			continue // never reached, because the run halted
		}
		suite.Tests++
		total += status.duration
		testCase := jUnitXMLTestCase{
			Classname: j.suiteName,
			Name:      status.id.Name,
			Time:      jUnitDurationString(status.duration),
		}
		if status.skipped.IsDefined() {
			testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipped.Value()}
		}
		if len(status.failures) != 0 {
			suite.Failures++
			messages := make([]string, 0, len(status.failures))
			for _, e := range status.failures {
				messages = append(messages, e.Error())
			}
			testCase.Failure = &jUnitXMLFailure{
				Message:  strings.Join(messages, "\n"),
				Contents: status.output,
			}
		}
		suite.TestCases = append(suite.TestCases, testCase)
	}
	suite.Time = jUnitDurationString(total)
	return jUnitXMLDocument{Suites: []jUnitXMLTestSuite{suite}}
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
