package grader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cs106l/autograder/framework"

	"github.com/fatih/color"
)

const (
	bannerWidth  = 80
	summaryWidth = 75

	summaryMessage = "🚀🚀🚀 Congratulations, your code passed all the autograder tests! 🚀🚀🚀"
)

var consoleBannerColor = color.New(color.BgCyan, color.FgHiWhite)     //nolint:gochecknoglobals
var consolePassedColor = color.New(color.FgGreen)                     //nolint:gochecknoglobals
var consoleFailedColor = color.New(color.FgRed)                       //nolint:gochecknoglobals
var consoleReasonLabelColor = color.New(color.Bold)                   //nolint:gochecknoglobals
var consoleReasonColor = color.New(color.Faint)                       //nolint:gochecknoglobals
var consoleSkippedColor = color.New(color.Faint, color.FgBlue)        //nolint:gochecknoglobals
var allPartsPassedColor = color.New(color.BgHiGreen, color.FgHiWhite) //nolint:gochecknoglobals

// PartLogger receives the sequence of events of a run.
type PartLogger interface {
	PartStarted(id PartID)
	PartError(id PartID, err error)
	PartFinished(id PartID, result PartResult, output framework.CapturedOutput)
	PartSkipped(id PartID, reason string)

	// RunFinished is called once, after the last part that was reached.
	RunFinished(results Results) error
}

type nullPartLogger struct{}

func (n nullPartLogger) PartStarted(PartID)                                        {}
func (n nullPartLogger) PartError(PartID, error)                                   {}
func (n nullPartLogger) PartFinished(PartID, PartResult, framework.CapturedOutput) {}
func (n nullPartLogger) PartSkipped(PartID, string)                                {}
func (n nullPartLogger) RunFinished(Results) error                                 { return nil }

// ConsoleLogger writes the human-readable grading transcript.
type ConsoleLogger struct {
	// Out is where the transcript goes; nil means standard output.
	Out io.Writer

	// ShowOutputOnFailure and ShowOutputOnSuccess control whether a part's captured output is
	// printed before its result line.
	ShowOutputOnFailure bool
	ShowOutputOnSuccess bool
}

func (c ConsoleLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleLogger) PartStarted(id PartID) {
	header := fmt.Sprintf("%-*s", bannerWidth, fmt.Sprintf("Running test: %s... 🧪", id.Name))
	_, _ = fmt.Fprintln(c.out())
	_, _ = consoleBannerColor.Fprintf(c.out(), "%s\n", header)
}

func (c ConsoleLogger) PartError(PartID, error) {}

func (c ConsoleLogger) PartFinished(id PartID, result PartResult, output framework.CapturedOutput) {
	failed := result.Status == Failed
	if (failed && c.ShowOutputOnFailure) || (!failed && c.ShowOutputOnSuccess) {
		for _, line := range output.Messages() {
			_, _ = fmt.Fprintln(c.out(), line)
		}
	}
	if !failed {
		if !result.Special {
			_, _ = consolePassedColor.Fprintf(c.out(), "✅ %s passed! 🚀\n", id.Name)
		}
		return
	}
	_, _ = consoleFailedColor.Fprintf(c.out(), "❌ %s failed! 😞\n", id.Name)
	for _, err := range result.Errors {
		_, _ = consoleReasonLabelColor.Fprint(c.out(), "Reason: ")
		_, _ = consoleReasonColor.Fprintf(c.out(), "%s\n", err)
	}
}

func (c ConsoleLogger) PartSkipped(id PartID, reason string) {
	if reason == "" {
		_, _ = consoleSkippedColor.Fprintf(c.out(), "⏭  %s skipped\n", id.Name)
	} else {
		_, _ = consoleSkippedColor.Fprintf(c.out(), "⏭  %s skipped (%s)\n", id.Name, reason)
	}
}

func (c ConsoleLogger) RunFinished(results Results) error {
	if results.OK() {
		_, _ = fmt.Fprintln(c.out())
		_, _ = allPartsPassedColor.Fprintf(c.out(), "%-*s\n", summaryWidth, summaryMessage)
	}
	return nil
}

// MultiLogger sends every event to each of its loggers in turn.
type MultiLogger struct {
	Loggers []PartLogger
}

func (m *MultiLogger) PartStarted(id PartID) {
	for _, l := range m.Loggers {
		l.PartStarted(id)
	}
}

func (m *MultiLogger) PartError(id PartID, err error) {
	for _, l := range m.Loggers {
		l.PartError(id, err)
	}
}

func (m *MultiLogger) PartFinished(id PartID, result PartResult, output framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.PartFinished(id, result, output)
	}
}

func (m *MultiLogger) PartSkipped(id PartID, reason string) {
	for _, l := range m.Loggers {
		l.PartSkipped(id, reason)
	}
}

func (m *MultiLogger) RunFinished(results Results) error {
	var errs []error
	for _, l := range m.Loggers {
		if err := l.RunFinished(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PrintFailures writes a short list of the failed parts, for the end of a long transcript.
func PrintFailures(w io.Writer, results Results) {
	if results.OK() {
		return
	}
	_, _ = consoleFailedColor.Fprintf(w, "FAILED PARTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleFailedColor.Fprintf(w, "  * %s\n", f.ID)
	}
}
