package grader

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cs106l/autograder/framework"
)

type environment struct {
	config  TestConfiguration
	context interface{}
}

// T represents the scope of one running part. It is very similar to Go's testing.T, and it
// implements the interfaces expected by testify/assert and testify/require.
type T struct {
	env         *environment
	id          PartID
	special     bool
	debugLogger *framework.CapturingLogger
	failed      bool
	errors      []error
}

// TestConfiguration contains options for the entire run.
type TestConfiguration struct {
	// Filter optionally selects which non-special parts run. Special parts are never filtered.
	Filter Filter

	// Logger receives status information about each part.
	Logger PartLogger

	// DebugLogger, if set, receives a copy of everything parts write to their own output.
	DebugLogger framework.Logger

	// Context is the initial value returned by T.Context. A part, typically setup, can replace it
	// with T.Provide.
	Context interface{}
}

// Run executes every part of the Grader in order and returns the results.
//
// A part that fails does not stop the run unless it is special, in which case no further parts
// are executed. Run never panics because of a part; any panic is recorded as that part's failure.
func Run(config TestConfiguration, g *Grader) Results {
	if config.Logger == nil {
		config.Logger = nullPartLogger{}
	}
	env := &environment{config: config, context: config.Context}

	results := Results{State: Running}
	for i, part := range g.Parts() {
		id := PartID{Index: i, Name: part.Name}
		config.Logger.PartStarted(id)

		if !part.Special && config.Filter != nil && !config.Filter.Match(part.Name) {
			reason := "excluded by filter parameters"
			config.Logger.PartSkipped(id, reason)
			results.Parts = append(results.Parts, PartResult{ID: id, Status: Skipped})
			continue
		}

		t := &T{
			env:         env,
			id:          id,
			special:     part.Special,
			debugLogger: framework.NewCapturingLogger(config.DebugLogger),
		}
		result := t.run(part.Func)
		results.Parts = append(results.Parts, result)
		config.Logger.PartFinished(id, result, t.debugLogger.Output())

		if result.Status == Failed {
			results.Failures = append(results.Failures, result)
			if part.Special {
				results.State = Halted
				break
			}
		}
	}
	if results.State != Halted {
		results.State = Completed
	}

	results.LogErr = config.Logger.RunFinished(results)
	return results
}

func (t *T) run(action PartFunc) (result PartResult) {
	result.ID = t.id
	result.Special = t.special
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if scope, ok := r.(*T); !ok || scope != t {
				t.failed = true
				err := panicError(r)
				t.errors = append(t.errors, err)
				t.env.config.Logger.PartError(t.id, err)
				if t.env.config.DebugLogger != nil {
					t.env.config.DebugLogger.Printf("panic in %q: %s\n%s", t.id, err, debug.Stack())
				}
			}
		}
		result.Duration = time.Since(startTime)
		result.Errors = t.errors
		if t.failed {
			result.Status = Failed
		} else {
			result.Status = Passed
		}
	}()

	if action != nil {
		action(t)
	}
	return result
}

// ID returns the identity of the current part.
func (t *T) ID() PartID {
	return t.id
}

// Errorf reports a failure. It does not stop the part, but adds the message to its failure
// reasons and marks it as failed.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := transformError(fmt.Errorf(format, args...))
	t.errors = append(t.errors, err)
	t.env.config.Logger.PartError(t.id, err)
}

// Fail marks the part as failed without giving a reason.
func (t *T) Fail() {
	t.failed = true
}

// FailNow marks the part as failed and stops it immediately.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Fatalf is equivalent to Errorf followed by FailNow.
func (t *T) Fatalf(format string, args ...interface{}) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Failed returns true if the part has been marked as failed.
func (t *T) Failed() bool {
	return t.failed
}

// Debug writes a message to the output for this part.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger for writing output for this part. The output is passed to
// PartLogger.PartFinished when the part ends.
func (t *T) DebugLogger() framework.Logger {
	return t.debugLogger
}

// Context returns the run-scoped value: either TestConfiguration.Context or whatever an earlier
// part published with Provide.
func (t *T) Context() interface{} {
	return t.env.context
}

// Provide publishes a value that every later part of the same run will see from Context. It is
// meant to be called once, from setup; later parts should treat the value as read-only.
func (t *T) Provide(value interface{}) {
	t.env.context = value
}
