package service

import (
	"strconv"
	"sync"

	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"

	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Names of the events sent on a run's stream.
const (
	EventPartStarted  = "part-started"
	EventPartError    = "part-error"
	EventPartFinished = "part-finished"
	EventPartSkipped  = "part-skipped"
	EventRunFinished  = "run-finished"
	EventRunError     = "run-error"
)

type runEvent struct {
	id   string
	name string
	data string
}

func (e runEvent) Id() string    { return e.id } //nolint:stylecheck
func (e runEvent) Event() string { return e.name }
func (e runEvent) Data() string  { return e.data }

// run is one grading request. It is the grader.PartLogger for its own grading run, turning every
// notification into a stream event, and the eventsource.Repository that replays those events to
// subscribers.
type run struct {
	id      string
	dir     string
	publish func(eventsource.Event)

	lock   sync.Mutex
	events []runEvent
	report []byte
	err    error
	done   chan struct{}
}

func newRun(id, dir string, publish func(eventsource.Event)) *run {
	return &run{id: id, dir: dir, publish: publish, done: make(chan struct{})}
}

func (r *run) emit(name string, w *jwriter.Writer) {
	data := string(w.Bytes())
	r.lock.Lock()
	e := runEvent{id: strconv.Itoa(len(r.events) + 1), name: name, data: data}
	r.events = append(r.events, e)
	r.lock.Unlock()
	if r.publish != nil {
		r.publish(e)
	}
}

func writePartID(obj *jwriter.ObjectState, id grader.PartID) {
	obj.Name("index").Int(id.Index)
	obj.Name("name").String(id.Name)
}

func (r *run) PartStarted(id grader.PartID) {
	w := jwriter.NewWriter()
	obj := w.Object()
	writePartID(&obj, id)
	obj.End()
	r.emit(EventPartStarted, &w)
}

func (r *run) PartError(id grader.PartID, err error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	writePartID(&obj, id)
	obj.Name("error").String(err.Error())
	obj.End()
	r.emit(EventPartError, &w)
}

func (r *run) PartFinished(id grader.PartID, result grader.PartResult, output framework.CapturedOutput) {
	w := jwriter.NewWriter()
	obj := w.Object()
	writePartID(&obj, id)
	obj.Name("special").Bool(result.Special)
	obj.Name("status").String(result.Status.String())
	errs := obj.Name("errors").Array()
	for _, e := range result.Errors {
		w.String(e.Error())
	}
	errs.End()
	lines := obj.Name("output").Array()
	for _, line := range output.Messages() {
		w.String(line)
	}
	lines.End()
	obj.End()
	r.emit(EventPartFinished, &w)
}

func (r *run) PartSkipped(id grader.PartID, reason string) {
	w := jwriter.NewWriter()
	obj := w.Object()
	writePartID(&obj, id)
	obj.Name("reason").String(reason)
	obj.End()
	r.emit(EventPartSkipped, &w)
}

// RunFinished does nothing; the service calls complete with the same results once the grading
// function returns, which also covers grading functions that fail before running any part.
func (r *run) RunFinished(grader.Results) error { return nil }

func (r *run) complete(results grader.Results) error {
	report, err := grader.JSONReport(results)
	if err != nil {
		r.fail(err)
		return err
	}
	r.lock.Lock()
	r.report = report
	r.lock.Unlock()
	close(r.done)

	w := jwriter.NewWriter()
	w.Raw(report)
	r.emit(EventRunFinished, &w)
	return nil
}

func (r *run) fail(err error) {
	r.lock.Lock()
	r.err = err
	r.lock.Unlock()
	close(r.done)

	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("error").String(err.Error())
	obj.End()
	r.emit(EventRunError, &w)
}

type runResult struct {
	report []byte
	err    error
}

// result returns the outcome of a finished run. It returns false while the run is going.
func (r *run) result() (runResult, bool) {
	select {
	case <-r.done:
	default:
		return runResult{}, false
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return runResult{report: r.report, err: r.err}, true
}

// Replay sends every event recorded so far, or only those after lastEventID if it is set.
// A subscriber that connects while the run is going may see the event that was being published
// at that moment twice; the event IDs are sequential so clients can drop the duplicate.
func (r *run) Replay(channel, lastEventID string) chan eventsource.Event {
	r.lock.Lock()
	events := append([]runEvent(nil), r.events...)
	r.lock.Unlock()

	if n, err := strconv.Atoi(lastEventID); err == nil && n > 0 {
		if n > len(events) {
			n = len(events)
		}
		events = events[n:]
	}
	ch := make(chan eventsource.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}
