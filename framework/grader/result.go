package grader

import (
	"fmt"
	"time"
)

// PartStatus is the outcome of one part.
type PartStatus int

const (
	Passed PartStatus = iota
	Failed
	Skipped
)

func (s PartStatus) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("PartStatus(%d)", int(s))
	}
}

// RunState describes where a run is in its lifecycle. Halted and Completed are terminal.
type RunState int

const (
	NotStarted RunState = iota
	Running
	Halted
	Completed
)

func (s RunState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// PartID identifies a part within a run. Names need not be unique, so the position in the
// materialized part list is what distinguishes two parts.
type PartID struct {
	Index int
	Name  string
}

func (id PartID) String() string {
	return id.Name
}

type PartResult struct {
	ID       PartID
	Special  bool
	Status   PartStatus
	Errors   []error
	Duration time.Duration
}

type Results struct {
	Parts    []PartResult
	Failures []PartResult
	State    RunState

	// LogErr is any error returned by the PartLogger at the end of the run.
	LogErr error
}

// OK returns true if no part failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Statuses returns the status of every part that was reached, in order.
func (r Results) Statuses() []PartStatus {
	ret := make([]PartStatus, 0, len(r.Parts))
	for _, p := range r.Parts {
		ret = append(ret, p.Status)
	}
	return ret
}
