package grader

import (
	"errors"

	"github.com/cs106l/autograder/framework/opt"
)

const (
	// SetupPartName is the display name of the part registered with SetSetup.
	SetupPartName = "Autograder Setup"

	// TeardownPartName is the display name of the part registered with SetTeardown.
	TeardownPartName = "Autograder Teardown"
)

// ErrSlotAssigned is returned by SetSetup and SetTeardown if the slot already has a function.
var ErrSlotAssigned = errors.New("part slot has already been assigned")

// PartFunc is the body of a part. It passes if it returns without marking t as failed.
type PartFunc func(t *T)

// Predicate adapts a check that reports its outcome as a boolean. Returning false marks the
// part as failed without any failure message.
func Predicate(fn func(t *T) bool) PartFunc {
	return func(t *T) {
		if !fn(t) {
			t.Fail()
		}
	}
}

// Part is one entry in the registry.
type Part struct {
	Name    string
	Func    PartFunc
	Special bool
}

// Grader is the ordered registry of parts. It is built once, before Run; Run never modifies it.
type Grader struct {
	parts    []Part
	setup    opt.Maybe[PartFunc]
	teardown opt.Maybe[PartFunc]
}

// New creates an empty Grader.
func New() *Grader {
	return &Grader{}
}

// AddPart appends a non-special part. Names are for display only and need not be unique.
func (g *Grader) AddPart(name string, fn PartFunc) {
	g.parts = append(g.parts, Part{Name: name, Func: fn})
}

// SetSetup assigns the setup part, which always runs first.
func (g *Grader) SetSetup(fn PartFunc) error {
	if g.setup.IsDefined() {
		return ErrSlotAssigned
	}
	g.setup = opt.Some(fn)
	return nil
}

// SetTeardown assigns the teardown part, which always runs last.
func (g *Grader) SetTeardown(fn PartFunc) error {
	if g.teardown.IsDefined() {
		return ErrSlotAssigned
	}
	g.teardown = opt.Some(fn)
	return nil
}

// Parts returns the parts in execution order: setup, the registered parts, then teardown.
func (g *Grader) Parts() []Part {
	ret := make([]Part, 0, len(g.parts)+2)
	if g.setup.IsDefined() {
		ret = append(ret, Part{Name: SetupPartName, Func: g.setup.Value(), Special: true})
	}
	ret = append(ret, g.parts...)
	if g.teardown.IsDefined() {
		ret = append(ret, Part{Name: TeardownPartName, Func: g.teardown.Value(), Special: true})
	}
	return ret
}
