// Package framework contains the low-level infrastructure shared by the autograder: the Logger
// abstraction and the capturing logger that collects the output of a single graded part. The
// subpackage grader contains the part registry and runner; opt contains a small optional-value
// type.
//
// The general model is:
//
// 1. An assignment registers an ordered list of named parts, optionally preceded by a setup part
// and followed by a teardown part.
//
// 2. The runner executes the parts one at a time. Each part gets its own test scope, similar to
// Go's testing.T, which accumulates failures and captured output.
//
// 3. Part loggers turn the sequence of part events into a console transcript, a JUnit file, a JSON
// report, or a stream of server-sent events.
//
// The domain-specific code that knows what is being graded is responsible for parsing the
// submission during setup and for the check functions themselves.
package framework
