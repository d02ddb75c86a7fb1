// Package grader contains the part registry and runner used by the autograder. It is similar in
// spirit to Go's testing package, but runs as regular application code: an assignment registers
// an ordered list of named parts, and Run executes them one at a time, isolating failures and
// reporting each outcome to a PartLogger.
//
// A setup part, if any, always runs first and a teardown part, if any, always runs last. Both are
// "special": a special part that passes is not reported as a graded item, and a special part that
// fails stops the run, since every later part depends on what it established.
package grader
