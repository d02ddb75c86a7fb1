// Package checks contains the setup part and the structural checks that grade a student's C++
// class: which constructors it declares, how its fields and member functions are protected, and
// whether it follows the getter/setter naming conventions.
//
// Setup parses the submission once and publishes a *Submission with grader.T.Provide; every check
// reads it back from grader.T.Context.
package checks
