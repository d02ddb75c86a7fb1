package grader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var errorTraceInMessageRegex = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

// transformError strips the stacktrace preamble that testify/assert and testify/require add to
// failure messages, since a part's failure reason is shown to students as-is.
func transformError(err error) error {
	message := err.Error()
	if !strings.Contains(message, "Error Trace:") {
		return err
	}
	return errors.New(strings.TrimSpace(errorTraceInMessageRegex.ReplaceAllLiteralString(message, "")))
}

// panicError converts a recovered panic value into the failure reason for a part.
func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
