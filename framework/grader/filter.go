package grader

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a non-special part should run, based on its name.
type Filter interface {
	Match(name string) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(name string) bool

func (f FilterFunc) Match(name string) bool { return f(name) }

// RegexFilters selects parts whose names match any MustMatch pattern (or all parts, if there are
// none) and do not match any MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    PatternList
	MustNotMatch PatternList
}

func (r RegexFilters) Match(name string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(name)) &&
		!r.MustNotMatch.AnyMatch(name)
}

// Describe prints a summary of the filters, if any are in effect.
func (r RegexFilters) Describe(w io.Writer) {
	if !r.MustMatch.IsDefined() && !r.MustNotMatch.IsDefined() {
		return
	}
	_, _ = fmt.Fprintln(w, "Some parts will be skipped based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any not matching %s\n", r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any matching %s\n", r.MustNotMatch)
	}
	_, _ = fmt.Fprintln(w)
}

type PatternList []*regexp.Regexp

func (l PatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *PatternList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	*l = append(*l, rx)
	return nil
}

func (l PatternList) IsDefined() bool {
	return len(l) != 0
}

func (l PatternList) AnyMatch(name string) bool {
	for _, p := range l {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
