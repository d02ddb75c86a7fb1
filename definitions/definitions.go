// Package definitions finds out-of-class member definitions such as "Student::get_height" in a
// C++ implementation file.
//
// This is a heuristic, not a parser. It removes comments, string literals and anything nested
// inside braces, then collects every Class::member pair that remains at the top level. It is
// good enough to tell whether a declared member has been given a body somewhere in the file, but
// it does not know about namespaces, macros or templates beyond stripping "<...>".
package definitions

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

var (
	commentRegex    = regexp.MustCompile(`(?ms)(".*?"|'.*?')|(/\*.*?\*/|//[^\r\n]*$)`)
	stringRegex     = regexp.MustCompile(`(?s)".*?"`)
	definitionRegex = regexp.MustCompile(`(\w+)(?:<.*>)?::(\w+)`)
)

// Definition names one member defined outside its class body.
type Definition struct {
	Class  string
	Member string
}

func (d Definition) String() string {
	return d.Class + "::" + d.Member
}

// Set is the collection of definitions found in one file.
type Set map[Definition]struct{}

// Has returns true if the file defines member of class.
func (s Set) Has(class, member string) bool {
	_, ok := s[Definition{Class: class, Member: member}]
	return ok
}

// Sorted returns the definitions in lexical order.
func (s Set) Sorted() []Definition {
	keys := make([]string, 0, len(s))
	byKey := make(map[string]Definition, len(s))
	for d := range s {
		keys = append(keys, d.String())
		byKey[d.String()] = d
	}
	slices.Sort(keys)
	ret := make([]Definition, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, byKey[k])
	}
	return ret
}

func (s Set) String() string {
	ss := make([]string, 0, len(s))
	for _, d := range s.Sorted() {
		ss = append(ss, d.String())
	}
	return "[" + strings.Join(ss, ", ") + "]"
}

// Scan reads a source file and returns the definitions in it.
func Scan(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Could not find source file: %s", path) //nolint:stylecheck
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ScanSource(string(data)), nil
}

// ScanSource returns the definitions in C++ source text.
func ScanSource(source string) Set {
	content := commentRegex.ReplaceAllStringFunc(source, func(match string) string {
		if strings.HasPrefix(match, `"`) || strings.HasPrefix(match, `'`) {
			return match
		}
		return ""
	})
	content = stringRegex.ReplaceAllString(content, "")
	content = removeNestedBraces(content)

	set := make(Set)
	for _, m := range definitionRegex.FindAllStringSubmatch(content, -1) {
		set[Definition{Class: m[1], Member: m[2]}] = struct{}{}
	}
	return set
}

// removeNestedBraces drops every brace and everything between matching braces. An unmatched
// closing brace is ignored.
func removeNestedBraces(content string) string {
	var b strings.Builder
	depth := 0
	for _, ch := range content {
		switch {
		case ch == '{':
			depth++
		case ch == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
