package grader

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regexFilterTestParams struct {
	run         []string
	skip        []string
	name        string
	shouldMatch bool
}

func TestRegexFilters(t *testing.T) {
	allParams := []regexFilterTestParams{
		// matches everything by default
		{nil, nil, "", true},
		{nil, nil, "#1 / Public parameterized constructor", true},

		// -run
		{[]string{"#1"}, nil, "#1 / Public parameterized constructor", true},
		{[]string{"#1"}, nil, "#2 / Public parameterless constructor", false},
		{[]string{"constructor"}, nil, "#2 / Public parameterless constructor", true},
		{[]string{"getter", "setter"}, nil, "#5 / Public getter function", true},
		{[]string{"getter", "setter"}, nil, "#6 / Public setter function", true},
		{[]string{"getter", "setter"}, nil, "#3 / Private field", false},
		{[]string{"^#[12] "}, nil, "#1 / Public parameterized constructor", true},
		{[]string{"^#[12] "}, nil, "#12 / Extra", false},

		// -skip
		{nil, []string{"Private"}, "#3 / Private field", false},
		{nil, []string{"Private"}, "#5 / Public getter function", true},
		{nil, []string{"field", "member"}, "#4 / Private member function", false},

		// -skip overrides -run
		{[]string{"Public"}, []string{"setter"}, "#5 / Public getter function", true},
		{[]string{"Public"}, []string{"setter"}, "#6 / Public setter function", false},
	}
	for _, params := range allParams {
		var r RegexFilters
		for _, s := range params.run {
			require.NoError(t, r.MustMatch.Set(s))
		}
		for _, s := range params.skip {
			require.NoError(t, r.MustNotMatch.Set(s))
		}
		t.Run(fmt.Sprintf("run=%s, skip=%s, name=%s", r.MustMatch, r.MustNotMatch, params.name), func(t *testing.T) {
			assert.Equal(t, params.shouldMatch, r.Match(params.name))
		})
	}
}

func TestPatternListRejectsBadRegex(t *testing.T) {
	var l PatternList
	assert.Error(t, l.Set("("))
	assert.False(t, l.IsDefined())
}

func TestDescribeFilters(t *testing.T) {
	var buf bytes.Buffer
	RegexFilters{}.Describe(&buf)
	assert.Equal(t, "", buf.String())

	var r RegexFilters
	require.NoError(t, r.MustMatch.Set("getter"))
	require.NoError(t, r.MustNotMatch.Set("a"))
	require.NoError(t, r.MustNotMatch.Set("b"))
	r.Describe(&buf)
	assert.Equal(t,
		"Some parts will be skipped based on the filter criteria for this run:\n"+
			"  skip any not matching \"getter\"\n"+
			"  skip any matching \"a\" or \"b\"\n\n",
		buf.String())
}
