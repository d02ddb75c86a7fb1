package checks

import (
	"testing"

	"github.com/cs106l/autograder/framework/grader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partNames(g *grader.Grader) []string {
	var ret []string
	for _, p := range g.Parts() {
		ret = append(ret, p.Name)
	}
	return ret
}

func TestRegisterAllChecks(t *testing.T) {
	g := grader.New()
	require.NoError(t, Register(g, Config{}, nil))

	assert.Equal(t,
		[]string{
			grader.SetupPartName,
			"#1 / Public parameterized constructor",
			"#2 / Public parameterless constructor",
			"#3 / Private field",
			"#4 / Private member function",
			"#5 / Public getter function",
			"#6 / Public setter function",
		},
		partNames(g))
	assert.True(t, g.Parts()[0].Special)
}

func TestRegisterSelectionKeepsOrderAndRenames(t *testing.T) {
	g := grader.New()
	require.NoError(t, Register(g, Config{}, []Selection{
		{Check: "setter"},
		{Check: "private-field", Name: "Encapsulation"},
	}))

	assert.Equal(t, []string{grader.SetupPartName, "#6 / Public setter function", "Encapsulation"}, partNames(g))
}

func TestRegisterUnknownCheck(t *testing.T) {
	err := Register(grader.New(), Config{}, []Selection{{Check: "destructor"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown check "destructor"`)
}

func TestRegisterTwiceFailsOnSetupSlot(t *testing.T) {
	g := grader.New()
	require.NoError(t, Register(g, Config{}, nil))
	assert.ErrorIs(t, Register(g, Config{}, nil), grader.ErrSlotAssigned)
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("getter")
	require.True(t, ok)
	assert.Equal(t, "#5 / Public getter function", c.Name)

	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, IDs(), 6)
}
