package checks

import (
	"fmt"
	"strings"

	"github.com/cs106l/autograder/framework/grader"

	"golang.org/x/exp/slices"
)

// Check is a gradable part that can be selected by ID from an assignment manifest.
type Check struct {
	ID   string
	Name string
	Func grader.PartFunc
}

// All returns every check in its default order, with its default display name.
func All() []Check {
	return []Check{
		{ID: "parameterized-constructor", Name: "#1 / Public parameterized constructor", Func: ParameterizedConstructor},
		{ID: "parameterless-constructor", Name: "#2 / Public parameterless constructor", Func: ParameterlessConstructor},
		{ID: "private-field", Name: "#3 / Private field", Func: PrivateField},
		{ID: "private-member-function", Name: "#4 / Private member function", Func: PrivateMemberFunction},
		{ID: "getter", Name: "#5 / Public getter function", Func: Getter},
		{ID: "setter", Name: "#6 / Public setter function", Func: Setter},
	}
}

// Lookup finds a check by ID.
func Lookup(id string) (Check, bool) {
	all := All()
	i := slices.IndexFunc(all, func(c Check) bool { return c.ID == id })
	if i < 0 {
		return Check{}, false
	}
	return all[i], true
}

// Selection picks one check for a run. An empty Name keeps the check's default name.
type Selection struct {
	Check string
	Name  string
}

// Register adds the setup part and the selected checks to g, in the order given. If selections
// is empty every check is registered.
func Register(g *grader.Grader, config Config, selections []Selection) error {
	if err := g.SetSetup(Setup(config)); err != nil {
		return err
	}

	if len(selections) == 0 {
		for _, c := range All() {
			g.AddPart(c.Name, c.Func)
		}
		return nil
	}

	for _, sel := range selections {
		c, ok := Lookup(sel.Check)
		if !ok {
			return fmt.Errorf("unknown check %q (expected one of: %s)", sel.Check, strings.Join(IDs(), ", "))
		}
		name := c.Name
		if sel.Name != "" {
			name = sel.Name
		}
		g.AddPart(name, c.Func)
	}
	return nil
}

// IDs returns the IDs of every check.
func IDs() []string {
	var ret []string
	for _, c := range All() {
		ret = append(ret, c.ID)
	}
	return ret
}
