package decl

import (
	"path/filepath"
	"testing"

	"github.com/cs106l/autograder/framework/opt"

	"github.com/stretchr/testify/assert"
)

func TestDeclString(t *testing.T) {
	getter := &Decl{Kind: KindMethod, Name: "get_height", Owner: "Student",
		Returns: opt.Some(Type("double")), Const: true}
	assert.Equal(t, "double Student::get_height() const [member function]", getter.String())

	cons := &Decl{Kind: KindConstructor, Name: "Student", Owner: "Student",
		Args: []Argument{{Name: "name", Type: "std::string"}, {Type: "double"}}}
	assert.Equal(t, "Student::Student(std::string name, double) [constructor]", cons.String())

	field := &Decl{Kind: KindField, Name: "height", Owner: "Student", Type: "double"}
	assert.Equal(t, "double Student::height [variable]", field.String())
}

func TestClassMembersByKind(t *testing.T) {
	c := &Class{Name: "Student", Members: []*Decl{
		{Kind: KindField, Name: "name"},
		{Kind: KindConstructor, Name: "Student"},
		{Kind: KindMethod, Name: "get_name"},
		{Kind: KindDestructor, Name: "~Student"},
		{Kind: KindField, Name: "height"},
	}}

	assert.Len(t, c.Constructors(), 1)
	assert.Len(t, c.Methods(), 1)
	fields := c.Fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, "name", fields[0].Name)
	assert.Equal(t, "height", fields[1].Name)
}

func TestClassBaseName(t *testing.T) {
	assert.Equal(t, "Student", (&Class{Name: "Student"}).BaseName())
	assert.Equal(t, "Box", (&Class{Name: "Box<int, std::vector<int> >"}).BaseName())
}

func TestClassInFile(t *testing.T) {
	base := filepath.FromSlash("/work/assign3")
	tree := &Tree{Classes: []*Class{
		{Name: "Helper", Location: Location{File: "/usr/include/c++/helper.h"}},
		{Name: "Student", Location: Location{File: "./class.h"}},
	}}

	c, ok := tree.ClassInFile(filepath.Join(base, "class.h"), base)
	assert.True(t, ok)
	assert.Equal(t, "Student", c.Name)

	_, ok = tree.ClassInFile("other.h", base)
	assert.False(t, ok)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "constructor", KindConstructor.String())
	assert.Equal(t, "member function", KindMethod.String())
	assert.Equal(t, "variable", KindField.String())
	assert.True(t, KindMethod.Callable())
	assert.False(t, KindField.Callable())
}
