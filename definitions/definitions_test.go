package definitions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentSource = `#include "class.h"

Student::Student() {
  this->name = "null";
  this->stuID = "null";
}

Student::Student(std::string name, std::string stuID, double h, double w)
    : name(name), stuID(stuID), height(h), weight(w) {}

double Student::get_height() const {
    return this->height;
}

void Student::set_height(double h) {
    this->height = h;
}

double Student::calbmi() {
    return this->weight / this->height / this->height;
}
`

func TestScanSourceFindsMemberDefinitions(t *testing.T) {
	set := ScanSource(studentSource)

	assert.True(t, set.Has("Student", "Student"))
	assert.True(t, set.Has("Student", "get_height"))
	assert.True(t, set.Has("Student", "set_height"))
	assert.True(t, set.Has("Student", "calbmi"))
	assert.False(t, set.Has("Student", "get_weight"))
}

func TestScanSourceKeepsQualifiedTypesInSignatures(t *testing.T) {
	set := ScanSource(studentSource)

	// std::string appears in the constructor's parameter list, outside any braces
	assert.True(t, set.Has("std", "string"))
	assert.Equal(t,
		[]Definition{
			{"Student", "Student"}, {"Student", "calbmi"}, {"Student", "get_height"},
			{"Student", "set_height"}, {"std", "string"},
		},
		set.Sorted())
}

func TestScanSourceIgnoresBodies(t *testing.T) {
	set := ScanSource(`
void Student::greet() {
    std::cout << Helper::name() << std::endl;
    if (true) { Other::thing(); }
}
`)

	assert.Equal(t, "[Student::greet]", set.String())
}

func TestScanSourceIgnoresComments(t *testing.T) {
	set := ScanSource(`
// int Student::line_comment() {}
/* int Student::block_comment()
   spans lines */
int Student::real() { return 0; }
`)

	assert.Equal(t, []Definition{{"Student", "real"}}, set.Sorted())
}

func TestScanSourceIgnoresStringLiterals(t *testing.T) {
	set := ScanSource(`
const char *msg = "Student::in_string // not a comment";
int Student::after() { return 1; }
`)

	assert.Equal(t, []Definition{{"Student", "after"}}, set.Sorted())
}

func TestScanSourceStripsTemplateArguments(t *testing.T) {
	set := ScanSource(`
template <typename T>
T Box<T>::get() const { return value; }
`)

	assert.True(t, set.Has("Box", "get"))
}

func TestScanSourceToleratesUnbalancedBraces(t *testing.T) {
	set := ScanSource("}\nint A::b() { {\n")

	assert.True(t, set.Has("A", "b"))
}

func TestScanSourceEmpty(t *testing.T) {
	assert.Len(t, ScanSource(""), 0)
	assert.Equal(t, "[]", ScanSource("").String())
}

func TestScanReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class.cpp")
	require.NoError(t, os.WriteFile(path, []byte(studentSource), 0600))

	set, err := Scan(path)
	require.NoError(t, err)
	assert.True(t, set.Has("Student", "calbmi"))
}

func TestScanMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class.cpp")

	_, err := Scan(path)
	require.Error(t, err)
	assert.Equal(t, "Could not find source file: "+path, err.Error())
}
