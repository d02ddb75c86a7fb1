package assignment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cs106l/autograder/checks"
	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "autograder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func partNames(g *grader.Grader) []string {
	var ret []string
	for _, p := range g.Parts() {
		ret = append(ret, p.Name)
	}
	return ret
}

func TestDefaultManifest(t *testing.T) {
	d := Default()

	assert.Equal(t, "class-structure", d.Name)
	assert.Equal(t, SourcesConfig{Main: "main.cpp", Header: "class.h", Impl: "class.cpp"}, d.Sources)
	assert.Equal(t, "g++", d.Compiler.Command)
	assert.Equal(t, "c++11", d.Compiler.Std)
	assert.Len(t, d.Compiler.Flags, 0)
	assert.Equal(t, "castxml", d.CastXML.Path)
	assert.Equal(t, checks.IDs(), func() []string {
		var ids []string
		for _, p := range d.Parts {
			ids = append(ids, p.Check)
		}
		return ids
	}())
	assert.NoError(t, d.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeManifest(t, `---
name: student-v2
sources:
  header: student.h
compiler:
  std: c++17
  flags: ["-I", "include"]
parts:
  - check: getter
    name: Getter
  - check: setter
`)

	man, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "student-v2", man.Name)
	assert.Equal(t, SourcesConfig{Main: "main.cpp", Header: "student.h", Impl: "class.cpp"}, man.Sources)
	assert.Equal(t, CompilerConfig{Command: "g++", Std: "c++17", Flags: []string{"-I", "include"}}, man.Compiler)
	assert.Equal(t, []PartConfig{{Check: "getter", Name: "Getter"}, {Check: "setter"}}, man.Parts)
}

func TestLoadJSON(t *testing.T) {
	man, err := Load(writeManifest(t, `{"castxml": {"path": "/opt/castxml/bin/castxml"}}`))
	require.NoError(t, err)

	assert.Equal(t, "/opt/castxml/bin/castxml", man.CastXML.Path)
	assert.Equal(t, Default().Parts, man.Parts)
}

func TestLoadRejectsUnknownCheck(t *testing.T) {
	_, err := Load(writeManifest(t, "parts:\n  - check: destructor\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parts[0]: unknown check "destructor"`)
}

func TestLoadRejectsEmptySourceName(t *testing.T) {
	_, err := Load(writeManifest(t, "sources:\n  impl: \"\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.impl must not be empty")
}

func TestLoadRejectsMisspelledKey(t *testing.T) {
	_, err := Load(writeManifest(t, "compiler:\n  standard: c++17\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "standard"`)
}

func TestLoadEmptyManifestIsDefault(t *testing.T) {
	man, err := Load(writeManifest(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), man)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManifestParser(t *testing.T) {
	man := Default()
	man.Compiler.Flags = []string{"-DGRADING"}

	p := man.Parser("/work", framework.NullLogger())
	assert.Equal(t, "castxml", p.Path)
	assert.Equal(t, "g++", p.Compiler)
	assert.Equal(t, "c++11", p.Std)
	assert.Equal(t, []string{"-DGRADING"}, p.Flags)
	assert.Equal(t, "/work", p.WorkDir)
}

func TestManifestBuild(t *testing.T) {
	man := Default()
	man.Parts = []PartConfig{{Check: "private-field", Name: "Encapsulation"}, {Check: "getter"}}

	g, err := man.Build("/work", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{grader.SetupPartName, "Encapsulation", "#5 / Public getter function"}, partNames(g))
}
