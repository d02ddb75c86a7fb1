package castxml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--castxml-output=1", "--castxml-cc-gnu", "(", "g++", "-std=c++11", ")",
			"-o", "out.xml", "main.cpp"},
		Parser{}.args("main.cpp", "out.xml"))

	p := Parser{Compiler: "clang++", Std: "c++17", Flags: []string{"-I", "include"}}
	assert.Equal(t,
		[]string{"--castxml-output=1", "--castxml-cc-gnu", "(", "clang++", "-std=c++17", ")",
			"-I", "include", "-o", "out.xml", "main.cpp"},
		p.args("main.cpp", "out.xml"))
}

func TestParserReportsMissingExecutable(t *testing.T) {
	p := Parser{Path: filepath.Join(t.TempDir(), "no-such-castxml")}
	_, err := p.Parse(context.Background(), "main.cpp")
	assert.True(t, errors.Is(err, ErrNotInstalled))
}

func writeFakeCastXML(t *testing.T, script string) string {
	if runtime.GOOS == "windows" {
		t.Skip("fake castxml is a shell script")
	}
	path := filepath.Join(t.TempDir(), "castxml")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755)) //nolint:gosec
	return path
}

func TestParserDecodesOutputFile(t *testing.T) {
	fixture, err := filepath.Abs("testdata/student.xml")
	require.NoError(t, err)
	fake := writeFakeCastXML(t, `
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
cp "`+fixture+`" "$out"
`)

	tree, err := Parser{Path: fake, WorkDir: t.TempDir()}.Parse(context.Background(), "main.cpp")
	require.NoError(t, err)
	require.Len(t, tree.Classes, 3)
	assert.Equal(t, "Student", tree.Classes[0].Name)
}

func TestParserReportsCompilerOutput(t *testing.T) {
	fake := writeFakeCastXML(t, `
echo "main.cpp:3:1: error: unknown type name 'Studnet'" >&2
exit 1
`)

	_, err := Parser{Path: fake, WorkDir: t.TempDir()}.Parse(context.Background(), "main.cpp")
	require.Error(t, err)
	var castErr *Error
	require.True(t, errors.As(err, &castErr))
	assert.Equal(t, "main.cpp", castErr.File)
	assert.Equal(t, "main.cpp:3:1: error: unknown type name 'Studnet'", castErr.Output)
	assert.Contains(t, err.Error(), "castxml failed on main.cpp")
}
