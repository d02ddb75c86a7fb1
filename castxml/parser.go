package castxml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cs106l/autograder/decl"
	"github.com/cs106l/autograder/framework"
)

const (
	defaultExecutable = "castxml"
	defaultCompiler   = "g++"
	defaultStd        = "c++11"
)

// ErrNotInstalled is returned by Parse when the castxml executable cannot be found.
var ErrNotInstalled = errors.New("castxml executable not found")

// Parser runs CastXML. The zero value uses "castxml" from PATH, g++ as the reference compiler,
// and C++11.
type Parser struct {
	// Path is the castxml executable.
	Path string

	// Compiler is the GNU-compatible compiler whose predefined macros and include paths CastXML
	// imitates.
	Compiler string

	// Std is the language standard, without the "-std=" prefix.
	Std string

	// Flags are extra arguments passed through to CastXML's Clang front end.
	Flags []string

	// WorkDir is the directory castxml runs in; file names are relative to it.
	WorkDir string

	Logger framework.Logger
}

// Parse runs castxml over file and decodes the declarations it reports.
func (p Parser) Parse(ctx context.Context, file string) (*decl.Tree, error) {
	executable, err := p.executable()
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp("", "autograder-castxml-*.xml")
	if err != nil {
		return nil, fmt.Errorf("failed to create castxml output file: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer func() { _ = os.Remove(outPath) }()

	args := p.args(file, outPath)
	p.logger().Printf("running %s %s", executable, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = p.WorkDir
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &Error{File: file, Err: err, Output: strings.TrimSpace(stderr.String())}
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read castxml output: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func (p Parser) executable() (string, error) {
	name := p.Path
	if name == "" {
		name = defaultExecutable
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w (looked for %q): %s", ErrNotInstalled, name, err)
	}
	return path, nil
}

func (p Parser) args(file, outPath string) []string {
	compiler := p.Compiler
	if compiler == "" {
		compiler = defaultCompiler
	}
	std := p.Std
	if std == "" {
		std = defaultStd
	}
	args := []string{
		"--castxml-output=1",
		"--castxml-cc-gnu", "(", compiler, "-std=" + std, ")",
	}
	args = append(args, p.Flags...)
	return append(args, "-o", outPath, file)
}

func (p Parser) logger() framework.Logger {
	if p.Logger == nil {
		return framework.NullLogger()
	}
	return p.Logger
}

// Error is returned when castxml runs but fails, usually because the code does not compile.
type Error struct {
	File   string
	Err    error
	Output string
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("castxml failed on %s: %s", e.File, e.Err)
	}
	return fmt.Sprintf("castxml failed on %s: %s\n%s", e.File, e.Err, e.Output)
}

func (e *Error) Unwrap() error {
	return e.Err
}
