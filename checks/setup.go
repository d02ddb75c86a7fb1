package checks

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/cs106l/autograder/decl"
	"github.com/cs106l/autograder/definitions"
	"github.com/cs106l/autograder/framework/grader"

	"github.com/fatih/color"
)

var parseHintColor = color.New(color.FgRed, color.BgYellow)    //nolint:gochecknoglobals
var foundClassColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals
var classNameColor = color.New(color.FgGreen, color.BgHiGreen) //nolint:gochecknoglobals

// DeclarationSource produces the declaration tree of a translation unit. castxml.Parser is the
// real implementation.
type DeclarationSource interface {
	Parse(ctx context.Context, file string) (*decl.Tree, error)
}

// Sources names the files of a submission, relative to its directory.
type Sources struct {
	Main   string
	Header string
	Impl   string
}

// DefaultSources are the file names of the class-structure assignment starter code.
func DefaultSources() Sources {
	return Sources{Main: "main.cpp", Header: "class.h", Impl: "class.cpp"}
}

// Config is what Setup needs to find and parse a submission.
type Config struct {
	Dir     string
	Sources Sources
	Parser  DeclarationSource
}

func (c Config) path(name string) string {
	return filepath.Join(c.Dir, name)
}

// Submission is the parsed student code shared by every check in a run.
type Submission struct {
	Config      Config
	Class       *decl.Class
	Definitions definitions.Set
}

// Setup returns the special part that locates the submission's files, parses the main
// translation unit, finds the class declared in the header and scans the implementation file
// for member definitions.
func Setup(config Config) grader.PartFunc {
	return func(t *grader.T) {
		mainPath := config.path(config.Sources.Main)
		if info, err := os.Stat(mainPath); err != nil || info.IsDir() {
			t.Fatalf("Couldn't find '%s'. Did you delete it from the starter code?", config.Sources.Main)
		}

		ctx := context.Background()
		if c, ok := t.Context().(context.Context); ok && c != nil {
			ctx = c
		}
		tree, err := config.Parser.Parse(ctx, mainPath)
		if err != nil {
			t.Debug("")
			t.Debug("%s", err)
			t.Debug("")
			t.Debug("%s", parseHintColor.Sprintf("Failed to parse %s. Did you remember to recompile your code?",
				config.Sources.Main))
			t.Debug("If your code is compiling correctly, please reach out to the course staff with the error message above.")
			t.Fatalf("Failed to parse C++ file")
		}

		class, ok := tree.ClassInFile(config.path(config.Sources.Header), config.Dir)
		if !ok {
			t.Fatalf("Couldn't find a class inside of %s. Possible reasons:\n - Did you define one?\n"+
				" - Did you #include \"%s\" inside %s?",
				config.Sources.Header, config.Sources.Header, config.Sources.Main)
		}
		t.Debug("%s", foundClassColor.Sprintf("Autograder found class %s inside %s!",
			classNameColor.Sprint(class.Name), config.Sources.Header))

		defs, err := definitions.Scan(config.path(config.Sources.Impl))
		if err != nil {
			t.Fatalf("%s", err)
		}

		t.Provide(&Submission{Config: config, Class: class, Definitions: defs})
	}
}

var errNoSubmission = errors.New("no parsed submission is available; the setup part did not run")

func submissionOf(t *grader.T) *Submission {
	s, ok := t.Context().(*Submission)
	if !ok || s == nil {
		t.Fatalf("%s", errNoSubmission)
	}
	return s
}
