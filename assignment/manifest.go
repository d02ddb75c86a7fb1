// Package assignment describes one gradable assignment: where the student's files are, how to
// invoke the C++ front end, and which checks make up the grade.
package assignment

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/cs106l/autograder/castxml"
	"github.com/cs106l/autograder/checks"
	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"
)

//go:embed manifests
var manifestsRoot embed.FS

const defaultManifest = "manifests/class-structure.yaml"

type Manifest struct {
	Name     string         `json:"name"`
	Sources  SourcesConfig  `json:"sources"`
	Compiler CompilerConfig `json:"compiler"`
	CastXML  CastXMLConfig  `json:"castxml"`
	Parts    []PartConfig   `json:"parts"`
}

type SourcesConfig struct {
	Main   string `json:"main"`
	Header string `json:"header"`
	Impl   string `json:"impl"`
}

type CompilerConfig struct {
	Command string   `json:"command"`
	Std     string   `json:"std"`
	Flags   []string `json:"flags"`
}

type CastXMLConfig struct {
	Path string `json:"path"`
}

// PartConfig selects a check by ID. Name, if set, replaces the check's default display name.
type PartConfig struct {
	Check string `json:"check"`
	Name  string `json:"name,omitempty"`
}

// Default returns the manifest of the class structure assignment.
func Default() Manifest {
	m, err := parseManifest(defaultManifest, func(path string) ([]byte, error) {
		return manifestsRoot.ReadFile(path)
	}, Manifest{})
	if err != nil {
		panic(err) // the embedded manifest is covered by tests
	}
	return m
}

// Load reads a YAML or JSON manifest. Anything the file leaves out keeps its value from Default.
func Load(path string) (Manifest, error) {
	return parseManifest(path, os.ReadFile, Default())
}

func parseManifest(path string, read func(string) ([]byte, error), base Manifest) (Manifest, error) {
	data, err := read(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	m := base
	if err := ParseJSONOrYAML(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("error parsing manifest %q: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest %q: %w", path, err)
	}
	return m, nil
}

// Validate checks that every source file is named and that every part refers to a known check.
func (m Manifest) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"sources.main", m.Sources.Main},
		{"sources.header", m.Sources.Header},
		{"sources.impl", m.Sources.Impl},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", f.name))
		}
	}
	for i, p := range m.Parts {
		if _, ok := checks.Lookup(p.Check); !ok {
			errs = append(errs, fmt.Errorf("parts[%d]: unknown check %q", i, p.Check))
		}
	}
	return errors.Join(errs...)
}

// Parser returns the CastXML front end configured by the manifest.
func (m Manifest) Parser(workDir string, logger framework.Logger) castxml.Parser {
	return castxml.Parser{
		Path:     m.CastXML.Path,
		Compiler: m.Compiler.Command,
		Std:      m.Compiler.Std,
		Flags:    m.Compiler.Flags,
		WorkDir:  workDir,
		Logger:   logger,
	}
}

// SourceFiles returns the file names in the form the checks expect.
func (m Manifest) SourceFiles() checks.Sources {
	return checks.Sources{Main: m.Sources.Main, Header: m.Sources.Header, Impl: m.Sources.Impl}
}

// Build creates the Grader for a submission in dir. source is normally the Parser returned by
// m.Parser, but anything that produces a declaration tree will do.
func (m Manifest) Build(dir string, source checks.DeclarationSource) (*grader.Grader, error) {
	selections := make([]checks.Selection, 0, len(m.Parts))
	for _, p := range m.Parts {
		selections = append(selections, checks.Selection{Check: p.Check, Name: p.Name})
	}
	g := grader.New()
	config := checks.Config{Dir: dir, Sources: m.SourceFiles(), Parser: source}
	if err := checks.Register(g, config, selections); err != nil {
		return nil, err
	}
	return g, nil
}
