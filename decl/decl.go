// Package decl is the declaration model produced by a declaration source and consumed by the
// structural checks. A declaration is a tagged variant: Kind says which of the kind-specific
// attributes are meaningful.
package decl

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cs106l/autograder/framework/opt"
)

type Kind int

const (
	KindConstructor Kind = iota
	KindDestructor
	KindMethod
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindDestructor:
		return "destructor"
	case KindMethod:
		return "member function"
	case KindField:
		return "variable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Callable returns true for kinds that have arguments.
func (k Kind) Callable() bool {
	return k == KindConstructor || k == KindDestructor || k == KindMethod
}

type Access string

const (
	Public    Access = "public"
	Protected Access = "protected"
	Private   Access = "private"
)

// Type is the canonical spelling of a C++ type, such as "double", "std::string const &" or
// "int *". Two declarations have the same type if their spellings are equal.
type Type string

const Void Type = "void"

type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

type Argument struct {
	Name string
	Type Type
}

// Decl is one member of a class.
//
// Static and Extern apply to every kind. Args applies to callable kinds; Returns and Const only
// to methods; Type only to fields.
type Decl struct {
	Kind       Kind
	Name       string
	Owner      string
	Access     Access
	Artificial bool
	Static     bool
	Extern     bool
	Location   Location

	Type    Type
	Args    []Argument
	Returns opt.Maybe[Type]
	Const   bool
}

// ArgTypes returns the types of the arguments in order.
func (d *Decl) ArgTypes() []Type {
	ret := make([]Type, 0, len(d.Args))
	for _, a := range d.Args {
		ret = append(ret, a.Type)
	}
	return ret
}

// QualifiedName returns Owner::Name.
func (d *Decl) QualifiedName() string {
	if d.Owner == "" {
		return d.Name
	}
	return d.Owner + "::" + d.Name
}

// String describes the declaration the way it is shown in grading transcripts, for instance
// "double Student::get_height() const [member function]".
func (d *Decl) String() string {
	var b strings.Builder
	switch d.Kind {
	case KindField:
		fmt.Fprintf(&b, "%s %s", d.Type, d.QualifiedName())
	case KindConstructor, KindDestructor, KindMethod:
		if d.Returns.IsDefined() {
			fmt.Fprintf(&b, "%s ", d.Returns.Value())
		}
		b.WriteString(d.QualifiedName())
		b.WriteString("(")
		for i, a := range d.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(a.Type))
			if a.Name != "" {
				b.WriteString(" " + a.Name)
			}
		}
		b.WriteString(")")
		if d.Const {
			b.WriteString(" const")
		}
	default:
		b.WriteString(d.QualifiedName())
	}
	fmt.Fprintf(&b, " [%s]", d.Kind)
	return b.String()
}

// Class is a class or struct with its members in declaration order.
type Class struct {
	Name     string
	Location Location
	Members  []*Decl
}

var templateArgsRegex = regexp.MustCompile(`<.*>`)

// BaseName returns the class name without any template arguments.
func (c *Class) BaseName() string {
	return templateArgsRegex.ReplaceAllString(c.Name, "")
}

func (c *Class) membersOfKind(kind Kind) []*Decl {
	var ret []*Decl
	for _, m := range c.Members {
		if m.Kind == kind {
			ret = append(ret, m)
		}
	}
	return ret
}

func (c *Class) Constructors() []*Decl { return c.membersOfKind(KindConstructor) }

func (c *Class) Methods() []*Decl { return c.membersOfKind(KindMethod) }

func (c *Class) Fields() []*Decl { return c.membersOfKind(KindField) }

// Tree is everything a declaration source found in one translation unit.
type Tree struct {
	Classes []*Class
}

// ClassInFile returns the first class whose location is the given file. Relative paths on either
// side are resolved against baseDir before comparing.
func (t *Tree) ClassInFile(path, baseDir string) (*Class, bool) {
	want := normalizePath(path, baseDir)
	for _, c := range t.Classes {
		if normalizePath(c.Location.File, baseDir) == want {
			return c, true
		}
	}
	return nil, false
}

func normalizePath(path, baseDir string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return filepath.Clean(path)
}
