package checks

import (
	"regexp"
	"strings"

	"github.com/cs106l/autograder/decl"
	"github.com/cs106l/autograder/framework/grader"
)

var kindPlurals = map[decl.Kind]string{ //nolint:gochecknoglobals
	decl.KindConstructor: "constructors",
	decl.KindMethod:      "member functions",
	decl.KindField:       "fields",
}

func skipDecl(t *grader.T, d *decl.Decl, reason string) {
	t.Debug("⏩ Disregarding %s, %s", d, reason)
}

func foundDecl(t *grader.T, d *decl.Decl) {
	t.Debug("🔍 Found %s!", d)
}

// declsOf returns the class members of one kind, failing the part if there are none at all.
func declsOf(t *grader.T, class *decl.Class, kind decl.Kind) []*decl.Decl {
	var ret []*decl.Decl
	for _, m := range class.Members {
		if m.Kind == kind {
			ret = append(ret, m)
		}
	}
	if len(ret) == 0 {
		t.Fatalf("Could not find any %s in class", kindPlurals[kind])
	}
	return ret
}

// assertDefined fails the part unless the implementation file defines d.
func assertDefined(t *grader.T, s *Submission, d *decl.Decl) {
	switch d.Kind {
	case decl.KindConstructor, decl.KindMethod:
	default:
		t.Fatalf("Unhandled declaration type: %s. Please reach out to the course staff!", d.Kind)
	}
	if !s.Definitions.Has(s.Class.BaseName(), d.Name) {
		t.Fatalf("Found declaration for %s, but could not find a matching definition in %s",
			d, s.Config.Sources.Impl)
	}
}

// ParameterizedConstructor passes if the class has a public constructor with at least one
// argument that is defined in the implementation file.
func ParameterizedConstructor(t *grader.T) {
	s := submissionOf(t)
	for _, c := range declsOf(t, s.Class, decl.KindConstructor) {
		if c.Artificial {
			continue
		}
		if c.Access != decl.Public {
			skipDecl(t, c, "not public")
			continue
		}
		if len(c.Args) == 0 {
			skipDecl(t, c, "has no arguments")
			continue
		}
		assertDefined(t, s, c)
		foundDecl(t, c)
		return
	}
	t.Fatalf("Could not find a public constructor taking one or more arguments")
}

// ParameterlessConstructor passes if the class has a public default constructor that is defined
// in the implementation file.
func ParameterlessConstructor(t *grader.T) {
	s := submissionOf(t)
	for _, c := range declsOf(t, s.Class, decl.KindConstructor) {
		if c.Artificial {
			continue
		}
		if c.Access != decl.Public {
			skipDecl(t, c, "not public")
			continue
		}
		if len(c.Args) > 0 {
			skipDecl(t, c, "has one or more parameters")
			continue
		}
		assertDefined(t, s, c)
		foundDecl(t, c)
		return
	}
	t.Fatalf("Could not find a public parameterless constructor")
}

// PrivateField passes if the class has a private, non-static data member.
func PrivateField(t *grader.T) {
	s := submissionOf(t)
	for _, f := range declsOf(t, s.Class, decl.KindField) {
		switch {
		case f.Artificial:
			continue
		case f.Static:
			skipDecl(t, f, "marked static")
		case f.Extern:
			skipDecl(t, f, "marked extern")
		case f.Access == decl.Public:
			skipDecl(t, f, "not private. Note: In general, it is bad practice to define public fields!")
		case f.Access != decl.Private:
			skipDecl(t, f, "not private")
		default:
			foundDecl(t, f)
			return
		}
	}
	t.Fatalf("Could not find a private field")
}

// PrivateMemberFunction passes if the class has a private, non-static member function that is
// defined in the implementation file.
func PrivateMemberFunction(t *grader.T) {
	s := submissionOf(t)
	for _, fn := range declsOf(t, s.Class, decl.KindMethod) {
		switch {
		case fn.Artificial:
			continue
		case fn.Static:
			skipDecl(t, fn, "marked static")
		case fn.Extern:
			skipDecl(t, fn, "marked extern")
		case fn.Access != decl.Private:
			skipDecl(t, fn, "not private")
		default:
			foundDecl(t, fn)
			assertDefined(t, s, fn)
			return
		}
	}
	t.Fatalf("Could not find a private member function")
}

func privateFields(t *grader.T, class *decl.Class) []*decl.Decl {
	var ret []*decl.Decl
	for _, f := range declsOf(t, class, decl.KindField) {
		if !f.Artificial && !f.Static && !f.Extern && f.Access == decl.Private {
			ret = append(ret, f)
		}
	}
	return ret
}

type accessor struct {
	fn    *decl.Decl
	field string
}

// prefixedFunctions returns the public, non-static member functions named prefix_Name or
// prefixName, along with the Name part.
func prefixedFunctions(t *grader.T, class *decl.Class, prefix string) []accessor {
	nameRegex := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_?([a-zA-Z]\w*)`)
	var ret []accessor
	for _, fn := range declsOf(t, class, decl.KindMethod) {
		if fn.Artificial || fn.Static || fn.Extern || fn.Access != decl.Public {
			continue
		}
		if m := nameRegex.FindStringSubmatch(fn.Name); m != nil {
			ret = append(ret, accessor{fn: fn, field: m[1]})
		}
	}
	return ret
}

// matchingAccessor finds the first prefixed function whose lower-cased suffix is the name of a
// private field.
func matchingAccessor(t *grader.T, class *decl.Class, prefix, label string) (*decl.Decl, *decl.Decl) {
	fields := privateFields(t, class)
	candidates := prefixedFunctions(t, class, prefix)

	for _, c := range candidates {
		want := strings.ToLower(c.field)
		for _, f := range fields {
			if f.Name == want {
				foundDecl(t, c.fn)
				return c.fn, f
			}
		}
		skipDecl(t, c.fn, c.field+" did not match a private field")
	}

	fnNames := make([]string, 0, len(candidates))
	for _, c := range candidates {
		fnNames = append(fnNames, c.fn.Name)
	}
	fieldNames := make([]string, 0, len(fields))
	for _, f := range fields {
		fieldNames = append(fieldNames, f.Name)
	}
	t.Fatalf("No %s function found for a private field. Options were:\n - %ss: [%s]\n - Private fields: [%s]",
		label, strings.ToUpper(label[:1])+label[1:], strings.Join(fnNames, ", "), strings.Join(fieldNames, ", "))
	return nil, nil
}

// Getter passes if the class has a public get_x (or getX) function for a private field x that
// takes no arguments, returns the field's type, is const, and is defined.
func Getter(t *grader.T) {
	s := submissionOf(t)
	fn, field := matchingAccessor(t, s.Class, "get", "getter")

	if len(fn.Args) != 0 {
		t.Fatalf("A getter function must have no arguments")
	}
	if ret := fn.Returns.OrElse(decl.Void); ret != field.Type {
		t.Fatalf("The return type of a getter function must match its field. Found %s but expected %s",
			ret, field.Type)
	}
	if !fn.Const {
		t.Fatalf("A getter function should be marked as const")
	}
	assertDefined(t, s, fn)
}

// Setter passes if the class has a public set_x (or setX) function for a private field x that
// takes exactly one argument of the field's type, returns void, and is defined.
func Setter(t *grader.T) {
	s := submissionOf(t)
	fn, field := matchingAccessor(t, s.Class, "set", "setter")

	if len(fn.Args) != 1 {
		t.Fatalf("A setter should have a single argument matching the type of its field")
	}
	if arg := fn.Args[0].Type; arg != field.Type {
		t.Fatalf("The argument of a setter should be the type of its field. Found %s but expected %s",
			arg, field.Type)
	}
	if fn.Returns.OrElse(decl.Void) != decl.Void {
		t.Fatalf("A setter should have a void return type")
	}
	assertDefined(t, s, fn)
}
