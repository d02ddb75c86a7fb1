// Package castxml is the declaration source of the autograder: it runs the CastXML tool over a
// translation unit and turns the XML it writes into a decl.Tree.
package castxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cs106l/autograder/decl"
	"github.com/cs106l/autograder/framework/opt"
)

const maxTypeDepth = 64

// nodeKinds are the CastXML output format 1 elements that describe classes, their members, and
// the types those members refer to. Any other element is skipped.
var nodeKinds = map[string]bool{ //nolint:gochecknoglobals
	"Namespace":           true,
	"Class":               true,
	"Struct":              true,
	"Union":               true,
	"Enumeration":         true,
	"Constructor":         true,
	"Destructor":          true,
	"Method":              true,
	"Field":               true,
	"Variable":            true,
	"Typedef":             true,
	"FundamentalType":     true,
	"PointerType":         true,
	"ReferenceType":       true,
	"RValueReferenceType": true,
	"CvQualifiedType":     true,
	"ElaboratedType":      true,
	"ArrayType":           true,
}

type node struct {
	ID         string     `xml:"id,attr"`
	Name       string     `xml:"name,attr"`
	Context    string     `xml:"context,attr"`
	Access     string     `xml:"access,attr"`
	Type       string     `xml:"type,attr"`
	Returns    string     `xml:"returns,attr"`
	File       string     `xml:"file,attr"`
	Line       int        `xml:"line,attr"`
	Members    string     `xml:"members,attr"`
	Static     string     `xml:"static,attr"`
	Extern     string     `xml:"extern,attr"`
	Const      string     `xml:"const,attr"`
	Volatile   string     `xml:"volatile,attr"`
	Artificial string     `xml:"artificial,attr"`
	Incomplete string     `xml:"incomplete,attr"`
	Max        string     `xml:"max,attr"`
	Arguments  []argument `xml:"Argument"`

	kind string
}

type argument struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

func flag(value string) bool {
	return value == "1"
}

type decoder struct {
	nodes map[string]*node
	files map[string]string
}

// Decode reads CastXML output and returns every complete class and struct it describes, in the
// order they appear in the output. Forward declarations are only used to resolve type names.
func Decode(r io.Reader) (*decl.Tree, error) {
	d := &decoder{nodes: make(map[string]*node), files: make(map[string]string)}
	var classes []*node

	dec := xml.NewDecoder(r)
	inRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF && inRoot {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CastXML output: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !inRoot {
			inRoot = true
			continue
		}

		kind := start.Name.Local
		if kind != "File" && !nodeKinds[kind] {
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed CastXML output: %w", err)
			}
			continue
		}
		n := &node{kind: kind}
		if err := dec.DecodeElement(n, &start); err != nil {
			return nil, fmt.Errorf("malformed CastXML output: %w", err)
		}
		if kind == "File" {
			d.files[n.ID] = n.Name
			continue
		}
		d.nodes[n.ID] = n
		if (kind == "Class" || kind == "Struct") && !flag(n.Incomplete) {
			classes = append(classes, n)
		}
	}

	tree := &decl.Tree{}
	for _, n := range classes {
		tree.Classes = append(tree.Classes, d.class(n))
	}
	return tree, nil
}

func (d *decoder) location(n *node) decl.Location {
	return decl.Location{File: d.files[n.File], Line: n.Line}
}

func (d *decoder) class(n *node) *decl.Class {
	c := &decl.Class{Name: n.Name, Location: d.location(n)}
	for _, id := range strings.Fields(n.Members) {
		m, ok := d.nodes[id]
		if !ok || m.Context != n.ID {
			continue
		}
		if member := d.member(m, c.Name); member != nil {
			c.Members = append(c.Members, member)
		}
	}
	return c
}

func (d *decoder) member(n *node, owner string) *decl.Decl {
	m := &decl.Decl{
		Name:       n.Name,
		Owner:      owner,
		Access:     decl.Access(n.Access),
		Artificial: flag(n.Artificial),
		Static:     flag(n.Static),
		Extern:     flag(n.Extern),
		Location:   d.location(n),
	}
	switch n.kind {
	case "Constructor":
		m.Kind = decl.KindConstructor
	case "Destructor":
		m.Kind = decl.KindDestructor
	case "Method":
		m.Kind = decl.KindMethod
		m.Returns = opt.Some(d.typeName(n.Returns, 0))
		m.Const = flag(n.Const)
	case "Field":
		m.Kind = decl.KindField
		m.Type = d.typeName(n.Type, 0)
	case "Variable":
		// static data members are emitted as namespace-style variables scoped to the class
		m.Kind = decl.KindField
		m.Type = d.typeName(n.Type, 0)
		m.Static = true
	default:
		return nil
	}
	for _, a := range n.Arguments {
		m.Args = append(m.Args, decl.Argument{Name: a.Name, Type: d.typeName(a.Type, 0)})
	}
	return m
}

// typeName spells out a type the way it would be written in C++, with qualifiers after the
// type they apply to ("char const *").
func (d *decoder) typeName(id string, depth int) decl.Type {
	n, ok := d.nodes[id]
	if !ok || depth > maxTypeDepth {
		return decl.Type("?" + id)
	}
	inner := func() string { return string(d.typeName(n.Type, depth+1)) }
	switch n.kind {
	case "FundamentalType":
		return decl.Type(n.Name)
	case "PointerType":
		return decl.Type(inner() + " *")
	case "ReferenceType":
		return decl.Type(inner() + " &")
	case "RValueReferenceType":
		return decl.Type(inner() + " &&")
	case "CvQualifiedType":
		s := inner()
		if flag(n.Const) {
			s += " const"
		}
		if flag(n.Volatile) {
			s += " volatile"
		}
		return decl.Type(s)
	case "ElaboratedType":
		return decl.Type(inner())
	case "ArrayType":
		size := ""
		if upper, err := strconv.Atoi(n.Max); err == nil {
			size = strconv.Itoa(upper + 1)
		}
		return decl.Type(inner() + "[" + size + "]")
	default:
		return decl.Type(d.qualifiedName(n, depth))
	}
}

func (d *decoder) qualifiedName(n *node, depth int) string {
	name := n.Name
	for ctx, ok := d.nodes[n.Context]; ok && depth < maxTypeDepth; ctx, ok = d.nodes[ctx.Context] {
		if ctx.kind == "Namespace" && ctx.Name == "::" {
			break
		}
		name = ctx.Name + "::" + name
		depth++
	}
	return name
}
