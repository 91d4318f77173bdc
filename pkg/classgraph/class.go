package classgraph

import (
	"strconv"
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// Kind classifies a class node.
type Kind uint8

const (
	// KindUnknown is the kind of placeholder and external nodes.
	KindUnknown Kind = iota
	KindClass
	KindInterface
	KindAnnotation
	KindEnum
	KindRecord
	KindModule
)

var kindNames = [...]string{"unknown", "class", "interface", "annotation", "enum", "record", "module"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for i, n := range kindNames {
		if n == s {
			return Kind(i)
		}
	}
	return KindUnknown
}

// State is the resolution state of a class node.
type State uint8

const (
	// StatePlaceholder marks a node created as an edge target whose own
	// classfile has not been merged. Placeholders exist only while merging.
	StatePlaceholder State = iota
	// StateResolved marks a node built from a scanned classfile.
	StateResolved
	// StateExternal marks a referenced class that was not part of the scan.
	StateExternal
)

var stateNames = [...]string{"placeholder", "resolved", "external"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// ParseState is the inverse of State.String.
func ParseState(s string) State {
	for i, n := range stateNames {
		if n == s {
			return State(i)
		}
	}
	return StatePlaceholder
}

// ClassInfo is a node of the class graph. Resolved nodes carry the metadata
// of their classfile; external nodes carry only a name.
//
// A ClassInfo must not be modified once the graph is finalized.
type ClassInfo struct {
	Name           string
	Kind           Kind
	State          State
	Modifiers      classfile.AccessFlags
	SuperclassName string   // "" for java.lang.Object, interfaces without a superclass entry, and external nodes
	InterfaceNames []string // Direct superinterfaces in declaration order
	Signature      *signature.ClassSignature
	SignatureErr   error // Set when the class signature could not be parsed
	Fields         []*FieldInfo
	Methods        []*MethodInfo
	Annotations    []*AnnotationInfo
	OuterClassName string // Enclosing class of a nested class
	Resource       string // Resource path within its classpath element
	Element        string // Classpath element the resource was read from
	SourceFile     string
	MajorVersion   uint16

	order int
	g     *Graph
}

// IsResolved reports whether the node was built from a scanned classfile.
func (c *ClassInfo) IsResolved() bool { return c.State == StateResolved }

// IsExternal reports whether the node stands for a referenced class whose
// metadata is unavailable.
func (c *ClassInfo) IsExternal() bool { return c.State != StateResolved }

func (c *ClassInfo) IsInterface() bool  { return c.Kind == KindInterface || c.Kind == KindAnnotation }
func (c *ClassInfo) IsAnnotation() bool { return c.Kind == KindAnnotation }
func (c *ClassInfo) IsEnum() bool       { return c.Kind == KindEnum }
func (c *ClassInfo) IsRecord() bool     { return c.Kind == KindRecord }

// Package returns the package name ("" for the default package).
func (c *ClassInfo) Package() string { return classfile.PackageName(c.Name) }

// SimpleName returns the name without package and enclosing classes.
func (c *ClassInfo) SimpleName() string {
	name := c.Name[strings.LastIndexByte(c.Name, '.')+1:]
	if c.OuterClassName != "" {
		outer := c.OuterClassName[strings.LastIndexByte(c.OuterClassName, '.')+1:]
		name = strings.TrimPrefix(name, outer+"$")
	}
	return name
}

// Superclass returns the superclass node, or nil when there is none.
func (c *ClassInfo) Superclass() *ClassInfo {
	if c.SuperclassName == "" || c.g == nil {
		return nil
	}
	return c.g.nodes[c.SuperclassName]
}

// Interfaces returns the nodes of the direct superinterfaces.
func (c *ClassInfo) Interfaces() []*ClassInfo {
	if c.g == nil {
		return nil
	}
	out := make([]*ClassInfo, 0, len(c.InterfaceNames))
	for _, n := range c.InterfaceNames {
		if info := c.g.nodes[n]; info != nil {
			out = append(out, info)
		}
	}
	return out
}

// Annotation returns the first annotation of the given type.
func (c *ClassInfo) Annotation(typeName string) *AnnotationInfo {
	for _, a := range c.Annotations {
		if a.TypeName == typeName {
			return a
		}
	}
	return nil
}

// HasAnnotation reports whether the class carries an annotation of the given type.
func (c *ClassInfo) HasAnnotation(typeName string) bool { return c.Annotation(typeName) != nil }

// MethodInfo returns all methods with the given name, in declaration order.
func (c *ClassInfo) MethodInfo(name string) []*MethodInfo {
	var out []*MethodInfo
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FieldInfo returns the field with the given name, or nil.
func (c *ClassInfo) FieldInfo(name string) *FieldInfo {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Dependencies returns the classes this class directly depends on, sorted
// by name.
func (c *ClassInfo) Dependencies() []*ClassInfo {
	if c.g == nil {
		return nil
	}
	return c.g.DependenciesOf(c)
}

// Dependents returns the classes that directly depend on this class, sorted
// by name.
func (c *ClassInfo) Dependents() []*ClassInfo {
	if c.g == nil {
		return nil
	}
	return c.g.DependentsOf(c)
}

func (c *ClassInfo) String() string {
	if c.IsExternal() {
		return c.Name
	}
	var sb strings.Builder
	if mods := c.Modifiers.ClassModifiers(); mods != "" {
		sb.WriteString(mods)
		sb.WriteByte(' ')
	}
	switch c.Kind {
	case KindInterface:
		sb.WriteString("interface ")
	case KindAnnotation:
		sb.WriteString("@interface ")
	case KindEnum:
		sb.WriteString("enum ")
	case KindRecord:
		sb.WriteString("record ")
	case KindModule:
		sb.WriteString("module ")
	default:
		sb.WriteString("class ")
	}
	sb.WriteString(c.Name)
	return sb.String()
}

func classKind(cf *classfile.ClassFile) Kind {
	f := cf.AccessFlags
	switch {
	case f.IsModule():
		return KindModule
	case f.IsAnnotation():
		return KindAnnotation
	case f.IsInterface():
		return KindInterface
	case f.IsEnum():
		return KindEnum
	case cf.IsRecord || cf.SuperName == "java.lang.Record":
		return KindRecord
	}
	return KindClass
}
