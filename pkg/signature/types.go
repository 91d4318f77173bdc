package signature

import (
	"strings"
)

// Type is a parsed type. The concrete types are [BaseType], [*ClassRefType],
// [*ArrayType] and [*TypeVariable].
type Type interface {
	// String renders the type in Java source form.
	String() string
	// ClassNames returns the dotted names of all classes the type mentions,
	// including type arguments and array elements, without duplicates.
	ClassNames() []string

	isType()
}

// BaseType is a primitive type or void, identified by its descriptor character.
type BaseType byte

const (
	Byte    BaseType = 'B'
	Char    BaseType = 'C'
	Double  BaseType = 'D'
	Float   BaseType = 'F'
	Int     BaseType = 'I'
	Long    BaseType = 'J'
	Short   BaseType = 'S'
	Boolean BaseType = 'Z'
	Void    BaseType = 'V'
)

var baseNames = map[BaseType]string{
	Byte:    "byte",
	Char:    "char",
	Double:  "double",
	Float:   "float",
	Int:     "int",
	Long:    "long",
	Short:   "short",
	Boolean: "boolean",
	Void:    "void",
}

func (b BaseType) String() string {
	if n, ok := baseNames[b]; ok {
		return n
	}
	return "?" + string(rune(b))
}

// ClassNames returns nil.
func (BaseType) ClassNames() []string { return nil }
func (BaseType) isType()              {}

func isBaseType(c byte) bool {
	_, ok := baseNames[BaseType(c)]
	return ok && c != 'V'
}

// ClassSegment is one dot-separated segment of a class type signature. A
// non-generic nested class is a single segment named "Outer$Inner"; the
// signature only splits segments when an enclosing class is parameterized.
type ClassSegment struct {
	Name string // Dotted name for the first segment, simple name afterwards
	Args []TypeArgument
}

// ClassRefType is a class or interface type.
type ClassRefType struct {
	// Name is the dotted binary name of the class, with nested segments
	// joined by '$' ("java.util.Map$Entry").
	Name     string
	Segments []ClassSegment
}

// NewClassRef returns a non-parameterized class type.
func NewClassRef(name string) *ClassRefType {
	return &ClassRefType{Name: name, Segments: []ClassSegment{{Name: name}}}
}

// TypeArguments returns the type arguments of the innermost segment.
func (c *ClassRefType) TypeArguments() []TypeArgument {
	if len(c.Segments) == 0 {
		return nil
	}
	return c.Segments[len(c.Segments)-1].Args
}

// SimpleName returns the name after the last '.' or '$'.
func (c *ClassRefType) SimpleName() string {
	if i := strings.LastIndexAny(c.Name, ".$"); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

func (c *ClassRefType) String() string {
	var sb strings.Builder
	for i, seg := range c.Segments {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Name)
		writeArgs(&sb, seg.Args)
	}
	return sb.String()
}

func (c *ClassRefType) ClassNames() []string {
	var nc nameCollector
	nc.add(c.Name)
	for _, seg := range c.Segments {
		for _, a := range seg.Args {
			if a.Bound != nil {
				nc.addAll(a.Bound.ClassNames())
			}
		}
	}
	return nc.names
}

func (*ClassRefType) isType() {}

// ArrayType is an array of Dims dimensions over a non-array element.
type ArrayType struct {
	Element Type
	Dims    int
}

// NewArray returns an array of dims dimensions over elem. When elem is itself
// an array its dimensions are added, so the result is always flat.
func NewArray(elem Type, dims int) (*ArrayType, error) {
	if dims < 1 {
		return nil, &MalformedSignatureError{Input: elem.String(), Pos: 0, Reason: "array dimension must be at least 1"}
	}
	if inner, ok := elem.(*ArrayType); ok {
		return &ArrayType{Element: inner.Element, Dims: inner.Dims + dims}, nil
	}
	return &ArrayType{Element: elem, Dims: dims}, nil
}

func (a *ArrayType) String() string {
	return a.Element.String() + strings.Repeat("[]", a.Dims)
}

func (a *ArrayType) ClassNames() []string { return a.Element.ClassNames() }
func (*ArrayType) isType()                {}

// TypeVariable references a type parameter by name.
type TypeVariable struct {
	Name string
}

func (v *TypeVariable) String() string     { return v.Name }
func (*TypeVariable) ClassNames() []string { return nil }
func (*TypeVariable) isType()              {}

// WildcardKind classifies a type argument.
type WildcardKind uint8

const (
	// WildcardNone is an exact type argument ("List<String>").
	WildcardNone WildcardKind = iota
	// WildcardAny is the unbounded wildcard "?".
	WildcardAny
	// WildcardExtends is "? extends Bound".
	WildcardExtends
	// WildcardSuper is "? super Bound".
	WildcardSuper
	// WildcardOpaque is an unrecognized bound indicator followed by a bound.
	WildcardOpaque
)

// TypeArgument is one entry of a type argument list.
type TypeArgument struct {
	Wildcard  WildcardKind
	Indicator byte // Raw indicator for WildcardOpaque
	Bound     Type // nil for WildcardAny
}

func (a TypeArgument) String() string {
	switch a.Wildcard {
	case WildcardAny:
		return "?"
	case WildcardExtends:
		return "? extends " + a.Bound.String()
	case WildcardSuper:
		return "? super " + a.Bound.String()
	case WildcardOpaque:
		return "?" + string(rune(a.Indicator)) + " " + a.Bound.String()
	}
	return a.Bound.String()
}

// TypeParameter is a formal type parameter declaration.
type TypeParameter struct {
	Name            string
	ClassBound      Type // nil when only interface bounds are given
	InterfaceBounds []Type
}

func (p TypeParameter) String() string {
	var bounds []string
	if p.ClassBound != nil {
		bounds = append(bounds, p.ClassBound.String())
	}
	for _, b := range p.InterfaceBounds {
		bounds = append(bounds, b.String())
	}
	if len(bounds) == 0 || (len(bounds) == 1 && bounds[0] == "java.lang.Object") {
		return p.Name
	}
	return p.Name + " extends " + strings.Join(bounds, " & ")
}

// ClassNames returns the classes mentioned by the bounds.
func (p TypeParameter) ClassNames() []string {
	var nc nameCollector
	if p.ClassBound != nil {
		nc.addAll(p.ClassBound.ClassNames())
	}
	for _, b := range p.InterfaceBounds {
		nc.addAll(b.ClassNames())
	}
	return nc.names
}

// ClassSignature is the generic signature of a class declaration.
type ClassSignature struct {
	TypeParams []TypeParameter
	Superclass *ClassRefType
	Interfaces []*ClassRefType
}

func (s *ClassSignature) String() string {
	var sb strings.Builder
	writeTypeParams(&sb, s.TypeParams)
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString("extends ")
	sb.WriteString(s.Superclass.String())
	if len(s.Interfaces) > 0 {
		sb.WriteString(" implements ")
		for i, iface := range s.Interfaces {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(iface.String())
		}
	}
	return sb.String()
}

// ClassNames returns every class mentioned by the signature.
func (s *ClassSignature) ClassNames() []string {
	var nc nameCollector
	for _, tp := range s.TypeParams {
		nc.addAll(tp.ClassNames())
	}
	nc.addAll(s.Superclass.ClassNames())
	for _, iface := range s.Interfaces {
		nc.addAll(iface.ClassNames())
	}
	return nc.names
}

// MethodSignature is a parsed method descriptor or generic method signature.
type MethodSignature struct {
	TypeParams []TypeParameter
	Params     []Type
	Return     Type // Void for void methods
	Throws     []Type
}

func (m *MethodSignature) String() string {
	var sb strings.Builder
	writeTypeParams(&sb, m.TypeParams)
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Return.String())
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	if len(m.Throws) > 0 {
		sb.WriteString(" throws ")
		for i, t := range m.Throws {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}

// ClassNames returns every class mentioned by the signature.
func (m *MethodSignature) ClassNames() []string {
	var nc nameCollector
	for _, tp := range m.TypeParams {
		nc.addAll(tp.ClassNames())
	}
	for _, p := range m.Params {
		nc.addAll(p.ClassNames())
	}
	nc.addAll(m.Return.ClassNames())
	for _, t := range m.Throws {
		nc.addAll(t.ClassNames())
	}
	return nc.names
}

func writeArgs(sb *strings.Builder, args []TypeArgument) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte('>')
}

func writeTypeParams(sb *strings.Builder, params []TypeParameter) {
	if len(params) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte('>')
}

type nameCollector struct {
	seen  map[string]bool
	names []string
}

func (nc *nameCollector) add(name string) {
	if nc.seen == nil {
		nc.seen = make(map[string]bool)
	}
	if !nc.seen[name] {
		nc.seen[name] = true
		nc.names = append(nc.names, name)
	}
}

func (nc *nameCollector) addAll(names []string) {
	for _, n := range names {
		nc.add(n)
	}
}
