package classgraph

import (
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// Loader loads classfiles on demand, after a scan has finished.
type Loader interface {
	// LoadClass loads a class by binary name. Array names carry one "[]"
	// suffix per dimension. Failures are *ClassNotAvailableError.
	LoadClass(name string) (*LoadedClass, error)
}

// LoadedClass is the result of an explicit load.
type LoadedClass struct {
	Name       string               // Binary name, "[]"-suffixed for arrays, or a primitive name
	Dimensions int                  // Array dimensions, 0 for non-arrays
	Element    *LoadedClass         // Element class of an array
	File       *classfile.ClassFile // Decoded classfile; nil for arrays and primitives
}

// IsArray reports whether the class is an array class.
func (c *LoadedClass) IsArray() bool { return c.Dimensions > 0 }

// IsPrimitive reports whether the class is a primitive type or void.
func (c *LoadedClass) IsPrimitive() bool { return c.Dimensions == 0 && c.File == nil }

// binding connects the lazy references of one record to the graph that
// absorbed it. Lookups through a binding succeed only after the graph is
// finalized.
type binding struct {
	g *Graph
}

func (b *binding) graph() *Graph {
	if b == nil || b.g == nil || !b.g.finalized {
		return nil
	}
	return b.g
}

func (b *binding) lookup(name string) *ClassInfo {
	g := b.graph()
	if g == nil {
		return nil
	}
	return g.nodes[name]
}

func (b *binding) load(name string) (*LoadedClass, error) {
	g := b.graph()
	if g == nil || g.loader == nil {
		return nil, &ClassNotAvailableError{Name: name, Err: ErrNotBound}
	}
	return g.loader.LoadClass(name)
}

// ClassRef is a class literal ("Foo.class", "int[].class") from an annotation
// value. It holds only the name of the class until it is resolved.
type ClassRef struct {
	elem string // dotted element class name or primitive name
	dims int
	prim bool
	bind *binding
}

func (*ClassRef) Kind() ValueKind { return ValueClassRef }
func (*ClassRef) isValue()        {}

// newClassRef builds a reference from a return descriptor ("Lcom/x/Foo;",
// "[I", "V").
func newClassRef(desc string, b *binding) (*ClassRef, error) {
	if desc == "V" {
		return &ClassRef{elem: "void", prim: true, bind: b}, nil
	}
	t, err := signature.ParseTypeDescriptor(desc)
	if err != nil {
		return nil, err
	}
	r := &ClassRef{bind: b}
	if arr, ok := t.(*signature.ArrayType); ok {
		r.dims = arr.Dims
		t = arr.Element
	}
	switch t := t.(type) {
	case signature.BaseType:
		r.elem = t.String()
		r.prim = true
	case *signature.ClassRefType:
		r.elem = t.Name
	}
	return r, nil
}

// Name returns the class name, with one "[]" per array dimension.
func (r *ClassRef) Name() string { return r.elem + strings.Repeat("[]", r.dims) }

// ElementName returns the name of the class without array dimensions.
func (r *ClassRef) ElementName() string { return r.elem }

// Dimensions returns the array dimension count, 0 for non-array classes.
func (r *ClassRef) Dimensions() int { return r.dims }

// IsPrimitive reports whether the element type is a primitive or void.
func (r *ClassRef) IsPrimitive() bool { return r.prim }

func (r *ClassRef) String() string { return r.Name() + ".class" }

// ClassInfo returns the node of the referenced class, or of the element
// class for arrays. It returns nil for primitives and before the graph is
// finalized. Classes outside the scan resolve to external nodes.
func (r *ClassRef) ClassInfo() *ClassInfo {
	if r.prim {
		return nil
	}
	return r.bind.lookup(r.elem)
}

// ArrayClassInfo returns an array view of the reference, or nil when the
// reference is not an array.
func (r *ClassRef) ArrayClassInfo() *ArrayClassInfo {
	if r.dims == 0 {
		return nil
	}
	var elem signature.Type
	if r.prim {
		elem = primitiveByName[r.elem]
	} else {
		elem = signature.NewClassRef(r.elem)
	}
	return &ArrayClassInfo{typ: &signature.ArrayType{Element: elem, Dims: r.dims}, bind: r.bind}
}

// LoadClass loads the referenced class through the graph's loader.
func (r *ClassRef) LoadClass() (*LoadedClass, error) {
	if r.prim && r.dims == 0 {
		return nil, &ClassNotAvailableError{Name: r.elem, Err: ErrPrimitive}
	}
	return r.bind.load(r.Name())
}

var primitiveByName = map[string]signature.BaseType{
	"byte":    signature.Byte,
	"char":    signature.Char,
	"double":  signature.Double,
	"float":   signature.Float,
	"int":     signature.Int,
	"long":    signature.Long,
	"short":   signature.Short,
	"boolean": signature.Boolean,
	"void":    signature.Void,
}
