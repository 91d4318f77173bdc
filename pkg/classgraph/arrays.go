package classgraph

import (
	"github.com/matzehuels/classscan/pkg/signature"
)

// ArrayClassInfo is a view of an array type as element plus dimension
// count. Resolving it never changes the graph.
type ArrayClassInfo struct {
	typ  *signature.ArrayType
	bind *binding
}

func newArrayClassInfo(t signature.Type, b *binding) *ArrayClassInfo {
	arr, ok := t.(*signature.ArrayType)
	if !ok {
		return nil
	}
	return &ArrayClassInfo{typ: arr, bind: b}
}

// Type returns the underlying array type.
func (a *ArrayClassInfo) Type() *signature.ArrayType { return a.typ }

// Dimensions returns the number of dimensions, always at least 1.
func (a *ArrayClassInfo) Dimensions() int { return a.typ.Dims }

// ElementType returns the element type, which is never an array.
func (a *ArrayClassInfo) ElementType() signature.Type { return a.typ.Element }

// Name returns the Java source name of the array class ("com.example.X[]").
func (a *ArrayClassInfo) Name() string { return a.ElementClassName() + brackets(a.typ.Dims) }

// ElementClassName returns the dotted name of the element class, the
// primitive name for primitive arrays, or the variable name for arrays of a
// type variable.
func (a *ArrayClassInfo) ElementClassName() string {
	switch e := a.typ.Element.(type) {
	case *signature.ClassRefType:
		return e.Name
	case signature.BaseType:
		return e.String()
	case *signature.TypeVariable:
		return e.Name
	}
	return ""
}

// IsPrimitiveArray reports whether the element type is primitive.
func (a *ArrayClassInfo) IsPrimitiveArray() bool {
	_, ok := a.typ.Element.(signature.BaseType)
	return ok
}

// ElementClassInfo returns the node of the element class. It returns nil for
// primitive and type-variable elements and before the graph is finalized.
func (a *ArrayClassInfo) ElementClassInfo() *ClassInfo {
	e, ok := a.typ.Element.(*signature.ClassRefType)
	if !ok {
		return nil
	}
	return a.bind.lookup(e.Name)
}

// LoadClass loads the array class.
func (a *ArrayClassInfo) LoadClass() (*LoadedClass, error) {
	if _, ok := a.typ.Element.(*signature.TypeVariable); ok {
		return nil, &ClassNotAvailableError{Name: a.Name(), Err: errTypeVariable}
	}
	return a.bind.load(a.Name())
}

// LoadElementClass loads the element class.
func (a *ArrayClassInfo) LoadElementClass() (*LoadedClass, error) {
	switch a.typ.Element.(type) {
	case signature.BaseType:
		return nil, &ClassNotAvailableError{Name: a.ElementClassName(), Err: ErrPrimitive}
	case *signature.TypeVariable:
		return nil, &ClassNotAvailableError{Name: a.ElementClassName(), Err: errTypeVariable}
	}
	return a.bind.load(a.ElementClassName())
}

func (a *ArrayClassInfo) String() string { return a.typ.String() }

func brackets(n int) string {
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		b = append(b, '[', ']')
	}
	return string(b)
}
