package classgraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/classscan/pkg/signature"
)

// ValueKind identifies the variant of a [Value].
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValuePrimitive
	ValueString
	ValueEnum
	ValueClassRef
	ValueNested
	ValueArray
)

var valueKindNames = [...]string{"invalid", "primitive", "string", "enum", "class", "annotation", "array"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a resolved annotation parameter value. The implementations are
// [Primitive], [String], [EnumValue], [*ClassRef], [*AnnotationInfo] and
// [*Array]; no other type implements Value.
type Value interface {
	Kind() ValueKind
	// String renders the value as it would appear in Java source.
	String() string

	isValue()
}

// Primitive is a primitive constant. V holds a bool, int8, rune (char),
// int16, int32, int64, float32 or float64 matching Type.
type Primitive struct {
	Type signature.BaseType
	V    any
}

func (Primitive) Kind() ValueKind { return ValuePrimitive }
func (Primitive) isValue()        {}

func (p Primitive) String() string {
	switch v := p.V.(type) {
	case rune:
		return strconv.QuoteRune(v)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f"
	default:
		return fmt.Sprint(v)
	}
}

// String is a string constant.
type String string

func (String) Kind() ValueKind  { return ValueString }
func (String) isValue()         {}
func (s String) String() string { return strconv.Quote(string(s)) }

// EnumValue is a reference to an enum constant.
type EnumValue struct {
	TypeName string // Dotted name of the enum class
	Constant string
}

func (EnumValue) Kind() ValueKind  { return ValueEnum }
func (EnumValue) isValue()         {}
func (e EnumValue) String() string { return e.TypeName + "." + e.Constant }

// Array is an array value. All elements share ElemKind; an empty array has
// ElemKind ValueInvalid because the encoding carries no element type.
type Array struct {
	ElemKind ValueKind
	Elems    []Value
}

func (*Array) Kind() ValueKind { return ValueArray }
func (*Array) isValue()        {}

func (a *Array) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elems) }

// ClassRefs returns the elements as class references. It returns nil when
// the array holds anything else.
func (a *Array) ClassRefs() []*ClassRef {
	if a.ElemKind != ValueClassRef {
		return nil
	}
	refs := make([]*ClassRef, len(a.Elems))
	for i, e := range a.Elems {
		refs[i] = e.(*ClassRef)
	}
	return refs
}

// walkValue calls fn for v and, for arrays and nested annotations, for every
// value below it.
func walkValue(v Value, fn func(Value)) {
	fn(v)
	switch v := v.(type) {
	case *Array:
		for _, e := range v.Elems {
			walkValue(e, fn)
		}
	case *AnnotationInfo:
		for _, p := range v.Params {
			walkValue(p.Value, fn)
		}
	case Primitive, String, EnumValue, *ClassRef:
	}
}
