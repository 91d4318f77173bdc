package classgraph

import (
	"fmt"
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// ParameterValue is a named annotation parameter.
type ParameterValue struct {
	Name  string
	Value Value
}

// AnnotationInfo is an annotation instance attached to a class, member or
// parameter, or nested inside another annotation's value.
type AnnotationInfo struct {
	TypeName string // Dotted name of the annotation type
	Visible  bool   // RUNTIME retention
	Params   []ParameterValue

	bind *binding
}

func (*AnnotationInfo) Kind() ValueKind { return ValueNested }
func (*AnnotationInfo) isValue()        {}

// Param returns the value of the named parameter as encoded. Defaults are
// not consulted.
func (a *AnnotationInfo) Param(name string) (Value, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// ClassInfo returns the node of the annotation type, or nil before the
// graph is finalized.
func (a *AnnotationInfo) ClassInfo() *ClassInfo { return a.bind.lookup(a.TypeName) }

// ParamsWithDefaults returns the encoded parameters followed by the defaults
// declared by the annotation type for parameters that were not encoded, in
// the type's method order. Defaults are only available when the annotation
// type was scanned.
func (a *AnnotationInfo) ParamsWithDefaults() []ParameterValue {
	out := append([]ParameterValue(nil), a.Params...)
	typ := a.ClassInfo()
	if typ == nil || !typ.IsResolved() {
		return out
	}
	for _, m := range typ.Methods {
		if m.Default == nil {
			continue
		}
		if _, ok := a.Param(m.Name); !ok {
			out = append(out, ParameterValue{Name: m.Name, Value: m.Default})
		}
	}
	return out
}

func (a *AnnotationInfo) String() string {
	var sb strings.Builder
	sb.WriteByte('@')
	sb.WriteString(a.TypeName)
	if len(a.Params) == 0 {
		return sb.String()
	}
	sb.WriteByte('(')
	for i, p := range a.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// ResolveParameters converts encoded annotation parameters to values,
// keeping declaration order. Class literals become unbound [*ClassRef]
// values; nothing is loaded.
func ResolveParameters(raw []classfile.ElementValuePair) ([]ParameterValue, error) {
	return resolveParameters(raw, &binding{})
}

func resolveParameters(raw []classfile.ElementValuePair, b *binding) ([]ParameterValue, error) {
	out := make([]ParameterValue, 0, len(raw))
	for _, p := range raw {
		v, err := resolveValue(p.Value, b)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out = append(out, ParameterValue{Name: p.Name, Value: v})
	}
	return out, nil
}

func resolveAnnotation(a *classfile.Annotation, b *binding) (*AnnotationInfo, error) {
	params, err := resolveParameters(a.Pairs, b)
	if err != nil {
		return nil, fmt.Errorf("@%s: %w", a.TypeName(), err)
	}
	return &AnnotationInfo{TypeName: a.TypeName(), Visible: a.Visible, Params: params, bind: b}, nil
}

func resolveAnnotations(anns []*classfile.Annotation, b *binding) ([]*AnnotationInfo, error) {
	if len(anns) == 0 {
		return nil, nil
	}
	out := make([]*AnnotationInfo, 0, len(anns))
	for _, a := range anns {
		info, err := resolveAnnotation(a, b)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func resolveValue(ev classfile.ElementValue, b *binding) (Value, error) {
	switch ev.Tag {
	case classfile.TagValByte, classfile.TagValChar, classfile.TagValShort, classfile.TagValInt, classfile.TagValBoolean:
		n, ok := ev.Const.(int32)
		if !ok {
			return nil, fmt.Errorf("tag %q holds %T", ev.Tag, ev.Const)
		}
		switch ev.Tag {
		case classfile.TagValByte:
			return Primitive{Type: signature.Byte, V: int8(n)}, nil
		case classfile.TagValChar:
			return Primitive{Type: signature.Char, V: rune(uint16(n))}, nil
		case classfile.TagValShort:
			return Primitive{Type: signature.Short, V: int16(n)}, nil
		case classfile.TagValBoolean:
			return Primitive{Type: signature.Boolean, V: n != 0}, nil
		}
		return Primitive{Type: signature.Int, V: n}, nil
	case classfile.TagValLong:
		n, ok := ev.Const.(int64)
		if !ok {
			return nil, fmt.Errorf("tag %q holds %T", ev.Tag, ev.Const)
		}
		return Primitive{Type: signature.Long, V: n}, nil
	case classfile.TagValFloat:
		f, ok := ev.Const.(float32)
		if !ok {
			return nil, fmt.Errorf("tag %q holds %T", ev.Tag, ev.Const)
		}
		return Primitive{Type: signature.Float, V: f}, nil
	case classfile.TagValDouble:
		f, ok := ev.Const.(float64)
		if !ok {
			return nil, fmt.Errorf("tag %q holds %T", ev.Tag, ev.Const)
		}
		return Primitive{Type: signature.Double, V: f}, nil
	case classfile.TagValString:
		s, ok := ev.Const.(string)
		if !ok {
			return nil, fmt.Errorf("tag %q holds %T", ev.Tag, ev.Const)
		}
		return String(s), nil
	case classfile.TagValEnum:
		return EnumValue{TypeName: descriptorClassName(ev.EnumType), Constant: ev.EnumName}, nil
	case classfile.TagValClass:
		return newClassRef(ev.ClassInfo, b)
	case classfile.TagValAnnotation:
		if ev.Annotation == nil {
			return nil, fmt.Errorf("nested annotation missing")
		}
		return resolveAnnotation(ev.Annotation, b)
	case classfile.TagValArray:
		arr := &Array{Elems: make([]Value, 0, len(ev.Array))}
		for i, e := range ev.Array {
			v, err := resolveValue(e, b)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if i == 0 {
				arr.ElemKind = v.Kind()
			} else if v.Kind() != arr.ElemKind {
				return nil, fmt.Errorf("element %d is %s, array holds %s", i, v.Kind(), arr.ElemKind)
			}
			arr.Elems = append(arr.Elems, v)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unknown element value tag %q", ev.Tag)
}

// descriptorClassName converts "Lcom/example/Foo;" to "com.example.Foo".
// Other input is returned with slashes converted.
func descriptorClassName(desc string) string {
	if len(desc) >= 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		desc = desc[1 : len(desc)-1]
	}
	return classfile.BinaryName(desc)
}
