package classgraph

import (
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// FieldInfo describes a declared field.
type FieldInfo struct {
	ClassName   string // Declaring class
	Name        string
	Modifiers   classfile.AccessFlags
	Descriptor  string
	Type        signature.Type // Parsed descriptor; nil when Defect is set
	GenericType signature.Type // Parsed signature; nil when absent or malformed
	Annotations []*AnnotationInfo

	// ConstantValue is the initializer of a static final constant:
	// int32, int64, float32, float64 or string.
	ConstantValue any

	SignatureErr error // Malformed signature, the descriptor is used instead
	Defect       error // Malformed descriptor

	bind *binding
}

// TypeSignature returns the generic type when present, otherwise the
// erased descriptor type.
func (f *FieldInfo) TypeSignature() signature.Type {
	if f.GenericType != nil {
		return f.GenericType
	}
	return f.Type
}

// ArrayClassInfo returns an array view of the field type, or nil when the
// field is not an array.
func (f *FieldInfo) ArrayClassInfo() *ArrayClassInfo {
	return arrayInfo(f.GenericType, f.Type, f.bind)
}

// HasAnnotation reports whether the field carries an annotation of the given type.
func (f *FieldInfo) HasAnnotation(typeName string) bool {
	return findAnnotation(f.Annotations, typeName) != nil
}

func (f *FieldInfo) String() string {
	var sb strings.Builder
	if mods := f.Modifiers.FieldModifiers(); mods != "" {
		sb.WriteString(mods)
		sb.WriteByte(' ')
	}
	if t := f.TypeSignature(); t != nil {
		sb.WriteString(t.String())
	} else {
		sb.WriteString(f.Descriptor)
	}
	sb.WriteByte(' ')
	sb.WriteString(f.Name)
	return sb.String()
}

// MethodParameterInfo describes one method parameter.
type MethodParameterInfo struct {
	Name        string // "" unless compiled with -parameters
	Modifiers   classfile.AccessFlags
	Type        signature.Type // From the descriptor
	GenericType signature.Type // From the signature; nil for synthetic parameters or when absent
	Annotations []*AnnotationInfo

	bind *binding
}

// TypeSignature returns the generic type when present, otherwise the
// erased descriptor type.
func (p *MethodParameterInfo) TypeSignature() signature.Type {
	if p.GenericType != nil {
		return p.GenericType
	}
	return p.Type
}

// ArrayClassInfo returns an array view of the parameter type, or nil when
// the parameter is not an array.
func (p *MethodParameterInfo) ArrayClassInfo() *ArrayClassInfo {
	return arrayInfo(p.GenericType, p.Type, p.bind)
}

// HasAnnotation reports whether the parameter carries an annotation of the given type.
func (p *MethodParameterInfo) HasAnnotation(typeName string) bool {
	return findAnnotation(p.Annotations, typeName) != nil
}

// MethodInfo describes a declared method or constructor.
type MethodInfo struct {
	ClassName   string // Declaring class
	Name        string
	Modifiers   classfile.AccessFlags
	Descriptor  string
	Type        *signature.MethodSignature // Parsed descriptor; nil when Defect is set
	GenericType *signature.MethodSignature // Parsed signature; nil when absent or malformed
	Parameters  []*MethodParameterInfo
	Annotations []*AnnotationInfo
	Exceptions  []string // Declared checked exceptions
	Default     Value    // Default of an annotation type element; nil otherwise

	SignatureErr error // Malformed signature, the descriptor is used instead
	Defect       error // Malformed descriptor

	bind *binding
}

// IsConstructor reports whether the method is an instance initializer.
func (m *MethodInfo) IsConstructor() bool { return m.Name == "<init>" }

// IsStaticInitializer reports whether the method is a class initializer.
func (m *MethodInfo) IsStaticInitializer() bool { return m.Name == "<clinit>" }

// TypeSignature returns the generic signature when present, otherwise the
// parsed descriptor.
func (m *MethodInfo) TypeSignature() *signature.MethodSignature {
	if m.GenericType != nil {
		return m.GenericType
	}
	return m.Type
}

// ReturnType returns the generic return type when present, otherwise the
// erased return type. It returns nil for defective methods.
func (m *MethodInfo) ReturnType() signature.Type {
	if s := m.TypeSignature(); s != nil {
		return s.Return
	}
	return nil
}

// HasAnnotation reports whether the method carries an annotation of the given type.
func (m *MethodInfo) HasAnnotation(typeName string) bool {
	return findAnnotation(m.Annotations, typeName) != nil
}

// HasParameterAnnotation reports whether any parameter carries an annotation
// of the given type.
func (m *MethodInfo) HasParameterAnnotation(typeName string) bool {
	for _, p := range m.Parameters {
		if p.HasAnnotation(typeName) {
			return true
		}
	}
	return false
}

func (m *MethodInfo) String() string {
	var sb strings.Builder
	if mods := m.Modifiers.MethodModifiers(); mods != "" {
		sb.WriteString(mods)
		sb.WriteByte(' ')
	}
	if m.Type == nil {
		sb.WriteString(m.Name)
		sb.WriteString(m.Descriptor)
		return sb.String()
	}
	if !m.IsConstructor() {
		sb.WriteString(m.ReturnType().String())
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i, p := range m.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.TypeSignature().String())
		if p.Name != "" {
			sb.WriteByte(' ')
			sb.WriteString(p.Name)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func arrayInfo(generic, erased signature.Type, b *binding) *ArrayClassInfo {
	if arr, ok := generic.(*signature.ArrayType); ok {
		// T[] is reported through its erasure, which names a class.
		if _, isVar := arr.Element.(*signature.TypeVariable); !isVar {
			return newArrayClassInfo(arr, b)
		}
	}
	return newArrayClassInfo(erased, b)
}

func findAnnotation(anns []*AnnotationInfo, typeName string) *AnnotationInfo {
	for _, a := range anns {
		if a.TypeName == typeName {
			return a
		}
	}
	return nil
}
