package classfile

import (
	"fmt"
)

const (
	// Magic is the first four bytes of every classfile.
	Magic uint32 = 0xCAFEBABE

	// MinMajorVersion is the oldest supported classfile version (JDK 1.0.2).
	MinMajorVersion uint16 = 45

	// MaxMajorVersion is the newest supported classfile version (Java 25).
	MaxMajorVersion uint16 = 69

	// maxNesting bounds annotation and element-value recursion.
	maxNesting = 64
)

// Options configures decoding.
type Options struct {
	// CheckName rejects classes whose declared name disagrees with the name
	// implied by the resource path with a [*NameMismatchError].
	CheckName bool

	// IncludeInvisibleAnnotations also decodes the RuntimeInvisible*
	// annotation attributes (CLASS retention). By default only
	// RUNTIME-retention annotations are returned.
	IncludeInvisibleAnnotations bool
}

// ClassFile is the decoded form of one classfile.
type ClassFile struct {
	Resource     string      // Resource path the bytes were read from
	MinorVersion uint16      // minor_version
	MajorVersion uint16      // major_version
	AccessFlags  AccessFlags // Class access flags
	Name         string      // Dotted binary name of this class
	SuperName    string      // Dotted name of the superclass ("" for java.lang.Object and modules)
	Interfaces   []string    // Dotted names of direct superinterfaces, in declaration order
	Signature    string      // Generic class signature ("" if absent)
	SourceFile   string      // SourceFile attribute ("" if absent)
	IsRecord     bool        // A Record attribute is present
	Fields       []*Member
	Methods      []*Member
	Annotations  []*Annotation
	InnerClasses []InnerClass

	classRefs []string
}

// ConstantPoolClassRefs returns the dotted names of every class the constant
// pool mentions through Class entries and member descriptors, in pool order.
// It includes the class itself.
func (c *ClassFile) ConstantPoolClassRefs() []string { return c.classRefs }

// Member is a field or method.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string // Erased descriptor, always present
	Signature   string // Generic signature ("" if absent)

	Annotations []*Annotation

	// Methods only.
	ParameterAnnotations [][]*Annotation   // Indexed by parameter position as encoded
	Parameters           []MethodParameter // MethodParameters attribute (may be empty)
	AnnotationDefault    *ElementValue     // Default of an annotation-type element
	Exceptions           []string          // Dotted names from the Exceptions attribute

	// Fields only.
	ConstantValue any // int32, int64, float32, float64 or string
}

// MethodParameter is one entry of a MethodParameters attribute.
type MethodParameter struct {
	Name        string // "" when the compiler did not record a name
	AccessFlags AccessFlags
}

// InnerClass is one entry of the InnerClasses attribute.
type InnerClass struct {
	Inner       string // Dotted name of the nested class
	Outer       string // Dotted name of the enclosing class ("" for local/anonymous)
	SimpleName  string // Source simple name ("" for anonymous)
	AccessFlags AccessFlags
}

// Annotation is an annotation instance as encoded in the classfile.
type Annotation struct {
	TypeDescriptor string // Field descriptor of the annotation type ("Lcom/example/Ann;")
	Visible        bool   // RUNTIME retention (RuntimeVisible*Annotations)
	Pairs          []ElementValuePair
}

// TypeName returns the dotted name of the annotation type.
func (a *Annotation) TypeName() string {
	d := a.TypeDescriptor
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		return BinaryName(d[1 : len(d)-1])
	}
	return BinaryName(d)
}

// ElementValuePair is a named annotation parameter in declaration order.
type ElementValuePair struct {
	Name  string
	Value ElementValue
}

// Element value tags.
const (
	TagValByte       = 'B'
	TagValChar       = 'C'
	TagValDouble     = 'D'
	TagValFloat      = 'F'
	TagValInt        = 'I'
	TagValLong       = 'J'
	TagValShort      = 'S'
	TagValBoolean    = 'Z'
	TagValString     = 's'
	TagValEnum       = 'e'
	TagValClass      = 'c'
	TagValAnnotation = '@'
	TagValArray      = '['
)

// ElementValue is an encoded annotation parameter value. Which fields are
// set depends on Tag.
type ElementValue struct {
	Tag        byte
	Const      any            // B C I S Z: int32; J: int64; F: float32; D: float64; s: string
	EnumType   string         // e: field descriptor of the enum type
	EnumName   string         // e: constant name
	ClassInfo  string         // c: return descriptor ("Lcom/example/X;", "[I", "V")
	Annotation *Annotation    // @
	Array      []ElementValue // [
}

// Parse decodes a classfile. The resource is used for error reporting and
// for the name check.
func Parse(resource string, data []byte, opts Options) (*ClassFile, error) {
	r := newReader(resource, data)

	if magic := r.u4(); r.err == nil && magic != Magic {
		return nil, &MalformedClassError{Resource: resource, Offset: 0, Reason: fmt.Sprintf("bad magic 0x%08X", magic)}
	}
	minor := r.u2()
	major := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if major < MinMajorVersion || major > MaxMajorVersion {
		return nil, &UnsupportedVersionError{Resource: resource, Major: major, Minor: minor}
	}

	cp := readConstantPool(r)
	if r.err != nil {
		return nil, r.err
	}

	p := &parser{r: r, cp: cp, opts: opts}
	cf := &ClassFile{
		Resource:     resource,
		MinorVersion: minor,
		MajorVersion: major,
	}
	if err := p.readClass(cf); err != nil {
		return nil, err
	}

	if r.remaining() > 0 {
		return nil, &MalformedClassError{Resource: resource, Offset: r.pos(), Reason: fmt.Sprintf("%d trailing bytes", r.remaining())}
	}

	if opts.CheckName {
		if want := ResourceClassName(resource); want != "" && want != cf.Name {
			return nil, &NameMismatchError{Resource: resource, Expected: want, Declared: cf.Name}
		}
	}

	cf.classRefs = cp.referencedClasses()
	return cf, nil
}
