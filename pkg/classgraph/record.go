package classgraph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// RecordOptions configures [BuildRecord].
type RecordOptions struct {
	// ConstantPoolDependencies adds an [EdgeConstantPool] reference for every
	// class the constant pool mentions, which covers classes used only in
	// method bodies.
	ConstantPoolDependencies bool
}

// Reference is an outgoing reference of a record.
type Reference struct {
	Name  string
	Kinds EdgeKind
}

// Record is a decorated classfile ready to be merged into a [Graph].
type Record struct {
	Class *ClassInfo
	Refs  []Reference // Sorted by name, one entry per referenced class

	// Order is the position of the unit in the scan; when two units define
	// the same class the lower Order wins.
	Order int

	bind *binding
}

// BuildRecord decorates a decoded classfile: it parses descriptors and
// signatures, resolves annotation values, and collects the classes the
// class references. It has no side effects and is safe to call
// concurrently.
//
// A malformed signature is recorded on the member (SignatureErr) and the
// descriptor is used instead; a malformed descriptor is recorded as the
// member's Defect. Annotation values that cannot be resolved make the whole
// classfile malformed.
func BuildRecord(cf *classfile.ClassFile, opts RecordOptions) (*Record, error) {
	b := &binding{}
	info := &ClassInfo{
		Name:           cf.Name,
		Kind:           classKind(cf),
		State:          StateResolved,
		Modifiers:      cf.AccessFlags,
		SuperclassName: cf.SuperName,
		InterfaceNames: slices.Clone(cf.Interfaces),
		Resource:       cf.Resource,
		SourceFile:     cf.SourceFile,
		MajorVersion:   cf.MajorVersion,
	}
	refs := make(refSet)
	refs.add(cf.SuperName, EdgeSuperclass)
	for _, iface := range cf.Interfaces {
		refs.add(iface, EdgeInterface)
	}

	if cf.Signature != "" {
		sig, err := signature.ParseClassSignature(cf.Signature)
		if err != nil {
			info.SignatureErr = err
		} else {
			info.Signature = sig
			refs.addAll(sig.Superclass.ClassNames(), EdgeSuperclass)
			for _, iface := range sig.Interfaces {
				refs.addAll(iface.ClassNames(), EdgeInterface)
			}
			for _, tp := range sig.TypeParams {
				refs.addAll(tp.ClassNames(), EdgeTypeBound)
			}
		}
	}

	for _, ic := range cf.InnerClasses {
		if ic.Inner == cf.Name {
			info.OuterClassName = ic.Outer
			break
		}
	}

	fail := func(what string, err error) error {
		return &classfile.MalformedClassError{Resource: cf.Resource, Offset: -1, Reason: what, Err: err}
	}

	var err error
	if info.Annotations, err = resolveAnnotations(cf.Annotations, b); err != nil {
		return nil, fail("class annotation", err)
	}
	refs.addAnnotations(info.Annotations)

	for _, f := range cf.Fields {
		fi, err := buildField(cf.Name, f, b, refs)
		if err != nil {
			return nil, fail("field "+f.Name, err)
		}
		info.Fields = append(info.Fields, fi)
	}
	for _, m := range cf.Methods {
		mi, err := buildMethod(cf.Name, m, b, refs)
		if err != nil {
			return nil, fail("method "+m.Name+m.Descriptor, err)
		}
		info.Methods = append(info.Methods, mi)
	}

	if opts.ConstantPoolDependencies {
		refs.addAll(cf.ConstantPoolClassRefs(), EdgeConstantPool)
	}
	delete(refs, cf.Name)

	return &Record{Class: info, Refs: refs.sorted(), bind: b}, nil
}

// NewRecord builds a record from metadata that did not come from a
// classfile, such as an imported snapshot. Annotations on info are bound to
// the graph the record is merged into. Refs are deduplicated by name.
func NewRecord(info *ClassInfo, refs []Reference, order int) *Record {
	b := &binding{}
	for _, a := range info.Annotations {
		a.bind = b
	}
	set := make(refSet)
	for _, r := range refs {
		set.add(r.Name, r.Kinds)
	}
	delete(set, info.Name)
	return &Record{Class: info, Refs: set.sorted(), Order: order, bind: b}
}

func buildField(owner string, f *classfile.Member, b *binding, refs refSet) (*FieldInfo, error) {
	fi := &FieldInfo{
		ClassName:     owner,
		Name:          f.Name,
		Modifiers:     f.AccessFlags,
		Descriptor:    f.Descriptor,
		ConstantValue: f.ConstantValue,
		bind:          b,
	}
	if t, err := signature.ParseTypeDescriptor(f.Descriptor); err != nil {
		fi.Defect = err
	} else {
		fi.Type = t
		refs.addAll(t.ClassNames(), EdgeField)
	}
	if f.Signature != "" {
		if t, err := signature.ParseTypeSignature(f.Signature); err != nil {
			fi.SignatureErr = err
		} else {
			fi.GenericType = t
			refs.addAll(t.ClassNames(), EdgeField)
		}
	}
	var err error
	if fi.Annotations, err = resolveAnnotations(f.Annotations, b); err != nil {
		return nil, err
	}
	refs.addAnnotations(fi.Annotations)
	return fi, nil
}

func buildMethod(owner string, m *classfile.Member, b *binding, refs refSet) (*MethodInfo, error) {
	mi := &MethodInfo{
		ClassName:  owner,
		Name:       m.Name,
		Modifiers:  m.AccessFlags,
		Descriptor: m.Descriptor,
		Exceptions: slices.Clone(m.Exceptions),
		bind:       b,
	}
	for _, e := range m.Exceptions {
		refs.add(e, EdgeMethodThrows)
	}

	desc, err := signature.ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		mi.Defect = err
	} else {
		mi.Type = desc
		mi.Parameters = make([]*MethodParameterInfo, len(desc.Params))
		for i, t := range desc.Params {
			mi.Parameters[i] = &MethodParameterInfo{Type: t, bind: b}
			refs.addAll(t.ClassNames(), EdgeMethodParam)
		}
		refs.addAll(desc.Return.ClassNames(), EdgeMethodReturn)
	}

	if m.Signature != "" {
		gs, err := signature.ParseMethodSignature(m.Signature)
		switch {
		case err != nil:
			mi.SignatureErr = err
		case desc != nil && len(gs.Params) > len(desc.Params):
			mi.SignatureErr = fmt.Errorf("signature %q declares %d parameters, descriptor %d", m.Signature, len(gs.Params), len(desc.Params))
		default:
			mi.GenericType = gs
			// Synthetic leading parameters (outer instance, enum name and
			// ordinal) appear only in the descriptor.
			if desc != nil {
				off := len(desc.Params) - len(gs.Params)
				for j, t := range gs.Params {
					mi.Parameters[off+j].GenericType = t
				}
			}
			for _, t := range gs.Params {
				refs.addAll(t.ClassNames(), EdgeMethodParam)
			}
			refs.addAll(gs.Return.ClassNames(), EdgeMethodReturn)
			for _, t := range gs.Throws {
				refs.addAll(t.ClassNames(), EdgeMethodThrows)
			}
			for _, tp := range gs.TypeParams {
				refs.addAll(tp.ClassNames(), EdgeTypeBound)
			}
		}
	}

	if mi.Annotations, err = resolveAnnotations(m.Annotations, b); err != nil {
		return nil, err
	}
	refs.addAnnotations(mi.Annotations)

	n := len(mi.Parameters)
	if off := n - len(m.Parameters); off >= 0 {
		for j, p := range m.Parameters {
			mi.Parameters[off+j].Name = p.Name
			mi.Parameters[off+j].Modifiers = p.AccessFlags
		}
	}
	if off := n - len(m.ParameterAnnotations); off >= 0 {
		for j, anns := range m.ParameterAnnotations {
			resolved, err := resolveAnnotations(anns, b)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: %w", off+j, err)
			}
			mi.Parameters[off+j].Annotations = resolved
			refs.addAnnotations(resolved)
		}
	}

	if m.AnnotationDefault != nil {
		v, err := resolveValue(*m.AnnotationDefault, b)
		if err != nil {
			return nil, fmt.Errorf("default value: %w", err)
		}
		mi.Default = v
		refs.addValue(v)
	}
	return mi, nil
}

// refSet accumulates referenced class names with the union of their edge kinds.
type refSet map[string]EdgeKind

func (s refSet) add(name string, kind EdgeKind) {
	if name != "" {
		s[name] |= kind
	}
}

func (s refSet) addAll(names []string, kind EdgeKind) {
	for _, n := range names {
		s.add(n, kind)
	}
}

func (s refSet) addAnnotations(anns []*AnnotationInfo) {
	for _, a := range anns {
		s.add(a.TypeName, EdgeAnnotation)
		for _, p := range a.Params {
			s.addValue(p.Value)
		}
	}
}

// addValue records the classes named inside an annotation value. Array
// elements are flattened.
func (s refSet) addValue(v Value) {
	walkValue(v, func(v Value) {
		switch v := v.(type) {
		case *ClassRef:
			if !v.IsPrimitive() {
				s.add(v.ElementName(), EdgeAnnotationParam)
			}
		case EnumValue:
			s.add(v.TypeName, EdgeAnnotationParam)
		case *AnnotationInfo:
			s.add(v.TypeName, EdgeAnnotationParam)
		case Primitive, String, *Array:
		}
	})
}

func (s refSet) sorted() []Reference {
	out := make([]Reference, 0, len(s))
	for _, name := range slices.Sorted(maps.Keys(s)) {
		out = append(out, Reference{Name: name, Kinds: s[name]})
	}
	return out
}
