package classfile

import (
	"fmt"
)

// parser decodes the part of the classfile that follows the constant pool.
type parser struct {
	r    *reader
	cp   *constantPool
	opts Options
}

func (p *parser) malformed(r *reader, reason string, err error) error {
	return &MalformedClassError{Resource: r.resource, Offset: r.pos(), Reason: reason, Err: err}
}

func (p *parser) utf8(r *reader, idx uint16, what string) (string, error) {
	s, err := p.cp.utf8(idx)
	if err != nil {
		return "", p.malformed(r, what, err)
	}
	return s, nil
}

func (p *parser) className(r *reader, idx uint16, what string) (string, error) {
	s, err := p.cp.className(idx)
	if err != nil {
		return "", p.malformed(r, what, err)
	}
	return BinaryName(s), nil
}

func (p *parser) readClass(cf *ClassFile) error {
	r := p.r
	cf.AccessFlags = AccessFlags(r.u2())
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return r.err
	}

	name, err := p.className(r, thisIdx, "this_class")
	if err != nil {
		return err
	}
	cf.Name = name

	if superIdx != 0 {
		if cf.SuperName, err = p.className(r, superIdx, "super_class"); err != nil {
			return err
		}
	}

	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		iface, err := p.className(r, r.u2(), "interfaces")
		if r.err != nil {
			break
		}
		if err != nil {
			return err
		}
		cf.Interfaces = append(cf.Interfaces, iface)
	}
	if r.err != nil {
		return r.err
	}

	if cf.Fields, err = p.readMembers(false); err != nil {
		return err
	}
	if cf.Methods, err = p.readMembers(true); err != nil {
		return err
	}

	return p.readAttributes(r, func(name string, ar *reader) error {
		switch name {
		case "Signature":
			s, err := p.utf8(ar, ar.u2(), "Signature")
			cf.Signature = s
			return err
		case "SourceFile":
			s, err := p.utf8(ar, ar.u2(), "SourceFile")
			cf.SourceFile = s
			return err
		case "Record":
			cf.IsRecord = true
			ar.off = len(ar.buf)
			return nil
		case "InnerClasses":
			inner, err := p.readInnerClasses(ar)
			cf.InnerClasses = inner
			return err
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			anns, err := p.readAnnotationsAttr(name, ar)
			cf.Annotations = append(cf.Annotations, anns...)
			return err
		}
		return errSkip
	})
}

func (p *parser) readMembers(methods bool) ([]*Member, error) {
	r := p.r
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	kind := "field"
	if methods {
		kind = "method"
	}
	members := make([]*Member, 0, count)
	for i := 0; i < count; i++ {
		m := &Member{AccessFlags: AccessFlags(r.u2())}
		nameIdx := r.u2()
		descIdx := r.u2()
		if r.err != nil {
			return nil, r.err
		}
		var err error
		if m.Name, err = p.utf8(r, nameIdx, kind+" name"); err != nil {
			return nil, err
		}
		if m.Descriptor, err = p.utf8(r, descIdx, kind+" descriptor"); err != nil {
			return nil, err
		}
		err = p.readAttributes(r, func(name string, ar *reader) error {
			return p.memberAttribute(m, methods, name, ar)
		})
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (p *parser) memberAttribute(m *Member, method bool, name string, ar *reader) error {
	switch name {
	case "Signature":
		s, err := p.utf8(ar, ar.u2(), "Signature")
		m.Signature = s
		return err
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		anns, err := p.readAnnotationsAttr(name, ar)
		m.Annotations = append(m.Annotations, anns...)
		return err
	}

	if !method {
		if name == "ConstantValue" {
			v, err := p.cp.constant(ar.u2())
			if err != nil {
				return p.malformed(ar, "ConstantValue", err)
			}
			m.ConstantValue = v
			return nil
		}
		return errSkip
	}

	switch name {
	case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
		visible := name == "RuntimeVisibleParameterAnnotations"
		if !visible && !p.opts.IncludeInvisibleAnnotations {
			return errSkip
		}
		n := int(ar.u1())
		if len(m.ParameterAnnotations) < n {
			grown := make([][]*Annotation, n)
			copy(grown, m.ParameterAnnotations)
			m.ParameterAnnotations = grown
		}
		for i := 0; i < n && ar.err == nil; i++ {
			anns, err := p.readAnnotations(ar, visible)
			if err != nil {
				return err
			}
			m.ParameterAnnotations[i] = append(m.ParameterAnnotations[i], anns...)
		}
		return ar.err
	case "AnnotationDefault":
		v, err := p.readElementValue(ar, 0)
		if err != nil {
			return err
		}
		m.AnnotationDefault = &v
		return nil
	case "MethodParameters":
		n := int(ar.u1())
		for i := 0; i < n && ar.err == nil; i++ {
			nameIdx := ar.u2()
			flags := AccessFlags(ar.u2())
			param := MethodParameter{AccessFlags: flags}
			if nameIdx != 0 {
				s, err := p.utf8(ar, nameIdx, "MethodParameters")
				if err != nil {
					return err
				}
				param.Name = s
			}
			m.Parameters = append(m.Parameters, param)
		}
		return ar.err
	case "Exceptions":
		n := int(ar.u2())
		for i := 0; i < n && ar.err == nil; i++ {
			exc, err := p.className(ar, ar.u2(), "Exceptions")
			if ar.err != nil {
				break
			}
			if err != nil {
				return err
			}
			m.Exceptions = append(m.Exceptions, exc)
		}
		return ar.err
	}
	return errSkip
}

// errSkip tells readAttributes to ignore an attribute's body.
var errSkip = fmt.Errorf("skip attribute")

// readAttributes reads an attributes table, handing each attribute body to
// fn through a bounded sub-reader. Bodies that fn parses must be consumed
// exactly.
func (p *parser) readAttributes(r *reader, fn func(name string, ar *reader) error) error {
	count := int(r.u2())
	for i := 0; i < count; i++ {
		nameIdx := r.u2()
		length := r.u4()
		if r.err != nil {
			return r.err
		}
		name, err := p.utf8(r, nameIdx, "attribute name")
		if err != nil {
			return err
		}
		if uint64(length) > uint64(r.remaining()) {
			return p.malformed(r, fmt.Sprintf("attribute %s length %d exceeds remaining %d bytes", name, length, r.remaining()), nil)
		}
		ar := r.sub(int(length))
		err = fn(name, ar)
		if err == errSkip {
			continue
		}
		if err != nil {
			return err
		}
		if ar.err != nil {
			return ar.err
		}
		if ar.remaining() != 0 {
			return p.malformed(ar, fmt.Sprintf("attribute %s has %d unread bytes", name, ar.remaining()), nil)
		}
	}
	return r.err
}

func (p *parser) readInnerClasses(ar *reader) ([]InnerClass, error) {
	n := int(ar.u2())
	out := make([]InnerClass, 0, n)
	for i := 0; i < n && ar.err == nil; i++ {
		innerIdx := ar.u2()
		outerIdx := ar.u2()
		nameIdx := ar.u2()
		flags := AccessFlags(ar.u2())
		if ar.err != nil {
			break
		}
		ic := InnerClass{AccessFlags: flags}
		var err error
		if ic.Inner, err = p.className(ar, innerIdx, "InnerClasses"); err != nil {
			return nil, err
		}
		if outerIdx != 0 {
			if ic.Outer, err = p.className(ar, outerIdx, "InnerClasses"); err != nil {
				return nil, err
			}
		}
		if nameIdx != 0 {
			if ic.SimpleName, err = p.utf8(ar, nameIdx, "InnerClasses"); err != nil {
				return nil, err
			}
		}
		out = append(out, ic)
	}
	return out, ar.err
}

func (p *parser) readAnnotationsAttr(name string, ar *reader) ([]*Annotation, error) {
	visible := name == "RuntimeVisibleAnnotations"
	if !visible && !p.opts.IncludeInvisibleAnnotations {
		return nil, errSkip
	}
	return p.readAnnotations(ar, visible)
}

func (p *parser) readAnnotations(ar *reader, visible bool) ([]*Annotation, error) {
	n := int(ar.u2())
	anns := make([]*Annotation, 0, n)
	for i := 0; i < n && ar.err == nil; i++ {
		a, err := p.readAnnotation(ar, visible, 0)
		if err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, ar.err
}

func (p *parser) readAnnotation(ar *reader, visible bool, depth int) (*Annotation, error) {
	if depth > maxNesting {
		return nil, p.malformed(ar, "annotation nesting too deep", nil)
	}
	typeIdx := ar.u2()
	n := int(ar.u2())
	if ar.err != nil {
		return nil, ar.err
	}
	desc, err := p.utf8(ar, typeIdx, "annotation type")
	if err != nil {
		return nil, err
	}
	a := &Annotation{TypeDescriptor: desc, Visible: visible, Pairs: make([]ElementValuePair, 0, n)}
	for i := 0; i < n; i++ {
		nameIdx := ar.u2()
		if ar.err != nil {
			return nil, ar.err
		}
		name, err := p.utf8(ar, nameIdx, "annotation element name")
		if err != nil {
			return nil, err
		}
		v, err := p.readElementValue(ar, depth+1)
		if err != nil {
			return nil, err
		}
		a.Pairs = append(a.Pairs, ElementValuePair{Name: name, Value: v})
	}
	return a, nil
}

func (p *parser) readElementValue(ar *reader, depth int) (ElementValue, error) {
	if depth > maxNesting {
		return ElementValue{}, p.malformed(ar, "element value nesting too deep", nil)
	}
	tag := ar.u1()
	if ar.err != nil {
		return ElementValue{}, ar.err
	}
	v := ElementValue{Tag: tag}
	switch tag {
	case TagValByte, TagValChar, TagValInt, TagValShort, TagValBoolean:
		return v, p.constValue(ar, &v, TagInteger)
	case TagValLong:
		return v, p.constValue(ar, &v, TagLong)
	case TagValFloat:
		return v, p.constValue(ar, &v, TagFloat)
	case TagValDouble:
		return v, p.constValue(ar, &v, TagDouble)
	case TagValString:
		s, err := p.utf8(ar, ar.u2(), "string element value")
		v.Const = s
		return v, err
	case TagValEnum:
		typeIdx := ar.u2()
		nameIdx := ar.u2()
		var err error
		if v.EnumType, err = p.utf8(ar, typeIdx, "enum element type"); err != nil {
			return v, err
		}
		v.EnumName, err = p.utf8(ar, nameIdx, "enum element name")
		return v, err
	case TagValClass:
		s, err := p.utf8(ar, ar.u2(), "class element value")
		v.ClassInfo = s
		return v, err
	case TagValAnnotation:
		a, err := p.readAnnotation(ar, true, depth+1)
		v.Annotation = a
		return v, err
	case TagValArray:
		n := int(ar.u2())
		if ar.err != nil {
			return v, ar.err
		}
		v.Array = make([]ElementValue, 0, n)
		for i := 0; i < n; i++ {
			elem, err := p.readElementValue(ar, depth+1)
			if err != nil {
				return v, err
			}
			if i > 0 && elem.Tag != v.Array[0].Tag {
				return v, p.malformed(ar, fmt.Sprintf("array element value mixes tags %q and %q", v.Array[0].Tag, elem.Tag), nil)
			}
			v.Array = append(v.Array, elem)
		}
		return v, nil
	}
	ar.off--
	return v, p.malformed(ar, fmt.Sprintf("unknown element value tag %q", tag), nil)
}

func (p *parser) constValue(ar *reader, v *ElementValue, want uint8) error {
	idx := ar.u2()
	if ar.err != nil {
		return ar.err
	}
	e, err := p.cp.entry(idx, want)
	if err != nil {
		return p.malformed(ar, fmt.Sprintf("element value %q", v.Tag), err)
	}
	v.Const = e.val
	return nil
}
