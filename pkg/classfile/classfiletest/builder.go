// Package classfiletest assembles classfiles in memory for tests.
//
// A Builder produces well-formed bytes by default; the raw hooks
// ([Builder.RawClassAttribute], [Builder.Truncate]) produce broken ones.
//
//	data := classfiletest.New("com.example.Foo").
//		Interfaces("java.io.Serializable").
//		Field(classfile.AccPrivate, "name", "Ljava/lang/String;").
//		Bytes()
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"

	"github.com/matzehuels/classscan/pkg/classfile"
)

// Value is an annotation element value.
type Value struct {
	tag   byte
	num   any
	str   string
	enum  [2]string
	ann   *Ann
	elems []Value
}

func Byte(v int8) Value      { return Value{tag: 'B', num: int32(v)} }
func Char(v rune) Value      { return Value{tag: 'C', num: int32(v)} }
func Short(v int16) Value    { return Value{tag: 'S', num: int32(v)} }
func Int(v int32) Value      { return Value{tag: 'I', num: v} }
func Long(v int64) Value     { return Value{tag: 'J', num: v} }
func Float(v float32) Value  { return Value{tag: 'F', num: v} }
func Double(v float64) Value { return Value{tag: 'D', num: v} }
func Str(v string) Value     { return Value{tag: 's', str: v} }
func Nested(a Ann) Value     { return Value{tag: '@', ann: &a} }
func Array(v ...Value) Value { return Value{tag: '[', elems: v} }

func Bool(v bool) Value {
	if v {
		return Value{tag: 'Z', num: int32(1)}
	}
	return Value{tag: 'Z', num: int32(0)}
}

// Enum references constant name of the dotted enum type.
func Enum(enumType, name string) Value {
	return Value{tag: 'e', enum: [2]string{Desc(enumType), name}}
}

// Class is a class literal given as a return descriptor ("Ljava/lang/String;", "[I", "V").
func Class(desc string) Value { return Value{tag: 'c', str: desc} }

// Desc returns the field descriptor for a dotted class name.
func Desc(name string) string { return "L" + classfile.InternalName(name) + ";" }

// Pair is a named element value.
type Pair struct {
	Name  string
	Value Value
}

// Ann is an annotation instance.
type Ann struct {
	Type  string // dotted name
	Pairs []Pair
}

// A is shorthand for an annotation with pairs.
func A(typ string, pairs ...Pair) Ann { return Ann{Type: typ, Pairs: pairs} }

// P is shorthand for a Pair.
func P(name string, v Value) Pair { return Pair{Name: name, Value: v} }

type attr struct {
	name string
	body []byte
}

// Member accumulates the attributes of a field or method.
type Member struct {
	b          *Builder
	flags      uint16
	name, desc string
	attrs      []attr
	visible    []Ann
	invisible  []Ann
	params     map[int][]Ann
	numParams  int
}

// Signature adds a Signature attribute.
func (m *Member) Signature(sig string) *Member {
	m.attrs = append(m.attrs, attr{"Signature", m.b.u2(m.b.utf8(sig))})
	return m
}

// Annotate adds RUNTIME-retention annotations.
func (m *Member) Annotate(anns ...Ann) *Member {
	m.visible = append(m.visible, anns...)
	return m
}

// AnnotateInvisible adds CLASS-retention annotations.
func (m *Member) AnnotateInvisible(anns ...Ann) *Member {
	m.invisible = append(m.invisible, anns...)
	return m
}

// AnnotateParam adds RUNTIME-retention annotations to parameter i. count is
// the num_parameters value written to the attribute.
func (m *Member) AnnotateParam(count, i int, anns ...Ann) *Member {
	if m.params == nil {
		m.params = make(map[int][]Ann)
	}
	m.numParams = count
	m.params[i] = append(m.params[i], anns...)
	return m
}

// ParamNames adds a MethodParameters attribute. An empty name is written as index 0.
func (m *Member) ParamNames(names ...string) *Member {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(names)))
	for _, n := range names {
		idx := uint16(0)
		if n != "" {
			idx = m.b.utf8(n)
		}
		buf.Write(m.b.u2(idx))
		buf.Write(m.b.u2(0))
	}
	m.attrs = append(m.attrs, attr{"MethodParameters", buf.Bytes()})
	return m
}

// Throws adds an Exceptions attribute.
func (m *Member) Throws(classes ...string) *Member {
	var buf bytes.Buffer
	buf.Write(m.b.u2(uint16(len(classes))))
	for _, c := range classes {
		buf.Write(m.b.u2(m.b.class(c)))
	}
	m.attrs = append(m.attrs, attr{"Exceptions", buf.Bytes()})
	return m
}

// Default adds an AnnotationDefault attribute.
func (m *Member) Default(v Value) *Member {
	var buf bytes.Buffer
	m.b.writeValue(&buf, v)
	m.attrs = append(m.attrs, attr{"AnnotationDefault", buf.Bytes()})
	return m
}

// ConstantInt adds a ConstantValue attribute holding an int.
func (m *Member) ConstantInt(v int32) *Member {
	m.attrs = append(m.attrs, attr{"ConstantValue", m.b.u2(m.b.integer(v))})
	return m
}

// ConstantString adds a ConstantValue attribute holding a string.
func (m *Member) ConstantString(v string) *Member {
	m.attrs = append(m.attrs, attr{"ConstantValue", m.b.u2(m.b.str(v))})
	return m
}

// Raw adds an arbitrary attribute.
func (m *Member) Raw(name string, body []byte) *Member {
	m.attrs = append(m.attrs, attr{name, body})
	return m
}

// Done returns the owning builder.
func (m *Member) Done() *Builder { return m.b }

func (m *Member) allAttrs() []attr {
	out := append([]attr(nil), m.attrs...)
	out = append(out, m.b.annotationAttrs(m.visible, m.invisible)...)
	if m.params != nil {
		var buf bytes.Buffer
		buf.WriteByte(byte(m.numParams))
		for i := 0; i < m.numParams; i++ {
			m.b.writeAnnotations(&buf, m.params[i])
		}
		out = append(out, attr{"RuntimeVisibleParameterAnnotations", buf.Bytes()})
	}
	return out
}

// Builder assembles a classfile.
type Builder struct {
	pool     bytes.Buffer
	poolSize uint16
	index    map[string]uint16

	major      uint16
	flags      uint16
	this       string
	super      string
	noSuper    bool
	interfaces []string
	fields     []*Member
	methods    []*Member
	attrs      []attr
	visible    []Ann
	invisible  []Ann
	truncate   int
	trailing   []byte
}

// New starts a public class extending java.lang.Object, version 52.
func New(name string) *Builder {
	return &Builder{
		poolSize: 1,
		index:    make(map[string]uint16),
		major:    52,
		flags:    uint16(classfile.AccPublic | classfile.AccSuper),
		this:     name,
		super:    "java.lang.Object",
	}
}

// Version sets the major version.
func (b *Builder) Version(major uint16) *Builder { b.major = major; return b }

// Flags replaces the class access flags.
func (b *Builder) Flags(f classfile.AccessFlags) *Builder { b.flags = uint16(f); return b }

// Super sets the superclass; "" writes super_class 0.
func (b *Builder) Super(name string) *Builder {
	b.super = name
	b.noSuper = name == ""
	return b
}

// Interfaces appends direct superinterfaces.
func (b *Builder) Interfaces(names ...string) *Builder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

// Signature adds a class Signature attribute.
func (b *Builder) Signature(sig string) *Builder {
	b.attrs = append(b.attrs, attr{"Signature", b.u2(b.utf8(sig))})
	return b
}

// SourceFile adds a SourceFile attribute.
func (b *Builder) SourceFile(name string) *Builder {
	b.attrs = append(b.attrs, attr{"SourceFile", b.u2(b.utf8(name))})
	return b
}

// Record marks the class as a record with no components.
func (b *Builder) Record() *Builder {
	b.attrs = append(b.attrs, attr{"Record", b.u2(0)})
	return b
}

// Inner adds an InnerClasses entry.
func (b *Builder) Inner(inner, outer, simple string, flags classfile.AccessFlags) *Builder {
	var buf bytes.Buffer
	buf.Write(b.u2(1))
	buf.Write(b.u2(b.class(inner)))
	if outer == "" {
		buf.Write(b.u2(0))
	} else {
		buf.Write(b.u2(b.class(outer)))
	}
	if simple == "" {
		buf.Write(b.u2(0))
	} else {
		buf.Write(b.u2(b.utf8(simple)))
	}
	buf.Write(b.u2(uint16(flags)))
	b.attrs = append(b.attrs, attr{"InnerClasses", buf.Bytes()})
	return b
}

// Annotate adds RUNTIME-retention class annotations.
func (b *Builder) Annotate(anns ...Ann) *Builder {
	b.visible = append(b.visible, anns...)
	return b
}

// AnnotateInvisible adds CLASS-retention class annotations.
func (b *Builder) AnnotateInvisible(anns ...Ann) *Builder {
	b.invisible = append(b.invisible, anns...)
	return b
}

// RawClassAttribute adds an arbitrary class attribute.
func (b *Builder) RawClassAttribute(name string, body []byte) *Builder {
	b.attrs = append(b.attrs, attr{name, body})
	return b
}

// Field adds a field.
func (b *Builder) Field(flags classfile.AccessFlags, name, desc string) *Member {
	m := &Member{b: b, flags: uint16(flags), name: name, desc: desc}
	b.fields = append(b.fields, m)
	return m
}

// Method adds a method.
func (b *Builder) Method(flags classfile.AccessFlags, name, desc string) *Member {
	m := &Member{b: b, flags: uint16(flags), name: name, desc: desc}
	b.methods = append(b.methods, m)
	return m
}

// Truncate drops the last n bytes of the output.
func (b *Builder) Truncate(n int) *Builder { b.truncate = n; return b }

// Trailing appends garbage after the class body.
func (b *Builder) Trailing(extra ...byte) *Builder { b.trailing = extra; return b }

// Bytes encodes the classfile.
func (b *Builder) Bytes() []byte {
	// Resolve everything that adds pool entries before writing the pool.
	thisIdx := b.class(b.this)
	var superIdx uint16
	if !b.noSuper {
		superIdx = b.class(b.super)
	}
	ifaces := make([]uint16, len(b.interfaces))
	for i, n := range b.interfaces {
		ifaces[i] = b.class(n)
	}

	var body bytes.Buffer
	body.Write(b.u2(b.flags))
	body.Write(b.u2(thisIdx))
	body.Write(b.u2(superIdx))
	body.Write(b.u2(uint16(len(ifaces))))
	for _, i := range ifaces {
		body.Write(b.u2(i))
	}
	for _, members := range [][]*Member{b.fields, b.methods} {
		body.Write(b.u2(uint16(len(members))))
		for _, m := range members {
			body.Write(b.u2(m.flags))
			body.Write(b.u2(b.utf8(m.name)))
			body.Write(b.u2(b.utf8(m.desc)))
			b.writeAttrs(&body, m.allAttrs())
		}
	}
	attrs := append(append([]attr(nil), b.attrs...), b.annotationAttrs(b.visible, b.invisible)...)
	b.writeAttrs(&body, attrs)

	var out bytes.Buffer
	out.Write([]byte{0xCA, 0xFE, 0xBA, 0xBE})
	out.Write(b.u2(0))
	out.Write(b.u2(b.major))
	out.Write(b.u2(b.poolSize))
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	out.Write(b.trailing)

	data := out.Bytes()
	if b.truncate > 0 && b.truncate <= len(data) {
		data = data[:len(data)-b.truncate]
	}
	return data
}

func (b *Builder) annotationAttrs(visible, invisible []Ann) []attr {
	var out []attr
	if len(visible) > 0 {
		var buf bytes.Buffer
		b.writeAnnotations(&buf, visible)
		out = append(out, attr{"RuntimeVisibleAnnotations", buf.Bytes()})
	}
	if len(invisible) > 0 {
		var buf bytes.Buffer
		b.writeAnnotations(&buf, invisible)
		out = append(out, attr{"RuntimeInvisibleAnnotations", buf.Bytes()})
	}
	return out
}

func (b *Builder) writeAttrs(w *bytes.Buffer, attrs []attr) {
	w.Write(b.u2(uint16(len(attrs))))
	for _, a := range attrs {
		w.Write(b.u2(b.utf8(a.name)))
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(a.body)))
		w.Write(n[:])
		w.Write(a.body)
	}
}

func (b *Builder) writeAnnotations(w *bytes.Buffer, anns []Ann) {
	w.Write(b.u2(uint16(len(anns))))
	for _, a := range anns {
		b.writeAnnotation(w, a)
	}
}

func (b *Builder) writeAnnotation(w *bytes.Buffer, a Ann) {
	w.Write(b.u2(b.utf8(Desc(a.Type))))
	w.Write(b.u2(uint16(len(a.Pairs))))
	for _, p := range a.Pairs {
		w.Write(b.u2(b.utf8(p.Name)))
		b.writeValue(w, p.Value)
	}
}

func (b *Builder) writeValue(w *bytes.Buffer, v Value) {
	w.WriteByte(v.tag)
	switch v.tag {
	case 'B', 'C', 'S', 'I', 'Z':
		w.Write(b.u2(b.integer(v.num.(int32))))
	case 'J':
		w.Write(b.u2(b.long(v.num.(int64))))
	case 'F':
		w.Write(b.u2(b.float(v.num.(float32))))
	case 'D':
		w.Write(b.u2(b.double(v.num.(float64))))
	case 's', 'c':
		w.Write(b.u2(b.utf8(v.str)))
	case 'e':
		w.Write(b.u2(b.utf8(v.enum[0])))
		w.Write(b.u2(b.utf8(v.enum[1])))
	case '@':
		b.writeAnnotation(w, *v.ann)
	case '[':
		w.Write(b.u2(uint16(len(v.elems))))
		for _, e := range v.elems {
			b.writeValue(w, e)
		}
	}
}

func (b *Builder) u2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func (b *Builder) add(key string, slots uint16, entry []byte) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := b.poolSize
	b.pool.Write(entry)
	b.poolSize += slots
	b.index[key] = idx
	return idx
}

func (b *Builder) utf8(s string) uint16 {
	enc := encodeMUTF8(s)
	entry := append([]byte{classfile.TagUtf8}, b.u2(uint16(len(enc)))...)
	return b.add("u:"+s, 1, append(entry, enc...))
}

func (b *Builder) class(name string) uint16 {
	idx := b.utf8(classfile.InternalName(name))
	return b.add("c:"+name, 1, append([]byte{classfile.TagClass}, b.u2(idx)...))
}

func (b *Builder) str(s string) uint16 {
	idx := b.utf8(s)
	return b.add("s:"+s, 1, append([]byte{classfile.TagString}, b.u2(idx)...))
}

func (b *Builder) integer(v int32) uint16 {
	var e [5]byte
	e[0] = classfile.TagInteger
	binary.BigEndian.PutUint32(e[1:], uint32(v))
	return b.add(string(e[:]), 1, e[:])
}

func (b *Builder) float(v float32) uint16 {
	var e [5]byte
	e[0] = classfile.TagFloat
	binary.BigEndian.PutUint32(e[1:], math.Float32bits(v))
	return b.add(string(e[:]), 1, e[:])
}

func (b *Builder) long(v int64) uint16 {
	var e [9]byte
	e[0] = classfile.TagLong
	binary.BigEndian.PutUint64(e[1:], uint64(v))
	return b.add(string(e[:]), 2, e[:])
}

func (b *Builder) double(v float64) uint16 {
	var e [9]byte
	e[0] = classfile.TagDouble
	binary.BigEndian.PutUint64(e[1:], math.Float64bits(v))
	return b.add(string(e[:]), 2, e[:])
}

// encodeMUTF8 writes NUL as 0xC0 0x80 and supplementary characters as
// surrogate pairs.
func encodeMUTF8(s string) []byte {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == 0:
			sb.Write([]byte{0xC0, 0x80})
		case r < 0x80:
			sb.WriteByte(byte(r))
		case r < 0x800:
			sb.Write([]byte{0xC0 | byte(r>>6), 0x80 | byte(r&0x3F)})
		case r < 0x10000:
			sb.Write(enc3(r))
		default:
			r -= 0x10000
			sb.Write(enc3(0xD800 + (r >> 10)))
			sb.Write(enc3(0xDC00 + (r & 0x3FF)))
		}
	}
	return []byte(sb.String())
}

func enc3(r rune) []byte {
	return []byte{0xE0 | byte(r>>12), 0x80 | byte((r>>6)&0x3F), 0x80 | byte(r&0x3F)}
}
