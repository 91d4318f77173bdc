package signature

import (
	"fmt"
	"strings"
)

// maxArrayDims is the JVM limit on array dimensions.
const maxArrayDims = 255

// ParseTypeDescriptor parses an erased field descriptor ("I", "[Ljava/lang/String;").
func ParseTypeDescriptor(desc string) (Type, error) {
	p := &parser{in: desc}
	t := p.javaType()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTypeSignature parses a field signature, which is a reference type
// signature possibly carrying type arguments and type variables.
func ParseTypeSignature(sig string) (Type, error) {
	p := &parser{in: sig, generic: true}
	t := p.referenceType()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseMethodDescriptor parses an erased method descriptor ("(I[J)V").
func ParseMethodDescriptor(desc string) (*MethodSignature, error) {
	p := &parser{in: desc}
	m := p.method()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseMethodSignature parses a generic method signature.
func ParseMethodSignature(sig string) (*MethodSignature, error) {
	p := &parser{in: sig, generic: true}
	m := p.method()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseClassSignature parses a generic class signature.
func ParseClassSignature(sig string) (*ClassSignature, error) {
	p := &parser{in: sig, generic: true}
	s := &ClassSignature{}
	s.TypeParams = p.typeParams()
	s.Superclass = p.classType()
	for p.err == nil && p.pos < len(p.in) {
		s.Interfaces = append(s.Interfaces, p.classType())
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return s, nil
}

// parser is a recursive-descent parser with a sticky error. Once err is set
// every production returns a zero value.
type parser struct {
	in      string
	pos     int
	generic bool
	err     error
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = &MalformedSignatureError{Input: p.in, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
	}
}

func (p *parser) finish() error {
	if p.err == nil && p.pos != len(p.in) {
		p.fail("unexpected trailing input %q", p.in[p.pos:])
	}
	return p.err
}

func (p *parser) peek() byte {
	if p.err != nil || p.pos >= len(p.in) {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) expect(c byte) {
	if p.err != nil {
		return
	}
	if p.pos >= len(p.in) {
		p.fail("unexpected end of input, want %q", c)
		return
	}
	if p.in[p.pos] != c {
		p.fail("unexpected %q, want %q", p.in[p.pos], c)
		return
	}
	p.pos++
}

// identifier reads up to one of the characters that end an identifier in
// the signature grammar.
func (p *parser) identifier(stop string) string {
	start := p.pos
	for p.pos < len(p.in) && !strings.ContainsRune(stop, rune(p.in[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		if p.pos >= len(p.in) {
			p.fail("unexpected end of input, want identifier")
		} else {
			p.fail("empty identifier before %q", p.in[p.pos])
		}
	}
	return p.in[start:p.pos]
}

// javaType parses a base type or reference type.
func (p *parser) javaType() Type {
	c := p.peek()
	if isBaseType(c) {
		p.pos++
		return BaseType(c)
	}
	return p.referenceType()
}

func (p *parser) referenceType() Type {
	if p.err != nil {
		return nil
	}
	if p.pos >= len(p.in) {
		p.fail("unexpected end of input, want type")
		return nil
	}
	switch c := p.in[p.pos]; c {
	case 'L':
		if c := p.classType(); c != nil {
			return c
		}
		return nil
	case '[':
		return p.arrayType()
	case 'T':
		if !p.generic {
			p.fail("type variable in descriptor")
			return nil
		}
		p.pos++
		name := p.identifier(".;[/<>:")
		p.expect(';')
		if p.err != nil {
			return nil
		}
		return &TypeVariable{Name: name}
	default:
		p.fail("unknown type tag %q", c)
		return nil
	}
}

func (p *parser) arrayType() Type {
	dims := 0
	for p.peek() == '[' {
		p.pos++
		dims++
	}
	if dims > maxArrayDims {
		p.fail("array has %d dimensions, limit is %d", dims, maxArrayDims)
		return nil
	}
	elem := p.javaType()
	if p.err != nil {
		return nil
	}
	return &ArrayType{Element: elem, Dims: dims}
}

func (p *parser) classType() *ClassRefType {
	p.expect('L')
	if p.err != nil {
		return nil
	}
	stop := ";<."
	if !p.generic {
		stop = ";"
	}
	start := p.pos
	pkgAndName := p.identifier(stop)
	if p.err != nil {
		return nil
	}
	if !p.generic && strings.ContainsAny(pkgAndName, "<.>") {
		p.pos = start + strings.IndexAny(pkgAndName, "<.>")
		p.fail("generic or dotted name in descriptor")
		return nil
	}

	c := &ClassRefType{}
	first := ClassSegment{Name: strings.ReplaceAll(pkgAndName, "/", ".")}
	first.Args = p.typeArgs()
	c.Segments = append(c.Segments, first)
	c.Name = first.Name

	for p.err == nil && p.peek() == '.' {
		p.pos++
		seg := ClassSegment{Name: p.identifier(".;[/<>:")}
		seg.Args = p.typeArgs()
		c.Segments = append(c.Segments, seg)
		c.Name += "$" + seg.Name
	}
	p.expect(';')
	if p.err != nil {
		return nil
	}
	return c
}

func (p *parser) typeArgs() []TypeArgument {
	if !p.generic || p.peek() != '<' {
		return nil
	}
	p.pos++
	var args []TypeArgument
	for p.err == nil && p.peek() != '>' {
		if p.pos >= len(p.in) {
			p.fail("unexpected end of input in type arguments")
			break
		}
		args = append(args, p.typeArg())
	}
	if p.err == nil && len(args) == 0 {
		p.fail("empty type argument list")
	}
	p.expect('>')
	return args
}

func (p *parser) typeArg() TypeArgument {
	c := p.in[p.pos]
	switch c {
	case '*':
		p.pos++
		return TypeArgument{Wildcard: WildcardAny}
	case '+':
		p.pos++
		return TypeArgument{Wildcard: WildcardExtends, Bound: p.referenceType()}
	case '-':
		p.pos++
		return TypeArgument{Wildcard: WildcardSuper, Bound: p.referenceType()}
	case 'L', 'T', '[':
		return TypeArgument{Wildcard: WildcardNone, Bound: p.referenceType()}
	}
	// An unknown indicator is tolerated when a reference type follows it.
	if p.pos+1 < len(p.in) && strings.IndexByte("LT[", p.in[p.pos+1]) >= 0 {
		p.pos++
		return TypeArgument{Wildcard: WildcardOpaque, Indicator: c, Bound: p.referenceType()}
	}
	p.fail("unknown type argument tag %q", c)
	return TypeArgument{}
}

func (p *parser) typeParams() []TypeParameter {
	if !p.generic || p.peek() != '<' {
		return nil
	}
	p.pos++
	var params []TypeParameter
	for p.err == nil && p.peek() != '>' {
		if p.pos >= len(p.in) {
			p.fail("unexpected end of input in type parameters")
			break
		}
		tp := TypeParameter{Name: p.identifier(".;[/<>:")}
		p.expect(':')
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			tp.ClassBound = p.referenceType()
		}
		for p.err == nil && p.peek() == ':' {
			p.pos++
			tp.InterfaceBounds = append(tp.InterfaceBounds, p.referenceType())
		}
		params = append(params, tp)
	}
	if p.err == nil && len(params) == 0 {
		p.fail("empty type parameter list")
	}
	p.expect('>')
	return params
}

func (p *parser) method() *MethodSignature {
	m := &MethodSignature{}
	m.TypeParams = p.typeParams()
	p.expect('(')
	for p.err == nil && p.peek() != ')' {
		if p.pos >= len(p.in) {
			p.fail("unexpected end of input in parameter list")
			break
		}
		m.Params = append(m.Params, p.javaType())
	}
	p.expect(')')
	if p.peek() == 'V' {
		p.pos++
		m.Return = Void
	} else {
		m.Return = p.javaType()
	}
	for p.err == nil && p.peek() == '^' {
		if !p.generic {
			p.fail("throws clause in descriptor")
			break
		}
		p.pos++
		switch p.peek() {
		case 'L', 'T':
			m.Throws = append(m.Throws, p.referenceType())
		default:
			p.fail("throws clause must name a class or type variable")
		}
	}
	if p.err != nil {
		return nil
	}
	return m
}
