package classfile

import (
	"fmt"
	"math"
)

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

type cpEntry struct {
	tag uint8
	a   uint16 // first index operand
	b   uint16 // second index operand
	str string // decoded Utf8
	val any    // int32, float32, int64, float64 for numeric constants
}

// constantPool holds the decoded entries. Index 0 and the slot after each
// long/double are unusable and have tag 0.
type constantPool struct {
	entries []cpEntry
}

func readConstantPool(r *reader) *constantPool {
	count := int(r.u2())
	if r.err != nil {
		return nil
	}
	if count == 0 {
		r.fail("constant pool count is zero", nil)
		return nil
	}
	cp := &constantPool{entries: make([]cpEntry, count)}
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case TagUtf8:
			n := int(r.u2())
			raw := r.bytes(n)
			if r.err != nil {
				return nil
			}
			s, err := decodeMUTF8(raw)
			if err != nil {
				r.fail(fmt.Sprintf("constant pool entry %d", i), err)
				return nil
			}
			e.str = s
		case TagInteger:
			e.val = int32(r.u4())
		case TagFloat:
			e.val = math.Float32frombits(r.u4())
		case TagLong:
			e.val = int64(r.u8())
		case TagDouble:
			e.val = math.Float64frombits(r.u8())
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			e.a = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case TagMethodHandle:
			e.a = uint16(r.u1())
			e.b = r.u2()
		default:
			if r.err == nil {
				r.off--
				r.fail(fmt.Sprintf("unknown constant pool tag %d at entry %d", tag, i), nil)
			}
			return nil
		}
		if r.err != nil {
			return nil
		}
		cp.entries[i] = e
		if tag == TagLong || tag == TagDouble {
			i++
		}
	}
	return cp
}

func (cp *constantPool) entry(idx uint16, want uint8) (*cpEntry, error) {
	if idx == 0 || int(idx) >= len(cp.entries) {
		return nil, fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := &cp.entries[idx]
	if e.tag != want {
		return nil, fmt.Errorf("constant pool entry %d has tag %d, want %d", idx, e.tag, want)
	}
	return e, nil
}

func (cp *constantPool) utf8(idx uint16) (string, error) {
	e, err := cp.entry(idx, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

// className returns the internal-form name stored in a CONSTANT_Class entry.
func (cp *constantPool) className(idx uint16) (string, error) {
	e, err := cp.entry(idx, TagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.a)
}

// constant returns the value of a loadable numeric or string constant.
func (cp *constantPool) constant(idx uint16) (any, error) {
	if idx == 0 || int(idx) >= len(cp.entries) {
		return nil, fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := &cp.entries[idx]
	switch e.tag {
	case TagInteger, TagFloat, TagLong, TagDouble:
		return e.val, nil
	case TagString:
		return cp.utf8(e.a)
	case TagUtf8:
		// annotation string values point straight at Utf8 entries
		return e.str, nil
	}
	return nil, fmt.Errorf("constant pool entry %d (tag %d) is not a constant", idx, e.tag)
}

// referencedClasses returns the dotted names of all classes mentioned by
// Class entries and by the descriptors of NameAndType and MethodType
// entries, in pool order and without duplicates.
func (cp *constantPool) referencedClasses() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for i := range cp.entries {
		e := &cp.entries[i]
		switch e.tag {
		case TagClass:
			if n, err := cp.utf8(e.a); err == nil {
				if len(n) > 0 && n[0] == '[' {
					for _, c := range DescriptorClassNames(n) {
						add(c)
					}
				} else {
					add(BinaryName(n))
				}
			}
		case TagNameAndType:
			if d, err := cp.utf8(e.b); err == nil {
				for _, c := range DescriptorClassNames(d) {
					add(c)
				}
			}
		case TagMethodType:
			if d, err := cp.utf8(e.a); err == nil {
				for _, c := range DescriptorClassNames(d) {
					add(c)
				}
			}
		}
	}
	return out
}
