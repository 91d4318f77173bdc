package classgraph

import (
	"strings"
)

// EdgeKind is a set of reasons one class depends on another.
type EdgeKind uint16

const (
	EdgeSuperclass EdgeKind = 1 << iota
	EdgeInterface
	EdgeField
	EdgeMethodParam
	EdgeMethodReturn
	EdgeMethodThrows
	EdgeAnnotation
	EdgeAnnotationParam
	EdgeTypeBound
	EdgeConstantPool
)

var edgeKindNames = []struct {
	kind EdgeKind
	name string
}{
	{EdgeSuperclass, "superclass"},
	{EdgeInterface, "interface"},
	{EdgeField, "field"},
	{EdgeMethodParam, "method-param"},
	{EdgeMethodReturn, "method-return"},
	{EdgeMethodThrows, "method-throws"},
	{EdgeAnnotation, "annotation"},
	{EdgeAnnotationParam, "annotation-param"},
	{EdgeTypeBound, "type-bound"},
	{EdgeConstantPool, "constant-pool"},
}

// Has reports whether all kinds in k2 are set in k.
func (k EdgeKind) Has(k2 EdgeKind) bool { return k&k2 == k2 }

// Names returns the names of the kinds in the set.
func (k EdgeKind) Names() []string {
	var out []string
	for _, e := range edgeKindNames {
		if k&e.kind != 0 {
			out = append(out, e.name)
		}
	}
	return out
}

func (k EdgeKind) String() string { return strings.Join(k.Names(), "|") }

// ParseEdgeKind is the inverse of EdgeKind.String. Unknown names are ignored.
func ParseEdgeKind(s string) EdgeKind {
	var k EdgeKind
	for _, part := range strings.Split(s, "|") {
		for _, e := range edgeKindNames {
			if e.name == part {
				k |= e.kind
			}
		}
	}
	return k
}

// Edge is a directed dependency between two classes.
type Edge struct {
	From  string
	To    string
	Kinds EdgeKind
}
