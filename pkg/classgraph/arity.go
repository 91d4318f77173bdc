package classgraph

import (
	"fmt"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/signature"
)

// ArityMismatch is an annotation value whose array-ness disagrees with the
// declaration of its annotation type element.
type ArityMismatch struct {
	Class string                         // Class carrying the annotation
	Err   *classfile.MalformedClassError // Error to report for the class's unit
}

// CheckAnnotationArity compares every annotation value of every resolved
// class with the element declarations of the annotation type, when that
// type was scanned. A scalar value for an array element, or an array value
// for a scalar element, is reported for the class carrying the annotation.
// Annotation defaults are checked against their own declaration. At most
// one mismatch is reported per class, and classes are visited by name.
//
// The check reads the graph as it is; callers demote the reported classes
// afterwards so the outcome does not depend on demotion order.
func (g *Graph) CheckAnnotationArity() []ArityMismatch {
	var out []ArityMismatch
	for _, c := range g.Classes() {
		if err := g.checkClassArity(c); err != nil {
			out = append(out, ArityMismatch{Class: c.Name, Err: err})
		}
	}
	return out
}

func (g *Graph) checkClassArity(c *ClassInfo) *classfile.MalformedClassError {
	var found *classfile.MalformedClassError
	check := func(anns []*AnnotationInfo) {
		for _, a := range anns {
			if found != nil {
				return
			}
			walkValue(a, func(v Value) {
				if nested, ok := v.(*AnnotationInfo); ok && found == nil {
					found = g.checkAnnotation(c, nested)
				}
			})
		}
	}

	check(c.Annotations)
	for _, f := range c.Fields {
		check(f.Annotations)
	}
	for _, m := range c.Methods {
		check(m.Annotations)
		for _, p := range m.Parameters {
			check(p.Annotations)
		}
		if m.Default != nil && m.Type != nil && found == nil {
			if isArrayType(m.Type.Return) != (m.Default.Kind() == ValueArray) {
				found = arityError(c, "default of "+m.Name, isArrayType(m.Type.Return))
			}
			walkValue(m.Default, func(v Value) {
				if nested, ok := v.(*AnnotationInfo); ok && found == nil {
					found = g.checkAnnotation(c, nested)
				}
			})
		}
	}
	return found
}

func (g *Graph) checkAnnotation(owner *ClassInfo, a *AnnotationInfo) *classfile.MalformedClassError {
	typ := g.nodes[a.TypeName]
	if typ == nil || !typ.IsResolved() || typ.Kind != KindAnnotation {
		return nil
	}
	for _, p := range a.Params {
		elem := annotationElement(typ, p.Name)
		if elem == nil {
			continue
		}
		declared := isArrayType(elem.Type.Return)
		if declared != (p.Value.Kind() == ValueArray) {
			return arityError(owner, fmt.Sprintf("@%s parameter %s", a.TypeName, p.Name), declared)
		}
	}
	return nil
}

// annotationElement returns the parameterless method declaring an
// annotation element.
func annotationElement(typ *ClassInfo, name string) *MethodInfo {
	for _, m := range typ.MethodInfo(name) {
		if m.Type != nil && len(m.Type.Params) == 0 {
			return m
		}
	}
	return nil
}

func isArrayType(t signature.Type) bool {
	_, ok := t.(*signature.ArrayType)
	return ok
}

func arityError(c *ClassInfo, what string, declaredArray bool) *classfile.MalformedClassError {
	reason := what + " is declared as an array but encoded as a scalar"
	if !declaredArray {
		reason = what + " is declared as a scalar but encoded as an array"
	}
	return &classfile.MalformedClassError{Resource: c.Resource, Offset: -1, Reason: reason}
}
