package classgraph

import (
	"testing"

	"github.com/matzehuels/classscan/pkg/classfile"
)

func TestResolveParameters(t *testing.T) {
	raw := []classfile.ElementValuePair{
		{Name: "b", Value: classfile.ElementValue{Tag: 'B', Const: int32(-1)}},
		{Name: "c", Value: classfile.ElementValue{Tag: 'C', Const: int32('x')}},
		{Name: "z", Value: classfile.ElementValue{Tag: 'Z', Const: int32(1)}},
		{Name: "j", Value: classfile.ElementValue{Tag: 'J', Const: int64(7)}},
		{Name: "f", Value: classfile.ElementValue{Tag: 'F', Const: float32(1.5)}},
		{Name: "s", Value: classfile.ElementValue{Tag: 's', Const: "hi"}},
		{Name: "e", Value: classfile.ElementValue{Tag: 'e', EnumType: "Lp/Mode;", EnumName: "ON"}},
		{Name: "k", Value: classfile.ElementValue{Tag: 'c', ClassInfo: "[[I"}},
		{Name: "v", Value: classfile.ElementValue{Tag: 'c', ClassInfo: "V"}},
		{Name: "a", Value: classfile.ElementValue{Tag: '[', Array: []classfile.ElementValue{
			{Tag: '@', Annotation: &classfile.Annotation{TypeDescriptor: "Lp/Inner;"}},
			{Tag: '@', Annotation: &classfile.Annotation{TypeDescriptor: "Lp/Inner;"}},
		}}},
	}
	params, err := ResolveParameters(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		name string
		kind ValueKind
		str  string
	}{
		{"b", ValuePrimitive, "-1"},
		{"c", ValuePrimitive, "'x'"},
		{"z", ValuePrimitive, "true"},
		{"j", ValuePrimitive, "7L"},
		{"f", ValuePrimitive, "1.5f"},
		{"s", ValueString, `"hi"`},
		{"e", ValueEnum, "p.Mode.ON"},
		{"k", ValueClassRef, "int[][].class"},
		{"v", ValueClassRef, "void.class"},
		{"a", ValueArray, "{@p.Inner, @p.Inner}"},
	}
	if len(params) != len(want) {
		t.Fatalf("got %d params", len(params))
	}
	for i, w := range want {
		p := params[i]
		if p.Name != w.name || p.Value.Kind() != w.kind || p.Value.String() != w.str {
			t.Errorf("param %d = %s %s %s, want %s %s %s", i, p.Name, p.Value.Kind(), p.Value, w.name, w.kind, w.str)
		}
	}

	k := params[7].Value.(*ClassRef)
	if k.Dimensions() != 2 || !k.IsPrimitive() || k.ClassInfo() != nil {
		t.Errorf("int[][] ref = %+v", k)
	}
	if aci := k.ArrayClassInfo(); aci == nil || aci.Dimensions() != 2 || !aci.IsPrimitiveArray() {
		t.Errorf("ArrayClassInfo = %v", aci)
	}
	if _, err := params[8].Value.(*ClassRef).LoadClass(); err == nil {
		t.Error("loading void should fail")
	}
	if arr := params[9].Value.(*Array); arr.ElemKind != ValueNested || arr.ClassRefs() != nil {
		t.Errorf("array = %+v", arr)
	}
}

func TestResolveParametersRejectsMixedArray(t *testing.T) {
	raw := []classfile.ElementValuePair{{Name: "v", Value: classfile.ElementValue{Tag: '[', Array: []classfile.ElementValue{
		{Tag: 'I', Const: int32(1)},
		{Tag: 's', Const: "x"},
	}}}}
	if _, err := ResolveParameters(raw); err == nil {
		t.Error("expected error for mixed array")
	}
}

func TestEdgeKindString(t *testing.T) {
	k := EdgeField | EdgeAnnotationParam
	if k.String() != "field|annotation-param" {
		t.Errorf("String() = %q", k.String())
	}
	if ParseEdgeKind(k.String()) != k {
		t.Errorf("ParseEdgeKind(%q) = %v", k.String(), ParseEdgeKind(k.String()))
	}
}
