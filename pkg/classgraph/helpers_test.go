package classgraph

import (
	"testing"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
)

func parseRecord(t *testing.T, b *classfiletest.Builder, resource string, order int, opts RecordOptions) *Record {
	t.Helper()
	cf, err := classfile.Parse(resource, b.Bytes(), classfile.Options{})
	if err != nil {
		t.Fatalf("Parse(%s): %v", resource, err)
	}
	rec, err := BuildRecord(cf, opts)
	if err != nil {
		t.Fatalf("BuildRecord(%s): %v", resource, err)
	}
	rec.Order = order
	return rec
}

// scenario builds X, Ann and Y where Y is annotated @Ann({X.class}) and
// declares y(X[] x).
func scenario(t *testing.T) []*Record {
	t.Helper()
	x := classfiletest.New("com.example.X")
	ann := classfiletest.New("com.example.Ann").
		Flags(classfile.AccPublic|classfile.AccInterface|classfile.AccAbstract|classfile.AccAnnotation).
		Interfaces("java.lang.annotation.Annotation").
		Method(classfile.AccPublic|classfile.AccAbstract, "value", "()[Ljava/lang/Class;").Done()
	y := classfiletest.New("com.example.Y").
		Annotate(classfiletest.A("com.example.Ann",
			classfiletest.P("value", classfiletest.Array(classfiletest.Class("Lcom/example/X;"))))).
		Method(classfile.AccPublic, "y", "([Lcom/example/X;)V").ParamNames("x").Done()
	return []*Record{
		parseRecord(t, x, "com/example/X.class", 0, RecordOptions{}),
		parseRecord(t, ann, "com/example/Ann.class", 1, RecordOptions{}),
		parseRecord(t, y, "com/example/Y.class", 2, RecordOptions{}),
	}
}

func mergeAll(t *testing.T, g *Graph, recs ...*Record) {
	t.Helper()
	for _, r := range recs {
		if _, err := g.AddOrMerge(r); err != nil {
			t.Fatalf("AddOrMerge(%s): %v", r.Class.Name, err)
		}
	}
}

type stubLoader struct {
	loaded []string
}

func (l *stubLoader) LoadClass(name string) (*LoadedClass, error) {
	l.loaded = append(l.loaded, name)
	if name == "com.example.Missing" {
		return nil, &ClassNotAvailableError{Name: name}
	}
	return &LoadedClass{Name: name, File: &classfile.ClassFile{Name: name}}, nil
}
