package classgraph

import (
	"errors"
	"testing"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/signature"
)

func refKinds(rec *Record) map[string]EdgeKind {
	out := make(map[string]EdgeKind)
	for _, r := range rec.Refs {
		out[r.Name] = r.Kinds
	}
	return out
}

func TestBuildRecordReferences(t *testing.T) {
	b := classfiletest.New("com.example.Service").
		Super("com.example.Base").
		Interfaces("com.example.Api").
		Signature("Lcom/example/Base<Lcom/example/Entity;>;Lcom/example/Api;").
		Annotate(classfiletest.A("com.example.Component",
			classfiletest.P("scope", classfiletest.Enum("com.example.Scope", "SINGLETON")),
			classfiletest.P("meta", classfiletest.Nested(classfiletest.A("com.example.Meta"))))).
		Field(classfile.AccPrivate, "repo", "Lcom/example/Repo;").Done().
		Method(classfile.AccPublic, "find", "(Lcom/example/Query;)Lcom/example/Result;").
		Throws("com.example.NotFound").
		Done().
		Method(classfile.AccPublic, "self", "()Lcom/example/Service;").Done()

	rec := parseRecord(t, b, "com/example/Service.class", 0, RecordOptions{})
	kinds := refKinds(rec)

	want := map[string]EdgeKind{
		"com.example.Base":      EdgeSuperclass,
		"com.example.Entity":    EdgeSuperclass,
		"com.example.Api":       EdgeInterface,
		"com.example.Component": EdgeAnnotation,
		"com.example.Scope":     EdgeAnnotationParam,
		"com.example.Meta":      EdgeAnnotationParam,
		"com.example.Repo":      EdgeField,
		"com.example.Query":     EdgeMethodParam,
		"com.example.Result":    EdgeMethodReturn,
		"com.example.NotFound":  EdgeMethodThrows,
	}
	for name, kind := range want {
		if !kinds[name].Has(kind) {
			t.Errorf("%s: kinds %s, want %s", name, kinds[name], kind)
		}
	}
	if _, ok := kinds["com.example.Service"]; ok {
		t.Error("self reference recorded")
	}
	for i := 1; i < len(rec.Refs); i++ {
		if rec.Refs[i-1].Name >= rec.Refs[i].Name {
			t.Fatalf("refs not sorted: %v", rec.Refs)
		}
	}
}

func TestBuildRecordConstantPoolOptIn(t *testing.T) {
	b := classfiletest.New("com.example.A").
		Method(classfile.AccPublic, "m", "()V").Throws("com.example.Boom").Done()

	rec := parseRecord(t, b, "com/example/A.class", 0, RecordOptions{})
	for _, r := range rec.Refs {
		if r.Kinds.Has(EdgeConstantPool) {
			t.Errorf("constant-pool edge without opt-in: %v", r)
		}
	}
	rec = parseRecord(t, b, "com/example/A.class", 0, RecordOptions{ConstantPoolDependencies: true})
	if k := refKinds(rec)["com.example.Boom"]; !k.Has(EdgeConstantPool | EdgeMethodThrows) {
		t.Errorf("Boom kinds = %s", k)
	}
}

func TestBuildRecordKinds(t *testing.T) {
	tests := []struct {
		name string
		b    *classfiletest.Builder
		want Kind
	}{
		{"class", classfiletest.New("p.C"), KindClass},
		{"interface", classfiletest.New("p.I").Flags(classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract), KindInterface},
		{"annotation", classfiletest.New("p.A").Flags(classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract | classfile.AccAnnotation), KindAnnotation},
		{"enum", classfiletest.New("p.E").Flags(classfile.AccPublic | classfile.AccFinal | classfile.AccEnum).Super("java.lang.Enum"), KindEnum},
		{"record", classfiletest.New("p.R").Super("java.lang.Record").Record(), KindRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseRecord(t, tt.b, "", 0, RecordOptions{})
			if rec.Class.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", rec.Class.Kind, tt.want)
			}
		})
	}
}

func TestSyntheticParametersAlignRight(t *testing.T) {
	// Inner class constructor: the descriptor carries the outer instance,
	// the signature and parameter annotations do not.
	b := classfiletest.New("p.Outer$Inner").
		Method(0, "<init>", "(Lp/Outer;Ljava/util/List;)V").
		Signature("(Ljava/util/List<Ljava/lang/String;>;)V").
		AnnotateParam(1, 0, classfiletest.A("p.NotNull")).
		Done()

	rec := parseRecord(t, b, "", 0, RecordOptions{})
	m := rec.Class.Methods[0]
	if len(m.Parameters) != 2 {
		t.Fatalf("Parameters = %d", len(m.Parameters))
	}
	if m.Parameters[0].GenericType != nil || m.Parameters[0].TypeSignature().String() != "p.Outer" {
		t.Errorf("param 0 = %v", m.Parameters[0].TypeSignature())
	}
	if got := m.Parameters[1].TypeSignature().String(); got != "java.util.List<java.lang.String>" {
		t.Errorf("param 1 = %s", got)
	}
	if m.Parameters[0].HasAnnotation("p.NotNull") || !m.Parameters[1].HasAnnotation("p.NotNull") {
		t.Error("parameter annotation not right-aligned")
	}
	if !m.IsConstructor() || m.String() != "<init>(p.Outer, java.util.List<java.lang.String>)" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestMalformedSignatureFallsBack(t *testing.T) {
	b := classfiletest.New("p.C").
		Field(0, "items", "Ljava/util/List;").Signature("Ljava/util/List<").Done().
		Method(0, "m", "(I)V").Signature("(Q)V").Done()

	rec := parseRecord(t, b, "", 0, RecordOptions{})
	f := rec.Class.Fields[0]
	var mse *signature.MalformedSignatureError
	if !errors.As(f.SignatureErr, &mse) {
		t.Errorf("field SignatureErr = %v", f.SignatureErr)
	}
	if f.TypeSignature() == nil || f.TypeSignature().String() != "java.util.List" {
		t.Errorf("field falls back to %v", f.TypeSignature())
	}
	m := rec.Class.Methods[0]
	if m.SignatureErr == nil || m.GenericType != nil || m.TypeSignature() != m.Type {
		t.Errorf("method = %+v", m)
	}
}

func TestMalformedDescriptorIsMemberDefect(t *testing.T) {
	b := classfiletest.New("p.C").
		Method(0, "broken", "(Q)V").Done().
		Field(0, "bad", "X").Done()

	rec := parseRecord(t, b, "", 0, RecordOptions{})
	if m := rec.Class.Methods[0]; m.Defect == nil || m.Type != nil || len(m.Parameters) != 0 {
		t.Errorf("method = %+v", m)
	}
	if f := rec.Class.Fields[0]; f.Defect == nil || f.Type != nil {
		t.Errorf("field = %+v", f)
	}
	if errs.GetCode(rec.Class.Methods[0].Defect) != errs.ErrCodeMalformedSignature {
		t.Errorf("code = %s", errs.GetCode(rec.Class.Methods[0].Defect))
	}
}

func TestAnnotationDefaultsAndParamsWithDefaults(t *testing.T) {
	ann := classfiletest.New("p.Cfg").
		Flags(classfile.AccPublic|classfile.AccInterface|classfile.AccAbstract|classfile.AccAnnotation).
		Method(classfile.AccPublic|classfile.AccAbstract, "name", "()Ljava/lang/String;").Done().
		Method(classfile.AccPublic|classfile.AccAbstract, "retries", "()I").Default(classfiletest.Int(3)).Done()
	use := classfiletest.New("p.Use").
		Annotate(classfiletest.A("p.Cfg", classfiletest.P("name", classfiletest.Str("x"))))

	g := NewGraph()
	mergeAll(t, g,
		parseRecord(t, ann, "p/Cfg.class", 0, RecordOptions{}),
		parseRecord(t, use, "p/Use.class", 1, RecordOptions{}),
	)
	g.Finalize(nil)

	a := g.Get("p.Use").Annotation("p.Cfg")
	params := a.ParamsWithDefaults()
	if len(params) != 2 || params[1].Name != "retries" || params[1].Value.String() != "3" {
		t.Errorf("ParamsWithDefaults = %v", params)
	}
	if a.String() != `@p.Cfg(name="x")` {
		t.Errorf("String() = %s", a.String())
	}
}
