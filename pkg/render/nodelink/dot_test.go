package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/classscan/pkg/classgraph"
)

func testGraph(t *testing.T) *classgraph.Graph {
	t.Helper()
	g := classgraph.NewGraph()
	recs := []*classgraph.Record{
		classgraph.NewRecord(&classgraph.ClassInfo{
			Name:           "com.example.Service",
			Kind:           classgraph.KindClass,
			State:          classgraph.StateResolved,
			SuperclassName: "com.example.Base",
		}, []classgraph.Reference{
			{Name: "com.example.Base", Kinds: classgraph.EdgeSuperclass},
			{Name: "com.example.Repo", Kinds: classgraph.EdgeField},
			{Name: "java.util.List", Kinds: classgraph.EdgeMethodReturn},
		}, 0),
		classgraph.NewRecord(&classgraph.ClassInfo{
			Name:  "com.example.Base",
			Kind:  classgraph.KindClass,
			State: classgraph.StateResolved,
		}, nil, 1),
		classgraph.NewRecord(&classgraph.ClassInfo{
			Name:  "com.example.Repo",
			Kind:  classgraph.KindInterface,
			State: classgraph.StateResolved,
		}, nil, 2),
	}
	for _, r := range recs {
		if _, err := g.AddOrMerge(r); err != nil {
			t.Fatalf("AddOrMerge: %v", err)
		}
	}
	g.Finalize(nil)
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, name := range []string{"com.example.Service", "com.example.Base", "com.example.Repo"} {
		if !strings.Contains(dot, `"`+name+`" [`) {
			t.Errorf("ToDOT() output missing node %s", name)
		}
	}
	if !strings.Contains(dot, `"com.example.Service" -> "com.example.Base" [arrowhead=empty]`) {
		t.Error("ToDOT() output missing superclass edge")
	}
	if !strings.Contains(dot, `"com.example.Service" -> "com.example.Repo";`) {
		t.Error("ToDOT() output missing field edge")
	}
	if strings.Contains(dot, "java.util.List") {
		t.Error("ToDOT() should omit external classes by default")
	}
}

func TestToDOT_External(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{IncludeExternal: true})

	if !strings.Contains(dot, `"java.util.List" [`) {
		t.Error("ToDOT() output missing external node")
	}
	if !strings.Contains(dot, "dashed") {
		t.Error("ToDOT() external node should be dashed")
	}
	if !strings.Contains(dot, `"com.example.Service" -> "java.util.List"`) {
		t.Error("ToDOT() output missing edge to external class")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Detailed: true, IncludeExternal: true})

	if !strings.Contains(dot, `interface\nfields: 0`) {
		t.Error("ToDOT() detailed output missing kind")
	}
	if !strings.Contains(dot, `(external)`) {
		t.Error("ToDOT() detailed output missing external marker")
	}
}

func TestToDOT_EdgeLabelsAndKinds(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{EdgeLabels: true, Kinds: classgraph.EdgeField})

	if !strings.Contains(dot, `[label="field"]`) {
		t.Error("ToDOT() output missing edge label")
	}
	if strings.Contains(dot, `"com.example.Service" -> "com.example.Base"`) {
		t.Error("ToDOT() should drop edges outside Kinds")
	}
}

func TestToDOT_ClusterPackages(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{ClusterPackages: true})

	if !strings.Contains(dot, "subgraph cluster_0") {
		t.Error("ToDOT() output missing cluster")
	}
	if !strings.Contains(dot, `label="com.example"`) {
		t.Error("ToDOT() cluster missing package label")
	}
	if !strings.Contains(dot, `"com.example.Repo" [label="Repo"`) {
		t.Error("ToDOT() clustered nodes should use simple names")
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	g := testGraph(t)
	first := ToDOT(g, Options{IncludeExternal: true, EdgeLabels: true})
	for range 5 {
		if got := ToDOT(g, Options{IncludeExternal: true, EdgeLabels: true}); got != first {
			t.Fatal("ToDOT() output differs between calls")
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Error("normalizeViewBox() should leave svg without viewBox untouched")
	}
}
