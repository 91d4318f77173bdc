package classgraph_test

import (
	"fmt"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
	"github.com/matzehuels/classscan/pkg/classgraph"
)

func Example() {
	sources := map[string][]byte{
		"com/example/X.class": classfiletest.New("com.example.X").Bytes(),
		"com/example/Y.class": classfiletest.New("com.example.Y").
			Field(classfile.AccPrivate, "xs", "[Lcom/example/X;").Done().
			Bytes(),
	}

	g := classgraph.NewGraph()
	for i, res := range []string{"com/example/X.class", "com/example/Y.class"} {
		cf, err := classfile.Parse(res, sources[res], classfile.Options{CheckName: true})
		if err != nil {
			fmt.Println(err)
			return
		}
		rec, err := classgraph.BuildRecord(cf, classgraph.RecordOptions{})
		if err != nil {
			fmt.Println(err)
			return
		}
		rec.Order = i
		if _, err := g.AddOrMerge(rec); err != nil {
			fmt.Println(err)
			return
		}
	}
	g.Finalize(nil)

	y := g.Get("com.example.Y")
	for _, dep := range y.Dependencies() {
		fmt.Println(dep.Name, dep.State, g.EdgeKinds(y.Name, dep.Name))
	}
	arr := y.FieldInfo("xs").ArrayClassInfo()
	fmt.Println(arr.Name(), arr.Dimensions(), arr.ElementClassInfo().IsResolved())
	// Output:
	// com.example.X resolved field
	// java.lang.Object external superclass
	// com.example.X[] 1 true
}
