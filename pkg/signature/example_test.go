package signature_test

import (
	"fmt"

	"github.com/matzehuels/classscan/pkg/signature"
)

func ExampleParseMethodSignature() {
	m, err := signature.ParseMethodSignature("<T:Ljava/lang/Object;>(Ljava/util/List<+TT;>;[Lcom/example/X;)V")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m)
	for _, p := range m.Params {
		if arr, ok := p.(*signature.ArrayType); ok {
			fmt.Println(arr.Element, arr.Dims)
		}
	}
	fmt.Println(m.ClassNames())
	// Output:
	// <T> void(java.util.List<? extends T>, com.example.X[])
	// com.example.X 1
	// [java.lang.Object java.util.List com.example.X]
}

func ExampleParseTypeDescriptor() {
	_, err := signature.ParseTypeDescriptor("[Q")
	fmt.Println(err)
	// Output:
	// malformed signature "[Q" at 1: unknown type tag 'Q'
}
