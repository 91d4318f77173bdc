package scan

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
	"github.com/matzehuels/classscan/pkg/classpath"
	errs "github.com/matzehuels/classscan/pkg/errors"
)

// memElement is an in-memory classpath element.
type memElement struct {
	path   string
	files  map[string][]byte
	onOpen func(resource string)
	closed int
}

func (e *memElement) Path() string { return e.path }

func (e *memElement) Walk(ctx context.Context, fn func(classpath.Entry) error) error {
	for _, name := range slices.Sorted(maps.Keys(e.files)) {
		if err := fn(classpath.Entry{Name: name, Size: int64(len(e.files[name]))}); err != nil {
			return err
		}
	}
	return nil
}

func (e *memElement) Open(resource string) (io.ReadCloser, error) {
	if e.onOpen != nil {
		e.onOpen(resource)
	}
	data, ok := e.files[resource]
	if !ok {
		return nil, errs.New(errs.ErrCodeNotFound, "%s not found", resource)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (e *memElement) Close() error {
	e.closed++
	return nil
}

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = log.New(io.Discard)
	return opts
}

func scanFiles(t *testing.T, files map[string][]byte, opts Options) *Result {
	t.Helper()
	el := &memElement{path: "mem", files: files}
	res, err := ScanClasspath(context.Background(), classpath.FromElements(opts.Filter, el), opts)
	if err != nil {
		t.Fatalf("ScanClasspath: %v", err)
	}
	t.Cleanup(func() { _ = res.Close() })
	return res
}

// scenarioFiles holds X, Ann and Y where Y is annotated @Ann({X.class})
// and declares y(X[] x).
func scenarioFiles() map[string][]byte {
	annFlags := classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract | classfile.AccAnnotation
	return map[string][]byte{
		"com/example/X.class": classfiletest.New("com.example.X").Bytes(),
		"com/example/Ann.class": classfiletest.New("com.example.Ann").
			Flags(annFlags).
			Interfaces("java.lang.annotation.Annotation").
			Method(classfile.AccPublic|classfile.AccAbstract, "value", "()[Ljava/lang/Class;").Done().
			Bytes(),
		"com/example/Y.class": classfiletest.New("com.example.Y").
			Annotate(classfiletest.A("com.example.Ann",
				classfiletest.P("value", classfiletest.Array(classfiletest.Class("Lcom/example/X;"))))).
			Method(classfile.AccPublic, "y", "([Lcom/example/X;)V").ParamNames("x").Done().
			Bytes(),
	}
}

func writeClasses(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
}
