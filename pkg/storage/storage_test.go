package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
)

func testSnapshot() *pkgio.Snapshot {
	return &pkgio.Snapshot{
		Version:      pkgio.FormatVersion,
		ScanID:       "scan-1",
		Dependencies: true,
		Classes: []pkgio.Class{
			{
				Name:       "com.example.Service",
				Kind:       "class",
				State:      "resolved",
				Flags:      0x0021,
				Modifiers:  "public",
				Superclass: "com.example.Base",
				Interfaces: []string{"java.lang.Runnable", "com.example.Api"},
				Annotations: []pkgio.Annotation{
					{Type: "com.example.Component", Visible: true, Text: "@com.example.Component"},
				},
				Fields: []pkgio.Member{
					{Name: "repo", Flags: 0x0002, Descriptor: "Lcom/example/Repo;"},
				},
				Methods: []pkgio.Member{
					{Name: "<init>", Flags: 0x0001, Descriptor: "()V"},
					{
						Name:       "find",
						Flags:      0x0001,
						Descriptor: "()Ljava/util/List;",
						Type:       "java.util.List<java.lang.String>",
						Annotations: []pkgio.Annotation{
							{Type: "com.example.Cached", Text: "@com.example.Cached"},
						},
					},
				},
				Resource:     "com/example/Service.class",
				Element:      "/tmp/classes",
				SourceFile:   "Service.java",
				MajorVersion: 61,
			},
			{Name: "com.example.Api", Kind: "unknown", State: "external"},
			{Name: "com.example.Base", Kind: "class", State: "resolved", Resource: "com/example/Base.class"},
			{Name: "com.example.Repo", Kind: "interface", State: "resolved", Flags: 0x0601},
			{Name: "java.lang.Runnable", Kind: "unknown", State: "external"},
		},
		Edges: []pkgio.Edge{
			{From: "com.example.Service", To: "com.example.Api", Kinds: []string{"interface"}},
			{From: "com.example.Service", To: "com.example.Base", Kinds: []string{"superclass"}},
			{From: "com.example.Service", To: "com.example.Repo", Kinds: []string{"field", "method-return"}},
			{From: "com.example.Service", To: "java.lang.Runnable", Kinds: []string{"interface"}},
		},
		Failures: []pkgio.Failure{
			{Resource: "lib.jar!com/example/Bad.class", Code: "MALFORMED_CLASS", Error: "truncated"},
		},
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "classes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWriteReadSnapshot(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	want := testSnapshot()

	if err := db.WriteSnapshot(ctx, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := db.ReadSnapshot(ctx)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	// Stored classes come back in name order.
	wantSorted := *want
	wantSorted.Classes = []pkgio.Class{want.Classes[1], want.Classes[2], want.Classes[3], want.Classes[0], want.Classes[4]}
	if !reflect.DeepEqual(got, &wantSorted) {
		t.Errorf("ReadSnapshot() =\n%+v\nwant\n%+v", got, &wantSorted)
	}
}

func TestWriteSnapshot_Replaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.WriteSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	small := &pkgio.Snapshot{
		Version: pkgio.FormatVersion,
		Classes: []pkgio.Class{{Name: "A", Kind: "class", State: "resolved"}},
	}
	if err := db.WriteSnapshot(ctx, small); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	st, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (Stats{Classes: 1}) {
		t.Errorf("Stats() = %+v, want one class", st)
	}
}

func TestWriteSnapshot_UnknownEdgeRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.WriteSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	bad := &pkgio.Snapshot{
		Classes: []pkgio.Class{{Name: "A", Kind: "class", State: "resolved"}},
		Edges:   []pkgio.Edge{{From: "A", To: "Missing", Kinds: []string{"field"}}},
	}
	if err := db.WriteSnapshot(ctx, bad); err == nil {
		t.Fatal("WriteSnapshot() with dangling edge should fail")
	}

	st, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{Classes: 3, Externals: 2, Edges: 4, Failures: 1}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.WriteSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	t.Run("GetClass", func(t *testing.T) {
		c, err := db.GetClass(ctx, "com.example.Service")
		if err != nil {
			t.Fatalf("GetClass: %v", err)
		}
		if len(c.Methods) != 2 || c.Methods[1].Annotations[0].Type != "com.example.Cached" {
			t.Errorf("GetClass() methods = %+v", c.Methods)
		}
		if _, err := db.GetClass(ctx, "com.example.Nope"); !errs.Is(err, errs.ErrCodeNotFound) {
			t.Errorf("GetClass(missing) error = %v, want NOT_FOUND", err)
		}
	})

	t.Run("FindClasses", func(t *testing.T) {
		got, err := db.FindClasses(ctx, "Repo")
		if err != nil {
			t.Fatalf("FindClasses: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"com.example.Repo"}) {
			t.Errorf("FindClasses(Repo) = %v", got)
		}

		got, err = db.FindClasses(ctx, "com.example")
		if err != nil {
			t.Fatalf("FindClasses: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("FindClasses(com.example) = %v, want 4 names", got)
		}

		got, err = db.FindClasses(ctx, "%")
		if err != nil {
			t.Fatalf("FindClasses: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("FindClasses(%%) = %v, want none", got)
		}
	})

	t.Run("Dependents", func(t *testing.T) {
		got, err := db.Dependents(ctx, "com.example.Repo")
		if err != nil {
			t.Fatalf("Dependents: %v", err)
		}
		want := []pkgio.Edge{{From: "com.example.Service", To: "com.example.Repo", Kinds: []string{"field", "method-return"}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Dependents() = %+v, want %+v", got, want)
		}
	})

	t.Run("Dependencies", func(t *testing.T) {
		got, err := db.Dependencies(ctx, "com.example.Service")
		if err != nil {
			t.Fatalf("Dependencies: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("Dependencies() = %+v, want 4 edges", got)
		}
	})

	t.Run("ClassesAnnotatedWith", func(t *testing.T) {
		got, err := db.ClassesAnnotatedWith(ctx, "com.example.Cached")
		if err != nil {
			t.Fatalf("ClassesAnnotatedWith: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"com.example.Service"}) {
			t.Errorf("ClassesAnnotatedWith() = %v", got)
		}
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.WriteSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := db.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	st, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v", st)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("Open(\"\") error = %v, want INVALID_PATH", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if err := db.WriteSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
}
